package grammar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/johncclayton/rt-grammar/pkg"
)

// Sentinel errors.
var (
	// ErrLoad matches every [*LoadError].
	ErrLoad = pkg.NewError("grammar load error")
	// ErrInvalid is returned by [Build] for descriptions that fail
	// validation.
	ErrInvalid = pkg.NewError("invalid grammar description")
	// ErrFormat is returned for unknown description formats.
	ErrFormat = pkg.NewError("unknown grammar format")
	// ErrVersion is returned when a description fails a version constraint.
	ErrVersion = pkg.NewError("grammar version not accepted")
)

// LoadError reports a grammar description that could not be read, decoded,
// or validated. It is fatal to a validation run.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrLoad, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", ErrLoad, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is makes every LoadError match [ErrLoad].
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// LogValue implements slog.LogValuer.
func (e *LoadError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrLoad.Error()),
		slog.String("path", e.Path),
		slog.String("cause", e.Err.Error()),
	)
}

// Format identifies a grammar description encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// Formats lists the supported description formats.
func Formats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatTOML, FormatHCL}
}

// ParseFormat returns the format named s, accepting "yml" for YAML.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if f == "yml" {
		f = FormatYAML
	}

	if !slices.Contains(Formats(), f) {
		return "", ErrFormat.With(slog.String("format", s))
	}

	return f, nil
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Option configures [Load] and [Parse].
type Option func(*options)

type options struct {
	format     Format
	constraint string
}

// WithFormat overrides the format inferred from the file extension.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithConstraint requires the description version to satisfy the semantic
// version constraint c, e.g. "^1.2".
func WithConstraint(c string) Option {
	return func(o *options) { o.constraint = strings.TrimSpace(c) }
}

// Load reads and builds the grammar description at path. Any failure is a
// [*LoadError].
func Load(path string, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.format == "" {
		f, err := FormatOf(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		o.format = f
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	t, err := parse(data, path, o)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return t, nil
}

// Parse decodes and builds a grammar description held in memory.
// Any failure is a [*LoadError].
func Parse(data []byte, format Format, opts ...Option) (*Table, error) {
	o := options{format: format}
	for _, opt := range opts {
		opt(&o)
	}

	t, err := parse(data, "", o)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	return t, nil
}

func parse(data []byte, name string, o options) (*Table, error) {
	d, err := Decode(data, o.format, name)
	if err != nil {
		return nil, err
	}

	t, err := Build(d)
	if err != nil {
		return nil, err
	}

	if o.constraint != "" {
		c, err := semver.NewConstraint(o.constraint)
		if err != nil {
			return nil, ErrVersion.Wrap(err).
				With(slog.String("constraint", o.constraint))
		}

		if ok, errs := c.Validate(t.Version()); !ok {
			return nil, ErrVersion.Wrap(errors.Join(errs...)).
				With(slog.String("version", t.Version().String()))
		}
	}

	return t, nil
}

// Decode decodes a description without validating it. Unknown fields are
// rejected in every format. The name is used in HCL diagnostics.
func Decode(data []byte, format Format, name string) (Description, error) {
	var d Description

	switch format {
	case FormatYAML:
		err := yaml.UnmarshalWithOptions(data, &d, yaml.DisallowUnknownField())
		if err != nil {
			return d, err
		}

	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()

		if err := dec.Decode(&d); err != nil {
			return d, err
		}

	case FormatTOML:
		md, err := toml.Decode(string(data), &d)
		if err != nil {
			return d, err
		}

		if extra := md.Undecoded(); len(extra) > 0 {
			return d, fmt.Errorf("unknown keys %v", extra)
		}

	case FormatHCL:
		return decodeHCL(data, name)

	default:
		return d, ErrFormat.With(slog.String("format", string(format)))
	}

	return d, nil
}

// Encode writes d to w in the given format.
func Encode(w io.Writer, d Description, format Format) error {
	switch format {
	case FormatYAML:
		return yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true)).
			Encode(d)

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(d)

	case FormatTOML:
		return toml.NewEncoder(w).Encode(d)

	case FormatHCL:
		f := hclwrite.NewEmptyFile()
		gohcl.EncodeIntoBody(toHCL(d), f.Body())

		_, err := f.WriteTo(w)

		return err

	default:
		return ErrFormat.With(slog.String("format", string(format)))
	}
}

// hclDescription mirrors Description with operators, sections, and
// functions as labeled blocks:
//
//	name    = "realtest"
//	version = "1.2.0"
//	operator "^" {
//	  precedence = 6
//	  assoc      = "right"
//	}
//	section "Data" {
//	  statements = ["directive", "assignment"]
//	  directive  = "expr"
//	}
type hclDescription struct {
	Name      string        `hcl:"name,optional"`
	Version   string        `hcl:"version"`
	Separator string        `hcl:"separator,optional"`
	Assign    []string      `hcl:"assign,optional"`
	Keywords  *KeywordSet   `hcl:"keywords,block"`
	Operators []hclOperator `hcl:"operator,block"`
	Sections  []hclSection  `hcl:"section,block"`
	Functions []hclFunction `hcl:"function,block"`
}

type hclOperator struct {
	Lexeme     string `hcl:"lexeme,label"`
	Precedence int    `hcl:"precedence"`
	Assoc      string `hcl:"assoc,optional"`
	Unary      bool   `hcl:"unary,optional"`
}

type hclSection struct {
	Name       string   `hcl:"name,label"`
	Statements []string `hcl:"statements"`
	Directive  string   `hcl:"directive,optional"`
	Singleton  bool     `hcl:"singleton,optional"`
}

type hclFunction struct {
	Name     string `hcl:"name,label"`
	Min      int    `hcl:"min"`
	Max      int    `hcl:"max,optional"`
	Variadic bool   `hcl:"variadic,optional"`
}

func decodeHCL(data []byte, name string) (Description, error) {
	if name == "" {
		name = "grammar.hcl"
	}

	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return Description{}, diags
	}

	var h hclDescription
	if diags := gohcl.DecodeBody(file.Body, nil, &h); diags.HasErrors() {
		return Description{}, diags
	}

	d := Description{
		Name:      h.Name,
		Version:   h.Version,
		Separator: h.Separator,
		Assign:    h.Assign,
	}

	if h.Keywords != nil {
		d.Keywords = *h.Keywords
	}

	for _, op := range h.Operators {
		d.Operators = append(d.Operators, OperatorSpec(op))
	}

	for _, s := range h.Sections {
		d.Sections = append(d.Sections, SectionSpec(s))
	}

	for _, f := range h.Functions {
		d.Functions = append(d.Functions, FunctionSpec(f))
	}

	return d, nil
}

func toHCL(d Description) *hclDescription {
	kw := d.Keywords

	h := &hclDescription{
		Name:      d.Name,
		Version:   d.Version,
		Separator: d.Separator,
		Assign:    d.Assign,
		Keywords:  &kw,
	}

	for _, op := range d.Operators {
		h.Operators = append(h.Operators, hclOperator(op))
	}

	for _, s := range d.Sections {
		h.Sections = append(h.Sections, hclSection(s))
	}

	for _, f := range d.Functions {
		h.Functions = append(h.Functions, hclFunction(f))
	}

	return h
}
