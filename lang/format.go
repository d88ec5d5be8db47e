package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// ToMap converts the script to nested maps and slices suitable for JSON or
// YAML encoding.
func (s *Script) ToMap() map[string]any {
	sections := make([]any, len(s.Sections))
	for i, sec := range s.Sections {
		sections[i] = native(sec)
	}

	return map[string]any{"sections": sections}
}

// FormatJSON writes the script as JSON to the writer.
func (s *Script) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(s.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(s.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the script as YAML to the writer.
func (s *Script) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, s.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func natives[T Node](ns []T) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = native(n)
	}

	return out
}

func node(kind string, pos Position, kv ...any) map[string]any {
	m := map[string]any{"kind": kind, "line": pos.Line, "column": pos.Column}

	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != nil {
			m[kv[i].(string)] = kv[i+1]
		}
	}

	return m
}

func native(n Node) any {
	if n == nil {
		return nil
	}

	switch n := n.(type) {
	case *Section:
		m := node("section", n.Start, "name", n.Name, "body", natives(n.Body))
		if n.Header != "" {
			m["header"] = n.Header
		}

		if n.HeaderOnly {
			m["header_only"] = true
		}

		return m

	case *Assignment:
		return node("assignment", n.Start,
			"target", n.Target, "op", n.Op, "value", native(n.Value))

	case *CallStatement:
		return node("call_statement", n.Pos(), "call", native(n.Call))

	case *Conditional:
		m := node("conditional", n.Start, "branches", natives(n.Branches))
		if n.HasElse {
			m["else"] = natives(n.Else)
		}

		return m

	case *Branch:
		return node("branch", n.Start, "cond", native(n.Cond), "body", natives(n.Body))

	case *Directive:
		m := node("directive", n.Start, "mode", n.Mode.String())
		if n.Name != "" {
			m["name"] = n.Name
		}

		if len(n.Values) > 0 {
			m["values"] = natives(n.Values)
		} else {
			m["text"] = n.Text
		}

		return m

	case *ParamDecl:
		m := node("parameter", n.Start, "name", n.Name)
		if n.To != nil {
			m["from"] = native(n.From)
			m["to"] = native(n.To)

			if n.Step != nil {
				m["step"] = native(n.Step)
			}
		} else {
			m["values"] = natives(n.Values)
		}

		return m

	case *Literal:
		return node(n.Kind.String(), n.Start, "value", n.Raw)
	case *Identifier:
		return node("identifier", n.Start, "name", n.Name)
	case *SymbolRef:
		return node("symbol", n.Start, "name", n.Name)
	case *WatchlistRef:
		return node("watchlist", n.Start, "name", n.Name)
	case *ParamRef:
		return node("param", n.Start, "name", n.Name)
	case *Unary:
		return node("unary", n.Start, "op", n.Op, "operand", native(n.Operand))
	case *Binary:
		return node("binary", n.Start,
			"op", n.Op, "left", native(n.Left), "right", native(n.Right))
	case *Call:
		return node("call", n.Start, "name", n.Name, "args", natives(n.Args))
	case *Index:
		return node("index", n.Start, "target", native(n.Target), "index", native(n.Index))
	default:
		return fmt.Sprintf("%T", n)
	}
}
