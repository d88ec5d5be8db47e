package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/johncclayton/rt-grammar/lang/grammar"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or os.Stdout.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource reads a script from path, or from stdin when path is "-".
func readSource(path string) ([]byte, error) {
	var r io.Reader = os.Stdin

	if path != stdinSource {
		f, err := os.Open(path)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).With(slog.String("path", path))
		}
		defer f.Close()

		r = f
	}

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadSource.Wrap(err).With(slog.String("path", path))
	}

	return data, nil
}

// Loaded is the grammar selected by the global grammar flags.
type Loaded struct {
	Table *grammar.Table
	// Source names where the table came from: a file path or "built-in".
	Source string
	// File and Options reload the table when it changes.
	File    string
	Options []grammar.Option
}

// BuiltinSource is the [Loaded.Source] of the embedded grammar.
const BuiltinSource = "built-in"

// LoadGrammar loads the grammar description at file, or the built-in one
// when file is empty. format overrides the extension; constraint is a
// semantic version range the grammar must satisfy. Every failure is a
// [*grammar.LoadError].
func LoadGrammar(file, format, constraint string) (*Loaded, error) {
	var opts []grammar.Option

	if format != "" {
		f, err := grammar.ParseFormat(format)
		if err != nil {
			return nil, &grammar.LoadError{Path: file, Err: err}
		}

		opts = append(opts, grammar.WithFormat(f))
	}

	if constraint != "" {
		opts = append(opts, grammar.WithConstraint(constraint))
	}

	if file == "" {
		if constraint == "" {
			return &Loaded{Table: grammar.Default(), Source: BuiltinSource}, nil
		}

		t, err := grammar.Parse(grammar.DefaultSource(), grammar.FormatYAML, opts...)
		if err != nil {
			return nil, err
		}

		return &Loaded{Table: t, Source: BuiltinSource, Options: opts}, nil
	}

	t, err := grammar.Load(file, opts...)
	if err != nil {
		return nil, err
	}

	return &Loaded{Table: t, Source: file, File: file, Options: opts}, nil
}

// unmetOf splits the joined error returned by requirement checks.
func unmetOf(err error) []error {
	if err == nil {
		return nil
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}

	return []error{err}
}
