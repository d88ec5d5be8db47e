package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/johncclayton/rt-grammar/lang"
)

// Tokens prints the tokens of a script, one per line.
type Tokens struct {
	Comments bool   `help:"Include comment tokens."`
	Format   string `default:"text" enum:"text,json" help:"Output format." short:"o"`

	Source string `arg:"" default:"-" help:"Script file or '-' for stdin." name:"source"`
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Lexeme string `json:"lexeme"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context, g *Loaded) error {
	data, err := readSource(t.Source)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	toks, err := lang.Tokenize(string(data),
		lang.WithGrammar(g.Table),
		lang.WithComments(t.Comments),
	)
	if err != nil {
		return printDiagnostic(w, t.Source, err)
	}

	if t.Format == "json" {
		out := make([]tokenJSON, len(toks))
		for i, tok := range toks {
			out[i] = tokenJSON{tok.Kind.String(), tok.Lexeme, tok.Line, tok.Column}
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(out); err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("format", t.Format))
		}

		return nil
	}

	for _, tok := range toks {
		if _, err := fmt.Fprintln(w, tok); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

// printDiagnostic writes the diagnostic carried by err and returns
// [ErrValidation]. Errors without a diagnostic are returned unchanged.
func printDiagnostic(w io.Writer, source string, err error) error {
	d, ok := lang.DiagnosticOf(err)
	if !ok {
		return err
	}

	fmt.Fprintln(w, d.Format())

	return ErrValidation.With(
		slog.String("source", source),
		slog.Any("diagnostic", d),
	)
}
