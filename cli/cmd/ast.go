package cmd

import (
	"context"
	"log/slog"

	"github.com/johncclayton/rt-grammar/lang"
)

// AST prints the syntax tree of a script.
type AST struct {
	Format   string `default:"tree" enum:"tree,json,yaml" help:"Output format." short:"o"`
	Indent   int    `default:"2" help:"Indent width for JSON and YAML output." short:"i"`
	MaxDepth int    `default:"${maxDepth}" help:"Maximum nesting depth of blocks and expressions."`

	Source string `arg:"" default:"-" help:"Script file or '-' for stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, g *Loaded) error {
	data, err := readSource(a.Source)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	script, err := lang.ParseString(ctx, string(data),
		lang.WithGrammar(g.Table),
		lang.WithMaxDepth(a.MaxDepth),
	)
	if err != nil {
		return printDiagnostic(w, a.Source, err)
	}

	switch a.Format {
	case "json":
		err = script.FormatJSON(ctx, w, a.Indent)
	case "yaml":
		err = script.FormatYAML(ctx, w, a.Indent)
	default:
		err = script.Print(w)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", a.Format))
	}

	return nil
}
