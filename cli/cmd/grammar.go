package cmd

import (
	"context"
	"log/slog"

	"github.com/johncclayton/rt-grammar/lang/grammar"
)

// Grammar prints the effective grammar description.
type Grammar struct {
	Format string `default:"yaml" enum:"yaml,json,toml,hcl" help:"Output format." short:"o"`
}

// Run executes the grammar command.
func (gr *Grammar) Run(ctx context.Context, g *Loaded) error {
	err := grammar.Encode(stdout(ctx), g.Table.Description(), grammar.Format(gr.Format))
	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", gr.Format))
	}

	return nil
}
