package cmd

import (
	"context"
	"time"

	"github.com/johncclayton/rt-grammar/log"
	"github.com/johncclayton/rt-grammar/validate"
)

// Watch validates script files and validates them again as they change.
type Watch struct {
	Paths []string `arg:"" default:"." help:"Script files or directories to watch." name:"path" type:"path"`

	Ext       string        `default:"${scriptExt}" help:"Script file extension."`
	Recursive bool          `help:"Descend into subdirectories." short:"r"`
	Workers   int           `default:"0" help:"Files parsed at once (0 selects the CPU count)." short:"j"`
	MaxDepth  int           `default:"${maxDepth}" help:"Maximum nesting depth of blocks and expressions."`
	Debounce  time.Duration `default:"200ms" help:"Quiet period before changed files are validated."`

	Details  bool `help:"Print the diagnostic of every failed file." short:"d"`
	Context  bool `help:"Show the offending source line and a caret." short:"c"`
	Warnings bool `help:"Print advisory warnings such as arity." short:"w"`
}

// Run executes the watch command. It returns when ctx is cancelled.
func (wa *Watch) Run(ctx context.Context, g *Loaded) error {
	v := validate.New(
		validate.WithGrammar(g.Table),
		validate.WithWorkers(wa.Workers),
		validate.WithMaxDepth(wa.MaxDepth),
		validate.WithLogger(log.Default()),
	)

	p := validate.NewPrinter(stdout(ctx))
	p.Details = wa.Details
	p.Context = wa.Context
	p.Warnings = wa.Warnings

	first := true

	return v.Watch(ctx, validate.WatchConfig{
		Paths:          wa.Paths,
		Ext:            wa.Ext,
		Recursive:      wa.Recursive,
		GrammarFile:    g.File,
		GrammarOptions: g.Options,
		Debounce:       wa.Debounce,
	}, func(run *validate.Run) {
		if first {
			p.Banner(g.Source)
			p.Discovered(paths(run))

			first = false
		}

		p.Results(run)
		p.Summary(run.Summary)
		p.Verdict(run.Summary)
	})
}
