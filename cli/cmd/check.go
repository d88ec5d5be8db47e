package cmd

import (
	"context"
	"log/slog"

	"github.com/johncclayton/rt-grammar/log"
	"github.com/johncclayton/rt-grammar/validate"
)

// Check validates script files and reports the outcome.
type Check struct {
	Paths []string `arg:"" default:"." help:"Script files or directories to validate." name:"path" type:"path"`

	Ext       string `default:"${scriptExt}" help:"Script file extension."`
	Recursive bool   `help:"Descend into subdirectories." short:"r"`
	Workers   int    `default:"0" help:"Files parsed at once (0 selects the CPU count)." short:"j"`
	MaxDepth  int    `default:"${maxDepth}" help:"Maximum nesting depth of blocks and expressions."`

	Details  bool   `help:"Print the diagnostic of every failed file." short:"d"`
	Context  bool   `help:"Show the offending source line and a caret." short:"c"`
	Warnings bool   `help:"Print advisory warnings such as arity." short:"w"`
	Format   string `default:"text" enum:"text,json,yaml" help:"Report format." short:"o"`

	Status  string   `help:"Write a pass/fail status file and report changes since the last run." placeholder:"FILE" type:"path"`
	History string   `help:"Record the run in a SQLite database." placeholder:"FILE" type:"path"`
	Require []string `help:"Boolean expression over the run summary that must hold." placeholder:"EXPR"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, g *Loaded) error {
	reqs, err := validate.CompileRequirements(c.Require...)
	if err != nil {
		return err
	}

	v := validate.New(
		validate.WithGrammar(g.Table),
		validate.WithWorkers(c.Workers),
		validate.WithMaxDepth(c.MaxDepth),
		validate.WithLogger(log.Default()),
	)

	run, err := v.Paths(ctx, c.Paths, c.Ext, c.Recursive)
	if err != nil {
		return err
	}

	unmet := unmetOf(reqs.Check(run))

	var (
		change  validate.StatusChange
		written bool
	)

	if c.Status != "" {
		change, err = c.writeStatus(ctx, run)
		if err != nil {
			return err
		}

		written = true
	}

	if c.History != "" {
		if err := c.record(ctx, run); err != nil {
			return err
		}
	}

	if err := c.report(ctx, g, run, unmet, written, change); err != nil {
		return err
	}

	if !run.Summary.OK() || len(unmet) > 0 {
		return ErrValidation.With(
			slog.Int("failed", run.Summary.Failed),
			slog.Int("unmet", len(unmet)),
		)
	}

	return nil
}

func (c *Check) writeStatus(ctx context.Context, run *validate.Run) (validate.StatusChange, error) {
	prev, err := validate.ReadStatus(c.Status)
	if err != nil {
		log.WarnContext(ctx, "ignoring previous status", slog.Any("error", err))

		prev = validate.Status{}
	}

	cur := validate.StatusOf(run)
	if err := validate.WriteStatus(c.Status, cur); err != nil {
		return validate.StatusChange{}, err
	}

	if len(prev) == 0 {
		return validate.StatusChange{}, nil
	}

	change := cur.Compare(prev)

	for _, name := range change.Regressions {
		log.WarnContext(ctx, "regression", slog.String("file", name))
	}

	for _, name := range change.Fixes {
		log.InfoContext(ctx, "fixed", slog.String("file", name))
	}

	return change, nil
}

func (c *Check) record(ctx context.Context, run *validate.Run) error {
	h, err := validate.OpenHistory(ctx, c.History)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.Record(ctx, run); err != nil {
		return err
	}

	log.DebugContext(ctx, "run recorded",
		slog.String("file", c.History),
		slog.String("run", run.ID.String()),
	)

	return nil
}

func (c *Check) report(
	ctx context.Context,
	g *Loaded,
	run *validate.Run,
	unmet []error,
	written bool,
	change validate.StatusChange,
) error {
	w := stdout(ctx)

	if c.Format != "json" && c.Format != "yaml" {
		p := validate.NewPrinter(w)
		p.Details = c.Details
		p.Context = c.Context
		p.Warnings = c.Warnings

		p.Banner(g.Source)
		p.Discovered(paths(run))
		p.Results(run)
		p.Summary(run.Summary)

		if written {
			p.StatusWritten(c.Status, change)
		}

		p.Unmet(unmet)
		p.Verdict(run.Summary)

		return nil
	}

	rep := run.Report()
	if written {
		rep.StatusFile = c.Status
	}

	for _, err := range unmet {
		rep.Unmet = append(rep.Unmet, err.Error())
	}

	var err error
	if c.Format == "yaml" {
		err = rep.WriteYAML(ctx, w)
	} else {
		err = rep.WriteJSON(w)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", c.Format))
	}

	return nil
}

func paths(run *validate.Run) []string {
	out := make([]string, len(run.Results))
	for i, r := range run.Results {
		out[i] = r.Path
	}

	return out
}
