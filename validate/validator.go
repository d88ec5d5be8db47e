package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/johncclayton/rt-grammar/lang"
	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/log"
)

// Validator parses script files with one grammar.
type Validator struct {
	table    *grammar.Table
	cache    *lang.Cache
	logger   log.Logger
	workers  int
	maxDepth int
}

// Option configures a [Validator].
type Option func(*Validator)

// WithGrammar selects the grammar table. The default is [grammar.Default].
func WithGrammar(t *grammar.Table) Option {
	return func(v *Validator) { v.table = t }
}

// WithWorkers limits the number of files parsed at once. Non-positive values
// select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(v *Validator) { v.workers = n }
}

// WithCache shares a parse cache between validators or runs.
func WithCache(c *lang.Cache) Option {
	return func(v *Validator) { v.cache = c }
}

// WithLogger sets the logger for per-file progress.
func WithLogger(logger log.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithMaxDepth passes a nesting limit to the parser.
func WithMaxDepth(depth int) Option {
	return func(v *Validator) { v.maxDepth = depth }
}

// New returns a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	if v.table == nil {
		v.table = grammar.Default()
	}

	if v.cache == nil {
		v.cache = lang.NewCache()
	}

	if v.workers <= 0 {
		v.workers = runtime.GOMAXPROCS(0)
	}

	return v
}

// Grammar returns the grammar table in use.
func (v *Validator) Grammar() *grammar.Table { return v.table }

// Cache returns the parse cache in use.
func (v *Validator) Cache() *lang.Cache { return v.cache }

// File validates one file. The result fails with [ErrRead] when the file
// cannot be read; the parser is not invoked.
func (v *Validator) File(ctx context.Context, path string) Result {
	start := time.Now()
	res := Result{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = ErrRead.Wrap(err).With(slog.String("path", path))

		return v.done(ctx, res, start)
	}
	defer f.Close()

	script, err := v.cache.ParseReader(ctx, f,
		lang.WithGrammar(v.table),
		lang.WithMaxDepth(v.maxDepth),
		lang.WithLogger(v.logger),
	)
	if err != nil {
		res.Err = err

		if d, ok := lang.DiagnosticOf(err); ok {
			res.Diagnostic = &d
		} else if errors.Is(err, lang.ErrReadInput) {
			res.Err = ErrRead.Wrap(err).With(slog.String("path", path))
		}

		return v.done(ctx, res, start)
	}

	res.Success = true
	res.Warnings = v.arity(script)

	return v.done(ctx, res, start)
}

func (v *Validator) done(ctx context.Context, res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)

	for _, w := range res.Warnings {
		v.logger.WarnContext(ctx, "advisory", slog.String("path", res.Path), slog.String("warning", w))
	}

	v.logger.DebugContext(ctx, "validated", slog.Any("result", res))

	return res
}

// arity reports calls to known functions with an unexpected argument count.
func (v *Validator) arity(script *lang.Script) []string {
	var warnings []string

	for c := range script.Calls() {
		if err := v.table.CheckArity(c.Name, len(c.Args)); err != nil {
			warnings = append(warnings,
				fmt.Sprintf("%s: %s with %d arguments: %v", c.Start, c.Name, len(c.Args), err))
		}
	}

	return warnings
}

// Files validates paths concurrently and returns the run with results in
// the order of paths. It returns an error only when ctx is done first.
func (v *Validator) Files(ctx context.Context, paths []string) (*Run, error) {
	run := &Run{
		ID:      uuid.New(),
		Started: time.Now(),
		Grammar: v.table.String(),
		Results: make([]Result, len(paths)),
	}

	v.logger.InfoContext(ctx, "validation started",
		slog.String("run", run.ID.String()),
		slog.String("grammar", run.Grammar),
		slog.Int("files", len(paths)),
		slog.Int("workers", v.workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, v.workers)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			defer func() { <-sem }()

			run.Results[i] = v.File(gctx, path)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.Elapsed = time.Since(run.Started)
	run.Summary = Summarize(run.Results)

	hits, misses := v.cache.Stats()

	v.logger.InfoContext(ctx, "validation finished",
		slog.String("run", run.ID.String()),
		slog.Int("total", run.Summary.Total),
		slog.Int("succeeded", run.Summary.Succeeded),
		slog.Int("failed", run.Summary.Failed),
		slog.Duration("elapsed", run.Elapsed),
		slog.Int64("cache_hits", hits),
		slog.Int64("cache_misses", misses),
	)

	return run, nil
}

// Paths discovers the script files below paths and validates them.
func (v *Validator) Paths(ctx context.Context, paths []string, ext string, recursive bool) (*Run, error) {
	files, err := Discover(paths, ext, recursive)
	if err != nil {
		return nil, err
	}

	return v.Files(ctx, files)
}
