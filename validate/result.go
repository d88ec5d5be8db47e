package validate

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/johncclayton/rt-grammar/lang"
)

// Result is the outcome of validating one file.
type Result struct {
	Path       string
	Success    bool
	Diagnostic *lang.Diagnostic // set for lexical and syntax errors
	Err        error            // set for every failure
	Elapsed    time.Duration
	Warnings   []string // advisory findings on a file that parsed
}

// Name returns the base name of the file.
func (r Result) Name() string { return filepath.Base(r.Path) }

// Status returns "pass" or "fail".
func (r Result) Status() string {
	if r.Success {
		return statusPass
	}

	return statusFail
}

// LogValue implements slog.LogValuer.
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("path", r.Path),
		slog.Bool("success", r.Success),
		slog.Duration("elapsed", r.Elapsed),
	}

	if r.Diagnostic != nil {
		attrs = append(attrs, slog.Any("diagnostic", *r.Diagnostic))
	} else if r.Err != nil {
		attrs = append(attrs, slog.Any("error", r.Err))
	}

	if len(r.Warnings) > 0 {
		attrs = append(attrs, slog.Int("warnings", len(r.Warnings)))
	}

	return slog.GroupValue(attrs...)
}

// Summary aggregates the results of a run.
type Summary struct {
	Total     int `json:"total"     yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed"    yaml:"failed"`
}

// Summarize counts results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}

	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	return s
}

// Percentage returns the share of files that succeeded, from 0 to 100.
// An empty summary has a percentage of 0.
func (s Summary) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}

	return 100 * float64(s.Succeeded) / float64(s.Total)
}

// FailedPercentage returns the share of files that failed, from 0 to 100.
func (s Summary) FailedPercentage() float64 {
	if s.Total == 0 {
		return 0
	}

	return 100 * float64(s.Failed) / float64(s.Total)
}

// OK reports whether every file succeeded.
func (s Summary) OK() bool { return s.Failed == 0 }

// Run is one invocation of the validator over a set of files.
type Run struct {
	ID      uuid.UUID
	Started time.Time
	Elapsed time.Duration
	Grammar string // grammar name and version
	Results []Result
	Summary Summary
}

// Failed returns the results that did not succeed, in order.
func (r *Run) Failed() []Result {
	var out []Result

	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}

	return out
}
