package validate

import (
	"errors"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Requirements are boolean expressions over a run's summary that must all
// hold for the run to pass, for example:
//
//	percentage >= 95
//	failed <= 2 && warnings == 0
//	!("legacy.rts" in failures)
type Requirements struct {
	rules []rule
}

type rule struct {
	source  string
	program *vm.Program
}

// requireEnv is the environment a requirement is evaluated in.
type requireEnv struct {
	Total      int      `expr:"total"`
	Succeeded  int      `expr:"succeeded"`
	Failed     int      `expr:"failed"`
	Percentage float64  `expr:"percentage"`
	Warnings   int      `expr:"warnings"`
	Elapsed    float64  `expr:"elapsed"` // seconds
	Failures   []string `expr:"failures"`
}

func envOf(run *Run) requireEnv {
	env := requireEnv{
		Total:      run.Summary.Total,
		Succeeded:  run.Summary.Succeeded,
		Failed:     run.Summary.Failed,
		Percentage: run.Summary.Percentage(),
		Elapsed:    run.Elapsed.Seconds(),
		Failures:   []string{},
	}

	for _, r := range run.Results {
		env.Warnings += len(r.Warnings)

		if !r.Success {
			env.Failures = append(env.Failures, r.Name())
		}
	}

	return env
}

// CompileRequirements compiles each source expression. Every expression must
// produce a boolean.
func CompileRequirements(sources ...string) (*Requirements, error) {
	reqs := &Requirements{rules: make([]rule, 0, len(sources))}

	for _, src := range sources {
		program, err := expr.Compile(src, expr.Env(requireEnv{}), expr.AsBool())
		if err != nil {
			return nil, ErrBadRule.Wrap(err).With(slog.String("requirement", src))
		}

		reqs.rules = append(reqs.rules, rule{source: src, program: program})
	}

	return reqs, nil
}

// Len returns the number of requirements.
func (r *Requirements) Len() int {
	if r == nil {
		return 0
	}

	return len(r.rules)
}

// Check evaluates every requirement against run and returns the joined
// errors of those that do not hold.
func (r *Requirements) Check(run *Run) error {
	if r.Len() == 0 {
		return nil
	}

	env := envOf(run)

	var errs []error

	for _, rl := range r.rules {
		out, err := vm.Run(rl.program, env)
		if err != nil {
			errs = append(errs, ErrBadRule.Wrap(err).With(slog.String("requirement", rl.source)))

			continue
		}

		if ok, _ := out.(bool); !ok {
			errs = append(errs, ErrRequire.Wrap(errors.New(rl.source)))
		}
	}

	return errors.Join(errs...)
}
