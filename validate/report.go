package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	ruleWidth = 50
	nameWidth = 40
)

// Printer writes the human-readable report of a run.
type Printer struct {
	w io.Writer

	// Details prints the diagnostic of every failure, not only when a
	// single file is validated.
	Details bool
	// Context adds the offending source line and a caret to diagnostics.
	Context bool
	// Warnings prints advisory findings under the files that have them.
	Warnings bool

	title, ok, pass, fail, warn, dim lipgloss.Style
}

// NewPrinter returns a Printer writing to w. Styles degrade to plain text
// when w is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &Printer{
		w:     w,
		title: r.NewStyle().Bold(true),
		ok:    fg("2"),
		pass:  fg("2"),
		fail:  fg("1").Bold(true),
		warn:  fg("3"),
		dim:   fg("8"),
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Banner prints the title and the grammar in use.
func (p *Printer) Banner(grammarSource string) {
	p.printf("%s\n%s\n", p.title.Render("RealTest Script Validator"), strings.Repeat("=", ruleWidth))
	p.printf("%s Grammar loaded successfully from %s\n", p.ok.Render("[OK]"), grammarSource)
}

// Discovered prints the number of files found.
func (p *Printer) Discovered(files []string) {
	if len(files) == 1 {
		p.printf("Found 1 file to validate: %s\n", filepath.Base(files[0]))

		return
	}

	p.printf("Found %d file(s) to validate\n", len(files))
}

// Results prints one line per file. Diagnostics follow a failed file when
// the run has a single file or Details is set.
func (p *Printer) Results(run *Run) {
	p.printf("\nValidating files...\n%s\n", strings.Repeat("-", ruleWidth))

	n := len(run.Results)
	for i, r := range run.Results {
		status := p.pass.Render("[PASS]")
		if !r.Success {
			status = p.fail.Render("[FAIL]")
		}

		p.printf("[%3d/%d] %-*s %s\n", i+1, n, nameWidth, r.Name(), status)

		if !r.Success && (n == 1 || p.Details) {
			p.printf("\nError details:\n%s\n\n", p.detail(r))
		}

		if p.Warnings {
			for _, w := range r.Warnings {
				p.printf("        %s %s\n", p.warn.Render("warning:"), w)
			}
		}
	}
}

func (p *Printer) detail(r Result) string {
	if r.Diagnostic == nil {
		if r.Err != nil {
			return r.Err.Error()
		}

		return "unknown failure"
	}

	if !p.Context {
		out := r.Diagnostic.Format()
		if r.Diagnostic.Message != "" {
			out += "\n" + p.dim.Render("Reason: "+r.Diagnostic.Message)
		}

		return out
	}

	src, err := os.ReadFile(r.Path)
	if err != nil {
		return r.Diagnostic.Format()
	}

	return strings.TrimRight(r.Diagnostic.FormatContext(string(src)), "\n")
}

// Summary prints the totals and percentages.
func (p *Printer) Summary(s Summary) {
	rule := strings.Repeat("=", ruleWidth)

	p.printf("\n%s\n%s\n%s\n", rule, p.title.Render("VALIDATION SUMMARY"), rule)
	p.printf("Total files: %d\n", s.Total)
	p.printf("Successful: %d (%.1f%%)\n", s.Succeeded, s.Percentage())
	p.printf("Failed: %d (%.1f%%)\n", s.Failed, s.FailedPercentage())
}

// StatusWritten reports the status file and how it changed.
func (p *Printer) StatusWritten(path string, change StatusChange) {
	p.printf("\nUpdated status written to %s\n", filepath.Base(path))

	for _, name := range change.Regressions {
		p.printf("  %s %s\n", p.fail.Render("regressed:"), name)
	}

	for _, name := range change.Fixes {
		p.printf("  %s %s\n", p.pass.Render("fixed:"), name)
	}
}

// Unmet prints requirements that do not hold.
func (p *Printer) Unmet(errs []error) {
	for _, err := range errs {
		p.printf("%s %v\n", p.fail.Render("[UNMET]"), err)
	}
}

// Verdict prints the final line.
func (p *Printer) Verdict(s Summary) {
	if s.OK() {
		p.printf("\n%s All files parsed successfully!\n", p.ok.Render("[SUCCESS]"))

		return
	}

	p.printf("\n%s %d file(s) failed validation\n", p.fail.Render("[FAIL]"), s.Failed)
}

// Report prints a complete run: banner, discovery, results, summary, and
// verdict.
func (p *Printer) Report(grammarSource string, run *Run) {
	files := make([]string, len(run.Results))
	for i, r := range run.Results {
		files[i] = r.Path
	}

	p.Banner(grammarSource)
	p.Discovered(files)
	p.Results(run)
	p.Summary(run.Summary)
	p.Verdict(run.Summary)
}
