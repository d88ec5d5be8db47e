package validate

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/johncclayton/rt-grammar/lang"
)

// RunReport is the machine-readable form of a [Run].
type RunReport struct {
	ID         string         `json:"id"                   yaml:"id"`
	Started    time.Time      `json:"started"              yaml:"started"`
	Elapsed    string         `json:"elapsed"              yaml:"elapsed"`
	Grammar    string         `json:"grammar"              yaml:"grammar"`
	Summary    Summary        `json:"summary"              yaml:"summary"`
	Percentage float64        `json:"percentage"           yaml:"percentage"`
	Results    []ResultReport `json:"results"              yaml:"results"`
	Unmet      []string       `json:"unmet,omitempty"      yaml:"unmet,omitempty"`
	StatusFile string         `json:"status_file,omitempty" yaml:"status_file,omitempty"`
}

// ResultReport is the machine-readable form of a [Result].
type ResultReport struct {
	Path       string           `json:"path"                 yaml:"path"`
	Status     string           `json:"status"               yaml:"status"`
	Elapsed    string           `json:"elapsed"              yaml:"elapsed"`
	Diagnostic *lang.Diagnostic `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	Error      string           `json:"error,omitempty"      yaml:"error,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"   yaml:"warnings,omitempty"`
}

// Report returns the machine-readable form of run.
func (r *Run) Report() RunReport {
	rep := RunReport{
		ID:         r.ID.String(),
		Started:    r.Started.UTC(),
		Elapsed:    r.Elapsed.String(),
		Grammar:    r.Grammar,
		Summary:    r.Summary,
		Percentage: r.Summary.Percentage(),
		Results:    make([]ResultReport, len(r.Results)),
	}

	for i, res := range r.Results {
		rr := ResultReport{
			Path:       res.Path,
			Status:     res.Status(),
			Elapsed:    res.Elapsed.String(),
			Diagnostic: res.Diagnostic,
			Warnings:   res.Warnings,
		}

		if res.Diagnostic == nil && res.Err != nil {
			rr.Error = res.Err.Error()
		}

		rep.Results[i] = rr
	}

	return rep
}

// WriteJSON writes rep as indented JSON.
func (rep RunReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rep)
}

// WriteYAML writes rep as YAML.
func (rep RunReport) WriteYAML(ctx context.Context, w io.Writer) error {
	data, err := yaml.MarshalContext(ctx, rep, yaml.Indent(2))
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
