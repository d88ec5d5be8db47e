package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/johncclayton/rt-grammar/lang"
)

func sampleRun() *Run {
	run := &Run{
		ID:      uuid.MustParse("6f1c2f1e-3d4b-4a5c-9e8f-0a1b2c3d4e5f"),
		Started: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Elapsed: 1500 * time.Millisecond,
		Grammar: "realtest 1.0.0",
		Results: []Result{
			{Path: "good.rts", Success: true, Elapsed: time.Millisecond, Warnings: []string{"2:7: IIF"}},
			{
				Path: "bad.rts",
				Diagnostic: &lang.Diagnostic{
					Line: 2, Column: 3, Found: "x",
					Expected: []string{"IDENTIFIER"}, Message: "unexpected token",
				},
				Err:     lang.ErrSyntax,
				Elapsed: 2 * time.Millisecond,
			},
			{Path: "gone.rts", Err: ErrRead, Elapsed: 0},
		},
	}
	run.Summary = Summarize(run.Results)

	return run
}

func TestRun_Report(t *testing.T) {
	rep := sampleRun().Report()

	want := RunReport{
		ID:         "6f1c2f1e-3d4b-4a5c-9e8f-0a1b2c3d4e5f",
		Started:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Elapsed:    "1.5s",
		Grammar:    "realtest 1.0.0",
		Summary:    Summary{Total: 3, Succeeded: 1, Failed: 2},
		Percentage: 100.0 / 3,
		Results: []ResultReport{
			{Path: "good.rts", Status: "pass", Elapsed: "1ms", Warnings: []string{"2:7: IIF"}},
			{
				Path: "bad.rts", Status: "fail", Elapsed: "2ms",
				Diagnostic: &lang.Diagnostic{
					Line: 2, Column: 3, Found: "x",
					Expected: []string{"IDENTIFIER"}, Message: "unexpected token",
				},
			},
			{Path: "gone.rts", Status: "fail", Elapsed: "0s", Error: ErrRead.Error()},
		},
	}

	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestRunReport_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleRun().Report().WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if got["grammar"] != "realtest 1.0.0" {
		t.Errorf("grammar = %v", got["grammar"])
	}

	summary := map[string]any{"total": 3.0, "succeeded": 1.0, "failed": 2.0}
	if diff := cmp.Diff(summary, got["summary"]); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	results, _ := got["results"].([]any)
	if len(results) != 3 {
		t.Fatalf("results = %v", got["results"])
	}

	bad, _ := results[1].(map[string]any)
	diag, _ := bad["diagnostic"].(map[string]any)

	if diag["found"] != "x" || diag["line"] != 2.0 {
		t.Errorf("diagnostic = %v", diag)
	}

	if _, ok := got["unmet"]; ok {
		t.Error("empty unmet list was written")
	}
}

func TestRunReport_WriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleRun().Report().WriteYAML(context.Background(), &buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	var got RunReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}

	if got.Summary != (Summary{Total: 3, Succeeded: 1, Failed: 2}) {
		t.Errorf("summary = %+v", got.Summary)
	}

	if len(got.Results) != 3 || got.Results[1].Diagnostic == nil || got.Results[1].Diagnostic.Column != 3 {
		t.Errorf("results = %+v", got.Results)
	}
}
