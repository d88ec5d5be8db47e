package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johncclayton/rt-grammar/validate"
)

func TestCheck_Run(t *testing.T) {
	dir := t.TempDir()

	for i := range 25 {
		src := goodScript
		if i == 4 || i == 20 {
			src = badScript
		}

		writeScript(t, dir, fmt.Sprintf("s%02d.rts", i), src)
	}

	ctx, buf, g := testContext(t)

	err := (&Check{Paths: []string{dir}}).Run(ctx, g)
	require.ErrorIs(t, err, ErrValidation)

	out := buf.String()
	require.Contains(t, out, "Found 25 file(s) to validate")
	require.Contains(t, out, "Total files: 25")
	require.Contains(t, out, "Successful: 23 (92.0%)")
	require.Contains(t, out, "Failed: 2 (8.0%)")
	require.Contains(t, out, "[FAIL] 2 file(s) failed validation")
	require.NotContains(t, out, "Error details:")
}

func TestCheck_Run_SingleFile(t *testing.T) {
	path := writeScript(t, t.TempDir(), "one.rts", badScript)
	ctx, buf, g := testContext(t)

	err := (&Check{Paths: []string{path}}).Run(ctx, g)
	require.ErrorIs(t, err, ErrValidation)

	out := buf.String()
	require.Contains(t, out, "Found 1 file to validate: one.rts")
	require.Contains(t, out, "Error details:\n[FAIL] at line 3, column 1\nUnexpected token: \"End\"")
}

func TestCheck_Run_Pass(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.rts", goodScript)
	writeScript(t, dir, "b.RTS", goodScript)

	ctx, buf, g := testContext(t)

	require.NoError(t, (&Check{Paths: []string{dir}, Require: []string{"percentage == 100"}}).Run(ctx, g))
	require.Contains(t, buf.String(), "[SUCCESS] All files parsed successfully!")
}

func TestCheck_Run_Require(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.rts", goodScript)

	ctx, buf, g := testContext(t)

	err := (&Check{Paths: []string{dir}, Require: []string{"total >= 2"}}).Run(ctx, g)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, buf.String(), "[UNMET] requirement not met: total >= 2")

	err = (&Check{Paths: []string{dir}, Require: []string{"total +"}}).Run(ctx, g)
	require.ErrorIs(t, err, validate.ErrBadRule)
}

func TestCheck_Run_DiscoveryError(t *testing.T) {
	ctx, buf, g := testContext(t)

	err := (&Check{Paths: []string{t.TempDir()}}).Run(ctx, g)
	require.ErrorIs(t, err, validate.ErrDiscover)
	require.Empty(t, buf.String(), "nothing is reported before discovery succeeds")
}

func TestCheck_Run_JSON(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.rts", goodScript)
	writeScript(t, dir, "b.rts", badScript)

	status := filepath.Join(dir, "status.json")
	ctx, buf, g := testContext(t)

	err := (&Check{Paths: []string{dir}, Format: "json", Status: status}).Run(ctx, g)
	require.ErrorIs(t, err, ErrValidation)

	var rep validate.RunReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	require.Equal(t, validate.Summary{Total: 2, Succeeded: 1, Failed: 1}, rep.Summary)
	require.Equal(t, status, rep.StatusFile)
	require.Len(t, rep.Results, 2)
	require.Equal(t, "fail", rep.Results[1].Status)
	require.NotNil(t, rep.Results[1].Diagnostic)

	got, err := validate.ReadStatus(status)
	require.NoError(t, err)
	require.Equal(t, validate.Status{"a.rts": "pass", "b.rts": "fail"}, got)
}

func TestCheck_Run_StatusChanges(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.rts", goodScript)
	writeScript(t, dir, "b.rts", badScript)

	status := filepath.Join(t.TempDir(), "status.json")
	history := filepath.Join(t.TempDir(), "history.db")

	ctx, buf, g := testContext(t)
	check := &Check{Paths: []string{dir}, Status: status, History: history}

	require.ErrorIs(t, check.Run(ctx, g), ErrValidation)

	writeScript(t, dir, "b.rts", goodScript)
	require.NoError(t, os.WriteFile(a, []byte(badScript), 0o644))

	buf.Reset()
	require.ErrorIs(t, check.Run(ctx, g), ErrValidation)

	out := buf.String()
	require.Contains(t, out, "Updated status written to status.json")
	require.Contains(t, out, "regressed: a.rts")
	require.Contains(t, out, "fixed: b.rts")

	h, err := validate.OpenHistory(ctx, history)
	require.NoError(t, err)
	defer h.Close()

	runs, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestCheck_Run_YAML(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.rts", goodScript)

	ctx, buf, g := testContext(t)

	require.NoError(t, (&Check{Paths: []string{dir}, Format: "yaml"}).Run(ctx, g))
	require.True(t, strings.Contains(buf.String(), "summary:"), buf.String())
}
