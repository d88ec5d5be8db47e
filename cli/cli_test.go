package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/pkg"
)

func TestMain(m *testing.M) {
	// Keep configuration and cache files out of the user's directories.
	dir, err := os.MkdirTemp("", pkg.Name+"-cli-test-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

const (
	goodScript = "Strategy: Test\nData\n  Bar: Daily\nEnd\nCode\n  value = Extern(\"MyIndicator\", Close)\nEnd\n"
	badScript  = "Code\n  x = (1 + \nEnd\n"
)

// run executes the CLI and returns stdout and the exit code (-1 if exit was
// not called).
func runCLI(t *testing.T, args ...string) (string, int, error) {
	t.Helper()

	var buf bytes.Buffer

	stdout, stderr = &buf, &buf
	t.Cleanup(func() { stdout, stderr = os.Stdout, os.Stderr })

	code := -1
	err := Run(context.Background(), func(c int) { code = c }, args...)

	return buf.String(), code, err
}

func scripts(t *testing.T, n int, broken ...int) string {
	t.Helper()

	dir := t.TempDir()

	for i := range n {
		src := goodScript
		for _, b := range broken {
			if b == i {
				src = badScript
			}
		}

		name := filepath.Join(dir, fmt.Sprintf("s%02d.rts", i))
		require.NoError(t, os.WriteFile(name, []byte(src), 0o644))
	}

	return dir
}

func TestRun_Check(t *testing.T) {
	dir := scripts(t, 25, 2, 11)

	out, code, err := runCLI(t, dir)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, out, "Total files: 25")
	require.Contains(t, out, "Successful: 23 (92.0%)")
	require.Contains(t, out, "Failed: 2 (8.0%)")
}

func TestRun_CheckPass(t *testing.T) {
	dir := scripts(t, 3)

	out, code, err := runCLI(t, "check", "--require", "failed == 0", dir)
	require.NoError(t, err)
	require.Equal(t, -1, code, "exit not called on success")
	require.Contains(t, out, "[SUCCESS] All files parsed successfully!")
}

func TestRun_MalformedGrammar(t *testing.T) {
	dir := scripts(t, 3)
	file := filepath.Join(t.TempDir(), "rt.yaml")
	require.NoError(t, os.WriteFile(file, []byte("sections: [\n"), 0o644))

	out, _, err := runCLI(t, "--grammar-file", file, dir)
	require.ErrorIs(t, err, grammar.ErrLoad)
	require.NotContains(t, out, "[PASS]")
	require.NotContains(t, out, "Total files")
}

func TestRun_GrammarConstraint(t *testing.T) {
	dir := scripts(t, 1)

	_, _, err := runCLI(t, "--grammar-require", ">= 9", dir)
	require.ErrorIs(t, err, grammar.ErrVersion)
}

func TestRun_Grammar(t *testing.T) {
	out, _, err := runCLI(t, "grammar", "--format", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"name": "`+grammar.Default().Name()+`"`)
}

func TestRun_Env(t *testing.T) {
	dir := scripts(t, 2, 0)
	t.Setenv(strings.TrimSuffix(pkg.EnvPrefix(), "_")+"_FORMAT", "json")

	out, code, err := runCLI(t, "check", dir)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(out, "{"), out)
}
