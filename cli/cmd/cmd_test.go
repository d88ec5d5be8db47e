package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"github.com/johncclayton/rt-grammar/lang/grammar"
)

const (
	goodScript = "Strategy: Test\nData\n  Bar: Daily\nEnd\nCode\n  value = Extern(\"MyIndicator\", Close)\nEnd\n"
	badScript  = "Code\n  x = (1 + \nEnd\n"
)

// testContext returns a context carrying a kong context whose output goes
// to the returned buffer, and the grammar every command runs with.
func testContext(t *testing.T) (context.Context, *bytes.Buffer, *Loaded) {
	t.Helper()

	var (
		buf bytes.Buffer
		cli struct{}
	)

	parser, err := kong.New(&cli, kong.Writers(&buf, &buf))
	require.NoError(t, err)

	ktx, err := parser.Parse(nil)
	require.NoError(t, err)

	loaded, err := LoadGrammar("", "", "")
	require.NoError(t, err)

	return WithContext(context.Background(), ktx), &buf, loaded
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	return path
}

func TestLoadGrammar(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "rt.yaml")
	require.NoError(t, os.WriteFile(good, grammar.DefaultSource(), 0o644))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sections: [\n"), 0o644))

	noext := filepath.Join(dir, "grammar")
	require.NoError(t, os.WriteFile(noext, grammar.DefaultSource(), 0o644))

	t.Run("built-in", func(t *testing.T) {
		l, err := LoadGrammar("", "", "")
		require.NoError(t, err)
		require.Same(t, grammar.Default(), l.Table)
		require.Equal(t, BuiltinSource, l.Source)
		require.Empty(t, l.File)
	})

	t.Run("built-in with constraint", func(t *testing.T) {
		l, err := LoadGrammar("", "", ">= 0.0.1")
		require.NoError(t, err)
		require.Equal(t, grammar.Default().String(), l.Table.String())
		require.Len(t, l.Options, 1)
	})

	t.Run("constraint not met", func(t *testing.T) {
		_, err := LoadGrammar("", "", "< 0.0.1")
		require.ErrorIs(t, err, grammar.ErrLoad)
	})

	t.Run("file", func(t *testing.T) {
		l, err := LoadGrammar(good, "", "")
		require.NoError(t, err)
		require.Equal(t, good, l.Source)
		require.Equal(t, good, l.File)
		require.Equal(t, grammar.Default().Fingerprint(), l.Table.Fingerprint())
	})

	t.Run("explicit format", func(t *testing.T) {
		l, err := LoadGrammar(noext, "yml", "")
		require.NoError(t, err)
		require.Equal(t, noext, l.File)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := LoadGrammar(good, "ini", "")
		require.ErrorIs(t, err, grammar.ErrLoad)
	})

	t.Run("malformed", func(t *testing.T) {
		l, err := LoadGrammar(bad, "", "")
		require.ErrorIs(t, err, grammar.ErrLoad)
		require.Nil(t, l)
	})
}

func TestReadSource(t *testing.T) {
	path := writeScript(t, t.TempDir(), "a.rts", goodScript)

	data, err := readSource(path)
	require.NoError(t, err)
	require.Equal(t, goodScript, string(data))

	_, err = readSource(filepath.Join(t.TempDir(), "missing.rts"))
	require.ErrorIs(t, err, ErrReadSource)
}

func TestUnmetOf(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")

	require.Nil(t, unmetOf(nil))
	require.Equal(t, []error{a}, unmetOf(a))
	require.Equal(t, []error{a, b}, unmetOf(errors.Join(a, b)))
}

func TestStdout(t *testing.T) {
	require.Equal(t, os.Stdout, stdout(context.Background()))

	ctx, buf, _ := testContext(t)
	require.Same(t, buf, stdout(ctx))
}

func isErr(err, target error) bool { return errors.Is(err, target) }
