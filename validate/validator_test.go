package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johncclayton/rt-grammar/lang"
	"github.com/johncclayton/rt-grammar/lang/grammar"
)

const (
	goodScript = "Strategy: Test\nData\n  Bar: Daily\nEnd\nCode\n  value = Extern(\"MyIndicator\", Close)\nEnd\n"
	badScript  = "Code\n  x = (1 + \nEnd\n"
)

// corpus writes n scripts to a temporary directory; the files at the
// indexes in broken fail to parse.
func corpus(t *testing.T, n int, broken ...int) (dir string, files []string) {
	t.Helper()

	dir = t.TempDir()

	for i := range n {
		src := goodScript
		for _, b := range broken {
			if b == i {
				src = badScript
			}
		}

		path := filepath.Join(dir, fmt.Sprintf("script%02d.rts", i))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

		files = append(files, path)
	}

	return dir, files
}

func TestValidator_Paths(t *testing.T) {
	dir, files := corpus(t, 25, 3, 17)

	run, err := New(WithWorkers(4)).Paths(context.Background(), []string{dir}, "", false)
	require.NoError(t, err)

	require.Equal(t, Summary{Total: 25, Succeeded: 23, Failed: 2}, run.Summary)
	require.False(t, run.Summary.OK())
	require.InDelta(t, 92.0, run.Summary.Percentage(), 1e-9)
	require.Equal(t, grammar.Default().String(), run.Grammar)
	require.NotZero(t, run.ID)

	require.Len(t, run.Results, len(files))

	for i, r := range run.Results {
		require.Equal(t, files[i], r.Path, "results keep discovery order")
	}

	failed := run.Failed()
	require.Len(t, failed, 2)
	require.Equal(t, "script03.rts", failed[0].Name())
	require.Equal(t, "script17.rts", failed[1].Name())

	for _, r := range failed {
		require.NotNil(t, r.Diagnostic)
		require.ErrorIs(t, r.Err, lang.ErrSyntax)
		require.Equal(t, 3, r.Diagnostic.Line)
		require.Equal(t, "End", r.Diagnostic.Found)
	}
}

func TestValidator_AllPass(t *testing.T) {
	_, files := corpus(t, 3)

	run, err := New().Files(context.Background(), files)
	require.NoError(t, err)
	require.True(t, run.Summary.OK())
	require.InDelta(t, 100.0, run.Summary.Percentage(), 1e-9)
}

func TestValidator_File(t *testing.T) {
	dir := t.TempDir()
	v := New()

	t.Run("missing file", func(t *testing.T) {
		r := v.File(context.Background(), filepath.Join(dir, "missing.rts"))
		require.False(t, r.Success)
		require.Nil(t, r.Diagnostic)
		require.ErrorIs(t, r.Err, ErrRead)
	})

	t.Run("lexical error", func(t *testing.T) {
		path := filepath.Join(dir, "lex.rts")
		require.NoError(t, os.WriteFile(path, []byte("Code\n  x = 1 @ 2\nEnd\n"), 0o644))

		r := v.File(context.Background(), path)
		require.False(t, r.Success)
		require.NotNil(t, r.Diagnostic)
		require.ErrorIs(t, r.Err, lang.ErrLex)
		require.Equal(t, "@", r.Diagnostic.Found)
	})

	t.Run("arity warning", func(t *testing.T) {
		path := filepath.Join(dir, "arity.rts")
		require.NoError(t, os.WriteFile(path, []byte("Code\n  x = IIF(1, 2)\n  y = IIF(1, 2, 3)\nEnd\n"), 0o644))

		r := v.File(context.Background(), path)
		require.True(t, r.Success)
		require.NoError(t, r.Err)
		require.Len(t, r.Warnings, 1)
		require.True(t, strings.HasPrefix(r.Warnings[0], "2:7: IIF with 2 arguments"), r.Warnings[0])
	})
}

func TestValidator_Cancelled(t *testing.T) {
	_, files := corpus(t, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := New().Files(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, run)
}

func TestValidator_SharedCache(t *testing.T) {
	_, files := corpus(t, 4, 1)
	cache := lang.NewCache()
	v := New(WithCache(cache))

	_, err := v.Files(context.Background(), files)
	require.NoError(t, err)

	_, misses := cache.Stats()
	require.EqualValues(t, 2, misses, "one miss per distinct source")

	_, err = v.Files(context.Background(), files)
	require.NoError(t, err)

	hits, misses := cache.Stats()
	require.EqualValues(t, 2, misses)
	require.EqualValues(t, 6, hits)
}

func TestValidator_MalformedGrammar(t *testing.T) {
	dir, _ := corpus(t, 5)
	path := filepath.Join(dir, "grammar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections: [\n"), 0o644))

	table, err := grammar.Load(path)
	require.ErrorIs(t, err, grammar.ErrLoad)
	require.Nil(t, table)

	var le *grammar.LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, path, le.Path)
}

func TestSummary_Percentage(t *testing.T) {
	tests := []struct {
		name       string
		s          Summary
		pass, fail float64
		ok         bool
	}{
		{"empty", Summary{}, 0, 0, true},
		{"all pass", Summary{Total: 4, Succeeded: 4}, 100, 0, true},
		{"mixed", Summary{Total: 8, Succeeded: 6, Failed: 2}, 75, 25, false},
		{"all fail", Summary{Total: 3, Failed: 3}, 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.pass, tt.s.Percentage(), 1e-9)
			require.InDelta(t, tt.fail, tt.s.FailedPercentage(), 1e-9)
			require.Equal(t, tt.ok, tt.s.OK())
		})
	}
}
