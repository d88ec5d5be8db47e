package validate

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/johncclayton/rt-grammar/pkg"
)

// Discover expands paths into the script files to validate. A file path is
// taken as given, whatever its extension. A directory contributes the files
// directly inside it whose extension matches ext case-insensitively, or
// every matching file below it when recursive is set, ordered by file name
// ignoring case. Paths keep their command-line order and a file named twice
// is validated once.
//
// A missing path, or a directory without matching files, is an error.
func Discover(paths []string, ext string, recursive bool) ([]string, error) {
	if ext == "" {
		ext = pkg.ScriptExt
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var (
		files []string
		seen  = map[string]bool{}
	)

	add := func(path string) {
		key := filepath.Clean(path)
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, ErrDiscover.Wrap(err).With(slog.String("path", path))
		}

		if !info.IsDir() {
			add(path)

			continue
		}

		found, err := findScripts(path, ext, recursive)
		if err != nil {
			return nil, ErrDiscover.Wrap(err).With(slog.String("path", path))
		}

		if len(found) == 0 {
			return nil, ErrDiscover.With(
				slog.String("path", path),
				slog.String("issue", "no "+ext+" files"),
			)
		}

		for _, f := range found {
			add(f)
		}
	}

	if len(files) == 0 {
		return nil, ErrDiscover.With(slog.String("issue", "no paths"))
	}

	return files, nil
}

func findScripts(root, ext string, recursive bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.EqualFold(filepath.Ext(d.Name()), ext) && d.Type().IsRegular() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return nil, err
	}

	slices.SortStableFunc(files, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(filepath.Base(a)), strings.ToLower(filepath.Base(b))); c != 0 {
			return c
		}

		return strings.Compare(a, b)
	})

	return files, nil
}
