package validate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

const (
	statusPass = "pass"
	statusFail = "fail"
)

// Status maps a file name to "pass" or "fail".
type Status map[string]string

// StatusOf returns the status of every result in run, keyed by file name.
// Files sharing a name, as in different directories of a recursive run, are
// keyed by their slash-separated path instead.
func StatusOf(run *Run) Status {
	names := make(map[string]int, len(run.Results))
	for _, r := range run.Results {
		names[r.Name()]++
	}

	s := make(Status, len(run.Results))

	for _, r := range run.Results {
		key := r.Name()
		if names[key] > 1 {
			key = filepath.ToSlash(filepath.Clean(r.Path))
		}

		s[key] = r.Status()
	}

	return s
}

// StatusChange lists the files whose outcome differs from a previous run.
type StatusChange struct {
	Regressions []string // passed before, fail now
	Fixes       []string // failed before, pass now
	Added       []string // not in the previous status
}

// Empty reports whether nothing changed.
func (c StatusChange) Empty() bool {
	return len(c.Regressions) == 0 && len(c.Fixes) == 0 && len(c.Added) == 0
}

// Compare returns the changes from prev to s.
func (s Status) Compare(prev Status) StatusChange {
	var c StatusChange

	for _, name := range slices.Sorted(maps.Keys(s)) {
		before, ok := prev[name]

		switch {
		case !ok:
			c.Added = append(c.Added, name)
		case before == statusPass && s[name] == statusFail:
			c.Regressions = append(c.Regressions, name)
		case before == statusFail && s[name] == statusPass:
			c.Fixes = append(c.Fixes, name)
		}
	}

	return c
}

// ReadStatus reads a status file. A missing file is an empty status.
func ReadStatus(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Status{}, nil
	}

	if err != nil {
		return nil, ErrStatus.Wrap(err).With(slog.String("file", path))
	}

	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ErrStatus.Wrap(err).With(slog.String("file", path))
	}

	return s, nil
}

// WriteStatus replaces the status file at path with s.
func WriteStatus(path string, s Status) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ErrStatus.Wrap(err).With(slog.String("file", path))
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return ErrStatus.Wrap(err).With(slog.String("file", path))
	}

	return nil
}
