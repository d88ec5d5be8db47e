package validate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/pkg"
)

// DefaultDebounce is how long [Watch] waits for a burst of file events to
// settle before validating.
const DefaultDebounce = 200 * time.Millisecond

// WatchConfig selects what [Watch] observes.
type WatchConfig struct {
	Paths     []string
	Ext       string
	Recursive bool

	// GrammarFile is reloaded when it changes. A reload that fails keeps
	// the previous grammar.
	GrammarFile    string
	GrammarOptions []grammar.Option

	Debounce time.Duration
}

// Watch validates cfg.Paths, passes the run to report, and then validates
// again whenever a script file changes: changed files alone after a script
// edit, everything after a grammar reload. It returns nil when ctx is done.
func (v *Validator) Watch(ctx context.Context, cfg WatchConfig, report func(*Run)) error {
	if cfg.Ext == "" {
		cfg.Ext = pkg.ScriptExt
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	run, err := v.Paths(ctx, cfg.Paths, cfg.Ext, cfg.Recursive)
	if err != nil {
		return err
	}

	report(run)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer w.Close()

	dirs, err := watchDirs(cfg)
	if err != nil {
		return ErrWatch.Wrap(err)
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}
	}

	v.logger.InfoContext(ctx, "watching", slog.Any("dirs", dirs))

	grammarFile := ""
	if cfg.GrammarFile != "" {
		grammarFile, _ = filepath.Abs(cfg.GrammarFile)
	}

	var (
		pending = map[string]bool{}
		reload  bool
		timer   = time.NewTimer(cfg.Debounce)
	)

	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return ErrWatch.With(slog.String("issue", "event stream closed"))
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			abs, _ := filepath.Abs(ev.Name)

			switch {
			case grammarFile != "" && abs == grammarFile:
				reload = true
			case strings.EqualFold(filepath.Ext(ev.Name), cfg.Ext) && v.watched(cfg, abs):
				pending[ev.Name] = true
			default:
				continue
			}

			timer.Reset(cfg.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return ErrWatch.With(slog.String("issue", "error stream closed"))
			}

			v.logger.WarnContext(ctx, "watch error", slog.Any("error", err))

		case <-timer.C:
			if reload {
				reload = false
				v = v.reloadGrammar(ctx, cfg)
				clear(pending)
				v.cache.Clear()

				if run, err := v.Paths(ctx, cfg.Paths, cfg.Ext, cfg.Recursive); err == nil {
					report(run)
				} else {
					v.logger.WarnContext(ctx, "revalidation failed", slog.Any("error", err))
				}

				continue
			}

			files := existing(pending)
			clear(pending)

			if len(files) == 0 {
				continue
			}

			// Entries for earlier versions of the changed files are never
			// hit again.
			v.cache.Clear()

			run, err := v.Files(ctx, files)
			if err != nil {
				return nil
			}

			report(run)
		}
	}
}

// watched reports whether a script at abs belongs to the configured paths.
func (v *Validator) watched(cfg WatchConfig, abs string) bool {
	for _, p := range cfg.Paths {
		root, err := filepath.Abs(p)
		if err != nil {
			continue
		}

		if root == abs {
			return true
		}

		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}

		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}

		if cfg.Recursive || !strings.ContainsRune(rel, filepath.Separator) {
			return true
		}
	}

	return false
}

func (v *Validator) reloadGrammar(ctx context.Context, cfg WatchConfig) *Validator {
	t, err := grammar.Load(cfg.GrammarFile, cfg.GrammarOptions...)
	if err != nil {
		v.logger.WarnContext(ctx, "grammar reload failed, keeping previous grammar",
			slog.String("file", cfg.GrammarFile),
			slog.Any("error", err),
		)

		return v
	}

	v.logger.InfoContext(ctx, "grammar reloaded",
		slog.String("file", cfg.GrammarFile),
		slog.String("grammar", t.String()),
	)

	next := *v
	next.table = t

	return &next
}

// watchDirs returns the directories holding the watched files: each
// directory path (and its subdirectories when recursive), the parent of
// each file path, and the parent of the grammar file.
func watchDirs(cfg WatchConfig) ([]string, error) {
	set := map[string]bool{}

	for _, p := range cfg.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			set[filepath.Dir(p)] = true

			continue
		}

		if !cfg.Recursive {
			set[p] = true

			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				set[path] = true
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.GrammarFile != "" {
		set[filepath.Dir(cfg.GrammarFile)] = true
	}

	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, filepath.Clean(d))
	}

	slices.Sort(dirs)

	return slices.Compact(dirs), nil
}

// existing returns the paths in set that are still regular files, sorted.
func existing(set map[string]bool) []string {
	var files []string

	for p := range set {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			files = append(files, p)
		}
	}

	slices.Sort(files)

	return files
}
