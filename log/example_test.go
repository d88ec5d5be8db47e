package log_test

import (
	"log/slog"
	"os"

	"github.com/johncclayton/rt-grammar/log"
)

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelWarn),
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Info("info message")
	logger.Warn("grammar reloaded", slog.String("path", "grammar.yaml"))
	// Output:
	// level=WARN msg="grammar reloaded" path=grammar.yaml
}

func Example_withAttributes() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelInfo),
		log.WithTimeLayout("none"),
		log.WithPretty(false))
	logger = logger.With(slog.String("run", "r1"))

	logger.Info("validation finished", slog.Int("failed", 0))
	// Output:
	// level=INFO msg="validation finished" run=r1 failed=0
}
