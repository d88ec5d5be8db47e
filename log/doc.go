// Package log provides a concurrency-safe structured logger built on
// [log/slog] with an additional trace level.
//
// Loggers are configured with functional options at creation time:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Attributes added with [Logger.With] are included in every subsequent
// message. Each level has a context-aware variant (for example
// [Logger.InfoContext]); the context-unaware forms use
// [DefaultContextProvider].
//
// Two output formats are supported, [FormatText] (default) and
// [FormatJSON]. With [WithPretty] enabled the output is styled for a
// terminal and falls back to plain text on other writers.
//
// The package-level functions ([Info], [Config], ...) operate on a default
// logger writing to standard error.
package log
