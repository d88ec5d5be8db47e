// Package cli contains the command line interface for rtgrammar.
//
// # Usage
//
// Check is the default command, so these are equivalent:
//
//	rtgrammar scripts/
//	rtgrammar check scripts/
//
// Each argument is a script file or a directory of "*.rts" files. The exit
// code is 1 when any file fails to parse or a --require expression does not
// hold.
//
// # Configuration
//
// Flag defaults are read from, in increasing precedence:
//
//   - $XDG_CONFIG_HOME/rtgrammar/config.json
//   - $XDG_CONFIG_HOME/rtgrammar/config.yaml (see "rtgrammar init")
//   - RTGRAMMAR_* environment variables, e.g. RTGRAMMAR_LOG_LEVEL
//   - command-line flags
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output on a terminal
//
// Logs go to stderr; reports go to stdout.
//
// # Grammar Options
//
//   - --grammar-file: Load the grammar from a YAML, JSON, TOML, or HCL file
//   - --grammar-format: Override the format inferred from the extension
//   - --grammar-require: Semantic version constraint on the grammar
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o rtgrammar .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
