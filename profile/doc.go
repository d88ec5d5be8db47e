// Package profile runs the optional pprof profilers of rtgrammar.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o rtgrammar .
//	rtgrammar --pprof-mode=cpu check scripts/
//
// Without the tag [Modes] is empty and [Profiler.Start] returns a no-op.
// Profiles are written to the directory named by [Profiler.Dir], by default
// the "pprof" directory below the user cache directory, and can be read with
// "go tool pprof".
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
