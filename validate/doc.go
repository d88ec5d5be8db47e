// Package validate runs the script parser over files and directories and
// reports the outcome.
//
// [Discover] expands the paths given on the command line into an ordered
// list of script files. A [Validator] parses them concurrently and returns
// a [Run] holding one [Result] per file, in discovery order, plus a
// [Summary]. A [Printer] renders a run as the line-per-file report, and the
// status file, run history, and [Requirements] extend a run with state kept
// between invocations.
//
// Every failure becomes a failed Result: a *lang.LexError or
// *lang.SyntaxError carries a diagnostic; a file that cannot be read carries
// the read error. Discovery failures and grammar load failures are returned
// as errors before any Result exists.
package validate
