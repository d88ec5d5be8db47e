// Package grammar holds the data-driven grammar table of the strategy
// language: its sections and the statement forms each accepts, operator
// precedence and associativity, keywords, punctuation, and the advisory
// arity of built-in functions.
//
// A [Table] is built once from a [Description], either the embedded default
// ([Default]) or a file in YAML, JSON, TOML, or HCL ([Load]), and is
// read-only afterwards. Every load failure is a [*LoadError] that matches
// [ErrLoad].
package grammar
