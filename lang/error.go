package lang

import "github.com/johncclayton/rt-grammar/pkg"

// Sentinel errors.
var (
	// ErrLex matches every [*LexError].
	ErrLex = pkg.NewError("lexical error")
	// ErrSyntax matches every [*SyntaxError].
	ErrSyntax = pkg.NewError("syntax error")
	// ErrReadInput is returned when a script cannot be read.
	ErrReadInput = pkg.NewError("failed to read input")
)
