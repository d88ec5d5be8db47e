// Package lang parses RealTest strategy scripts.
//
// A script is a sequence of sections. Each section starts with a section
// keyword and an optional ":" header, holds statements one per line, and
// ends with "End", "End <Section>", or "End<Section>":
//
//	Strategy: Breakout
//
//	Data
//	    Bar: Daily
//	    hh = Highest(C, 20)
//	End
//
//	Code
//	    If C > hh[1] Then
//	        signal = 1
//	    Else
//	        signal = 0
//	    EndIf
//	    Extern("MyIndicator", Close)
//	End
//
// A section with a header and no statements, like Strategy above, needs no
// closer. The statement forms each section accepts, the operators and their
// precedence, and the keywords all come from a [grammar.Table].
//
// [Tokenize] turns source text into tokens; [ParseTokens] builds a [Script]
// from them; [ParseString] does both. Parsing stops at the first error,
// which is a [*LexError] or a [*SyntaxError]. Both carry a [Diagnostic]
// whose [Diagnostic.Format] output is stable:
//
//	[FAIL] at line 6, column 1
//	Unexpected token: "EndCode"
//	Expected: "End", "EndData", "If", IDENTIFIER, NEWLINE
//
// The expected set lists exactly the token kinds and lexemes the parser
// would have accepted at that position.
package lang
