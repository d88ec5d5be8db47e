package lang

import (
	"fmt"
	"log/slog"
)

// Kind classifies a token.
type Kind uint8

const (
	KindIdentifier Kind = iota
	KindSymbolRef
	KindWatchlistRef
	KindParamRef
	KindNumber
	KindString
	KindDate
	KindOperator
	KindKeyword
	KindNewline
	// KindIndent and KindDedent complete the token classification but are
	// never produced: statements are delimited by newlines and keywords.
	KindIndent
	KindDedent
	KindComment
	// KindText is a raw line of a text-mode section.
	KindText
	KindEOF
)

var kindNames = [...]string{
	KindIdentifier:   "IDENTIFIER",
	KindSymbolRef:    "SYMBOL_REF",
	KindWatchlistRef: "WATCHLIST_REF",
	KindParamRef:     "PARAM_REF",
	KindNumber:       "NUMBER",
	KindString:       "STRING",
	KindDate:         "DATE",
	KindOperator:     "OPERATOR",
	KindKeyword:      "KEYWORD",
	KindNewline:      "NEWLINE",
	KindIndent:       "INDENT",
	KindDedent:       "DEDENT",
	KindComment:      "COMMENT",
	KindText:         "TEXT",
	KindEOF:          "EOF",
}

// String returns the upper-case kind name used in diagnostics.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Position is a location in source text. Line and Column are 1-based;
// Column counts runes. Offset is the 0-based byte offset.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns "line:column".
func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Token is one lexeme of a script.
type Token struct {
	Kind   Kind   `json:"kind"   yaml:"kind"`
	Lexeme string `json:"lexeme" yaml:"lexeme"`
	Position
}

// Display returns the token as it appears in the "Unexpected token" line of
// a diagnostic.
func (t Token) Display() string {
	switch t.Kind {
	case KindNewline:
		return "<newline>"
	case KindEOF:
		return "<EOF>"
	default:
		return t.Lexeme
	}
}

// String returns a one-line description such as `3:7 IDENTIFIER "Close"`.
func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Display())
}

// LogValue implements slog.LogValuer.
func (t Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", t.Kind.String()),
		slog.String("lexeme", t.Lexeme),
		slog.Int("line", t.Line),
		slog.Int("column", t.Column),
	)
}
