package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Diagnostic describes the first failure found in a script.
//
// Found is the offending lexeme, or "<newline>" or "<EOF>". Expected holds
// quoted lexemes and bare token kind names, sorted and unique.
type Diagnostic struct {
	Line     int      `json:"line"           yaml:"line"`
	Column   int      `json:"column"         yaml:"column"`
	Found    string   `json:"found"          yaml:"found"`
	Expected []string `json:"expected"       yaml:"expected"`
	Message  string   `json:"message"        yaml:"message"`
	Hint     string   `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// newDiagnostic returns a Diagnostic at pos with expected sorted and
// deduplicated.
func newDiagnostic(pos Position, found, msg string, expected []string) Diagnostic {
	exp := slices.Clone(expected)
	slices.Sort(exp)

	return Diagnostic{
		Line:     pos.Line,
		Column:   pos.Column,
		Found:    found,
		Expected: slices.Compact(exp),
		Message:  msg,
	}
}

// Format renders the diagnostic in its stable three-line form:
//
//	[FAIL] at line L, column C
//	Unexpected token: "<found>"
//	Expected: <comma-joined expected set>
func (d Diagnostic) Format() string {
	expected := "<none>"
	if len(d.Expected) > 0 {
		expected = strings.Join(d.Expected, ", ")
	}

	return fmt.Sprintf(
		"[FAIL] at line %d, column %d\nUnexpected token: \"%s\"\nExpected: %s",
		d.Line, d.Column, d.Found, expected,
	)
}

// FormatDiagnostic returns d.Format().
func FormatDiagnostic(d Diagnostic) string { return d.Format() }

// FormatContext renders the diagnostic followed by its message, an optional
// hint, and the offending source line with a caret under the column.
func (d Diagnostic) FormatContext(source string) string {
	var buf strings.Builder

	buf.WriteString(d.Format())
	buf.WriteRune('\n')

	if d.Message != "" {
		buf.WriteString("Reason: " + d.Message + "\n")
	}

	if d.Hint != "" {
		buf.WriteString("Hint: " + d.Hint + "\n")
	}

	lines := strings.Split(source, "\n")
	if d.Line < 1 || d.Line > len(lines) {
		return buf.String()
	}

	line := strings.TrimRight(lines[d.Line-1], "\r")

	buf.WriteString("  " + strconv.Itoa(d.Line) + " | " + line + "\n")

	// 2 leading spaces and " | " precede the source text.
	pad := len(strconv.Itoa(d.Line)) + 5
	if d.Column > 0 {
		pad += d.Column - 1
	}

	buf.WriteString(strings.Repeat(" ", pad) + "^\n")

	return buf.String()
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("line", d.Line),
		slog.Int("column", d.Column),
		slog.String("found", d.Found),
		slog.String("expected", strings.Join(d.Expected, ", ")),
		slog.String("message", d.Message),
	}

	if d.Hint != "" {
		attrs = append(attrs, slog.String("hint", d.Hint))
	}

	return slog.GroupValue(attrs...)
}

// LexError reports source text the lexer cannot scan: an unrecognized
// character or an unterminated string or block comment.
type LexError struct {
	Diagnostic

	Char rune
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %q", ErrLex, e.Line, e.Column, e.Found)
}

// Is makes every LexError match [ErrLex].
func (e *LexError) Is(target error) bool { return target == ErrLex }

// SyntaxError reports a token sequence that matches no production.
type SyntaxError struct {
	Diagnostic
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unexpected token"
	}

	return fmt.Sprintf("%s at %d:%d: %s %q", ErrSyntax, e.Line, e.Column, msg, e.Found)
}

// Is makes every SyntaxError match [ErrSyntax].
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// DiagnosticOf returns the diagnostic carried by err, if any.
func DiagnosticOf(err error) (Diagnostic, bool) {
	var le *LexError
	if errors.As(err, &le) {
		return le.Diagnostic, true
	}

	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Diagnostic, true
	}

	return Diagnostic{}, false
}
