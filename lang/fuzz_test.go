package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzLexer tests the lexer with random inputs to find edge cases.
func FuzzLexer(f *testing.F) {
	f.Add("x = 1")
	f.Add("$BRK.B &Sp500 ?len")
	f.Add(`"a\"b" 'it''s'`)
	f.Add("2024-01-15 -2.5e-3")
	f.Add("// comment\n")
	f.Add("/* block\n */")
	f.Add("f(a,\n b)")
	f.Add("\uFEFFData")
	f.Add("Notes\n  It's raw: yes\nEnd Notes\n")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		toks, err := Tokenize(input, WithComments(true))
		if err != nil {
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Errorf("Tokenize(%q) error %T, want *LexError", input, err)
			}

			return
		}

		if len(toks) == 0 || toks[len(toks)-1].Kind != KindEOF {
			t.Fatalf("Tokenize(%q) does not end with EOF", input)
		}

		// Positions must move forward.
		for i := 1; i < len(toks); i++ {
			if toks[i].Offset < toks[i-1].Offset {
				t.Errorf("token %d at offset %d precedes token %d at %d",
					i, toks[i].Offset, i-1, toks[i-1].Offset)
			}
		}
	})
}

// FuzzParser tests the parser with random inputs to find edge cases.
func FuzzParser(f *testing.F) {
	f.Add(externScript)
	f.Add(fullScript)
	f.Add("Code\nEnd")
	f.Add("Data\n  Bar: Daily\nEndCode\n")
	f.Add("Code\n  If a\n  Else\n  End\nEnd\n")
	f.Add("Parameters\n  len: from 1 to 5 step 1\nEnd\n")
	f.Add("Notes\n  free text\nEnd\n")
	f.Add("Strategy: Test")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		s, err := ParseString(context.Background(), input)
		if err != nil {
			d, ok := DiagnosticOf(err)
			if !ok {
				t.Fatalf("ParseString(%q) error %v carries no diagnostic", input, err)
			}

			if d.Line < 1 || d.Column < 1 {
				t.Errorf("diagnostic position %d:%d", d.Line, d.Column)
			}

			// The same input must fail the same way.
			_, again := ParseString(context.Background(), input)
			if d2, _ := DiagnosticOf(again); d2.Format() != d.Format() {
				t.Errorf("diagnostic changed:\n%s\n---\n%s", d.Format(), d2.Format())
			}

			return
		}

		for _, sec := range s.Sections {
			if sec.HeaderOnly && len(sec.Body) > 0 {
				t.Errorf("header-only section %s has a body", sec.Name)
			}
		}
	})
}

// FuzzExpression tests expression parsing specifically.
func FuzzExpression(f *testing.F) {
	f.Add("a + b * c")
	f.Add("-a ^ 2")
	f.Add("not not a")
	f.Add("MA(C, ?len)[1] > C[0]")
	f.Add("((a))")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		x, err := ParseExpression(context.Background(), input)
		if err != nil {
			return
		}

		// The printed form is fully parenthesized and must parse again.
		if _, err := ParseExpression(context.Background(), x.String()); err != nil {
			var se *SyntaxError
			if errors.As(err, &se) && strings.HasPrefix(se.Message, "nesting too deep") {
				return
			}

			t.Errorf("reparse of %q (%s): %v", input, x, err)
		}
	})
}
