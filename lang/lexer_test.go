package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// kinds renders tokens as "KIND lexeme" for compact comparison.
func kinds(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Kind.String() + " " + t.Lexeme
	}

	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
		want []string
	}{
		{
			name: "assignment",
			src:  "x = 1.5 + $SPY",
			want: []string{"IDENTIFIER x", "OPERATOR =", "NUMBER 1.5", "OPERATOR +", "SYMBOL_REF $SPY", "EOF "},
		},
		{
			name: "keywords ignore case",
			src:  "end END End endif",
			want: []string{"KEYWORD end", "KEYWORD END", "KEYWORD End", "KEYWORD endif", "EOF "},
		},
		{
			name: "word operators are keywords",
			src:  "a and not b",
			want: []string{"IDENTIFIER a", "KEYWORD and", "KEYWORD not", "IDENTIFIER b", "EOF "},
		},
		{
			name: "references",
			src:  "$BRK.B &Sp500 ?len",
			want: []string{"SYMBOL_REF $BRK.B", "WATCHLIST_REF &Sp500", "PARAM_REF ?len", "EOF "},
		},
		{
			name: "symbol dot needs a following name",
			src:  "$SPY.",
			want: nil, // '.' alone is not an operator
		},
		{
			name: "date before number",
			src:  "2024-01-15 2024-01-150",
			want: []string{
				"DATE 2024-01-15", "NUMBER 2024", "OPERATOR -", "NUMBER 01",
				"OPERATOR -", "NUMBER 150", "EOF ",
			},
		},
		{
			name: "numbers",
			src:  "2e10 1.5E-3 .5 7",
			want: []string{"NUMBER 2e10", "NUMBER 1.5E-3", "NUMBER .5", "NUMBER 7", "EOF "},
		},
		{
			name: "sign after operator is part of number",
			src:  "x = -5",
			want: []string{"IDENTIFIER x", "OPERATOR =", "NUMBER -5", "EOF "},
		},
		{
			name: "sign after operand is an operator",
			src:  "a -5",
			want: []string{"IDENTIFIER a", "OPERATOR -", "NUMBER 5", "EOF "},
		},
		{
			name: "sign after closing parenthesis is an operator",
			src:  "(a)-1",
			want: []string{"OPERATOR (", "IDENTIFIER a", "OPERATOR )", "OPERATOR -", "NUMBER 1", "EOF "},
		},
		{
			name: "strings",
			src:  `"a\"b" 'it''s'`,
			want: []string{`STRING "a\"b"`, "STRING 'it'", "STRING 's'", "EOF "},
		},
		{
			name: "longest operator wins",
			src:  "a <= b <> c := d",
			want: []string{
				"IDENTIFIER a", "OPERATOR <=", "IDENTIFIER b", "OPERATOR <>",
				"IDENTIFIER c", "OPERATOR :=", "IDENTIFIER d", "EOF ",
			},
		},
		{
			name: "line comment",
			src:  "a // note\nb",
			want: []string{"IDENTIFIER a", "NEWLINE \n", "IDENTIFIER b", "EOF "},
		},
		{
			name: "line comment kept on request",
			src:  "a // note\nb",
			opts: []Option{WithComments(true)},
			want: []string{"IDENTIFIER a", "COMMENT // note", "NEWLINE \n", "IDENTIFIER b", "EOF "},
		},
		{
			name: "inline block comment",
			src:  "a /* x */ b",
			want: []string{"IDENTIFIER a", "IDENTIFIER b", "EOF "},
		},
		{
			name: "block comment spanning lines ends the line",
			src:  "a /* x\n\ny */ b",
			want: []string{"IDENTIFIER a", "NEWLINE \n", "IDENTIFIER b", "EOF "},
		},
		{
			name: "line breaks inside parentheses",
			src:  "f(a,\n  b)\n",
			want: []string{
				"IDENTIFIER f", "OPERATOR (", "IDENTIFIER a", "OPERATOR ,",
				"IDENTIFIER b", "OPERATOR )", "NEWLINE \n", "EOF ",
			},
		},
		{
			name: "crlf",
			src:  "a\r\nb",
			want: []string{"IDENTIFIER a", "NEWLINE \n", "IDENTIFIER b", "EOF "},
		},
		{
			name: "byte order mark",
			src:  "\uFEFFData",
			want: []string{"KEYWORD Data", "EOF "},
		},
		{
			name: "text section lines are raw",
			src:  "Notes\n  It's a momentum strategy  \n  Author: J. O'Neil\nEnd\nx",
			want: []string{
				"KEYWORD Notes", "NEWLINE \n",
				"TEXT It's a momentum strategy", "NEWLINE \n",
				"IDENTIFIER Author", "OPERATOR :", "TEXT J. O'Neil", "NEWLINE \n",
				"KEYWORD End", "NEWLINE \n",
				"IDENTIFIER x", "EOF ",
			},
		},
		{
			name: "text section header is raw",
			src:  "Import: Norgate @ daily\nData\n  x = 1",
			want: []string{
				"KEYWORD Import", "OPERATOR :", "TEXT Norgate @ daily", "NEWLINE \n",
				"KEYWORD Data", "NEWLINE \n",
				"IDENTIFIER x", "OPERATOR =", "NUMBER 1", "EOF ",
			},
		},
		{
			name: "text section ends at End with section name",
			src:  "Results\n  End of day only\nEnd Results\n",
			want: []string{
				"KEYWORD Results", "NEWLINE \n",
				"TEXT End of day only", "NEWLINE \n",
				"KEYWORD End", "KEYWORD Results", "NEWLINE \n", "EOF ",
			},
		},
		{
			name: "comment lines in text section",
			src:  "Notes\n  // hidden\n  shown\nEndNotes",
			want: []string{
				"KEYWORD Notes", "NEWLINE \n", "NEWLINE \n",
				"TEXT shown", "NEWLINE \n", "KEYWORD EndNotes", "EOF ",
			},
		},
		{
			name: "empty",
			src:  "",
			want: []string{"EOF "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.src, tt.opts...)
			if tt.want == nil {
				if err == nil {
					t.Fatalf("Tokenize(%q) succeeded, want error", tt.src)
				}

				return
			}

			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.src, err)
			}

			if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize("Code\n  é = 1 + $X\nEnd")
	if err != nil {
		t.Fatal(err)
	}

	want := []Position{
		{Offset: 0, Line: 1, Column: 1},   // Code
		{Offset: 4, Line: 1, Column: 5},   // NEWLINE
		{Offset: 7, Line: 2, Column: 3},   // é
		{Offset: 10, Line: 2, Column: 5},  // =
		{Offset: 12, Line: 2, Column: 7},  // 1
		{Offset: 14, Line: 2, Column: 9},  // +
		{Offset: 16, Line: 2, Column: 11}, // $X
		{Offset: 18, Line: 2, Column: 13}, // NEWLINE
		{Offset: 19, Line: 3, Column: 1},  // End
		{Offset: 22, Line: 3, Column: 4},  // EOF
	}

	got := make([]Position, len(toks))
	for i, tok := range toks {
		got[i] = tok.Position
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		line     int
		column   int
		found    string
		expected []string
	}{
		{
			name:     "unterminated string at opening quote",
			src:      "Code\n  x = \"abc\nEnd",
			line:     2,
			column:   7,
			found:    `"`,
			expected: []string{`"\""`},
		},
		{
			name:     "string ending in escape",
			src:      `x = 'abc\`,
			line:     1,
			column:   5,
			found:    "'",
			expected: []string{`"'"`},
		},
		{
			name:     "unterminated block comment",
			src:      "a /* never\nclosed",
			line:     1,
			column:   3,
			found:    "/*",
			expected: []string{`"*/"`},
		},
		{
			name:   "unexpected character counts runes",
			src:    "é = 1 @",
			line:   1,
			column: 7,
			found:  "@",
		},
		{
			name:     "reference prefix without name",
			src:      "x = $1",
			line:     1,
			column:   5,
			found:    "$",
			expected: []string{"IDENTIFIER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src)

			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Tokenize(%q) error = %v, want *LexError", tt.src, err)
			}

			if !errors.Is(err, ErrLex) {
				t.Errorf("errors.Is(err, ErrLex) = false")
			}

			d := lexErr.Diagnostic
			if d.Line != tt.line || d.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", d.Line, d.Column, tt.line, tt.column)
			}

			if d.Found != tt.found {
				t.Errorf("Found = %q, want %q", d.Found, tt.found)
			}

			if diff := cmp.Diff(tt.expected, d.Expected); diff != "" {
				t.Errorf("Expected mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
