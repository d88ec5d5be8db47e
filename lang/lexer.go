package lang

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/johncclayton/rt-grammar/lang/grammar"
)

// Reference prefixes.
const (
	prefixSymbol    = '$'
	prefixWatchlist = '&'
	prefixParam     = '?'
)

const bom = "\uFEFF"

// Tokenize scans source into tokens, ending with a single EOF token.
// Comments are dropped unless [WithComments] is given. The error is a
// [*LexError].
func Tokenize(source string, opts ...Option) ([]Token, error) {
	cfg := makeConfig(opts...)

	l := &lexer{
		src:      source,
		table:    cfg.table,
		comments: cfg.comments,
		line:     1,
		col:      1,
	}

	// A leading byte order mark is not part of the text.
	if strings.HasPrefix(source, bom) {
		l.off = len(bom)
	}

	if err := l.run(); err != nil {
		return nil, err
	}

	return l.toks, nil
}

type lexer struct {
	src      string
	table    *grammar.Table
	comments bool

	off, line, col int
	nest           int  // open ( and [
	text           bool // inside the body of a text-mode section
	toks           []Token
}

func (l *lexer) pos() Position {
	return Position{Offset: l.off, Line: l.line, Column: l.col}
}

// peek returns the rune n runes ahead, or -1 past the end.
func (l *lexer) peek(n int) rune {
	off := l.off
	for ; n > 0 && off < len(l.src); n-- {
		_, w := utf8.DecodeRuneInString(l.src[off:])
		off += w
	}

	if off >= len(l.src) {
		return -1
	}

	r, _ := utf8.DecodeRuneInString(l.src[off:])

	return r
}

func (l *lexer) next() rune {
	r, w := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += w

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *lexer) emit(kind Kind, start Position) {
	l.toks = append(l.toks, Token{
		Kind:     kind,
		Lexeme:   l.src[start.Offset:l.off],
		Position: start,
	})
}

func (l *lexer) fail(start Position, found, msg string, expected ...string) *LexError {
	r, _ := utf8.DecodeRuneInString(found)

	return &LexError{
		Diagnostic: newDiagnostic(start, found, msg, expected),
		Char:       r,
	}
}

func (l *lexer) run() error {
	for {
		for isSpace(l.peek(0)) {
			l.next()
		}

		start := l.pos()
		r := l.peek(0)

		if l.text && l.lineStart() && l.textLine(start) {
			continue
		}

		var err error

		switch {
		case r < 0:
			l.toks = append(l.toks, Token{Kind: KindEOF, Position: start})

			return nil

		case r == '\n':
			l.next()

			if l.nest == 0 {
				l.emit(KindNewline, start)
			}

		case r == '/' && l.peek(1) == '/':
			for r := l.peek(0); r >= 0 && r != '\n'; r = l.peek(0) {
				l.next()
			}

			l.comment(start)

		case r == '/' && l.peek(1) == '*':
			err = l.blockComment(start)

		case unicode.IsLetter(r):
			l.word(start)

		case r == prefixSymbol, r == prefixWatchlist, r == prefixParam:
			err = l.reference(start, r)

		case r == '"', r == '\'':
			err = l.quoted(start, r)

		case isDigit(r), r == '.' && isDigit(l.peek(1)):
			l.number(start)

		case (r == '-' || r == '+') && isDigit(l.peek(1)) && l.signed():
			l.next()
			l.number(start)

		default:
			err = l.symbol(start, r)
		}

		if err != nil {
			return err
		}
	}
}

func (l *lexer) comment(start Position) {
	if l.comments {
		l.emit(KindComment, start)
	}
}

// blockComment consumes a non-nesting /* */ comment. A comment spanning a
// line break ends the statement it interrupts.
func (l *lexer) blockComment(start Position) error {
	l.next()
	l.next()

	var brk *Position

	for {
		switch r := l.peek(0); {
		case r < 0:
			return l.fail(start, "/*", "unterminated block comment", strconv.Quote("*/"))

		case r == '*' && l.peek(1) == '/':
			l.next()
			l.next()
			l.comment(start)

			if brk != nil && l.nest == 0 {
				l.toks = append(l.toks, Token{Kind: KindNewline, Lexeme: "\n", Position: *brk})
			}

			return nil

		case r == '\n' && brk == nil:
			p := l.pos()
			brk = &p

			l.next()

		default:
			l.next()
		}
	}
}

// word scans an identifier, emitting it as a keyword when the grammar
// reserves it in any letter case.
func (l *lexer) word(start Position) {
	for isWordRune(l.peek(0)) {
		l.next()
	}

	word := l.src[start.Offset:l.off]
	bol := l.lineStart()

	kind := KindIdentifier
	if _, ok := l.table.Keyword(word); ok {
		kind = KindKeyword
	}

	l.emit(kind, start)

	if sec, ok := l.table.Section(word); ok && bol {
		l.text = sec.Directive == grammar.DirectiveText
		if l.text {
			l.textHeader()
		}
	}
}

// lineStart reports whether the next token is the first on its line.
func (l *lexer) lineStart() bool {
	for i := len(l.toks) - 1; i >= 0; i-- {
		switch l.toks[i].Kind {
		case KindComment:
		case KindNewline:
			return true
		default:
			return false
		}
	}

	return true
}

// textHeader scans the header of a text-mode section as raw text after its
// colon.
func (l *lexer) textHeader() {
	for isSpace(l.peek(0)) {
		l.next()
	}

	if l.peek(0) != ':' {
		return
	}

	start := l.pos()
	l.next()
	l.emit(KindOperator, start)
	l.rawText()
}

// textLine scans a line of a text-mode body. A line that closes the
// section or starts another one ends text mode and is left to the regular
// scanner, as are blank and comment-only lines. Other lines become a TEXT
// token, preceded by IDENTIFIER and ":" when the line is a "Name: value"
// directive. It reports whether it consumed the line.
func (l *lexer) textLine(start Position) bool {
	switch r := l.peek(0); {
	case r < 0, r == '\n':
		return false
	case r == '/' && (l.peek(1) == '/' || l.peek(1) == '*'):
		return false
	}

	line, _, _ := strings.Cut(l.src[l.off:], "\n")

	if l.structural(line) {
		l.text = false

		return false
	}

	if name, ok := directiveName(line); ok {
		for range utf8.RuneCountInString(name) {
			l.next()
		}

		l.emit(KindIdentifier, start)
		l.textHeader()

		return true
	}

	l.rawText()

	return true
}

// structural reports whether line closes a block or opens a section.
func (l *lexer) structural(line string) bool {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	head, _, colon := strings.Cut(line, ":")
	if _, ok := l.table.Section(strings.TrimSpace(head)); ok && (colon || len(fields) == 1) {
		return true
	}

	target, ok := l.table.Closer(fields[0])

	switch {
	case !ok:
		return false
	case len(fields) == 1:
		return true
	case len(fields) == 2 && target == "":
		_, ok := l.table.Section(fields[1])

		return ok
	default:
		return false
	}
}

// directiveName returns the identifier of a "Name: value" line.
func directiveName(line string) (string, bool) {
	end := 0

	for end < len(line) {
		r, w := utf8.DecodeRuneInString(line[end:])
		if (end == 0 && !unicode.IsLetter(r)) || (end > 0 && !isWordRune(r)) {
			break
		}

		end += w
	}

	if end == 0 || !strings.HasPrefix(strings.TrimLeft(line[end:], " \t"), ":") {
		return "", false
	}

	return line[:end], true
}

// rawText emits the rest of the line, without surrounding blanks, as a TEXT
// token.
func (l *lexer) rawText() {
	for isSpace(l.peek(0)) {
		l.next()
	}

	line, _, _ := strings.Cut(l.src[l.off:], "\n")

	text := strings.TrimRightFunc(line, isSpace)
	if text == "" {
		return
	}

	start := l.pos()

	for range utf8.RuneCountInString(text) {
		l.next()
	}

	l.emit(KindText, start)
}

func (l *lexer) reference(start Position, prefix rune) error {
	l.next()

	if !unicode.IsLetter(l.peek(0)) {
		return l.fail(start, string(prefix),
			"reference prefix must be followed by a name", KindIdentifier.String())
	}

	for {
		r := l.peek(0)

		switch {
		case isWordRune(r):
		case r == '.' && prefix == prefixSymbol && isAlnum(l.peek(1)):
		default:
			kind := KindSymbolRef

			switch prefix {
			case prefixWatchlist:
				kind = KindWatchlistRef
			case prefixParam:
				kind = KindParamRef
			}

			l.emit(kind, start)

			return nil
		}

		l.next()
	}
}

// quoted scans a single-line string with backslash escapes. An unterminated
// string is reported at its opening quote.
func (l *lexer) quoted(start Position, quote rune) error {
	l.next()

	unterminated := func() error {
		return l.fail(start, string(quote), "unterminated string",
			strconv.Quote(string(quote)))
	}

	for {
		switch r := l.peek(0); r {
		case -1, '\n':
			return unterminated()

		case '\\':
			l.next()

			if r := l.peek(0); r < 0 || r == '\n' {
				return unterminated()
			}

			l.next()

		case quote:
			l.next()
			l.emit(KindString, start)

			return nil

		default:
			l.next()
		}
	}
}

// number scans a DATE (YYYY-MM-DD) or a NUMBER with optional fraction and
// exponent. A sign, if any, has already been consumed.
func (l *lexer) number(start Position) {
	if l.off == start.Offset && l.date() {
		for range len("2006-01-02") {
			l.next()
		}

		l.emit(KindDate, start)

		return
	}

	l.digits()

	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.next()
		l.digits()
	}

	if e := l.peek(0); e == 'e' || e == 'E' {
		switch s := l.peek(1); {
		case isDigit(s):
			l.next()
			l.digits()
		case (s == '+' || s == '-') && isDigit(l.peek(2)):
			l.next()
			l.next()
			l.digits()
		}
	}

	l.emit(KindNumber, start)
}

func (l *lexer) digits() {
	for isDigit(l.peek(0)) {
		l.next()
	}
}

// date reports whether a YYYY-MM-DD literal starts at the current offset.
func (l *lexer) date() bool {
	const layout = "dddd-dd-dd"

	s := l.src[l.off:]
	if len(s) < len(layout) {
		return false
	}

	for i := range len(layout) {
		switch layout[i] {
		case 'd':
			if !isDigit(rune(s[i])) {
				return false
			}
		default:
			if s[i] != layout[i] {
				return false
			}
		}
	}

	if len(s) == len(layout) {
		return true
	}

	r, _ := utf8.DecodeRuneInString(s[len(layout):])

	return !isAlnum(r)
}

// signed reports whether a sign directly before a digit belongs to the
// number: the previous token must not be able to end an operand.
func (l *lexer) signed() bool {
	if len(l.toks) == 0 {
		return true
	}

	prev := l.toks[len(l.toks)-1]

	switch prev.Kind {
	case KindNewline, KindKeyword, KindComment:
		return true
	case KindOperator:
		return prev.Lexeme != grammar.RParen && prev.Lexeme != grammar.RBracket
	default:
		return false
	}
}

// symbol scans the longest operator or punctuation lexeme of the grammar.
func (l *lexer) symbol(start Position, r rune) error {
	rest := l.src[l.off:]

	for _, sym := range l.table.Symbols() {
		if !strings.HasPrefix(rest, sym) {
			continue
		}

		for range utf8.RuneCountInString(sym) {
			l.next()
		}

		switch sym {
		case grammar.LParen, grammar.LBracket:
			l.nest++
		case grammar.RParen, grammar.RBracket:
			if l.nest > 0 {
				l.nest--
			}
		}

		l.emit(KindOperator, start)

		return nil
	}

	return l.fail(start, string(r), "unexpected character")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isAlnum(r rune) bool { return r >= 0 && (unicode.IsLetter(r) || unicode.IsDigit(r)) }

func isWordRune(r rune) bool { return isAlnum(r) || r == '_' }
