package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/log"
)

// parser is a recursive descent parser over a token slice. Every test of
// the current token records what it would have accepted; the record is
// discarded when the parser advances, so a failure reports exactly the
// alternatives available at the failing token.
type parser struct {
	ctx      context.Context
	table    *grammar.Table
	kw       grammar.KeywordSet
	logger   log.Logger
	toks     []Token
	pos      int
	depth    int
	maxDepth int
	expPos   int
	expected map[string]struct{}
	seen     map[string]bool // singleton sections already parsed
}

func newParser(ctx context.Context, toks []Token, cfg config) *parser {
	filtered := make([]Token, 0, len(toks)+1)

	for _, t := range toks {
		if t.Kind != KindComment {
			filtered = append(filtered, t)
		}
	}

	if n := len(filtered); n == 0 || filtered[n-1].Kind != KindEOF {
		var end Position
		if n > 0 {
			last := filtered[n-1]
			end = Position{
				Offset: last.Offset + len(last.Lexeme),
				Line:   last.Line,
				Column: last.Column + len([]rune(last.Lexeme)),
			}
		} else {
			end = Position{Line: 1, Column: 1}
		}

		filtered = append(filtered, Token{Kind: KindEOF, Position: end})
	}

	return &parser{
		ctx:      ctx,
		table:    cfg.table,
		kw:       cfg.table.Keywords(),
		logger:   cfg.logger,
		toks:     filtered,
		maxDepth: cfg.maxDepth,
		expected: map[string]struct{}{},
		seen:     map[string]bool{},
	}
}

func (p *parser) cur() Token { return p.toks[p.pos] }

// peekNext returns the token after the current one without recording it.
func (p *parser) peekNext() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}

	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	t := p.cur()
	if t.Kind != KindEOF {
		p.pos++
	}

	return t
}

func (p *parser) expect(what ...string) {
	if p.expPos != p.pos {
		clear(p.expected)
		p.expPos = p.pos
	}

	for _, w := range what {
		p.expected[w] = struct{}{}
	}
}

func quote(lexemes ...string) []string {
	q := make([]string, len(lexemes))
	for i, s := range lexemes {
		q[i] = strconv.Quote(s)
	}

	return q
}

func (p *parser) atKind(k Kind) bool {
	p.expect(k.String())

	return p.cur().Kind == k
}

func (p *parser) atLexeme(lexeme string) bool {
	p.expect(strconv.Quote(lexeme))

	t := p.cur()

	return t.Kind == KindOperator && t.Lexeme == lexeme
}

func (p *parser) acceptLexeme(lexeme string) bool {
	if p.atLexeme(lexeme) {
		p.advance()

		return true
	}

	return false
}

// isKeyword tests the current token without recording it.
func (p *parser) isKeyword(canonical string) bool {
	t := p.cur()

	return t.Kind == KindKeyword && p.table.IsKeyword(t.Lexeme, canonical)
}

func (p *parser) atKeyword(canonical string) bool {
	p.expect(strconv.Quote(canonical))

	return p.isKeyword(canonical)
}

func (p *parser) acceptKeyword(canonical string) bool {
	if p.atKeyword(canonical) {
		p.advance()

		return true
	}

	return false
}

// section returns the section named by the current token, if any.
func (p *parser) section() (*grammar.Section, bool) {
	t := p.cur()
	if t.Kind != KindKeyword {
		return nil, false
	}

	return p.table.Section(t.Lexeme)
}

// closer returns the construct closed by the current token, if it is a
// closer keyword.
func (p *parser) closer() (string, bool) {
	t := p.cur()
	if t.Kind != KindKeyword {
		return "", false
	}

	return p.table.Closer(t.Lexeme)
}

func (p *parser) fail(msg string) *SyntaxError {
	var expected []string

	if p.expPos == p.pos {
		expected = make([]string, 0, len(p.expected))
		for e := range p.expected {
			expected = append(expected, e)
		}
	}

	t := p.cur()

	return &SyntaxError{
		Diagnostic: newDiagnostic(t.Position, t.Display(), msg, expected),
	}
}

// failAt reports msg at the current token with no expected alternatives.
func (p *parser) failAt(msg string) *SyntaxError {
	t := p.cur()

	return &SyntaxError{Diagnostic: newDiagnostic(t.Position, t.Display(), msg, nil)}
}

func (p *parser) enter() error {
	if p.depth >= p.maxDepth {
		return p.failAt(fmt.Sprintf("nesting too deep (limit %d)", p.maxDepth))
	}

	p.depth++

	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) skipNewlines() {
	for p.atKind(KindNewline) {
		p.advance()
	}
}

// endLine consumes the line break ending a header or statement. End of
// input is accepted without being offered as an alternative: whatever
// encloses the line decides whether it may end there.
func (p *parser) endLine() error {
	if p.atKind(KindNewline) {
		p.advance()

		return nil
	}

	if p.cur().Kind == KindEOF {
		return nil
	}

	return p.fail("expected end of line")
}

func (p *parser) parseScript() (*Script, error) {
	script := &Script{}

	for {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}

		p.skipNewlines()

		for _, name := range p.table.Sections() {
			if sec, _ := p.table.Section(name); !sec.Singleton || !p.seen[name] {
				p.expect(strconv.Quote(name))
			}
		}

		if p.atKind(KindEOF) {
			return script, nil
		}

		sec, err := p.parseSection()
		if err != nil {
			return nil, err
		}

		p.logger.TraceContext(p.ctx, "section parsed",
			slog.String("section", sec.Name),
			slog.Int("line", sec.Start.Line),
			slog.Int("statements", len(sec.Body)),
		)

		script.Sections = append(script.Sections, sec)
	}
}

func (p *parser) parseSection() (*Section, error) {
	spec, ok := p.section()
	if !ok {
		return nil, p.unknownSection()
	}

	if spec.Singleton && p.seen[spec.Name] {
		return nil, p.fail("duplicate section " + spec.Name)
	}

	p.seen[spec.Name] = true

	sec := &Section{Name: spec.Name, Start: p.advance().Position}

	if p.acceptLexeme(grammar.Colon) {
		var header []string

		for !p.atKind(KindNewline) && !p.atKind(KindEOF) {
			header = append(header, p.advance().Lexeme)
		}

		sec.Header = strings.Join(header, " ")
	}

	if err := p.endLine(); err != nil {
		return nil, err
	}

	if sec.Header != "" && p.headerOnly() {
		sec.HeaderOnly = true

		return sec, nil
	}

	stmts, err := p.parseBody(spec, bodySection)
	if err != nil {
		return nil, err
	}

	sec.Body = stmts

	if err := p.closeSection(spec); err != nil {
		return nil, err
	}

	return sec, nil
}

// headerOnly reports whether the next significant token starts another
// section or ends the input.
func (p *parser) headerOnly() bool {
	for i := p.pos; i < len(p.toks); i++ {
		switch t := p.toks[i]; t.Kind {
		case KindNewline:
		case KindEOF:
			return true
		case KindKeyword:
			_, ok := p.table.Section(t.Lexeme)

			return ok
		default:
			return false
		}
	}

	return true
}

func (p *parser) unknownSection() error {
	err := p.fail("expected section name")

	t := p.cur()
	if t.Kind == KindIdentifier || t.Kind == KindKeyword {
		if m := fuzzy.Find(t.Lexeme, p.table.Sections()); len(m) > 0 {
			err.Hint = fmt.Sprintf("did you mean %q?", m[0].Str)
		}
	}

	return err
}

// body identifies the block a statement list belongs to.
type body uint8

const (
	bodySection body = iota
	bodyBranch       // If or ElseIf arm
	bodyElse
)

// parseBody parses statements up to a closer keyword. An If or ElseIf arm
// also ends at Else and ElseIf.
func (p *parser) parseBody(spec *grammar.Section, kind body) ([]Statement, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var stmts []Statement

	for {
		p.skipNewlines()

		if p.atBodyEnd(spec, kind) {
			return stmts, nil
		}

		st, err := p.parseStatement(spec)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, st)
	}
}

func (p *parser) atBodyEnd(spec *grammar.Section, kind body) bool {
	p.expect(KindIdentifier.String())

	if spec.Allows(grammar.FormConditional) {
		p.expect(strconv.Quote(p.kw.If))
	}

	switch kind {
	case bodySection:
		p.expect(quote(p.kw.End, p.table.CloserFor(spec.Name))...)
	case bodyBranch:
		p.expect(quote(p.kw.ElseIf, p.kw.Else)...)

		if p.isKeyword(p.kw.ElseIf) || p.isKeyword(p.kw.Else) {
			return true
		}

		fallthrough
	case bodyElse:
		p.expect(quote(p.kw.End, p.table.CloserFor(p.kw.If))...)
	}

	_, ok := p.closer()

	return ok
}

func (p *parser) parseStatement(spec *grammar.Section) (Statement, error) {
	if spec.Allows(grammar.FormConditional) && p.atKeyword(p.kw.If) {
		return p.parseConditional(spec)
	}

	if p.atKind(KindIdentifier) {
		if spec.Directive == grammar.DirectiveText && p.peekNext().Lexeme != grammar.Colon {
			return p.parseText(spec)
		}

		return p.parseNamed(spec)
	}

	if spec.Directive == grammar.DirectiveText {
		if _, ok := p.section(); !ok && p.cur().Kind != KindEOF {
			return p.parseText(spec)
		}
	}

	if next, ok := p.section(); ok {
		return nil, p.fail(fmt.Sprintf("section %s is not closed before %s", spec.Name, next.Name))
	}

	if p.cur().Kind == KindEOF {
		return nil, p.fail(fmt.Sprintf("section %s is not closed", spec.Name))
	}

	return nil, p.fail(fmt.Sprintf("unexpected token in %s section", spec.Name))
}

// parseNamed parses the statements that start with an identifier.
func (p *parser) parseNamed(spec *grammar.Section) (Statement, error) {
	name := p.advance()

	if spec.Allows(grammar.FormAssignment) {
		p.expect(quote(p.table.AssignLexemes()...)...)

		if t := p.cur(); t.Kind == KindOperator && p.table.IsAssign(t.Lexeme) {
			p.advance()

			value, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}

			st := &Assignment{Target: name.Lexeme, Op: t.Lexeme, Value: value, Start: name.Position}

			return st, p.endLine()
		}
	}

	if spec.Allows(grammar.FormCall) && p.atLexeme(grammar.LParen) {
		call, err := p.parseCall(name)
		if err != nil {
			return nil, err
		}

		return &CallStatement{Call: call}, p.endLine()
	}

	if spec.Allows(grammar.FormParameter) && p.acceptLexeme(grammar.Colon) {
		return p.parseParam(name)
	}

	if spec.Allows(grammar.FormDirective) && p.acceptLexeme(grammar.Colon) {
		return p.parseDirective(spec, name)
	}

	return nil, p.fail(fmt.Sprintf("incomplete statement %s", name.Lexeme))
}

func (p *parser) parseDirective(spec *grammar.Section, name Token) (Statement, error) {
	d := &Directive{Name: name.Lexeme, Mode: spec.Directive, Start: name.Position}

	if spec.Directive == grammar.DirectiveText {
		d.Text = p.restOfLine()

		return d, p.endLine()
	}

	for {
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		d.Values = append(d.Values, x)

		if !p.acceptLexeme(p.table.Separator()) {
			break
		}
	}

	return d, p.endLine()
}

// parseText reads a free text line of a text-mode section.
func (p *parser) parseText(spec *grammar.Section) (Statement, error) {
	d := &Directive{Mode: spec.Directive, Start: p.cur().Position}
	d.Text = p.restOfLine()

	return d, p.endLine()
}

func (p *parser) restOfLine() string {
	var text []string

	for !p.atKind(KindNewline) && p.cur().Kind != KindEOF {
		text = append(text, p.advance().Lexeme)
	}

	return strings.Join(text, " ")
}

// parseParam parses the value of a parameter declaration:
// [from] Expr (to Expr [step Expr] | {, Expr}).
func (p *parser) parseParam(name Token) (Statement, error) {
	d := &ParamDecl{Name: name.Lexeme, Start: name.Position}

	ranged := p.acceptKeyword(p.kw.From)

	first, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	switch {
	case p.acceptKeyword(p.kw.To):
		d.From = first

		if d.To, err = p.parseExpr(0); err != nil {
			return nil, err
		}

		if p.acceptKeyword(p.kw.Step) {
			if d.Step, err = p.parseExpr(0); err != nil {
				return nil, err
			}
		}

	case ranged:
		return nil, p.fail("incomplete parameter range")

	default:
		d.Values = append(d.Values, first)

		for p.acceptLexeme(p.table.Separator()) {
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}

			d.Values = append(d.Values, x)
		}
	}

	return d, p.endLine()
}

func (p *parser) parseConditional(spec *grammar.Section) (Statement, error) {
	c := &Conditional{Start: p.advance().Position}

	for {
		start := p.toks[p.pos-1].Position

		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		p.acceptKeyword(p.kw.Then)

		if err := p.endLine(); err != nil {
			return nil, err
		}

		stmts, err := p.parseBody(spec, bodyBranch)
		if err != nil {
			return nil, err
		}

		c.Branches = append(c.Branches, &Branch{Cond: cond, Body: stmts, Start: start})

		if !p.acceptKeyword(p.kw.ElseIf) {
			break
		}
	}

	if p.acceptKeyword(p.kw.Else) {
		if err := p.endLine(); err != nil {
			return nil, err
		}

		stmts, err := p.parseBody(spec, bodyElse)
		if err != nil {
			return nil, err
		}

		c.HasElse = true
		c.Else = stmts
	}

	return c, p.closeIf()
}

// closeIf consumes "End [If]" or "EndIf".
func (p *parser) closeIf() error {
	target, ok := p.closer()

	switch {
	case ok && target == "":
		end := p.advance()

		if p.acceptKeyword(p.kw.If) {
			break
		}

		p.expect(KindNewline.String())

		if sec, ok := p.section(); ok {
			return p.fail(fmt.Sprintf("mismatched %s %s: expected close of %s block",
				end.Lexeme, sec.Name, p.kw.If))
		}

	case ok && target == p.kw.If:
		p.advance()

	default:
		return p.fail(fmt.Sprintf("mismatched %s: expected close of %s block",
			p.cur().Lexeme, p.kw.If))
	}

	return p.endLine()
}

// closeSection consumes "End [Section]" or "End<Section>" for spec.
func (p *parser) closeSection(spec *grammar.Section) error {
	target, ok := p.closer()

	switch {
	case ok && target == "":
		end := p.advance()

		p.expect(strconv.Quote(spec.Name), KindNewline.String())

		if sec, ok := p.section(); ok {
			if sec != spec {
				return p.fail(fmt.Sprintf("mismatched %s %s: expected close of section %s",
					end.Lexeme, sec.Name, spec.Name))
			}

			p.advance()
		}

	case ok && target == spec.Name:
		p.advance()

	default:
		return p.fail(fmt.Sprintf("mismatched %s: expected close of section %s",
			p.cur().Lexeme, spec.Name))
	}

	return p.endLine()
}
