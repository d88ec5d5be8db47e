package lang

import (
	"github.com/johncclayton/rt-grammar/lang/grammar"
)

var operandKinds = []string{
	KindNumber.String(),
	KindString.String(),
	KindDate.String(),
	KindIdentifier.String(),
	KindSymbolRef.String(),
	KindWatchlistRef.String(),
	KindParamRef.String(),
}

// operator returns the current token as an operator of the given table,
// canonicalized.
func (p *parser) operator(lookup func(string) (grammar.Operator, bool)) (grammar.Operator, bool) {
	t := p.cur()
	if t.Kind != KindOperator && t.Kind != KindKeyword {
		return grammar.Operator{}, false
	}

	return lookup(t.Lexeme)
}

// parseExpr parses a chain of binary operators of precedence minPrec or
// higher. Left-associative operators parse their right operand one level
// tighter; right-associative ones at the same level.
func (p *parser) parseExpr(minPrec int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		p.expect(quote(p.table.BinaryLexemes()...)...)

		op, ok := p.operator(p.table.Binary)
		if !ok || op.Precedence < minPrec {
			return left, nil
		}

		tok := p.advance()

		next := op.Precedence + 1
		if op.Assoc == grammar.AssocRight {
			next = op.Precedence
		}

		right, err := p.nested(next)
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op.Lexeme, Left: left, Right: right, Start: tok.Position}
	}
}

// nested parses an operand one nesting level deeper.
func (p *parser) nested(minPrec int) (Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseExpr(minPrec)
}

func (p *parser) parseUnary() (Expression, error) {
	p.expect(quote(p.table.UnaryLexemes()...)...)

	op, ok := p.operator(p.table.Unary)
	if !ok {
		return p.parsePostfix()
	}

	tok := p.advance()

	operand, err := p.nested(op.Precedence)
	if err != nil {
		return nil, err
	}

	return &Unary{Op: op.Lexeme, Operand: operand, Start: tok.Position}, nil
}

// parsePostfix parses a primary followed by any number of "[index]".
func (p *parser) parsePostfix() (Expression, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.atLexeme(grammar.LBracket) {
		open := p.advance()

		idx, err := p.nested(0)
		if err != nil {
			return nil, err
		}

		if !p.acceptLexeme(grammar.RBracket) {
			return nil, p.fail("unclosed index")
		}

		x = &Index{Target: x, Index: idx, Start: open.Position}
	}

	return x, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	p.expect(operandKinds...)
	p.expect(quote(grammar.LParen)...)

	t := p.cur()

	switch t.Kind {
	case KindNumber:
		return &Literal{Kind: LiteralNumber, Raw: p.advance().Lexeme, Start: t.Position}, nil
	case KindString:
		return &Literal{Kind: LiteralString, Raw: p.advance().Lexeme, Start: t.Position}, nil
	case KindDate:
		return &Literal{Kind: LiteralDate, Raw: p.advance().Lexeme, Start: t.Position}, nil
	case KindSymbolRef:
		return &SymbolRef{Name: p.advance().Lexeme[1:], Start: t.Position}, nil
	case KindWatchlistRef:
		return &WatchlistRef{Name: p.advance().Lexeme[1:], Start: t.Position}, nil
	case KindParamRef:
		return &ParamRef{Name: p.advance().Lexeme[1:], Start: t.Position}, nil

	case KindIdentifier:
		name := p.advance()

		if p.atLexeme(grammar.LParen) {
			return p.parseCall(name)
		}

		return &Identifier{Name: name.Lexeme, Start: name.Position}, nil

	case KindOperator:
		if t.Lexeme != grammar.LParen {
			break
		}

		p.advance()

		x, err := p.nested(0)
		if err != nil {
			return nil, err
		}

		if !p.acceptLexeme(grammar.RParen) {
			return nil, p.fail("unclosed parenthesis")
		}

		return x, nil
	}

	return nil, p.fail("expected expression")
}

// parseCall parses the argument list of a call to name. The current token
// is the opening parenthesis.
func (p *parser) parseCall(name Token) (*Call, error) {
	p.advance()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	call := &Call{Name: name.Lexeme, Start: name.Position}

	if p.acceptLexeme(grammar.RParen) {
		return call, nil
	}

	for {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)

		if p.acceptLexeme(p.table.Separator()) {
			continue
		}

		if p.acceptLexeme(grammar.RParen) {
			return call, nil
		}

		return nil, p.fail("unclosed argument list")
	}
}
