package parser

import (
	"strconv"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Binding strength, weakest first: || then && then comparison then
// additive then multiplicative. Unary and postfix bind tighter still.
func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.at(token.OrOr) {
		opPos := p.tok.Pos
		p.next()
		p.skipNewlines()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: token.OrOr, Y: p.parseAnd()}
	}
	return x
}

func (p *parser) parseAnd() ast.Expr {
	x := p.parseComparison()
	for p.at(token.AndAnd) {
		opPos := p.tok.Pos
		p.next()
		p.skipNewlines()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: token.AndAnd, Y: p.parseComparison()}
	}
	return x
}

func (p *parser) parseComparison() ast.Expr {
	x := p.parseAdditive()
	for isComparisonOp(p.tok.Kind) {
		op := p.tok.Kind
		opPos := p.tok.Pos
		p.next()
		p.skipNewlines()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseAdditive()}
	}
	return x
}

func (p *parser) parseAdditive() ast.Expr {
	x := p.parseMultiplicative()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.tok.Kind
		opPos := p.tok.Pos
		p.next()
		p.skipNewlines()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseMultiplicative()}
	}
	return x
}

func (p *parser) parseMultiplicative() ast.Expr {
	x := p.parseUnary()
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		op := p.tok.Kind
		opPos := p.tok.Pos
		p.next()
		p.skipNewlines()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseUnary()}
	}
	return x
}

func (p *parser) parseUnary() ast.Expr {
	switch p.tok.Kind {
	case token.Minus, token.Bang:
		op := p.tok.Kind
		opPos := p.tok.Pos
		p.next()
		return &ast.UnaryExpr{OpPos: opPos, Op: op, X: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any chain of
// calls, attribute accesses, and subscripts.
func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.LParen:
			x = p.parseCall(x)
		case token.Dot:
			dot := p.tok.Pos
			p.next()
			name := p.expect(token.Ident)
			x = &ast.AttrExpr{X: x, Dot: dot, Name: name.Text}
		case token.LBracket:
			x = p.parseSubscript(x)
		default:
			return x
		}
	}
}

func (p *parser) parseCall(fun ast.Expr) *ast.CallExpr {
	call := &ast.CallExpr{Fun: fun, Lparen: p.expect(token.LParen).Pos}
	p.skipNewlines()
	for !p.at(token.RParen) {
		call.Args = append(call.Args, p.parseExpr())
		p.skipNewlines()
		if !p.got(token.Comma) {
			break
		}
		p.skipNewlines()
	}
	p.expect(token.RParen)
	return call
}

// parseSubscript parses x[i], x[low:high], and the open-ended slice forms
// x[:high], x[low:], x[:].
func (p *parser) parseSubscript(x ast.Expr) ast.Expr {
	lbrack := p.expect(token.LBracket).Pos
	p.skipNewlines()

	var low ast.Expr
	if !p.at(token.Colon) {
		if p.at(token.RBracket) {
			p.errorf(p.tok.Pos, "expected expression or ':' in subscript")
		}
		low = p.parseExpr()
		p.skipNewlines()
	}

	if p.got(token.Colon) {
		p.skipNewlines()
		var high ast.Expr
		if !p.at(token.RBracket) {
			high = p.parseExpr()
			p.skipNewlines()
		}
		p.expect(token.RBracket)
		return &ast.SliceExpr{X: x, Lbrack: lbrack, Low: low, High: high}
	}

	p.expect(token.RBracket)
	return &ast.IndexExpr{X: x, Lbrack: lbrack, Index: low}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.tok
	switch tok.Kind {
	case token.Ident:
		p.next()
		return &ast.Ident{NamePos: tok.Pos, Name: tok.Text}

	case token.IntLit:
		p.next()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "integer literal %s out of range", tok.Text)
		}
		return &ast.IntLit{LitPos: tok.Pos, Value: v}

	case token.FloatLit:
		p.next()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorf(tok.Pos, "malformed float literal %s", tok.Text)
		}
		return &ast.FloatLit{LitPos: tok.Pos, Value: v}

	case token.StringLit:
		p.next()
		return &ast.StringLit{LitPos: tok.Pos, Value: tok.Text}

	case token.KwTrue:
		p.next()
		return &ast.BoolLit{LitPos: tok.Pos, Value: true}

	case token.KwFalse:
		p.next()
		return &ast.BoolLit{LitPos: tok.Pos, Value: false}

	case token.KwNull:
		p.next()
		return &ast.NullLit{LitPos: tok.Pos}

	case token.LParen:
		p.next()
		p.skipNewlines()
		x := p.parseExpr()
		p.skipNewlines()
		p.expect(token.RParen)
		return x

	case token.LBracket:
		return p.parseListLit()

	case token.LBrace:
		return p.parseDictLit()

	default:
		p.errorf(tok.Pos, "expected expression, found %s", tok.Kind)
		return nil
	}
}

func (p *parser) parseListLit() *ast.ListLit {
	lit := &ast.ListLit{Lbrack: p.expect(token.LBracket).Pos}
	p.skipNewlines()
	for !p.at(token.RBracket) {
		lit.Elems = append(lit.Elems, p.parseExpr())
		p.skipNewlines()
		if !p.got(token.Comma) {
			break
		}
		p.skipNewlines()
	}
	p.expect(token.RBracket)
	return lit
}

func (p *parser) parseDictLit() *ast.DictLit {
	lit := &ast.DictLit{Lbrace: p.expect(token.LBrace).Pos}
	p.skipNewlines()
	for !p.at(token.RBrace) {
		key := p.parseExpr()
		p.skipNewlines()
		p.expect(token.Colon)
		p.skipNewlines()
		value := p.parseExpr()
		lit.Entries = append(lit.Entries, ast.DictEntry{Key: key, Value: value})
		p.skipNewlines()
		if !p.got(token.Comma) {
			break
		}
		p.skipNewlines()
	}
	p.expect(token.RBrace)
	return lit
}

func isComparisonOp(k token.Kind) bool {
	switch k {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return true
	default:
		return false
	}
}
