// Package parser builds syntax trees from source text.
//
// The grammar is newline terminated and brace delimited. Parsing stops at
// the first syntax error and reports it as an *Error with the file name
// and position attached. Newlines are significant only between statements;
// inside parentheses, brackets, and dict braces they are skipped so that
// calls and literals can span lines.
package parser

import (
	"fmt"
	"strings"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/lexer"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Parse parses a whole script. Name is the display name attached to the
// resulting tree and to any diagnostic.
func Parse(src, name string) (script *ast.Script, err error) {
	p := &parser{lx: lexer.New(src), name: name}
	defer p.recoverBailout(&err)

	p.next()
	script = &ast.Script{Name: name}
	p.skipNewlines()
	for !p.at(token.EOF) {
		script.Stmts = append(script.Stmts, p.parseStmt())
		p.skipNewlines()
	}
	return script, nil
}

// ParseExpr parses a single expression followed by end of input.
func ParseExpr(src string) (e ast.Expr, err error) {
	p := &parser{lx: lexer.New(src), name: "<expr>"}
	defer p.recoverBailout(&err)

	p.next()
	p.skipNewlines()
	e = p.parseExpr()
	p.skipNewlines()
	if !p.at(token.EOF) {
		p.errorf(p.tok.Pos, "unexpected %s after expression", p.tok.Kind)
	}
	return e, nil
}

// bailout aborts the recursive descent once the first error is recorded.
type bailout struct{}

type parser struct {
	lx   *lexer.Lexer
	name string
	tok  token.Token
	err  *Error
}

func (p *parser) recoverBailout(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); ok && p.err != nil {
			*err = p.err
			return
		}
		panic(r)
	}
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) {
	if p.err == nil {
		p.err = &Error{File: p.name, Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
	panic(bailout{})
}

func (p *parser) next() {
	p.tok = p.lx.Next()
	if p.tok.Kind == token.Invalid {
		if strings.HasPrefix(p.tok.Text, `"`) {
			p.errorf(p.tok.Pos, "malformed string literal")
		}
		p.errorf(p.tok.Pos, "unexpected character %q", p.tok.Text)
	}
}

func (p *parser) at(k token.Kind) bool {
	return p.tok.Kind == k
}

// got consumes the current token if it has the given kind.
func (p *parser) got(k token.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(k token.Kind) token.Token {
	if !p.at(k) {
		p.errorf(p.tok.Pos, "expected %s, found %s", k, p.tok.Kind)
	}
	tok := p.tok
	p.next()
	return tok
}

func (p *parser) skipNewlines() {
	for p.at(token.Newline) {
		p.next()
	}
}

// expectTerminator ends a simple statement. A newline is consumed; a
// closing brace or end of input terminates without being consumed.
func (p *parser) expectTerminator() {
	switch p.tok.Kind {
	case token.Newline:
		p.next()
	case token.RBrace, token.EOF:
	default:
		p.errorf(p.tok.Pos, "expected newline, found %s", p.tok.Kind)
	}
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.KwFunc:
		return p.parseFuncDecl()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwBreak:
		s := &ast.BreakStmt{Tok: p.tok.Pos}
		p.next()
		p.expectTerminator()
		return s
	case token.KwContinue:
		s := &ast.ContinueStmt{Tok: p.tok.Pos}
		p.next()
		p.expectTerminator()
		return s
	case token.KwElse:
		p.errorf(p.tok.Pos, "'else' without matching 'if'")
		return nil
	case token.LBrace:
		p.errorf(p.tok.Pos, "unexpected '{', blocks must follow a control keyword")
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses assignment, compound assignment, or a bare
// expression statement.
func (p *parser) parseSimpleStmt() ast.Stmt {
	target := p.parseExpr()

	switch {
	case p.at(token.Assign):
		assign := p.tok.Pos
		p.next()
		p.markTarget(target)
		value := p.parseExpr()
		p.expectTerminator()
		return &ast.AssignStmt{Target: target, Assign: assign, Value: value}

	case p.tok.Kind.IsAugAssign():
		op := p.tok.Kind.BinaryOp()
		opPos := p.tok.Pos
		p.next()
		p.markTarget(target)
		value := p.parseExpr()
		p.expectTerminator()
		return &ast.AugAssignStmt{Target: target, Op: op, OpPos: opPos, Value: value}

	default:
		p.expectTerminator()
		return &ast.ExprStmt{X: target}
	}
}

// markTarget flips an assignable expression into write context or reports
// why it cannot be assigned to.
func (p *parser) markTarget(e ast.Expr) {
	if !ast.SetCtx(e, ast.CtxWrite) {
		p.errorf(e.Pos(), "cannot assign to %s", describeExpr(e))
	}
}

func (p *parser) parseFuncDecl() *ast.FuncDecl {
	fn := &ast.FuncDecl{Func: p.expect(token.KwFunc).Pos}
	name := p.expect(token.Ident)
	fn.Name = &ast.Ident{NamePos: name.Pos, Name: name.Text}

	p.expect(token.LParen)
	p.skipNewlines()
	for !p.at(token.RParen) {
		param := p.expect(token.Ident)
		fn.Params = append(fn.Params, &ast.Ident{NamePos: param.Pos, Name: param.Text})
		p.skipNewlines()
		if !p.got(token.Comma) {
			break
		}
		p.skipNewlines()
	}
	p.expect(token.RParen)

	fn.Body = p.parseBlock()
	return fn
}

func (p *parser) parseBlock() *ast.Block {
	b := &ast.Block{Lbrace: p.expect(token.LBrace).Pos}
	p.skipNewlines()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		b.Stmts = append(b.Stmts, p.parseStmt())
		p.skipNewlines()
	}
	b.Rbrace = p.expect(token.RBrace).Pos
	return b
}

func (p *parser) parseIf() *ast.IfStmt {
	s := &ast.IfStmt{If: p.expect(token.KwIf).Pos}
	s.Cond = p.parseExpr()
	s.Body = p.parseBlock()
	if p.got(token.KwElse) {
		if p.at(token.KwIf) {
			s.Else = p.parseIf()
		} else {
			s.Else = p.parseBlock()
		}
	}
	return s
}

func (p *parser) parseWhile() *ast.WhileStmt {
	s := &ast.WhileStmt{While: p.expect(token.KwWhile).Pos}
	s.Cond = p.parseExpr()
	s.Body = p.parseBlock()
	return s
}

func (p *parser) parseFor() *ast.ForStmt {
	s := &ast.ForStmt{For: p.expect(token.KwFor).Pos}
	target := p.expect(token.Ident)
	s.Target = &ast.Ident{NamePos: target.Pos, Name: target.Text, Ctx: ast.CtxWrite}
	p.expect(token.KwIn)
	s.Iter = p.parseExpr()
	s.Body = p.parseBlock()
	return s
}

func (p *parser) parseReturn() *ast.ReturnStmt {
	s := &ast.ReturnStmt{Return: p.expect(token.KwReturn).Pos}
	if !p.at(token.Newline) && !p.at(token.RBrace) && !p.at(token.EOF) {
		s.Value = p.parseExpr()
	}
	p.expectTerminator()
	return s
}

func describeExpr(e ast.Expr) string {
	switch e.(type) {
	case *ast.CallExpr:
		return "a call result"
	case *ast.BinaryExpr, *ast.UnaryExpr:
		return "an operator expression"
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit:
		return "a literal"
	case *ast.ListLit:
		return "a list literal"
	case *ast.DictLit:
		return "a dict literal"
	default:
		return "this expression"
	}
}
