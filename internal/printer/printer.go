// Package printer renders syntax trees back into source text.
//
// The tree carries no parentheses, so the printer reinserts them from
// operator precedence. Output is canonical: one statement per line, tab
// indentation, a single space around binary operators. Printing a parsed
// script and reparsing it yields an equivalent tree, which is what the
// instrumenter relies on when it writes rewritten scripts to disk.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Script renders a whole script. The result ends with a trailing newline
// unless the script is empty.
func Script(s *ast.Script) string {
	var b strings.Builder
	for _, st := range s.Stmts {
		writeStmt(&b, st, 0)
	}
	return b.String()
}

// Stmt renders a single statement at indent level zero.
func Stmt(s ast.Stmt) string {
	var b strings.Builder
	writeStmt(&b, s, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

// Expr renders a single expression.
func Expr(e ast.Expr) string {
	var b strings.Builder
	writeExpr(&b, e, 0)
	return b.String()
}

func writeStmt(b *strings.Builder, s ast.Stmt, depth int) {
	indent := strings.Repeat("\t", depth)
	switch x := s.(type) {
	case *ast.ExprStmt:
		b.WriteString(indent)
		writeExpr(b, x.X, 0)
		b.WriteByte('\n')

	case *ast.AssignStmt:
		b.WriteString(indent)
		writeExpr(b, x.Target, 0)
		b.WriteString(" = ")
		writeExpr(b, x.Value, 0)
		b.WriteByte('\n')

	case *ast.AugAssignStmt:
		b.WriteString(indent)
		writeExpr(b, x.Target, 0)
		b.WriteString(" " + opText(x.Op) + "= ")
		writeExpr(b, x.Value, 0)
		b.WriteByte('\n')

	case *ast.FuncDecl:
		b.WriteString(indent)
		b.WriteString("func ")
		b.WriteString(x.Name.Name)
		b.WriteByte('(')
		for i, p := range x.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
		}
		b.WriteString(") ")
		writeBlock(b, x.Body, depth)
		b.WriteByte('\n')

	case *ast.IfStmt:
		b.WriteString(indent)
		writeIf(b, x, depth)
		b.WriteByte('\n')

	case *ast.WhileStmt:
		b.WriteString(indent)
		b.WriteString("while ")
		writeExpr(b, x.Cond, 0)
		b.WriteByte(' ')
		writeBlock(b, x.Body, depth)
		b.WriteByte('\n')

	case *ast.ForStmt:
		b.WriteString(indent)
		b.WriteString("for ")
		b.WriteString(x.Target.Name)
		b.WriteString(" in ")
		writeExpr(b, x.Iter, 0)
		b.WriteByte(' ')
		writeBlock(b, x.Body, depth)
		b.WriteByte('\n')

	case *ast.ReturnStmt:
		b.WriteString(indent)
		b.WriteString("return")
		if x.Value != nil {
			b.WriteByte(' ')
			writeExpr(b, x.Value, 0)
		}
		b.WriteByte('\n')

	case *ast.BreakStmt:
		b.WriteString(indent)
		b.WriteString("break\n")

	case *ast.ContinueStmt:
		b.WriteString(indent)
		b.WriteString("continue\n")

	case *ast.Block:
		b.WriteString(indent)
		writeBlock(b, x, depth)
		b.WriteByte('\n')

	default:
		panic(fmt.Sprintf("printer: unknown statement %T", s))
	}
}

// writeIf prints an if statement with its else chain flattened onto the
// closing braces, "} else if cond {".
func writeIf(b *strings.Builder, s *ast.IfStmt, depth int) {
	b.WriteString("if ")
	writeExpr(b, s.Cond, 0)
	b.WriteByte(' ')
	writeBlock(b, s.Body, depth)
	switch e := s.Else.(type) {
	case nil:
	case *ast.IfStmt:
		b.WriteString(" else ")
		writeIf(b, e, depth)
	case *ast.Block:
		b.WriteString(" else ")
		writeBlock(b, e, depth)
	default:
		panic(fmt.Sprintf("printer: unknown else arm %T", s.Else))
	}
}

func writeBlock(b *strings.Builder, blk *ast.Block, depth int) {
	if blk == nil || len(blk.Stmts) == 0 {
		b.WriteString("{\n" + strings.Repeat("\t", depth) + "}")
		return
	}
	b.WriteString("{\n")
	for _, st := range blk.Stmts {
		writeStmt(b, st, depth+1)
	}
	b.WriteString(strings.Repeat("\t", depth) + "}")
}

// Precedence levels for parenthesization, loosest binding first.
const (
	precLowest = iota
	precOr
	precAnd
	precCmp
	precAdd
	precMul
	precUnary
)

func binaryPrec(op token.Kind) int {
	switch op {
	case token.OrOr:
		return precOr
	case token.AndAnd:
		return precAnd
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precCmp
	case token.Plus, token.Minus:
		return precAdd
	case token.Star, token.Slash, token.Percent:
		return precMul
	default:
		panic(fmt.Sprintf("printer: unknown binary operator %s", op))
	}
}

// writeExpr renders e, parenthesizing when its own binding is looser than
// the context requires.
func writeExpr(b *strings.Builder, e ast.Expr, ctxPrec int) {
	switch x := e.(type) {
	case *ast.Ident:
		b.WriteString(x.Name)

	case *ast.IntLit:
		b.WriteString(strconv.FormatInt(x.Value, 10))

	case *ast.FloatLit:
		b.WriteString(formatFloat(x.Value))

	case *ast.StringLit:
		b.WriteString(quote(x.Value))

	case *ast.BoolLit:
		if x.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case *ast.NullLit:
		b.WriteString("null")

	case *ast.ListLit:
		b.WriteByte('[')
		for i, el := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, el, 0)
		}
		b.WriteByte(']')

	case *ast.DictLit:
		b.WriteByte('{')
		for i, en := range x.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, en.Key, 0)
			b.WriteString(": ")
			writeExpr(b, en.Value, 0)
		}
		b.WriteByte('}')

	case *ast.AttrExpr:
		writeExpr(b, x.X, precUnary+1)
		b.WriteByte('.')
		b.WriteString(x.Name)

	case *ast.IndexExpr:
		writeExpr(b, x.X, precUnary+1)
		b.WriteByte('[')
		writeExpr(b, x.Index, 0)
		b.WriteByte(']')

	case *ast.SliceExpr:
		writeExpr(b, x.X, precUnary+1)
		b.WriteByte('[')
		if x.Low != nil {
			writeExpr(b, x.Low, 0)
		}
		b.WriteByte(':')
		if x.High != nil {
			writeExpr(b, x.High, 0)
		}
		b.WriteByte(']')

	case *ast.CallExpr:
		writeExpr(b, x.Fun, precUnary+1)
		b.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a, 0)
		}
		b.WriteByte(')')

	case *ast.UnaryExpr:
		if ctxPrec > precUnary {
			b.WriteByte('(')
			defer b.WriteByte(')')
		}
		b.WriteString(opText(x.Op))
		writeExpr(b, x.X, precUnary)

	case *ast.BinaryExpr:
		prec := binaryPrec(x.Op)
		if prec < ctxPrec {
			b.WriteByte('(')
			defer b.WriteByte(')')
		}
		writeExpr(b, x.X, prec)
		b.WriteString(" " + opText(x.Op) + " ")
		// Left associative: an equal-precedence right operand needs parens.
		writeExpr(b, x.Y, prec+1)

	default:
		panic(fmt.Sprintf("printer: unknown expression %T", e))
	}
}

func opText(op token.Kind) string {
	switch op {
	case token.Plus:
		return "+"
	case token.Minus:
		return "-"
	case token.Star:
		return "*"
	case token.Slash:
		return "/"
	case token.Percent:
		return "%"
	case token.EqEq:
		return "=="
	case token.BangEq:
		return "!="
	case token.Lt:
		return "<"
	case token.LtEq:
		return "<="
	case token.Gt:
		return ">"
	case token.GtEq:
		return ">="
	case token.AndAnd:
		return "&&"
	case token.OrOr:
		return "||"
	case token.Bang:
		return "!"
	default:
		panic(fmt.Sprintf("printer: unknown operator %s", op))
	}
}

// formatFloat keeps a decimal point so the literal relexes as a float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}
