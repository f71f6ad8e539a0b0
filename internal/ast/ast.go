// Package ast defines the syntax tree for the scripting language.
//
// Nodes form two sealed unions, Stmt and Expr, closed by unexported marker
// methods in the manner of the event value union. Assignable expressions
// (Ident, AttrExpr, IndexExpr, SliceExpr) carry a Ctx mark telling whether
// the node reads a value or names an assignment target; the parser sets
// CtxWrite on targets and CtxRead everywhere else.
//
// The tree is a plain pointer structure so that instrumentation can clone
// fragments and graft them into new statements without an arena or node-id
// indirection.
package ast

import "github.com/hindsightlab/hindsight/internal/token"

// Node is the interface implemented by every syntax tree node.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() token.Pos
}

// Stmt is the interface implemented by all statement nodes.
type Stmt interface {
	Node
	stmt()
}

// Expr is the interface implemented by all expression nodes.
type Expr interface {
	Node
	expr()
}

// Ctx distinguishes how an assignable expression is used.
type Ctx uint8

const (
	// CtxRead marks an expression evaluated for its value.
	CtxRead Ctx = iota
	// CtxWrite marks an expression naming an assignment target.
	CtxWrite
)

func (c Ctx) String() string {
	if c == CtxWrite {
		return "write"
	}
	return "read"
}

// Script is the root of a parsed source file.
type Script struct {
	// Name is the source file name used in diagnostics and recorded events.
	Name  string
	Stmts []Stmt
}

// Pos returns the position of the first statement, or the zero position
// for an empty script.
func (s *Script) Pos() token.Pos {
	if len(s.Stmts) == 0 {
		return token.Pos{}
	}
	return s.Stmts[0].Pos()
}

// IsAssignable reports whether e can name an assignment target.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *Ident, *AttrExpr, *IndexExpr, *SliceExpr:
		return true
	default:
		return false
	}
}

// SetCtx sets the usage context on an assignable expression and reports
// whether e was assignable. Non-assignable expressions are left untouched.
func SetCtx(e Expr, c Ctx) bool {
	switch x := e.(type) {
	case *Ident:
		x.Ctx = c
	case *AttrExpr:
		x.Ctx = c
	case *IndexExpr:
		x.Ctx = c
	case *SliceExpr:
		x.Ctx = c
	default:
		return false
	}
	return true
}
