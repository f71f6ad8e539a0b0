package ast

import "github.com/hindsightlab/hindsight/internal/token"

// Block is a brace-delimited statement list.
type Block struct {
	Lbrace token.Pos
	Stmts  []Stmt
	Rbrace token.Pos
}

// ExprStmt is an expression evaluated for its side effects, usually a call.
type ExprStmt struct {
	X Expr
}

// AssignStmt is target = value. Target is an assignable expression marked
// CtxWrite.
type AssignStmt struct {
	Target Expr
	Assign token.Pos
	Value  Expr
}

// AugAssignStmt is target op= value. Op holds the underlying arithmetic
// operator, not the compound token.
type AugAssignStmt struct {
	Target Expr
	Op     token.Kind
	OpPos  token.Pos
	Value  Expr
}

// FuncDecl binds a function literal to a name in the enclosing scope.
type FuncDecl struct {
	Func   token.Pos
	Name   *Ident
	Params []*Ident
	Body   *Block
}

// IfStmt is a conditional. Else is nil, a *Block for a plain else arm, or
// an *IfStmt for an else-if chain.
type IfStmt struct {
	If   token.Pos
	Cond Expr
	Body *Block
	Else Stmt
}

// WhileStmt loops while Cond evaluates truthy.
type WhileStmt struct {
	While token.Pos
	Cond  Expr
	Body  *Block
}

// ForStmt iterates Target over the elements of Iter.
type ForStmt struct {
	For    token.Pos
	Target *Ident
	Iter   Expr
	Body   *Block
}

// ReturnStmt exits the enclosing function. Value may be nil.
type ReturnStmt struct {
	Return token.Pos
	Value  Expr
}

// BreakStmt exits the innermost loop.
type BreakStmt struct {
	Tok token.Pos
}

// ContinueStmt advances the innermost loop.
type ContinueStmt struct {
	Tok token.Pos
}

func (s *Block) Pos() token.Pos         { return s.Lbrace }
func (s *ExprStmt) Pos() token.Pos      { return s.X.Pos() }
func (s *AssignStmt) Pos() token.Pos    { return s.Target.Pos() }
func (s *AugAssignStmt) Pos() token.Pos { return s.Target.Pos() }
func (s *FuncDecl) Pos() token.Pos      { return s.Func }
func (s *IfStmt) Pos() token.Pos        { return s.If }
func (s *WhileStmt) Pos() token.Pos     { return s.While }
func (s *ForStmt) Pos() token.Pos       { return s.For }
func (s *ReturnStmt) Pos() token.Pos    { return s.Return }
func (s *BreakStmt) Pos() token.Pos     { return s.Tok }
func (s *ContinueStmt) Pos() token.Pos  { return s.Tok }

func (*Block) stmt()         {}
func (*ExprStmt) stmt()      {}
func (*AssignStmt) stmt()    {}
func (*AugAssignStmt) stmt() {}
func (*FuncDecl) stmt()      {}
func (*IfStmt) stmt()        {}
func (*WhileStmt) stmt()     {}
func (*ForStmt) stmt()       {}
func (*ReturnStmt) stmt()    {}
func (*BreakStmt) stmt()     {}
func (*ContinueStmt) stmt()  {}
