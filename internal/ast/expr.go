package ast

import "github.com/hindsightlab/hindsight/internal/token"

// Ident is a bare name.
type Ident struct {
	NamePos token.Pos
	Name    string
	Ctx     Ctx
}

// IntLit is an integer literal.
type IntLit struct {
	LitPos token.Pos
	Value  int64
}

// FloatLit is a floating point literal.
type FloatLit struct {
	LitPos token.Pos
	Value  float64
}

// StringLit is a double-quoted string literal. Value holds the unescaped
// contents.
type StringLit struct {
	LitPos token.Pos
	Value  string
}

// BoolLit is a true or false literal.
type BoolLit struct {
	LitPos token.Pos
	Value  bool
}

// NullLit is the null literal.
type NullLit struct {
	LitPos token.Pos
}

// ListLit is a bracketed list literal.
type ListLit struct {
	Lbrack token.Pos
	Elems  []Expr
}

// DictEntry is one key-value pair of a DictLit.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLit is a braced dictionary literal.
type DictLit struct {
	Lbrace  token.Pos
	Entries []DictEntry
}

// AttrExpr is attribute access, x.name.
type AttrExpr struct {
	X    Expr
	Dot  token.Pos
	Name string
	Ctx  Ctx
}

// IndexExpr is subscript access, x[index].
type IndexExpr struct {
	X      Expr
	Lbrack token.Pos
	Index  Expr
	Ctx    Ctx
}

// SliceExpr is range subscript access, x[low:high]. Low and High may each
// be nil for an open bound.
type SliceExpr struct {
	X      Expr
	Lbrack token.Pos
	Low    Expr
	High   Expr
	Ctx    Ctx
}

// CallExpr is a function or method invocation.
type CallExpr struct {
	Fun    Expr
	Lparen token.Pos
	Args   []Expr
}

// UnaryExpr is a prefix operator application. Op is one of Minus or Bang.
type UnaryExpr struct {
	OpPos token.Pos
	Op    token.Kind
	X     Expr
}

// BinaryExpr is an infix operator application.
type BinaryExpr struct {
	X     Expr
	OpPos token.Pos
	Op    token.Kind
	Y     Expr
}

func (e *Ident) Pos() token.Pos      { return e.NamePos }
func (e *IntLit) Pos() token.Pos     { return e.LitPos }
func (e *FloatLit) Pos() token.Pos   { return e.LitPos }
func (e *StringLit) Pos() token.Pos  { return e.LitPos }
func (e *BoolLit) Pos() token.Pos    { return e.LitPos }
func (e *NullLit) Pos() token.Pos    { return e.LitPos }
func (e *ListLit) Pos() token.Pos    { return e.Lbrack }
func (e *DictLit) Pos() token.Pos    { return e.Lbrace }
func (e *AttrExpr) Pos() token.Pos   { return e.X.Pos() }
func (e *IndexExpr) Pos() token.Pos  { return e.X.Pos() }
func (e *SliceExpr) Pos() token.Pos  { return e.X.Pos() }
func (e *CallExpr) Pos() token.Pos   { return e.Fun.Pos() }
func (e *UnaryExpr) Pos() token.Pos  { return e.OpPos }
func (e *BinaryExpr) Pos() token.Pos { return e.X.Pos() }

func (*Ident) expr()      {}
func (*IntLit) expr()     {}
func (*FloatLit) expr()   {}
func (*StringLit) expr()  {}
func (*BoolLit) expr()    {}
func (*NullLit) expr()    {}
func (*ListLit) expr()    {}
func (*DictLit) expr()    {}
func (*AttrExpr) expr()   {}
func (*IndexExpr) expr()  {}
func (*SliceExpr) expr()  {}
func (*CallExpr) expr()   {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
