package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/token"
)

func pos(line, col int) token.Pos {
	return token.Pos{Line: line, Col: col}
}

func TestIsAssignable(t *testing.T) {
	x := &Ident{Name: "x"}
	assert.True(t, IsAssignable(x))
	assert.True(t, IsAssignable(&AttrExpr{X: x, Name: "field"}))
	assert.True(t, IsAssignable(&IndexExpr{X: x, Index: &IntLit{Value: 0}}))
	assert.True(t, IsAssignable(&SliceExpr{X: x}))

	assert.False(t, IsAssignable(&IntLit{Value: 1}))
	assert.False(t, IsAssignable(&CallExpr{Fun: x}))
	assert.False(t, IsAssignable(&BinaryExpr{X: x, Op: token.Plus, Y: x}))
}

func TestSetCtx(t *testing.T) {
	id := &Ident{Name: "x"}
	require.True(t, SetCtx(id, CtxWrite))
	assert.Equal(t, CtxWrite, id.Ctx)

	attr := &AttrExpr{X: id, Name: "y"}
	require.True(t, SetCtx(attr, CtxWrite))
	assert.Equal(t, CtxWrite, attr.Ctx)

	assert.False(t, SetCtx(&IntLit{Value: 3}, CtxWrite))
}

func TestCtxString(t *testing.T) {
	assert.Equal(t, "read", CtxRead.String())
	assert.Equal(t, "write", CtxWrite.String())
}

func TestCloneExprIndependence(t *testing.T) {
	orig := &BinaryExpr{
		X:     &Ident{NamePos: pos(1, 1), Name: "x", Ctx: CtxRead},
		OpPos: pos(1, 3),
		Op:    token.Plus,
		Y: &IndexExpr{
			X:      &Ident{NamePos: pos(1, 5), Name: "items"},
			Index:  &IntLit{LitPos: pos(1, 11), Value: 2},
			Lbrack: pos(1, 10),
		},
	}

	clone := CloneExpr(orig).(*BinaryExpr)
	require.NotSame(t, orig, clone)

	// Flipping the context on the clone must not touch the original.
	SetCtx(clone.X, CtxWrite)
	assert.Equal(t, CtxRead, orig.X.(*Ident).Ctx)

	clone.Y.(*IndexExpr).Index.(*IntLit).Value = 99
	assert.Equal(t, int64(2), orig.Y.(*IndexExpr).Index.(*IntLit).Value)
}

func TestCloneExprNil(t *testing.T) {
	assert.Nil(t, CloneExpr(nil))
	s := CloneExpr(&SliceExpr{X: &Ident{Name: "xs"}}).(*SliceExpr)
	assert.Nil(t, s.Low)
	assert.Nil(t, s.High)
}

func TestCloneStmtIndependence(t *testing.T) {
	orig := &IfStmt{
		If:   pos(2, 1),
		Cond: &Ident{NamePos: pos(2, 4), Name: "flag"},
		Body: &Block{Stmts: []Stmt{
			&AssignStmt{
				Target: &Ident{NamePos: pos(3, 2), Name: "x", Ctx: CtxWrite},
				Value:  &IntLit{LitPos: pos(3, 6), Value: 1},
			},
		}},
		Else: &Block{Stmts: []Stmt{
			&ExprStmt{X: &CallExpr{Fun: &Ident{NamePos: pos(5, 2), Name: "print"}}},
		}},
	}

	clone := CloneStmt(orig).(*IfStmt)
	clone.Body.Stmts[0].(*AssignStmt).Value = &IntLit{Value: 42}
	assert.Equal(t, int64(1), orig.Body.Stmts[0].(*AssignStmt).Value.(*IntLit).Value)

	clone.Else.(*Block).Stmts = nil
	assert.Len(t, orig.Else.(*Block).Stmts, 1)
}

func TestScriptCloneIndependence(t *testing.T) {
	orig := &Script{
		Name: "demo.hsl",
		Stmts: []Stmt{
			&AssignStmt{
				Target: &Ident{NamePos: pos(1, 1), Name: "x", Ctx: CtxWrite},
				Value:  &IntLit{LitPos: pos(1, 5), Value: 10},
			},
		},
	}
	clone := orig.Clone()
	clone.Stmts[0].(*AssignStmt).Target.(*Ident).Name = "y"
	assert.Equal(t, "x", orig.Stmts[0].(*AssignStmt).Target.(*Ident).Name)
	assert.Equal(t, "demo.hsl", clone.Name)
}

func TestInspectPreorder(t *testing.T) {
	script := &Script{
		Stmts: []Stmt{
			&AssignStmt{
				Target: &Ident{Name: "sum", Ctx: CtxWrite},
				Value: &BinaryExpr{
					X:  &Ident{Name: "a"},
					Op: token.Plus,
					Y:  &Ident{Name: "b"},
				},
			},
		},
	}

	var names []string
	Inspect(script, func(n Node) bool {
		if id, ok := n.(*Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})
	assert.Equal(t, []string{"sum", "a", "b"}, names)
}

func TestInspectPrune(t *testing.T) {
	script := &Script{
		Stmts: []Stmt{
			&ExprStmt{X: &CallExpr{
				Fun:  &Ident{Name: "f"},
				Args: []Expr{&Ident{Name: "arg"}},
			}},
		},
	}

	var seen []string
	Inspect(script, func(n Node) bool {
		switch x := n.(type) {
		case *CallExpr:
			return false
		case *Ident:
			seen = append(seen, x.Name)
		}
		return true
	})
	assert.Empty(t, seen)
}

func TestNodePositions(t *testing.T) {
	attr := &AttrExpr{
		X:   &Ident{NamePos: pos(4, 3), Name: "p"},
		Dot: pos(4, 4),
	}
	assert.Equal(t, pos(4, 3), attr.Pos())

	ret := &ReturnStmt{Return: pos(9, 2)}
	assert.Equal(t, pos(9, 2), ret.Pos())

	empty := &Script{}
	assert.False(t, empty.Pos().IsValid())
}
