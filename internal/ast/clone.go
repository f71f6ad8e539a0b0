package ast

import "fmt"

// CloneExpr returns a deep copy of e. Instrumentation clones fragments of
// the original tree before grafting them into recording statements, so the
// copy shares no nodes with the source. Cloning nil returns nil.
func CloneExpr(e Expr) Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *Ident:
		c := *x
		return &c
	case *IntLit:
		c := *x
		return &c
	case *FloatLit:
		c := *x
		return &c
	case *StringLit:
		c := *x
		return &c
	case *BoolLit:
		c := *x
		return &c
	case *NullLit:
		c := *x
		return &c
	case *ListLit:
		c := &ListLit{Lbrack: x.Lbrack}
		if x.Elems != nil {
			c.Elems = make([]Expr, len(x.Elems))
			for i, el := range x.Elems {
				c.Elems[i] = CloneExpr(el)
			}
		}
		return c
	case *DictLit:
		c := &DictLit{Lbrace: x.Lbrace}
		if x.Entries != nil {
			c.Entries = make([]DictEntry, len(x.Entries))
			for i, en := range x.Entries {
				c.Entries[i] = DictEntry{Key: CloneExpr(en.Key), Value: CloneExpr(en.Value)}
			}
		}
		return c
	case *AttrExpr:
		return &AttrExpr{X: CloneExpr(x.X), Dot: x.Dot, Name: x.Name, Ctx: x.Ctx}
	case *IndexExpr:
		return &IndexExpr{X: CloneExpr(x.X), Lbrack: x.Lbrack, Index: CloneExpr(x.Index), Ctx: x.Ctx}
	case *SliceExpr:
		return &SliceExpr{X: CloneExpr(x.X), Lbrack: x.Lbrack, Low: CloneExpr(x.Low), High: CloneExpr(x.High), Ctx: x.Ctx}
	case *CallExpr:
		c := &CallExpr{Fun: CloneExpr(x.Fun), Lparen: x.Lparen}
		if x.Args != nil {
			c.Args = make([]Expr, len(x.Args))
			for i, a := range x.Args {
				c.Args[i] = CloneExpr(a)
			}
		}
		return c
	case *UnaryExpr:
		return &UnaryExpr{OpPos: x.OpPos, Op: x.Op, X: CloneExpr(x.X)}
	case *BinaryExpr:
		return &BinaryExpr{X: CloneExpr(x.X), OpPos: x.OpPos, Op: x.Op, Y: CloneExpr(x.Y)}
	default:
		panic(fmt.Sprintf("ast: unknown expression %T", e))
	}
}

// CloneStmt returns a deep copy of s. Cloning nil returns nil.
func CloneStmt(s Stmt) Stmt {
	switch x := s.(type) {
	case nil:
		return nil
	case *Block:
		return cloneBlock(x)
	case *ExprStmt:
		return &ExprStmt{X: CloneExpr(x.X)}
	case *AssignStmt:
		return &AssignStmt{Target: CloneExpr(x.Target), Assign: x.Assign, Value: CloneExpr(x.Value)}
	case *AugAssignStmt:
		return &AugAssignStmt{Target: CloneExpr(x.Target), Op: x.Op, OpPos: x.OpPos, Value: CloneExpr(x.Value)}
	case *FuncDecl:
		c := &FuncDecl{Func: x.Func, Name: cloneIdent(x.Name), Body: cloneBlock(x.Body)}
		if x.Params != nil {
			c.Params = make([]*Ident, len(x.Params))
			for i, p := range x.Params {
				c.Params[i] = cloneIdent(p)
			}
		}
		return c
	case *IfStmt:
		return &IfStmt{If: x.If, Cond: CloneExpr(x.Cond), Body: cloneBlock(x.Body), Else: CloneStmt(x.Else)}
	case *WhileStmt:
		return &WhileStmt{While: x.While, Cond: CloneExpr(x.Cond), Body: cloneBlock(x.Body)}
	case *ForStmt:
		return &ForStmt{For: x.For, Target: cloneIdent(x.Target), Iter: CloneExpr(x.Iter), Body: cloneBlock(x.Body)}
	case *ReturnStmt:
		return &ReturnStmt{Return: x.Return, Value: CloneExpr(x.Value)}
	case *BreakStmt:
		c := *x
		return &c
	case *ContinueStmt:
		c := *x
		return &c
	default:
		panic(fmt.Sprintf("ast: unknown statement %T", s))
	}
}

// Clone returns a deep copy of the script.
func (s *Script) Clone() *Script {
	c := &Script{Name: s.Name}
	if s.Stmts != nil {
		c.Stmts = make([]Stmt, len(s.Stmts))
		for i, st := range s.Stmts {
			c.Stmts[i] = CloneStmt(st)
		}
	}
	return c
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	c := &Block{Lbrace: b.Lbrace, Rbrace: b.Rbrace}
	if b.Stmts != nil {
		c.Stmts = make([]Stmt, len(b.Stmts))
		for i, st := range b.Stmts {
			c.Stmts[i] = CloneStmt(st)
		}
	}
	return c
}

func cloneIdent(id *Ident) *Ident {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
