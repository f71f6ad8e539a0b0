package ast

// Inspect traverses the tree rooted at n in depth-first preorder, calling f
// for each node. If f returns false the children of that node are skipped.
// Nil nodes and nil optional children are not visited.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *Script:
		for _, st := range x.Stmts {
			Inspect(st, f)
		}
	case *Block:
		for _, st := range x.Stmts {
			Inspect(st, f)
		}
	case *ExprStmt:
		Inspect(x.X, f)
	case *AssignStmt:
		Inspect(x.Target, f)
		Inspect(x.Value, f)
	case *AugAssignStmt:
		Inspect(x.Target, f)
		Inspect(x.Value, f)
	case *FuncDecl:
		Inspect(x.Name, f)
		for _, p := range x.Params {
			Inspect(p, f)
		}
		Inspect(x.Body, f)
	case *IfStmt:
		Inspect(x.Cond, f)
		Inspect(x.Body, f)
		if x.Else != nil {
			Inspect(x.Else, f)
		}
	case *WhileStmt:
		Inspect(x.Cond, f)
		Inspect(x.Body, f)
	case *ForStmt:
		Inspect(x.Target, f)
		Inspect(x.Iter, f)
		Inspect(x.Body, f)
	case *ReturnStmt:
		if x.Value != nil {
			Inspect(x.Value, f)
		}
	case *BreakStmt, *ContinueStmt:
	case *Ident, *IntLit, *FloatLit, *StringLit, *BoolLit, *NullLit:
	case *ListLit:
		for _, el := range x.Elems {
			Inspect(el, f)
		}
	case *DictLit:
		for _, en := range x.Entries {
			Inspect(en.Key, f)
			Inspect(en.Value, f)
		}
	case *AttrExpr:
		Inspect(x.X, f)
	case *IndexExpr:
		Inspect(x.X, f)
		Inspect(x.Index, f)
	case *SliceExpr:
		Inspect(x.X, f)
		if x.Low != nil {
			Inspect(x.Low, f)
		}
		if x.High != nil {
			Inspect(x.High, f)
		}
	case *CallExpr:
		Inspect(x.Fun, f)
		for _, a := range x.Args {
			Inspect(a, f)
		}
	}
}
