// Package rewrite instruments scripts with recorder calls.
//
// Instrument walks a parsed script and grafts a __trace__.record(...) call
// next to every observable statement: after each assignment, before each
// return, and as the first statement of every function body, branch arm and
// loop body. Placing arm records first means one branch event fires per
// conditional evaluation and one iteration event per loop pass, which is
// the shape the question engine scans for.
//
// The transformation is tree to tree. Input nodes are never mutated; every
// fragment grafted into a recorder call is deep-copied and flipped to read
// context first, because the interpreter refuses to evaluate a write-marked
// expression in read position.
package rewrite

import (
	"fmt"
	"sort"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/printer"
)

const (
	// TraceBinding is the name the instrumented script binds its
	// recorder handle to. The recorder drops bindings with this
	// prefix from snapshots, so the handle never shadows user state.
	TraceBinding = "__trace__"

	// RecorderFactory is the builtin the prologue calls to obtain the
	// handle. The driver injects it before running instrumented code.
	RecorderFactory = "trace_recorder"

	// MainFlag is the conventional guard binding scripts test before
	// running their entry code. The driver binds it to true.
	MainFlag = "__main__"
)

// Instrument returns an instrumented copy of script and the manifest of
// injected points. Sites are numbered from 1 in visit order. The returned
// tree shares no nodes with the input.
func Instrument(script *ast.Script) (*ast.Script, []Point) {
	file := script.Name
	if file == "" {
		file = event.UnnamedFile
	}
	ins := &instrumenter{file: file, points: []Point{}}

	out := &ast.Script{Name: script.Name}
	out.Stmts = append(out.Stmts, prologue())
	for _, st := range script.Stmts {
		out.Stmts = append(out.Stmts, ins.stmt(st)...)
	}
	return out, ins.points
}

// prologue builds the __trace__ = trace_recorder() binding prepended to
// every instrumented script. It is scaffolding, not a user statement, so
// it gets no site and no record call.
func prologue() ast.Stmt {
	return &ast.AssignStmt{
		Target: &ast.Ident{Name: TraceBinding, Ctx: ast.CtxWrite},
		Value:  &ast.CallExpr{Fun: &ast.Ident{Name: RecorderFactory}},
	}
}

type instrumenter struct {
	file     string
	nextSite int64
	points   []Point

	// funcs is the stack of enclosing function names, for attributing
	// return events. Empty at module level.
	funcs []string
}

// stmt returns the instrumented replacement for s: the original statement
// (cloned) plus any recorder calls, in execution order.
func (ins *instrumenter) stmt(s ast.Stmt) []ast.Stmt {
	switch x := s.(type) {
	case *ast.AssignStmt:
		return ins.assign(x)
	case *ast.AugAssignStmt:
		return ins.augAssign(x)
	case *ast.FuncDecl:
		return []ast.Stmt{ins.funcDecl(x)}
	case *ast.ReturnStmt:
		return ins.returnStmt(x)
	case *ast.IfStmt:
		return []ast.Stmt{ins.ifStmt(x, event.DecisionThen)}
	case *ast.WhileStmt:
		return []ast.Stmt{ins.whileStmt(x)}
	case *ast.ForStmt:
		return []ast.Stmt{ins.forStmt(x)}
	default:
		// Expression statements, break and continue carry no binding
		// or control decision worth a record of their own.
		return []ast.Stmt{ast.CloneStmt(s)}
	}
}

// assign keeps the assignment and appends a record call that re-reads the
// whole target, so the event observes the value actually stored.
func (ins *instrumenter) assign(x *ast.AssignStmt) []ast.Stmt {
	line := x.Pos().Line
	var rec ast.Stmt
	switch t := x.Target.(type) {
	case *ast.Ident:
		rec = ins.record(line, event.KindAssign,
			pair{event.KeyVarName, stringLit(t.Name)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, depsList(readNames(x.Value))},
		)
	case *ast.AttrExpr:
		rec = ins.record(line, event.KindAttributeAssign,
			pair{event.KeyObjAttr, stringLit(printer.Expr(t))},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, depsList(readNames(x.Value, x.Target))},
		)
	case *ast.IndexExpr:
		rec = ins.record(line, event.KindIndexAssign,
			pair{event.KeyContainer, stringLit(printer.Expr(t.X))},
			pair{event.KeyIndex, normalize(t.Index)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, depsList(readNames(x.Value, x.Target))},
		)
	case *ast.SliceExpr:
		rec = ins.record(line, event.KindSliceAssign,
			pair{event.KeyContainer, stringLit(printer.Expr(t.X))},
			pair{event.KeyLower, boundOrNull(t.Low)},
			pair{event.KeyUpper, boundOrNull(t.High)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, depsList(readNames(x.Value, x.Target))},
		)
	default:
		panic(fmt.Sprintf("rewrite: unassignable target %T", x.Target))
	}
	return []ast.Stmt{ast.CloneStmt(x), rec}
}

// augAssign mirrors assign but reports a single augmented-assign kind for
// every target shape. The target is read before it is written, so its own
// names join the dependency set.
func (ins *instrumenter) augAssign(x *ast.AugAssignStmt) []ast.Stmt {
	line := x.Pos().Line
	deps := depsList(readNames(x.Value, x.Target))
	var rec ast.Stmt
	switch t := x.Target.(type) {
	case *ast.Ident:
		rec = ins.record(line, event.KindAugmentedAssign,
			pair{event.KeyVarName, stringLit(t.Name)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, deps},
		)
	case *ast.AttrExpr:
		rec = ins.record(line, event.KindAugmentedAssign,
			pair{event.KeyObjAttr, stringLit(printer.Expr(t))},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, deps},
		)
	case *ast.IndexExpr:
		rec = ins.record(line, event.KindAugmentedAssign,
			pair{event.KeyContainer, stringLit(printer.Expr(t.X))},
			pair{event.KeyIndex, normalize(t.Index)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, deps},
		)
	case *ast.SliceExpr:
		rec = ins.record(line, event.KindAugmentedAssign,
			pair{event.KeyContainer, stringLit(printer.Expr(t.X))},
			pair{event.KeyLower, boundOrNull(t.Low)},
			pair{event.KeyUpper, boundOrNull(t.High)},
			pair{event.KeyValue, normalize(x.Target)},
			pair{event.KeyDependsOn, deps},
		)
	default:
		panic(fmt.Sprintf("rewrite: unassignable target %T", x.Target))
	}
	return []ast.Stmt{ast.CloneStmt(x), rec}
}

// funcDecl rebuilds the function with a function-entry record as its first
// body statement. The args payload re-reads each formal, so the event
// snapshots the values the call actually bound.
func (ins *instrumenter) funcDecl(x *ast.FuncDecl) ast.Stmt {
	out := &ast.FuncDecl{Func: x.Func, Name: ast.CloneExpr(x.Name).(*ast.Ident)}
	if x.Params != nil {
		out.Params = make([]*ast.Ident, len(x.Params))
		for i, p := range x.Params {
			out.Params[i] = ast.CloneExpr(p).(*ast.Ident)
		}
	}

	argElems := make([]ast.Expr, len(x.Params))
	for i, p := range x.Params {
		argElems[i] = &ast.Ident{Name: p.Name}
	}
	rec := ins.record(x.Func.Line, event.KindFunctionEntry,
		pair{event.KeyFuncName, stringLit(x.Name.Name)},
		pair{event.KeyArgs, &ast.ListLit{Elems: argElems}},
	)

	ins.funcs = append(ins.funcs, x.Name.Name)
	out.Body = ins.blockWith(x.Body, rec)
	ins.funcs = ins.funcs[:len(ins.funcs)-1]
	return out
}

// returnStmt inserts the record before the return, while the frame is
// still live. A bare return records a null value.
func (ins *instrumenter) returnStmt(x *ast.ReturnStmt) []ast.Stmt {
	value := ast.Expr(&ast.NullLit{})
	if x.Value != nil {
		value = normalize(x.Value)
	}
	rec := ins.record(x.Return.Line, event.KindReturn,
		pair{event.KeyFuncName, stringLit(ins.enclosingFunc())},
		pair{event.KeyValue, value},
	)
	return []ast.Stmt{rec, ast.CloneStmt(x)}
}

func (ins *instrumenter) enclosingFunc() string {
	if len(ins.funcs) == 0 {
		return ""
	}
	return ins.funcs[len(ins.funcs)-1]
}

// ifStmt places one branch record at the head of every arm, all carrying
// the governing condition. An if without an else gets a synthesized else
// block holding only the implicit-skip record, so the trace shows the
// not-taken evaluation too. A chained alternative (else holding a single
// if) recurses with the elif tag.
func (ins *instrumenter) ifStmt(x *ast.IfStmt, decision string) *ast.IfStmt {
	out := &ast.IfStmt{If: x.If, Cond: ast.CloneExpr(x.Cond)}
	out.Body = ins.blockWith(x.Body, ins.branchRecord(x, decision))
	switch e := x.Else.(type) {
	case nil:
		out.Else = &ast.Block{Stmts: []ast.Stmt{ins.branchRecord(x, event.DecisionSkip)}}
	case *ast.Block:
		out.Else = ins.blockWith(e, ins.branchRecord(x, event.DecisionElse))
	case *ast.IfStmt:
		out.Else = ins.ifStmt(e, event.DecisionElif)
	default:
		panic(fmt.Sprintf("rewrite: unknown else arm %T", x.Else))
	}
	return out
}

// branchRecord builds one branch record for an arm of x. The result clone
// re-evaluates the condition inside the arm, where its outcome is already
// decided, so the recorded boolean matches the decision taken.
func (ins *instrumenter) branchRecord(x *ast.IfStmt, decision string) ast.Stmt {
	return ins.record(x.If.Line, event.KindBranch,
		pair{event.KeyTest, stringLit(printer.Expr(x.Cond))},
		pair{event.KeyResult, normalize(x.Cond)},
		pair{event.KeyDecision, stringLit(decision)},
		pair{event.KeyDependsOn, depsList(readNames(x.Cond))},
	)
}

// whileStmt records the condition once per iteration, first in the body.
func (ins *instrumenter) whileStmt(x *ast.WhileStmt) *ast.WhileStmt {
	out := &ast.WhileStmt{While: x.While, Cond: ast.CloneExpr(x.Cond)}
	rec := ins.record(x.While.Line, event.KindWhileCondition,
		pair{event.KeyTest, stringLit(printer.Expr(x.Cond))},
		pair{event.KeyResult, normalize(x.Cond)},
		pair{event.KeyDependsOn, depsList(readNames(x.Cond))},
	)
	out.Body = ins.blockWith(x.Body, rec)
	return out
}

// forStmt records the loop variable's fresh binding once per iteration.
func (ins *instrumenter) forStmt(x *ast.ForStmt) *ast.ForStmt {
	out := &ast.ForStmt{
		For:    x.For,
		Target: ast.CloneExpr(x.Target).(*ast.Ident),
		Iter:   ast.CloneExpr(x.Iter),
	}
	rec := ins.record(x.For.Line, event.KindLoopIteration,
		pair{event.KeyTarget, stringLit(x.Target.Name)},
		pair{event.KeyIterValue, &ast.Ident{Name: x.Target.Name}},
	)
	out.Body = ins.blockWith(x.Body, rec)
	return out
}

// blockWith instruments b's statements and prepends first.
func (ins *instrumenter) blockWith(b *ast.Block, first ast.Stmt) *ast.Block {
	out := &ast.Block{Lbrace: b.Lbrace, Rbrace: b.Rbrace}
	out.Stmts = append(out.Stmts, first)
	for _, st := range b.Stmts {
		out.Stmts = append(out.Stmts, ins.stmt(st)...)
	}
	return out
}

// pair is one payload key with the expression that computes its value at
// record time.
type pair struct {
	key   string
	value ast.Expr
}

// record allocates the next site, appends it to the manifest and builds
// the __trace__.record(site, file, line, kind, key, value, ...) call.
func (ins *instrumenter) record(line int, kind event.Kind, pairs ...pair) ast.Stmt {
	ins.nextSite++
	site := ins.nextSite
	ins.points = append(ins.points, Point{Site: site, File: ins.file, Line: line, Kind: kind})

	args := make([]ast.Expr, 0, 4+2*len(pairs))
	args = append(args,
		&ast.IntLit{Value: site},
		stringLit(ins.file),
		&ast.IntLit{Value: int64(line)},
		stringLit(string(kind)),
	)
	for _, p := range pairs {
		args = append(args, stringLit(p.key), p.value)
	}
	return &ast.ExprStmt{X: &ast.CallExpr{
		Fun:  &ast.AttrExpr{X: &ast.Ident{Name: TraceBinding}, Name: "record"},
		Args: args,
	}}
}

// normalize deep-copies e and flips every context mark to read, making the
// fragment safe to evaluate inside a recorder call.
func normalize(e ast.Expr) ast.Expr {
	c := ast.CloneExpr(e)
	ast.Inspect(c, func(n ast.Node) bool {
		if x, ok := n.(ast.Expr); ok {
			ast.SetCtx(x, ast.CtxRead)
		}
		return true
	})
	return c
}

// boundOrNull normalizes a slice bound, substituting null for an omitted
// one.
func boundOrNull(e ast.Expr) ast.Expr {
	if e == nil {
		return &ast.NullLit{}
	}
	return normalize(e)
}

// readNames collects every identifier mentioned in the given expressions,
// deduplicated and sorted. Callee names count: a value produced through
// f(x) depends on what f is bound to as much as on x. Nil expressions are
// skipped.
func readNames(exprs ...ast.Expr) []string {
	seen := make(map[string]bool)
	for _, e := range exprs {
		if e == nil {
			continue
		}
		ast.Inspect(e, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				seen[id.Name] = true
			}
			return true
		})
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// depsList renders a dependency name set as a list literal for the
// depends_on payload field.
func depsList(names []string) ast.Expr {
	elems := make([]ast.Expr, len(names))
	for i, n := range names {
		elems[i] = stringLit(n)
	}
	return &ast.ListLit{Elems: elems}
}

func stringLit(s string) ast.Expr {
	return &ast.StringLit{Value: s}
}
