package interp

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hindsightlab/hindsight/internal/ast"
)

// Loop and return signals travel as errors through the recursive walker
// and are intercepted by the enclosing loop or call.
var (
	errBreak    = errors.New("break")
	errContinue = errors.New("continue")
)

type returnSignal struct {
	value Value
}

func (*returnSignal) Error() string {
	return "return"
}

func (in *Interp) execStmt(s ast.Stmt) error {
	if err := in.step(s); err != nil {
		return err
	}

	switch x := s.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(x.X)
		return err

	case *ast.AssignStmt:
		v, err := in.evalExpr(x.Value)
		if err != nil {
			return err
		}
		return in.assign(x.Target, v)

	case *ast.AugAssignStmt:
		return in.execAugAssign(x)

	case *ast.FuncDecl:
		in.bindName(x.Name.Name, &Func{
			Name:   x.Name.Name,
			Params: paramNames(x.Params),
			Body:   x.Body,
		})
		return nil

	case *ast.IfStmt:
		cond, err := in.evalExpr(x.Cond)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return in.execBlock(x.Body)
		}
		if x.Else != nil {
			return in.execStmt(x.Else)
		}
		return nil

	case *ast.WhileStmt:
		return in.execWhile(x)

	case *ast.ForStmt:
		return in.execFor(x)

	case *ast.ReturnStmt:
		if len(in.frames) == 0 {
			return in.errf(ErrCodeLoopControl, x.Pos(), "return outside function")
		}
		var v Value = Null{}
		if x.Value != nil {
			var err error
			if v, err = in.evalExpr(x.Value); err != nil {
				return err
			}
		}
		return &returnSignal{value: v}

	case *ast.BreakStmt:
		if in.loopDepth == 0 {
			return in.errf(ErrCodeLoopControl, x.Pos(), "break outside loop")
		}
		return errBreak

	case *ast.ContinueStmt:
		if in.loopDepth == 0 {
			return in.errf(ErrCodeLoopControl, x.Pos(), "continue outside loop")
		}
		return errContinue

	case *ast.Block:
		return in.execBlock(x)

	default:
		panic(fmt.Sprintf("interp: unknown statement %T", s))
	}
}

// execBlock runs statements without opening a scope. Only function calls
// introduce new frames.
func (in *Interp) execBlock(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := in.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interp) execWhile(x *ast.WhileStmt) error {
	in.loopDepth++
	defer func() { in.loopDepth-- }()

	for {
		cond, err := in.evalExpr(x.Cond)
		if err != nil {
			return err
		}
		if !Truthy(cond) {
			return nil
		}
		if err := in.execBlock(x.Body); err != nil {
			if errors.Is(err, errBreak) {
				return nil
			}
			if errors.Is(err, errContinue) {
				continue
			}
			return err
		}
	}
}

func (in *Interp) execFor(x *ast.ForStmt) error {
	iter, err := in.evalExpr(x.Iter)
	if err != nil {
		return err
	}
	elems, err := in.iterate(iter, x.Iter)
	if err != nil {
		return err
	}

	in.loopDepth++
	defer func() { in.loopDepth-- }()

	for _, el := range elems {
		in.bindName(x.Target.Name, el)
		if err := in.execBlock(x.Body); err != nil {
			if errors.Is(err, errBreak) {
				return nil
			}
			if errors.Is(err, errContinue) {
				continue
			}
			return err
		}
	}
	return nil
}

// iterate materializes the iteration sequence: list elements in order,
// string characters, dict keys in sorted order for determinism.
func (in *Interp) iterate(v Value, at ast.Expr) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		// Snapshot so mutation inside the body cannot shift the walk.
		elems := make([]Value, len(x.Elems))
		copy(elems, x.Elems)
		return elems, nil
	case String:
		elems := make([]Value, 0, len(x))
		for _, r := range string(x) {
			elems = append(elems, String(r))
		}
		return elems, nil
	case *Dict:
		keys := sortedKeys(x.Entries)
		elems := make([]Value, len(keys))
		for i, k := range keys {
			elems[i] = String(k)
		}
		return elems, nil
	default:
		return nil, in.errf(ErrCodeNotIterable, at.Pos(), "cannot iterate over %s", TypeName(v))
	}
}

func (in *Interp) execAugAssign(x *ast.AugAssignStmt) error {
	// Read the current value through a read-context view of the target,
	// apply the operator, then write back.
	read := ast.CloneExpr(x.Target)
	ast.SetCtx(read, ast.CtxRead)
	cur, err := in.evalExpr(read)
	if err != nil {
		return err
	}
	rhs, err := in.evalExpr(x.Value)
	if err != nil {
		return err
	}
	res, err := in.binaryOp(x.Op, cur, rhs, x.OpPos)
	if err != nil {
		return err
	}
	return in.assign(x.Target, res)
}

// assign writes v through an assignment target. The parser guarantees
// the target is assignable and marked write context.
func (in *Interp) assign(target ast.Expr, v Value) error {
	switch t := target.(type) {
	case *ast.Ident:
		in.bindName(t.Name, v)
		return nil

	case *ast.AttrExpr:
		base, err := in.evalExpr(t.X)
		if err != nil {
			return err
		}
		obj, ok := base.(*Object)
		if !ok {
			return in.errf(ErrCodeTypeMismatch, t.Pos(), "cannot set attribute %q on %s", t.Name, TypeName(base))
		}
		obj.Fields[t.Name] = v
		return nil

	case *ast.IndexExpr:
		base, err := in.evalExpr(t.X)
		if err != nil {
			return err
		}
		idx, err := in.evalExpr(t.Index)
		if err != nil {
			return err
		}
		return in.setIndex(base, idx, v, t)

	case *ast.SliceExpr:
		base, err := in.evalExpr(t.X)
		if err != nil {
			return err
		}
		return in.setSlice(base, t, v)

	default:
		panic(fmt.Sprintf("interp: unassignable target %T", target))
	}
}

func (in *Interp) setIndex(base, idx, v Value, t *ast.IndexExpr) error {
	switch c := base.(type) {
	case *List:
		i, ok := idx.(Int)
		if !ok {
			return in.errf(ErrCodeTypeMismatch, t.Pos(), "list index must be int, got %s", TypeName(idx))
		}
		n, err := in.resolveIndex(int(i), len(c.Elems), t)
		if err != nil {
			return err
		}
		c.Elems[n] = v
		return nil
	case *Dict:
		k, ok := idx.(String)
		if !ok {
			return in.errf(ErrCodeTypeMismatch, t.Pos(), "dict key must be string, got %s", TypeName(idx))
		}
		c.Entries[string(k)] = v
		return nil
	default:
		return in.errf(ErrCodeTypeMismatch, t.Pos(), "cannot index into %s", TypeName(base))
	}
}

// setSlice splices a list into a list range, growing or shrinking the
// target in place.
func (in *Interp) setSlice(base Value, t *ast.SliceExpr, v Value) error {
	list, ok := base.(*List)
	if !ok {
		return in.errf(ErrCodeTypeMismatch, t.Pos(), "cannot slice-assign into %s", TypeName(base))
	}
	repl, ok := v.(*List)
	if !ok {
		return in.errf(ErrCodeTypeMismatch, t.Pos(), "slice assignment needs a list value, got %s", TypeName(v))
	}
	low, high, err := in.sliceBounds(t, len(list.Elems))
	if err != nil {
		return err
	}

	out := make([]Value, 0, len(list.Elems)-(high-low)+len(repl.Elems))
	out = append(out, list.Elems[:low]...)
	out = append(out, repl.Elems...)
	out = append(out, list.Elems[high:]...)
	list.Elems = out
	return nil
}

// resolveIndex maps negative indexes from the end and range-checks.
func (in *Interp) resolveIndex(i, length int, at ast.Node) (int, error) {
	n := i
	if n < 0 {
		n += length
	}
	if n < 0 || n >= length {
		return 0, in.errf(ErrCodeIndexOutOfRange, at.Pos(), "index %d out of range for length %d", i, length)
	}
	return n, nil
}

// sliceBounds evaluates the optional bounds of a slice expression and
// clamps them into [0, length].
func (in *Interp) sliceBounds(t *ast.SliceExpr, length int) (int, int, error) {
	low := 0
	high := length

	if t.Low != nil {
		v, err := in.evalExpr(t.Low)
		if err != nil {
			return 0, 0, err
		}
		i, ok := v.(Int)
		if !ok {
			return 0, 0, in.errf(ErrCodeTypeMismatch, t.Pos(), "slice bound must be int, got %s", TypeName(v))
		}
		low = clampBound(int(i), length)
	}
	if t.High != nil {
		v, err := in.evalExpr(t.High)
		if err != nil {
			return 0, 0, err
		}
		i, ok := v.(Int)
		if !ok {
			return 0, 0, in.errf(ErrCodeTypeMismatch, t.Pos(), "slice bound must be int, got %s", TypeName(v))
		}
		high = clampBound(int(i), length)
	}
	if high < low {
		high = low
	}
	return low, high, nil
}

func clampBound(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func paramNames(params []*ast.Ident) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
