package interp

import (
	"errors"
	"fmt"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/token"
)

func (in *Interp) evalExpr(e ast.Expr) (Value, error) {
	switch x := e.(type) {
	case *ast.Ident:
		if x.Ctx == ast.CtxWrite {
			return nil, in.errf(ErrCodeInvalidContext, x.Pos(), "write-context name %q evaluated as a read", x.Name)
		}
		v, ok := in.lookup(x.Name)
		if !ok {
			return nil, in.errf(ErrCodeUndefinedName, x.Pos(), "name %q is not defined", x.Name)
		}
		return v, nil

	case *ast.IntLit:
		return Int(x.Value), nil

	case *ast.FloatLit:
		return Float(x.Value), nil

	case *ast.StringLit:
		return String(x.Value), nil

	case *ast.BoolLit:
		return Bool(x.Value), nil

	case *ast.NullLit:
		return Null{}, nil

	case *ast.ListLit:
		elems := make([]Value, len(x.Elems))
		for i, el := range x.Elems {
			v, err := in.evalExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &List{Elems: elems}, nil

	case *ast.DictLit:
		d := NewDict()
		for _, en := range x.Entries {
			kv, err := in.evalExpr(en.Key)
			if err != nil {
				return nil, err
			}
			key, ok := kv.(String)
			if !ok {
				return nil, in.errf(ErrCodeTypeMismatch, en.Key.Pos(), "dict key must be string, got %s", TypeName(kv))
			}
			vv, err := in.evalExpr(en.Value)
			if err != nil {
				return nil, err
			}
			d.Entries[string(key)] = vv
		}
		return d, nil

	case *ast.AttrExpr:
		return in.evalAttr(x)

	case *ast.IndexExpr:
		return in.evalIndex(x)

	case *ast.SliceExpr:
		return in.evalSlice(x)

	case *ast.CallExpr:
		return in.evalCall(x)

	case *ast.UnaryExpr:
		return in.evalUnary(x)

	case *ast.BinaryExpr:
		return in.evalBinary(x)

	default:
		panic(fmt.Sprintf("interp: unknown expression %T", e))
	}
}

func (in *Interp) evalAttr(x *ast.AttrExpr) (Value, error) {
	if x.Ctx == ast.CtxWrite {
		return nil, in.errf(ErrCodeInvalidContext, x.Pos(), "write-context attribute %q evaluated as a read", x.Name)
	}
	base, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case *Object:
		v, ok := b.Fields[x.Name]
		if !ok {
			return nil, in.errf(ErrCodeAttrNotFound, x.Pos(), "%s has no attribute %q", b.TypeName, x.Name)
		}
		return v, nil
	case *Handle:
		m, ok := b.method(x.Name)
		if !ok {
			return nil, in.errf(ErrCodeAttrNotFound, x.Pos(), "recorder has no attribute %q", x.Name)
		}
		return m, nil
	default:
		return nil, in.errf(ErrCodeAttrNotFound, x.Pos(), "%s has no attribute %q", TypeName(base), x.Name)
	}
}

func (in *Interp) evalIndex(x *ast.IndexExpr) (Value, error) {
	if x.Ctx == ast.CtxWrite {
		return nil, in.errf(ErrCodeInvalidContext, x.Pos(), "write-context subscript evaluated as a read")
	}
	base, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	idx, err := in.evalExpr(x.Index)
	if err != nil {
		return nil, err
	}

	switch c := base.(type) {
	case *List:
		i, ok := idx.(Int)
		if !ok {
			return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "list index must be int, got %s", TypeName(idx))
		}
		n, err := in.resolveIndex(int(i), len(c.Elems), x)
		if err != nil {
			return nil, err
		}
		return c.Elems[n], nil
	case *Dict:
		k, ok := idx.(String)
		if !ok {
			return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "dict key must be string, got %s", TypeName(idx))
		}
		v, ok := c.Entries[string(k)]
		if !ok {
			return nil, in.errf(ErrCodeKeyNotFound, x.Pos(), "key %q not found", string(k))
		}
		return v, nil
	case String:
		i, ok := idx.(Int)
		if !ok {
			return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "string index must be int, got %s", TypeName(idx))
		}
		runes := []rune(string(c))
		n, err := in.resolveIndex(int(i), len(runes), x)
		if err != nil {
			return nil, err
		}
		return String(runes[n]), nil
	default:
		return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "cannot index into %s", TypeName(base))
	}
}

func (in *Interp) evalSlice(x *ast.SliceExpr) (Value, error) {
	if x.Ctx == ast.CtxWrite {
		return nil, in.errf(ErrCodeInvalidContext, x.Pos(), "write-context slice evaluated as a read")
	}
	base, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}

	switch c := base.(type) {
	case *List:
		low, high, err := in.sliceBounds(x, len(c.Elems))
		if err != nil {
			return nil, err
		}
		out := make([]Value, high-low)
		copy(out, c.Elems[low:high])
		return &List{Elems: out}, nil
	case String:
		runes := []rune(string(c))
		low, high, err := in.sliceBounds(x, len(runes))
		if err != nil {
			return nil, err
		}
		return String(runes[low:high]), nil
	default:
		return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "cannot slice %s", TypeName(base))
	}
}

func (in *Interp) evalCall(x *ast.CallExpr) (Value, error) {
	fn, err := in.evalExpr(x.Fun)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		v, err := in.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.call(fn, args, x.Pos())
}

// call invokes a function or builtin value.
func (in *Interp) call(fn Value, args []Value, pos token.Pos) (Value, error) {
	switch f := fn.(type) {
	case *Func:
		return in.callFunc(f, args, pos)
	case *Builtin:
		return f.Fn(in, pos, args)
	default:
		return nil, in.errf(ErrCodeNotCallable, pos, "%s is not callable", TypeName(fn))
	}
}

func (in *Interp) callFunc(f *Func, args []Value, pos token.Pos) (Value, error) {
	if len(args) != len(f.Params) {
		return nil, in.errf(ErrCodeArityMismatch, pos,
			"%s expects %d arguments, got %d", f.Name, len(f.Params), len(args))
	}

	fr := &frame{fn: f, vars: make(map[string]Value, len(args))}
	for i, p := range f.Params {
		fr.vars[p] = args[i]
	}

	in.frames = append(in.frames, fr)
	savedLoopDepth := in.loopDepth
	in.loopDepth = 0
	defer func() {
		in.frames = in.frames[:len(in.frames)-1]
		in.loopDepth = savedLoopDepth
	}()

	if err := in.execBlock(f.Body); err != nil {
		var ret *returnSignal
		if errors.As(err, &ret) {
			return ret.value, nil
		}
		return nil, err
	}
	return Null{}, nil
}

func (in *Interp) evalUnary(x *ast.UnaryExpr) (Value, error) {
	v, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case token.Bang:
		return Bool(!Truthy(v)), nil
	case token.Minus:
		switch n := v.(type) {
		case Int:
			return -n, nil
		case Float:
			return -n, nil
		default:
			return nil, in.errf(ErrCodeTypeMismatch, x.Pos(), "cannot negate %s", TypeName(v))
		}
	default:
		panic(fmt.Sprintf("interp: unknown unary operator %s", x.Op))
	}
}

func (in *Interp) evalBinary(x *ast.BinaryExpr) (Value, error) {
	// Logical operators short-circuit and yield a bool.
	if x.Op == token.AndAnd || x.Op == token.OrOr {
		left, err := in.evalExpr(x.X)
		if err != nil {
			return nil, err
		}
		lt := Truthy(left)
		if x.Op == token.AndAnd && !lt {
			return Bool(false), nil
		}
		if x.Op == token.OrOr && lt {
			return Bool(true), nil
		}
		right, err := in.evalExpr(x.Y)
		if err != nil {
			return nil, err
		}
		return Bool(Truthy(right)), nil
	}

	left, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(x.Y)
	if err != nil {
		return nil, err
	}
	return in.binaryOp(x.Op, left, right, x.OpPos)
}
