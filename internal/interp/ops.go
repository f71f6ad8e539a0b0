package interp

import (
	"github.com/hindsightlab/hindsight/internal/token"
)

// binaryOp applies an arithmetic or comparison operator. Logical
// operators never reach here; they short-circuit during evaluation.
func (in *Interp) binaryOp(op token.Kind, a, b Value, pos token.Pos) (Value, error) {
	switch op {
	case token.EqEq:
		return Bool(Equal(a, b)), nil
	case token.BangEq:
		return Bool(!Equal(a, b)), nil
	case token.Plus:
		return in.opAdd(a, b, pos)
	case token.Minus, token.Star, token.Slash, token.Percent:
		return in.opArith(op, a, b, pos)
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return in.opCompare(op, a, b, pos)
	default:
		return nil, in.errf(ErrCodeTypeMismatch, pos, "unsupported operator %s", op)
	}
}

// opAdd handles numeric addition plus string and list concatenation.
func (in *Interp) opAdd(a, b Value, pos token.Pos) (Value, error) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return x + y, nil
		case Float:
			return Float(x) + y, nil
		}
	case Float:
		switch y := b.(type) {
		case Int:
			return x + Float(y), nil
		case Float:
			return x + y, nil
		}
	case String:
		if y, ok := b.(String); ok {
			return x + y, nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			out := make([]Value, 0, len(x.Elems)+len(y.Elems))
			out = append(out, x.Elems...)
			out = append(out, y.Elems...)
			return &List{Elems: out}, nil
		}
	}
	return nil, in.errf(ErrCodeTypeMismatch, pos, "cannot add %s and %s", TypeName(a), TypeName(b))
}

func (in *Interp) opArith(op token.Kind, a, b Value, pos token.Pos) (Value, error) {
	ai, aIsInt := a.(Int)
	bi, bIsInt := b.(Int)

	// Integer arithmetic stays integral; division truncates toward zero.
	if aIsInt && bIsInt {
		switch op {
		case token.Minus:
			return ai - bi, nil
		case token.Star:
			return ai * bi, nil
		case token.Slash:
			if bi == 0 {
				return nil, in.errf(ErrCodeDivisionByZero, pos, "division by zero")
			}
			return ai / bi, nil
		case token.Percent:
			if bi == 0 {
				return nil, in.errf(ErrCodeDivisionByZero, pos, "modulo by zero")
			}
			return ai % bi, nil
		}
	}

	af, aOK := toFloat(a)
	bf, bOK := toFloat(b)
	if !aOK || !bOK {
		return nil, in.errf(ErrCodeTypeMismatch, pos,
			"operator %s needs numbers, got %s and %s", op, TypeName(a), TypeName(b))
	}

	switch op {
	case token.Minus:
		return Float(af - bf), nil
	case token.Star:
		return Float(af * bf), nil
	case token.Slash:
		if bf == 0 {
			return nil, in.errf(ErrCodeDivisionByZero, pos, "division by zero")
		}
		return Float(af / bf), nil
	case token.Percent:
		return nil, in.errf(ErrCodeTypeMismatch, pos, "operator %s needs int operands", op)
	default:
		return nil, in.errf(ErrCodeTypeMismatch, pos, "unsupported operator %s", op)
	}
}

func (in *Interp) opCompare(op token.Kind, a, b Value, pos token.Pos) (Value, error) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return orderResult(op, af < bf, af == bf), nil
		}
	}
	if as, ok := a.(String); ok {
		if bs, ok := b.(String); ok {
			return orderResult(op, as < bs, as == bs), nil
		}
	}
	return nil, in.errf(ErrCodeTypeMismatch, pos,
		"cannot order %s and %s", TypeName(a), TypeName(b))
}

func orderResult(op token.Kind, less, equal bool) Bool {
	switch op {
	case token.Lt:
		return Bool(less)
	case token.LtEq:
		return Bool(less || equal)
	case token.Gt:
		return Bool(!less && !equal)
	default: // GtEq
		return Bool(!less)
	}
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}
