package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/hindsightlab/hindsight/internal/token"
)

// stdBuiltins returns the standard builtin table shared by every script.
func stdBuiltins() map[string]Value {
	table := make(map[string]Value)
	for _, b := range []*Builtin{
		{Name: "print", Fn: builtinPrint},
		{Name: "len", Fn: builtinLen},
		{Name: "range", Fn: builtinRange},
		{Name: "push", Fn: builtinPush},
		{Name: "keys", Fn: builtinKeys},
		{Name: "str", Fn: builtinStr},
		{Name: "int", Fn: builtinInt},
		{Name: "float", Fn: builtinFloat},
		{Name: "type", Fn: builtinType},
		{Name: "repr", Fn: builtinRepr},
		{Name: "object", Fn: builtinObject},
	} {
		table[b.Name] = b
	}
	return table
}

func wantArgs(in *Interp, pos token.Pos, name string, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return in.errf(ErrCodeArityMismatch, pos, "%s expects %d arguments, got %d", name, min, len(args))
		}
		return in.errf(ErrCodeArityMismatch, pos, "%s expects %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func builtinPrint(in *Interp, pos token.Pos, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = in.Str(a)
	}
	if _, err := fmt.Fprintln(in.stdout, strings.Join(parts, " ")); err != nil {
		return nil, in.errf(ErrCodeBadArgument, pos, "print failed: %v", err)
	}
	return Null{}, nil
}

func builtinLen(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case String:
		return Int(len([]rune(string(x)))), nil
	case *List:
		return Int(len(x.Elems)), nil
	case *Dict:
		return Int(len(x.Entries)), nil
	default:
		return nil, in.errf(ErrCodeBadArgument, pos, "len does not support %s", TypeName(args[0]))
	}
}

// builtinRange returns [0, n) with one argument and [start, stop) with
// two. An empty range is valid.
func builtinRange(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "range", args, 1, 2); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(Int)
		if !ok {
			return nil, in.errf(ErrCodeBadArgument, pos, "range bound must be int, got %s", TypeName(a))
		}
		bounds[i] = int64(n)
	}
	start, stop := int64(0), bounds[0]
	if len(bounds) == 2 {
		start, stop = bounds[0], bounds[1]
	}

	var elems []Value
	for i := start; i < stop; i++ {
		elems = append(elems, Int(i))
	}
	return &List{Elems: elems}, nil
}

func builtinPush(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "push", args, 2, 2); err != nil {
		return nil, err
	}
	list, ok := args[0].(*List)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "push needs a list, got %s", TypeName(args[0]))
	}
	list.Elems = append(list.Elems, args[1])
	return Null{}, nil
}

func builtinKeys(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "keys", args, 1, 1); err != nil {
		return nil, err
	}
	d, ok := args[0].(*Dict)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "keys needs a dict, got %s", TypeName(args[0]))
	}
	names := sortedKeys(d.Entries)
	elems := make([]Value, len(names))
	for i, k := range names {
		elems[i] = String(k)
	}
	return &List{Elems: elems}, nil
}

func builtinStr(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "str", args, 1, 1); err != nil {
		return nil, err
	}
	return String(in.Str(args[0])), nil
}

// builtinInt converts to int. Floats truncate toward zero; conversion
// fails if the truncated value does not fit in 64 bits.
func builtinInt(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "int", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case Int:
		return x, nil
	case Float:
		n, err := safecast.Convert[int64](math.Trunc(float64(x)))
		if err != nil {
			return nil, in.errf(ErrCodeBadArgument, pos, "float %s does not fit in int", formatFloat(float64(x)))
		}
		return Int(n), nil
	case Bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		if err != nil {
			return nil, in.errf(ErrCodeBadArgument, pos, "cannot parse %q as int", string(x))
		}
		return Int(n), nil
	default:
		return nil, in.errf(ErrCodeBadArgument, pos, "int does not support %s", TypeName(args[0]))
	}
}

func builtinFloat(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "float", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case Float:
		return x, nil
	case Int:
		return Float(x), nil
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, in.errf(ErrCodeBadArgument, pos, "cannot parse %q as float", string(x))
		}
		return Float(f), nil
	default:
		return nil, in.errf(ErrCodeBadArgument, pos, "float does not support %s", TypeName(args[0]))
	}
}

func builtinType(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "type", args, 1, 1); err != nil {
		return nil, err
	}
	return String(TypeName(args[0])), nil
}

func builtinRepr(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "repr", args, 1, 1); err != nil {
		return nil, err
	}
	return String(in.Repr(args[0])), nil
}

// builtinObject creates an object value: object("Point") or
// object("Point", {"x": 1}) to seed fields.
func builtinObject(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "object", args, 1, 2); err != nil {
		return nil, err
	}
	name, ok := args[0].(String)
	if !ok || name == "" {
		return nil, in.errf(ErrCodeBadArgument, pos, "object needs a non-empty type name")
	}
	obj := NewObject(string(name))
	if len(args) == 2 {
		seed, ok := args[1].(*Dict)
		if !ok {
			return nil, in.errf(ErrCodeBadArgument, pos, "object fields must be a dict, got %s", TypeName(args[1]))
		}
		for k, v := range seed.Entries {
			obj.Fields[k] = v
		}
	}
	// Register at creation so display ids follow creation order even if
	// the object is first printed much later.
	in.reg.id(obj)
	return obj, nil
}
