package interp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Value is a runtime value. The union is closed: every implementation
// lives in this package. Scalars are immutable value types; List, Dict,
// Object, and Func are pointers, so assignment aliases them the way the
// scripting language requires.
type Value interface {
	value()
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Int is a 64-bit integer value.
type Int int64

// Float is a double precision float value.
type Float float64

// String is an immutable string value.
type String string

// List is a mutable ordered sequence.
type List struct {
	Elems []Value
}

// Dict is a mutable string-keyed map.
type Dict struct {
	Entries map[string]Value
}

// Object is a mutable record with a runtime type name.
type Object struct {
	TypeName string
	Fields   map[string]Value
}

// Func is a user-defined function. The body executes against a fresh
// local frame; free names resolve through script globals, not the
// lexical scope of the declaration.
type Func struct {
	Name   string
	Params []string
	Body   *ast.Block
}

// Builtin is a native function.
type Builtin struct {
	Name string
	Fn   func(in *Interp, pos token.Pos, args []Value) (Value, error)
}

func (Null) value()     {}
func (Bool) value()     {}
func (Int) value()      {}
func (Float) value()    {}
func (String) value()   {}
func (*List) value()    {}
func (*Dict) value()    {}
func (*Object) value()  {}
func (*Func) value()    {}
func (*Builtin) value() {}

// NewList builds a list value from elements.
func NewList(elems ...Value) *List {
	return &List{Elems: elems}
}

// NewDict builds an empty dict value.
func NewDict() *Dict {
	return &Dict{Entries: make(map[string]Value)}
}

// NewObject builds an object with the given runtime type name.
func NewObject(typeName string) *Object {
	return &Object{TypeName: typeName, Fields: make(map[string]Value)}
}

// Truthy reports the boolean interpretation of v: null and false are
// false, numbers are false at zero, strings and containers are false
// when empty, everything else is true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case String:
		return x != ""
	case *List:
		return len(x.Elems) > 0
	case *Dict:
		return len(x.Entries) > 0
	default:
		return true
	}
}

// TypeName returns the runtime type name used by the type builtin and in
// diagnostics.
func TypeName(v Value) string {
	switch x := v.(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case *List:
		return "list"
	case *Dict:
		return "dict"
	case *Object:
		return x.TypeName
	case *Func:
		return "func"
	case *Builtin:
		return "builtin"
	case *Handle:
		return "recorder"
	default:
		return "unknown"
	}
}

// Equal reports deep equality. Ints and floats compare numerically across
// types. Lists and dicts compare element-wise; objects and functions
// compare by identity. Aliased values short-circuit, so self-referential
// containers compare against themselves without recursing forever.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return x == Float(y)
		}
		return false
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if len(x.Entries) != len(y.Entries) {
			return false
		}
		for k, xv := range x.Entries {
			yv, ok := y.Entries[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		return ok && x == y
	case *Func:
		y, ok := b.(*Func)
		return ok && x == y
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x == y
	case *Handle:
		y, ok := b.(*Handle)
		return ok && x == y
	default:
		return false
	}
}

// Str renders v the way print does: strings bare, containers in literal
// form with quoted string elements.
func (in *Interp) Str(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return in.Repr(v)
}

// Repr renders v in literal form. Objects display as TypeName#id with
// their display id from the identity registry, so aliases are visible.
// Containers already being rendered display as [...] or {...} to keep
// self-referential values printable.
func (in *Interp) Repr(v Value) string {
	var b strings.Builder
	in.reprInto(&b, v, make(map[Value]bool))
	return b.String()
}

func (in *Interp) reprInto(b *strings.Builder, v Value, active map[Value]bool) {
	switch x := v.(type) {
	case Null:
		b.WriteString("null")
	case Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		b.WriteString(formatFloat(float64(x)))
	case String:
		b.WriteString(strconv.Quote(string(x)))
	case *List:
		if active[v] {
			b.WriteString("[...]")
			return
		}
		active[v] = true
		b.WriteByte('[')
		for i, el := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			in.reprInto(b, el, active)
		}
		b.WriteByte(']')
		delete(active, v)
	case *Dict:
		if active[v] {
			b.WriteString("{...}")
			return
		}
		active[v] = true
		keys := make([]string, 0, len(x.Entries))
		for k := range x.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			in.reprInto(b, x.Entries[k], active)
		}
		b.WriteByte('}')
		delete(active, v)
	case *Object:
		b.WriteString(x.TypeName)
		b.WriteByte('#')
		b.WriteString(strconv.FormatInt(in.reg.id(x), 10))
		if active[v] {
			b.WriteString("{...}")
			return
		}
		active[v] = true
		keys := make([]string, 0, len(x.Fields))
		for k := range x.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			in.reprInto(b, x.Fields[k], active)
		}
		b.WriteByte('}')
		delete(active, v)
	case *Func:
		b.WriteString("<func " + x.Name + ">")
	case *Builtin:
		b.WriteString("<builtin " + x.Name + ">")
	case *Handle:
		b.WriteString("<recorder>")
	default:
		b.WriteString("<unknown>")
	}
}

// formatFloat keeps a decimal marker so floats stay distinguishable from
// ints in output.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
