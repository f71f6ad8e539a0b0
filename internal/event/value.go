package event

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is a sealed interface over the serializable value domain of
// the script language. Only Null, Bool, Int, Float, String, List,
// Dict and Object implement it.
//
// Values inside events are snapshots: they are deep-copied out of the
// running program at capture time and never share mutable state with
// it.
type Value interface {
	value() // sealed
}

// Null is the script null value.
// Using an explicit type keeps the union total: a payload field can
// hold null without resorting to a nil interface.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Int is an integer value. Always int64 width.
type Int int64

func (Int) value() {}

// Float is a floating-point value. It marshals with a decimal marker
// so the int/float distinction survives a JSON round trip.
type Float float64

func (Float) value() {}

// MarshalJSON implements json.Marshaler for Float. Non-finite values
// have no JSON form and degrade to null; the interpreter substitutes
// placeholders before they reach an event, so this is a backstop.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(formatFloat(v)), nil
}

// String is a string value.
type String string

func (String) value() {}

// List is an ordered sequence of values.
type List []Value

func (List) value() {}

// Dict is a string-keyed mapping. It doubles as the representation of
// event payloads and binding snapshots. Use SortedKeys for
// deterministic iteration.
type Dict map[string]Value

func (Dict) value() {}

// Object is a user-defined script object snapshot: its declared type
// name, the display id assigned by the identity registry, and a copy
// of its fields.
type Object struct {
	Type   string
	ID     int64
	Fields Dict
}

func (Object) value() {}

// MarshalJSON implements json.Marshaler for Object using a sentinel
// form that UnmarshalValue can tell apart from a plain Dict.
func (o Object) MarshalJSON() ([]byte, error) {
	fields := o.Fields
	if fields == nil {
		fields = Dict{}
	}
	return json.Marshal(struct {
		Type   string `json:"$type"`
		ID     int64  `json:"$id"`
		Fields Dict   `json:"fields"`
	}{Type: o.Type, ID: o.ID, Fields: fields})
}

// MarshalJSON implements json.Marshaler for Dict with sorted keys.
func (d Dict) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, k := range d.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(d[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

// SortedKeys returns the dict's keys in ascending byte order.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for key and whether it was present.
func (d Dict) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// MarshalValue marshals any member of the value union to JSON.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return val.MarshalJSON()
	case String:
		return json.Marshal(string(val))
	case List:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemBytes, err := MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(elemBytes)
		}
		buf.WriteByte(']')
		return []byte(buf.String()), nil
	case Dict:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// UnmarshalValue decodes a JSON value into the appropriate union
// member. Numbers without a decimal marker become Int, the rest
// Float. Objects are recognized by the "$type" sentinel key; every
// other JSON object becomes a Dict.
func UnmarshalValue(data []byte) (Value, error) {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		list := make(List, len(raw))
		for i, elem := range raw {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil

	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if typeRaw, ok := raw["$type"]; ok {
			return unmarshalObject(typeRaw, raw)
		}
		dict := make(Dict, len(raw))
		for k, elem := range raw {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			dict[k] = v
		}
		return dict, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		s := n.String()
		if !strings.ContainsAny(s, ".eE") {
			i, err := n.Int64()
			if err == nil {
				return Int(i), nil
			}
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return Float(f), nil
	}
}

func unmarshalObject(typeRaw json.RawMessage, raw map[string]json.RawMessage) (Value, error) {
	var typeName string
	if err := json.Unmarshal(typeRaw, &typeName); err != nil {
		return nil, fmt.Errorf("object $type: %w", err)
	}
	obj := Object{Type: typeName, Fields: Dict{}}
	if idRaw, ok := raw["$id"]; ok {
		if err := json.Unmarshal(idRaw, &obj.ID); err != nil {
			return nil, fmt.Errorf("object $id: %w", err)
		}
	}
	if fieldsRaw, ok := raw["fields"]; ok {
		var rawFields map[string]json.RawMessage
		if err := json.Unmarshal(fieldsRaw, &rawFields); err != nil {
			return nil, fmt.Errorf("object fields: %w", err)
		}
		for k, elem := range rawFields {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object field %q: %w", k, err)
			}
			obj.Fields[k] = v
		}
	}
	return obj, nil
}

// StringList builds a List of String values, preserving order.
func StringList(names []string) List {
	list := make(List, len(names))
	for i, name := range names {
		list[i] = String(name)
	}
	return list
}

// AsStrings converts a List back to a string slice. The second return
// is false when any element is not a String.
func (l List) AsStrings() ([]string, bool) {
	out := make([]string, len(l))
	for i, v := range l {
		s, ok := v.(String)
		if !ok {
			return nil, false
		}
		out[i] = string(s)
	}
	return out, true
}

// Equal reports deep equality of two values. Int and Float compare
// across types the way the script language compares numbers; Object
// display ids are excluded, so two snapshots of equal objects compare
// equal even when taken in different sessions.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Float:
			return av == bv
		case Int:
			return float64(av) == float64(bv)
		}
		return false
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv, ok := b.(Dict)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		return ok && av.Type == bv.Type && Equal(av.Fields, bv.Fields)
	default:
		return false
	}
}

// Clone deep-copies a value. Scalars return as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Dict:
		out := make(Dict, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	case Object:
		return Object{Type: val.Type, ID: val.ID, Fields: Clone(val.Fields).(Dict)}
	default:
		return v
	}
}

// TypeName returns the script-level type name of a value, as reported
// by the language's type() builtin. Objects report their declared
// type.
func TypeName(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Dict:
		return "dict"
	case Object:
		return val.Type
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Format renders a value for human display in answers and CLI output.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case String:
		return strconv.Quote(string(val))
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Dict:
		parts := make([]string, 0, len(val))
		for _, k := range val.SortedKeys() {
			parts = append(parts, strconv.Quote(k)+": "+Format(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Object:
		parts := make([]string, 0, len(val.Fields))
		for _, k := range val.Fields.SortedKeys() {
			parts = append(parts, k+": "+Format(val.Fields[k]))
		}
		name := val.Type
		if val.ID > 0 {
			name = fmt.Sprintf("%s#%d", val.Type, val.ID)
		}
		return name + "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatFloat renders a float with a guaranteed decimal or exponent
// marker so the text never reads as an integer.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// PlaceholderPrefix starts every substituted snapshot entry.
const PlaceholderPrefix = "<unserializable: "

// Placeholder builds the substitute recorded in place of a value that
// cannot be copied or serialized safely. The descriptor names the
// runtime type so the trace stays diagnosable.
func Placeholder(typeName string) String {
	return String(PlaceholderPrefix + typeName + ">")
}

// IsPlaceholder reports whether v is a placeholder descriptor.
func IsPlaceholder(v Value) bool {
	s, ok := v.(String)
	return ok && strings.HasPrefix(string(s), PlaceholderPrefix)
}
