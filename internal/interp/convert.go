package interp

import (
	"strings"

	"github.com/hindsightlab/hindsight/internal/event"
)

// toEvent converts a runtime value to its serializable trace form.
// Functions, builtins and recorder handles have no data form and become
// placeholders; so does any container reached through itself.
func (in *Interp) toEvent(v Value) event.Value {
	return in.toEventRec(v, make(map[Value]bool))
}

func (in *Interp) toEventRec(v Value, active map[Value]bool) event.Value {
	switch x := v.(type) {
	case Null:
		return event.Null{}
	case Bool:
		return event.Bool(x)
	case Int:
		return event.Int(x)
	case Float:
		return event.Float(x)
	case String:
		return event.String(x)
	case *List:
		if active[v] {
			return event.Placeholder("cyclic list")
		}
		active[v] = true
		out := make(event.List, len(x.Elems))
		for i, el := range x.Elems {
			out[i] = in.toEventRec(el, active)
		}
		delete(active, v)
		return out
	case *Dict:
		if active[v] {
			return event.Placeholder("cyclic dict")
		}
		active[v] = true
		out := make(event.Dict, len(x.Entries))
		for k, entry := range x.Entries {
			out[k] = in.toEventRec(entry, active)
		}
		delete(active, v)
		return out
	case *Object:
		if active[v] {
			return event.Placeholder("cyclic object")
		}
		active[v] = true
		fields := make(event.Dict, len(x.Fields))
		for k, field := range x.Fields {
			fields[k] = in.toEventRec(field, active)
		}
		delete(active, v)
		return event.Object{Type: x.TypeName, ID: in.reg.id(x), Fields: fields}
	case *Func:
		return event.Placeholder("func")
	case *Builtin:
		return event.Placeholder("builtin")
	case *Handle:
		return event.Placeholder("recorder")
	default:
		return event.Placeholder(TypeName(v))
	}
}

// FromEvent converts a snapshot value into a live runtime value. The
// driver uses it to seed initial script bindings from wire-level data.
// Containers become fresh mutable values; an object snapshot sheds its
// recorded display id and is re-registered the next time it is
// snapshotted.
func FromEvent(v event.Value) Value {
	switch x := v.(type) {
	case nil, event.Null:
		return Null{}
	case event.Bool:
		return Bool(x)
	case event.Int:
		return Int(x)
	case event.Float:
		return Float(x)
	case event.String:
		return String(x)
	case event.List:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = FromEvent(el)
		}
		return &List{Elems: elems}
	case event.Dict:
		entries := make(map[string]Value, len(x))
		for k, el := range x {
			entries[k] = FromEvent(el)
		}
		return &Dict{Entries: entries}
	case event.Object:
		fields := make(map[string]Value, len(x.Fields))
		for k, el := range x.Fields {
			fields[k] = FromEvent(el)
		}
		return &Object{TypeName: x.Type, Fields: fields}
	default:
		return Null{}
	}
}

// Bindings supplies the recorder's locals and globals snapshots. Names
// the driver injects under a "__" prefix are dropped. At module level
// the locals view coincides with the globals view.
func (in *Interp) Bindings() (event.Dict, event.Dict) {
	globals := in.snapshotVars(in.globals)
	if f := in.currentFrame(); f != nil {
		return in.snapshotVars(f.vars), globals
	}
	return globals, globals
}

func (in *Interp) snapshotVars(vars map[string]Value) event.Dict {
	out := make(event.Dict, len(vars))
	for name, v := range vars {
		if strings.HasPrefix(name, "__") {
			continue
		}
		out[name] = in.toEvent(v)
	}
	return out
}
