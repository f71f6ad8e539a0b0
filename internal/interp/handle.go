package interp

import (
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Handle exposes a trace recorder to scripts as a native value. The
// rewriter binds one under __trace__ and drives it through attribute
// calls on that binding.
type Handle struct {
	rec *recorder.Recorder
}

// NewHandle wraps rec for use as a script value.
func NewHandle(rec *recorder.Recorder) *Handle {
	return &Handle{rec: rec}
}

func (*Handle) value() {}

// Recorder returns the wrapped recorder.
func (h *Handle) Recorder() *recorder.Recorder {
	return h.rec
}

// method resolves an attribute name to a bound method value.
func (h *Handle) method(name string) (Value, bool) {
	switch name {
	case "record":
		return &Builtin{Name: "record", Fn: h.record}, true
	case "next_id":
		return &Builtin{Name: "next_id", Fn: h.nextID}, true
	case "clear":
		return &Builtin{Name: "clear", Fn: h.clear}, true
	case "enable":
		return &Builtin{Name: "enable", Fn: h.enable}, true
	case "disable":
		return &Builtin{Name: "disable", Fn: h.disable}, true
	case "enabled":
		return &Builtin{Name: "enabled", Fn: h.enabled}, true
	default:
		return nil, false
	}
}

// record emits one trace event and returns its id. The rewriter
// generates calls of the shape
//
//	__trace__.record(site, file, line, kind, key1, value1, ...)
//
// with payload keys and values flattened into alternating arguments.
func (h *Handle) record(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if len(args) < 4 {
		return nil, in.errf(ErrCodeArityMismatch, pos, "record expects at least 4 arguments, got %d", len(args))
	}
	if (len(args)-4)%2 != 0 {
		return nil, in.errf(ErrCodeBadArgument, pos, "record payload must be alternating key/value arguments")
	}
	site, ok := args[0].(Int)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "record site must be int, got %s", TypeName(args[0]))
	}
	file, ok := args[1].(String)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "record file must be string, got %s", TypeName(args[1]))
	}
	line, ok := args[2].(Int)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "record line must be int, got %s", TypeName(args[2]))
	}
	kindName, ok := args[3].(String)
	if !ok {
		return nil, in.errf(ErrCodeBadArgument, pos, "record kind must be string, got %s", TypeName(args[3]))
	}
	kind := event.Kind(kindName)
	if !kind.Valid() {
		return nil, in.errf(ErrCodeBadArgument, pos, "unknown event kind %q", string(kindName))
	}

	pairs := make([]event.Pair, 0, (len(args)-4)/2)
	for i := 4; i < len(args); i += 2 {
		key, ok := args[i].(String)
		if !ok {
			return nil, in.errf(ErrCodeBadArgument, pos, "record payload key must be string, got %s", TypeName(args[i]))
		}
		pairs = append(pairs, event.P(string(key), in.toEvent(args[i+1])))
	}

	id := h.rec.Record(int64(site), string(file), int(line), kind, pairs...)
	return Int(id), nil
}

func (h *Handle) nextID(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "next_id", args, 0, 0); err != nil {
		return nil, err
	}
	return Int(h.rec.NextEventID()), nil
}

func (h *Handle) clear(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "clear", args, 0, 0); err != nil {
		return nil, err
	}
	h.rec.Clear()
	return Null{}, nil
}

func (h *Handle) enable(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "enable", args, 0, 0); err != nil {
		return nil, err
	}
	h.rec.Enable()
	return Null{}, nil
}

func (h *Handle) disable(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "disable", args, 0, 0); err != nil {
		return nil, err
	}
	h.rec.Disable()
	return Null{}, nil
}

func (h *Handle) enabled(in *Interp, pos token.Pos, args []Value) (Value, error) {
	if err := wantArgs(in, pos, "enabled", args, 0, 0); err != nil {
		return nil, err
	}
	return Bool(h.rec.Enabled()), nil
}
