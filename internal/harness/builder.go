package harness

import (
	"sort"
	"time"

	"github.com/hindsightlab/hindsight/internal/event"
)

// Builder constructs traces by hand, one event per call, without
// running a script. Built events carry the same payload shapes the
// rewriter records, so they compose with recorder.Restore and the why
// package exactly like a recorded trace.
//
// IDs are allocated sequentially from 1 and Site mirrors ID. Events
// carry the builder's current file and line; set them with File and
// Line before the calls they should apply to. Times are zero unless
// stamped.
type Builder struct {
	events []*event.Event
	nextID int64
	file   string
	line   int
}

// NewBuilder returns an empty builder positioned at line 1 of an
// unnamed script.
func NewBuilder() *Builder {
	return &Builder{
		nextID: 1,
		file:   event.UnnamedFile,
		line:   1,
	}
}

// File sets the source file for subsequent events.
func (b *Builder) File(name string) *Builder {
	b.file = name
	return b
}

// Line sets the source line for subsequent events.
func (b *Builder) Line(n int) *Builder {
	b.line = n
	return b
}

// Reset discards all built events and returns the builder to its
// initial position.
func (b *Builder) Reset() *Builder {
	b.events = nil
	b.nextID = 1
	b.file = event.UnnamedFile
	b.line = 1
	return b
}

func (b *Builder) add(kind event.Kind, payload event.Dict) *Builder {
	id := b.nextID
	b.nextID++
	b.events = append(b.events, &event.Event{
		ID:      id,
		Site:    id,
		File:    b.file,
		Line:    b.line,
		Kind:    kind,
		Payload: payload,
	})
	return b
}

// Assign records a plain name binding.
func (b *Builder) Assign(name string, value event.Value, deps ...string) *Builder {
	return b.add(event.KindAssign, event.Dict{
		event.KeyVarName:   event.String(name),
		event.KeyValue:     value,
		event.KeyDependsOn: depsValue(deps),
	})
}

// AugAssign records a compound write to a plain name.
func (b *Builder) AugAssign(name string, value event.Value, deps ...string) *Builder {
	return b.add(event.KindAugmentedAssign, event.Dict{
		event.KeyVarName:   event.String(name),
		event.KeyValue:     value,
		event.KeyDependsOn: depsValue(deps),
	})
}

// AttrAssign records a field write. Path is the dotted target text,
// for example "point.x".
func (b *Builder) AttrAssign(path string, value event.Value, deps ...string) *Builder {
	return b.add(event.KindAttributeAssign, event.Dict{
		event.KeyObjAttr:   event.String(path),
		event.KeyValue:     value,
		event.KeyDependsOn: depsValue(deps),
	})
}

// IndexAssign records a subscript write.
func (b *Builder) IndexAssign(container string, index, value event.Value, deps ...string) *Builder {
	return b.add(event.KindIndexAssign, event.Dict{
		event.KeyContainer: event.String(container),
		event.KeyIndex:     index,
		event.KeyValue:     value,
		event.KeyDependsOn: depsValue(deps),
	})
}

// SliceAssign records a slice write. Pass Null for an omitted bound.
func (b *Builder) SliceAssign(container string, lower, upper, value event.Value, deps ...string) *Builder {
	return b.add(event.KindSliceAssign, event.Dict{
		event.KeyContainer: event.String(container),
		event.KeyLower:     lower,
		event.KeyUpper:     upper,
		event.KeyValue:     value,
		event.KeyDependsOn: depsValue(deps),
	})
}

// FunctionEntry records control entering a function body.
func (b *Builder) FunctionEntry(name string, args ...event.Value) *Builder {
	return b.add(event.KindFunctionEntry, event.Dict{
		event.KeyFuncName: event.String(name),
		event.KeyArgs:     argsValue(args),
	})
}

// Return records control leaving a function. Name may be empty for a
// return outside any function.
func (b *Builder) Return(name string, value event.Value) *Builder {
	return b.add(event.KindReturn, event.Dict{
		event.KeyFuncName: event.String(name),
		event.KeyValue:    value,
	})
}

// Call records a call site firing. The rewriter never emits this kind;
// it exists for traces authored against the call vocabulary.
func (b *Builder) Call(name string, args ...event.Value) *Builder {
	return b.add(event.KindCall, event.Dict{
		event.KeyFuncName: event.String(name),
		event.KeyArgs:     argsValue(args),
	})
}

// Branch records the arm a conditional selected.
func (b *Builder) Branch(test string, result bool, decision string, deps ...string) *Builder {
	return b.add(event.KindBranch, event.Dict{
		event.KeyTest:      event.String(test),
		event.KeyResult:    event.Bool(result),
		event.KeyDecision:  event.String(decision),
		event.KeyDependsOn: depsValue(deps),
	})
}

// WhileCondition records one while-loop condition evaluation.
func (b *Builder) WhileCondition(test string, result bool, deps ...string) *Builder {
	return b.add(event.KindWhileCondition, event.Dict{
		event.KeyTest:      event.String(test),
		event.KeyResult:    event.Bool(result),
		event.KeyDependsOn: depsValue(deps),
	})
}

// LoopIteration records one for-loop iteration.
func (b *Builder) LoopIteration(target string, value event.Value) *Builder {
	return b.add(event.KindLoopIteration, event.Dict{
		event.KeyTarget:    event.String(target),
		event.KeyIterValue: value,
	})
}

// Snapshot attaches scope snapshots to the most recent event. No-op on
// an empty builder.
func (b *Builder) Snapshot(locals, globals event.Dict) *Builder {
	if n := len(b.events); n > 0 {
		b.events[n-1].Locals = locals
		b.events[n-1].Globals = globals
	}
	return b
}

// Stamp sets the time of the most recent event. No-op on an empty
// builder.
func (b *Builder) Stamp(t time.Time) *Builder {
	if n := len(b.events); n > 0 {
		b.events[n-1].Time = t
	}
	return b
}

// Build returns the built events. The builder can keep appending after
// Build without mutating the returned slice.
func (b *Builder) Build() []*event.Event {
	out := make([]*event.Event, len(b.events))
	copy(out, b.events)
	return out
}

// depsValue normalizes a dependency list the way instrumented code
// records one: deduplicated, sorted, and present even when empty.
func depsValue(deps []string) event.List {
	names := append([]string(nil), deps...)
	sort.Strings(names)
	out := make(event.List, 0, len(names))
	for i, name := range names {
		if i > 0 && name == names[i-1] {
			continue
		}
		out = append(out, event.String(name))
	}
	return out
}

func argsValue(args []event.Value) event.List {
	return append(event.List{}, args...)
}
