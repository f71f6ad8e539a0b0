package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnnamedFile is the source file recorded for scripts instrumented
// from in-memory text with no file name. Query constraints treat
// events from unnamed sources leniently (see the why package).
const UnnamedFile = "<script>"

// Event is one recorded occurrence of an instrumentation point
// firing at run time.
//
// ID is allocated by the recorder under its log lock and establishes
// the total temporal order of the trace. Site is the static id the
// rewriter assigned to the instrumentation point; a site inside a loop
// fires many events, so Site values repeat while ID values never do.
type Event struct {
	ID        int64     `json:"id"`
	Site      int64     `json:"site"`
	File      string    `json:"source_file"`
	Line      int       `json:"source_line"`
	Kind      Kind      `json:"kind"`
	Payload   Dict      `json:"payload"`
	Time      time.Time `json:"time"`
	Goroutine uint64    `json:"goroutine"`
	Locals    Dict      `json:"locals,omitempty"`
	Globals   Dict      `json:"globals,omitempty"`
}

// Pair is one flattened key/value payload argument of a record call.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for building a payload pair.
// Example: rec.Record(site, file, line, event.KindAssign, event.P("var_name", event.String("x")))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// PayloadFromPairs folds flattened pairs into a payload mapping. Later
// duplicates win, matching how the recorder call contract is defined:
// the rewriter is responsible for well-formed pairs and the recorder
// does not validate shape.
func PayloadFromPairs(pairs []Pair) Dict {
	payload := make(Dict, len(pairs))
	for _, p := range pairs {
		v := p.Value
		if v == nil {
			v = Null{}
		}
		payload[p.Key] = v
	}
	return payload
}

// PayloadValue returns a payload field and whether it was present.
func (e *Event) PayloadValue(key string) (Value, bool) {
	if e.Payload == nil {
		return nil, false
	}
	v, ok := e.Payload[key]
	return v, ok
}

// TargetName returns the assignment target this event wrote, if any.
// Plain assigns report var_name; attribute assigns report the dotted
// path. Non-assignment kinds return "".
func (e *Event) TargetName() string {
	if v, ok := e.PayloadValue(KeyVarName); ok {
		if s, isStr := v.(String); isStr {
			return string(s)
		}
	}
	if v, ok := e.PayloadValue(KeyObjAttr); ok {
		if s, isStr := v.(String); isStr {
			return string(s)
		}
	}
	return ""
}

// DependsOn returns the event's dependency set, or nil when absent.
func (e *Event) DependsOn() []string {
	v, ok := e.PayloadValue(KeyDependsOn)
	if !ok {
		return nil
	}
	list, isList := v.(List)
	if !isList {
		return nil
	}
	names, ok := list.AsStrings()
	if !ok {
		return nil
	}
	return names
}

// Clone deep-copies the event, so a caller can hold it across a
// recorder Clear without aliasing.
func (e *Event) Clone() *Event {
	out := *e
	out.Payload = cloneDict(e.Payload)
	out.Locals = cloneDict(e.Locals)
	out.Globals = cloneDict(e.Globals)
	return &out
}

func cloneDict(d Dict) Dict {
	if d == nil {
		return nil
	}
	return Clone(d).(Dict)
}

// String renders a short single-line description for logs and errors.
func (e *Event) String() string {
	return fmt.Sprintf("#%d %s %s:%d", e.ID, e.Kind, e.File, e.Line)
}

// UnmarshalJSON implements json.Unmarshaler for Dict so payloads and
// snapshots decode back into the value union rather than into
// interface{} soup.
func (d *Dict) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Dict, len(raw))
	for k, elem := range raw {
		v, err := UnmarshalValue(elem)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = v
	}
	*d = out
	return nil
}
