package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hindsightlab/hindsight/internal/event"
)

// TraceFormatVersion is the current binary trace format. Decoding
// rejects other versions instead of guessing.
const TraceFormatVersion = 1

// The wire envelope is msgpack; value-bearing fields inside it are the
// canonical JSON encoding of the event value union, which already
// carries the type information msgpack would lose.
type wireTrace struct {
	Version int         `msgpack:"version"`
	NextID  int64       `msgpack:"next_id"`
	Events  []wireEvent `msgpack:"events"`
}

type wireEvent struct {
	ID        int64  `msgpack:"id"`
	Site      int64  `msgpack:"site"`
	File      string `msgpack:"file"`
	Line      int    `msgpack:"line"`
	Kind      string `msgpack:"kind"`
	Payload   []byte `msgpack:"payload"`
	TimeNanos int64  `msgpack:"time_nanos"`
	Goroutine uint64 `msgpack:"goroutine"`
	Locals    []byte `msgpack:"locals,omitempty"`
	Globals   []byte `msgpack:"globals,omitempty"`
}

// Encode serializes events and the id counter into the binary trace
// format.
func Encode(events []*event.Event, nextID int64) ([]byte, error) {
	wire := wireTrace{
		Version: TraceFormatVersion,
		NextID:  nextID,
		Events:  make([]wireEvent, len(events)),
	}
	for i, ev := range events {
		we, err := toWire(ev)
		if err != nil {
			return nil, fmt.Errorf("encode event %d: %w", ev.ID, err)
		}
		wire.Events[i] = we
	}
	data, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return data, nil
}

// Decode reads a binary trace back into events and the id counter.
func Decode(data []byte) ([]*event.Event, int64, error) {
	var wire wireTrace
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, 0, fmt.Errorf("unmarshal trace: %w", err)
	}
	if wire.Version != TraceFormatVersion {
		return nil, 0, fmt.Errorf("unsupported trace format version %d", wire.Version)
	}

	events := make([]*event.Event, len(wire.Events))
	for i, we := range wire.Events {
		ev, err := fromWire(we)
		if err != nil {
			return nil, 0, fmt.Errorf("decode event %d: %w", we.ID, err)
		}
		events[i] = ev
	}
	return events, wire.NextID, nil
}

func toWire(ev *event.Event) (wireEvent, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return wireEvent{}, fmt.Errorf("marshal payload: %w", err)
	}
	we := wireEvent{
		ID:        ev.ID,
		Site:      ev.Site,
		File:      ev.File,
		Line:      ev.Line,
		Kind:      string(ev.Kind),
		Payload:   payload,
		TimeNanos: ev.Time.UnixNano(),
		Goroutine: ev.Goroutine,
	}
	if ev.Locals != nil {
		if we.Locals, err = json.Marshal(ev.Locals); err != nil {
			return wireEvent{}, fmt.Errorf("marshal locals: %w", err)
		}
	}
	if ev.Globals != nil {
		if we.Globals, err = json.Marshal(ev.Globals); err != nil {
			return wireEvent{}, fmt.Errorf("marshal globals: %w", err)
		}
	}
	return we, nil
}

func fromWire(we wireEvent) (*event.Event, error) {
	ev := &event.Event{
		ID:        we.ID,
		Site:      we.Site,
		File:      we.File,
		Line:      we.Line,
		Kind:      event.Kind(we.Kind),
		Time:      time.Unix(0, we.TimeNanos).UTC(),
		Goroutine: we.Goroutine,
	}
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", we.Kind)
	}
	if err := json.Unmarshal(we.Payload, &ev.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if we.Locals != nil {
		if err := json.Unmarshal(we.Locals, &ev.Locals); err != nil {
			return nil, fmt.Errorf("unmarshal locals: %w", err)
		}
	}
	if we.Globals != nil {
		if err := json.Unmarshal(we.Globals, &ev.Globals); err != nil {
			return nil, fmt.Errorf("unmarshal globals: %w", err)
		}
	}
	return ev, nil
}

// MarshalBinary snapshots the recorder into the binary trace format.
func (r *Recorder) MarshalBinary() ([]byte, error) {
	r.mu.Lock()
	events := make([]*event.Event, len(r.events))
	copy(events, r.events)
	nextID := r.nextID
	r.mu.Unlock()

	return Encode(events, nextID)
}

// UnmarshalBinary replaces the recorder contents with a decoded trace.
// The id counter resumes where the saved trace left off.
func (r *Recorder) UnmarshalBinary(data []byte) error {
	events, nextID, err := Decode(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = events
	r.nextID = nextID
	return nil
}

// EncodeTo writes the binary trace to w.
func (r *Recorder) EncodeTo(w io.Writer) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}

// DecodeFrom replaces the recorder contents with the trace read from rd.
func (r *Recorder) DecodeFrom(rd io.Reader) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	return r.UnmarshalBinary(data)
}

// Save writes the binary trace to path.
func (r *Recorder) Save(path string) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	return nil
}

// Load replaces the recorder contents with the trace stored at path.
func (r *Recorder) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load trace: %w", err)
	}
	return r.UnmarshalBinary(data)
}
