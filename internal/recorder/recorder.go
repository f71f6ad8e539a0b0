// Package recorder collects trace events during an instrumented run.
//
// The recorder is the only mutable shared state in a traced execution.
// A single mutex spans the whole of Record: id allocation, event
// construction, snapshot capture, and append happen atomically, so
// event ids are gap free and strictly increasing in emission order even
// when several goroutines record at once.
package recorder

import (
	"sort"
	"sync"
	"time"

	"github.com/hindsightlab/hindsight/internal/event"
)

// BindingSource supplies variable snapshots at record time. The recorder
// calls it while holding its lock, so implementations must not call back
// into the recorder.
type BindingSource interface {
	Bindings() (locals, globals event.Dict)
}

// Options configures a recorder.
type Options struct {
	// Source provides local and global snapshots for each event. Nil
	// leaves the snapshots empty.
	Source BindingSource

	// Clock supplies event timestamps. Defaults to time.Now. Tests pin
	// it for deterministic traces.
	Clock func() time.Time

	// Disabled lists event kinds Record drops. Dropped events allocate
	// no id, so the remaining log stays gap free.
	Disabled []event.Kind
}

// Recorder is a threadsafe in-memory event log.
type Recorder struct {
	mu       sync.Mutex
	nextID   int64
	events   []*event.Event
	enabled  bool
	source   BindingSource
	clock    func() time.Time
	disabled map[event.Kind]bool
}

// New returns an enabled recorder with no events and next id 1.
func New(opts Options) *Recorder {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	disabled := make(map[event.Kind]bool, len(opts.Disabled))
	for _, k := range opts.Disabled {
		disabled[k] = true
	}
	return &Recorder{
		nextID:   1,
		enabled:  true,
		source:   opts.Source,
		clock:    clock,
		disabled: disabled,
	}
}

// Record appends one event and returns its id. While the recorder is
// disabled it records nothing and returns 0.
//
// The site identifies the static instrumentation point; the returned id
// is the dynamic emission id, allocated here so that ids order events by
// actual execution even under concurrency.
func (r *Recorder) Record(site int64, file string, line int, kind event.Kind, pairs ...event.Pair) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || r.disabled[kind] {
		return 0
	}
	if file == "" {
		file = event.UnnamedFile
	}

	id := r.nextID
	r.nextID++

	ev := &event.Event{
		ID:        id,
		Site:      site,
		File:      file,
		Line:      line,
		Kind:      kind,
		Payload:   event.PayloadFromPairs(pairs),
		Time:      r.clock(),
		Goroutine: currentGoroutine(),
	}
	if r.source != nil {
		ev.Locals, ev.Globals = r.source.Bindings()
	}

	r.events = append(r.events, ev)
	return id
}

// NextEventID reports the id the next recorded event will get.
func (r *Recorder) NextEventID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

// Clear drops all events and resets the id counter to 1. Clearing an
// already empty recorder is a no-op, so Clear is idempotent.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.nextID = 1
}

// Restore replaces the recorder contents with an already-decoded event
// list, as read back from an archive. The id counter resumes after the
// highest restored id. Events must already be in id order.
func (r *Recorder) Restore(events []*event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append([]*event.Event(nil), events...)
	next := int64(1)
	for _, ev := range events {
		if ev.ID >= next {
			next = ev.ID + 1
		}
	}
	r.nextID = next
}

// Enable resumes recording.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
}

// Disable pauses recording. Events recorded before stay available.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enabled reports whether Record currently appends events.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Len reports the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Events returns the recorded events in emission order. The slice is a
// copy; the events themselves are shared and must be treated as
// read-only.
func (r *Recorder) Events() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsOnLine returns events recorded for the given file and line.
func (r *Recorder) EventsOnLine(file string, line int) []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*event.Event{}
	for _, ev := range r.events {
		if ev.File == file && ev.Line == line {
			out = append(out, ev)
		}
	}
	return out
}

// EventsOfKind returns events of one kind in emission order.
func (r *Recorder) EventsOfKind(kind event.Kind) []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*event.Event{}
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// AssignmentsOf returns assignment-family events whose target is the
// given name or path.
func (r *Recorder) AssignmentsOf(target string) []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*event.Event{}
	for _, ev := range r.events {
		if ev.Kind.IsAssignment() && ev.TargetName() == target {
			out = append(out, ev)
		}
	}
	return out
}

// FunctionEvents returns entry, return and call events. A non-empty
// name keeps only events for that function.
func (r *Recorder) FunctionEvents(name string) []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*event.Event{}
	for _, ev := range r.events {
		switch ev.Kind {
		case event.KindFunctionEntry, event.KindReturn, event.KindCall:
		default:
			continue
		}
		if name == "" {
			out = append(out, ev)
			continue
		}
		if v, ok := ev.PayloadValue(event.KeyFuncName); ok {
			if s, ok := v.(event.String); ok && string(s) == name {
				out = append(out, ev)
			}
		}
	}
	return out
}

// EventsInRange returns events between fromLine and toLine inclusive.
// An empty file matches events from any file.
func (r *Recorder) EventsInRange(fromLine, toLine int, file string) []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*event.Event{}
	for _, ev := range r.events {
		if file != "" && ev.File != file {
			continue
		}
		if ev.Line >= fromLine && ev.Line <= toLine {
			out = append(out, ev)
		}
	}
	return out
}

// Stats summarizes the recorded trace.
type Stats struct {
	Total     int                `json:"total"`
	ByKind    map[event.Kind]int `json:"by_kind"`
	Files     []string           `json:"files"`
	FirstTime time.Time          `json:"first_time"`
	LastTime  time.Time          `json:"last_time"`
	NextID    int64              `json:"next_id"`
	Enabled   bool               `json:"enabled"`
}

// Stats computes trace statistics: totals per kind, the distinct files
// seen, and the observed time span.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Total:   len(r.events),
		ByKind:  make(map[event.Kind]int),
		Files:   []string{},
		NextID:  r.nextID,
		Enabled: r.enabled,
	}
	seen := make(map[string]bool)
	for i, ev := range r.events {
		s.ByKind[ev.Kind]++
		if !seen[ev.File] {
			seen[ev.File] = true
			s.Files = append(s.Files, ev.File)
		}
		if i == 0 {
			s.FirstTime = ev.Time
		}
		s.LastTime = ev.Time
	}
	sort.Strings(s.Files)
	return s
}
