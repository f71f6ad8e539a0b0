// Package why answers retrospective questions about a recorded trace.
//
// Each question variant prepares one scan over the recorder's log. The
// analyses are cheap Whyline-style heuristics: id-ordered passes that
// prefer the most recent matching event as the primary explanation and
// cite upstream branch decisions or value equality as candidate causes.
// None of them compute a sound program slice, and the answers say so in
// how they are worded ("may have blocked", "carrying that value").
//
// The expected usage is stop recording, then ask. Every analysis reads
// one consistent copy of the log taken at answer time.
package why

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/recorder"
)

// Asker builds questions over one recorder's log.
type Asker struct {
	rec *recorder.Recorder
}

// NewAsker returns an asker reading from rec.
func NewAsker(rec *recorder.Recorder) *Asker {
	return &Asker{rec: rec}
}

// Answer explains one question from recorded evidence.
type Answer struct {
	// Summary is the human-readable explanation.
	Summary string

	// Found reports whether the scan matched. For the "why didn't"
	// variants it reports that the premise was contradicted: the line
	// did execute, the field did change.
	Found bool

	// Primary is the highest-id matching event, nil when nothing
	// matched.
	Primary *event.Event

	// Evidence cites every event the answer rests on, in id order.
	Evidence []*event.Event

	// Sources holds the matching value-producing events of a value
	// question.
	Sources []*event.Event

	// Executions holds the matching occurrence events of an execution
	// question.
	Executions []*event.Event

	// Dependencies holds candidate causes: upstream branch decisions,
	// or earlier events carrying an equal value.
	Dependencies []*event.Event
}

// Question is one prepared analysis. Answer runs it on first call and
// returns the identical cached result thereafter.
type Question struct {
	text    string
	analyze func() *Answer

	once sync.Once
	ans  *Answer
}

// String returns the question in interrogative form.
func (q *Question) String() string { return q.text }

// Answer computes the answer once and returns the cached object on
// every later call.
func (q *Question) Answer() *Answer {
	q.once.Do(func() { q.ans = q.analyze() })
	return q.ans
}

func newQuestion(text string, analyze func() *Answer) *Question {
	return &Question{text: text, analyze: analyze}
}

// Constraint narrows a value question.
type Constraint func(*valueScope)

type valueScope struct {
	file    string
	maxLine int
}

// InFile restricts matches to events recorded from one source file.
// Events from unnamed sources pass any file constraint.
func InFile(file string) Constraint {
	return func(s *valueScope) { s.file = file }
}

// AtOrBeforeLine drops assignments below the given line, turning the
// question into "why did it have this value by that point".
func AtOrBeforeLine(line int) Constraint {
	return func(s *valueScope) { s.maxLine = line }
}

// fileMatches applies the lenient file rule: an empty constraint
// matches everything, and events from unnamed sources match any
// constraint, so in-memory traces stay queryable by file.
func fileMatches(eventFile, queryFile string) bool {
	if queryFile == "" {
		return true
	}
	return eventFile == queryFile || eventFile == event.UnnamedFile || queryFile == event.UnnamedFile
}

// payloadValueEquals reports whether the event's value payload equals v.
func payloadValueEquals(ev *event.Event, v event.Value) bool {
	got, ok := ev.PayloadValue(event.KeyValue)
	return ok && event.Equal(got, v)
}

// snapshotContains reports whether any top-level snapshot entry equals v.
func snapshotContains(d event.Dict, v event.Value) bool {
	for _, entry := range d {
		if event.Equal(entry, v) {
			return true
		}
	}
	return false
}

// funcNameIs reports whether the event's func_name payload equals name.
func funcNameIs(ev *event.Event, name string) bool {
	v, ok := ev.PayloadValue(event.KeyFuncName)
	if !ok {
		return false
	}
	s, isStr := v.(event.String)
	return isStr && string(s) == name
}

// branchesBefore collects branch events with ids below limit in the
// given file, the coarse control-flow cause set every execution
// analysis shares.
func branchesBefore(events []*event.Event, limit int64, file string) []*event.Event {
	out := []*event.Event{}
	for _, ev := range events {
		if ev.ID < limit && ev.Kind == event.KindBranch && fileMatches(ev.File, file) {
			out = append(out, ev)
		}
	}
	return out
}

// mergeEvidence concatenates evidence lists, dropping duplicate ids and
// ordering the result by id.
func mergeEvidence(lists ...[]*event.Event) []*event.Event {
	seen := make(map[int64]bool)
	out := []*event.Event{}
	for _, list := range lists {
		for _, ev := range list {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pluralize renders n with the right noun form.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// times renders a small occurrence count the way a person would say it.
func times(n int) string {
	switch n {
	case 1:
		return "once"
	case 2:
		return "twice"
	default:
		return fmt.Sprintf("%d times", n)
	}
}
