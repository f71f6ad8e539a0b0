package harness

import (
	"fmt"
	"strings"

	"github.com/hindsightlab/hindsight/internal/event"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace so a failure message is enough to debug
// without rerunning the scenario.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []*event.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s", ev)
			if name := ev.TargetName(); name != "" {
				fmt.Fprintf(&buf, " %s", name)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertTraceContains checks that at least one trace event matches the
// assertion's kind plus whichever of target, file, line, and value the
// assertion pins down.
func assertTraceContains(trace []*event.Event, a Assertion) error {
	var want event.Value
	if a.Value != nil {
		v, err := toEventValue(a.Value)
		if err != nil {
			return fmt.Errorf("trace_contains value: %w", err)
		}
		want = v
	}

	for _, ev := range trace {
		if eventMatches(ev, a, want) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeMatch(a, want),
		Actual:   "no matching event in trace",
		Trace:    trace,
	}
}

// eventMatches reports whether ev satisfies every field the assertion
// set. Unset fields match anything.
func eventMatches(ev *event.Event, a Assertion, want event.Value) bool {
	if ev.Kind != event.Kind(a.Kind) {
		return false
	}
	if a.Target != "" && ev.TargetName() != a.Target {
		return false
	}
	if a.File != "" && ev.File != a.File {
		return false
	}
	if a.Line > 0 && ev.Line != a.Line {
		return false
	}
	if want != nil {
		v, ok := ev.PayloadValue(event.KeyValue)
		if !ok || !event.Equal(v, want) {
			return false
		}
	}
	return true
}

func describeMatch(a Assertion, want event.Value) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "event of kind %s", a.Kind)
	if a.Target != "" {
		fmt.Fprintf(&buf, " for %s", a.Target)
	}
	if a.File != "" {
		fmt.Fprintf(&buf, " in %s", a.File)
	}
	if a.Line > 0 {
		fmt.Fprintf(&buf, " at line %d", a.Line)
	}
	if want != nil {
		fmt.Fprintf(&buf, " with value %s", event.Format(want))
	}
	return buf.String()
}

// assertTraceOrder checks that the assertion's kinds appear as a
// subsequence of the trace. Events of other kinds may appear between
// them, and a kind may repeat in the expected list.
func assertTraceOrder(trace []*event.Event, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Kinds) && ev.Kind == event.Kind(a.Kinds[next]) {
			next++
		}
	}
	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
			Actual:   fmt.Sprintf("matched the first %d, no %s after that", next, a.Kinds[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events match the kind and
// optional target. Count zero asserts absence.
func assertTraceCount(trace []*event.Event, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind != event.Kind(a.Kind) {
			continue
		}
		if a.Target != "" && ev.TargetName() != a.Target {
			continue
		}
		count++
	}

	if count != a.Count {
		expected := fmt.Sprintf("%d events of kind %s", a.Count, a.Kind)
		if a.Target != "" {
			expected += fmt.Sprintf(" for %s", a.Target)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: expected,
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalBinding checks a module-level binding after the run.
func assertFinalBinding(result *Result, a Assertion) error {
	want, err := toEventValue(a.Value)
	if err != nil {
		return fmt.Errorf("final_binding value: %w", err)
	}

	got, ok := result.Globals[a.Name]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalBinding,
			Expected: fmt.Sprintf("%s = %s", a.Name, event.Format(want)),
			Actual:   "name not bound after the run",
		}
	}
	if !event.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFinalBinding,
			Expected: fmt.Sprintf("%s = %s", a.Name, event.Format(want)),
			Actual:   fmt.Sprintf("%s = %s", a.Name, event.Format(got)),
		}
	}
	return nil
}

// assertAnswer checks the answer one of the scenario's questions
// produced. Question index is 1-based; zero selects the first.
func assertAnswer(result *Result, a Assertion) error {
	idx := a.Question
	if idx == 0 {
		idx = 1
	}
	if idx > len(result.Answers) {
		return fmt.Errorf("answer assertion references question %d, only %d answered", idx, len(result.Answers))
	}
	rec := result.Answers[idx-1]

	if a.Found != nil && rec.Found != *a.Found {
		return &AssertionError{
			Type:     AssertAnswer,
			Expected: fmt.Sprintf("found=%t for %s", *a.Found, rec.Question),
			Actual:   fmt.Sprintf("found=%t", rec.Found),
		}
	}
	if a.Summary != "" && rec.Summary != a.Summary {
		return &AssertionError{
			Type:     AssertAnswer,
			Expected: fmt.Sprintf("summary %q", a.Summary),
			Actual:   fmt.Sprintf("summary %q", rec.Summary),
		}
	}
	if a.Contains != "" && !strings.Contains(rec.Summary, a.Contains) {
		return &AssertionError{
			Type:     AssertAnswer,
			Expected: fmt.Sprintf("summary containing %q", a.Contains),
			Actual:   fmt.Sprintf("summary %q", rec.Summary),
		}
	}
	if a.PrimaryLine > 0 && rec.PrimaryLine != a.PrimaryLine {
		return &AssertionError{
			Type:     AssertAnswer,
			Expected: fmt.Sprintf("primary event at line %d", a.PrimaryLine),
			Actual:   fmt.Sprintf("primary event at line %d", rec.PrimaryLine),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions; evaluation
// never stops at the first failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalBinding:
			err = assertFinalBinding(result, a)
		case AssertAnswer:
			err = assertAnswer(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// HasKind reports whether any event in the trace has the given kind.
func HasKind(events []*event.Event, kind event.Kind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// CountKind returns how many events in the trace have the given kind.
func CountKind(events []*event.Event, kind event.Kind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// FindEvents returns the events matching a kind and a set of payload
// fields. An empty kind matches every kind; fields compare by value
// equality and a field absent from the payload never matches.
func FindEvents(events []*event.Event, kind event.Kind, fields event.Dict) []*event.Event {
	var out []*event.Event
	for _, ev := range events {
		if kind != "" && ev.Kind != kind {
			continue
		}
		match := true
		for key, want := range fields {
			got, ok := ev.PayloadValue(key)
			if !ok || !event.Equal(got, want) {
				match = false
				break
			}
		}
		if match {
			out = append(out, ev)
		}
	}
	return out
}

// MatchSequence reports whether the trace consists of exactly the given
// kinds in order, nothing more and nothing less.
func MatchSequence(events []*event.Event, kinds ...event.Kind) bool {
	if len(events) != len(kinds) {
		return false
	}
	for i, ev := range events {
		if ev.Kind != kinds[i] {
			return false
		}
	}
	return true
}
