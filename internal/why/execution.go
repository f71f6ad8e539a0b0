package why

import (
	"fmt"
	"time"

	"github.com/hindsightlab/hindsight/internal/event"
)

// WhyLineExecuted asks why a source line ran.
func (a *Asker) WhyLineExecuted(file string, line int) *Question {
	text := fmt.Sprintf("Why did line %d of %s execute?", line, file)
	return newQuestion(text, func() *Answer {
		return a.analyzeLineExecuted(file, line)
	})
}

func (a *Asker) analyzeLineExecuted(file string, line int) *Answer {
	events := a.rec.Events()
	hits := lineHits(events, file, line)
	if len(hits) == 0 {
		return &Answer{
			Summary:    fmt.Sprintf("Line %d of %s never executed", line, file),
			Evidence:   []*event.Event{},
			Executions: []*event.Event{},
		}
	}
	primary := hits[len(hits)-1]
	deps := branchesBefore(events, primary.ID, file)
	summary := fmt.Sprintf("Line %d of %s executed %s", line, file, times(len(hits)))
	if len(deps) > 0 {
		summary += " due to " + pluralize(len(deps), "control flow decision", "control flow decisions")
	}
	return &Answer{
		Summary:      summary,
		Found:        true,
		Primary:      primary,
		Evidence:     mergeEvidence(hits, deps),
		Executions:   hits,
		Dependencies: deps,
	}
}

// WhyLineNotExecuted asks why a source line never ran. When the line
// did run, the answer contradicts the premise and reports the
// executions instead.
func (a *Asker) WhyLineNotExecuted(file string, line int) *Question {
	text := fmt.Sprintf("Why didn't line %d of %s execute?", line, file)
	return newQuestion(text, func() *Answer {
		return a.analyzeLineNotExecuted(file, line)
	})
}

func (a *Asker) analyzeLineNotExecuted(file string, line int) *Answer {
	events := a.rec.Events()
	hits := lineHits(events, file, line)
	if len(hits) > 0 {
		return &Answer{
			Summary:    fmt.Sprintf("Line %d of %s actually executed %s", line, file, times(len(hits))),
			Found:      true,
			Primary:    hits[len(hits)-1],
			Evidence:   hits,
			Executions: hits,
		}
	}
	// No trace of the line. Decisions taken earlier in the file are
	// the candidate blockers; without static reachability the line
	// number is the only notion of "earlier" available.
	blocking := branchesAtSmallerLines(events, file, line)
	summary := fmt.Sprintf("Line %d of %s never executed", line, file)
	if len(blocking) > 0 {
		summary += fmt.Sprintf("; %s before it may have blocked it",
			pluralize(len(blocking), "branch decision", "branch decisions"))
	}
	return &Answer{
		Summary:      summary,
		Evidence:     mergeEvidence(blocking),
		Executions:   []*event.Event{},
		Dependencies: blocking,
	}
}

func lineHits(events []*event.Event, file string, line int) []*event.Event {
	out := []*event.Event{}
	for _, ev := range events {
		if ev.Line == line && fileMatches(ev.File, file) {
			out = append(out, ev)
		}
	}
	return out
}

func branchesAtSmallerLines(events []*event.Event, file string, line int) []*event.Event {
	out := []*event.Event{}
	for _, ev := range events {
		if ev.Kind == event.KindBranch && ev.Line < line && fileMatches(ev.File, file) {
			out = append(out, ev)
		}
	}
	return out
}

// WhyCalled asks why a function ran. Both function-entry events from
// instrumented runs and synthetic call events match.
func (a *Asker) WhyCalled(function string) *Question {
	text := fmt.Sprintf("Why was function %q called?", function)
	return newQuestion(text, func() *Answer {
		return a.analyzeCalled(function)
	})
}

func (a *Asker) analyzeCalled(function string) *Answer {
	events := a.rec.Events()
	calls := []*event.Event{}
	for _, ev := range events {
		if ev.Kind != event.KindFunctionEntry && ev.Kind != event.KindCall {
			continue
		}
		if funcNameIs(ev, function) {
			calls = append(calls, ev)
		}
	}
	if len(calls) == 0 {
		return &Answer{
			Summary:    fmt.Sprintf("Function %q was never called", function),
			Evidence:   []*event.Event{},
			Executions: []*event.Event{},
		}
	}
	primary := calls[len(calls)-1]
	deps := branchesBefore(events, primary.ID, primary.File)
	summary := fmt.Sprintf("Function %q was called %s", function, times(len(calls)))
	if len(deps) > 0 {
		summary += " due to " + pluralize(len(deps), "control flow decision", "control flow decisions")
	}
	return &Answer{
		Summary:      summary,
		Found:        true,
		Primary:      primary,
		Evidence:     mergeEvidence(calls, deps),
		Executions:   calls,
		Dependencies: deps,
	}
}

// WhyUnchanged asks why a field kept its value after a point in time.
// When the field was in fact reassigned, the answer contradicts the
// premise and reports the reassignments instead.
func (a *Asker) WhyUnchanged(field string, after time.Time) *Question {
	text := fmt.Sprintf("Why didn't field %q change after %s?", field, after.Format(time.RFC3339))
	return newQuestion(text, func() *Answer {
		return a.analyzeUnchanged(field, after)
	})
}

func (a *Asker) analyzeUnchanged(field string, after time.Time) *Answer {
	changed := []*event.Event{}
	inScope := []*event.Event{}
	blocking := []*event.Event{}
	for _, ev := range a.rec.Events() {
		if !ev.Time.After(after) {
			continue
		}
		switch {
		case ev.Kind.IsAssignment() && ev.TargetName() == field:
			changed = append(changed, ev)
		case ev.Kind == event.KindBranch || ev.Kind == event.KindWhileCondition:
			blocking = append(blocking, ev)
		default:
			if _, ok := ev.Locals[field]; ok {
				inScope = append(inScope, ev)
			}
		}
	}
	stamp := after.Format(time.RFC3339)
	if len(changed) > 0 {
		return &Answer{
			Summary:    fmt.Sprintf("Field %q actually did change %s after %s", field, times(len(changed)), stamp),
			Found:      true,
			Primary:    changed[len(changed)-1],
			Evidence:   changed,
			Executions: changed,
		}
	}
	summary := fmt.Sprintf("Field %q did not change after %s", field, stamp)
	switch {
	case len(blocking) > 0:
		summary += " due to " + pluralize(len(blocking), "control flow decision", "control flow decisions")
	case len(inScope) > 0:
		summary += fmt.Sprintf(", though %s had it in scope",
			pluralize(len(inScope), "event", "events"))
	}
	return &Answer{
		Summary:      summary,
		Evidence:     mergeEvidence(blocking, inScope),
		Executions:   []*event.Event{},
		Dependencies: blocking,
	}
}
