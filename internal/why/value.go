package why

import (
	"fmt"

	"github.com/hindsightlab/hindsight/internal/event"
)

// WhyValue asks why a variable held a value. Constraints may narrow the
// scan to one file or to assignments at or before a line.
func (a *Asker) WhyValue(variable string, value event.Value, constraints ...Constraint) *Question {
	scope := &valueScope{}
	for _, c := range constraints {
		c(scope)
	}
	text := fmt.Sprintf("Why did variable %q have value %s?", variable, event.Format(value))
	return newQuestion(text, func() *Answer {
		return a.analyzeValue(variable, value, scope)
	})
}

func (a *Asker) analyzeValue(variable string, value event.Value, scope *valueScope) *Answer {
	matches := []*event.Event{}
	for _, ev := range a.rec.Events() {
		if ev.Kind != event.KindAssign && ev.Kind != event.KindAugmentedAssign {
			continue
		}
		if ev.TargetName() != variable {
			continue
		}
		if !fileMatches(ev.File, scope.file) {
			continue
		}
		if scope.maxLine > 0 && ev.Line > scope.maxLine {
			continue
		}
		// Payload first; the locals snapshot is the fallback for
		// events recorded without a value field.
		ok := payloadValueEquals(ev, value)
		if !ok {
			if snap, present := ev.Locals[variable]; present {
				ok = event.Equal(snap, value)
			}
		}
		if ok {
			matches = append(matches, ev)
		}
	}

	if len(matches) == 0 {
		return &Answer{
			Summary:  fmt.Sprintf("No assignment gave variable %q value %s", variable, event.Format(value)),
			Evidence: []*event.Event{},
			Sources:  []*event.Event{},
		}
	}
	primary := matches[len(matches)-1]
	return &Answer{
		Summary: fmt.Sprintf("Variable %q got value %s from the assignment at line %d",
			variable, event.Format(value), primary.Line),
		Found:    true,
		Primary:  primary,
		Evidence: matches,
		Sources:  matches,
	}
}

// WhyReturned asks why a function returned a value.
func (a *Asker) WhyReturned(function string, value event.Value) *Question {
	text := fmt.Sprintf("Why did function %q return %s?", function, event.Format(value))
	return newQuestion(text, func() *Answer {
		return a.analyzeReturned(function, value)
	})
}

func (a *Asker) analyzeReturned(function string, value event.Value) *Answer {
	events := a.rec.Events()
	matches := []*event.Event{}
	for _, ev := range events {
		if ev.Kind != event.KindReturn {
			continue
		}
		if !funcNameIs(ev, function) {
			continue
		}
		if payloadValueEquals(ev, value) {
			matches = append(matches, ev)
		}
	}
	if len(matches) == 0 {
		return &Answer{
			Summary: fmt.Sprintf("No return of %s from function %q was recorded",
				event.Format(value), function),
			Evidence: []*event.Event{},
			Sources:  []*event.Event{},
		}
	}
	primary := matches[len(matches)-1]
	deps := returnTaint(events, primary, value)
	summary := fmt.Sprintf("Function %q returned %s at line %d", function, event.Format(value), primary.Line)
	if len(deps) > 0 {
		summary += " due to " + pluralize(len(deps), "data dependency", "data dependencies")
	}
	return &Answer{
		Summary:      summary,
		Found:        true,
		Primary:      primary,
		Evidence:     mergeEvidence(matches, deps),
		Sources:      matches,
		Dependencies: deps,
	}
}

// returnTaint collects assignment and call events before the return, in
// the same file, whose local snapshot holds a variable equal to the
// returned value. Equality is the whole analysis; it is a taint join,
// not data flow.
func returnTaint(events []*event.Event, ret *event.Event, value event.Value) []*event.Event {
	out := []*event.Event{}
	for _, ev := range events {
		if ev.ID >= ret.ID {
			continue
		}
		if !ev.Kind.IsAssignment() && ev.Kind != event.KindCall {
			continue
		}
		if !fileMatches(ev.File, ret.File) {
			continue
		}
		if snapshotContains(ev.Locals, value) {
			out = append(out, ev)
		}
	}
	return out
}

// WhyCreated asks why an object of the named runtime type came to exist.
func (a *Asker) WhyCreated(typeName string) *Question {
	text := fmt.Sprintf("Why was an object of type %q created?", typeName)
	return newQuestion(text, func() *Answer {
		return a.analyzeCreated(typeName)
	})
}

func (a *Asker) analyzeCreated(typeName string) *Answer {
	events := a.rec.Events()
	matches := []*event.Event{}
	for _, ev := range events {
		if ev.Kind != event.KindAssign {
			continue
		}
		if v, ok := ev.PayloadValue(event.KeyValue); ok && event.TypeName(v) == typeName {
			matches = append(matches, ev)
			continue
		}
		if snapshotHasType(ev.Locals, typeName) {
			matches = append(matches, ev)
		}
	}
	if len(matches) == 0 {
		return &Answer{
			Summary:  fmt.Sprintf("No object of type %q was created", typeName),
			Evidence: []*event.Event{},
			Sources:  []*event.Event{},
		}
	}
	primary := matches[len(matches)-1]
	deps := branchesBefore(events, primary.ID, primary.File)
	summary := fmt.Sprintf("An object of type %q was created %s", typeName, times(len(matches)))
	if len(deps) > 0 {
		summary += " due to " + pluralize(len(deps), "control flow decision", "control flow decisions")
	}
	return &Answer{
		Summary:      summary,
		Found:        true,
		Primary:      primary,
		Evidence:     mergeEvidence(matches, deps),
		Sources:      matches,
		Dependencies: deps,
	}
}

// snapshotHasType reports whether any top-level snapshot entry has the
// given runtime type name. Asking for "int" will match any integer in
// scope; the answer is only as precise as the name asked about.
func snapshotHasType(d event.Dict, typeName string) bool {
	for _, v := range d {
		if event.TypeName(v) == typeName {
			return true
		}
	}
	return false
}

// WhyAssigned asks why a property ended up with a value. The property
// may be a plain variable or a dotted attribute path as it appears in
// source.
func (a *Asker) WhyAssigned(property string, value event.Value) *Question {
	text := fmt.Sprintf("Why was property %q assigned %s?", property, event.Format(value))
	return newQuestion(text, func() *Answer {
		return a.analyzeAssigned(property, value)
	})
}

func (a *Asker) analyzeAssigned(property string, value event.Value) *Answer {
	events := a.rec.Events()
	matches := []*event.Event{}
	for _, ev := range events {
		if !ev.Kind.IsAssignment() {
			continue
		}
		ok := ev.TargetName() == property && payloadValueEquals(ev, value)
		if !ok {
			if snap, present := ev.Locals[property]; present {
				ok = event.Equal(snap, value)
			}
		}
		if ok {
			matches = append(matches, ev)
		}
	}
	if len(matches) == 0 {
		return &Answer{
			Summary: fmt.Sprintf("No assignment gave property %q value %s",
				property, event.Format(value)),
			Evidence: []*event.Event{},
			Sources:  []*event.Event{},
		}
	}
	primary := matches[len(matches)-1]
	deps := provenance(events, primary, value)
	summary := fmt.Sprintf("Property %q got value %s from the assignment at line %d",
		property, event.Format(value), primary.Line)
	if len(deps) > 0 {
		summary += " via " + pluralize(len(deps),
			"earlier event carrying that value", "earlier events carrying that value")
	}
	return &Answer{
		Summary:      summary,
		Found:        true,
		Primary:      primary,
		Evidence:     mergeEvidence(matches, deps),
		Sources:      matches,
		Dependencies: deps,
	}
}

// provenance collects assignment, call and return events before the
// primary whose payload or snapshot carries an equal value. Where the
// value travelled is inferred from equality alone.
func provenance(events []*event.Event, primary *event.Event, value event.Value) []*event.Event {
	out := []*event.Event{}
	for _, ev := range events {
		if ev.ID >= primary.ID {
			continue
		}
		switch {
		case ev.Kind.IsAssignment(), ev.Kind == event.KindCall, ev.Kind == event.KindReturn:
		default:
			continue
		}
		if payloadContains(ev, value) || snapshotContains(ev.Locals, value) {
			out = append(out, ev)
		}
	}
	return out
}

// payloadContains reports whether any payload entry equals v.
func payloadContains(ev *event.Event, v event.Value) bool {
	for _, entry := range ev.Payload {
		if event.Equal(entry, v) {
			return true
		}
	}
	return false
}
