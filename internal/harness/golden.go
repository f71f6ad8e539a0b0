package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/hindsightlab/hindsight/internal/event"
)

// TraceSnapshot captures everything a scenario execution produced: the
// trace, the answers to its questions, and the final bindings. All
// fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []*event.Event
	Answers      []AnswerRecord
	Globals      map[string]event.Value
}

// toCanonicalMap flattens the snapshot for canonical JSON. Goroutine
// ids change from run to run, so trace rows drop them.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		row := event.CanonicalEvent(ev)
		delete(row, "goroutine")
		traceList[i] = row
	}

	answerList := make([]any, len(s.Answers))
	for i, rec := range s.Answers {
		row := map[string]any{
			"question": rec.Question,
			"summary":  rec.Summary,
			"found":    rec.Found,
			"evidence": rec.Evidence,
		}
		if rec.PrimaryID != 0 {
			row["primary_id"] = rec.PrimaryID
		}
		if rec.PrimaryLine != 0 {
			row["primary_line"] = rec.PrimaryLine
		}
		answerList[i] = row
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"answers":       answerList,
	}
	if len(s.Globals) > 0 {
		globals := make(map[string]any, len(s.Globals))
		for name, v := range s.Globals {
			globals[name] = v
		}
		result["globals"] = globals
	}
	return result
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails. A snapshot mismatch
// fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-obtained result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// Snapshot serializes a result to canonical golden bytes. The suite
// runner writes and compares these outside of go test.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Answers:      result.Answers,
		Globals:      result.Globals,
	}
	return event.MarshalCanonical(snapshot.toCanonicalMap())
}
