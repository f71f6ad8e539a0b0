package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/testutil"
	"github.com/hindsightlab/hindsight/internal/why"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh driver with a deterministic clock,
// so the same scenario always records the same trace, timestamps
// included. Script output is discarded.
//
// Execution flow:
// 1. Resolve the script source (inline or file)
// 2. Instrument and run it with the scenario's bindings
// 3. Ask the scenario's questions over the trace
// 4. Evaluate assertions against trace, bindings and answers
//
// Run returns an error for infrastructure failures (unreadable script
// file, unconvertible bindings, an unexpected script error). Assertion
// failures land in the result instead.
func Run(scenario *Scenario) (*Result, error) {
	src := scenario.Script
	file := scenario.Name + ".hsl"
	if scenario.ScriptFile != "" {
		data, err := os.ReadFile(scenario.ScriptFile)
		if err != nil {
			return nil, fmt.Errorf("read script file: %w", err)
		}
		src = string(data)
		file = scenario.ScriptFile
	}

	bindings, err := convertBindings(scenario.Bindings)
	if err != nil {
		return nil, err
	}

	d := driver.New(driver.Options{
		Stdout:   io.Discard,
		MaxSteps: scenario.MaxSteps,
		Clock:    testutil.NewClock().Now,
	})

	result := NewResult()
	globals, runErr := d.Run(src, file, bindings)
	switch {
	case runErr != nil && scenario.ExpectError == "":
		return nil, fmt.Errorf("run script: %w", runErr)
	case runErr != nil:
		result.RunError = runErr.Error()
		if !strings.Contains(runErr.Error(), scenario.ExpectError) {
			result.AddError(fmt.Sprintf("expected error containing %q, got: %v", scenario.ExpectError, runErr))
		}
	case scenario.ExpectError != "":
		result.AddError(fmt.Sprintf("expected error containing %q, script ran clean", scenario.ExpectError))
	default:
		result.Globals = globals
	}

	// The partial trace of an expected failure stays queryable.
	result.Trace = d.Recorder().Events()

	asker := why.NewAsker(d.Recorder())
	for i, spec := range scenario.Questions {
		q, err := BuildQuestion(asker, spec, file)
		if err != nil {
			return nil, fmt.Errorf("questions[%d]: %w", i, err)
		}
		result.AddAnswer(q)
		slog.Debug("scenario question answered",
			"scenario", scenario.Name,
			"question", q.String(),
			"found", result.Answers[len(result.Answers)-1].Found,
		)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario executed",
		"scenario", scenario.Name,
		"events", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// BuildQuestion maps one question spec onto the asker. Line questions
// default to scriptFile; an explicit file overrides it. Unchanged
// questions span the whole trace. The CLI builds flag questions through
// the same mapping.
func BuildQuestion(asker *why.Asker, spec QuestionSpec, scriptFile string) (*why.Question, error) {
	file := spec.File
	if file == "" {
		file = scriptFile
	}

	switch spec.Ask {
	case AskValue:
		v, err := toEventValue(spec.Value)
		if err != nil {
			return nil, err
		}
		var constraints []why.Constraint
		if spec.File != "" {
			constraints = append(constraints, why.InFile(spec.File))
		}
		if spec.Line > 0 {
			constraints = append(constraints, why.AtOrBeforeLine(spec.Line))
		}
		return asker.WhyValue(spec.Variable, v, constraints...), nil
	case AskReturned:
		v, err := toEventValue(spec.Value)
		if err != nil {
			return nil, err
		}
		return asker.WhyReturned(spec.Function, v), nil
	case AskCreated:
		return asker.WhyCreated(spec.Type), nil
	case AskAssigned:
		v, err := toEventValue(spec.Value)
		if err != nil {
			return nil, err
		}
		return asker.WhyAssigned(spec.Property, v), nil
	case AskLineExecuted:
		return asker.WhyLineExecuted(file, spec.Line), nil
	case AskLineNotExecuted:
		return asker.WhyLineNotExecuted(file, spec.Line), nil
	case AskCalled:
		return asker.WhyCalled(spec.Function), nil
	case AskUnchanged:
		return asker.WhyUnchanged(spec.Field, time.Time{}), nil
	default:
		return nil, fmt.Errorf("unknown question kind %q", spec.Ask)
	}
}

// convertBindings converts YAML-parsed initial bindings into script
// values.
func convertBindings(bindings map[string]interface{}) (map[string]event.Value, error) {
	if len(bindings) == 0 {
		return nil, nil
	}
	out := make(map[string]event.Value, len(bindings))
	for key, val := range bindings {
		v, err := toEventValue(val)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// toEventValue converts a YAML-parsed value into the script value
// domain. YAML integers arrive as int or int64 depending on magnitude;
// both map to Int.
func toEventValue(val interface{}) (event.Value, error) {
	switch v := val.(type) {
	case nil:
		return event.Null{}, nil
	case string:
		return event.String(v), nil
	case bool:
		return event.Bool(v), nil
	case int:
		return event.Int(int64(v)), nil
	case int64:
		return event.Int(v), nil
	case float64:
		return event.Float(v), nil
	case []interface{}:
		list := make(event.List, len(v))
		for i, elem := range v {
			ev, err := toEventValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = ev
		}
		return list, nil
	case map[string]interface{}:
		dict := make(event.Dict, len(v))
		for key, elem := range v {
			ev, err := toEventValue(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			dict[key] = ev
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", val)
	}
}
