package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/testutil"
)

func TestRun_SumScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Trace, 3)
	assert.True(t, event.Equal(event.Int(30), result.Globals["z"]))

	require.Len(t, result.Answers, 1)
	answer := result.Answers[0]
	assert.Equal(t, `Why did variable "z" have value 30?`, answer.Question)
	assert.Equal(t, `Variable "z" got value 30 from the assignment at line 3`, answer.Summary)
	assert.True(t, answer.Found)
	assert.Equal(t, int64(3), answer.PrimaryID)
	assert.Equal(t, 3, answer.PrimaryLine)
	assert.Equal(t, 1, answer.Evidence)
}

func TestRun_InlineScriptFileName(t *testing.T) {
	scenario, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	for _, ev := range result.Trace {
		assert.Equal(t, "sum_pipeline.hsl", ev.File)
	}
}

func TestRun_DeterministicTimestamps(t *testing.T) {
	scenario, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, second.Trace, len(first.Trace))
	for i := range first.Trace {
		assert.True(t, first.Trace[i].Time.Equal(second.Trace[i].Time),
			"event %d times differ across runs", i)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, first.Trace[0].Time.Equal(base.Add(time.Millisecond)))
	assert.True(t, first.Trace[2].Time.Equal(base.Add(3*time.Millisecond)))
}

func TestRun_BranchScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: branch_taken
description: "Then arm executes, else arm never runs"
script: |
  x = 10
  if x > 5 {
    label = "big"
  } else {
    label = "small"
  }
questions:
  - ask: line_executed
    line: 3
  - ask: line_not_executed
    line: 5
assertions:
  - type: trace_contains
    kind: branch
    line: 2
  - type: trace_count
    kind: assign
    target: label
    count: 1
  - type: answer
    question: 1
    found: true
    primary_line: 3
  - type: answer
    question: 2
    found: false
    contains: "may have blocked it"
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.True(t, event.Equal(event.String("big"), result.Globals["label"]))

	require.Len(t, result.Answers, 2)
	assert.Equal(t, "Line 3 of branch_taken.hsl executed once due to 1 control flow decision",
		result.Answers[0].Summary)
	assert.Equal(t, "Line 5 of branch_taken.hsl never executed; 1 branch decision before it may have blocked it",
		result.Answers[1].Summary)
	assert.Zero(t, result.Answers[1].PrimaryID)
}

func TestRun_FunctionScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: add_pipeline
description: "A call's return value lands in a module binding"
script: |
  func add(a, b) {
    return a + b
  }
  out = add(5, 3)
questions:
  - ask: returned
    function: add
    value: 8
  - ask: called
    function: add
  - ask: value
    variable: out
    value: 8
assertions:
  - type: trace_order
    kinds: [function-entry, return, assign]
  - type: answer
    question: 1
    summary: 'Function "add" returned 8 at line 2'
  - type: answer
    question: 2
    contains: "was called once"
  - type: answer
    question: 3
    primary_line: 4
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FactorialLastWriteWins(t *testing.T) {
	scenario := &Scenario{
		Name:        "factorial_primary",
		Description: "The newest matching assignment is the primary answer",
		Script:      testutil.FactorialScript,
		Questions: []QuestionSpec{
			{Ask: AskValue, Variable: "acc", Value: 120},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "loop-iteration", Count: 5},
			{Type: AssertAnswer, Question: 1, Found: boolPtr(true), PrimaryLine: 3},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.True(t, event.Equal(event.Int(120), result.Globals["acc"]))
}

func TestRun_BindingsSeedGlobals(t *testing.T) {
	scenario := &Scenario{
		Name:        "seeded",
		Description: "Initial bindings reach the script",
		Script:      "out = seed * 2\n",
		Bindings:    map[string]interface{}{"seed": 21},
		Assertions: []Assertion{
			{Type: AssertFinalBinding, Name: "out", Value: 42},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnchangedFieldQuestion(t *testing.T) {
	scenario := &Scenario{
		Name:        "constant_binding",
		Description: "A seeded binding nothing writes to stays put",
		Script:      "x = 1\ny = 2\n",
		Bindings:    map[string]interface{}{"fixed": 7},
		Questions: []QuestionSpec{
			{Ask: AskUnchanged, Field: "fixed"},
		},
		Assertions: []Assertion{
			{Type: AssertAnswer, Question: 1, Found: boolPtr(false), Contains: "did not change"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ExpectedErrorKeepsPartialTrace(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: crash_midway
description: "The partial trace of a failing script stays queryable"
script: |
  x = 10
  y = 1 / 0
expect_error: "division by zero"
assertions:
  - type: trace_count
    kind: assign
    count: 1
  - type: trace_contains
    kind: assign
    target: x
    value: 10
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.RunError, "division by zero")
	assert.Len(t, result.Trace, 1)
	assert.Nil(t, result.Globals)
}

func TestRun_MaxStepsQuota(t *testing.T) {
	scenario := &Scenario{
		Name:        "runaway_loop",
		Description: "The step quota stops an unbounded loop",
		Script:      "n = 0\nwhile n < 100000 {\n  n = n + 1\n}\n",
		MaxSteps:    50,
		ExpectError: "exceeded max steps",
		Assertions: []Assertion{
			{Type: AssertTraceContains, Kind: "while-condition"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.RunError, "exceeded max steps")
}

func TestRun_ErrorWithoutExpectation(t *testing.T) {
	scenario := &Scenario{
		Name:        "surprise_crash",
		Description: "An unexpected script error is an infrastructure failure",
		Script:      "x = ghost\n",
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run script")
	assert.Contains(t, err.Error(), "not defined")
}

func TestRun_ExpectedErrorButRanClean(t *testing.T) {
	scenario := &Scenario{
		Name:        "too_clean",
		Description: "A clean run fails an expect_error scenario",
		Script:      "x = 1\n",
		ExpectError: "division by zero",
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "script ran clean")
}

func TestRun_ExpectedErrorMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_crash",
		Description: "The wrong error text fails the scenario",
		Script:      "x = ghost\n",
		ExpectError: "division by zero",
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], `expected error containing "division by zero"`)
	assert.Contains(t, result.RunError, "not defined")
}

func TestRun_FailingAssertionCollected(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_sum",
		Description: "A wrong count fails the scenario but not the run",
		Script:      testutil.SumScript,
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 99},
			{Type: AssertFinalBinding, Name: "z", Value: 30},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: trace_count")
}

func TestRun_UnknownQuestionKind(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_question",
		Description: "An unknown ask is an infrastructure failure",
		Script:      "x = 1\n",
		Questions:   []QuestionSpec{{Ask: "reasoned"}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 1},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `questions[0]: unknown question kind "reasoned"`)
}

func TestRun_UnsupportedBindingValue(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_binding",
		Description: "A binding outside the value domain is rejected",
		Script:      "x = 1\n",
		Bindings:    map[string]interface{}{"bad": struct{}{}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "assign", Count: 1},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `binding "bad"`)
	assert.Contains(t, err.Error(), "unsupported value type")
}

func TestToEventValue_Conversions(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want event.Value
	}{
		{"nil", nil, event.Null{}},
		{"string", "hi", event.String("hi")},
		{"bool", true, event.Bool(true)},
		{"int", 42, event.Int(42)},
		{"int64", int64(1 << 40), event.Int(1 << 40)},
		{"float", 2.5, event.Float(2.5)},
		{"list", []interface{}{1, "a"}, event.List{event.Int(1), event.String("a")}},
		{"dict", map[string]interface{}{"k": 1}, event.Dict{"k": event.Int(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toEventValue(tt.in)
			require.NoError(t, err)
			assert.True(t, event.Equal(tt.want, got),
				"got %s want %s", event.Format(got), event.Format(tt.want))
		})
	}
}

func TestToEventValue_NestedError(t *testing.T) {
	_, err := toEventValue([]interface{}{1, struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list[1]")

	_, err = toEventValue(map[string]interface{}{"k": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "k"`)
}
