// Package harness provides scenario-driven conformance testing for the
// instrumentation pipeline.
//
// The harness loads YAML scenarios, runs their scripts through the real
// instrument-and-execute driver, asks causal questions over the
// recorded trace, and validates assertions as executable contract
// tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	script: |
//	  acc = 1
//	  for i in range(1, 6) {
//	    acc = acc * i
//	  }
//	questions:
//	  - ask: value
//	    variable: acc
//	    value: 120
//	assertions:
//	  - type: trace_count
//	    kind: loop-iteration
//	    count: 5
//	  - type: final_binding
//	    name: acc
//	    value: 120
//	  - type: answer
//	    question: 1
//	    found: true
//	    primary_line: 3
//
// A scenario names its script inline (script) or by path (script_file),
// never both. Optional fields: bindings seeds module-level names before
// the run, max_steps caps execution, and expect_error marks a scenario
// whose script is supposed to fail.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: at least one event matches the kind plus whichever
//     of target, file, line and value the assertion sets
//   - trace_order: the listed kinds appear as a subsequence of the trace
//   - trace_count: exactly count events match the kind and optional
//     target; count zero asserts absence
//   - final_binding: a module-level name holds the given value after
//     the run
//   - answer: one question's answer has the expected found flag,
//     summary (exact or substring) and primary line
//
// # Deterministic Testing
//
// Scenarios execute against a fresh driver with a deterministic clock,
// so the same scenario always records the same trace, timestamps
// included. Inline scripts run under the file name {name}.hsl, keeping
// line-based questions and golden files readable. Golden snapshots
// serialize through canonical JSON and drop goroutine ids, the one
// field that varies between runs.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/factorial.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// Traces can also be authored by hand, without a script, for unit tests
// of trace consumers:
//
//	events := harness.NewBuilder().
//	    File("demo.hsl").
//	    Assign("x", event.Int(10)).
//	    Line(2).Assign("y", event.Int(32), "x").
//	    Build()
package harness
