package harness

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/hindsightlab/hindsight/internal/event"
)

// Scenario defines one executable trace test: a script to run, the
// questions to ask over its trace, and assertions on the trace, the
// final bindings and the answers.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name and the script file name of an inline script, so the
	// schema restricts it to lowercase words.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Script is inline script source. Exactly one of Script and
	// ScriptFile must be set. An inline script runs under the file name
	// {name}.hsl.
	Script string `yaml:"script,omitempty"`

	// ScriptFile is a script path, resolved relative to the scenario
	// file location.
	ScriptFile string `yaml:"script_file,omitempty"`

	// Bindings seed the script's global scope before execution.
	Bindings map[string]interface{} `yaml:"bindings,omitempty"`

	// MaxSteps bounds the run's statement count. Zero means unlimited.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// ExpectError, when set, inverts the run contract: the script must
	// fail with an error containing this substring, and assertions then
	// run over the partial trace.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Questions are asked over the trace after the run, in order.
	// Answer assertions reference them by 1-based index.
	Questions []QuestionSpec `yaml:"questions,omitempty"`

	// Assertions validate the trace, the final bindings and the
	// answers.
	Assertions []Assertion `yaml:"assertions"`
}

// QuestionSpec selects one question variant and its arguments.
// Which arguments are required depends on Ask; see the Ask* constants.
type QuestionSpec struct {
	// Ask is the question kind: one of the Ask* constants.
	Ask string `yaml:"ask"`

	// Variable names the variable of a value question.
	Variable string `yaml:"variable,omitempty"`

	// Function names the function of returned and called questions.
	Function string `yaml:"function,omitempty"`

	// Type names the object type of a created question.
	Type string `yaml:"type,omitempty"`

	// Property names the target of an assigned question.
	Property string `yaml:"property,omitempty"`

	// Field names the binding of an unchanged question.
	Field string `yaml:"field,omitempty"`

	// Value is the value asked about (value, returned, assigned).
	Value interface{} `yaml:"value,omitempty"`

	// File constrains the question to one source file. Line questions
	// default to the scenario's script file when File is empty.
	File string `yaml:"file,omitempty"`

	// Line is the line asked about (line questions) or an upper bound
	// (value questions).
	Line int `yaml:"line,omitempty"`
}

// Question kinds.
const (
	AskValue           = "value"
	AskReturned        = "returned"
	AskCreated         = "created"
	AskAssigned        = "assigned"
	AskLineExecuted    = "line_executed"
	AskLineNotExecuted = "line_not_executed"
	AskCalled          = "called"
	AskUnchanged       = "unchanged"
)

// Assertion validates one aspect of a scenario run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": some event matches kind plus the optional
	//   target/file/line/value constraints
	// - "trace_order": kinds appear in order as a trace subsequence
	// - "trace_count": exactly Count events match kind (and Target)
	// - "final_binding": a global has the given value after the run
	// - "answer": an answered question matches the expectations
	Type string `yaml:"type"`

	// Kind is the event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Target is the assignment target name (trace_contains,
	// trace_count). Empty matches any target.
	Target string `yaml:"target,omitempty"`

	// File and Line constrain the event location (trace_contains).
	File string `yaml:"file,omitempty"`
	Line int    `yaml:"line,omitempty"`

	// Value is the expected payload value (trace_contains) or binding
	// value (final_binding).
	Value interface{} `yaml:"value,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Name is the global binding name (final_binding).
	Name string `yaml:"name,omitempty"`

	// Question is the 1-based index of the question an answer
	// assertion checks. Zero selects the first question.
	Question int `yaml:"question,omitempty"`

	// Found is the expected Answer.Found (answer).
	Found *bool `yaml:"found,omitempty"`

	// Summary is the exact expected answer summary (answer).
	Summary string `yaml:"summary,omitempty"`

	// Contains is a required answer summary substring (answer).
	Contains string `yaml:"contains,omitempty"`

	// PrimaryLine is the expected line of the primary event (answer).
	PrimaryLine int `yaml:"primary_line,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalBinding  = "final_binding"
	AssertAnswer        = "answer"
)

//go:embed schema.cue
var schemaCUE string

// LoadScenario reads and parses a scenario YAML file. Script paths
// resolve relative to the scenario file location. Returns an error if
// the file is missing, malformed, contains unknown fields (typos),
// is missing required fields or violates the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return parseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML from memory. Script paths stay
// as written, resolved against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	return parseScenario(data, "")
}

// parseScenario runs the decode and validation layers in order of
// message quality: a strict YAML decode into the struct (catches typos
// like "assertion:" vs "assertions:"), the Go validation (missing and
// inconsistent fields, named plainly), then the embedded CUE schema
// over the raw document (shape errors the struct decode absorbs
// silently, with the offending path in the message).
func parseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	// Resolve the script path before validation checks it exists
	if baseDir != "" && scenario.ScriptFile != "" && !filepath.IsAbs(scenario.ScriptFile) {
		scenario.ScriptFile = filepath.Join(baseDir, scenario.ScriptFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// validateSchema checks the raw document against the embedded CUE
// scenario schema.
func validateSchema(doc map[string]interface{}) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup scenario schema: %w", err)
	}

	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return schemaError(err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError flattens a CUE error list to its first entry, which
// carries the most specific path.
func schemaError(err error) error {
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		err = errs[0]
	}
	return fmt.Errorf("scenario schema: %w", err)
}

// validateScenario checks that required fields are present and
// consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Script == "" && s.ScriptFile == "" {
		return fmt.Errorf("either script or script_file is required")
	}
	if s.Script != "" && s.ScriptFile != "" {
		return fmt.Errorf("script and script_file are mutually exclusive")
	}
	if s.ScriptFile != "" {
		if _, err := os.Stat(s.ScriptFile); os.IsNotExist(err) {
			return fmt.Errorf("script file not found: %s", s.ScriptFile)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("questions[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Questions)); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the per-kind required arguments. The CLI validates
// flag-built questions through the same rules.
func (q *QuestionSpec) Validate() error {
	switch q.Ask {
	case "":
		return errors.New("ask is required")
	case AskValue:
		if q.Variable == "" {
			return fmt.Errorf("variable is required for %s", q.Ask)
		}
		if q.Value == nil {
			return fmt.Errorf("value is required for %s", q.Ask)
		}
	case AskReturned:
		if q.Function == "" {
			return fmt.Errorf("function is required for %s", q.Ask)
		}
		if q.Value == nil {
			return fmt.Errorf("value is required for %s", q.Ask)
		}
	case AskCreated:
		if q.Type == "" {
			return fmt.Errorf("type is required for %s", q.Ask)
		}
	case AskAssigned:
		if q.Property == "" {
			return fmt.Errorf("property is required for %s", q.Ask)
		}
		if q.Value == nil {
			return fmt.Errorf("value is required for %s", q.Ask)
		}
	case AskLineExecuted, AskLineNotExecuted:
		if q.Line <= 0 {
			return fmt.Errorf("line is required for %s", q.Ask)
		}
	case AskCalled:
		if q.Function == "" {
			return fmt.Errorf("function is required for %s", q.Ask)
		}
	case AskUnchanged:
		if q.Field == "" {
			return fmt.Errorf("field is required for %s", q.Ask)
		}
	default:
		return fmt.Errorf("unknown question kind %q", q.Ask)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, numQuestions int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
		if !event.Kind(a.Kind).Valid() {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
		for _, k := range a.Kinds {
			if !event.Kind(k).Valid() {
				return fmt.Errorf("assertions[%d]: unknown event kind %q", index, k)
			}
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if !event.Kind(a.Kind).Valid() {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalBinding:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for final_binding", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_binding", index)
		}
	case AssertAnswer:
		if numQuestions == 0 {
			return fmt.Errorf("assertions[%d]: answer assertion requires a questions list", index)
		}
		if a.Question > numQuestions {
			return fmt.Errorf("assertions[%d]: question %d out of range (%d questions)", index, a.Question, numQuestions)
		}
		if a.Found == nil && a.Summary == "" && a.Contains == "" && a.PrimaryLine == 0 {
			return fmt.Errorf("assertions[%d]: answer assertion needs found, summary, contains or primary_line", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
