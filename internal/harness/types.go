package harness

import (
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/why"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the run behaved as the scenario
	// demanded and every assertion held.
	Pass bool `json:"pass"`

	// Trace holds the recorded events in id order.
	Trace []*event.Event `json:"trace"`

	// Answers holds one record per scenario question, in order.
	Answers []AnswerRecord `json:"answers,omitempty"`

	// Globals holds the final global bindings of a clean run. Nil when
	// the run failed.
	Globals map[string]event.Value `json:"globals,omitempty"`

	// RunError is the error text of a run the scenario expected to
	// fail.
	RunError string `json:"run_error,omitempty"`

	// Errors contains assertion failure messages. Empty if Pass is
	// true.
	Errors []string `json:"errors,omitempty"`
}

// AnswerRecord condenses one answered question for assertions and
// golden snapshots.
type AnswerRecord struct {
	Question    string `json:"question"`
	Summary     string `json:"summary"`
	Found       bool   `json:"found"`
	PrimaryID   int64  `json:"primary_id,omitempty"`
	PrimaryLine int    `json:"primary_line,omitempty"`
	Evidence    int    `json:"evidence"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []*event.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddAnswer evaluates one question and appends its record.
func (r *Result) AddAnswer(q *why.Question) {
	ans := q.Answer()
	rec := AnswerRecord{
		Question: q.String(),
		Summary:  ans.Summary,
		Found:    ans.Found,
		Evidence: len(ans.Evidence),
	}
	if ans.Primary != nil {
		rec.PrimaryID = ans.Primary.ID
		rec.PrimaryLine = ans.Primary.Line
	}
	r.Answers = append(r.Answers, rec)
}
