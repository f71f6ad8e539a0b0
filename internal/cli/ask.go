package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/harness"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/store"
	"github.com/hindsightlab/hindsight/internal/why"
)

// Answer highlighting. The color package disables itself when NO_COLOR
// is set or stdout is not a terminal.
var (
	questionColor = color.New(color.FgCyan, color.Bold)
	foundColor    = color.New(color.FgGreen, color.Bold)
	missingColor  = color.New(color.FgYellow, color.Bold)
)

// questionFlags is the question flag surface shared by ask and watch.
type questionFlags struct {
	Why      string
	Variable string
	Function string
	Type     string
	Property string
	Field    string
	Value    string
	File     string
	Line     int
}

// addQuestionFlags registers the question flags on cmd.
func addQuestionFlags(cmd *cobra.Command, q *questionFlags) {
	cmd.Flags().StringVar(&q.Why, "why", "", "question kind")
	cmd.Flags().StringVar(&q.Variable, "variable", "", "variable name")
	cmd.Flags().StringVar(&q.Function, "function", "", "function name")
	cmd.Flags().StringVar(&q.Type, "type", "", "object type name")
	cmd.Flags().StringVar(&q.Property, "property", "", "property target, e.g. obj.attr")
	cmd.Flags().StringVar(&q.Field, "field", "", "binding name")
	cmd.Flags().StringVar(&q.Value, "value", "", "value asked about, parsed as YAML")
	cmd.Flags().StringVar(&q.File, "file", "", "constrain to one source file")
	cmd.Flags().IntVar(&q.Line, "line", 0, "line number")
}

// spec maps the flag set onto a question spec and validates it under
// the same rules scenario files use.
func (q *questionFlags) spec(cmd *cobra.Command) (harness.QuestionSpec, error) {
	spec := harness.QuestionSpec{
		Ask:      q.Why,
		Variable: q.Variable,
		Function: q.Function,
		Type:     q.Type,
		Property: q.Property,
		Field:    q.Field,
		File:     q.File,
		Line:     q.Line,
	}

	if cmd.Flags().Changed("value") {
		var v interface{}
		if err := yaml.Unmarshal([]byte(q.Value), &v); err != nil {
			return harness.QuestionSpec{}, fmt.Errorf("invalid --value: %v", err)
		}
		spec.Value = v
	}

	if err := spec.Validate(); err != nil {
		return harness.QuestionSpec{}, err
	}
	return spec, nil
}

// AskOptions holds flags for the ask command.
type AskOptions struct {
	*RootOptions
	questionFlags
	Session  string
	Database string
}

// AskResult holds one answered question.
type AskResult struct {
	Question string         `json:"question"`
	Summary  string         `json:"summary"`
	Found    bool           `json:"found"`
	Primary  *event.Event   `json:"primary,omitempty"`
	Evidence []*event.Event `json:"evidence,omitempty"`
	RunError string         `json:"run_error,omitempty"`
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask [script.hsl]",
		Short: "Ask a why question about a trace",
		Long: `Run a script and answer one retrospective question about its
trace, or answer against a previously archived session.

Question kinds and their arguments:
  value              --variable, --value (optional --file, --line)
  returned           --function, --value
  created            --type
  assigned           --property, --value
  line_executed      --line (optional --file)
  line_not_executed  --line (optional --file)
  called             --function
  unchanged          --field

Values parse as YAML: 30 is an int, "30" a string, [1, 2] a list.

A script that fails at runtime still answers: the question runs over
the partial trace up to the failure.

Examples:
  hindsight ask script.hsl --why value --variable total --value 30
  hindsight ask script.hsl --why line_not_executed --line 5
  hindsight ask --why called --function helper --session 0192ab... --db traces.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			return runAsk(opts, script, cmd)
		},
	}

	addQuestionFlags(cmd, &opts.questionFlags)
	_ = cmd.MarkFlagRequired("why")
	cmd.Flags().StringVar(&opts.Session, "session", "", "answer against this archived session instead of running a script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace archive")

	return cmd
}

func runAsk(opts *AskOptions, script string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	spec, err := opts.spec(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid question", err)
	}
	if opts.Session != "" && script != "" {
		return NewExitError(ExitCommandError, "--session and a script argument are mutually exclusive")
	}

	var rec *recorder.Recorder
	var scriptFile, runError string
	switch {
	case opts.Session != "":
		st, err := store.Open(resolveArchive(opts.Database))
		if err != nil {
			return WrapExitError(ExitCommandError, "open archive", err)
		}
		defer st.Close()

		loaded, _, err := loadSession(commandContext(cmd), st, opts.Session)
		if err != nil {
			return err
		}
		rec = loaded

	default:
		rec, scriptFile, runError, err = traceScript(opts.Format, script, cmd)
		if err != nil {
			return err
		}
	}

	q, err := harness.BuildQuestion(why.NewAsker(rec), spec, scriptFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid question", err)
	}

	result := answerQuestion(q)
	result.RunError = runError

	if opts.Format == "json" {
		return writeJSON(out, CLIResponse{Status: "ok", Data: result, SessionID: opts.Session})
	}
	outputAskText(out, result, opts.Verbose)
	return nil
}

// answerQuestion runs one prepared question and condenses the answer.
func answerQuestion(q *why.Question) AskResult {
	ans := q.Answer()
	return AskResult{
		Question: q.String(),
		Summary:  ans.Summary,
		Found:    ans.Found,
		Primary:  ans.Primary,
		Evidence: ans.Evidence,
	}
}

func outputAskText(w io.Writer, result AskResult, verbose bool) {
	if result.RunError != "" {
		fmt.Fprintf(w, "Note: script failed (%s); answering over the partial trace\n\n", result.RunError)
	}

	fmt.Fprintf(w, "%s %s\n", questionColor.Sprint("Q:"), result.Question)
	verdict := foundColor.Sprint("A:")
	if !result.Found {
		verdict = missingColor.Sprint("A:")
	}
	fmt.Fprintf(w, "%s %s\n", verdict, result.Summary)

	if len(result.Evidence) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Evidence ===")
		for _, ev := range result.Evidence {
			marker := "  "
			if result.Primary != nil && ev.ID == result.Primary.ID {
				marker = "* "
			}
			fmt.Fprintf(w, "  %s%s\n", marker, formatEventLine(ev, verbose))
		}
	}
}

// formatEventLine renders one event for text output. Verbose adds the
// payload.
func formatEventLine(ev *event.Event, verbose bool) string {
	line := fmt.Sprintf("[%d] %-16s %s:%d", ev.ID, ev.Kind, ev.File, ev.Line)
	if verbose && len(ev.Payload) > 0 {
		line += "  " + event.Format(ev.Payload)
	}
	return line
}
