package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/harness"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden snapshots
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run every scenario file in a directory against the full pipeline:
instrument, execute, ask, assert. Golden trace snapshots under
{dir}/golden are compared when present.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  hindsight test ./scenarios
  hindsight test ./scenarios --filter "checkout_*"
  hindsight test ./scenarios --update
  hindsight test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden snapshots")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	suite, err := harness.RunSuite(scenariosDir, harness.SuiteOptions{
		Filter: opts.Filter,
		Update: opts.Update,
	})
	var noScenarios *harness.NoScenariosError
	if errors.As(err, &noScenarios) {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: &harness.SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenarios", err)
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, suite)
	}
	return outputTestText(cmd, suite)
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, suite *harness.SuiteResult) error {
	resp := CLIResponse{Status: "ok", Data: suite}
	if suite.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", suite.Failed),
		}
	}
	if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// outputTestText outputs the suite result as text.
func outputTestText(cmd *cobra.Command, suite *harness.SuiteResult) error {
	w := cmd.OutOrStdout()

	for _, sc := range suite.Scenarios {
		name := sc.Name
		if name == "" {
			name = filepath.Base(sc.Path)
		}
		suffix := ""
		if sc.GoldenUpdated {
			suffix = " (golden updated)"
		}
		if sc.Pass {
			fmt.Fprintf(w, "%s %s%s\n", passColor.Sprint("✓"), name, suffix)
			continue
		}
		fmt.Fprintf(w, "%s %s%s\n", failColor.Sprint("✗"), name, suffix)
		for _, e := range sc.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", suite.Passed, suite.Failed, suite.Total)

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
