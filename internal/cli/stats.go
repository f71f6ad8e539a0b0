package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Session  string
	Database string
}

// StatsResult holds trace statistics with their provenance.
type StatsResult struct {
	File     string         `json:"file,omitempty"`
	Session  string         `json:"session,omitempty"`
	Label    string         `json:"label,omitempty"`
	Stats    recorder.Stats `json:"stats"`
	RunError string         `json:"run_error,omitempty"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats [script.hsl]",
		Short: "Summarize a recorded trace",
		Long: `Run a script and summarize its trace, or summarize an archived
session: event totals per kind, the files seen and the time span.

Examples:
  hindsight stats script.hsl
  hindsight stats --session 0192ab... --db traces.db
  hindsight stats script.hsl --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			return runStats(opts, script, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "summarize this archived session instead of running a script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace archive")

	return cmd
}

func runStats(opts *StatsOptions, script string, cmd *cobra.Command) error {
	if opts.Session != "" && script != "" {
		return NewExitError(ExitCommandError, "--session and a script argument are mutually exclusive")
	}

	result := StatsResult{Session: opts.Session}
	switch {
	case opts.Session != "":
		st, err := store.Open(resolveArchive(opts.Database))
		if err != nil {
			return WrapExitError(ExitCommandError, "open archive", err)
		}
		defer st.Close()

		rec, sess, err := loadSession(commandContext(cmd), st, opts.Session)
		if err != nil {
			return err
		}
		result.Label = sess.Label
		result.Stats = rec.Stats()

	default:
		rec, file, runError, err := traceScript(opts.Format, script, cmd)
		if err != nil {
			return err
		}
		result.File = file
		result.RunError = runError
		result.Stats = rec.Stats()
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, SessionID: opts.Session})
	}
	return outputStatsText(cmd, result)
}

func outputStatsText(cmd *cobra.Command, result StatsResult) error {
	w := cmd.OutOrStdout()

	switch {
	case result.Session != "":
		fmt.Fprintf(w, "Stats for session %s (%s)\n", result.Session, result.Label)
	default:
		fmt.Fprintf(w, "Stats for %s\n", result.File)
	}
	if result.RunError != "" {
		fmt.Fprintf(w, "Note: script failed (%s); stats cover the partial trace\n", result.RunError)
	}
	fmt.Fprintln(w)
	printStats(w, result.Stats)
	return nil
}
