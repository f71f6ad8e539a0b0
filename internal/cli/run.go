package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/project"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/rewrite"
	"github.com/hindsightlab/hindsight/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Save     bool
	Database string
	Label    string
	MaxSteps int
	Fallback bool
}

// RunResult holds the outcome of one script execution.
type RunResult struct {
	File      string                 `json:"file"`
	Globals   map[string]event.Value `json:"globals,omitempty"`
	Stats     recorder.Stats         `json:"stats"`
	Fallback  bool                   `json:"fallback,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	RunError  string                 `json:"run_error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [script.hsl]",
		Short: "Run a script and record its trace",
		Long: `Instrument a script, execute it and report the recorded trace.

Without a script argument the entry from the nearest hindsight.toml
runs. The manifest also supplies the step limit, the disabled event
kinds and the default archive path; flags override it.

A runtime error keeps the partial trace: the events leading up to the
failure are still reported and, with --save, still archived.

Examples:
  hindsight run script.hsl
  hindsight run script.hsl --save --db traces.db
  hindsight run script.hsl --max-steps 100000
  hindsight run broken.hsl --fallback`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			return runScript(opts, script, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Save, "save", false, "archive the trace as a session")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace archive (default from hindsight.toml, else hindsight.db)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "session label (default: script path)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "abort after this many executed statements (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Fallback, "fallback", false, "run uninstrumented when the rewrite does not parse back")

	return cmd
}

func runScript(opts *RunOptions, script string, cmd *cobra.Command) error {
	manifest, _, err := project.Discover(".")
	if err != nil {
		return WrapExitError(ExitCommandError, "load project manifest", err)
	}
	if script == "" {
		script = manifest.EntryPath()
	}
	if script == "" {
		return NewExitError(ExitCommandError, "no script given and no [run].entry in hindsight.toml")
	}

	src, err := os.ReadFile(script)
	if err != nil {
		return WrapExitError(ExitCommandError, "read script", err)
	}

	maxSteps := manifest.MaxSteps()
	if cmd.Flags().Changed("max-steps") {
		maxSteps = opts.MaxSteps
	}

	// Script print output must not corrupt a JSON envelope.
	scriptOut := cmd.OutOrStdout()
	if opts.Format == "json" {
		scriptOut = cmd.ErrOrStderr()
	}

	d := driver.New(driver.Options{
		Stdout:        scriptOut,
		MaxSteps:      maxSteps,
		DisabledKinds: manifest.DisabledKinds(),
	})

	result := RunResult{File: script}
	globals, runErr := d.Run(string(src), script, nil)

	var finalizeErr *rewrite.FinalizeError
	if runErr != nil && opts.Fallback && errors.As(runErr, &finalizeErr) {
		slog.Warn("instrumented source did not parse back, running without trace", "file", script, "error", finalizeErr.Err)
		result.Fallback = true
		globals, runErr = d.RunUninstrumented(string(src), script, nil)
	}

	if runErr != nil {
		code := runErrorCode(runErr)
		if code == ErrCodeParse || code == ErrCodeInstrument {
			return commandError(cmd.OutOrStdout(), opts.Format, ExitCommandError, code, runErr.Error())
		}
		result.RunError = runErr.Error()
	} else {
		result.Globals = globals
	}
	result.Stats = d.Recorder().Stats()

	if opts.Save {
		id, err := archiveSession(cmd, opts, manifest, d.Recorder(), script)
		if err != nil {
			return WrapExitError(ExitCommandError, "archive trace", err)
		}
		result.SessionID = id
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, result)
	}
	return outputRunText(cmd, result, opts)
}

// archiveSession saves the recorded trace under the configured archive
// path and returns the new session id.
func archiveSession(cmd *cobra.Command, opts *RunOptions, manifest *project.Manifest, rec *recorder.Recorder, script string) (string, error) {
	db := opts.Database
	if db == "" {
		db = manifest.ArchivePath()
	}
	if db == "" {
		db = "hindsight.db"
	}

	label := opts.Label
	if label == "" {
		label = script
	}

	st, err := store.Open(db)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing archive", "error", closeErr)
		}
	}()

	id, err := st.SaveSession(commandContext(cmd), rec, label)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	slog.Info("session archived", "id", id, "db", db, "events", rec.Len())
	return id, nil
}

func outputRunJSON(cmd *cobra.Command, result RunResult) error {
	resp := CLIResponse{Status: "ok", Data: result, SessionID: result.SessionID}
	if result.RunError != "" {
		resp.Status = "error"
		resp.Error = &CLIError{Code: ErrCodeRuntime, Message: result.RunError}
	}
	if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if result.RunError != "" {
		return NewExitError(ExitFailure, result.RunError)
	}
	return nil
}

func outputRunText(cmd *cobra.Command, result RunResult, opts *RunOptions) error {
	w := cmd.OutOrStdout()

	if result.RunError != "" {
		fmt.Fprintf(w, "✗ %s failed: %s\n", result.File, result.RunError)
		fmt.Fprintf(w, "  Partial trace: %d event(s)\n", result.Stats.Total)
	} else {
		mode := ""
		if result.Fallback {
			mode = ", uninstrumented"
		}
		fmt.Fprintf(w, "✓ Ran %s: %d event(s) recorded%s\n", result.File, result.Stats.Total, mode)
	}

	if len(result.Globals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Globals ===")
		names := make([]string, 0, len(result.Globals))
		for name := range result.Globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %s\n", name, event.Format(result.Globals[name]))
		}
	}

	fmt.Fprintln(w)
	printStats(w, result.Stats)

	if result.SessionID != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Saved session %s\n", result.SessionID)
	}

	if result.RunError != "" {
		return NewExitError(ExitFailure, result.RunError)
	}
	return nil
}

// printStats writes the trace stats section shared by run and stats.
func printStats(w io.Writer, stats recorder.Stats) {
	fmt.Fprintln(w, "=== Trace ===")
	fmt.Fprintf(w, "  Events: %d\n", stats.Total)
	if len(stats.Files) > 0 {
		fmt.Fprintf(w, "  Files:  %v\n", stats.Files)
	}
	if stats.Total > 0 {
		fmt.Fprintf(w, "  Span:   %s .. %s\n",
			stats.FirstTime.Format("15:04:05.000"),
			stats.LastTime.Format("15:04:05.000"))
	}
	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", kind+":", stats.ByKind[event.Kind(kind)])
	}
}
