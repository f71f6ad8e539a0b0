package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/harness"
	"github.com/hindsightlab/hindsight/internal/project"
	"github.com/hindsightlab/hindsight/internal/why"
)

// watchDebounce absorbs editor write bursts: most editors emit several
// events per save.
const watchDebounce = 200 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	questionFlags
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch [script.hsl]",
		Short: "Re-run a script on every change",
		Long: `Watch a script file and re-run it whenever it changes, reporting
the fresh trace each time. With question flags the question is asked
again after every run, so the answer tracks your edits.

Script errors are reported and watching continues. Press Ctrl-C to
stop.

Examples:
  hindsight watch script.hsl
  hindsight watch script.hsl --why value --variable total --value 30
  hindsight watch script.hsl --why line_not_executed --line 5`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			return runWatch(opts, script, cmd)
		},
	}

	addQuestionFlags(cmd, &opts.questionFlags)

	return cmd
}

func runWatch(opts *WatchOptions, script string, cmd *cobra.Command) error {
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
	if _, err := os.Stat(script); err != nil {
		return WrapExitError(ExitCommandError, "stat script", err)
	}

	// Validate the question before the first run, not on every rerun.
	haveQuestion := opts.Why != ""
	var spec harness.QuestionSpec
	if haveQuestion {
		spec, err = opts.spec(cmd)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid question", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "create file watcher", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors that save by rename replace the
	// file, and a watch on the old inode would go silent.
	if err := watcher.Add(filepath.Dir(script)); err != nil {
		return WrapExitError(ExitCommandError, "watch script directory", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", script)

	// changed coalesces: a rerun in flight absorbs every change that
	// lands meanwhile into one followup run.
	changed := make(chan struct{}, 1)
	changed <- struct{}{} // initial run

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Single debounce timer, reset on each event. Initialized as
		// stopped; the first event starts it.
		debounce := time.NewTimer(watchDebounce)
		debounce.Stop()
		defer debounce.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil

			case <-debounce.C:
				select {
				case changed <- struct{}{}:
				default:
				}

			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if filepath.Clean(ev.Name) != filepath.Clean(script) {
					continue
				}
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("file watcher error", "error", err)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changed:
				watchRun(opts, manifest, script, spec, haveQuestion, cmd)
			}
		}
	})

	return g.Wait()
}

// WatchResult is one rerun of a watched script.
type WatchResult struct {
	File     string     `json:"file"`
	Events   int        `json:"events"`
	RunError string     `json:"run_error,omitempty"`
	Answer   *AskResult `json:"answer,omitempty"`
}

// watchRun executes the script once with a fresh driver and reports the
// outcome. Failures are printed, never fatal: the next save gets a
// fresh chance.
func watchRun(opts *WatchOptions, manifest *project.Manifest, script string, spec harness.QuestionSpec, haveQuestion bool, cmd *cobra.Command) {
	w := cmd.OutOrStdout()
	result := WatchResult{File: script}
	errCode := ErrCodeRuntime

	src, err := os.ReadFile(script)
	if err != nil {
		result.RunError = err.Error()
		outputWatchResult(w, opts, result, errCode)
		return
	}

	d := driver.New(driver.Options{
		Stdout:        cmd.ErrOrStderr(),
		MaxSteps:      manifest.MaxSteps(),
		DisabledKinds: manifest.DisabledKinds(),
	})

	_, runErr := d.Run(string(src), script, nil)
	result.Events = d.Recorder().Len()
	if runErr != nil {
		result.RunError = runErr.Error()
		errCode = runErrorCode(runErr)
	}

	// A parse failure leaves no trace to question. A runtime failure
	// still gets an answer over the partial trace.
	if haveQuestion && result.Events > 0 {
		q, err := harness.BuildQuestion(why.NewAsker(d.Recorder()), spec, script)
		if err != nil {
			result.RunError = fmt.Sprintf("invalid question: %v", err)
		} else {
			ans := answerQuestion(q)
			result.Answer = &ans
		}
	}

	outputWatchResult(w, opts, result, errCode)
}

func outputWatchResult(w io.Writer, opts *WatchOptions, result WatchResult, errCode string) {
	if opts.Format == "json" {
		status := "ok"
		var cliErr *CLIError
		if result.RunError != "" {
			status = "error"
			cliErr = &CLIError{Code: errCode, Message: result.RunError}
		}
		if err := writeJSON(w, CLIResponse{Status: status, Data: result, Error: cliErr}); err != nil {
			slog.Error("failed to write rerun result", "error", err)
		}
		return
	}

	fmt.Fprintf(w, "\n--- %s  %s ---\n", time.Now().Format("15:04:05"), result.File)
	switch {
	case result.RunError != "" && result.Events == 0:
		fmt.Fprintf(w, "✗ %s\n", result.RunError)
	case result.RunError != "":
		fmt.Fprintf(w, "✗ %s (partial trace: %d events)\n", result.RunError, result.Events)
	default:
		fmt.Fprintf(w, "✓ %d event(s) recorded\n", result.Events)
	}
	if result.Answer != nil {
		fmt.Fprintln(w)
		outputAskText(w, *result.Answer, opts.Verbose)
	}
}
