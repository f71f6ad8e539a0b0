package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/project"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/store"
)

// resolveArchive picks the archive path: the --db flag, then the
// manifest's [trace].archive, then hindsight.db in the working
// directory.
func resolveArchive(flag string) string {
	if flag != "" {
		return flag
	}
	manifest, _, err := project.Discover(".")
	if err == nil {
		if p := manifest.ArchivePath(); p != "" {
			return p
		}
	}
	return "hindsight.db"
}

// loadSession reads one archived session back into a fresh recorder so
// the query engine can answer over it. Returns an ExitError with
// command-error semantics when the session does not exist.
func loadSession(ctx context.Context, st *store.Store, id string) (*recorder.Recorder, store.Session, error) {
	sess, err := st.ReadSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.Session{}, NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
	}
	if err != nil {
		return nil, store.Session{}, WrapExitError(ExitCommandError, "read session", err)
	}

	events, err := st.ReadEvents(ctx, id)
	if err != nil {
		return nil, store.Session{}, WrapExitError(ExitCommandError, "read session events", err)
	}

	rec := recorder.New(recorder.Options{})
	rec.Restore(events)
	return rec, sess, nil
}

// commandContext returns the command's context, falling back to
// Background for commands constructed outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// traceScript runs one script for its trace, resolving it against the
// project manifest when empty. Parse and instrumentation failures
// abort; a runtime failure keeps the partial trace and is returned as
// text so the caller can report it alongside its result.
//
// Script print output goes to stderr; stdout belongs to the command's
// own output.
func traceScript(format, script string, cmd *cobra.Command) (*recorder.Recorder, string, string, error) {
	manifest, _, err := project.Discover(".")
	if err != nil {
		return nil, "", "", WrapExitError(ExitCommandError, "load project manifest", err)
	}
	if script == "" {
		script = manifest.EntryPath()
	}
	if script == "" {
		return nil, "", "", NewExitError(ExitCommandError, "no script given: pass one, set [run].entry or use --session")
	}

	src, err := os.ReadFile(script)
	if err != nil {
		return nil, "", "", WrapExitError(ExitCommandError, "read script", err)
	}

	d := driver.New(driver.Options{
		Stdout:        cmd.ErrOrStderr(),
		MaxSteps:      manifest.MaxSteps(),
		DisabledKinds: manifest.DisabledKinds(),
	})

	_, runErr := d.Run(string(src), script, nil)
	if runErr != nil {
		code := runErrorCode(runErr)
		if code == ErrCodeParse || code == ErrCodeInstrument {
			return nil, "", "", commandError(cmd.OutOrStdout(), format, ExitCommandError, code, runErr.Error())
		}
		return d.Recorder(), script, runErr.Error(), nil
	}
	return d.Recorder(), script, "", nil
}
