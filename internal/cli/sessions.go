package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/store"
)

// SessionsOptions holds flags shared by the sessions subcommands.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage archived trace sessions",
		Long: `Inspect and manage the trace archive: list archived sessions,
show a session's timeline, verify its integrity, export it as a trace
blob, or delete it.

Examples:
  hindsight sessions list --db traces.db
  hindsight sessions show 0192ab... --db traces.db
  hindsight sessions verify 0192ab... --db traces.db
  hindsight sessions export 0192ab... -o checkout.trace
  hindsight sessions delete 0192ab...`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the trace archive")

	cmd.AddCommand(newSessionsListCommand(opts))
	cmd.AddCommand(newSessionsShowCommand(opts))
	cmd.AddCommand(newSessionsVerifyCommand(opts))
	cmd.AddCommand(newSessionsExportCommand(opts))
	cmd.AddCommand(newSessionsDeleteCommand(opts))

	return cmd
}

func newSessionsListCommand(opts *SessionsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List archived sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(opts, cmd)
		},
	}
}

func runSessionsList(opts *SessionsOptions, cmd *cobra.Command) error {
	st, err := store.Open(resolveArchive(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	sessions, err := st.ListSessions(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "list sessions", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: sessions})
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions archived.")
		return nil
	}
	for _, sess := range sessions {
		fmt.Fprintf(w, "%s  %-24s %5d event(s)  %s\n",
			sess.ID, sess.Label, sess.EventCount,
			sess.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func newSessionsShowCommand(opts *SessionsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <session-id>",
		Short:         "Show a session's event timeline",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsShow(opts, args[0], cmd)
		},
	}
}

// SessionDetail pairs an archived session with its events.
type SessionDetail struct {
	Session store.Session  `json:"session"`
	Events  []*event.Event `json:"events"`
}

func runSessionsShow(opts *SessionsOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(resolveArchive(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	rec, sess, err := loadSession(commandContext(cmd), st, id)
	if err != nil {
		return err
	}
	detail := SessionDetail{Session: sess, Events: rec.Events()}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: detail, SessionID: id})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session %s\n", sess.ID)
	fmt.Fprintf(w, "Label:   %s\n", sess.Label)
	fmt.Fprintf(w, "Created: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Files:   %v\n", sess.Files)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(detail.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
		return nil
	}
	for _, ev := range detail.Events {
		fmt.Fprintf(w, "  %s\n", formatEventLine(ev, opts.Verbose))
	}
	return nil
}

func newSessionsVerifyCommand(opts *SessionsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <session-id>",
		Short: "Verify a session's integrity",
		Long: `Read a session back in full and verify the recorder's invariants
still hold in the archive: ids gap-free, row count matching the
session record. A mismatch means rows were lost or edited.

Exit codes:
  0 - session intact
  1 - integrity violated
  2 - command error (archive or session not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsVerify(opts, args[0], cmd)
		},
	}
}

func runSessionsVerify(opts *SessionsOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(resolveArchive(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	integrity, err := st.CheckSession(commandContext(cmd), id)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "check session", err)
	}
	intact := integrity.GapFree && integrity.CountMatch

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: integrity, SessionID: id}
		if !intact {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeIntegrity, Message: "session integrity violated"}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		mark := "✓"
		if !intact {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s Session %s\n", mark, id)
		fmt.Fprintf(w, "  Events:      %d (count match: %t)\n", integrity.EventCount, integrity.CountMatch)
		fmt.Fprintf(w, "  ID range:    %d..%d\n", integrity.FirstID, integrity.LastID)
		fmt.Fprintf(w, "  Gap free:    %t\n", integrity.GapFree)
		if len(integrity.MissingIDs) > 0 {
			fmt.Fprintf(w, "  Missing ids: %v\n", integrity.MissingIDs)
		}
		kinds := make([]string, 0, len(integrity.ByKind))
		for kind := range integrity.ByKind {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %-16s %d\n", kind+":", integrity.ByKind[event.Kind(kind)])
		}
	}

	if !intact {
		return NewExitError(ExitFailure, fmt.Sprintf("session %s failed integrity check", id))
	}
	return nil
}

func newSessionsExportCommand(opts *SessionsOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session as a trace blob",
		Long: `Write an archived session to a standalone trace blob. The blob
round-trips through the recorder's serialization, so a later process
can load it and keep recording where the session left off.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsExport(opts, args[0], output, cmd)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <session-id>.trace)")

	return cmd
}

func runSessionsExport(opts *SessionsOptions, id, output string, cmd *cobra.Command) error {
	st, err := store.Open(resolveArchive(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	rec, _, err := loadSession(commandContext(cmd), st, id)
	if err != nil {
		return err
	}

	if output == "" {
		output = id + ".trace"
	}
	if err := rec.Save(output); err != nil {
		return WrapExitError(ExitCommandError, "write trace blob", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status:    "ok",
			Data:      map[string]interface{}{"output": output, "events": rec.Len()},
			SessionID: id,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported session %s to %s (%d events)\n", id, output, rec.Len())
	return nil
}

func newSessionsDeleteCommand(opts *SessionsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <session-id>",
		Short:         "Delete an archived session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsDelete(opts, args[0], cmd)
		},
	}
}

func runSessionsDelete(opts *SessionsOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(resolveArchive(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	deleted, err := st.DeleteSession(commandContext(cmd), id)
	if err != nil {
		return WrapExitError(ExitCommandError, "delete session", err)
	}
	if !deleted {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", SessionID: id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}
