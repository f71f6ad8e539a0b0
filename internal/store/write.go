package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hindsightlab/hindsight/internal/recorder"
)

// SaveSession archives the recorder's current log as one session and
// returns the new session id. The id is a UUIDv7, so lexical order on
// ids follows creation order.
//
// The session row and all event rows are written in one transaction;
// a session is either fully archived or absent.
func (s *Store) SaveSession(ctx context.Context, rec *recorder.Recorder, label string) (string, error) {
	events := rec.Events()
	stats := rec.Stats()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("save session: new id: %w", err)
	}
	sessionID := id.String()

	filesJSON, err := marshalFiles(stats.Files)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save session: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, label, files, event_count, created_ns)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, label, filesJSON, len(events), time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("save session: insert session: %w", err)
	}

	for _, ev := range events {
		payload, err := marshalDict(ev.Payload)
		if err != nil {
			return "", fmt.Errorf("save session: event %d: %w", ev.ID, err)
		}
		locals, err := marshalDict(ev.Locals)
		if err != nil {
			return "", fmt.Errorf("save session: event %d: %w", ev.ID, err)
		}
		globals, err := marshalDict(ev.Globals)
		if err != nil {
			return "", fmt.Errorf("save session: event %d: %w", ev.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events
			(session_id, event_id, site, source_file, source_line, kind,
			 payload, time_ns, goroutine, locals, globals)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			sessionID,
			ev.ID,
			ev.Site,
			ev.File,
			ev.Line,
			string(ev.Kind),
			payload,
			ev.Time.UnixNano(),
			ev.Goroutine,
			locals,
			globals,
		)
		if err != nil {
			return "", fmt.Errorf("save session: insert event %d: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save session: commit: %w", err)
	}

	return sessionID, nil
}

// DeleteSession removes a session and, through the cascade, its
// events. It reports whether the session existed.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session: rows affected: %w", err)
	}
	return affected > 0, nil
}
