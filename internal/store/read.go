package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hindsightlab/hindsight/internal/event"
)

// Session is one archived trace run.
type Session struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Files      []string  `json:"files"`
	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ListSessions returns all archived sessions in creation order, id as
// tiebreak. Returns an empty slice, not nil, when the archive is
// empty.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, files, event_count, created_ns
		FROM sessions
		ORDER BY created_ns ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// ReadSession retrieves a single session by id. Returns sql.ErrNoRows
// if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, files, event_count, created_ns
		FROM sessions
		WHERE id = ?
	`, id)
	return scanSession(row)
}

// ReadEvents returns a session's events in id order. Returns an empty
// slice, not nil, for a session with no events or an unknown session
// id.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, site, source_file, source_line, kind,
		       payload, time_ns, goroutine, locals, globals
		FROM events
		WHERE session_id = ?
		ORDER BY event_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []*event.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func scanSession(sc scanner) (Session, error) {
	var sess Session
	var filesJSON string
	var createdNS int64

	if err := sc.Scan(&sess.ID, &sess.Label, &filesJSON, &sess.EventCount, &createdNS); err != nil {
		return Session{}, err
	}

	files, err := unmarshalFiles(filesJSON)
	if err != nil {
		return Session{}, fmt.Errorf("scan session %s: %w", sess.ID, err)
	}
	sess.Files = files
	sess.CreatedAt = time.Unix(0, createdNS).UTC()

	return sess, nil
}

func scanEvent(sc scanner) (*event.Event, error) {
	var ev event.Event
	var kind, payload, locals, globals string
	var timeNS int64

	if err := sc.Scan(&ev.ID, &ev.Site, &ev.File, &ev.Line, &kind,
		&payload, &timeNS, &ev.Goroutine, &locals, &globals); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	ev.Kind = event.Kind(kind)
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("scan event %d: unknown event kind %q", ev.ID, kind)
	}
	ev.Time = time.Unix(0, timeNS).UTC()

	var err error
	if ev.Payload, err = unmarshalDict(payload); err != nil {
		return nil, fmt.Errorf("scan event %d: payload: %w", ev.ID, err)
	}
	if ev.Locals, err = unmarshalDict(locals); err != nil {
		return nil, fmt.Errorf("scan event %d: locals: %w", ev.ID, err)
	}
	if ev.Globals, err = unmarshalDict(globals); err != nil {
		return nil, fmt.Errorf("scan event %d: globals: %w", ev.ID, err)
	}

	return &ev, nil
}
