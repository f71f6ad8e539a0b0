package store

import (
	"context"
	"fmt"

	"github.com/hindsightlab/hindsight/internal/event"
)

// SessionIntegrity summarizes the health of one archived session.
// Recorded ids are gap-free by construction, so a gap in the archive
// means rows were lost or the archive was edited by hand.
type SessionIntegrity struct {
	SessionID  string             `json:"session_id"`
	EventCount int                `json:"event_count"`
	ByKind     map[event.Kind]int `json:"by_kind"`
	FirstID    int64              `json:"first_id"`
	LastID     int64              `json:"last_id"`
	GapFree    bool               `json:"gap_free"`
	MissingIDs []int64            `json:"missing_ids"`
	CountMatch bool               `json:"count_match"` // session row's event_count agrees with stored rows
}

// CheckSession reads a session back in full and verifies it against
// the recorder's invariants. Returns sql.ErrNoRows for an unknown
// session id.
func (s *Store) CheckSession(ctx context.Context, sessionID string) (SessionIntegrity, error) {
	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return SessionIntegrity{}, err
	}

	events, err := s.ReadEvents(ctx, sessionID)
	if err != nil {
		return SessionIntegrity{}, fmt.Errorf("check session: %w", err)
	}

	integrity := SessionIntegrity{
		SessionID:  sessionID,
		EventCount: len(events),
		ByKind:     make(map[event.Kind]int),
		GapFree:    true,
		MissingIDs: []int64{},
		CountMatch: sess.EventCount == len(events),
	}

	if len(events) == 0 {
		return integrity, nil
	}

	integrity.FirstID = events[0].ID
	integrity.LastID = events[len(events)-1].ID

	expected := integrity.FirstID
	for _, ev := range events {
		integrity.ByKind[ev.Kind]++
		for expected < ev.ID {
			integrity.MissingIDs = append(integrity.MissingIDs, expected)
			expected++
		}
		expected = ev.ID + 1
	}
	integrity.GapFree = len(integrity.MissingIDs) == 0

	return integrity, nil
}
