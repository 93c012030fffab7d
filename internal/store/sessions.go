package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"flowmind/internal/services"
)

// summaryCharLimit caps the rolling session summary. Newest bullets are
// prepended; the tail beyond the limit is discarded.
const summaryCharLimit = 1800

// EnsureSession inserts the session row if missing and bumps its updated_at.
func (s *Store) EnsureSession(ctx context.Context, sessionID, projectID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, project_id, rolling_summary, created_at, updated_at)
         VALUES (?, ?, '', ?, ?)
         ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, projectID, now, now)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "ensure session", sessionID, err)
	}
	return nil
}

// RecordAction appends one entry to the action log.
func (s *Store) RecordAction(ctx context.Context, sessionID, action string, payload map[string]any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "record action", action, err)
	}
	if payload == nil {
		encoded = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO action_log (session_id, at, action, payload) VALUES (?, ?, ?, ?)`,
		sessionID,
		time.Now().UTC().Format(time.RFC3339Nano),
		action,
		string(encoded),
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "record action", action, err)
	}
	return nil
}

// RecentActions returns the newest action-log entries, most recent first.
// An empty sessionID returns entries across all sessions.
func (s *Store) RecentActions(ctx context.Context, sessionID string, limit int) ([]ActionEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, session_id, at, action, payload FROM action_log`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "recent actions", "", err)
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var entry ActionEntry
		var at, payload string
		if err := rows.Scan(&entry.ID, &entry.SessionID, &at, &entry.Action, &payload); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan action", "", err)
		}
		entry.At = parseTimestamp(at)
		if payload != "" && payload != "{}" {
			_ = json.Unmarshal([]byte(payload), &entry.Payload)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SessionSummary returns the compact rolling summary for a session.
func (s *Store) SessionSummary(ctx context.Context, sessionID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT rolling_summary FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "store", "session summary", sessionID, err)
	}
	return summary, nil
}

// AppendSummary prepends a bullet to the session's rolling summary, keeping
// the result under the summary character limit.
func (s *Store) AppendSummary(ctx context.Context, sessionID, bullet string) error {
	if bullet == "" {
		return nil
	}
	current, err := s.SessionSummary(ctx, sessionID)
	if err != nil {
		return err
	}
	merged := "- " + bullet + "\n" + current
	if len(merged) > summaryCharLimit {
		cut := summaryCharLimit
		// Back up to a rune boundary so the tail stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(merged[cut]) {
			cut--
		}
		merged = merged[:cut]
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET rolling_summary = ?, updated_at = ? WHERE session_id = ?`,
		merged,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "append summary", sessionID, err)
	}
	return nil
}
