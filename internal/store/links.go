package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"flowmind/internal/services"
)

// GetRemoteLink returns the recorded tracker link for a (requirement,
// scenario type) pair. Scenario type "" addresses the requirement's Story.
func (s *Store) GetRemoteLink(ctx context.Context, requirementID string, scenarioType ScenarioType) (*RemoteLink, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT requirement_id, scenario_type, remote_key, synced_hash, updated_at
         FROM remote_links WHERE requirement_id = ? AND scenario_type = ?`,
		requirementID, scenarioType)

	var link RemoteLink
	var updatedAt string
	err := row.Scan(&link.RequirementID, &link.ScenarioType, &link.RemoteKey, &link.SyncedHash, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "get remote link", requirementID, err)
	}
	link.UpdatedAt = parseTimestamp(updatedAt)
	return &link, nil
}

// PutRemoteLink records (or refreshes) the tracker key and synced hash for a
// pair, and mirrors the key onto the owning row for display.
func (s *Store) PutRemoteLink(ctx context.Context, link RemoteLink) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "put remote link", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO remote_links (requirement_id, scenario_type, remote_key, synced_hash, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(requirement_id, scenario_type) DO UPDATE SET
             remote_key = excluded.remote_key,
             synced_hash = excluded.synced_hash,
             updated_at = excluded.updated_at`,
		link.RequirementID, link.ScenarioType, link.RemoteKey, link.SyncedHash, now)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "put remote link", link.RequirementID, err)
	}

	if link.ScenarioType == "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE requirements SET remote_key = ? WHERE id = ?`,
			link.RemoteKey, link.RequirementID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE test_cases SET remote_key = ? WHERE id = ?`,
			link.RemoteKey, TestCaseID(link.RequirementID, link.ScenarioType))
	}
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "mirror remote key", link.RequirementID, err)
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "store", "put remote link", "commit", err)
	}
	return nil
}
