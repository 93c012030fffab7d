package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flowmind/internal/services"
)

// Scope identifies one of the three memory key-value namespaces.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
	ScopeSession Scope = "session"
)

func memoryQuery(scope Scope) (table, ownerColumn string, err error) {
	switch scope {
	case ScopeGlobal:
		return "memory_global", "", nil
	case ScopeProject:
		return "memory_project", "project_id", nil
	case ScopeSession:
		return "memory_session", "session_id", nil
	default:
		return "", "", fmt.Errorf("unknown memory scope %q", scope)
	}
}

// SetMemory writes one key in the given scope. The owner is the project or
// session identifier and is ignored for the global scope.
func (s *Store) SetMemory(ctx context.Context, scope Scope, owner, key, value string) error {
	table, ownerColumn, err := memoryQuery(scope)
	if err != nil {
		return services.Wrap(services.ErrValidation, "store", "set memory", "", err)
	}
	if ownerColumn != "" && owner == "" {
		return services.Wrap(services.ErrValidation, "store", "set memory", string(scope)+" scope requires an owner id", nil)
	}

	if ownerColumn == "" {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO `+table+` (key, value) VALUES (?, ?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO `+table+` (`+ownerColumn+`, key, value) VALUES (?, ?, ?)
             ON CONFLICT(`+ownerColumn+`, key) DO UPDATE SET value = excluded.value`,
			owner, key, value)
	}
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "set memory", key, err)
	}
	return nil
}

// GetMemory reads one key in the given scope. The second return reports
// whether the key was present.
func (s *Store) GetMemory(ctx context.Context, scope Scope, owner, key string) (string, bool, error) {
	table, ownerColumn, err := memoryQuery(scope)
	if err != nil {
		return "", false, services.Wrap(services.ErrValidation, "store", "get memory", "", err)
	}

	var row *sql.Row
	if ownerColumn == "" {
		row = s.db.QueryRowContext(ctx, `SELECT value FROM `+table+` WHERE key = ?`, key)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT value FROM `+table+` WHERE `+ownerColumn+` = ? AND key = ?`, owner, key)
	}

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, services.Wrap(services.ErrPersistence, "store", "get memory", key, err)
	}
	return value, true, nil
}

// LookupMemory resolves a key with session, then project, then global scope
// precedence. Used for prompt hydration (tone, story prefix).
func (s *Store) LookupMemory(ctx context.Context, key, projectID, sessionID string) (string, bool, error) {
	if sessionID != "" {
		if value, ok, err := s.GetMemory(ctx, ScopeSession, sessionID, key); err != nil || ok {
			return value, ok, err
		}
	}
	if projectID != "" {
		if value, ok, err := s.GetMemory(ctx, ScopeProject, projectID, key); err != nil || ok {
			return value, ok, err
		}
	}
	return s.GetMemory(ctx, ScopeGlobal, "", key)
}
