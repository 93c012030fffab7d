package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"flowmind/internal/config"
	"flowmind/internal/services"
	"flowmind/internal/textutil"
)

// Store manages requirement persistence backed by SQLite.
type Store struct {
	db           *sql.DB
	path         string
	artifactPath string
}

// Open initializes or connects to the database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, artifactPath: cfg.ArtifactPath()}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const requirementColumns = `id, title, description, criteria, priority, epic, status, content_hash, remote_key, created_at, updated_at`

// The criteria column is newline-delimited, so every criterion must occupy a
// single line. Collapsing here keeps the stored form consistent with the
// whitespace-normalized content hash.
func encodeCriteria(criteria []string) string {
	flat := make([]string, len(criteria))
	for i, criterion := range criteria {
		flat[i] = textutil.CollapseWhitespace(criterion)
	}
	return strings.Join(flat, "\n")
}

const testCaseColumns = `id, requirement_id, scenario_type, title, gherkin, tags, content_hash, remote_key, created_at, updated_at`

// Save upserts requirements and test cases in one transaction, recomputes
// content hashes, and rewrites the mirrored JSON artifact. Approval status
// and recorded remote keys on existing rows are preserved.
func (s *Store) Save(ctx context.Context, requirements []Requirement, cases []TestCase, stats FilterStats) error {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "save", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range requirements {
		r.ContentHash = RequirementHash(r)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO requirements (`+requirementColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 title = excluded.title,
                 description = excluded.description,
                 criteria = excluded.criteria,
                 priority = excluded.priority,
                 epic = excluded.epic,
                 content_hash = excluded.content_hash,
                 updated_at = excluded.updated_at`,
			r.ID,
			r.Title,
			r.Description,
			encodeCriteria(r.AcceptanceCriteria),
			r.Priority,
			r.Epic,
			StatusDraft,
			r.ContentHash,
			r.RemoteKey,
			timestamp,
			timestamp,
		)
		if err != nil {
			return services.Wrap(services.ErrPersistence, "store", "save requirement", r.ID, err)
		}
	}

	for _, tc := range cases {
		if tc.ID == "" {
			tc.ID = TestCaseID(tc.RequirementID, tc.ScenarioType)
		}
		tc.ContentHash = TestCaseHash(tc)
		tags, err := json.Marshal(tc.Tags)
		if err != nil {
			return services.Wrap(services.ErrPersistence, "store", "save test case", tc.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO test_cases (`+testCaseColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 title = excluded.title,
                 gherkin = excluded.gherkin,
                 tags = excluded.tags,
                 content_hash = excluded.content_hash,
                 updated_at = excluded.updated_at`,
			tc.ID,
			tc.RequirementID,
			tc.ScenarioType,
			tc.Title,
			tc.Gherkin,
			string(tags),
			tc.ContentHash,
			tc.RemoteKey,
			timestamp,
			timestamp,
		)
		if err != nil {
			return services.Wrap(services.ErrPersistence, "store", "save test case", tc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "store", "save", "commit", err)
	}

	return s.writeArtifact(ctx, stats)
}

// Approve transitions a requirement from draft to approved. Approving an
// already-approved requirement is a no-op.
func (s *Store) Approve(ctx context.Context, requirementID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE requirements SET status = ?, updated_at = ? WHERE id = ?`,
		StatusApproved,
		time.Now().UTC().Format(time.RFC3339Nano),
		requirementID,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "approve", requirementID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "approve", requirementID, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrValidation, "store", "approve", "unknown requirement "+requirementID, nil)
	}
	return nil
}

// GetRequirement fetches one requirement by identifier, or nil when absent.
func (s *Store) GetRequirement(ctx context.Context, id string) (*Requirement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requirementColumns+` FROM requirements WHERE id = ?`, id)
	r, err := scanRequirement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "get requirement", id, err)
	}
	return r, nil
}

// LoadPending returns draft requirements for the approval UI, ordered by id.
func (s *Store) LoadPending(ctx context.Context) ([]Requirement, error) {
	return s.loadRequirements(ctx, ` WHERE status = ?`, StatusDraft)
}

// LoadApproved returns approved requirements ordered by id.
func (s *Store) LoadApproved(ctx context.Context) ([]Requirement, error) {
	return s.loadRequirements(ctx, ` WHERE status = ?`, StatusApproved)
}

// LoadAll returns every requirement ordered by id.
func (s *Store) LoadAll(ctx context.Context) ([]Requirement, error) {
	return s.loadRequirements(ctx, ``)
}

func (s *Store) loadRequirements(ctx context.Context, where string, args ...any) ([]Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requirementColumns+` FROM requirements`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "load requirements", "", err)
	}
	defer rows.Close()

	var out []Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan requirement", "", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// TestCasesFor returns the test cases owned by a requirement in canonical
// scenario order.
func (s *Store) TestCasesFor(ctx context.Context, requirementID string) ([]TestCase, error) {
	return s.loadTestCases(ctx, ` WHERE requirement_id = ?`, requirementID)
}

// AllTestCases returns every test case ordered by requirement then scenario.
func (s *Store) AllTestCases(ctx context.Context) ([]TestCase, error) {
	return s.loadTestCases(ctx, ``)
}

func (s *Store) loadTestCases(ctx context.Context, where string, args ...any) ([]TestCase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+testCaseColumns+` FROM test_cases`+where+`
         ORDER BY requirement_id,
             CASE scenario_type WHEN 'positive' THEN 0 WHEN 'negative' THEN 1 ELSE 2 END`,
		args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "load test cases", "", err)
	}
	defer rows.Close()

	var out []TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan test case", "", err)
		}
		out = append(out, *tc)
	}
	return out, rows.Err()
}

// NextRequirementSeq returns the next free REQ-NNN sequence number, so ids
// stay monotonic across runs against the same store.
func (s *Store) NextRequirementSeq(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(CAST(SUBSTR(id, 5) AS INTEGER)) FROM requirements WHERE id LIKE 'REQ-%'`,
	).Scan(&max)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "store", "next requirement seq", "", err)
	}
	return int(max.Int64) + 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*Requirement, error) {
	var r Requirement
	var criteria, createdAt, updatedAt string
	if err := row.Scan(
		&r.ID, &r.Title, &r.Description, &criteria, &r.Priority, &r.Epic,
		&r.Status, &r.ContentHash, &r.RemoteKey, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	if criteria != "" {
		r.AcceptanceCriteria = strings.Split(criteria, "\n")
	}
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return &r, nil
}

func scanTestCase(row rowScanner) (*TestCase, error) {
	var tc TestCase
	var tags, createdAt, updatedAt string
	if err := row.Scan(
		&tc.ID, &tc.RequirementID, &tc.ScenarioType, &tc.Title, &tc.Gherkin,
		&tags, &tc.ContentHash, &tc.RemoteKey, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	if tags != "" && tags != "null" {
		if err := json.Unmarshal([]byte(tags), &tc.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", tc.ID, err)
		}
	}
	tc.CreatedAt = parseTimestamp(createdAt)
	tc.UpdatedAt = parseTimestamp(updatedAt)
	return &tc, nil
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}
