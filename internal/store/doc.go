// Package store persists requirements, test cases, scoped memory, sessions,
// and remote sync links in SQLite, with a mirrored JSON artifact.
//
// The Store manages the database connection, schema migrations, and the
// transaction boundaries the rest of the system relies on: one Save commits
// requirements and test cases together or not at all, Approve is idempotent,
// and the artifact is rewritten wholesale (atomically) after every Save so
// the file and the tables never drift. Requirement rows are never deleted,
// only superseded; approval status and recorded remote keys survive re-runs.
//
// Treat this package as the single source of truth for requirement
// semantics; when you add fields, update the migration set and the artifact
// document together.
package store
