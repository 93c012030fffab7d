// Package syncer pushes approved requirements and their test cases to the
// issue tracker. Content hashes recorded at the last successful sync make
// repeat runs idempotent, and per-item failures never abort the batch.
package syncer
