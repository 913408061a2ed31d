// Package database provides SQLite-based storage for rendered threat models.
//
// HistoryDB keeps one row per stored revision: the threat model as JSON, the
// rendered document, its SHA-256 digest, and a severity summary. The
// history and compare commands read it back to list revisions and show how
// a threat model changed over time.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a per-user history
package database
