// Package sqlite keeps the corpus and conversation memory in one SQLite
// database, opened through the pure Go modernc.org/sqlite driver.
//
// Documents are stored in insertion order, which is the order every index
// rebuild sees. Only the documents are durable: the dense matrix and the
// TF-IDF vocabulary are rebuilt from them and never written to disk.
//
// Conversation state is saved whole. Save rewrites the sessions and turns
// tables in one transaction, so a crash leaves either the old or the new
// state and never a mix.
//
// The schema lives in migrations/ as numbered .up.sql and .down.sql pairs.
// The database defaults to ~/.scholar/data/scholar.db and is opened in WAL
// mode with foreign keys enforced.
package sqlite
