// Package trace persists a ledger of classify/enqueue/dequeue decisions to
// SQLite for post-hoc inspection. It is purely an observability aid: the
// scheduler's own canonical/shadow state is never read from or written to
// this store (spec's "Persisted state: none" applies to that state, not to
// this accounting log).
package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nodepath81/diffservd/internal/scheduler"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	ts          INTEGER NOT NULL,
	op          TEXT NOT NULL,
	class_index INTEGER NOT NULL,
	packet_id   TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	accepted    INTEGER NOT NULL
);`

// Store is a scheduler.Observer backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the SQLite database at path and ensures the
// events table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Observe implements scheduler.Observer. Write failures are swallowed by
// design — tracing must never perturb the scheduler's hot path.
func (s *Store) Observe(evt scheduler.Event) {
	if s == nil {
		return
	}
	var packetID string
	var size int
	if evt.Packet != nil {
		packetID = evt.Packet.ID.String()
		size = evt.Packet.Size()
	}
	accepted := 0
	if evt.Accepted {
		accepted = 1
	}
	_, _ = s.db.Exec(
		`INSERT INTO events (ts, op, class_index, packet_id, size_bytes, accepted) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UnixNano(), evt.Op, evt.ClassIndex, packetID, size, accepted,
	)
}
