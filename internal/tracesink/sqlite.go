//go:build sqlite

package tracesink

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists trace records to a SQLite database. Grounded on the
// teacher's internal/storage/sqlite.go (lazy sql.Open, PingContext,
// CREATE TABLE IF NOT EXISTS init), repurposed to store trace rows instead
// of evolutionary genomes. Built only with -tags sqlite, matching the
// teacher's own opt-in build tag for this backend.
type SQLiteSink struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLiteSink opens (creating if necessary) the SQLite database at path
// and ensures the trace_records table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trace_records (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			option TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			created INTEGER NOT NULL,
			reference_count INTEGER NOT NULL,
			base_activation REAL NOT NULL,
			noise REAL NOT NULL,
			activation REAL NOT NULL,
			probability REAL NOT NULL,
			blended_value REAL NOT NULL,
			at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO trace_records (
			tick, agent_id, option, chunk_id, created, reference_count,
			base_activation, noise, activation, probability, blended_value, at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Tick, r.AgentID, r.Option, r.ChunkID, r.Created, r.ReferenceCount,
		r.BaseActivation, r.Noise, r.Activation, r.Probability, r.BlendedValue,
		r.At.Format("2006-01-02T15:04:05Z07:00"))
	return err
}

func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
