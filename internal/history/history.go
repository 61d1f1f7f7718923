// Package history keeps a play journal in a host-side SQLite database. It
// never lives on the media device, so it adds no load to the storage guard.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Outcome string

const (
	Finished Outcome = "finished"
	Skipped  Outcome = "skipped"
	Failed   Outcome = "failed"
)

// Entry is one journal row.
type Entry struct {
	TrackIndex int
	Path       string
	Title      string
	Artist     string
	Outcome    Outcome
	Offset     uint32
	At         time.Time
}

// Store is the SQLite-backed journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_index INTEGER NOT NULL,
			path TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			byte_offset INTEGER NOT NULL DEFAULT 0,
			played_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS plays_played_at ON plays(played_at);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history schema: %w", err)
		}
	}
	return nil
}

// Record appends e. A zero At is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plays (track_index, path, title, artist, outcome, byte_offset, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TrackIndex, e.Path, e.Title, e.Artist, string(e.Outcome), int64(e.Offset), e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_index, path, title, artist, outcome, byte_offset, played_at
		 FROM plays ORDER BY played_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			outcome string
			offset  int64
			at      int64
		)
		if err := rows.Scan(&e.TrackIndex, &e.Path, &e.Title, &e.Artist, &outcome, &offset, &at); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Offset = uint32(offset)
		e.At = time.UnixMilli(at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return out, nil
}

// Count returns the number of entries per outcome.
func (s *Store) Count(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM plays GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count plays: %w", err)
	}
	defer rows.Close()
	out := make(map[Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[Outcome(outcome)] = n
	}
	return out, rows.Err()
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plays`); err != nil {
		return fmt.Errorf("clear plays: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
