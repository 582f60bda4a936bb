// Package audit records every answered question for compliance review and
// offers full-text search over the trail.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kotae-dev/kotae/pkg/utils"
)

// Entry is one recorded question/answer interaction.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	Department string    `json:"department"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	Sources    []string  `json:"sources"`
}

// Sink persists audit entries in SQLite and mirrors them into a full-text
// index. The SQLite table is the source of truth; the index only serves
// search and is rebuilt implicitly as entries are recorded.
type Sink struct {
	db               *sql.DB
	index            *Index
	responseMaxChars int
}

// NewSink opens or creates the audit database at dbPath and the search index
// at indexPath. Responses are truncated to responseMaxChars before storage so
// the trail stays compact; pass 0 to disable truncation.
func NewSink(dbPath, indexPath string, responseMaxChars int) (*Sink, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		actor TEXT NOT NULL,
		department TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		sources TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_logs(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	index, err := NewIndex(indexPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Sink{db: db, index: index, responseMaxChars: responseMaxChars}, nil
}

// Record stores an entry, assigning an ID and timestamp when absent.
func (s *Sink) Record(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.Response = utils.Truncate(e.Response, s.responseMaxChars)
	if e.Sources == nil {
		e.Sources = []string{}
	}
	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, ts, actor, department, query, response, sources) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Format(time.RFC3339Nano), e.Actor, e.Department, e.Query, e.Response, string(sources),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record audit entry: %w", err)
	}
	if err := s.index.Add(e); err != nil {
		return "", fmt.Errorf("failed to index audit entry: %w", err)
	}
	return e.ID, nil
}

// List returns up to limit entries, most recent first.
func (s *Sink) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, actor, department, query, response, sources FROM audit_logs ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with the given id, or sql.ErrNoRows.
func (s *Sink) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ts, actor, department, query, response, sources FROM audit_logs WHERE id = ?`, id)
	return scanEntry(row)
}

// Count returns the total number of recorded entries.
func (s *Sink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&n)
	return n, err
}

// Search runs a full-text query over actor, query, and response fields and
// resolves hits back to full entries, best match first.
func (s *Sink) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	ids, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(ctx, id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Close closes the database and the search index.
func (s *Sink) Close() error {
	ierr := s.index.Close()
	derr := s.db.Close()
	if ierr != nil {
		return ierr
	}
	return derr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	var ts, sources string
	if err := r.Scan(&e.ID, &ts, &e.Actor, &e.Department, &e.Query, &e.Response, &sources); err != nil {
		return Entry{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	e.Timestamp = parsed
	if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
		return Entry{}, fmt.Errorf("bad sources %q: %w", sources, err)
	}
	return e, nil
}
