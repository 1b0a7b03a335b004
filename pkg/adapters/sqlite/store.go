// Package sqlite persists submissions and counters in SQLite.
//
// It expects an *sql.DB opened with the "modernc.org/sqlite" driver, for example:
//
//	db, _ := sql.Open("sqlite", "file:formflow.db?_pragma=journal_mode(WAL)")
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

var (
	_ ports.SubmissionStore = (*Store)(nil)
	_ ports.CounterStore    = (*Counters)(nil)
)

// Store implements ports.SubmissionStore. Each row holds one JSON-encoded submission.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dsn and prepares both tables.
func Open(dsn string) (*Store, *Counters, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	store, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	counters, err := NewCounters(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, counters, nil
}

// NewStore initializes the submissions schema in db.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init submissions schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			session_id TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			form_id TEXT NOT NULL,
			status TEXT NOT NULL,
			last_activity_at TIMESTAMP NOT NULL,
			body BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS submissions_status_activity ON submissions (status, last_activity_at);`,
	)
	return err
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Create inserts a new submission.
func (s *Store) Create(ctx context.Context, sub *domain.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (session_id, id, form_id, status, last_activity_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING`,
		sub.SessionID, sub.ID, sub.FormID, string(sub.Status), sub.Metadata.LastActivityAt.UTC(), body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSubmissionExists
	}
	return nil
}

// Save upserts the submission.
func (s *Store) Save(ctx context.Context, sub *domain.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (session_id, id, form_id, status, last_activity_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			id = excluded.id,
			form_id = excluded.form_id,
			status = excluded.status,
			last_activity_at = excluded.last_activity_at,
			body = excluded.body`,
		sub.SessionID, sub.ID, sub.FormID, string(sub.Status), sub.Metadata.LastActivityAt.UTC(), body,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// Load reads the submission of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM submissions WHERE session_id = ?`, sessionID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
	}
	return &sub, nil
}

// Delete removes the submission of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE session_id = ?`, sessionID)
	return err
}

// List returns every stored session ID.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.querySessions(ctx, `SELECT session_id FROM submissions ORDER BY session_id`)
}

// ListByStatus returns the session IDs in status, oldest activity first.
func (s *Store) ListByStatus(ctx context.Context, status domain.SubmissionStatus) ([]string, error) {
	return s.querySessions(ctx, `SELECT session_id FROM submissions WHERE status = ? ORDER BY last_activity_at`, string(status))
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
