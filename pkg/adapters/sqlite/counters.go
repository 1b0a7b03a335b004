package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/formflow/pkg/domain"
)

// Counters implements ports.CounterStore with one row per form and counter.
type Counters struct {
	db *sql.DB
}

// NewCounters initializes the counters schema in db.
func NewCounters(db *sql.DB) (*Counters, error) {
	c := &Counters{db: db}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS form_counters (
			form_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (form_id, name)
		);`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init counters schema: %w", err)
	}
	return c, nil
}

// Increment bumps counter and returns the totals inside one transaction.
func (c *Counters) Increment(ctx context.Context, formID string, counter domain.Counter) (domain.Counters, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Counters{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form_counters (form_id, name, value) VALUES (?, ?, 1)
		ON CONFLICT (form_id, name) DO UPDATE SET value = value + 1`,
		formID, string(counter),
	)
	if err != nil {
		return domain.Counters{}, fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	totals, err := readCounters(ctx, tx, formID)
	if err != nil {
		return domain.Counters{}, err
	}
	return totals, tx.Commit()
}

// Get returns the totals of a form.
func (c *Counters) Get(ctx context.Context, formID string) (domain.Counters, error) {
	return readCounters(ctx, c.db, formID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readCounters(ctx context.Context, q querier, formID string) (domain.Counters, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, value FROM form_counters WHERE form_id = ?`, formID)
	if err != nil {
		return domain.Counters{}, fmt.Errorf("failed to read counters: %w", err)
	}
	defer rows.Close()

	var out domain.Counters
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return domain.Counters{}, err
		}
		out = out.Add(domain.Counter(name), value)
	}
	return out, rows.Err()
}
