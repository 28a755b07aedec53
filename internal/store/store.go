// Package store persists rule documents in Postgres so a fleet of matcher
// processes can share one rule table. Documents are stored as the raw YAML
// they were loaded from and recompiled on read.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/scrollkit/scrollmatch/pkg/ruleset"
)

const schema = `
CREATE TABLE IF NOT EXISTS rules (
    name       TEXT PRIMARY KEY,
    priority   INTEGER NOT NULL DEFAULT 0,
    document   TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// StoredRule is one persisted rule row.
type StoredRule struct {
	Name      string
	Priority  uint32
	Document  string
	UpdatedAt time.Time
}

// RuleStore wraps a sql.DB for the rules table.
type RuleStore struct {
	db *sql.DB
}

// New wraps an open database handle. The caller owns the handle's lifecycle.
func New(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*RuleStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &RuleStore{db: db}, nil
}

// Close releases the underlying handle.
func (s *RuleStore) Close() error { return s.db.Close() }

// InitSchema creates the rules table if it does not exist.
func (s *RuleStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Upsert writes or updates a rule document. The document is validated by
// compiling it before it touches the table.
func (s *RuleStore) Upsert(ctx context.Context, document string) (ruleset.Rule, error) {
	r, err := ruleset.LoadRuleYAML([]byte(document))
	if err != nil {
		return ruleset.Rule{}, fmt.Errorf("compile rule: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO rules(name, priority, document, updated_at)
        VALUES ($1,$2,$3,now())
        ON CONFLICT (name) DO UPDATE SET priority=EXCLUDED.priority, document=EXCLUDED.document, updated_at=now()`,
		r.Name, r.Priority, document,
	)
	if err != nil {
		return ruleset.Rule{}, fmt.Errorf("upsert rule %s: %w", r.Name, err)
	}
	return r, nil
}

// Delete removes a rule row, reporting whether it existed.
func (s *RuleStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete rule %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadAll reads every persisted rule row in name order.
func (s *RuleStore) LoadAll(ctx context.Context) ([]StoredRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, priority, document, updated_at FROM rules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var out []StoredRule
	for rows.Next() {
		var sr StoredRule
		if err := rows.Scan(&sr.Name, &sr.Priority, &sr.Document, &sr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// CompileAll loads every row and compiles the documents into runnable rules.
// A row that no longer compiles fails the whole load; the table is the
// source of truth and must stay consistent.
func (s *RuleStore) CompileAll(ctx context.Context) ([]ruleset.Rule, error) {
	stored, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	rules := make([]ruleset.Rule, 0, len(stored))
	for _, sr := range stored {
		r, err := ruleset.LoadRuleYAML([]byte(sr.Document))
		if err != nil {
			return nil, fmt.Errorf("compile stored rule %s: %w", sr.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
