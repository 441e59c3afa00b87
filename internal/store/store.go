// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the user's saved collection, search history, and
// credit-balance mirror in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/firmscout/pkg/types"
)

const (
	dbFile           = "firmscout.db"
	defaultListLimit = 500
)

// Store manages the firmscout SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at dataDir/firmscout.db, creating
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = ".firmscout"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			batch_size INTEGER NOT NULL,
			charged_cost INTEGER NOT NULL,
			result_count INTEGER NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			key TEXT PRIMARY KEY,
			identity_id TEXT,
			display_name TEXT NOT NULL,
			location_display TEXT,
			summary TEXT,
			contact_info TEXT,
			origin_search_id TEXT NOT NULL REFERENCES searches(id),
			saved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_origin ON items(origin_search_id)`,
		`CREATE TABLE IF NOT EXISTS credits (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			confirmed_balance INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSearch records a completed search job and its items in one
// transaction. Items whose key already exists are left untouched
// (first-seen-wins, matching the reconciler).
func (s *Store) SaveSearch(ctx context.Context, job types.SearchJob, items []types.ResultItem, keyOf func(types.ResultItem) string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO searches (id, query, batch_size, charged_cost, result_count, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Query, job.BatchSize, job.ChargedCost, job.ResultCount,
		job.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO items
		 (key, identity_id, display_name, location_display, summary, contact_info, origin_search_id, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		savedAt := it.SavedAt
		if savedAt.IsZero() {
			savedAt = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			keyOf(it), it.IdentityID, it.DisplayName, it.LocationDisplay,
			it.Summary, it.ContactInfo, it.OriginSearchID,
			savedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting item %q: %w", it.DisplayName, err)
		}
	}

	return tx.Commit()
}

// DeleteItem removes the item with the given dedup key and returns how many
// rows were affected. Zero with a nil error means the item was already
// gone; the caller treats that as a soft failure, not an error.
func (s *Store) DeleteItem(ctx context.Context, key string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE key = ?`, key)
	if err != nil {
		return 0, fmt.Errorf("deleting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

// SearchGroup is the saved items of one originating search.
type SearchGroup struct {
	SearchID string
	Query    string
	Items    []types.ResultItem
}

// ListGrouped returns saved items grouped by originating search, newest
// search first, items in saved order within each group. limit caps the
// total item count; zero uses the default (500).
func (s *Store) ListGrouped(ctx context.Context, limit int) ([]SearchGroup, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.identity_id, i.display_name, i.location_display, i.summary, i.contact_info,
		        i.origin_search_id, i.saved_at, s.query, s.started_at
		 FROM items i
		 JOIN searches s ON s.id = i.origin_search_id
		 ORDER BY s.started_at DESC, i.saved_at ASC, i.rowid ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var groups []SearchGroup
	byID := make(map[string]int)
	for rows.Next() {
		var it types.ResultItem
		var identityID, location, summary, contact sql.NullString
		var savedAt, query, startedAt string
		if err := rows.Scan(&identityID, &it.DisplayName, &location, &summary, &contact,
			&it.OriginSearchID, &savedAt, &query, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.IdentityID = identityID.String
		it.LocationDisplay = location.String
		it.Summary = summary.String
		it.ContactInfo = contact.String
		if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			it.SavedAt = t
		}

		idx, ok := byID[it.OriginSearchID]
		if !ok {
			idx = len(groups)
			byID[it.OriginSearchID] = idx
			groups = append(groups, SearchGroup{SearchID: it.OriginSearchID, Query: query})
		}
		groups[idx].Items = append(groups[idx].Items, it)
	}
	return groups, rows.Err()
}

// History returns recorded searches, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]types.SearchJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, batch_size, charged_cost, result_count, started_at
		 FROM searches ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var jobs []types.SearchJob
	for rows.Next() {
		var job types.SearchJob
		var startedAt string
		if err := rows.Scan(&job.ID, &job.Query, &job.BatchSize, &job.ChargedCost, &job.ResultCount, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			job.StartedAt = t
		}
		job.Status = types.JobCompleted
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Clear removes all saved items. Search history is kept.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("clearing items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

// Balance returns the mirrored credit balance, with ok false when no
// balance has been recorded yet.
func (s *Store) Balance(ctx context.Context) (balance int, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT confirmed_balance FROM credits WHERE id = 1`).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading balance: %w", err)
	}
	return balance, true, nil
}

// PutBalance records the confirmed credit balance mirror.
func (s *Store) PutBalance(ctx context.Context, balance int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credits (id, confirmed_balance) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET confirmed_balance=excluded.confirmed_balance`,
		balance)
	if err != nil {
		return fmt.Errorf("writing balance: %w", err)
	}
	return nil
}
