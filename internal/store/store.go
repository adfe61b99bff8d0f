// Package store provides the SQLite persistence layer for pulse: topic
// metric snapshots over time (the source of velocity baselines) and
// completed scoring runs.
//
// The original design cached snapshots in process-wide state; here the
// store is an explicit, caller-owned object with a defined lifecycle so the
// engine itself never touches ambient state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultSnapshotInterval is the minimum spacing between snapshots.
const DefaultSnapshotInterval = time.Hour

// DefaultRetention is how many snapshots are kept (hourly snapshots for
// roughly a day).
const DefaultRetention = 24

// Zero-padded nanoseconds keep the stored strings lexicographically
// ordered; RFC3339Nano would trim trailing zeros and break ORDER BY.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// StoreConfig configures a Store.
type StoreConfig struct {
	// DBPath is the database file, or ":memory:" for tests.
	DBPath string
	// SnapshotInterval is the minimum spacing between snapshots
	// (default 1h). Negative disables the guard.
	SnapshotInterval time.Duration
	// Retention caps how many snapshots are kept (default 24).
	Retention int
}

// Store is a SQLite-backed snapshot and run store.
type Store struct {
	db        *sql.DB
	interval  time.Duration
	retention int
}

// NewStore opens (creating if needed) the database at cfg.DBPath and runs
// migrations.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("store: db path is required")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, interval: cfg.SnapshotInterval, retention: cfg.Retention}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// GetDB exposes the raw handle for callers that need ad-hoc queries.
func (s *Store) GetDB() *sql.DB { return s.db }

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", raw, err)
	}
	return t, nil
}

func (s *Store) metaValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
