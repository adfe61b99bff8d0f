package store

import (
	"context"
	"fmt"
)

// migrate creates all tables if they don't exist. Bootstrap is guarded by
// a meta flag so schema evolution can layer ALTERs on top later without
// re-running the DDL.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	); err != nil {
		return fmt.Errorf("creating meta table: %w", err)
	}

	done, err := s.metaValue(context.Background(), "schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("reading bootstrap flag: %w", err)
	}
	if done == "1" {
		return nil
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id          TEXT PRIMARY KEY,
			captured_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at)`,
		`CREATE TABLE IF NOT EXISTS snapshot_topics (
			snapshot_id    TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			slug           TEXT NOT NULL,
			mention_count  INTEGER NOT NULL,
			unique_authors INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, slug)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_topics_slug ON snapshot_topics(slug)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id                 TEXT PRIMARY KEY,
			captured_at        TEXT NOT NULL,
			direction_policy   TEXT NOT NULL,
			eigen_converged    INTEGER NOT NULL,
			pagerank_converged INTEGER NOT NULL,
			max_authors        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_scores (
			run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			slug             TEXT NOT NULL,
			rank             INTEGER NOT NULL,
			mention_rank     INTEGER NOT NULL,
			score            REAL NOT NULL,
			velocity         REAL NOT NULL,
			norm_velocity    REAL NOT NULL,
			norm_eigenvector REAL NOT NULL,
			norm_betweenness REAL NOT NULL,
			norm_pagerank    REAL NOT NULL,
			norm_authors     REAL NOT NULL,
			mention_count    INTEGER NOT NULL,
			unique_authors   INTEGER NOT NULL,
			PRIMARY KEY (run_id, slug)
		)`,
		`CREATE TABLE IF NOT EXISTS run_clusters (
			run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			cluster_index       INTEGER NOT NULL,
			slug                TEXT NOT NULL,
			collective_velocity REAL NOT NULL,
			PRIMARY KEY (run_id, cluster_index, slug)
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning bootstrap: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range ddl {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap DDL: %w", err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_bootstrap_complete', '1')
		 ON CONFLICT(key) DO UPDATE SET value = '1'`,
	); err != nil {
		return fmt.Errorf("marking bootstrap complete: %w", err)
	}

	return tx.Commit()
}
