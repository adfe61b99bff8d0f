package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TopicSnapshot is one topic's metrics at capture time.
type TopicSnapshot struct {
	Slug          string `json:"slug"`
	MentionCount  int    `json:"mention_count"`
	UniqueAuthors int    `json:"unique_authors"`
}

// SnapshotMeta identifies a stored snapshot.
type SnapshotMeta struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
}

// SaveSnapshot persists one capture of topic metrics. Captures within the
// configured interval of the previous snapshot are skipped (saved=false)
// unless force is set. Snapshots beyond the retention cap are pruned,
// oldest first.
func (s *Store) SaveSnapshot(ctx context.Context, topics []TopicSnapshot, force bool) (SnapshotMeta, bool, error) {
	now := time.Now().UTC()

	if !force && s.interval > 0 {
		latest, _, err := s.LatestSnapshot(ctx)
		if err != nil {
			return SnapshotMeta{}, false, err
		}
		if latest != nil && now.Sub(latest.CapturedAt) < s.interval {
			return SnapshotMeta{}, false, nil
		}
	}

	meta := SnapshotMeta{ID: uuid.NewString(), CapturedAt: now}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("beginning snapshot save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, captured_at) VALUES (?, ?)`,
		meta.ID, meta.CapturedAt.Format(timeFormat),
	); err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("inserting snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_topics (snapshot_id, slug, mention_count, unique_authors)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("preparing snapshot topics: %w", err)
	}
	defer stmt.Close()

	for _, t := range topics {
		if t.Slug == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, meta.ID, t.Slug, t.MentionCount, t.UniqueAuthors); err != nil {
			return SnapshotMeta{}, false, fmt.Errorf("inserting snapshot topic %q: %w", t.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("committing snapshot: %w", err)
	}

	if err := s.pruneSnapshots(ctx); err != nil {
		return meta, true, err
	}
	return meta, true, nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*SnapshotMeta, []TopicSnapshot, error) {
	return s.snapshotAtOffset(ctx, 0)
}

// PreviousSnapshot returns the snapshot before the latest, or nil.
func (s *Store) PreviousSnapshot(ctx context.Context) (*SnapshotMeta, []TopicSnapshot, error) {
	return s.snapshotAtOffset(ctx, 1)
}

func (s *Store) snapshotAtOffset(ctx context.Context, offset int) (*SnapshotMeta, []TopicSnapshot, error) {
	var (
		id  string
		raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, captured_at FROM snapshots
		 ORDER BY captured_at DESC, id DESC
		 LIMIT 1 OFFSET ?`, offset,
	).Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading snapshot: %w", err)
	}

	capturedAt, err := parseTime(raw)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, mention_count, unique_authors
		 FROM snapshot_topics WHERE snapshot_id = ?
		 ORDER BY slug`, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("loading snapshot topics: %w", err)
	}
	defer rows.Close()

	var topics []TopicSnapshot
	for rows.Next() {
		var t TopicSnapshot
		if err := rows.Scan(&t.Slug, &t.MentionCount, &t.UniqueAuthors); err != nil {
			return nil, nil, fmt.Errorf("scanning snapshot topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return &SnapshotMeta{ID: id, CapturedAt: capturedAt}, topics, nil
}

// BaselineMentions returns the mean mention count per topic over all
// snapshots captured within the window ending now. This is the rolling
// historical baseline that feeds velocity; topics absent from every
// snapshot simply have no baseline (emerging).
func (s *Store) BaselineMentions(ctx context.Context, window time.Duration) (map[string]float64, error) {
	cutoff := time.Now().UTC().Add(-window).Format(timeFormat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT st.slug, AVG(st.mention_count)
		 FROM snapshot_topics st
		 JOIN snapshots sn ON sn.id = st.snapshot_id
		 WHERE sn.captured_at >= ?
		 GROUP BY st.slug`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()

	baselines := make(map[string]float64)
	for rows.Next() {
		var (
			slug string
			avg  float64
		)
		if err := rows.Scan(&slug, &avg); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		baselines[slug] = avg
	}
	return baselines, rows.Err()
}

// CountSnapshots returns the number of stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}

func (s *Store) pruneSnapshots(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, captured_at FROM snapshots ORDER BY captured_at DESC, id DESC`,
	)
	if err != nil {
		return fmt.Errorf("listing snapshots for prune: %w", err)
	}
	defer rows.Close()

	type snap struct{ id, capturedAt string }
	var snaps []snap
	for rows.Next() {
		var sn snap
		if err := rows.Scan(&sn.id, &sn.capturedAt); err != nil {
			return fmt.Errorf("scanning snapshot for prune: %w", err)
		}
		snaps = append(snaps, sn)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(snaps) <= s.retention {
		return nil
	}

	stale := snaps[s.retention:]
	sort.Slice(stale, func(i, j int) bool { return stale[i].capturedAt < stale[j].capturedAt })
	for _, sn := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, sn.id); err != nil {
			return fmt.Errorf("pruning snapshot %s: %w", sn.id, err)
		}
	}
	return nil
}
