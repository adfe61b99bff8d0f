package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/openpulse/pulse/internal/pulse"
)

// Run is a persisted scoring run: the engine result plus capture metadata.
type Run struct {
	ID         string       `json:"id"`
	CapturedAt time.Time    `json:"captured_at"`
	MaxAuthors int          `json:"max_authors"`
	Result     pulse.Result `json:"result"`
}

// SaveRun persists a completed scoring run and returns its id.
func (s *Store) SaveRun(ctx context.Context, result *pulse.Result, capturedAt time.Time, maxAuthors int) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning run save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, captured_at, direction_policy, eigen_converged, pagerank_converged, max_authors)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, capturedAt.UTC().Format(timeFormat), result.DirectionPolicy,
		boolToInt(result.EigenvectorConverged), boolToInt(result.PageRankConverged), maxAuthors,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	scoreStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_scores
		 (run_id, slug, rank, mention_rank, score, velocity,
		  norm_velocity, norm_eigenvector, norm_betweenness, norm_pagerank, norm_authors,
		  mention_count, unique_authors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("preparing run scores: %w", err)
	}
	defer scoreStmt.Close()

	for _, sc := range result.Scores {
		if _, err := scoreStmt.ExecContext(ctx,
			id, sc.TopicID, sc.PulseRank, sc.MentionRank, sc.Score, sc.Velocity,
			sc.Subscores.Velocity, sc.Subscores.Eigenvector, sc.Subscores.Betweenness,
			sc.Subscores.PageRank, sc.Subscores.Authors,
			sc.MentionCount, sc.UniqueAuthors,
		); err != nil {
			return "", fmt.Errorf("inserting score for %q: %w", sc.TopicID, err)
		}
	}

	clusterStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_clusters (run_id, cluster_index, slug, collective_velocity)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("preparing run clusters: %w", err)
	}
	defer clusterStmt.Close()

	for i, cluster := range result.Clusters {
		for _, slug := range cluster.TopicIDs {
			if _, err := clusterStmt.ExecContext(ctx, id, i, slug, cluster.CollectiveVelocity); err != nil {
				return "", fmt.Errorf("inserting cluster member %q: %w", slug, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// LatestRun loads the most recent run, or nil when none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	run := &Run{}
	var (
		raw     string
		eigenOK int
		prOK    int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, captured_at, direction_policy, eigen_converged, pagerank_converged, max_authors
		 FROM runs ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&run.ID, &raw, &run.Result.DirectionPolicy, &eigenOK, &prOK, &run.MaxAuthors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	run.CapturedAt, err = parseTime(raw)
	if err != nil {
		return nil, err
	}
	run.Result.EigenvectorConverged = eigenOK != 0
	run.Result.PageRankConverged = prOK != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, rank, mention_rank, score, velocity,
		        norm_velocity, norm_eigenvector, norm_betweenness, norm_pagerank, norm_authors,
		        mention_count, unique_authors
		 FROM run_scores WHERE run_id = ? ORDER BY rank`, run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading run scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc pulse.Score
		if err := rows.Scan(
			&sc.TopicID, &sc.PulseRank, &sc.MentionRank, &sc.Score, &sc.Velocity,
			&sc.Subscores.Velocity, &sc.Subscores.Eigenvector, &sc.Subscores.Betweenness,
			&sc.Subscores.PageRank, &sc.Subscores.Authors,
			&sc.MentionCount, &sc.UniqueAuthors,
		); err != nil {
			return nil, fmt.Errorf("scanning run score: %w", err)
		}
		run.Result.Scores = append(run.Result.Scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	clusterRows, err := s.db.QueryContext(ctx,
		`SELECT cluster_index, slug, collective_velocity
		 FROM run_clusters WHERE run_id = ?
		 ORDER BY cluster_index, slug`, run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading run clusters: %w", err)
	}
	defer clusterRows.Close()

	byIndex := make(map[int]*pulse.Cluster)
	var indexes []int
	for clusterRows.Next() {
		var (
			idx      int
			slug     string
			velocity float64
		)
		if err := clusterRows.Scan(&idx, &slug, &velocity); err != nil {
			return nil, fmt.Errorf("scanning run cluster: %w", err)
		}
		c, ok := byIndex[idx]
		if !ok {
			c = &pulse.Cluster{CollectiveVelocity: velocity}
			byIndex[idx] = c
			indexes = append(indexes, idx)
		}
		c.TopicIDs = append(c.TopicIDs, slug)
	}
	if err := clusterRows.Err(); err != nil {
		return nil, err
	}

	sort.Ints(indexes)
	for _, idx := range indexes {
		run.Result.Clusters = append(run.Result.Clusters, *byIndex[idx])
	}

	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
