// Package runner orchestrates a full scoring pass: capture posts,
// aggregate topic activity, snapshot metrics, score, and persist the run.
// Both the CLI and the MCP server go through it.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/openpulse/pulse/internal/config"
	"github.com/openpulse/pulse/internal/graph"
	"github.com/openpulse/pulse/internal/pulse"
	"github.com/openpulse/pulse/internal/store"
	"github.com/openpulse/pulse/internal/topics"
)

// Fetcher captures posts for a scoring run (implemented by the HN client).
type Fetcher interface {
	TopStories(ctx context.Context, limit int) ([]topics.Post, error)
}

// Runner wires the capture, store, and engine together.
type Runner struct {
	store   *store.Store
	cfg     config.Config
	fetcher Fetcher
}

// New returns a runner over the given dependencies.
func New(st *store.Store, cfg config.Config, fetcher Fetcher) *Runner {
	return &Runner{store: st, cfg: cfg, fetcher: fetcher}
}

// Snapshot captures current topic metrics and persists them, honoring the
// snapshot interval unless force is set. It returns the capture metadata,
// whether a snapshot was actually saved, and the post/topic counts.
func (r *Runner) Snapshot(ctx context.Context, force bool) (store.SnapshotMeta, bool, int, error) {
	stats, _, _, err := r.capture(ctx)
	if err != nil {
		return store.SnapshotMeta{}, false, 0, err
	}

	meta, saved, err := r.store.SaveSnapshot(ctx, toSnapshots(stats), force)
	if err != nil {
		return store.SnapshotMeta{}, false, 0, err
	}
	return meta, saved, len(stats), nil
}

// Run executes the full pipeline and persists the result. The baseline for
// each topic is its mean mention count over snapshots within the recency
// window, read before the fresh capture is saved so the run never compares
// a capture against itself.
func (r *Runner) Run(ctx context.Context) (*store.Run, error) {
	stats, edges, authorCount, err := r.capture(ctx)
	if err != nil {
		return nil, err
	}

	window := time.Duration(r.cfg.Aggregation.WindowHours) * time.Hour
	baselines, err := r.store.BaselineMentions(ctx, window)
	if err != nil {
		return nil, err
	}

	meta, _, err := r.store.SaveSnapshot(ctx, toSnapshots(stats), false)
	if err != nil {
		return nil, err
	}
	capturedAt := meta.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	maxAuthors := r.cfg.Scoring.MaxAuthors
	if maxAuthors <= 0 {
		maxAuthors = authorCount
	}
	if maxAuthors <= 0 {
		return nil, fmt.Errorf("%w: no author population available for normalization", pulse.ErrInvalidInput)
	}

	engine, err := pulse.NewEngine(r.cfg.EngineConfig(maxAuthors))
	if err != nil {
		return nil, err
	}

	records := make([]pulse.MentionRecord, 0, len(stats))
	for _, st := range stats {
		records = append(records, pulse.MentionRecord{
			TopicID:          st.Slug,
			CurrentMentions:  st.Mentions,
			BaselineMentions: baselines[st.Slug],
			UniqueAuthors:    st.UniqueAuthors,
		})
	}

	result, err := engine.Run(records, edges)
	if err != nil {
		return nil, err
	}

	runID, err := r.store.SaveRun(ctx, result, capturedAt, maxAuthors)
	if err != nil {
		return nil, err
	}

	return &store.Run{
		ID:         runID,
		CapturedAt: capturedAt,
		MaxAuthors: maxAuthors,
		Result:     *result,
	}, nil
}

// capture fetches posts and aggregates them into topic stats and edges,
// also reporting the distinct-author population of the capture.
func (r *Runner) capture(ctx context.Context) ([]topics.TopicStat, []graph.Edge, int, error) {
	posts, err := r.fetcher.TopStories(ctx, r.cfg.FetchLimit)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("fetching posts: %w", err)
	}

	extractor := topics.NewExtractor(nil)
	stats, edges := extractor.Aggregate(posts, topics.AggregateOptions{
		MinSharedAuthors: r.cfg.Aggregation.MinSharedAuthors,
		Window:           time.Duration(r.cfg.Aggregation.WindowHours) * time.Hour,
	})

	authors := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if p.Author != "" {
			authors[p.Author] = struct{}{}
		}
	}
	return stats, edges, len(authors), nil
}

func toSnapshots(stats []topics.TopicStat) []store.TopicSnapshot {
	snaps := make([]store.TopicSnapshot, 0, len(stats))
	for _, st := range stats {
		snaps = append(snaps, store.TopicSnapshot{
			Slug:          st.Slug,
			MentionCount:  st.Mentions,
			UniqueAuthors: st.UniqueAuthors,
		})
	}
	return snaps
}
