package store

import (
	"context"
	"testing"
	"time"

	"github.com/openpulse/pulse/internal/pulse"
)

func sampleResult() *pulse.Result {
	return &pulse.Result{
		Scores: []pulse.Score{
			{
				TopicID:  "ai",
				Score:    0.7312,
				Velocity: 2.5,
				Subscores: pulse.Subscores{
					Velocity:    0.8333,
					Eigenvector: 0.9,
					Betweenness: 0.5,
					PageRank:    0.4,
					Authors:     0.6,
				},
				MentionCount:  25,
				UniqueAuthors: 12,
				PulseRank:     1,
				MentionRank:   1,
			},
			{
				TopicID:       "rust",
				Score:         0.41,
				Velocity:      1.0,
				MentionCount:  10,
				UniqueAuthors: 5,
				PulseRank:     2,
				MentionRank:   2,
			},
		},
		Clusters: []pulse.Cluster{
			{TopicIDs: []string{"ai", "rust"}, CollectiveVelocity: 1.75},
		},
		DirectionPolicy:      "canonical_order",
		EigenvectorConverged: true,
		PageRankConverged:    false,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	capturedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.SaveRun(ctx, sampleResult(), capturedAt, 20)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatalf("Expected a run id")
	}

	run, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil {
		t.Fatalf("Expected a run")
	}
	if run.ID != id || run.MaxAuthors != 20 {
		t.Fatalf("Run metadata mismatch: %+v", run)
	}
	if !run.CapturedAt.Equal(capturedAt) {
		t.Fatalf("CapturedAt round-trip: got %v, want %v", run.CapturedAt, capturedAt)
	}
	if run.Result.EigenvectorConverged != true || run.Result.PageRankConverged != false {
		t.Fatalf("Convergence flags lost: %+v", run.Result)
	}
	if run.Result.DirectionPolicy != "canonical_order" {
		t.Fatalf("Direction policy lost: %q", run.Result.DirectionPolicy)
	}

	if len(run.Result.Scores) != 2 {
		t.Fatalf("Expected 2 scores, got %d", len(run.Result.Scores))
	}
	want := sampleResult().Scores[0]
	if run.Result.Scores[0] != want {
		t.Fatalf("Score round-trip mismatch:\n got %+v\nwant %+v", run.Result.Scores[0], want)
	}
	// Scores come back in rank order
	if run.Result.Scores[1].TopicID != "rust" {
		t.Fatalf("Expected rust second, got %q", run.Result.Scores[1].TopicID)
	}

	if len(run.Result.Clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(run.Result.Clusters))
	}
	cluster := run.Result.Clusters[0]
	if cluster.CollectiveVelocity != 1.75 || len(cluster.TopicIDs) != 2 {
		t.Fatalf("Cluster round-trip mismatch: %+v", cluster)
	}
}

func TestLatestRunEmpty(t *testing.T) {
	s := newTestStore(t)

	run, err := s.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run != nil {
		t.Fatalf("Expected nil without runs, got %+v", run)
	}
}

func TestLatestRunPicksNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if _, err := s.SaveRun(ctx, sampleResult(), older, 20); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	newestID, err := s.SaveRun(ctx, sampleResult(), newer, 20)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil || run.ID != newestID {
		t.Fatalf("Expected newest run %s, got %+v", newestID, run)
	}
}
