// Package mcp provides a Model Context Protocol server exposing pulse
// rankings as tools: latest ranked topics, cluster assignments, snapshot
// capture, and on-demand scoring runs. Stdio transport only; the scoring
// engine itself stays a library and never serves anything.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openpulse/pulse/internal/pulse"
	"github.com/openpulse/pulse/internal/runner"
	"github.com/openpulse/pulse/internal/store"
	"github.com/openpulse/pulse/internal/topics"
)

// ServerConfig holds dependencies for the MCP server.
type ServerConfig struct {
	Store   *store.Store
	Runner  *runner.Runner
	Version string
}

// dbMu serializes tool calls that touch the database. The mcp-go library
// dispatches handlers concurrently and SQLite supports only one writer.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all pulse tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Pulse",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerTopicsTool(s, cfg.Store)
	registerClustersTool(s, cfg.Store)
	registerSnapshotTool(s, cfg.Runner)
	registerRunTool(s, cfg.Runner)
	registerLatestRunResource(s, cfg.Store)

	return s
}

type topicView struct {
	TopicID       string          `json:"topic_id"`
	Label         string          `json:"label"`
	Score         float64         `json:"score"`
	Velocity      float64         `json:"velocity"`
	Subscores     pulse.Subscores `json:"subscores"`
	MentionCount  int             `json:"mention_count"`
	UniqueAuthors int             `json:"unique_authors"`
	PulseRank     int             `json:"pulse_rank"`
	MentionRank   int             `json:"mention_rank"`
}

func registerTopicsTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("pulse_topics",
		mcp.WithDescription("Get the latest ranked pulse scores: per-topic combined score plus the normalized velocity, eigenvector, betweenness, pagerank, and author-diversity sub-scores."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum topics to return (default: all)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		run, err := st.LatestRun(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading latest run: %v", err)), nil
		}
		if run == nil {
			return mcp.NewToolResultError("no scoring runs yet — use pulse_run first"), nil
		}

		limit := len(run.Result.Scores)
		if v, err := req.RequireFloat("limit"); err == nil && int(v) > 0 && int(v) < limit {
			limit = int(v)
		}

		views := make([]topicView, 0, limit)
		for _, sc := range run.Result.Scores[:limit] {
			views = append(views, topicView{
				TopicID:       sc.TopicID,
				Label:         topics.Label(sc.TopicID),
				Score:         sc.Score,
				Velocity:      sc.Velocity,
				Subscores:     sc.Subscores,
				MentionCount:  sc.MentionCount,
				UniqueAuthors: sc.UniqueAuthors,
				PulseRank:     sc.PulseRank,
				MentionRank:   sc.MentionRank,
			})
		}

		payload := map[string]interface{}{
			"run_id":                run.ID,
			"captured_at":           run.CapturedAt,
			"direction_policy":      run.Result.DirectionPolicy,
			"eigenvector_converged": run.Result.EigenvectorConverged,
			"pagerank_converged":    run.Result.PageRankConverged,
			"topics":                views,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerClustersTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("pulse_clusters",
		mcp.WithDescription("Get topic clusters from the latest run: connected groups of co-occurring topics with their collective velocity."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		run, err := st.LatestRun(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading latest run: %v", err)), nil
		}
		if run == nil {
			return mcp.NewToolResultError("no scoring runs yet — use pulse_run first"), nil
		}

		payload := map[string]interface{}{
			"run_id":      run.ID,
			"captured_at": run.CapturedAt,
			"clusters":    run.Result.Clusters,
			"count":       len(run.Result.Clusters),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSnapshotTool(s *server.MCPServer, r *runner.Runner) {
	tool := mcp.NewTool("pulse_snapshot",
		mcp.WithDescription("Capture a fresh snapshot of topic mention metrics from Hacker News. Skipped when a recent snapshot already exists unless force is set."),
		mcp.WithBoolean("force",
			mcp.Description("Capture even if the snapshot interval has not elapsed"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		force := false
		if v, err := req.RequireBool("force"); err == nil {
			force = v
		}

		dbMu.Lock()
		defer dbMu.Unlock()

		meta, saved, topicCount, err := r.Snapshot(ctx, force)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("capturing snapshot: %v", err)), nil
		}
		if !saved {
			return mcp.NewToolResultText(`{"saved": false, "reason": "snapshot interval not elapsed"}`), nil
		}

		payload := map[string]interface{}{
			"saved":       true,
			"snapshot_id": meta.ID,
			"captured_at": meta.CapturedAt,
			"topics":      topicCount,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunTool(s *server.MCPServer, r *runner.Runner) {
	tool := mcp.NewTool("pulse_run",
		mcp.WithDescription("Run the full scoring pipeline: fetch posts, extract topics, snapshot metrics, build the co-occurrence graph, compute centrality, and rank pulse scores."),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		run, err := r.Run(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scoring run: %v", err)), nil
		}

		data, _ := json.MarshalIndent(run, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerLatestRunResource(s *server.MCPServer, st *store.Store) {
	resource := mcp.NewResource(
		"pulse://runs/latest",
		"Latest Pulse Run",
		mcp.WithResourceDescription("The most recent scoring run: ranked topic scores, sub-scores, and cluster assignments."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		run, err := st.LatestRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading latest run: %w", err)
		}
		if run == nil {
			return nil, fmt.Errorf("no scoring runs recorded")
		}

		data, _ := json.MarshalIndent(run, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
