// Package pulse ranks discussion topics by combining mention acceleration
// with graph-centrality signals into a single bounded score.
//
// The engine is a pure in-memory pipeline: callers supply already
// materialized mention records and co-occurrence edges, and get back ranked
// scores plus a cluster partition. It never fetches, persists, or serves
// anything itself.
package pulse

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/openpulse/pulse/internal/graph"
)

// MentionRecord is one topic's mention activity for the scoring window.
// Records are immutable once built and consumed only by the engine.
type MentionRecord struct {
	TopicID          string  `json:"topic_id"`
	CurrentMentions  int     `json:"current_mentions"`
	BaselineMentions float64 `json:"baseline_mentions"`
	UniqueAuthors    int     `json:"unique_authors"`
}

// Score is the terminal output of the engine for one topic: the combined
// pulse score plus every normalized sub-score for explainability, and the
// rank under both pulse and raw mention-count ordering for comparison.
type Score struct {
	TopicID       string    `json:"topic_id"`
	Score         float64   `json:"score"`
	Velocity      float64   `json:"velocity"`
	Subscores     Subscores `json:"subscores"`
	MentionCount  int       `json:"mention_count"`
	UniqueAuthors int       `json:"unique_authors"`
	PulseRank     int       `json:"pulse_rank"`
	MentionRank   int       `json:"mention_rank"`
}

// Cluster is a set of topics judged related via graph connectivity, with
// the mean velocity of its scored members.
type Cluster struct {
	TopicIDs           []string `json:"topic_ids"`
	CollectiveVelocity float64  `json:"collective_velocity"`
}

// Result is one scoring run's complete output.
type Result struct {
	// Scores is sorted by score descending, ties broken by topic id
	// ascending, so ordering is reproducible for identical input.
	Scores   []Score   `json:"scores"`
	Clusters []Cluster `json:"clusters"`

	DirectionPolicy      string `json:"direction_policy"`
	EigenvectorConverged bool   `json:"eigenvector_converged"`
	PageRankConverged    bool   `json:"pagerank_converged"`
}

// Config controls one engine instance. All knobs are injected by the
// caller; the engine never reads ambient state.
type Config struct {
	// VelocityCap saturates the velocity signal (default 3.0).
	VelocityCap float64
	// Damping is the PageRank damping factor, in (0,1) (default 0.85).
	Damping float64
	// MaxIterations bounds the iterative centrality measures (default 100).
	MaxIterations int
	// EigenTolerance is the eigenvector convergence threshold (default 1e-6).
	EigenTolerance float64
	// PageRankTolerance is the PageRank convergence threshold (default 1e-8).
	PageRankTolerance float64
	// MaxAuthors is the author-diversity normalization population.
	// Strictly positive; there is no silent default.
	MaxAuthors int
	// Weights are the signal combination weights (must sum to 1.0).
	Weights Weights
	// Direction optionally overrides the directed-edge policy used for
	// PageRank; nil means canonical order.
	Direction graph.DirectionPolicy
	// DirectionName labels the policy in the result metadata.
	DirectionName string
}

// Engine computes pulse scores. One engine may serve many runs; runs over
// disjoint inputs are safe to execute concurrently since the engine holds
// no mutable state.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg once and returns a ready engine. Configuration
// defects surface here as ErrInvalidConfig, never mid-run.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.VelocityCap == 0 {
		cfg.VelocityCap = DefaultVelocityCap
	}
	if cfg.VelocityCap < 0 {
		return nil, fmt.Errorf("%w: negative velocity cap (%g)", ErrInvalidConfig, cfg.VelocityCap)
	}
	if cfg.Damping == 0 {
		cfg.Damping = graph.DefaultDamping
	}
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		return nil, fmt.Errorf("%w: pagerank damping %g outside (0,1)", ErrInvalidConfig, cfg.Damping)
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = graph.DefaultMaxIterations
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: negative max iterations (%d)", ErrInvalidConfig, cfg.MaxIterations)
	}
	if cfg.EigenTolerance == 0 {
		cfg.EigenTolerance = graph.DefaultEigenTolerance
	}
	if cfg.PageRankTolerance == 0 {
		cfg.PageRankTolerance = graph.DefaultPRTolerance
	}
	if cfg.MaxAuthors <= 0 {
		return nil, fmt.Errorf("%w: max authors must be positive, got %d", ErrInvalidConfig, cfg.MaxAuthors)
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Run executes one scoring pass: graph construction, centrality, signal
// normalization, weighted combination, ranking, and cluster detection.
//
// Convergence failures in the iterative measures do not fail the run; the
// affected signal degrades (zero vector for eigenvector, best-so-far for
// PageRank) and the corresponding converged flag is cleared on the result.
func (e *Engine) Run(records []MentionRecord, edges []graph.Edge) (*Result, error) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.TopicID == "" {
			return nil, fmt.Errorf("%w: empty topic id in mention record", ErrInvalidInput)
		}
		if _, dup := seen[r.TopicID]; dup {
			return nil, fmt.Errorf("%w: duplicate mention record for topic %q", ErrInvalidInput, r.TopicID)
		}
		seen[r.TopicID] = struct{}{}
		if r.CurrentMentions < 0 || r.UniqueAuthors < 0 {
			return nil, fmt.Errorf("%w: negative counts for topic %q", ErrInvalidInput, r.TopicID)
		}
		if r.BaselineMentions < 0 {
			return nil, fmt.Errorf("%w: negative baseline for topic %q", ErrInvalidInput, r.TopicID)
		}
	}

	build, err := graph.BuildGraphs(edges, graph.BuildOptions{
		Direction:     e.cfg.Direction,
		DirectionName: e.cfg.DirectionName,
	})
	if err != nil {
		if errors.Is(err, graph.ErrInvalidEdge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	betweenness := graph.Betweenness(build.Undirected)
	eigen, eigenOK := graph.Eigenvector(build.Undirected, e.cfg.MaxIterations, e.cfg.EigenTolerance)
	pagerank, prOK := graph.PageRank(build.Directed, e.cfg.Damping, e.cfg.MaxIterations, e.cfg.PageRankTolerance)

	velocities := make(map[string]float64, len(records))
	scores := make([]Score, 0, len(records))
	for _, r := range records {
		velocity, err := ComputeVelocity(r.CurrentMentions, r.BaselineMentions)
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", r.TopicID, err)
		}
		velocities[r.TopicID] = velocity

		in := ScoreInputs{
			Velocity:      velocity,
			UniqueAuthors: r.UniqueAuthors,
		}
		if idx, ok := build.Index[r.TopicID]; ok {
			in.Eigenvector = eigen[idx]
			in.Betweenness = betweenness[idx]
			in.PageRank = pagerank[idx]
		}
		// Clamp the rare negative phase of the eigenvector before the
		// combiner's fail-fast validation; sign is arbitrary in power
		// iteration and carries no ranking information.
		if in.Eigenvector < 0 {
			in.Eigenvector = -in.Eigenvector
		}

		score, sub, err := ComputeScore(in, e.cfg.Weights, e.cfg.VelocityCap, e.cfg.MaxAuthors)
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", r.TopicID, err)
		}
		scores = append(scores, Score{
			TopicID:       r.TopicID,
			Score:         score,
			Velocity:      velocity,
			Subscores:     sub,
			MentionCount:  r.CurrentMentions,
			UniqueAuthors: r.UniqueAuthors,
		})
	}

	rankScores(scores)

	return &Result{
		Scores:               scores,
		Clusters:             e.buildClusters(build, velocities),
		DirectionPolicy:      build.DirectionPolicy,
		EigenvectorConverged: eigenOK,
		PageRankConverged:    prOK,
	}, nil
}

// rankScores orders by pulse score descending with topic id as the
// deterministic tie-break, then assigns both pulse and mention-count ranks.
func rankScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].MentionCount != scores[j].MentionCount {
			return scores[i].MentionCount > scores[j].MentionCount
		}
		return scores[i].TopicID < scores[j].TopicID
	})
	for i := range scores {
		scores[i].MentionRank = i + 1
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TopicID < scores[j].TopicID
	})
	for i := range scores {
		scores[i].PulseRank = i + 1
	}
}

func (e *Engine) buildClusters(build *graph.Build, velocities map[string]float64) []Cluster {
	components := graph.ConnectedComponents(build.Undirected)
	clusters := make([]Cluster, 0, len(components))
	for _, component := range components {
		topicIDs := make([]string, 0, len(component))
		memberVelocities := make([]float64, 0, len(component))
		for _, idx := range component {
			topic := build.Topics[idx]
			topicIDs = append(topicIDs, topic)
			if v, ok := velocities[topic]; ok {
				memberVelocities = append(memberVelocities, v)
			}
		}
		sort.Strings(topicIDs)

		collective := 0.0
		if len(memberVelocities) > 0 {
			collective = stat.Mean(memberVelocities, nil)
		}
		clusters = append(clusters, Cluster{
			TopicIDs:           topicIDs,
			CollectiveVelocity: collective,
		})
	}
	return clusters
}
