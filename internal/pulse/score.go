package pulse

import (
	"fmt"
	"math"
)

// DefaultVelocityCap caps the velocity contribution at 3x baseline growth.
// Growth beyond the cap contributes no additional score.
const DefaultVelocityCap = 3.0

const weightSumTolerance = 1e-9

// Weights are the fixed combination weights of the five pulse signals.
// They must sum to exactly 1.0 (validated once at configuration time).
type Weights struct {
	Velocity    float64 `yaml:"velocity" json:"velocity"`
	Eigenvector float64 `yaml:"eigenvector" json:"eigenvector"`
	Betweenness float64 `yaml:"betweenness" json:"betweenness"`
	PageRank    float64 `yaml:"pagerank" json:"pagerank"`
	Authors     float64 `yaml:"authors" json:"authors"`
}

// DefaultWeights returns the standard 25/25/20/15/15 split.
func DefaultWeights() Weights {
	return Weights{
		Velocity:    0.25,
		Eigenvector: 0.25,
		Betweenness: 0.20,
		PageRank:    0.15,
		Authors:     0.15,
	}
}

// Validate checks that every weight is non-negative and the weights sum
// to 1.0 within floating-point tolerance.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"velocity":    w.Velocity,
		"eigenvector": w.Eigenvector,
		"betweenness": w.Betweenness,
		"pagerank":    w.PageRank,
		"authors":     w.Authors,
	} {
		if v < 0 {
			return fmt.Errorf("%w: negative %s weight (%g)", ErrInvalidConfig, name, v)
		}
	}
	sum := w.Velocity + w.Eigenvector + w.Betweenness + w.PageRank + w.Authors
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: score weights sum to %g, want 1.0", ErrInvalidConfig, sum)
	}
	return nil
}

// ScoreInputs are the raw signals for one topic.
type ScoreInputs struct {
	Velocity      float64
	Eigenvector   float64
	Betweenness   float64
	PageRank      float64
	UniqueAuthors int
}

// Subscores are the normalized per-signal contributions, kept alongside
// the final score for explainability.
type Subscores struct {
	Velocity    float64 `json:"velocity"`
	Eigenvector float64 `json:"eigenvector"`
	Betweenness float64 `json:"betweenness"`
	PageRank    float64 `json:"pagerank"`
	Authors     float64 `json:"authors"`
}

// ComputeScore combines the five raw signals into a single pulse score in
// [0,1], rounded to 4 decimal places, along with the normalized sub-scores.
//
// All preconditions are checked before any computation and violations fail
// with ErrInvalidInput, never a silently coerced value. In particular
// maxAuthors must be strictly positive: a zero population is a caller bug,
// not an invitation to substitute 1.
//
// Normalization: velocity is capped at velocityCap (saturating at that
// growth multiple); eigenvector and PageRank are clamped at 1 because
// neither algorithm guarantees boundedness (eigenvector is L2-normalized,
// not max-normalized); betweenness is clamped defensively even though its
// normalization is nominally [0,1]; authors are scaled by the population.
func ComputeScore(in ScoreInputs, w Weights, velocityCap float64, maxAuthors int) (float64, Subscores, error) {
	var zero Subscores
	if in.Velocity < 0 {
		return 0, zero, fmt.Errorf("%w: negative velocity (%g)", ErrInvalidInput, in.Velocity)
	}
	if in.Eigenvector < 0 {
		return 0, zero, fmt.Errorf("%w: negative eigenvector centrality (%g)", ErrInvalidInput, in.Eigenvector)
	}
	if in.Betweenness < 0 {
		return 0, zero, fmt.Errorf("%w: negative betweenness centrality (%g)", ErrInvalidInput, in.Betweenness)
	}
	if in.PageRank < 0 {
		return 0, zero, fmt.Errorf("%w: negative pagerank (%g)", ErrInvalidInput, in.PageRank)
	}
	if in.UniqueAuthors < 0 {
		return 0, zero, fmt.Errorf("%w: negative unique authors (%d)", ErrInvalidInput, in.UniqueAuthors)
	}
	if maxAuthors <= 0 {
		return 0, zero, fmt.Errorf("%w: max authors must be positive, got %d", ErrInvalidInput, maxAuthors)
	}
	if velocityCap <= 0 {
		velocityCap = DefaultVelocityCap
	}

	sub := Subscores{
		Velocity:    math.Min(in.Velocity/velocityCap, 1.0),
		Eigenvector: math.Min(in.Eigenvector, 1.0),
		Betweenness: math.Min(in.Betweenness, 1.0),
		PageRank:    math.Min(in.PageRank, 1.0),
		Authors:     math.Min(float64(in.UniqueAuthors)/float64(maxAuthors), 1.0),
	}

	score := w.Velocity*sub.Velocity +
		w.Eigenvector*sub.Eigenvector +
		w.Betweenness*sub.Betweenness +
		w.PageRank*sub.PageRank +
		w.Authors*sub.Authors

	// Clamp after the weighted sum to absorb floating-point drift, then
	// round to 4 decimals.
	score = math.Max(0.0, math.Min(score, 1.0))
	score = math.Round(score*10000) / 10000

	return score, sub, nil
}
