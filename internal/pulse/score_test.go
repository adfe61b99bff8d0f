package pulse

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDefaultWeightsValid(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("Default weights should validate: %v", err)
	}
}

func TestWeightsValidation(t *testing.T) {
	w := DefaultWeights()
	w.Velocity = 0.5 // sum now 1.25
	if err := w.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for bad sum, got %v", err)
	}

	w = Weights{Velocity: 1.25, Eigenvector: -0.25, Betweenness: 0, PageRank: 0, Authors: 0}
	if err := w.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for negative weight, got %v", err)
	}
}

func TestComputeScoreKnownValue(t *testing.T) {
	in := ScoreInputs{
		Velocity:      3.0, // saturates at cap
		Eigenvector:   0.5,
		Betweenness:   0.25,
		PageRank:      0.1,
		UniqueAuthors: 10,
	}
	score, sub, err := ComputeScore(in, DefaultWeights(), DefaultVelocityCap, 20)
	if err != nil {
		t.Fatalf("ComputeScore: %v", err)
	}

	// 0.25*1.0 + 0.25*0.5 + 0.20*0.25 + 0.15*0.1 + 0.15*0.5 = 0.515
	if score != 0.515 {
		t.Fatalf("Expected 0.515, got %g", score)
	}
	if sub.Velocity != 1.0 {
		t.Fatalf("Expected velocity saturated at 1.0, got %g", sub.Velocity)
	}
	if sub.Authors != 0.5 {
		t.Fatalf("Expected authors sub-score 0.5, got %g", sub.Authors)
	}
}

func TestComputeScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := DefaultWeights()

	for i := 0; i < 1000; i++ {
		in := ScoreInputs{
			Velocity:      rng.Float64() * 50,
			Eigenvector:   rng.Float64() * 2,
			Betweenness:   rng.Float64() * 2,
			PageRank:      rng.Float64() * 2,
			UniqueAuthors: rng.Intn(500),
		}
		score, _, err := ComputeScore(in, w, DefaultVelocityCap, 100)
		if err != nil {
			t.Fatalf("ComputeScore: %v", err)
		}
		if score < 0 || score > 1 {
			t.Fatalf("Score out of [0,1]: %g (inputs %+v)", score, in)
		}
		if got := math.Round(score*10000) / 10000; got != score {
			t.Fatalf("Score not rounded to 4 decimals: %g", score)
		}
	}
}

func TestComputeScoreDeterministic(t *testing.T) {
	in := ScoreInputs{Velocity: 1.7, Eigenvector: 0.3, Betweenness: 0.1, PageRank: 0.05, UniqueAuthors: 7}
	first, _, err := ComputeScore(in, DefaultWeights(), DefaultVelocityCap, 25)
	if err != nil {
		t.Fatalf("ComputeScore: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _, err := ComputeScore(in, DefaultWeights(), DefaultVelocityCap, 25)
		if err != nil {
			t.Fatalf("ComputeScore: %v", err)
		}
		if again != first {
			t.Fatalf("Identical input produced %g then %g", first, again)
		}
	}
}

func TestComputeScoreRejectsBadInputs(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		name string
		in   ScoreInputs
		max  int
	}{
		{"negative velocity", ScoreInputs{Velocity: -1}, 10},
		{"negative eigenvector", ScoreInputs{Eigenvector: -0.1}, 10},
		{"negative betweenness", ScoreInputs{Betweenness: -0.1}, 10},
		{"negative pagerank", ScoreInputs{PageRank: -0.1}, 10},
		{"negative authors", ScoreInputs{UniqueAuthors: -1}, 10},
		{"zero max authors", ScoreInputs{Velocity: 1}, 0},
		{"negative max authors", ScoreInputs{Velocity: 1}, -5},
	}

	for _, tc := range cases {
		if _, _, err := ComputeScore(tc.in, w, DefaultVelocityCap, tc.max); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}
