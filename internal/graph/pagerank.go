package graph

import "gonum.org/v1/gonum/floats"

// PageRank defaults.
const (
	DefaultDamping     = 0.85
	DefaultPRTolerance = 1e-8
)

// PageRank computes PageRank over the directed graph with the classic
// update rule. Dangling-node mass is redistributed uniformly each
// iteration so the score vector keeps summing to 1, and the final vector
// is renormalized by its sum to absorb floating-point drift.
//
// The second return reports convergence under the L1 difference
// criterion; on cap exhaustion the best-so-far vector is returned with
// converged=false.
func PageRank(g *Directed, damping float64, maxIterations int, tolerance float64) (map[int]float64, bool) {
	n := g.NumNodes()
	centrality := make(map[int]float64, n)
	if n == 0 {
		return centrality, true
	}
	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = DefaultPRTolerance
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	next := make([]float64, n)
	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		dangling := 0.0
		for u := 0; u < n; u++ {
			if len(g.out[u]) == 0 {
				dangling += rank[u]
			}
		}

		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for v := 0; v < n; v++ {
			sum := 0.0
			for _, u := range g.in[v] {
				sum += rank[u] / float64(len(g.out[u]))
			}
			next[v] = base + damping*sum
		}

		diff := 0.0
		for v := 0; v < n; v++ {
			d := next[v] - rank[v]
			if d < 0 {
				d = -d
			}
			diff += d
		}
		copy(rank, next)
		if diff < tolerance {
			converged = true
			break
		}
	}

	if total := floats.Sum(rank); total > 0 {
		floats.Scale(1/total, rank)
	}
	for v := 0; v < n; v++ {
		centrality[v] = rank[v]
	}
	return centrality, converged
}
