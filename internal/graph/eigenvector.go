package graph

import "gonum.org/v1/gonum/floats"

// Iteration defaults shared by the iterative centrality measures.
const (
	DefaultMaxIterations  = 100
	DefaultEigenTolerance = 1e-6
)

// Eigenvector computes eigenvector centrality by power iteration over the
// weighted adjacency, L2-normalizing each step.
//
// The second return reports convergence. On failure (iteration cap
// exceeded, or the walk collapses to a zero vector) the result is a zero
// vector with converged=false; callers treat the signal as absent rather
// than aborting.
func Eigenvector(g *Undirected, maxIterations int, tolerance float64) (map[int]float64, bool) {
	n := g.NumNodes()
	centrality := make(map[int]float64, n)
	if n == 0 {
		return centrality, true
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = DefaultEigenTolerance
	}

	vec := make([]float64, n)
	for i := range vec {
		vec[i] = 1
	}
	floats.Scale(1/floats.Norm(vec, 2), vec)

	next := make([]float64, n)
	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		// Iterate on A+I rather than A: same dominant eigenvector, but
		// bipartite structures (stars, trees) no longer oscillate.
		copy(next, vec)
		for u := 0; u < n; u++ {
			for _, nb := range g.adj[u] {
				next[u] += nb.weight * vec[nb.node]
			}
		}

		norm := floats.Norm(next, 2)
		if norm == 0 {
			break
		}
		floats.Scale(1/norm, next)

		if floats.Distance(vec, next, 2) < tolerance {
			converged = true
			copy(vec, next)
			break
		}
		copy(vec, next)
	}

	if !converged {
		for v := 0; v < n; v++ {
			centrality[v] = 0
		}
		return centrality, false
	}

	for v := 0; v < n; v++ {
		centrality[v] = vec[v]
	}
	return centrality, true
}
