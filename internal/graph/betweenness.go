package graph

// Betweenness computes normalized betweenness centrality for every node
// using Brandes' algorithm over unweighted shortest paths.
//
// Accumulated pair dependencies are divided by (n-1)(n-2), the number of
// ordered node pairs excluding the node itself, so a star hub scores
// exactly 1.0. Graphs with fewer than three nodes have no intermediary
// positions and score 0 everywhere.
func Betweenness(g *Undirected) map[int]float64 {
	n := g.NumNodes()
	centrality := make(map[int]float64, n)
	for v := 0; v < n; v++ {
		centrality[v] = 0
	}
	if n < 3 {
		return centrality
	}

	for s := 0; s < n; s++ {
		// BFS from s, recording shortest-path counts and predecessors.
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.adj[v] {
				if dist[w.node] < 0 {
					dist[w.node] = dist[v] + 1
					queue = append(queue, w.node)
				}
				if dist[w.node] == dist[v]+1 {
					sigma[w.node] += sigma[v]
					preds[w.node] = append(preds[w.node], v)
				}
			}
		}

		// Back-propagate dependencies in reverse BFS order.
		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	scale := 1 / float64((n-1)*(n-2))
	for v := range centrality {
		centrality[v] *= scale
	}
	return centrality
}
