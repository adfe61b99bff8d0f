package graph

import "sort"

// ConnectedComponents partitions the node set into connected components.
// Every node appears in exactly one component, isolated nodes included.
// Components are discovered in node-index order and each component's
// members are sorted, so the partition is deterministic.
func ConnectedComponents(g *Undirected) [][]int {
	n := g.NumNodes()
	visited := make([]bool, n)
	components := make([][]int, 0)

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		component := []int{}
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, v)
			for _, nb := range g.adj[v] {
				if !visited[nb.node] {
					visited[nb.node] = true
					stack = append(stack, nb.node)
				}
			}
		}
		sort.Ints(component)
		components = append(components, component)
	}
	return components
}
