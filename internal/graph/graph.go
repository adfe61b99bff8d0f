// Package graph builds topic co-occurrence graphs and computes the
// centrality measures feeding the pulse score: betweenness, eigenvector,
// and PageRank, plus connected-component cluster detection.
//
// Node identity is an integer index assigned in first-seen edge order;
// the Build result carries the index-to-topic mapping both ways.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidEdge marks an edge that can never be admitted: a self-loop or
// a negative shared count.
var ErrInvalidEdge = errors.New("invalid edge")

// DirectionPolicyCanonical names the default directed-edge policy.
const DirectionPolicyCanonical = "canonical_order"

// Edge is one undirected co-occurrence between two topics. Weight on the
// undirected graph is SharedAuthors; SharedPosts is carried as an
// annotation.
type Edge struct {
	TopicA        string
	TopicB        string
	SharedPosts   int
	SharedAuthors int
}

// DirectionPolicy orients an undirected pair for the directed (PageRank)
// view of the graph.
type DirectionPolicy func(a, b string) (from, to string)

// CanonicalOrder directs each edge from the lexicographically lower topic
// id to the higher one. Deterministic and input-order independent.
func CanonicalOrder(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

type neighbor struct {
	node   int
	weight float64
	posts  int
}

// Undirected is a weighted undirected adjacency-list graph.
type Undirected struct {
	adj [][]neighbor
}

// NumNodes returns the node count.
func (g *Undirected) NumNodes() int { return len(g.adj) }

// NumEdges returns the undirected edge count.
func (g *Undirected) NumEdges() int {
	total := 0
	for _, ns := range g.adj {
		total += len(ns)
	}
	return total / 2
}

// Degree returns the number of neighbors of node u.
func (g *Undirected) Degree(u int) int { return len(g.adj[u]) }

// Weight returns the edge weight between u and v, or 0 if absent.
func (g *Undirected) Weight(u, v int) float64 {
	for _, n := range g.adj[u] {
		if n.node == v {
			return n.weight
		}
	}
	return 0
}

// Posts returns the shared-post annotation between u and v, or 0 if absent.
func (g *Undirected) Posts(u, v int) int {
	for _, n := range g.adj[u] {
		if n.node == v {
			return n.posts
		}
	}
	return 0
}

// Directed is the oriented view of the same node set, used by PageRank.
type Directed struct {
	out [][]int
	in  [][]int
}

// NumNodes returns the node count.
func (g *Directed) NumNodes() int { return len(g.out) }

// OutDegree returns the number of outgoing edges of node u.
func (g *Directed) OutDegree(u int) int { return len(g.out[u]) }

// Build is the constructed graph pair with its topic-index mapping.
type Build struct {
	Undirected *Undirected
	Directed   *Directed
	// Index maps topic id to node index.
	Index map[string]int
	// Topics maps node index back to topic id.
	Topics []string
	// DirectionPolicy names the policy the directed view was built with.
	DirectionPolicy string
}

// BuildOptions selects the directed-edge policy. A nil Direction means
// canonical order.
type BuildOptions struct {
	Direction     DirectionPolicy
	DirectionName string
}

type pair struct {
	a, b string
}

// BuildGraphs constructs the undirected and directed graphs from the given
// edges. Duplicate (a, b) pairs merge additively on both counts; the pair
// key is order-normalized, so (a, b) and (b, a) are one edge. Self-loops
// and negative counts fail with ErrInvalidEdge.
func BuildGraphs(edges []Edge, opts BuildOptions) (*Build, error) {
	direction := opts.Direction
	name := opts.DirectionName
	if direction == nil {
		direction = CanonicalOrder
		name = DirectionPolicyCanonical
	}
	if name == "" {
		name = "custom"
	}

	merged := make(map[pair]*Edge, len(edges))
	order := make([]pair, 0, len(edges))
	index := make(map[string]int)
	topics := make([]string, 0, len(edges))

	assign := func(topic string) {
		if _, ok := index[topic]; !ok {
			index[topic] = len(topics)
			topics = append(topics, topic)
		}
	}

	for _, e := range edges {
		if e.TopicA == e.TopicB {
			return nil, fmt.Errorf("%w: self-loop on topic %q", ErrInvalidEdge, e.TopicA)
		}
		if e.SharedPosts < 0 || e.SharedAuthors < 0 {
			return nil, fmt.Errorf("%w: negative counts between %q and %q", ErrInvalidEdge, e.TopicA, e.TopicB)
		}
		assign(e.TopicA)
		assign(e.TopicB)

		key := pair{e.TopicA, e.TopicB}
		if key.b < key.a {
			key.a, key.b = key.b, key.a
		}
		if existing, ok := merged[key]; ok {
			existing.SharedPosts += e.SharedPosts
			existing.SharedAuthors += e.SharedAuthors
			continue
		}
		merged[key] = &Edge{
			TopicA:        key.a,
			TopicB:        key.b,
			SharedPosts:   e.SharedPosts,
			SharedAuthors: e.SharedAuthors,
		}
		order = append(order, key)
	}

	n := len(topics)
	undirected := &Undirected{adj: make([][]neighbor, n)}
	directed := &Directed{
		out: make([][]int, n),
		in:  make([][]int, n),
	}

	for _, key := range order {
		e := merged[key]
		u, v := index[e.TopicA], index[e.TopicB]

		undirected.adj[u] = append(undirected.adj[u], neighbor{v, float64(e.SharedAuthors), e.SharedPosts})
		undirected.adj[v] = append(undirected.adj[v], neighbor{u, float64(e.SharedAuthors), e.SharedPosts})

		fromTopic, toTopic := direction(e.TopicA, e.TopicB)
		from, to := index[fromTopic], index[toTopic]
		directed.out[from] = append(directed.out[from], to)
		directed.in[to] = append(directed.in[to], from)
	}

	return &Build{
		Undirected:      undirected,
		Directed:        directed,
		Index:           index,
		Topics:          topics,
		DirectionPolicy: name,
	}, nil
}

// Edges returns the merged edge set in canonical pair order.
func (b *Build) Edges() []Edge {
	edges := make([]Edge, 0, b.Undirected.NumEdges())
	for u, ns := range b.Undirected.adj {
		for _, n := range ns {
			if u < n.node {
				a, c := b.Topics[u], b.Topics[n.node]
				if c < a {
					a, c = c, a
				}
				edges = append(edges, Edge{
					TopicA:        a,
					TopicB:        c,
					SharedPosts:   n.posts,
					SharedAuthors: int(n.weight),
				})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].TopicA != edges[j].TopicA {
			return edges[i].TopicA < edges[j].TopicA
		}
		return edges[i].TopicB < edges[j].TopicB
	})
	return edges
}
