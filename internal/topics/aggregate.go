package topics

import (
	"sort"
	"time"

	"github.com/openpulse/pulse/internal/graph"
)

// Aggregation defaults. Both are caller configuration, not engine policy:
// the scoring engine consumes whatever survives these filters.
const (
	// DefaultMinSharedAuthors drops co-occurrence edges backed by fewer
	// distinct authors, filtering out coincidental single-author overlaps.
	DefaultMinSharedAuthors = 2

	// DefaultWindowHours is the recency window for posts.
	DefaultWindowHours = 48
)

// Post is a normalized post from any source. The aggregator only reads
// Title, Body, Author, and PostedAt; the rest is carried for display.
type Post struct {
	ID       string
	Title    string
	Body     string
	Author   string
	URL      string
	Score    int
	Comments int
	PostedAt time.Time
}

// TopicStat is one topic's aggregated activity for the current window.
// Baselines come from historical snapshots, not from here.
type TopicStat struct {
	Slug          string
	Mentions      int
	UniqueAuthors int
}

// AggregateOptions controls windowing and edge admission.
type AggregateOptions struct {
	// MinSharedAuthors is the minimum distinct-author overlap for an edge
	// to survive (default 2).
	MinSharedAuthors int
	// Window restricts aggregation to posts no older than Now-Window.
	// Zero disables the recency filter.
	Window time.Duration
	// Now anchors the window; zero means time.Now().
	Now time.Time
}

// Aggregate extracts topics from every post and tallies the two inputs of
// a scoring run: per-topic mention stats and thresholded co-occurrence
// edges.
//
// Edges carry canonical pair ordering, shared-post counts from per-post
// pairwise enumeration, and shared-author counts from the intersection of
// the two topics' author sets. Pairs below the shared-author threshold are
// dropped before they ever reach graph construction. Output ordering is
// deterministic (slug, then pair) for reproducible runs.
func (e *Extractor) Aggregate(posts []Post, opts AggregateOptions) ([]TopicStat, []graph.Edge) {
	if opts.MinSharedAuthors == 0 {
		opts.MinSharedAuthors = DefaultMinSharedAuthors
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	mentions := make(map[string]int)
	authors := make(map[string]map[string]struct{})
	sharedPosts := make(map[[2]string]int)

	for _, post := range posts {
		if opts.Window > 0 && !post.PostedAt.IsZero() && post.PostedAt.Before(now.Add(-opts.Window)) {
			continue
		}

		matches := e.Extract(post.Title, post.Body)
		if len(matches) == 0 {
			continue
		}

		slugs := make([]string, 0, len(matches))
		for _, m := range matches {
			slugs = append(slugs, m.Slug)
			mentions[m.Slug]++
			if post.Author != "" {
				if authors[m.Slug] == nil {
					authors[m.Slug] = make(map[string]struct{})
				}
				authors[m.Slug][post.Author] = struct{}{}
			}
		}

		sort.Strings(slugs)
		for i := 0; i < len(slugs)-1; i++ {
			for j := i + 1; j < len(slugs); j++ {
				sharedPosts[[2]string{slugs[i], slugs[j]}]++
			}
		}
	}

	stats := make([]TopicStat, 0, len(mentions))
	for slug, count := range mentions {
		stats = append(stats, TopicStat{
			Slug:          slug,
			Mentions:      count,
			UniqueAuthors: len(authors[slug]),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Slug < stats[j].Slug })

	pairs := make([][2]string, 0, len(sharedPosts))
	for pair := range sharedPosts {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	edges := make([]graph.Edge, 0, len(pairs))
	for _, pair := range pairs {
		shared := sharedAuthorCount(authors[pair[0]], authors[pair[1]])
		if shared < opts.MinSharedAuthors {
			continue
		}
		edges = append(edges, graph.Edge{
			TopicA:        pair[0],
			TopicB:        pair[1],
			SharedPosts:   sharedPosts[pair],
			SharedAuthors: shared,
		})
	}

	return stats, edges
}

func sharedAuthorCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for author := range a {
		if _, ok := b[author]; ok {
			count++
		}
	}
	return count
}
