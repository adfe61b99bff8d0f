// Package topics turns raw posts into the typed records the scoring engine
// consumes: pattern-based topic extraction, windowed mention aggregation,
// and thresholded co-occurrence edges.
package topics

import "strings"

// Input length caps guard the substring scans against pathological posts.
const (
	maxBodyLength  = 100_000
	maxTitleLength = 1000
)

// Relevance assigned to a pattern hit depending on where it matched.
const (
	titleRelevance = 1.0
	bodyRelevance  = 0.8
)

// DefaultPatterns maps topic slugs to the substring patterns that signal
// them. Patterns with surrounding spaces are deliberate word-boundary
// approximations for short tokens like "ai" and "go".
var DefaultPatterns = map[string][]string{
	"ai": {
		"artificial intelligence", "ai ", " ai", "machine learning",
		"ml ", "llm", "gpt", "chatgpt", "claude",
	},
	"rust":   {"rust ", " rust", "rustlang", "cargo"},
	"python": {"python", "django", "fastapi", "flask"},
	"javascript": {
		"javascript", "typescript", "node.js", "nodejs",
		"react", "vue", "angular",
	},
	"golang":   {"golang", " go ", "go1."},
	"database": {"postgres", "postgresql", "mysql", "sqlite", "mongodb", "redis"},
	"cloud":    {"aws", "azure", "gcp", "kubernetes", "k8s", "docker"},
	"security": {"security", "vulnerability", "cve-", "exploit", "breach"},
	"startup": {
		"startup", "founder", "yc ", "y combinator", "funding", "series a",
	},
	"open-source": {"open source", "opensource", "github", "gitlab", "foss"},
}

// Labels maps slugs to display labels for CLI and MCP output.
var Labels = map[string]string{
	"ai":          "AI / Machine Learning",
	"rust":        "Rust",
	"python":      "Python",
	"javascript":  "JavaScript",
	"golang":      "Go",
	"database":    "Databases",
	"cloud":       "Cloud / Infrastructure",
	"security":    "Security",
	"startup":     "Startups",
	"open-source": "Open Source",
}

// Label returns the display label for a slug, falling back to a title-cased
// slug for unknown topics.
func Label(slug string) string {
	if label, ok := Labels[slug]; ok {
		return label
	}
	if slug == "" {
		return ""
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

// Match is one extracted topic with its relevance. Title matches score
// higher than body-only matches.
type Match struct {
	Slug      string
	Relevance float64
}

// Extractor extracts topics from post text using a pattern table.
type Extractor struct {
	patterns map[string][]string
}

// NewExtractor returns an extractor over the given pattern table, or the
// default table when patterns is nil.
func NewExtractor(patterns map[string][]string) *Extractor {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	return &Extractor{patterns: patterns}
}

// Extract returns the topics found in a post's title and body. Each slug
// is reported at most once per post, at the relevance of its best match.
func (e *Extractor) Extract(title, body string) []Match {
	if title == "" && body == "" {
		return nil
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength]
	}

	lowerTitle := strings.ToLower(title)
	combined := lowerTitle + " " + strings.ToLower(body)

	var matches []Match
	for slug, patterns := range e.patterns {
		for _, p := range patterns {
			if !strings.Contains(combined, p) {
				continue
			}
			relevance := bodyRelevance
			if strings.Contains(lowerTitle, p) {
				relevance = titleRelevance
			}
			matches = append(matches, Match{Slug: slug, Relevance: relevance})
			break
		}
	}
	return matches
}
