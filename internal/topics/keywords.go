package topics

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"from": {}, "are": {}, "was": {}, "were": {}, "been": {}, "have": {},
	"has": {}, "had": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"can": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "not": {},
	"but": {}, "you": {}, "your": {}, "they": {}, "their": {}, "them": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "when": {}, "where": {},
	"why": {}, "all": {}, "each": {}, "every": {}, "both": {}, "few": {},
	"more": {}, "most": {}, "other": {}, "some": {}, "such": {}, "than": {},
	"too": {}, "very": {}, "just": {}, "also": {}, "now": {}, "only": {},
	"over": {}, "own": {}, "same": {},
}

// Keywords returns the topN most frequent non-stopword terms in text,
// lowercase, ties broken alphabetically for deterministic output.
func Keywords(text string, topN int) []string {
	if text == "" || topN <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topN {
		words = words[:topN]
	}
	return words
}
