package nodes

import (
	"cmp"
	"slices"
	"strings"
)

// Field weights and match-quality scores used to rank search results.
const (
	weightLabel       = 3.0
	weightType        = 2.0
	weightDescription = 1.0
	weightTag         = 1.5

	scoreExact    = 1.0
	scorePrefix   = 0.8
	scoreContains = 0.5

	fuzzyThreshold = 0.3
	weightFuzzy    = 0.3
)

// DefaultSearchLimit is the result cap interactive callers use.
const DefaultSearchLimit = 20

// SearchOptions narrows and shapes a search.
type SearchOptions struct {
	// Category restricts results to one category.
	Category string
	// Deep also matches descriptions and tags.
	Deep bool
	// IncludeDeprecated keeps deprecated node types in the results.
	IncludeDeprecated bool
	// Fuzzy lets a definition whose fields contain no match still rank
	// when the query's letters appear in order in its label.
	Fuzzy bool
	// Limit caps the number of results; zero means no cap.
	Limit int
}

// SearchResult is a matched definition and its relevance score.
type SearchResult struct {
	Definition *Definition
	Score      float64
}

// Search returns the definitions whose label or type contains query,
// case-insensitively, ranked by relevance. An exact label match outranks a
// prefix match, which outranks a substring match; label hits weigh more
// than type hits. Ties keep registration order. An empty query matches
// every definition.
func (r *Registry) Search(query string, opts SearchOptions) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))

	var results []SearchResult
	for _, t := range r.order {
		d := r.defs[t]
		if opts.Category != "" && d.Category != opts.Category {
			continue
		}
		if d.Deprecated && !opts.IncludeDeprecated {
			continue
		}
		if q == "" {
			results = append(results, SearchResult{Definition: d})
			continue
		}
		score := scoreDefinition(d, q, opts.Deep)
		if score == 0 && opts.Fuzzy {
			if f := subsequenceScore(q, strings.ToLower(d.Label)); f > fuzzyThreshold {
				score = weightFuzzy * f
			}
		}
		if score > 0 {
			results = append(results, SearchResult{Definition: d, Score: score})
		}
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func scoreDefinition(d *Definition, q string, deep bool) float64 {
	score := weightLabel*matchScore(d.Label, q) + weightType*matchScore(d.Type, q)
	if !deep {
		return score
	}
	score += weightDescription * matchScore(d.Description, q)
	for _, tag := range d.Tags {
		score += weightTag * matchScore(tag, q)
	}
	return score
}

func matchScore(field, q string) float64 {
	f := strings.ToLower(field)
	switch {
	case f == "":
		return 0
	case f == q:
		return scoreExact
	case strings.HasPrefix(f, q):
		return scorePrefix
	case strings.Contains(f, q):
		return scoreContains
	}
	return 0
}

// subsequenceScore is the fraction of q's bytes found, in order, in target.
func subsequenceScore(q, target string) float64 {
	if q == "" || target == "" {
		return 0
	}
	matched := 0
	for i := 0; i < len(target) && matched < len(q); i++ {
		if target[i] == q[matched] {
			matched++
		}
	}
	return float64(matched) / float64(len(q))
}
