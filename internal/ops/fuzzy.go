package ops

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/cairnhq/cairn/internal/checkpoint"
)

// Field weights for fuzzy matching. Description dominates; tags and
// provenance only reinforce a match.
const (
	weightDescription = 1.0
	weightTags        = 0.6
	weightBranch      = 0.4
	weightFiles       = 0.4

	fuzzyThreshold = 0.72
)

// FuzzySearch filters checkpoints by approximate text match against the
// query, tolerant of near-miss spelling, and returns them ordered by match
// quality (best first).
func FuzzySearch(cps []checkpoint.Checkpoint, query string) []checkpoint.Checkpoint {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	queryTokens := strings.Fields(query)

	type scored struct {
		cp    checkpoint.Checkpoint
		score float64
	}
	matches := make([]scored, 0, len(cps))
	for _, cp := range cps {
		fields := []struct {
			weight float64
			text   string
		}{
			{weightDescription, cp.Description},
			{weightTags, strings.Join(cp.Tags, " ")},
			{weightBranch, cp.GitBranch},
			{weightFiles, strings.Join(cp.Files, " ")},
		}

		// The threshold gates on raw field quality; weights only decide
		// which of several matching entries ranks first.
		matched := false
		rank := 0.0
		for _, f := range fields {
			raw := fieldScore(query, queryTokens, f.text)
			if raw >= fuzzyThreshold {
				matched = true
			}
			if w := f.weight * raw; w > rank {
				rank = w
			}
		}
		if matched {
			matches = append(matches, scored{cp, rank})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]checkpoint.Checkpoint, len(matches))
	for i, m := range matches {
		out[i] = m.cp
	}
	return out
}

// fieldScore rates how well a field matches the query: exact substring
// containment wins outright, otherwise each query token is matched against
// its closest field token and the per-token scores are averaged.
func fieldScore(query string, queryTokens []string, field string) float64 {
	field = strings.ToLower(field)
	if field == "" {
		return 0
	}
	if strings.Contains(field, query) {
		return 1
	}

	fieldTokens := strings.Fields(field)
	if len(fieldTokens) == 0 {
		return 0
	}

	var total float64
	for _, qt := range queryTokens {
		best := 0.0
		for _, ft := range fieldTokens {
			if s := tokenSimilarity(qt, ft); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(queryTokens))
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 0.9
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}
