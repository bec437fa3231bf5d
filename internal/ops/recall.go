package ops

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/plan"
	"github.com/cairnhq/cairn/internal/vecstore"
)

// Search strategies reported in RecallOutput.SearchMethod.
const (
	SearchMethodVector = "vector"
	SearchMethodFuzzy  = "fuzzy"
)

// RecallInput contains parameters for the Recall operation.
type RecallInput struct {
	Workspace string // "", "current", "all", or an explicit name
	From      string
	To        string
	Since     string
	Days      int
	Search    string
	Limit     *int // nil or negative: default 10; 0: no checkpoints
	Full      bool // keep full descriptions and provenance
	Semantic  bool // request vector search for Search
	Distill   bool // hand results to the distillation step
}

// WorkspaceSummary describes one workspace's share of a cross-workspace
// recall.
type WorkspaceSummary struct {
	Name   string    `json:"name"`
	Count  int       `json:"count"`
	Latest time.Time `json:"latest"`
}

// RecallOutput contains the result of the Recall operation.
type RecallOutput struct {
	Workspace    string                  `json:"workspace"`
	Window       Window                  `json:"window"`
	Checkpoints  []checkpoint.Checkpoint `json:"checkpoints"`
	Total        int                     `json:"total"`
	Workspaces   []WorkspaceSummary      `json:"workspaces,omitempty"`
	SearchMethod string                  `json:"searchMethod,omitempty"`
	Distilled    string                  `json:"distilled,omitempty"`
	ActivePlan   *plan.Plan              `json:"activePlan,omitempty"`
}

// candidate pairs a checkpoint with the workspace it came from, so
// cross-workspace mode can attribute merged results.
type candidate struct {
	workspace string
	cp        checkpoint.Checkpoint
}

// Recall resolves a time window, loads candidates from one or all
// workspaces, applies vector or fuzzy search when a search string is
// present, then ranks newest-first, truncates, and compacts.
func Recall(ctx context.Context, env *Env, input RecallInput) (*RecallOutput, error) {
	window, err := ResolveWindow(WindowInput{
		From:  input.From,
		To:    input.To,
		Since: input.Since,
		Days:  input.Days,
	}, time.Now())
	if err != nil {
		return nil, err
	}

	allMode := input.Workspace == AllWorkspaces

	var candidates []candidate
	var workspace string
	if allMode {
		workspace = AllWorkspaces
		candidates, err = loadAllWorkspaces(ctx, env, window)
	} else {
		workspace, err = env.ResolveWorkspace(input.Workspace)
		if err != nil {
			return nil, err
		}
		candidates, err = loadWorkspace(env, workspace, window)
	}
	if err != nil {
		return nil, err
	}

	out := &RecallOutput{Workspace: workspace, Window: window}

	searched := input.Search != ""
	if searched {
		candidates = searchCandidates(ctx, env, candidates, input.Search, input.Semantic, out)
	}

	// Newest first, regardless of how search ordered things.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].cp.Timestamp.After(candidates[j].cp.Timestamp)
	})

	out.Total = len(candidates)
	if allMode {
		out.Workspaces = summarizeWorkspaces(candidates)
	}

	limit := DefaultRecallLimit
	if input.Limit != nil && *input.Limit >= 0 {
		limit = *input.Limit
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out.Checkpoints = make([]checkpoint.Checkpoint, len(candidates))
	for i, c := range candidates {
		out.Checkpoints[i] = compact(c.cp, input.Full || searched)
	}

	if !allMode {
		// Missing or stale active plan is just "no plan".
		if active, err := env.Plans.Active(workspace); err == nil {
			out.ActivePlan = active
		}
	}

	if input.Distill && searched && len(out.Checkpoints) > 0 {
		out.Distilled = Distill(ctx, env, input.Search, out.Checkpoints)
	}

	return out, nil
}

func loadWorkspace(env *Env, workspace string, window Window) ([]candidate, error) {
	cps, err := env.Logs.ReadRange(workspace, window.From, window.To)
	if err != nil {
		return nil, err
	}
	candidates := make([]candidate, len(cps))
	for i, cp := range cps {
		candidates[i] = candidate{workspace: workspace, cp: cp}
	}
	return candidates, nil
}

// loadAllWorkspaces reads every known workspace's range concurrently and
// merges. Workspace counts are small, so one goroutine per workspace with
// no backpressure is fine.
func loadAllWorkspaces(ctx context.Context, env *Env, window Window) ([]candidate, error) {
	names, err := env.Logs.Workspaces()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var merged []candidate
	g, _ := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			cands, err := loadWorkspace(env, name, window)
			if err != nil {
				return err
			}
			mu.Lock()
			merged = append(merged, cands...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

// searchCandidates applies vector similarity when requested and available,
// falling back to fuzzy text match when vector search is off, unavailable,
// or matches nothing. The strategy that actually produced the results is
// recorded on out.
func searchCandidates(ctx context.Context, env *Env, candidates []candidate, query string, semantic bool, out *RecallOutput) []candidate {
	if semantic && env.Embedder != nil && env.Embedder.Available() {
		matched, err := vectorSearch(ctx, env, candidates, query)
		if err != nil {
			log.Printf("vector search failed, falling back to fuzzy: %v", err)
		} else if len(matched) > 0 {
			out.SearchMethod = SearchMethodVector
			return matched
		}
	}

	out.SearchMethod = SearchMethodFuzzy
	return fuzzyCandidates(candidates, query)
}

// vectorSearch embeds the query once and scores every candidate that has a
// stored vector. Candidates without an embedding are excluded rather than
// scored at zero.
func vectorSearch(ctx context.Context, env *Env, candidates []candidate, query string) ([]candidate, error) {
	queryVec, err := env.Embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, err
	}

	// One hash->vector table per workspace present in the candidate set.
	byWorkspace := make(map[string]map[string][]float32)
	for _, c := range candidates {
		if _, ok := byWorkspace[c.workspace]; ok {
			continue
		}
		vectors, err := env.Vectors.VectorsByHash(c.workspace)
		if err != nil {
			return nil, err
		}
		byWorkspace[c.workspace] = vectors
	}

	type scored struct {
		cand candidate
		sim  float64
	}
	var matches []scored
	for _, c := range candidates {
		vec, ok := byWorkspace[c.workspace][vecstore.HashContent(c.cp.Description)]
		if !ok {
			continue
		}
		sim := vecstore.Cosine(queryVec, vec)
		if sim >= env.Cfg.MinSimilarity {
			matches = append(matches, scored{c, sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].sim > matches[j].sim
	})
	result := make([]candidate, len(matches))
	for i, m := range matches {
		result[i] = m.cand
	}
	return result, nil
}

func fuzzyCandidates(candidates []candidate, query string) []candidate {
	cps := make([]checkpoint.Checkpoint, len(candidates))
	byKey := make(map[string]string, len(candidates))
	for i, c := range candidates {
		cps[i] = c.cp
		byKey[candidateKey(c.cp)] = c.workspace
	}

	matched := FuzzySearch(cps, query)
	result := make([]candidate, len(matched))
	for i, cp := range matched {
		result[i] = candidate{workspace: byKey[candidateKey(cp)], cp: cp}
	}
	return result
}

func candidateKey(cp checkpoint.Checkpoint) string {
	return cp.Timestamp.Format(time.RFC3339) + "|" + cp.Description
}

// summarizeWorkspaces reports, per workspace with at least one match, a
// count and the most recent activity. Input must already be sorted newest
// first.
func summarizeWorkspaces(candidates []candidate) []WorkspaceSummary {
	index := make(map[string]int)
	var summaries []WorkspaceSummary
	for _, c := range candidates {
		i, ok := index[c.workspace]
		if !ok {
			index[c.workspace] = len(summaries)
			summaries = append(summaries, WorkspaceSummary{
				Name:   c.workspace,
				Latest: c.cp.Timestamp,
			})
			i = len(summaries) - 1
		}
		summaries[i].Count++
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Latest.After(summaries[j].Latest)
	})
	return summaries
}

// compact substitutes the pre-computed summary for the description and
// strips provenance, unless the caller asked for full detail or the result
// came from a search (the matched text must stay visible).
func compact(cp checkpoint.Checkpoint, full bool) checkpoint.Checkpoint {
	if full {
		return cp
	}
	if cp.Summary != "" {
		cp.Description = cp.Summary
	}
	cp.Files = nil
	cp.GitBranch = ""
	cp.GitCommit = ""
	return cp
}
