package ops

import (
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
)

func cpWith(desc string, tags []string, branch string, files []string) checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		Timestamp:   time.Now().UTC(),
		Description: desc,
		Tags:        tags,
		GitBranch:   branch,
		Files:       files,
	}
}

func TestFuzzySearch_SubstringMatch(t *testing.T) {
	cps := []checkpoint.Checkpoint{
		cpWith("implemented retry logic in the http client", nil, "", nil),
		cpWith("updated readme", nil, "", nil),
	}
	got := FuzzySearch(cps, "retry logic")
	if len(got) != 1 || got[0].Description != cps[0].Description {
		t.Errorf("FuzzySearch = %v, want the retry entry", descriptions(got))
	}
}

func TestFuzzySearch_NearMissSpelling(t *testing.T) {
	cps := []checkpoint.Checkpoint{
		cpWith("refactored the scheduler", nil, "", nil),
	}
	if got := FuzzySearch(cps, "scheduler"); len(got) != 1 {
		t.Fatal("exact token did not match")
	}
	if got := FuzzySearch(cps, "sheduler"); len(got) != 1 {
		t.Errorf("near-miss spelling did not match")
	}
	if got := FuzzySearch(cps, "zanzibar"); len(got) != 0 {
		t.Errorf("unrelated query matched: %v", descriptions(got))
	}
}

func TestFuzzySearch_MatchesTagsAndProvenance(t *testing.T) {
	cps := []checkpoint.Checkpoint{
		cpWith("small cleanup", []string{"billing"}, "", nil),
		cpWith("another cleanup", nil, "feature/payments", nil),
		cpWith("third cleanup", nil, "", []string{"internal/ledger/post.go"}),
	}

	if got := FuzzySearch(cps, "billing"); len(got) != 1 || got[0].Description != "small cleanup" {
		t.Errorf("tag match = %v", descriptions(got))
	}
	if got := FuzzySearch(cps, "payments"); len(got) != 1 || got[0].Description != "another cleanup" {
		t.Errorf("branch match = %v", descriptions(got))
	}
	if got := FuzzySearch(cps, "ledger"); len(got) != 1 || got[0].Description != "third cleanup" {
		t.Errorf("file match = %v", descriptions(got))
	}
}

func TestFuzzySearch_DescriptionOutranksTag(t *testing.T) {
	cps := []checkpoint.Checkpoint{
		cpWith("misc work", []string{"auth"}, "", nil),
		cpWith("hardened auth token validation", nil, "", nil),
	}
	got := FuzzySearch(cps, "auth")
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Description != "hardened auth token validation" {
		t.Errorf("best match = %q, want the description match first", got[0].Description)
	}
}

func TestFuzzySearch_EmptyQuery(t *testing.T) {
	cps := []checkpoint.Checkpoint{cpWith("anything", nil, "", nil)}
	if got := FuzzySearch(cps, "   "); len(got) != 0 {
		t.Errorf("empty query matched %d entries", len(got))
	}
}
