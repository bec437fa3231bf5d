package ops

import (
	"context"
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/errors"
)

func TestPurge_RemovesLogsPlansAndEmbeddings(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	appendAt(t, env, "doomed", "to be removed", time.Hour)
	if _, err := PlanSave(ctx, env, PlanSaveInput{Workspace: "doomed", Title: "old plan"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Sync.SyncWorkspace(ctx, "doomed"); err != nil {
		t.Fatal(err)
	}

	out, err := Purge(ctx, env, PurgeInput{Workspace: "doomed"})
	if err != nil {
		t.Fatal(err)
	}
	if out.EmbeddingsDeleted != 1 {
		t.Errorf("EmbeddingsDeleted = %d, want 1", out.EmbeddingsDeleted)
	}

	names, err := env.Logs.Workspaces()
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if n == "doomed" {
			t.Error("workspace directory still present after purge")
		}
	}

	count, err := env.Vectors.Count("doomed")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("embeddings remaining = %d, want 0", count)
	}

	plans, err := PlanList(ctx, env, "doomed")
	if err != nil {
		t.Fatal(err)
	}
	if len(plans.Plans) != 0 {
		t.Errorf("plans remaining = %d, want 0", len(plans.Plans))
	}
}

func TestPurge_RequiresExplicitWorkspace(t *testing.T) {
	env, _ := newTestEnv(t)

	for _, ws := range []string{"", AllWorkspaces} {
		_, err := Purge(context.Background(), env, PurgeInput{Workspace: ws})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Purge(%q) error = %v, want INVALID_REQUEST", ws, err)
		}
	}
}

func TestPurge_MissingWorkspaceIsNoOp(t *testing.T) {
	env, _ := newTestEnv(t)
	out, err := Purge(context.Background(), env, PurgeInput{Workspace: "never-existed"})
	if err != nil {
		t.Fatalf("purging an absent workspace should succeed: %v", err)
	}
	if out.EmbeddingsDeleted != 0 {
		t.Errorf("EmbeddingsDeleted = %d, want 0", out.EmbeddingsDeleted)
	}
}

func TestPurge_LeavesOtherWorkspacesAlone(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	appendAt(t, env, "keep", "stays", time.Hour)
	appendAt(t, env, "drop", "goes", time.Hour)
	if _, err := env.Sync.SyncWorkspace(ctx, "keep"); err != nil {
		t.Fatal(err)
	}

	if _, err := Purge(ctx, env, PurgeInput{Workspace: "drop"}); err != nil {
		t.Fatal(err)
	}

	cps, err := env.Logs.ReadDay("keep", time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(cps) != 1 {
		t.Errorf("surviving workspace entries = %d, want 1", len(cps))
	}
	count, err := env.Vectors.Count("keep")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("surviving embeddings = %d, want 1", count)
	}
}
