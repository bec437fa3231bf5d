package ops

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/errors"
)

func TestSave_EmptyDescription(t *testing.T) {
	env, _ := newTestEnv(t)

	for _, desc := range []string{"", "   ", "\n\t"} {
		_, err := Save(context.Background(), env, SaveInput{Description: desc})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Save(%q) error = %v, want INVALID_REQUEST", desc, err)
		}
	}
}

func TestSave_AppendsToCurrentWorkspace(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Save(context.Background(), env, SaveInput{Description: "wired the parser"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Workspace != testWorkspace {
		t.Errorf("workspace = %q, want %q", out.Workspace, testWorkspace)
	}

	cps, err := env.Logs.ReadDay(testWorkspace, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(cps) != 1 || cps[0].Description != "wired the parser" {
		t.Errorf("stored entries = %+v, want one with the saved description", cps)
	}
}

func TestSave_DerivesSummaryForLongDescription(t *testing.T) {
	env, _ := newTestEnv(t)

	long := "Reworked the ingestion pipeline end to end. " + strings.Repeat("More detail follows. ", 10)
	out, err := Save(context.Background(), env, SaveInput{Description: long})
	if err != nil {
		t.Fatal(err)
	}
	if out.Checkpoint.Summary != "Reworked the ingestion pipeline end to end." {
		t.Errorf("summary = %q, want the first sentence", out.Checkpoint.Summary)
	}

	short, err := Save(context.Background(), env, SaveInput{Description: "short note"})
	if err != nil {
		t.Fatal(err)
	}
	if short.Checkpoint.Summary != "" {
		t.Errorf("short description got summary %q, want none", short.Checkpoint.Summary)
	}
}

func TestSave_TrimsTags(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Save(context.Background(), env, SaveInput{
		Description: "tagged work",
		Tags:        []string{" auth ", "", "db"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Checkpoint.Tags) != 2 || out.Checkpoint.Tags[0] != "auth" || out.Checkpoint.Tags[1] != "db" {
		t.Errorf("tags = %v, want [auth db]", out.Checkpoint.Tags)
	}
}

func TestSave_ExplicitWorkspaceNormalized(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Save(context.Background(), env, SaveInput{
		Workspace:   "My Side Project",
		Description: "elsewhere",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Workspace != "my-side-project" {
		t.Errorf("workspace = %q, want my-side-project", out.Workspace)
	}
}
