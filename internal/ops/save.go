package ops

import (
	"context"
	"strings"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/errors"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Workspace   string   // optional, defaults to the current workspace
	Description string   // required
	Tags        []string // optional
	WorkDir     string   // directory for git provenance capture, optional
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Workspace  string                `json:"workspace"`
	Checkpoint checkpoint.Checkpoint `json:"checkpoint"`
}

// Save validates and appends one checkpoint, capturing git provenance and
// deriving a summary for long descriptions, then schedules embedding
// synchronization in the background. The returned checkpoint reflects
// exactly what was written.
func Save(ctx context.Context, env *Env, input SaveInput) (*SaveOutput, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, errors.NewInvalidRequest("description is required")
	}

	workspace, err := env.ResolveWorkspace(input.Workspace)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(input.Tags))
	for _, t := range input.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	cp := checkpoint.Checkpoint{
		Timestamp:   time.Now().UTC().Truncate(time.Second),
		Description: description,
		Summary:     checkpoint.DeriveSummary(description),
		Tags:        tags,
	}
	if env.Git != nil {
		git := env.Git.Context(input.WorkDir)
		cp.GitBranch = git.Branch
		cp.GitCommit = git.Commit
		cp.Files = git.Files
	}

	if err := env.Logs.Append(workspace, cp); err != nil {
		return nil, err
	}

	// The write already succeeded; embedding is best effort.
	if env.Queue != nil {
		env.Queue.Enqueue(workspace)
	}

	return &SaveOutput{Workspace: workspace, Checkpoint: cp}, nil
}
