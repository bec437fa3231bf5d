package ops

import (
	"context"

	"github.com/cairnhq/cairn/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Workspace string // required, explicit: purge never defaults
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Workspace         string `json:"workspace"`
	EmbeddingsDeleted int    `json:"embeddingsDeleted"`
}

// Purge removes a workspace's logs, plans, and embeddings. The workspace
// must be named explicitly so a stray call cannot wipe the caller's current
// project.
func Purge(ctx context.Context, env *Env, input PurgeInput) (*PurgeOutput, error) {
	if input.Workspace == "" || input.Workspace == AllWorkspaces {
		return nil, errors.NewInvalidRequest("workspace must be named explicitly")
	}
	workspace, err := env.ResolveWorkspace(input.Workspace)
	if err != nil {
		return nil, err
	}

	count, err := env.Vectors.Count(workspace)
	if err != nil {
		return nil, err
	}
	if err := env.Vectors.DeleteWorkspace(workspace); err != nil {
		return nil, err
	}
	if err := env.Logs.DeleteWorkspace(workspace); err != nil {
		return nil, err
	}

	return &PurgeOutput{Workspace: workspace, EmbeddingsDeleted: count}, nil
}
