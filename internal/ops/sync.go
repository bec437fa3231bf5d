package ops

import (
	"context"

	"github.com/cairnhq/cairn/internal/syncer"
)

// SyncInput contains parameters for the Sync operation.
type SyncInput struct {
	Workspace string // optional, defaults to the current workspace
}

// SyncOutput contains the result of the Sync operation.
type SyncOutput struct {
	Workspace string        `json:"workspace"`
	Stats     *syncer.Stats `json:"stats"`
}

// Sync runs the embedding synchronization engine over one workspace in the
// foreground and reports what it did.
func Sync(ctx context.Context, env *Env, input SyncInput) (*SyncOutput, error) {
	workspace, err := env.ResolveWorkspace(input.Workspace)
	if err != nil {
		return nil, err
	}

	stats, err := env.Sync.SyncWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return &SyncOutput{Workspace: workspace, Stats: stats}, nil
}
