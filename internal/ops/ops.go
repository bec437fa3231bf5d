package ops

import (
	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/config"
	"github.com/cairnhq/cairn/internal/embed"
	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/gitinfo"
	"github.com/cairnhq/cairn/internal/logstore"
	"github.com/cairnhq/cairn/internal/plan"
	"github.com/cairnhq/cairn/internal/syncer"
	"github.com/cairnhq/cairn/internal/vecstore"
)

// Result limits and window defaults.
const (
	DefaultRecallLimit = 10
	DefaultWindowDays  = 2
	ToOnlyWindowDays   = 7
)

// AllWorkspaces is the sentinel workspace value selecting every known
// workspace in a recall.
const AllWorkspaces = "all"

// Env holds the shared resources an operation needs. The host process builds
// one Env at startup and passes it by reference into each call; operations
// themselves hold no process-wide state.
type Env struct {
	Logs     *logstore.Store
	Plans    *plan.Store
	Vectors  *vecstore.Store
	Embedder embed.Embedder
	Sync     *syncer.Engine
	Queue    *syncer.Queue
	Git      gitinfo.Provider
	Cfg      *config.Config

	// CurrentWorkspace resolves the caller's implicit workspace, typically
	// from the working directory. Required.
	CurrentWorkspace func() string
}

// ResolveWorkspace maps a raw workspace argument to a normalized slug.
// Empty and "current" resolve through the Env's workspace resolver.
func (e *Env) ResolveWorkspace(raw string) (string, error) {
	switch raw {
	case "", "current":
		ws := checkpoint.NormalizeWorkspace(e.CurrentWorkspace())
		if ws == "" {
			return "", errors.NewInvalidRequest("could not resolve current workspace")
		}
		return ws, nil
	default:
		return checkpoint.NormalizeWorkspace(raw), nil
	}
}
