package ops

import (
	"context"
	"strings"

	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/plan"
)

// PlanSaveInput contains parameters for the PlanSave operation.
type PlanSaveInput struct {
	Workspace string
	Title     string // required
	Content   string
	Activate  bool // make this the workspace's active plan
}

// PlanSave creates a plan, optionally marking it active.
func PlanSave(ctx context.Context, env *Env, input PlanSaveInput) (*plan.Plan, error) {
	workspace, err := env.ResolveWorkspace(input.Workspace)
	if err != nil {
		return nil, err
	}
	p, err := env.Plans.Save(workspace, input.Title, input.Content)
	if err != nil {
		return nil, err
	}
	if input.Activate {
		if err := env.Plans.SetActive(workspace, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// PlanUpdateInput contains parameters for the PlanUpdate operation. Nil
// fields are left unchanged.
type PlanUpdateInput struct {
	Workspace string
	ID        string // required
	Title     *string
	Content   *string
}

// PlanUpdate rewrites a plan's title and/or content.
func PlanUpdate(ctx context.Context, env *Env, input PlanUpdateInput) (*plan.Plan, error) {
	workspace, err := env.ResolveWorkspace(input.Workspace)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("plan id is required")
	}
	return env.Plans.Update(workspace, input.ID, input.Title, input.Content)
}

// PlanGet fetches one plan by id.
func PlanGet(ctx context.Context, env *Env, workspace, id string) (*plan.Plan, error) {
	ws, err := env.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequest("plan id is required")
	}
	return env.Plans.Get(ws, id)
}

// PlanListOutput contains the result of the PlanList operation.
type PlanListOutput struct {
	Workspace string      `json:"workspace"`
	Plans     []plan.Plan `json:"plans"`
	ActiveID  string      `json:"activeId,omitempty"`
}

// PlanList lists a workspace's plans, most recently updated first.
func PlanList(ctx context.Context, env *Env, workspace string) (*PlanListOutput, error) {
	ws, err := env.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	plans, err := env.Plans.List(ws)
	if err != nil {
		return nil, err
	}
	out := &PlanListOutput{Workspace: ws, Plans: plans}
	if active, err := env.Plans.Active(ws); err == nil && active != nil {
		out.ActiveID = active.ID
	}
	return out, nil
}

// PlanActivate marks a plan as the workspace's active plan.
func PlanActivate(ctx context.Context, env *Env, workspace, id string) error {
	ws, err := env.ResolveWorkspace(workspace)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("plan id is required")
	}
	return env.Plans.SetActive(ws, id)
}

// PlanDelete removes a plan, clearing the active pointer if it referenced
// the deleted plan.
func PlanDelete(ctx context.Context, env *Env, workspace, id string) error {
	ws, err := env.ResolveWorkspace(workspace)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("plan id is required")
	}
	return env.Plans.Delete(ws, id)
}
