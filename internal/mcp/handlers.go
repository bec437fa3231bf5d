package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// SaveRequest represents the arguments for checkpoint_save.
type SaveRequest struct {
	Description string   `json:"description"`
	Workspace   string   `json:"workspace,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// RecallRequest represents the arguments for checkpoint_recall.
type RecallRequest struct {
	Workspace string `json:"workspace,omitempty"`
	Search    string `json:"search,omitempty"`
	Since     string `json:"since,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Days      int    `json:"days,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	Full      bool   `json:"full,omitempty"`
	Semantic  bool   `json:"semantic,omitempty"`
	Distill   bool   `json:"distill,omitempty"`
}

// SyncRequest represents the arguments for workspace_sync.
type SyncRequest struct {
	Workspace string `json:"workspace,omitempty"`
}

// PurgeRequest represents the arguments for workspace_purge.
type PurgeRequest struct {
	Workspace string `json:"workspace"`
}

// PlanSaveRequest represents the arguments for plan_save.
type PlanSaveRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Activate  bool   `json:"activate,omitempty"`
}

// PlanUpdateRequest represents the arguments for plan_update.
type PlanUpdateRequest struct {
	ID        string  `json:"id"`
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Workspace string  `json:"workspace,omitempty"`
}

// PlanRefRequest identifies one plan for get/activate/delete.
type PlanRefRequest struct {
	ID        string `json:"id"`
	Workspace string `json:"workspace,omitempty"`
}

// PlanListRequest represents the arguments for plan_list.
type PlanListRequest struct {
	Workspace string `json:"workspace,omitempty"`
}

// Handler implementations

// HandleSave handles the checkpoint_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(ctx, h.env, ops.SaveInput{
		Workspace:   input.Workspace,
		Description: input.Description,
		Tags:        input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecall handles the checkpoint_recall tool call.
func (h *Handlers) HandleRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecallRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Recall(ctx, h.env, ops.RecallInput{
		Workspace: input.Workspace,
		From:      input.From,
		To:        input.To,
		Since:     input.Since,
		Days:      input.Days,
		Search:    input.Search,
		Limit:     input.Limit,
		Full:      input.Full,
		Semantic:  input.Semantic,
		Distill:   input.Distill,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSync handles the workspace_sync tool call.
func (h *Handlers) HandleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SyncRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Sync(ctx, h.env, ops.SyncInput{Workspace: input.Workspace})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the workspace_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.env, ops.PurgeInput{Workspace: input.Workspace})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlanSave handles the plan_save tool call.
func (h *Handlers) HandlePlanSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PlanSave(ctx, h.env, ops.PlanSaveInput{
		Workspace: input.Workspace,
		Title:     input.Title,
		Content:   input.Content,
		Activate:  input.Activate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlanUpdate handles the plan_update tool call.
func (h *Handlers) HandlePlanUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PlanUpdate(ctx, h.env, ops.PlanUpdateInput{
		Workspace: input.Workspace,
		ID:        input.ID,
		Title:     input.Title,
		Content:   input.Content,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlanGet handles the plan_get tool call.
func (h *Handlers) HandlePlanGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRefRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PlanGet(ctx, h.env, input.Workspace, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlanList handles the plan_list tool call.
func (h *Handlers) HandlePlanList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PlanList(ctx, h.env, input.Workspace)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlanActivate handles the plan_activate tool call.
func (h *Handlers) HandlePlanActivate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRefRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ops.PlanActivate(ctx, h.env, input.Workspace, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"activated": input.ID})
}

// HandlePlanDelete handles the plan_delete tool call.
func (h *Handlers) HandlePlanDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRefRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ops.PlanDelete(ctx, h.env, input.Workspace, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": input.ID})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking paths.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cairnErr, ok := err.(*errors.CairnError); ok {
		errorObj := map[string]any{
			"code":    cairnErr.Code,
			"message": cairnErr.Message,
			"status":  cairnErr.Status,
		}
		if cairnErr.Code != errors.ErrInternal && cairnErr.Details != nil {
			errorObj["details"] = cairnErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
