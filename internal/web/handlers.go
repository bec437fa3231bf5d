package web

import (
	"net/http"
	"strconv"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// timelineDays is how far back the timeline page looks by default.
const timelineDays = 14

// HandleWorkspaces handles GET /workspaces — the workspace index.
func (h *Handlers) HandleWorkspaces(w http.ResponseWriter, r *http.Request) {
	names, err := h.env.Logs.Workspaces()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]WorkspaceRow, 0, len(names))
	for _, name := range names {
		row := WorkspaceRow{Name: name}
		days, err := h.env.Logs.Days(name)
		if err == nil {
			row.Days = len(days)
			if len(days) > 0 {
				row.LastDay = days[len(days)-1].Format(checkpoint.DateLayout)
			}
		}
		rows = append(rows, row)
	}

	h.renderer.renderPage(w, r, "workspaces", WorkspacesPageData{
		PageData: PageData{
			Title:   "Workspaces",
			Version: h.renderer.version,
			Nav:     "workspaces",
		},
		Workspaces: rows,
	})
}

// HandleTimeline handles GET /workspaces/{workspace} — recent checkpoints
// and the active plan.
func (h *Handlers) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	workspace := r.PathValue("workspace")
	if workspace == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("workspace is required"))
		return
	}
	days := parseIntParam(r, "days", timelineDays)
	limit := parseIntParam(r, "limit", 100)

	result, err := ops.Recall(r.Context(), h.env, ops.RecallInput{
		Workspace: workspace,
		Days:      days,
		Limit:     &limit,
		Full:      true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := TimelinePageData{
		PageData: PageData{
			Title:   workspace,
			Version: h.renderer.version,
			Nav:     "workspaces",
		},
		Workspace:   result.Workspace,
		Checkpoints: result.Checkpoints,
		Total:       result.Total,
		Days:        days,
		ActivePlan:  result.ActivePlan,
	}
	if result.ActivePlan != nil {
		data.PlanHTML = renderMarkdown(result.ActivePlan.Content)
	}

	h.renderer.renderPage(w, r, "timeline", data)
}

// HandleSearch handles GET /workspaces/{workspace}/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	workspace := r.PathValue("workspace")
	query := r.URL.Query().Get("q")
	semantic := parseBoolParam(r, "semantic")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search " + workspace,
			Version: h.renderer.version,
			Nav:     "search",
		},
		Workspace: workspace,
		Query:     query,
		Semantic:  semantic,
		HasQuery:  query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, r, "search", data)
		return
	}

	limit := parseIntParam(r, "limit", 25)
	result, err := ops.Recall(r.Context(), h.env, ops.RecallInput{
		Workspace: workspace,
		Search:    query,
		Semantic:  semantic,
		Days:      parseIntParam(r, "days", 90),
		Limit:     &limit,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.Checkpoints = result.Checkpoints
	data.SearchMethod = methodLabel(result.SearchMethod)

	h.renderer.renderPage(w, r, "search", data)
}

// HandlePlan handles GET /workspaces/{workspace}/plans/{id}.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	workspace := r.PathValue("workspace")
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("plan id is required"))
		return
	}

	p, err := ops.PlanGet(r.Context(), h.env, workspace, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "plan", PlanPageData{
		PageData: PageData{
			Title:   p.Title,
			Version: h.renderer.version,
			Nav:     "workspaces",
		},
		Workspace:    workspace,
		Plan:         p,
		RenderedHTML: renderMarkdown(p.Content),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
