package web

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/config"
	"github.com/cairnhq/cairn/internal/gitinfo"
	"github.com/cairnhq/cairn/internal/logstore"
	"github.com/cairnhq/cairn/internal/ops"
	"github.com/cairnhq/cairn/internal/plan"
	"github.com/cairnhq/cairn/internal/syncer"
	"github.com/cairnhq/cairn/internal/vecstore"
)

func testServer(t *testing.T) (*http.Server, *ops.Env) {
	t.Helper()
	dir := t.TempDir()

	logs := logstore.New(dir)
	vectors, err := vecstore.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open vecstore: %v", err)
	}
	t.Cleanup(func() { vectors.Close() })

	env := &ops.Env{
		Logs:             logs,
		Plans:            plan.New(dir),
		Vectors:          vectors,
		Sync:             syncer.NewEngine(logs, vectors, nil),
		Git:              gitinfo.NoneProvider{},
		Cfg:              config.DefaultConfig(),
		CurrentWorkspace: func() string { return "web-ws" },
	}
	return NewServer(env, "test", "127.0.0.1", 0), env
}

func get(t *testing.T, srv *http.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func seedCheckpoint(t *testing.T, env *ops.Env, workspace, description string) {
	t.Helper()
	cp := checkpoint.Checkpoint{
		Timestamp:   time.Now().UTC().Truncate(time.Second),
		Description: description,
		Tags:        []string{"web"},
	}
	if err := env.Logs.Append(workspace, cp); err != nil {
		t.Fatal(err)
	}
}

func TestRootRedirectsToWorkspaces(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/workspaces" {
		t.Errorf("Location = %q, want /workspaces", loc)
	}
}

func TestWorkspacesIndex(t *testing.T) {
	srv, env := testServer(t)
	seedCheckpoint(t, env, "alpha", "alpha work")
	seedCheckpoint(t, env, "beta", "beta work")

	rec := get(t, srv, "/workspaces")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"alpha", "beta"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestWorkspacesIndex_Empty(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/workspaces")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No workspaces yet") {
		t.Errorf("body missing empty-state text")
	}
}

func TestTimelineShowsCheckpointsAndPlan(t *testing.T) {
	srv, env := testServer(t)
	seedCheckpoint(t, env, "alpha", "wired the timeline view")
	p, err := env.Plans.Save("alpha", "ship it", "## Steps\n\n- write tests")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Plans.SetActive("alpha", p.ID); err != nil {
		t.Fatal(err)
	}

	rec := get(t, srv, "/workspaces/alpha")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "wired the timeline view") {
		t.Errorf("body missing the checkpoint description")
	}
	if !strings.Contains(body, "ship it") {
		t.Errorf("body missing the active plan title")
	}
	// Markdown content is rendered, not escaped.
	if !strings.Contains(body, "<h2") {
		t.Errorf("plan markdown was not rendered to HTML")
	}
}

func TestSearchPage(t *testing.T) {
	srv, env := testServer(t)
	seedCheckpoint(t, env, "alpha", "fixed the importer crash")
	seedCheckpoint(t, env, "alpha", "retouched docs")

	rec := get(t, srv, "/workspaces/alpha/search?q=importer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "fixed the importer crash") {
		t.Errorf("body missing the matching checkpoint")
	}
	if strings.Contains(body, "retouched docs") {
		t.Errorf("body contains a non-matching checkpoint")
	}
	if !strings.Contains(body, "text match") {
		t.Errorf("body missing the search method label")
	}
}

func TestSearchPage_NoQuery(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/workspaces/alpha/search")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPlanPage_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/workspaces/alpha/plans/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPlanPage_JSONErrorNegotiation(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/workspaces/alpha/plans/nope", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON", ct)
	}
	if !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Errorf("body missing error code: %s", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/workspaces")
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestStaticStylesheetServed(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "body") {
		t.Errorf("stylesheet body looks empty")
	}
}
