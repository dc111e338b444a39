package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/portfoliohq/portfolio/internal/infrastructure/auth"
	"github.com/portfoliohq/portfolio/internal/infrastructure/httpapi"
	"github.com/portfoliohq/portfolio/internal/infrastructure/metrics"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/portfoliohq/portfolio/pkg/storage"
)

type harness struct {
	t      *testing.T
	server *httptest.Server
	tokens *auth.Tokens
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	m := metrics.New()
	audit := application.NewAuditService(repo)
	collections := application.NewCollections(repo, nil)
	deps := application.NewDependencyService(collections, audit, m, nil)
	catalogSvc := application.NewCatalogService(repo, audit, nil)
	tokens := auth.NewTokens("test-secret", time.Hour)

	srv := httpapi.New(httpapi.Deps{
		Projects:     application.NewProjectService(collections, deps, catalogSvc, audit, m, nil),
		Updates:      application.NewUpdateService(collections, audit, m, nil),
		Dependencies: deps,
		Catalog:      catalogSvc,
		Auth:         auth.NewService(repo, tokens, nil),
		Metrics:      m,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	h := &harness{t: t, server: ts, tokens: tokens}
	h.token = h.issue(account.RoleUser)
	return h
}

func (h *harness) issue(role string) string {
	h.t.Helper()
	token, err := h.tokens.Issue(account.Principal{Username: "alice", Role: role})
	if err != nil {
		h.t.Fatalf("Issue: %v", err)
	}
	return token
}

func (h *harness) do(method, path, token string, body any) *http.Response {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.server.URL+path, r)
	if err != nil {
		h.t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d (body %s)", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func draft(id, category string, deps ...string) map[string]any {
	d := map[string]any{
		"id":        id,
		"name":      "Project " + id,
		"type":      category,
		"employees": []string{"bob"},
		"goals":     []map[string]any{{"name": "Launch"}},
	}
	if category != "projects" {
		d["startDate"] = "2026-01-01"
		d["endDate"] = "2026-12-31"
	}
	if len(deps) > 0 {
		d["dependencies"] = deps
	}
	return d
}

func TestServer_HealthIsPublic(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodGet, "/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)
	req, _ := http.NewRequest(http.MethodGet, h.server.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestServer_Authentication(t *testing.T) {
	h := newHarness(t)

	expectStatus(t, h.do(http.MethodGet, "/projects", "", nil), http.StatusUnauthorized)
	expectStatus(t, h.do(http.MethodGet, "/projects", "not-a-token", nil), http.StatusForbidden)
	expectStatus(t, h.do(http.MethodGet, "/projects", h.token, nil), http.StatusOK)
}

func TestServer_CreateLinksDependencies(t *testing.T) {
	h := newHarness(t)

	expectStatus(t, h.do(http.MethodPost, "/projects", h.token, draft("a", "projects")), http.StatusCreated)

	resp := h.do(http.MethodPost, "/projects", h.token, draft("g1", "generation", "a", "ghost"))
	expectStatus(t, resp, http.StatusCreated)
	if got := resp.Header.Get("X-Dependency-Links"); got != "linked=1,not-found=1" {
		t.Errorf("X-Dependency-Links = %q", got)
	}
	created := decode[project.Project](t, resp)
	if created.StartDate != "2026-01-01" || created.Status != "Requested" {
		t.Errorf("created = %+v", created)
	}

	resp = h.do(http.MethodGet, "/projects/all", h.token, nil)
	expectStatus(t, resp, http.StatusOK)
	all := decode[[]project.Project](t, resp)
	if len(all) != 2 {
		t.Fatalf("aggregated %d projects, want 2", len(all))
	}
	if all[0].ID != "a" || all[0].Type != "projects" || !all[0].HasDependency("g1") {
		t.Errorf("first = %+v, want a tagged projects listing g1", all[0])
	}
	if all[1].Type != "generation" {
		t.Errorf("second type = %q", all[1].Type)
	}

	resp = h.do(http.MethodGet, "/projects/generation", h.token, nil)
	expectStatus(t, resp, http.StatusOK)
	if gen := decode[[]project.Project](t, resp); len(gen) != 1 || gen[0].ID != "g1" {
		t.Errorf("generation = %+v", gen)
	}
}

func TestServer_CreateValidation(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/projects", h.token, map[string]any{"type": "generation"})
	expectStatus(t, resp, http.StatusBadRequest)
	body := decode[map[string]string](t, resp)
	for _, field := range []string{"name", "id", "employees", "goals", "startDate", "endDate"} {
		if !strings.Contains(body["error"], field) {
			t.Errorf("error %q does not mention %s", body["error"], field)
		}
	}

	bad := draft("x", "projects")
	bad["employees"] = "bob"
	resp = h.do(http.MethodPost, "/projects", h.token, bad)
	expectStatus(t, resp, http.StatusBadRequest)
	if body := decode[map[string]string](t, resp); !strings.Contains(body["error"], "employees") {
		t.Errorf("error = %q, want employees type mismatch", body["error"])
	}

	expectStatus(t, h.do(http.MethodPost, "/projects", h.token, draft("a", "projects")), http.StatusCreated)
	expectStatus(t, h.do(http.MethodPost, "/projects", h.token, draft("a", "projects")), http.StatusConflict)
}

func TestServer_UpdateDependencies(t *testing.T) {
	h := newHarness(t)
	expectStatus(t, h.do(http.MethodPost, "/projects", h.token, draft("a", "projects")), http.StatusCreated)

	resp := h.do(http.MethodPatch, "/projects/update-dependencies", h.token, map[string]any{
		"newProjectId": "n",
		"dependencies": []string{"a", "n"},
	})
	expectStatus(t, resp, http.StatusOK)
	report := decode[struct {
		ProjectID string `json:"projectId"`
		Results   []struct {
			DependencyID string `json:"dependencyId"`
			Outcome      string `json:"outcome"`
		} `json:"results"`
	}](t, resp)
	if report.ProjectID != "n" || len(report.Results) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Results[0].Outcome != "linked" || report.Results[1].Outcome != "skipped-self" {
		t.Errorf("outcomes = %+v", report.Results)
	}

	resp = h.do(http.MethodPatch, "/projects/update-dependencies", h.token, map[string]any{"newProjectId": "n"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = h.do(http.MethodGet, "/projects/dependencies/check", h.token, nil)
	expectStatus(t, resp, http.StatusOK)
	check := decode[map[string]any](t, resp)
	if check["totalProjects"].(float64) != 1 {
		t.Errorf("check = %+v", check)
	}
}

func TestServer_UpdateRoutes(t *testing.T) {
	h := newHarness(t)
	expectStatus(t, h.do(http.MethodPost, "/projects", h.token, draft("g1", "generation")), http.StatusCreated)

	resp := h.do(http.MethodPatch, "/projects/g1/status", h.token, map[string]any{"goalName": "Launch", "status": "Completed"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = h.do(http.MethodPatch, "/projects/missing/status", h.token, map[string]any{"type": "generation", "goalName": "Launch", "status": "Completed"})
	expectStatus(t, resp, http.StatusNotFound)

	resp = h.do(http.MethodPatch, "/projects/g1/status", h.token, map[string]any{"type": "generation", "goalName": "Launch", "status": "Completed"})
	expectStatus(t, resp, http.StatusOK)
	if p := decode[project.Project](t, resp); p.Goals[0].Status != "Completed" {
		t.Errorf("goal status = %q", p.Goals[0].Status)
	}

	resp = h.do(http.MethodPatch, "/projects/g1/rating", h.token, map[string]any{"type": "generation", "ratingType": "peer", "rating": 3})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = h.do(http.MethodPatch, "/projects/g1/add-employee", h.token, map[string]any{"type": "generation", "newEmployee": "carol"})
	expectStatus(t, resp, http.StatusOK)
	if p := decode[project.Project](t, resp); len(p.Employees) != 2 {
		t.Errorf("employees = %v", p.Employees)
	}

	resp = h.do(http.MethodPatch, "/projects/g1/remove-employee", h.token, map[string]any{"type": "generation", "employeeToRemove": "bob"})
	expectStatus(t, resp, http.StatusOK)
	if p := decode[project.Project](t, resp); len(p.Employees) != 1 || p.Employees[0] != "carol" {
		t.Errorf("employees = %v", p.Employees)
	}

	resp = h.do(http.MethodPatch, "/projects/g1/final-completion-date", h.token, map[string]any{"type": "generation", "date": "2026-11-30"})
	expectStatus(t, resp, http.StatusOK)

	expectStatus(t, h.do(http.MethodDelete, "/projects/g1", h.token, nil), http.StatusBadRequest)
	expectStatus(t, h.do(http.MethodDelete, "/projects/g1?type=generation", h.token, nil), http.StatusOK)
	expectStatus(t, h.do(http.MethodDelete, "/projects/g1?type=generation", h.token, nil), http.StatusNotFound)
}

func TestServer_MalformedBody(t *testing.T) {
	h := newHarness(t)
	req, _ := http.NewRequest(http.MethodPatch, h.server.URL+"/projects/x/status", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+h.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestServer_Statuses(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/statuses", h.token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]map[string]string](t, resp); len(got) != 6 || got[0]["name"] != "Requested" {
		t.Errorf("statuses = %v", got)
	}

	expectStatus(t, h.do(http.MethodPatch, "/statuses", h.token, []map[string]string{}), http.StatusBadRequest)

	replacement := []map[string]string{{"name": "Open", "color": "#00ff00"}}
	expectStatus(t, h.do(http.MethodPatch, "/statuses", h.token, replacement), http.StatusOK)

	resp = h.do(http.MethodPost, "/projects", h.token, draft("p", "projects"))
	expectStatus(t, resp, http.StatusCreated)
	if p := decode[project.Project](t, resp); p.Status != "Open" {
		t.Errorf("new project status = %q, want Open", p.Status)
	}
}

func TestServer_Accounts(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/auth/register", "", map[string]string{
		"firstName": "Dana", "lastName": "Reyes", "username": "dana", "password": "s3cret",
	})
	expectStatus(t, resp, http.StatusOK)
	if s := decode[map[string]string](t, resp); s["accessToken"] == "" || s["role"] != "user" {
		t.Errorf("session = %v", s)
	}

	expectStatus(t, h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "dana", "password": "wrong"}), http.StatusUnauthorized)
	resp = h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "dana", "password": "s3cret"})
	expectStatus(t, resp, http.StatusOK)

	resp = h.do(http.MethodGet, "/auth/users", h.token, nil)
	expectStatus(t, resp, http.StatusOK)
	users := decode[[]map[string]any](t, resp)
	if len(users) != 1 || users[0]["password"] != nil {
		t.Errorf("users = %v, want one entry without a password", users)
	}

	resp = h.do(http.MethodPost, "/auth/register", "", map[string]string{"username": "root", "password": "pw", "role": "admin"})
	expectStatus(t, resp, http.StatusOK)
	resp = h.do(http.MethodPost, "/auth/register", "", map[string]string{"username": "eve", "password": "pw", "role": "admin"})
	expectStatus(t, resp, http.StatusForbidden)

	expectStatus(t, h.do(http.MethodDelete, "/auth/delete", h.token, map[string]string{"username": "dana"}), http.StatusForbidden)
	admin := h.issue(account.RoleAdmin)
	expectStatus(t, h.do(http.MethodDelete, "/auth/delete", admin, map[string]string{"username": "dana"}), http.StatusOK)
	expectStatus(t, h.do(http.MethodDelete, "/auth/delete", admin, map[string]string{"username": "dana"}), http.StatusNotFound)
}

func TestServer_Metrics(t *testing.T) {
	h := newHarness(t)
	expectStatus(t, h.do(http.MethodGet, "/projects", h.token, nil), http.StatusOK)

	resp := h.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`portfolio_http_request_duration_seconds_count{method="GET",route="/projects",status="200"} 1`,
		`portfolio_operations_total{operation="list",result="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
