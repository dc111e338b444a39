package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

type projectFixture struct {
	repo     *MemoryRepo
	audit    *MockAudit
	cols     *application.Collections
	projects *application.ProjectService
	updates  *application.UpdateService
}

func newProjectFixture() *projectFixture {
	repo := NewMemoryRepo()
	audit := &MockAudit{}
	cols := application.NewCollections(repo, nil)
	deps := application.NewDependencyService(cols, audit, nil, nil)
	return &projectFixture{
		repo:     repo,
		audit:    audit,
		cols:     cols,
		projects: application.NewProjectService(cols, deps, staticDefaults{}, audit, nil, nil),
		updates:  application.NewUpdateService(cols, audit, nil, nil),
	}
}

func alphaDraft() *project.Draft {
	return &project.Draft{
		ID:        "p1",
		Name:      "Alpha",
		Type:      "generation",
		Employees: []string{"alice"},
		Goals:     []project.GoalDraft{{Name: "g1"}},
		StartDate: "2024-01-01",
		EndDate:   "2024-06-01",
		Deadline:  "2024-06-01",
	}
}

func TestProjectService_CreateAppliesDefaults(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	p, report, err := f.projects.Create(ctx, "alice", alphaDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("no dependencies, expected empty report, got %+v", report.Results)
	}

	stored, err := f.projects.List(ctx, "generation")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one stored project, got %d", len(stored))
	}
	s := stored[0]
	if s.Goals[0].Status != "Requested" || s.Goals[0].Rating != 0 {
		t.Errorf("goal defaults not applied: %+v", s.Goals[0])
	}
	if string(s.Goals[0].CustomerRating) != `"None"` {
		t.Errorf("customerRating = %s", s.Goals[0].CustomerRating)
	}
	if s.FinalCompletionDate != "2024-06-01" || p.FinalCompletionDate != "2024-06-01" {
		t.Errorf("finalCompletionDate = %q", s.FinalCompletionDate)
	}
	if s.Type != "" {
		t.Errorf("creation must not write a type tag, got %q", s.Type)
	}
	if len(f.audit.Actions) != 1 || f.audit.Actions[0] != domain.ActionProjectCreated {
		t.Errorf("audit = %v", f.audit.Actions)
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	f := newProjectFixture()

	_, _, err := f.projects.Create(context.Background(), "alice", &project.Draft{Type: "realization"})
	var verr *project.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"name", "id", "employees", "goals", "startDate", "endDate"}
	if len(verr.Missing) != len(want) {
		t.Fatalf("Missing = %v, want %v", verr.Missing, want)
	}
	if application.Kind(err) != application.KindValidation {
		t.Errorf("Kind = %s", application.Kind(err))
	}
	if f.repo.Saves(project.CategoryRealization) != 0 {
		t.Error("nothing should be saved on validation failure")
	}
}

func TestProjectService_CreateRejectsDuplicateID(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	if _, _, err := f.projects.Create(ctx, "alice", alphaDraft()); err != nil {
		t.Fatal(err)
	}
	_, _, err := f.projects.Create(ctx, "alice", alphaDraft())
	if !errors.Is(err, project.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if application.Kind(err) != application.KindConflict {
		t.Errorf("Kind = %s", application.Kind(err))
	}
}

func TestProjectService_CreateLinksDependencies(t *testing.T) {
	f := newProjectFixture()
	f.repo.Seed(project.CategoryProjects, rec("a"))
	ctx := context.Background()

	d := alphaDraft()
	d.Dependencies = []string{"a", "missing"}
	p, report, err := f.projects.Create(ctx, "alice", d)
	if err != nil {
		t.Fatalf("Create should succeed despite a missing dependency: %v", err)
	}
	if report.Count(dependency.OutcomeLinked) != 1 || report.Count(dependency.OutcomeNotFound) != 1 {
		t.Errorf("unexpected report: %+v", report.Results)
	}

	records, _ := f.repo.LoadCollection(ctx, project.CategoryProjects)
	if !records[0].HasDependency(p.ID) {
		t.Error("a should list the new project")
	}
}

func TestProjectService_CreateInProjectsForcesSentinelDates(t *testing.T) {
	f := newProjectFixture()
	d := alphaDraft()
	d.Type = "projects"

	p, _, err := f.projects.Create(context.Background(), "alice", d)
	if err != nil {
		t.Fatal(err)
	}
	if p.StartDate != project.SentinelDate || p.EndDate != project.SentinelDate {
		t.Errorf("dates = %q/%q", p.StartDate, p.EndDate)
	}
}

func TestProjectService_ListUnknownCategory(t *testing.T) {
	f := newProjectFixture()
	f.repo.Seed(project.CategoryProjects, rec("a"))

	records, err := f.projects.List(context.Background(), "nonsense")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("unknown category should list projects, got %+v", records)
	}
}

func TestProjectService_AggregateAll(t *testing.T) {
	f := newProjectFixture()
	tagged := rec("r")
	tagged.Type = "custom"
	f.repo.Seed(project.CategoryProjects, rec("a"))
	f.repo.Seed(project.CategoryGeneration, rec("g1"), rec("g2"))
	f.repo.Seed(project.CategoryRealization, tagged)
	before := f.repo.Raw(project.CategoryGeneration)

	all, err := f.projects.AggregateAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	wantIDs := []string{"a", "g1", "g2", "r"}
	wantTypes := []string{"projects", "generation", "generation", "custom"}
	if len(all) != len(wantIDs) {
		t.Fatalf("got %d records", len(all))
	}
	for i := range all {
		if all[i].ID != wantIDs[i] || all[i].Type != wantTypes[i] {
			t.Errorf("record %d = %s/%s, want %s/%s", i, all[i].ID, all[i].Type, wantIDs[i], wantTypes[i])
		}
	}
	if f.repo.Raw(project.CategoryGeneration) != before {
		t.Error("aggregation must not persist tags")
	}
	if cat, _ := f.cols.Index().Lookup("r"); cat != project.CategoryRealization {
		t.Errorf("index should use the storing category, got %q", cat)
	}
}

func TestProjectService_StorageFailure(t *testing.T) {
	f := newProjectFixture()
	f.repo.FailSave[project.CategoryGeneration] = true

	_, _, err := f.projects.Create(context.Background(), "alice", alphaDraft())
	if application.Kind(err) != application.KindStorage {
		t.Fatalf("Kind = %s (%v)", application.Kind(err), err)
	}
	if _, ok := f.cols.Index().Lookup("p1"); ok {
		t.Error("failed create must not be indexed")
	}
}

func TestProjectService_ExtraFieldsSurviveUpdates(t *testing.T) {
	f := newProjectFixture()
	var p project.Project
	if err := json.Unmarshal([]byte(`{"id":"a","name":"A","employees":[],"goals":[],"dependencies":[],"legacyCode":"X-1"}`), &p); err != nil {
		t.Fatal(err)
	}
	f.repo.Seed(project.CategoryProjects, &p)

	if _, err := f.updates.AddEmployee(context.Background(), application.Ref{ID: "a", Category: "projects"}, "bob"); err != nil {
		t.Fatal(err)
	}
	records, _ := f.repo.LoadCollection(context.Background(), project.CategoryProjects)
	if string(records[0].Extra["legacyCode"]) != `"X-1"` {
		t.Errorf("extra key lost: %v", records[0].Extra)
	}
}
