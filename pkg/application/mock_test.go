package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/portfoliohq/portfolio/pkg/storage"
)

// MemoryRepo keeps collections as encoded JSON, so every load hands out
// fresh records the way the file store does.
type MemoryRepo struct {
	mu          sync.Mutex
	collections map[project.Category][]byte
	saves       map[project.Category]int

	FailLoad map[project.Category]bool
	FailSave map[project.Category]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		collections: make(map[project.Category][]byte),
		saves:       make(map[project.Category]int),
		FailLoad:    make(map[project.Category]bool),
		FailSave:    make(map[project.Category]bool),
	}
}

func (m *MemoryRepo) LoadCollection(ctx context.Context, category project.Category) ([]*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLoad[category] {
		return nil, &storage.Error{Op: "read", Category: string(category), Err: errors.New("disk on fire")}
	}
	records := make([]*project.Project, 0)
	if data, ok := m.collections[category]; ok {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (m *MemoryRepo) SaveCollection(ctx context.Context, category project.Category, records []*project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave[category] {
		return &storage.Error{Op: "write", Category: string(category), Err: errors.New("disk full")}
	}
	if records == nil {
		records = []*project.Project{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	m.collections[category] = data
	m.saves[category]++
	return nil
}

// Raw returns the stored bytes of a category.
func (m *MemoryRepo) Raw(category project.Category) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.collections[category])
}

// Saves returns how many times a category was written.
func (m *MemoryRepo) Saves(category project.Category) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[category]
}

// Seed stores records directly.
func (m *MemoryRepo) Seed(category project.Category, records ...*project.Project) {
	if err := m.SaveCollection(context.Background(), category, records); err != nil {
		panic(err)
	}
	m.mu.Lock()
	m.saves[category] = 0
	m.mu.Unlock()
}

type MockAudit struct {
	mu      sync.Mutex
	Actions []string
	Err     error
}

func (a *MockAudit) Log(action, actor string, metadata map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Actions = append(a.Actions, action)
	return a.Err
}

type MockEventRepo struct {
	Events    []domain.Event
	SaveError error
	LoadError error
}

func (r *MockEventRepo) RecordEvent(e domain.Event) error {
	if r.SaveError != nil {
		return r.SaveError
	}
	r.Events = append(r.Events, e)
	return nil
}

func (r *MockEventRepo) LoadEvents() ([]domain.Event, error) {
	return r.Events, r.LoadError
}

type MockCatalogRepo struct {
	Catalog   catalog.Catalog
	SaveError error
	LoadError error
}

func (r *MockCatalogRepo) LoadStatuses(ctx context.Context) (catalog.Catalog, error) {
	return r.Catalog, r.LoadError
}

func (r *MockCatalogRepo) SaveStatuses(ctx context.Context, c catalog.Catalog) error {
	if r.SaveError != nil {
		return r.SaveError
	}
	r.Catalog = c
	return nil
}

type staticDefaults struct{}

func (staticDefaults) Defaults() project.Defaults {
	return project.Defaults{InitialStatus: "Requested", NotRated: project.NotRated}
}

func rec(id string, deps ...string) *project.Project {
	if deps == nil {
		deps = []string{}
	}
	return &project.Project{
		ID:           id,
		Name:         "Project " + id,
		Employees:    []string{"alice"},
		Goals:        []project.Goal{{Name: "g1", Status: "Requested", CustomerRating: json.RawMessage(`"None"`)}},
		Dependencies: deps,
	}
}
