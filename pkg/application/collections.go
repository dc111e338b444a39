package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"go.uber.org/zap"
)

// categoryLocks serializes load-modify-save cycles per category. Callers
// never hold two of these at once.
type categoryLocks struct {
	locks map[project.Category]*sync.Mutex
}

func newCategoryLocks() *categoryLocks {
	l := &categoryLocks{locks: make(map[project.Category]*sync.Mutex)}
	for _, cat := range project.AllCategories() {
		l.locks[cat] = &sync.Mutex{}
	}
	return l
}

func (l *categoryLocks) get(category project.Category) *sync.Mutex {
	if m, ok := l.locks[category]; ok {
		return m
	}
	return l.locks[project.CategoryProjects]
}

// Collections is the shared access point to the category collections. It
// owns the per-category locks and the id index used by the services.
type Collections struct {
	repo   CollectionRepository
	locks  *categoryLocks
	index  *dependency.Index
	logger *zap.Logger
}

// NewCollections wraps repo with per-category serialization.
func NewCollections(repo CollectionRepository, logger *zap.Logger) *Collections {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collections{
		repo:   repo,
		locks:  newCategoryLocks(),
		index:  dependency.NewIndex(),
		logger: logger,
	}
}

// Index returns the id index.
func (c *Collections) Index() *dependency.Index {
	return c.index
}

// Load returns the records of one category.
func (c *Collections) Load(ctx context.Context, category project.Category) ([]*project.Project, error) {
	records, err := c.repo.LoadCollection(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", category, err)
	}
	return records, nil
}

// mutate runs fn on the records of category under its lock and saves the
// result. Nothing is saved when fn fails.
func (c *Collections) mutate(ctx context.Context, category project.Category, fn func([]*project.Project) ([]*project.Project, error)) error {
	m := c.locks.get(category)
	m.Lock()
	defer m.Unlock()

	records, err := c.repo.LoadCollection(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", category, err)
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	if err := c.repo.SaveCollection(ctx, category, updated); err != nil {
		return fmt.Errorf("failed to save %s: %w", category, err)
	}
	return nil
}

// AggregateAll concatenates the three collections in category order and
// tags every record without a type with its category. It never persists.
// The id index is rebuilt from the result.
func (c *Collections) AggregateAll(ctx context.Context) ([]*project.Project, error) {
	byCategory := make(map[project.Category][]*project.Project, len(project.AllCategories()))
	all := make([]*project.Project, 0)

	for _, cat := range project.AllCategories() {
		records, err := c.Load(ctx, cat)
		if err != nil {
			return nil, err
		}
		byCategory[cat] = records
		for _, p := range records {
			if p == nil {
				continue
			}
			if p.Type == "" {
				p.Type = string(cat)
			}
			all = append(all, p)
		}
	}

	c.index.Load(byCategory)
	if col := c.index.Collisions(); len(col) > 0 {
		c.logger.Warn("project ids present in more than one category", zap.Int("count", len(col)))
	}
	return all, nil
}

// locate returns the category holding id. A miss rebuilds the index from
// storage once before the id is reported absent, so records saved by
// another process are still found.
func (c *Collections) locate(ctx context.Context, id string) (project.Category, bool, error) {
	if c.index.Built() {
		if cat, ok := c.index.Lookup(id); ok {
			return cat, true, nil
		}
	}
	if _, err := c.AggregateAll(ctx); err != nil {
		return "", false, err
	}
	cat, ok := c.index.Lookup(id)
	return cat, ok, nil
}

// Refresh rebuilds the index from storage.
func (c *Collections) Refresh(ctx context.Context) error {
	_, err := c.AggregateAll(ctx)
	return err
}
