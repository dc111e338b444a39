// Package dependency maintains the cross-category view of project
// dependency edges: an id index, per-link outcomes and a consistency check.
package dependency

import (
	"slices"
	"sync"

	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

// Index maps project ids to the categories holding them. Ids are unique
// within a category but may collide across categories; Lookup resolves a
// collision to the first category in aggregation order.
type Index struct {
	mu     sync.RWMutex
	owners map[string][]project.Category
	built  bool
}

// NewIndex returns an empty, unbuilt index.
func NewIndex() *Index {
	return &Index{owners: make(map[string][]project.Category)}
}

// Load replaces the index contents with records grouped by the category
// that stores them. Type tags on the records are ignored.
func (x *Index) Load(byCategory map[project.Category][]*project.Project) {
	owners := make(map[string][]project.Category)
	for cat, records := range byCategory {
		for _, p := range records {
			if p == nil || p.ID == "" {
				continue
			}
			owners[p.ID] = insertOrdered(owners[p.ID], cat)
		}
	}
	x.replace(owners)
}

func (x *Index) replace(owners map[string][]project.Category) {
	x.mu.Lock()
	x.owners = owners
	x.built = true
	x.mu.Unlock()
}

// Built reports whether Load has run at least once.
func (x *Index) Built() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.built
}

// Lookup returns the category owning id.
func (x *Index) Lookup(id string) (project.Category, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	cats := x.owners[id]
	if len(cats) == 0 {
		return "", false
	}
	return cats[0], true
}

// Put records that id lives in category.
func (x *Index) Put(id string, category project.Category) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.owners[id] = insertOrdered(x.owners[id], category)
}

// Remove forgets id in category. Another category holding the same id
// becomes the owner.
func (x *Index) Remove(id string, category project.Category) {
	x.mu.Lock()
	defer x.mu.Unlock()
	cats := slices.DeleteFunc(x.owners[id], func(c project.Category) bool { return c == category })
	if len(cats) == 0 {
		delete(x.owners, id)
		return
	}
	x.owners[id] = cats
}

// Collisions returns ids present in more than one category.
func (x *Index) Collisions() map[string][]project.Category {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string][]project.Category)
	for id, cats := range x.owners {
		if len(cats) > 1 {
			out[id] = slices.Clone(cats)
		}
	}
	return out
}

// Len returns the number of distinct ids.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.owners)
}

func insertOrdered(cats []project.Category, c project.Category) []project.Category {
	if slices.Contains(cats, c) {
		return cats
	}
	cats = append(cats, c)
	slices.SortFunc(cats, func(a, b project.Category) int {
		return categoryRank(a) - categoryRank(b)
	})
	return cats
}

func categoryRank(c project.Category) int {
	for i, known := range project.AllCategories() {
		if known == c {
			return i
		}
	}
	return len(project.AllCategories())
}
