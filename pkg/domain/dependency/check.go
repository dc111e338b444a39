package dependency

import (
	"sort"

	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

// IssueKind classifies a consistency problem in the dependency graph.
type IssueKind string

const (
	// IssueAsymmetric means a project lists a target that does not list it back.
	IssueAsymmetric IssueKind = "asymmetric"
	// IssueDangling means a project lists an id no category holds.
	IssueDangling IssueKind = "dangling"
	// IssueCollision means the same id exists in more than one category.
	IssueCollision IssueKind = "collision"
	// IssueSelfReference means a project lists its own id.
	IssueSelfReference IssueKind = "self-reference"
)

// Issue is one consistency problem.
type Issue struct {
	Kind      IssueKind          `json:"kind"`
	ProjectID string             `json:"projectId"`
	Category  project.Category   `json:"category"`
	Reference string             `json:"reference,omitempty"`
	Also      []project.Category `json:"also,omitempty"`
}

// CheckReport summarizes the dependency graph and lists its problems.
type CheckReport struct {
	TotalProjects int               `json:"totalProjects"`
	DistinctIDs   int               `json:"distinctIds"`
	TotalEdges    int               `json:"totalEdges"`
	ByKind        map[IssueKind]int `json:"byKind"`
	Issues        []Issue           `json:"issues"`
}

// Consistent reports whether no issues were found.
func (r *CheckReport) Consistent() bool {
	return len(r.Issues) == 0
}

// Asymmetric returns the asymmetric edges as (project, target) pairs.
func (r *CheckReport) Asymmetric() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Kind == IssueAsymmetric {
			out = append(out, is)
		}
	}
	return out
}

// Check inspects an aggregated, type-tagged project list. Ids resolve to the
// first record in list order, matching how linking resolves them.
func Check(records []*project.Project) *CheckReport {
	report := &CheckReport{
		ByKind: make(map[IssueKind]int),
		Issues: make([]Issue, 0),
	}

	first := make(map[string]*project.Project, len(records))
	seenIn := make(map[string][]project.Category)
	for _, p := range records {
		if p == nil {
			continue
		}
		report.TotalProjects++
		cat := project.ParseCategory(p.Type)
		seenIn[p.ID] = append(seenIn[p.ID], cat)
		if _, ok := first[p.ID]; !ok {
			first[p.ID] = p
		}
	}

	add := func(is Issue) {
		report.Issues = append(report.Issues, is)
		report.ByKind[is.Kind]++
	}

	collisionIDs := make([]string, 0)
	for id, cats := range seenIn {
		if len(cats) > 1 {
			collisionIDs = append(collisionIDs, id)
		}
	}
	sort.Strings(collisionIDs)
	for _, id := range collisionIDs {
		cats := seenIn[id]
		add(Issue{Kind: IssueCollision, ProjectID: id, Category: cats[0], Also: cats[1:]})
	}

	for _, p := range records {
		if p == nil {
			continue
		}
		cat := project.ParseCategory(p.Type)
		for _, dep := range p.Dependencies {
			report.TotalEdges++
			if dep == p.ID {
				add(Issue{Kind: IssueSelfReference, ProjectID: p.ID, Category: cat, Reference: dep})
				continue
			}
			target, ok := first[dep]
			if !ok {
				add(Issue{Kind: IssueDangling, ProjectID: p.ID, Category: cat, Reference: dep})
				continue
			}
			if !target.HasDependency(p.ID) {
				add(Issue{Kind: IssueAsymmetric, ProjectID: p.ID, Category: cat, Reference: dep})
			}
		}
	}

	return report
}
