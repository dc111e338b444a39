package dependency

import "github.com/portfoliohq/portfolio/pkg/domain/project"

// LinkOutcome is the result of linking one dependency back to a project.
type LinkOutcome string

const (
	// OutcomeLinked means the target now lists the project and was saved.
	OutcomeLinked LinkOutcome = "linked"
	// OutcomeAlreadyLinked means the target already listed the project.
	OutcomeAlreadyLinked LinkOutcome = "already-linked"
	// OutcomeNotFound means no category holds the target id.
	OutcomeNotFound LinkOutcome = "not-found"
	// OutcomeStorageFailed means the target's category could not be loaded or saved.
	OutcomeStorageFailed LinkOutcome = "storage-failed"
	// OutcomeSkippedSelf means the dependency named the project itself.
	OutcomeSkippedSelf LinkOutcome = "skipped-self"
)

// AllOutcomes returns every outcome, for metrics initialisation.
func AllOutcomes() []LinkOutcome {
	return []LinkOutcome{
		OutcomeLinked,
		OutcomeAlreadyLinked,
		OutcomeNotFound,
		OutcomeStorageFailed,
		OutcomeSkippedSelf,
	}
}

// LinkResult records what happened to one dependency id.
type LinkResult struct {
	DependencyID string           `json:"dependencyId"`
	Category     project.Category `json:"category,omitempty"`
	Outcome      LinkOutcome      `json:"outcome"`
	Error        string           `json:"error,omitempty"`
}

// LinkReport lists per-dependency outcomes for one link request, in the
// order the ids were given.
type LinkReport struct {
	ProjectID string       `json:"projectId"`
	Results   []LinkResult `json:"results"`
}

// NewLinkReport creates an empty report for projectID.
func NewLinkReport(projectID string) *LinkReport {
	return &LinkReport{ProjectID: projectID, Results: make([]LinkResult, 0)}
}

// Add appends a result.
func (r *LinkReport) Add(res LinkResult) {
	r.Results = append(r.Results, res)
}

// Count returns how many results have the given outcome.
func (r *LinkReport) Count(outcome LinkOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Complete reports whether every dependency is linked or already linked.
func (r *LinkReport) Complete() bool {
	for _, res := range r.Results {
		if res.Outcome != OutcomeLinked && res.Outcome != OutcomeAlreadyLinked {
			return false
		}
	}
	return true
}

// HasStorageFailures reports whether any target could not be persisted.
func (r *LinkReport) HasStorageFailures() bool {
	return r.Count(OutcomeStorageFailed) > 0
}
