package dependency

import "errors"

// Dependency domain errors.
var (
	// ErrProjectIDRequired indicates a link request without the referencing project id.
	ErrProjectIDRequired = errors.New("newProjectId is required")
	// ErrDependenciesRequired indicates a link request without a dependency list.
	ErrDependenciesRequired = errors.New("dependencies are required")
)
