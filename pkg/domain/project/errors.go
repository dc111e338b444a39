package project

import (
	"errors"
	"strings"
)

// Domain errors for project records.
var (
	// ErrProjectNotFound indicates no project with the given id exists in the category.
	ErrProjectNotFound = errors.New("project not found")

	// ErrCategoryRequired indicates an operation was invoked without a category.
	ErrCategoryRequired = errors.New("type is required")

	// ErrInvalidRatingType indicates a rating type other than manager or customer.
	ErrInvalidRatingType = errors.New("invalid rating type")

	// ErrStatusRequired indicates a goal status update without a status.
	ErrStatusRequired = errors.New("invalid status")

	// ErrDuplicateID indicates a project id already exists in the target category.
	ErrDuplicateID = errors.New("project id already exists")

	// ErrInvalidInput indicates a request parameter was malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError aggregates every missing or invalid field of a draft.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Is allows errors.Is to match any ValidationError against ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// HasProblems reports whether any field was recorded.
func (e *ValidationError) HasProblems() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

// NotFoundError names the project that could not be located.
type NotFoundError struct {
	ID       string
	Category Category
}

func (e *NotFoundError) Error() string {
	return "project " + e.ID + " not found in " + string(e.Category)
}

// Is allows errors.Is to work with NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrProjectNotFound
}
