package cli

import (
	"errors"
	"fmt"

	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

// Exit codes by error kind.
const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
	exitStorage    = 4
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: exitFailure,
	}
}

func withExit(e *CLIError, code int) *CLIError {
	e.ExitCode = code
	return e
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var verr *project.ValidationError
	if errors.As(err, &verr) {
		return withExit(NewCLIError("invalid project", "Check the draft file against 'portfolio project create --help'", err), exitValidation)
	}

	switch {
	case errors.Is(err, project.ErrCategoryRequired):
		return withExit(NewCLIError("project type is required", "Pass --type projects, generation or realization", err), exitValidation)
	case errors.Is(err, project.ErrInvalidRatingType):
		return withExit(NewCLIError("invalid rating type", "Use --kind manager or --kind customer", err), exitValidation)
	case errors.Is(err, project.ErrStatusRequired):
		return withExit(NewCLIError("status is required", "Run 'portfolio status list' to see the catalog", err), exitValidation)
	case errors.Is(err, project.ErrDuplicateID):
		return withExit(NewCLIError("project id already exists", "Run 'portfolio project list' to see the ids in use", err), exitValidation)
	case errors.Is(err, project.ErrProjectNotFound):
		return withExit(NewCLIError("project not found", "Run 'portfolio project list --type <type>' to list available projects", err), exitNotFound)
	case errors.Is(err, catalog.ErrEmptyCatalog), errors.Is(err, catalog.ErrInvalidCatalog):
		return withExit(NewCLIError("invalid status catalog", "Every status needs a unique name and a #rgb or #rrggbb color", err), exitValidation)
	}

	switch application.Kind(err) {
	case application.KindValidation:
		return withExit(NewCLIError("invalid input", "", err), exitValidation)
	case application.KindStorage:
		return withExit(NewCLIError("storage failure", "Run 'portfolio init' and check the data root permissions", err), exitStorage)
	}
	return err
}
