package application

import (
	"context"
	"errors"

	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/portfoliohq/portfolio/pkg/storage"
)

// ErrorKind classifies errors for the transport layers.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindStorage      ErrorKind = "storage"
	KindInternal     ErrorKind = "internal"
)

// Kind classifies err. A nil error has KindNone.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var serr *storage.Error
	switch {
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, project.ErrCategoryRequired),
		errors.Is(err, project.ErrInvalidRatingType),
		errors.Is(err, project.ErrStatusRequired),
		errors.Is(err, dependency.ErrProjectIDRequired),
		errors.Is(err, dependency.ErrDependenciesRequired),
		errors.Is(err, catalog.ErrEmptyCatalog),
		errors.Is(err, catalog.ErrInvalidCatalog),
		errors.Is(err, account.ErrInvalidAccount):
		return KindValidation
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, account.ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, project.ErrDuplicateID),
		errors.Is(err, account.ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, account.ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, account.ErrAdminProtected),
		errors.Is(err, account.ErrAdminRegistration):
		return KindForbidden
	case errors.As(err, &serr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindStorage
	default:
		return KindInternal
	}
}
