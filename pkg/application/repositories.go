package application

import (
	"context"

	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

// CollectionRepository loads and saves whole category collections.
type CollectionRepository interface {
	LoadCollection(ctx context.Context, category project.Category) ([]*project.Project, error)
	SaveCollection(ctx context.Context, category project.Category, records []*project.Project) error
}

// CatalogRepository persists the status catalog.
type CatalogRepository interface {
	LoadStatuses(ctx context.Context) (catalog.Catalog, error)
	SaveStatuses(ctx context.Context, c catalog.Catalog) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	LoadUsers(ctx context.Context) ([]account.User, error)
	SaveUsers(ctx context.Context, users []account.User) error
}
