package storage

import (
	"context"

	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
)

// LoadStatuses reads the status catalog. A missing file yields the default
// catalog.
func (r *FilesystemRepository) LoadStatuses(ctx context.Context) (catalog.Catalog, error) {
	var c catalog.Catalog
	found, err := r.readJSON(ctx, StatusesFile, &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return catalog.Default(), nil
	}
	return c, nil
}

func (r *FilesystemRepository) SaveStatuses(ctx context.Context, c catalog.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.writeJSON(StatusesFile, c)
}

// StatusesPath returns the absolute path of the catalog file, for watchers.
func (r *FilesystemRepository) StatusesPath() string {
	path, _ := r.ResolvePath(StatusesFile)
	return path
}
