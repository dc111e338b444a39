package storage

import (
	"context"

	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

// LoadCollection returns the records stored for category. A missing or
// empty file yields an empty slice.
func (r *FilesystemRepository) LoadCollection(ctx context.Context, category project.Category) ([]*project.Project, error) {
	name := CollectionFile(category)
	records := make([]*project.Project, 0)
	if _, err := r.readJSON(ctx, name, &records); err != nil {
		return nil, withCategory(err, category)
	}
	if records == nil {
		records = make([]*project.Project, 0)
	}
	return records, nil
}

// SaveCollection replaces the stored records for category.
func (r *FilesystemRepository) SaveCollection(ctx context.Context, category project.Category, records []*project.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = make([]*project.Project, 0)
	}
	return withCategory(r.writeJSON(CollectionFile(category), records), category)
}

func withCategory(err error, category project.Category) error {
	if serr, ok := err.(*Error); ok {
		serr.Category = string(category)
	}
	return err
}
