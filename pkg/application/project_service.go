package application

import (
	"context"

	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"go.uber.org/zap"
)

// DefaultsProvider supplies the values applied to absent fields on creation.
type DefaultsProvider interface {
	Defaults() project.Defaults
}

// ProjectService creates, lists and deletes projects.
type ProjectService struct {
	collections *Collections
	deps        *DependencyService
	defaults    DefaultsProvider
	audit       domain.AuditLogger
	metrics     Recorder
	logger      *zap.Logger
}

func NewProjectService(collections *Collections, deps *DependencyService, defaults DefaultsProvider, audit domain.AuditLogger, metrics Recorder, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		collections: collections,
		deps:        deps,
		defaults:    defaults,
		audit:       auditOrNoop(audit),
		metrics:     recorderOrNoop(metrics),
		logger:      logger,
	}
}

// Create validates the draft, stores the new project in the category named
// by its type and links its dependencies back to it. Linking is best effort:
// the project stays created whatever the report says.
func (s *ProjectService) Create(ctx context.Context, actor string, draft *project.Draft) (*project.Project, *dependency.LinkReport, error) {
	p, err := s.create(ctx, actor, draft)
	s.metrics.ObserveOperation("create", Kind(err))
	if err != nil {
		return nil, nil, err
	}

	report := dependency.NewLinkReport(p.ID)
	if len(p.Dependencies) > 0 && s.deps != nil {
		report, err = s.deps.Link(ctx, actor, p.ID, p.Dependencies)
		if err != nil {
			return nil, nil, err
		}
	}
	return p, report, nil
}

func (s *ProjectService) create(ctx context.Context, actor string, draft *project.Draft) (*project.Project, error) {
	if draft == nil {
		return nil, project.ErrInvalidInput
	}
	p, err := project.NewProject(draft, draft.Category(), s.defaults.Defaults())
	if err != nil {
		return nil, err
	}
	cat := draft.Category()

	err = s.collections.mutate(ctx, cat, func(records []*project.Project) ([]*project.Project, error) {
		if project.IndexOf(records, p.ID) >= 0 {
			return nil, project.ErrDuplicateID
		}
		return append(records, p.Clone()), nil
	})
	if err != nil {
		return nil, err
	}
	s.collections.index.Put(p.ID, cat)

	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("category", string(cat)),
		zap.Int("dependencies", len(p.Dependencies)),
	)
	if err := s.audit.Log(domain.ActionProjectCreated, actor, map[string]interface{}{
		"project_id": p.ID,
		"category":   string(cat),
	}); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", domain.ActionProjectCreated), zap.Error(err))
	}
	return p, nil
}

// List returns the records of one category. Unknown names resolve to the
// projects collection.
func (s *ProjectService) List(ctx context.Context, category string) ([]*project.Project, error) {
	records, err := s.collections.Load(ctx, project.ParseCategory(category))
	s.metrics.ObserveOperation("list", Kind(err))
	return records, err
}

// AggregateAll returns every project of every category, tagged with its
// category.
func (s *ProjectService) AggregateAll(ctx context.Context) ([]*project.Project, error) {
	records, err := s.collections.AggregateAll(ctx)
	s.metrics.ObserveOperation("aggregate", Kind(err))
	return records, err
}
