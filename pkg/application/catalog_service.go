package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"go.uber.org/zap"
)

// CatalogService owns the in-memory status catalog and its load/replace
// lifecycle. Project creation reads its defaults from here.
type CatalogService struct {
	repo   CatalogRepository
	audit  domain.AuditLogger
	logger *zap.Logger

	mu      sync.RWMutex
	current catalog.Catalog
}

func NewCatalogService(repo CatalogRepository, audit domain.AuditLogger, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:    repo,
		audit:   auditOrNoop(audit),
		logger:  logger,
		current: catalog.Default(),
	}
}

// Current returns a copy of the active catalog.
func (s *CatalogService) Current() catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Defaults returns the creation defaults derived from the active catalog.
func (s *CatalogService) Defaults() project.Defaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return project.Defaults{
		InitialStatus: s.current.Initial(),
		NotRated:      project.NotRated,
	}
}

// Reload reads the catalog from storage. An invalid stored catalog is
// rejected and the active one kept.
func (s *CatalogService) Reload(ctx context.Context) error {
	c, err := s.repo.LoadStatuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load statuses: %w", err)
	}
	if err := c.Validate(); err != nil {
		s.logger.Warn("ignoring invalid stored status catalog", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.current = c.Clone()
	s.mu.Unlock()

	s.logger.Info("status catalog loaded", zap.Int("statuses", len(c)))
	return nil
}

// Replace validates, persists and activates a new catalog.
func (s *CatalogService) Replace(ctx context.Context, c catalog.Catalog, actor string) (catalog.Catalog, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveStatuses(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save statuses: %w", err)
	}
	s.current = c.Clone()

	if err := s.audit.Log(domain.ActionCatalogReplaced, actor, map[string]interface{}{
		"statuses": c.Names(),
	}); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", domain.ActionCatalogReplaced), zap.Error(err))
	}
	return s.current.Clone(), nil
}
