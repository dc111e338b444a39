package wiring

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/portfoliohq/portfolio/internal/infrastructure/auth"
	"github.com/portfoliohq/portfolio/internal/infrastructure/config"
	"github.com/portfoliohq/portfolio/internal/infrastructure/httpapi"
	"github.com/portfoliohq/portfolio/internal/infrastructure/metrics"
	"github.com/portfoliohq/portfolio/internal/infrastructure/watch"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/storage"
	"go.uber.org/zap"
)

// AppServices exposes the application services wired to a workspace.
type AppServices struct {
	Config       *config.Config
	Workspace    *Workspace
	Metrics      *metrics.Metrics
	Collections  *application.Collections
	Catalog      *application.CatalogService
	Projects     *application.ProjectService
	Updates      *application.UpdateService
	Dependencies *application.DependencyService
	Audit        *application.AuditService
	Logger       *zap.Logger
}

// BuildAppServices opens the workspace and constructs the services in
// dependency order. The stored status catalog is loaded; an invalid one is
// logged and the default kept.
func BuildAppServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppServices, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws, err := OpenWorkspace(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	collections := application.NewCollections(ws.Collections, logger.Named("collections"))
	catalogSvc := application.NewCatalogService(ws.Files, ws.Audit, logger.Named("catalog"))
	if err := catalogSvc.Reload(ctx); err != nil {
		logger.Warn("using default status catalog", zap.Error(err))
	}
	deps := application.NewDependencyService(collections, ws.Audit, m, logger.Named("dependencies"))

	return &AppServices{
		Config:       cfg,
		Workspace:    ws,
		Metrics:      m,
		Collections:  collections,
		Catalog:      catalogSvc,
		Projects:     application.NewProjectService(collections, deps, catalogSvc, ws.Audit, m, logger.Named("projects")),
		Updates:      application.NewUpdateService(collections, ws.Audit, m, logger.Named("updates")),
		Dependencies: deps,
		Audit:        ws.Audit,
		Logger:       logger,
	}, nil
}

// Close releases the workspace.
func (s *AppServices) Close() error {
	return s.Workspace.Close()
}

// Auth builds the account service. It needs a JWT secret.
func (s *AppServices) Auth() (*auth.Service, error) {
	if err := s.Config.RequireServe(); err != nil {
		return nil, err
	}
	tokens := auth.NewTokens(s.Config.Auth.JWTSecret, s.Config.Auth.TokenTTL)
	return auth.NewService(s.Workspace.Files, tokens, s.Logger.Named("auth")), nil
}

// Server builds the HTTP API over the services.
func (s *AppServices) Server() (*httpapi.Server, error) {
	authSvc, err := s.Auth()
	if err != nil {
		return nil, err
	}
	return httpapi.New(httpapi.Deps{
		Projects:     s.Projects,
		Updates:      s.Updates,
		Dependencies: s.Dependencies,
		Catalog:      s.Catalog,
		Auth:         authSvc,
		Metrics:      s.Metrics,
		Logger:       s.Logger,
	}), nil
}

// Watcher reloads the status catalog and the id index when their files are
// edited outside the process. Callbacks run with ctx.
func (s *AppServices) Watcher(ctx context.Context) (*watch.FSWatcher, error) {
	w, err := watch.NewFSWatcher(s.Config.Watch.Debounce, s.Logger.Named("watch"))
	if err != nil {
		return nil, err
	}

	root := s.Workspace.Files.Root()
	targets := []watch.Target{{
		Name:   "statuses",
		Dir:    root,
		Filter: watch.NewPatternFilter([]string{storage.StatusesFile}, nil),
		OnChange: func(ev watch.ChangeEvent) {
			if err := s.Catalog.Reload(ctx); err != nil {
				s.Logger.Warn("status catalog reload failed", zap.String("path", ev.Path), zap.Error(err))
			}
		},
	}}
	if !s.Workspace.UsesSQLite() {
		targets = append(targets, watch.Target{
			Name:   "collections",
			Dir:    filepath.Join(root, storage.DataDir),
			Filter: watch.NewPatternFilter([]string{"*.json"}, []string{".*"}),
			OnChange: func(ev watch.ChangeEvent) {
				if err := s.Collections.Refresh(ctx); err != nil {
					s.Logger.Warn("index refresh failed", zap.String("path", ev.Path), zap.Error(err))
				}
			},
		})
	}

	var errs []error
	for _, t := range targets {
		if err := w.Add(t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return w, nil
}
