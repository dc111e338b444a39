// Package httpapi exposes the project services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/portfoliohq/portfolio/internal/infrastructure/auth"
	"github.com/portfoliohq/portfolio/internal/infrastructure/metrics"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"go.uber.org/zap"
)

// Deps are the services the API serves. Metrics and Logger may be nil.
type Deps struct {
	Projects     *application.ProjectService
	Updates      *application.UpdateService
	Dependencies *application.DependencyService
	Catalog      *application.CatalogService
	Auth         *auth.Service
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Server routes requests to the services.
type Server struct {
	projects *application.ProjectService
	updates  *application.UpdateService
	deps     *application.DependencyService
	catalog  *application.CatalogService
	auth     *auth.Service
	tokens   *auth.Tokens
	metrics  *metrics.Metrics
	logger   *zap.Logger

	router *mux.Router
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		projects: d.Projects,
		updates:  d.Updates,
		deps:     d.Dependencies,
		catalog:  d.Catalog,
		auth:     d.Auth,
		tokens:   d.Auth.Tokens(),
		metrics:  d.Metrics,
		logger:   logger.Named("http"),
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.withRequestID, s.withRecovery, s.withObservability)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/auth/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/auth/delete", s.requireRole(account.RoleAdmin, s.handleDeleteUser)).Methods(http.MethodDelete)

	api.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects", s.handleList("projects")).Methods(http.MethodGet)
	api.HandleFunc("/projects/generation", s.handleList("generation")).Methods(http.MethodGet)
	api.HandleFunc("/projects/realization", s.handleList("realization")).Methods(http.MethodGet)
	api.HandleFunc("/projects/all", s.handleAggregate).Methods(http.MethodGet)
	api.HandleFunc("/projects/update-dependencies", s.handleLink).Methods(http.MethodPatch)
	api.HandleFunc("/projects/dependencies/check", s.handleCheck).Methods(http.MethodGet)

	api.HandleFunc("/projects/{id}/status", s.handleGoalStatus).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/goal-deadline", s.handleGoalDeadline).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/rating", s.handleRating).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/completion-date", s.handleCompletionDate).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/final-completion-date", s.handleFinalCompletionDate).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/transfer", s.handleTransfer).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/add-employee", s.handleAddEmployee).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/remove-employee", s.handleRemoveEmployee).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", s.handleDeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/statuses", s.handleGetStatuses).Methods(http.MethodGet)
	api.HandleFunc("/statuses", s.handleReplaceStatuses).Methods(http.MethodPatch)
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
