package application

import (
	"context"
	"errors"
	"sort"

	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"go.uber.org/zap"
)

var (
	errAlreadyLinked = errors.New("already linked")
	errStaleIndex    = errors.New("index entry is stale")
)

// DependencyService keeps dependency edges symmetric across categories.
type DependencyService struct {
	collections *Collections
	audit       domain.AuditLogger
	metrics     Recorder
	logger      *zap.Logger
}

// NewDependencyService creates a new dependency service.
func NewDependencyService(collections *Collections, audit domain.AuditLogger, metrics Recorder, logger *zap.Logger) *DependencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DependencyService{
		collections: collections,
		audit:       auditOrNoop(audit),
		metrics:     recorderOrNoop(metrics),
		logger:      logger,
	}
}

// Link adds projectID to the dependencies of every project named in
// depIDs. Each id is handled on its own: a missing target or a storage
// failure is recorded in the report and the remaining ids are still
// processed. Only a malformed request returns an error.
func (s *DependencyService) Link(ctx context.Context, actor, projectID string, depIDs []string) (*dependency.LinkReport, error) {
	if projectID == "" {
		return nil, dependency.ErrProjectIDRequired
	}
	if depIDs == nil {
		return nil, dependency.ErrDependenciesRequired
	}

	report := dependency.NewLinkReport(projectID)
	for _, depID := range depIDs {
		res := s.linkOne(ctx, projectID, depID)
		report.Add(res)
		s.metrics.ObserveLink(res.Outcome)

		fields := []zap.Field{
			zap.String("project_id", projectID),
			zap.String("dependency_id", depID),
			zap.String("outcome", string(res.Outcome)),
		}
		switch res.Outcome {
		case dependency.OutcomeNotFound:
			s.logger.Warn("dependency target not found", fields...)
		case dependency.OutcomeStorageFailed:
			s.logger.Error("dependency target could not be updated", append(fields, zap.String("error", res.Error))...)
		default:
			s.logger.Debug("dependency processed", fields...)
		}
	}

	if linked := report.Count(dependency.OutcomeLinked); linked > 0 {
		if err := s.audit.Log(domain.ActionDependenciesLinked, actor, map[string]interface{}{
			"project_id": projectID,
			"linked":     linked,
			"requested":  len(depIDs),
		}); err != nil {
			s.logger.Warn("audit log failed", zap.String("action", domain.ActionDependenciesLinked), zap.Error(err))
		}
	}
	return report, nil
}

func (s *DependencyService) linkOne(ctx context.Context, projectID, depID string) dependency.LinkResult {
	res := dependency.LinkResult{DependencyID: depID}
	if depID == projectID {
		res.Outcome = dependency.OutcomeSkippedSelf
		return res
	}

	cat, ok, err := s.collections.locate(ctx, depID)
	if err != nil {
		res.Outcome = dependency.OutcomeStorageFailed
		res.Error = err.Error()
		return res
	}
	if !ok {
		res.Outcome = dependency.OutcomeNotFound
		return res
	}

	err = s.appendBackReference(ctx, cat, depID, projectID)
	if errors.Is(err, errStaleIndex) {
		if rerr := s.collections.Refresh(ctx); rerr != nil {
			res.Category = cat
			res.Outcome = dependency.OutcomeStorageFailed
			res.Error = rerr.Error()
			return res
		}
		cat, ok = s.collections.index.Lookup(depID)
		if !ok {
			res.Outcome = dependency.OutcomeNotFound
			return res
		}
		err = s.appendBackReference(ctx, cat, depID, projectID)
	}

	res.Category = cat
	switch {
	case err == nil:
		res.Outcome = dependency.OutcomeLinked
	case errors.Is(err, errAlreadyLinked):
		res.Outcome = dependency.OutcomeAlreadyLinked
	case errors.Is(err, errStaleIndex):
		res.Outcome = dependency.OutcomeNotFound
	default:
		res.Outcome = dependency.OutcomeStorageFailed
		res.Error = err.Error()
	}
	return res
}

func (s *DependencyService) appendBackReference(ctx context.Context, cat project.Category, targetID, projectID string) error {
	return s.collections.mutate(ctx, cat, func(records []*project.Project) ([]*project.Project, error) {
		i := project.IndexOf(records, targetID)
		if i < 0 {
			return nil, errStaleIndex
		}
		if !records[i].AddDependency(projectID) {
			return nil, errAlreadyLinked
		}
		return records, nil
	})
}

// Check reports asymmetric edges, dangling references and id collisions
// without changing anything.
func (s *DependencyService) Check(ctx context.Context) (*dependency.CheckReport, error) {
	records, err := s.collections.AggregateAll(ctx)
	if err != nil {
		return nil, err
	}
	report := dependency.Check(records)
	report.DistinctIDs = s.collections.Index().Len()
	return report, nil
}

// Repair links back every asymmetric edge found by Check. Dangling
// references are left as they are.
func (s *DependencyService) Repair(ctx context.Context, actor string) ([]*dependency.LinkReport, error) {
	report, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}

	missing := make(map[string][]string)
	for _, is := range report.Asymmetric() {
		missing[is.ProjectID] = append(missing[is.ProjectID], is.Reference)
	}
	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reports := make([]*dependency.LinkReport, 0, len(ids))
	for _, id := range ids {
		r, err := s.Link(ctx, actor, id, missing[id])
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
