package application

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/portfoliohq/portfolio/pkg/domain"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"go.uber.org/zap"
)

// Rating types accepted by UpdateRating.
const (
	RatingManager  = "manager"
	RatingCustomer = "customer"
)

// Ref addresses one project in one category on behalf of an actor.
type Ref struct {
	ID       string
	Category string
	Actor    string
}

// UpdateService applies single-field mutations to stored projects. Each
// operation is one locked load-modify-save of the project's category.
type UpdateService struct {
	collections *Collections
	audit       domain.AuditLogger
	metrics     Recorder
	logger      *zap.Logger
}

func NewUpdateService(collections *Collections, audit domain.AuditLogger, metrics Recorder, logger *zap.Logger) *UpdateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateService{
		collections: collections,
		audit:       auditOrNoop(audit),
		metrics:     recorderOrNoop(metrics),
		logger:      logger,
	}
}

// UpdateGoalStatus sets the status of the named goal. An unknown goal name
// leaves the project unchanged and still succeeds.
func (s *UpdateService) UpdateGoalStatus(ctx context.Context, ref Ref, goalName, status string) (*project.Project, error) {
	if ref.Category != "" && status == "" {
		s.metrics.ObserveOperation("goal_status", KindValidation)
		return nil, project.ErrStatusRequired
	}
	return s.apply(ctx, "goal_status", ref, domain.ActionGoalStatusUpdated,
		map[string]interface{}{"goal": goalName, "status": status},
		func(p *project.Project) {
			if g := p.FindGoal(goalName); g != nil {
				g.Status = status
			}
		})
}

// UpdateGoalDeadline sets the deadline of the named goal. An unknown goal
// name leaves the project unchanged and still succeeds.
func (s *UpdateService) UpdateGoalDeadline(ctx context.Context, ref Ref, goalName, deadline string) (*project.Project, error) {
	return s.apply(ctx, "goal_deadline", ref, domain.ActionGoalDeadlineUpdated,
		map[string]interface{}{"goal": goalName, "deadline": deadline},
		func(p *project.Project) {
			if g := p.FindGoal(goalName); g != nil {
				g.Deadline = deadline
			}
		})
}

// UpdateRating sets the manager or customer rating. The value is stored as
// given; an empty value removes the field.
func (s *UpdateService) UpdateRating(ctx context.Context, ref Ref, ratingType string, value json.RawMessage) (*project.Project, error) {
	if ref.Category != "" && ratingType != RatingManager && ratingType != RatingCustomer {
		s.metrics.ObserveOperation("rating", KindValidation)
		return nil, project.ErrInvalidRatingType
	}
	value = slices.Clone(value)
	return s.apply(ctx, "rating", ref, domain.ActionRatingUpdated,
		map[string]interface{}{"rating_type": ratingType},
		func(p *project.Project) {
			if ratingType == RatingManager {
				p.Rating = value
			} else {
				p.CustomerRating = value
			}
		})
}

// UpdateCompletionDate sets the final completion date.
func (s *UpdateService) UpdateCompletionDate(ctx context.Context, ref Ref, date string) (*project.Project, error) {
	return s.setFinalCompletionDate(ctx, "completion_date", ref, date)
}

// UpdateFinalCompletionDate sets the final completion date. It has the same
// effect as UpdateCompletionDate and exists for callers of the older route.
func (s *UpdateService) UpdateFinalCompletionDate(ctx context.Context, ref Ref, date string) (*project.Project, error) {
	return s.setFinalCompletionDate(ctx, "final_completion_date", ref, date)
}

func (s *UpdateService) setFinalCompletionDate(ctx context.Context, op string, ref Ref, date string) (*project.Project, error) {
	return s.apply(ctx, op, ref, domain.ActionCompletionDateSet,
		map[string]interface{}{"date": date},
		func(p *project.Project) {
			p.FinalCompletionDate = date
		})
}

// TransferEmployees replaces every assignee with newEmployee.
func (s *UpdateService) TransferEmployees(ctx context.Context, ref Ref, newEmployee string) (*project.Project, error) {
	return s.apply(ctx, "transfer", ref, domain.ActionEmployeesTransferred,
		map[string]interface{}{"employee": newEmployee},
		func(p *project.Project) {
			p.TransferTo(newEmployee)
		})
}

// AddEmployee adds an assignee unless already present.
func (s *UpdateService) AddEmployee(ctx context.Context, ref Ref, employee string) (*project.Project, error) {
	return s.apply(ctx, "add_employee", ref, domain.ActionEmployeeAdded,
		map[string]interface{}{"employee": employee},
		func(p *project.Project) {
			p.AddEmployee(employee)
		})
}

// RemoveEmployee removes every occurrence of an assignee.
func (s *UpdateService) RemoveEmployee(ctx context.Context, ref Ref, employee string) (*project.Project, error) {
	return s.apply(ctx, "remove_employee", ref, domain.ActionEmployeeRemoved,
		map[string]interface{}{"employee": employee},
		func(p *project.Project) {
			p.RemoveEmployee(employee)
		})
}

// DeleteProject removes the project from its category and returns it.
// Other projects that list it keep their references.
func (s *UpdateService) DeleteProject(ctx context.Context, ref Ref) (*project.Project, error) {
	var removed *project.Project
	cat, err := s.run(ctx, "delete", ref, func(records []*project.Project) ([]*project.Project, error) {
		i := project.IndexOf(records, ref.ID)
		if i < 0 {
			return nil, &project.NotFoundError{ID: ref.ID, Category: project.ParseCategory(ref.Category)}
		}
		removed = records[i]
		return slices.Delete(records, i, i+1), nil
	})
	if err != nil {
		return nil, err
	}

	s.collections.index.Remove(ref.ID, cat)
	s.record(domain.ActionProjectDeleted, ref, cat, nil)
	return removed, nil
}

// apply locates ref, runs mutate on it and saves the category.
func (s *UpdateService) apply(ctx context.Context, op string, ref Ref, action string, meta map[string]interface{}, mutate func(*project.Project)) (*project.Project, error) {
	var updated *project.Project
	cat, err := s.run(ctx, op, ref, func(records []*project.Project) ([]*project.Project, error) {
		i := project.IndexOf(records, ref.ID)
		if i < 0 {
			return nil, &project.NotFoundError{ID: ref.ID, Category: project.ParseCategory(ref.Category)}
		}
		mutate(records[i])
		updated = records[i].Clone()
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(action, ref, cat, meta)
	return updated, nil
}

func (s *UpdateService) run(ctx context.Context, op string, ref Ref, fn func([]*project.Project) ([]*project.Project, error)) (project.Category, error) {
	if ref.Category == "" {
		s.metrics.ObserveOperation(op, KindValidation)
		return "", project.ErrCategoryRequired
	}
	cat := project.ParseCategory(ref.Category)

	err := s.collections.mutate(ctx, cat, fn)
	s.metrics.ObserveOperation(op, Kind(err))
	if err != nil {
		s.logger.Debug("update rejected",
			zap.String("operation", op),
			zap.String("project_id", ref.ID),
			zap.String("category", string(cat)),
			zap.Error(err),
		)
		return cat, err
	}
	return cat, nil
}

func (s *UpdateService) record(action string, ref Ref, cat project.Category, meta map[string]interface{}) {
	if meta == nil {
		meta = make(map[string]interface{}, 2)
	}
	meta["project_id"] = ref.ID
	meta["category"] = string(cat)

	s.logger.Info("project updated", zap.String("action", action), zap.String("project_id", ref.ID), zap.String("category", string(cat)))
	if err := s.audit.Log(action, ref.Actor, meta); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
