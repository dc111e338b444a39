package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/portfoliohq/portfolio/internal/infrastructure/auth"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

const maxBodyBytes = 1 << 20

// linkSummaryHeader carries the link outcome counts of a create request.
const linkSummaryHeader = "X-Dependency-Links"

type message struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ref builds the target of a per-project update from the route, the
// caller and the category named in the request.
func ref(r *http.Request, category string) application.Ref {
	return application.Ref{
		ID:       mux.Vars(r)["id"],
		Category: category,
		Actor:    principalFrom(r.Context()).Actor(),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg auth.Registration
	if err := decodeJSON(r, &reg); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Register(r.Context(), reg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.Delete(r.Context(), req.Username); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "user deleted"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", project.ErrInvalidInput, err))
		return
	}
	if err := checkDraftShape(body); err != nil {
		s.writeError(w, r, err)
		return
	}
	var draft project.Draft
	if err := json.Unmarshal(body, &draft); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed JSON body: %v", project.ErrInvalidInput, err))
		return
	}

	created, report, err := s.projects.Create(r.Context(), principalFrom(r.Context()).Actor(), &draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if report != nil {
		w.Header().Set(linkSummaryHeader, summarize(report))
	}
	writeJSON(w, http.StatusCreated, created)
}

// summarize renders the non-zero outcome counts of report, e.g.
// "linked=2,not-found=1".
func summarize(report *dependency.LinkReport) string {
	parts := make([]string, 0, len(dependency.AllOutcomes()))
	for _, outcome := range dependency.AllOutcomes() {
		if n := report.Count(outcome); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", outcome, n))
		}
	}
	return strings.Join(parts, ",")
}

func (s *Server) handleList(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.projects.List(r.Context(), category)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	records, err := s.projects.AggregateAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewProjectID string   `json:"newProjectId"`
		Dependencies []string `json:"dependencies"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.deps.Link(r.Context(), principalFrom(r.Context()).Actor(), req.NewProjectID, req.Dependencies)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Check(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// update decodes req and writes the project returned by apply.
func (s *Server) update(w http.ResponseWriter, r *http.Request, req any, apply func() (*project.Project, error)) {
	if err := decodeJSON(r, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := apply()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGoalStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string `json:"type"`
		GoalName string `json:"goalName"`
		Status   string `json:"status"`
	}
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.UpdateGoalStatus(r.Context(), ref(r, req.Type), req.GoalName, req.Status)
	})
}

func (s *Server) handleGoalDeadline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string `json:"type"`
		GoalName string `json:"goalName"`
		Deadline string `json:"deadline"`
	}
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.UpdateGoalDeadline(r.Context(), ref(r, req.Type), req.GoalName, req.Deadline)
	})
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string          `json:"type"`
		RatingType string          `json:"ratingType"`
		Rating     json.RawMessage `json:"rating"`
	}
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.UpdateRating(r.Context(), ref(r, req.Type), req.RatingType, req.Rating)
	})
}

type dateRequest struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

func (s *Server) handleCompletionDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.UpdateCompletionDate(r.Context(), ref(r, req.Type), req.Date)
	})
}

func (s *Server) handleFinalCompletionDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.UpdateFinalCompletionDate(r.Context(), ref(r, req.Type), req.Date)
	})
}

type employeeRequest struct {
	Type             string `json:"type"`
	NewEmployee      string `json:"newEmployee"`
	EmployeeToRemove string `json:"employeeToRemove"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.TransferEmployees(r.Context(), ref(r, req.Type), req.NewEmployee)
	})
}

func (s *Server) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.AddEmployee(r.Context(), ref(r, req.Type), req.NewEmployee)
	})
}

func (s *Server) handleRemoveEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	s.update(w, r, &req, func() (*project.Project, error) {
		return s.updates.RemoveEmployee(r.Context(), ref(r, req.Type), req.EmployeeToRemove)
	})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	removed, err := s.updates.DeleteProject(r.Context(), ref(r, r.URL.Query().Get("type")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleGetStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Current())
}

func (s *Server) handleReplaceStatuses(w http.ResponseWriter, r *http.Request) {
	var c catalog.Catalog
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.catalog.Replace(r.Context(), c, principalFrom(r.Context()).Actor())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
