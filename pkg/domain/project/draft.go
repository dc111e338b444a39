package project

import (
	"encoding/json"
	"fmt"
	"slices"
)

// NotRated is the customer rating assigned to goals that were not rated.
const NotRated = "None"

// Defaults carries the values applied to absent fields on creation.
type Defaults struct {
	// InitialStatus is the status given to the project and its goals when
	// none is supplied. Usually the first entry of the status catalog.
	InitialStatus string
	// NotRated is the customer rating given to goals without one.
	NotRated string
}

// GoalDraft is a goal as supplied by a caller. Pointer and raw fields keep
// "absent" apart from zero values.
type GoalDraft struct {
	Name           string          `json:"name"`
	Deadline       string          `json:"deadline,omitempty"`
	Status         string          `json:"status,omitempty"`
	Rating         *float64        `json:"rating,omitempty"`
	CustomerRating json.RawMessage `json:"customerRating,omitempty"`
}

// Draft is the caller-supplied payload for a new project.
type Draft struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Employees    []string        `json:"employees"`
	Goals        []GoalDraft     `json:"goals"`
	Dependencies []string        `json:"dependencies,omitempty"`
	StartDate    string          `json:"startDate,omitempty"`
	EndDate      string          `json:"endDate,omitempty"`
	Phase        json.RawMessage `json:"phase,omitempty"`
	Comments     json.RawMessage `json:"comments,omitempty"`
	Weight       json.RawMessage `json:"weight,omitempty"`
	Status       string          `json:"status,omitempty"`
	Products     json.RawMessage `json:"products,omitempty"`
	Budget       json.RawMessage `json:"budget,omitempty"`
	Deadline     string          `json:"deadline,omitempty"`
}

// Category returns the category named by the draft's type.
func (d *Draft) Category() Category {
	return ParseCategory(d.Type)
}

// Validate reports every missing or invalid field at once.
func (d *Draft) Validate() error {
	verr := &ValidationError{}

	if d.Name == "" {
		verr.Missing = append(verr.Missing, "name")
	}
	if d.ID == "" {
		verr.Missing = append(verr.Missing, "id")
	}
	if len(d.Employees) == 0 {
		verr.Missing = append(verr.Missing, "employees")
	}
	if len(d.Goals) == 0 {
		verr.Missing = append(verr.Missing, "goals")
	}
	if d.Type == "" {
		verr.Missing = append(verr.Missing, "type")
	}
	if d.Type != string(CategoryProjects) {
		if d.StartDate == "" {
			verr.Missing = append(verr.Missing, "startDate")
		}
		if d.EndDate == "" {
			verr.Missing = append(verr.Missing, "endDate")
		}
	}

	for i, g := range d.Goals {
		if g.Name == "" {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("goals[%d].name", i))
		}
		if g.Rating != nil && *g.Rating < 0 {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("goals[%d].rating", i))
		}
	}
	for i, e := range d.Employees {
		if e == "" {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("employees[%d]", i))
		}
	}

	if verr.HasProblems() {
		return verr
	}
	return nil
}

// NewProject validates the draft and builds the normalized record stored in
// category.
func NewProject(d *Draft, category Category, defaults Defaults) (*Project, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	notRated := defaults.NotRated
	if notRated == "" {
		notRated = NotRated
	}
	notRatedJSON, err := json.Marshal(notRated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode not-rated sentinel: %w", err)
	}

	goals := make([]Goal, 0, len(d.Goals))
	for _, gd := range d.Goals {
		g := Goal{
			Name:           gd.Name,
			Deadline:       gd.Deadline,
			Status:         gd.Status,
			CustomerRating: slices.Clone(gd.CustomerRating),
		}
		if g.Status == "" {
			g.Status = defaults.InitialStatus
		}
		if gd.Rating != nil {
			g.Rating = *gd.Rating
		}
		if len(g.CustomerRating) == 0 {
			g.CustomerRating = slices.Clone(json.RawMessage(notRatedJSON))
		}
		goals = append(goals, g)
	}

	p := &Project{
		ID:                  d.ID,
		Name:                d.Name,
		Employees:           slices.Clone(d.Employees),
		Goals:               goals,
		Dependencies:        slices.Clone(d.Dependencies),
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		Phase:               slices.Clone(d.Phase),
		Comments:            slices.Clone(d.Comments),
		Weight:              slices.Clone(d.Weight),
		Status:              d.Status,
		Products:            slices.Clone(d.Products),
		Budget:              slices.Clone(d.Budget),
		Deadline:            d.Deadline,
		FinalCompletionDate: d.Deadline,
	}
	if p.Dependencies == nil {
		p.Dependencies = []string{}
	}
	if p.Status == "" {
		p.Status = defaults.InitialStatus
	}
	if !category.HasSchedule() {
		p.StartDate = SentinelDate
		p.EndDate = SentinelDate
	}

	return p, nil
}
