// Package project defines the project record, its goals and the rules
// applied when a record is created.
package project

import (
	"encoding/json"
	"slices"
)

// Goal is a named sub-task of a project. The name is the goal's key within
// its project; it is not globally unique.
//
// A stored rating that is not a number reads as 0 and is written back as
// it was found.
type Goal struct {
	Name           string          `json:"name"`
	Deadline       string          `json:"deadline,omitempty"`
	Status         string          `json:"status"`
	Rating         float64         `json:"rating"`
	CustomerRating json.RawMessage `json:"customerRating"`

	Extra map[string]json.RawMessage `json:"-"`

	rawRating json.RawMessage
}

var goalKeys = []string{"name", "deadline", "status", "rating", "customerRating"}

type goalFields struct {
	Name           string          `json:"name"`
	Deadline       string          `json:"deadline,omitempty"`
	Status         string          `json:"status"`
	Rating         json.RawMessage `json:"rating"`
	CustomerRating json.RawMessage `json:"customerRating"`
}

// UnmarshalJSON decodes the known fields, keeps the rest in Extra and
// tolerates legacy ratings that are not numbers.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var f goalFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownKeys(data, goalKeys)
	if err != nil {
		return err
	}

	*g = Goal{
		Name:           f.Name,
		Deadline:       f.Deadline,
		Status:         f.Status,
		CustomerRating: f.CustomerRating,
		Extra:          extra,
	}
	if len(f.Rating) > 0 {
		var n float64
		if string(f.Rating) != "null" && json.Unmarshal(f.Rating, &n) == nil {
			g.Rating = n
		} else {
			g.rawRating = f.Rating
		}
	}
	return nil
}

// MarshalJSON encodes the known fields followed by any preserved extras.
func (g Goal) MarshalJSON() ([]byte, error) {
	f := goalFields{
		Name:           g.Name,
		Deadline:       g.Deadline,
		Status:         g.Status,
		Rating:         g.rawRating,
		CustomerRating: g.CustomerRating,
	}
	if f.Rating == nil {
		n, err := json.Marshal(g.Rating)
		if err != nil {
			return nil, err
		}
		f.Rating = n
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return withExtra(data, g.Extra, nil)
}

// Project is a stored project record.
//
// Fields the core does not interpret are kept as raw JSON so that any value
// written by a client survives a load and save unchanged. Keys not modelled
// here are carried in Extra for the same reason.
type Project struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Employees           []string        `json:"employees"`
	Goals               []Goal          `json:"goals"`
	Dependencies        []string        `json:"dependencies"`
	StartDate           string          `json:"startDate,omitempty"`
	EndDate             string          `json:"endDate,omitempty"`
	Phase               json.RawMessage `json:"phase,omitempty"`
	Comments            json.RawMessage `json:"comments,omitempty"`
	Weight              json.RawMessage `json:"weight,omitempty"`
	Status              string          `json:"status,omitempty"`
	Products            json.RawMessage `json:"products,omitempty"`
	Budget              json.RawMessage `json:"budget,omitempty"`
	Deadline            string          `json:"deadline,omitempty"`
	FinalCompletionDate string          `json:"finalCompletionDate,omitempty"`
	Rating              json.RawMessage `json:"rating,omitempty"`
	CustomerRating      json.RawMessage `json:"customerRating,omitempty"`
	Type                string          `json:"type,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = []string{
	"id", "name", "employees", "goals", "dependencies", "startDate", "endDate",
	"phase", "comments", "weight", "status", "products", "budget", "deadline",
	"finalCompletionDate", "rating", "customerRating", "type",
}

type projectFields Project

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (p *Project) UnmarshalJSON(data []byte) error {
	var fields projectFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, knownKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra

	*p = Project(fields)
	return nil
}

// MarshalJSON encodes the known fields followed by any preserved extras. A
// nil dependency list is left out so records stored without one keep that
// shape.
func (p Project) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(projectFields(p))
	if err != nil {
		return nil, err
	}
	var omit []string
	if p.Dependencies == nil {
		omit = append(omit, "dependencies")
	}
	return withExtra(data, p.Extra, omit)
}

func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withExtra drops the omitted keys from an encoded object and adds extras
// that do not collide with known keys.
func withExtra(data []byte, extra map[string]json.RawMessage, omit []string) ([]byte, error) {
	if len(extra) == 0 && len(omit) == 0 {
		return data, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range omit {
		delete(all, k)
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Employees = slices.Clone(p.Employees)
	c.Dependencies = slices.Clone(p.Dependencies)
	c.Goals = make([]Goal, len(p.Goals))
	for i, g := range p.Goals {
		g.CustomerRating = slices.Clone(g.CustomerRating)
		g.rawRating = slices.Clone(g.rawRating)
		g.Extra = cloneExtra(g.Extra)
		c.Goals[i] = g
	}
	c.Extra = cloneExtra(p.Extra)
	return &c
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = slices.Clone(v)
	}
	return out
}

// FindGoal returns the first goal with the given name, or nil.
func (p *Project) FindGoal(name string) *Goal {
	for i := range p.Goals {
		if p.Goals[i].Name == name {
			return &p.Goals[i]
		}
	}
	return nil
}

// HasEmployee reports whether the assignee is on the project.
func (p *Project) HasEmployee(name string) bool {
	return slices.Contains(p.Employees, name)
}

// AddEmployee appends the assignee unless already present. It reports
// whether the list changed.
func (p *Project) AddEmployee(name string) bool {
	if p.HasEmployee(name) {
		return false
	}
	p.Employees = append(p.Employees, name)
	return true
}

// RemoveEmployee drops every occurrence of the assignee and reports how
// many were removed.
func (p *Project) RemoveEmployee(name string) int {
	before := len(p.Employees)
	kept := make([]string, 0, before)
	for _, e := range p.Employees {
		if e != name {
			kept = append(kept, e)
		}
	}
	p.Employees = kept
	return before - len(kept)
}

// TransferTo replaces all assignees with a single one.
func (p *Project) TransferTo(name string) {
	p.Employees = []string{name}
}

// HasDependency reports whether id is listed in the project's dependencies.
func (p *Project) HasDependency(id string) bool {
	return slices.Contains(p.Dependencies, id)
}

// AddDependency appends id unless already listed and reports whether the
// list changed.
func (p *Project) AddDependency(id string) bool {
	if p.HasDependency(id) {
		return false
	}
	p.Dependencies = append(p.Dependencies, id)
	return true
}

// IndexOf returns the position of the project with the given id, or -1.
func IndexOf(records []*Project, id string) int {
	for i, p := range records {
		if p != nil && p.ID == id {
			return i
		}
	}
	return -1
}
