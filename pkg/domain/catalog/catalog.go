// Package catalog holds the ordered list of statuses offered for projects
// and goals. Project status fields are free strings; the catalog is only a
// source of defaults and display colors.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FallbackInitialStatus is used when the catalog is empty.
const FallbackInitialStatus = "Requested"

var (
	// ErrEmptyCatalog indicates a replacement catalog without entries.
	ErrEmptyCatalog = errors.New("status catalog must not be empty")
	// ErrInvalidCatalog indicates a replacement catalog with bad entries.
	ErrInvalidCatalog = errors.New("invalid status catalog")
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Status is one catalog entry.
type Status struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Catalog is the ordered status list. The first entry is the initial status.
type Catalog []Status

// Default returns the catalog seeded on first start.
func Default() Catalog {
	return Catalog{
		{Name: "Requested", Color: "#007bff"},
		{Name: "Awaiting contract approval", Color: "#ffc107"},
		{Name: "Awaiting payment", Color: "#17a2b8"},
		{Name: "In transit", Color: "#28a745"},
		{Name: "Completed", Color: "#6c757d"},
		{Name: "Rejected", Color: "#dc3545"},
	}
}

// Initial returns the status given to new projects and goals.
func (c Catalog) Initial() string {
	if len(c) == 0 || c[0].Name == "" {
		return FallbackInitialStatus
	}
	return c[0].Name
}

// Contains reports whether name is a catalog status.
func (c Catalog) Contains(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// Color returns the display color for name, or "" when unknown.
func (c Catalog) Color(name string) string {
	s, _ := c.lookup(name)
	return s.Color
}

// Names returns the status names in order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// Validate checks a replacement catalog: at least one entry, non-empty
// unique names, and hex colors where a color is given.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(c))
	var problems []string
	for i, s := range c {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("statuses[%d].name is empty", i))
			continue
		}
		if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Sprintf("statuses[%d].name %q is duplicated", i, name))
		}
		seen[name] = struct{}{}
		if s.Color != "" && !colorPattern.MatchString(s.Color) {
			problems = append(problems, fmt.Sprintf("statuses[%d].color %q is not a hex color", i, s.Color))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}

// Clone returns a copy that does not share the backing array.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

func (c Catalog) lookup(name string) (Status, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Status{}, false
}
