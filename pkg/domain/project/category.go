package project

import "strings"

// Category identifies one of the fixed project partitions.
type Category string

const (
	// CategoryProjects holds unscheduled projects. It is also the fallback
	// for unrecognized category names.
	CategoryProjects Category = "projects"
	// CategoryGeneration holds generation projects.
	CategoryGeneration Category = "generation"
	// CategoryRealization holds realization projects.
	CategoryRealization Category = "realization"
)

// SentinelDate replaces start and end dates for categories without a schedule.
const SentinelDate = "0000-00-00"

// AllCategories returns the categories in aggregation order.
func AllCategories() []Category {
	return []Category{
		CategoryProjects,
		CategoryGeneration,
		CategoryRealization,
	}
}

// ParseCategory maps a name to a Category. Unknown names resolve to
// CategoryProjects. The legacy file-derived tags ("generationProjects",
// "realizationProjects") resolve to their category.
func ParseCategory(s string) Category {
	name := strings.TrimSuffix(strings.TrimSpace(s), "Projects")
	switch Category(name) {
	case CategoryGeneration:
		return CategoryGeneration
	case CategoryRealization:
		return CategoryRealization
	default:
		return CategoryProjects
	}
}

// IsKnown reports whether c is one of the fixed categories.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryProjects, CategoryGeneration, CategoryRealization:
		return true
	default:
		return false
	}
}

// HasSchedule reports whether projects in c carry real start and end dates.
func (c Category) HasSchedule() bool {
	return c != CategoryProjects
}

func (c Category) String() string {
	return string(c)
}
