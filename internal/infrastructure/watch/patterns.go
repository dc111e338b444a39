package watch

import (
	"path/filepath"
)

// PatternFilter selects file names by glob. Excludes win over includes and
// an empty include list admits every name.
type PatternFilter struct {
	Include []string
	Exclude []string
}

func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{Include: include, Exclude: exclude}
}

// Matches reports whether the base name of path passes the filter.
func (f *PatternFilter) Matches(path string) bool {
	if f == nil {
		return true
	}
	base := filepath.Base(path)

	for _, pattern := range f.Exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
