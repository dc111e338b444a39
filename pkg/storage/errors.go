package storage

import "fmt"

// Error wraps a storage failure with the operation and the file or category
// it concerned.
type Error struct {
	Op       string
	Path     string
	Category string
	Err      error
}

func (e *Error) Error() string {
	target := e.Path
	if e.Category != "" {
		target = e.Category
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
