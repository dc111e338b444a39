// Package storage persists the project collections, the status catalog, the
// user list and the audit trail as JSON files under a data root.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
)

const (
	DataDir      = "data"
	StatusesFile = "statuses.json"
	UsersFile    = "users.json"
	AuditFile    = "audit.jsonl"
)

var collectionFiles = map[project.Category]string{
	project.CategoryProjects:    "projects.json",
	project.CategoryGeneration:  "generationProjects.json",
	project.CategoryRealization: "realizationProjects.json",
}

// CollectionFile returns the file name backing category, relative to the
// data root. Unknown categories map to the projects collection.
func CollectionFile(category project.Category) string {
	name, ok := collectionFiles[category]
	if !ok {
		name = collectionFiles[project.CategoryProjects]
	}
	return filepath.Join(DataDir, name)
}

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the data root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath joins name onto the data root and rejects anything that would
// escape it.
func (r *FilesystemRepository) ResolvePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid file path: %s", name)
	}

	base := filepath.Clean(r.root)
	full := filepath.Clean(filepath.Join(base, name))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", name)
	}
	return full, nil
}

// Initialize creates the data directory and seeds any missing file: empty
// collections, the default status catalog and an empty user list. Existing
// files are left alone.
func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Join(r.root, DataDir), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	seeds := map[string]any{
		StatusesFile: catalog.Default(),
		UsersFile:    []any{},
	}
	for _, cat := range project.AllCategories() {
		seeds[CollectionFile(cat)] = []any{}
	}

	for name, value := range seeds {
		path, err := r.ResolvePath(name)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return &Error{Op: "init", Path: name, Err: err}
		}
		if err := r.writeJSON(name, value); err != nil {
			return err
		}
	}
	return nil
}

// IsInitialized reports whether the data directory exists.
func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, DataDir))
	return err == nil
}

// readFile returns the file contents, or nil when the file does not exist.
// Transient read failures are retried.
func (r *FilesystemRepository) readFile(ctx context.Context, name string) ([]byte, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return nil, err
	}

	retryer := retry.New[[]byte](r.retryConfig)
	return retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return data, err
	})
}

func (r *FilesystemRepository) readJSON(ctx context.Context, name string, v any) (bool, error) {
	data, err := r.readFile(ctx, name)
	if err != nil {
		return false, &Error{Op: "read", Path: name, Err: err}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &Error{Op: "decode", Path: name, Err: err}
	}
	return true, nil
}

func (r *FilesystemRepository) writeJSON(name string, v any) error {
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &Error{Op: "encode", Path: name, Err: err}
	}
	data = append(data, '\n')

	if err := writeAtomic(path, data); err != nil {
		return &Error{Op: "write", Path: name, Err: err}
	}
	return nil
}

// writeAtomic replaces path with data so readers see either the old or the
// new contents, never a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// G306: Use 0600 for files
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
