// Package sqlite provides a SQLite-backed collection store. Each category is
// one row holding the JSON-encoded record list, so a save replaces the whole
// collection in a single statement.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/portfoliohq/portfolio/pkg/storage"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store persists project collections in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite collection store and creates its schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadCollection returns the records stored for category. A missing row
// yields an empty slice. Unknown categories map to projects.
func (s *Store) LoadCollection(ctx context.Context, category project.Category) ([]*project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	category = resolve(category)

	var body string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM collections WHERE category = ?`, string(category),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]*project.Project, 0), nil
	}
	if err != nil {
		return nil, &storage.Error{Op: "read", Category: string(category), Err: err}
	}

	records := make([]*project.Project, 0)
	if strings.TrimSpace(body) == "" {
		return records, nil
	}
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		return nil, &storage.Error{Op: "decode", Category: string(category), Err: err}
	}
	if records == nil {
		records = make([]*project.Project, 0)
	}
	return records, nil
}

// SaveCollection replaces the records stored for category.
func (s *Store) SaveCollection(ctx context.Context, category project.Category, records []*project.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	category = resolve(category)
	if records == nil {
		records = make([]*project.Project, 0)
	}

	body, err := json.Marshal(records)
	if err != nil {
		return &storage.Error{Op: "encode", Category: string(category), Err: err}
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO collections (category, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(category) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(category), string(body), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return &storage.Error{Op: "write", Category: string(category), Err: err}
	}
	return nil
}

func resolve(category project.Category) project.Category {
	if !category.IsKnown() {
		return project.CategoryProjects
	}
	return category
}
