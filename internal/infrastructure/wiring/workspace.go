package wiring

import (
	"fmt"

	"github.com/portfoliohq/portfolio/internal/infrastructure/config"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/storage"
	"github.com/portfoliohq/portfolio/pkg/storage/sqlite"
)

// Workspace bundles the storage backends for one data root.
type Workspace struct {
	Files       *storage.FilesystemRepository
	Collections application.CollectionRepository
	Audit       *application.AuditService

	store *sqlite.Store
}

// OpenWorkspace prepares the data root described by cfg, seeding any
// missing file. Collections live in SQLite when the sqlite driver is
// selected; everything else stays on the filesystem.
func OpenWorkspace(cfg *config.Config) (*Workspace, error) {
	files := storage.NewFilesystemRepository(cfg.DataDir)
	if err := files.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", cfg.DataDir, err)
	}

	ws := &Workspace{
		Files:       files,
		Collections: files,
		Audit:       application.NewAuditService(files),
	}
	if cfg.Storage.Driver == config.DriverSQLite {
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		ws.store = store
		ws.Collections = store
	}
	return ws, nil
}

// UsesSQLite reports whether collections are stored in SQLite.
func (w *Workspace) UsesSQLite() bool {
	return w.store != nil
}

// Close releases the SQLite handle, if any.
func (w *Workspace) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}
