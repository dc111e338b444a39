package wiring

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/portfoliohq/portfolio/internal/infrastructure/config"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/portfoliohq/portfolio/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Watch.Debounce = 20 * time.Millisecond
	return cfg
}

func TestBuildAppServices(t *testing.T) {
	services, err := BuildAppServices(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	defer services.Close()

	if services.Projects == nil || services.Updates == nil || services.Dependencies == nil || services.Catalog == nil {
		t.Fatalf("expected non-nil services, got %+v", services)
	}
	if got := services.Catalog.Current().Initial(); got != "Requested" {
		t.Errorf("initial status = %q", got)
	}
}

func TestBuildAppServicesKeepsDefaultOnInvalidCatalog(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.DataDir, storage.StatusesFile), []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}

	services, err := BuildAppServices(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	defer services.Close()
	if len(services.Catalog.Current()) != 6 {
		t.Errorf("expected the default catalog, got %v", services.Catalog.Current())
	}
}

func TestServerRequiresSecret(t *testing.T) {
	services, err := BuildAppServices(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer services.Close()

	if _, err := services.Server(); err == nil {
		t.Fatal("expected an error without a JWT secret")
	}
	services.Config.Auth.JWTSecret = "secret"
	if _, err := services.Server(); err != nil {
		t.Fatalf("Server: %v", err)
	}
}

func TestWatcherReloadsCatalogAndIndex(t *testing.T) {
	cfg := testConfig(t)
	services, err := BuildAppServices(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer services.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := services.Watcher(ctx)
	if err != nil {
		t.Fatalf("Watcher: %v", err)
	}
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	statuses := `[{"name":"Open","color":"#00ff00"}]`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, storage.StatusesFile), []byte(statuses), 0600); err != nil {
		t.Fatal(err)
	}
	collection := `[{"id":"ext","name":"External","employees":[],"goals":[],"dependencies":[]}]`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, storage.CollectionFile(project.CategoryRealization)), []byte(collection), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, indexed := services.Collections.Index().Lookup("ext")
		if services.Catalog.Current().Initial() == "Open" && indexed {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("watcher did not reload: initial=%q", services.Catalog.Current().Initial())
}
