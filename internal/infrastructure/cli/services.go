package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/portfoliohq/portfolio/internal/infrastructure/config"
	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/internal/logging"
	"github.com/spf13/cobra"
)

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid data root %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("data root %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("data root %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadConfig() (*config.Config, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// loadServices builds the services for the data root. One-shot commands
// only log warnings unless --verbose is set.
func loadServices(cmd *cobra.Command, cfg *config.Config) (*wiring.AppServices, error) {
	if !verbose && cmd.Name() != "serve" {
		cfg.Log.Level = "warn"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	services, err := wiring.BuildAppServices(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to build services: %w", err))
	}
	return services, nil
}

// withServices loads the configuration and services, runs fn and releases
// the workspace.
func withServices(cmd *cobra.Command, fn func(*wiring.AppServices) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	services, err := loadServices(cmd, cfg)
	if err != nil {
		return err
	}
	defer services.Close()
	defer func() { _ = services.Logger.Sync() }()
	return fn(services)
}
