// Package config loads service settings from portfolio.yaml, an optional
// .env file and PORTFOLIO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/portfoliohq/portfolio/internal/logging"
	"gopkg.in/yaml.v3"
)

const (
	FileName  = "portfolio.yaml"
	EnvFile   = ".env"
	EnvPrefix = "PORTFOLIO_"

	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type StorageConfig struct {
	Driver     string `yaml:"driver" env:"DRIVER"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// Config is the full service configuration.
type Config struct {
	DataDir string         `yaml:"data_dir" env:"DATA_DIR"`
	Storage StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	HTTP    HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Auth    AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Log     logging.Config `yaml:"log" envPrefix:"LOG_"`
	Watch   WatchConfig    `yaml:"watch" envPrefix:"WATCH_"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		DataDir: ".",
		Storage: StorageConfig{Driver: DriverFile, SQLitePath: "portfolio.db"},
		HTTP: HTTPConfig{
			Addr:            ":5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth:  AuthConfig{TokenTTL: time.Hour},
		Log:   logging.DefaultConfig(),
		Watch: WatchConfig{Enabled: true, Debounce: 300 * time.Millisecond},
	}
}

// Load builds the configuration for the workspace at root. A missing
// portfolio.yaml or .env is not an error.
func Load(root string) (*Config, error) {
	cfg := Default()
	cfg.DataDir = root

	data, err := os.ReadFile(filepath.Join(root, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", FileName, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if err := godotenv.Load(filepath.Join(root, EnvFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", EnvFile, err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(root, cfg.DataDir)
	}
	if cfg.Storage.SQLitePath != "" && !filepath.IsAbs(cfg.Storage.SQLitePath) {
		cfg.Storage.SQLitePath = filepath.Join(cfg.DataDir, cfg.Storage.SQLitePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var problems []string
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of file, sqlite", c.Storage.Driver))
	}
	if c.Storage.Driver == DriverSQLite && strings.TrimSpace(c.Storage.SQLitePath) == "" {
		problems = append(problems, "storage.sqlite_path is required for the sqlite driver")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, "watch.debounce must not be negative")
	}
	if err := c.Log.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireServe checks the settings only the HTTP server needs.
func (c *Config) RequireServe() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required (set %sAUTH_JWT_SECRET)", EnvPrefix)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	return nil
}

// Save writes cfg as portfolio.yaml under root.
func Save(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, FileName), data, 0600)
}
