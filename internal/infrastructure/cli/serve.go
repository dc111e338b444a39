package cli

import (
	"fmt"

	"github.com/portfoliohq/portfolio/internal/infrastructure/httpapi"
	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the project API until interrupted. Requires a JWT secret in
auth.jwt_secret or PORTFOLIO_AUTH_JWT_SECRET. With watch.enabled the status
catalog and the id index are reloaded when their files change on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.HTTP.Addr = serveAddr
		}
		if err := cfg.RequireServe(); err != nil {
			return NewCLIError("server is not configured", "Set PORTFOLIO_AUTH_JWT_SECRET or auth.jwt_secret in portfolio.yaml", err)
		}

		services, err := loadServices(cmd, cfg)
		if err != nil {
			return err
		}
		defer services.Close()
		defer func() { _ = services.Logger.Sync() }()

		return serve(cmd, services)
	},
}

func serve(cmd *cobra.Command, services *wiring.AppServices) error {
	ctx := cmd.Context()
	cfg := services.Config

	server, err := services.Server()
	if err != nil {
		return err
	}

	if _, err := services.Collections.AggregateAll(ctx); err != nil {
		services.Logger.Warn("initial index build failed", zap.Error(err))
	}

	if cfg.Watch.Enabled {
		w, err := services.Watcher(ctx)
		if err != nil {
			services.Logger.Warn("file watching disabled", zap.Error(err))
		} else {
			go func() {
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					services.Logger.Error("watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving portfolio API on %s\n", cfg.HTTP.Addr)
	return server.ListenAndServe(ctx, httpapi.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides http.addr)")
	RootCmd.AddCommand(serveCmd)
}
