package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/portfoliohq/portfolio/internal/infrastructure/config"
	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/pkg/storage"
	"github.com/spf13/cobra"
)

var initDriver string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a portfolio data root",
	Long: `Seeds the three project collections, the default status catalog and an
empty user list, and writes portfolio.yaml when it does not exist yet.
Existing files are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}

		cfgPath := filepath.Join(root, config.FileName)
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			cfg.Storage.Driver = initDriver
			if err := cfg.Validate(); err != nil {
				return NewCLIError("invalid init options", "Use --driver file or --driver sqlite", err)
			}
			if err := config.Save(root, cfg); err != nil {
				return MapError(fmt.Errorf("write %s: %w", config.FileName, err))
			}
		}

		cfg, err := config.Load(root)
		if err != nil {
			return MapError(err)
		}
		existed := storage.NewFilesystemRepository(cfg.DataDir).IsInitialized()

		if err := withServices(cmd, func(_ *wiring.AppServices) error { return nil }); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if existed {
			fmt.Fprintf(out, "Data root in %s is already initialized; missing files were seeded\n", root)
			return nil
		}
		fmt.Fprintf(out, "Initialized portfolio data root in %s\n", root)
		fmt.Fprintf(out, "  %s, %s, %s\n", storage.StatusesFile, storage.UsersFile, storage.DataDir+"/")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", config.DriverFile, "Collection storage: file or sqlite")
	RootCmd.AddCommand(initCmd)
}
