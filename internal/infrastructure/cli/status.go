package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show or replace the status catalog",
}

var statusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the statuses; the first one is given to new projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(services *wiring.AppServices) error {
			c := services.Catalog.Current()
			return render(cmd, c, func(w io.Writer) {
				printCatalog(w, c)
			})
		})
	},
}

var statusReplaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Replace the status catalog from a JSON file",
	Long: `Reads a JSON array of {"name", "color"} objects from --file, or stdin for
"-". Names must be unique and colors #rgb or #rrggbb.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		data, err := readInput(cmd, file)
		if err != nil {
			return err
		}
		var c catalog.Catalog
		if err := json.Unmarshal(data, &c); err != nil {
			return NewCLIError("catalog is not valid JSON", `Expected [{"name": "...", "color": "#rrggbb"}]`, err)
		}

		return withServices(cmd, func(services *wiring.AppServices) error {
			saved, err := services.Catalog.Replace(cmd.Context(), c, actorCLI)
			if err != nil {
				return MapError(err)
			}
			return render(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Status catalog replaced (%d statuses)\n", len(saved))
				printCatalog(w, saved)
			})
		})
	},
}

func init() {
	statusReplaceCmd.Flags().StringP("file", "f", "", "Catalog JSON file, - for stdin")

	statusCmd.AddCommand(statusListCmd)
	statusCmd.AddCommand(statusReplaceCmd)
	RootCmd.AddCommand(statusCmd)
}
