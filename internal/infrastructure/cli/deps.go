package cli

import (
	"fmt"
	"io"

	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Link and check project dependencies",
}

var depsLinkCmd = &cobra.Command{
	Use:   "link <project-id> <dependency-id>...",
	Short: "Add a project to the dependency lists of other projects",
	Long: `Appends <project-id> to the dependencies of every listed project, in
whichever category holds it. Unknown ids are reported and skipped.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(services *wiring.AppServices) error {
			report, err := services.Dependencies.Link(cmd.Context(), actorCLI, args[0], args[1:])
			if err != nil {
				return MapError(err)
			}
			return render(cmd, report, func(w io.Writer) {
				printLinkReport(w, report)
			})
		})
	},
}

type checkResult struct {
	Report   *dependency.CheckReport  `json:"report"`
	Repaired []*dependency.LinkReport `json:"repaired,omitempty"`
}

var depsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report asymmetric, dangling and duplicate references",
	Long: `Inspects all categories for references that are not mirrored, ids that
no category holds, self references and ids stored in more than one
category. With --fix, asymmetric references are mirrored and the graph is
checked again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fix, _ := cmd.Flags().GetBool("fix")

		return withServices(cmd, func(services *wiring.AppServices) error {
			result := checkResult{}
			if fix {
				repaired, err := services.Dependencies.Repair(cmd.Context(), actorCLI)
				if err != nil {
					return MapError(fmt.Errorf("repair dependencies: %w", err))
				}
				result.Repaired = repaired
			}
			report, err := services.Dependencies.Check(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("check dependencies: %w", err))
			}
			result.Report = report

			return render(cmd, result, func(w io.Writer) {
				for _, r := range result.Repaired {
					printLinkReport(w, r)
				}
				printCheckReport(w, report)
			})
		})
	},
}

func init() {
	depsCheckCmd.Flags().Bool("fix", false, "Mirror asymmetric references before checking")

	depsCmd.AddCommand(depsLinkCmd)
	depsCmd.AddCommand(depsCheckCmd)
	RootCmd.AddCommand(depsCmd)
}
