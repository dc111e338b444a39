package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change one field of a stored project",
	Long: `Each subcommand loads the project's category, changes one field and saves
the category. --type names the category and is always required.`,
}

// updateFunc applies one update through the services.
type updateFunc func(cmd *cobra.Command, services *wiring.AppServices, ref application.Ref) (*project.Project, error)

// newUpdateCmd builds an update subcommand taking the project id as its
// only argument.
func newUpdateCmd(use, short, done string, apply updateFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("type")
			ref := application.Ref{ID: args[0], Category: category, Actor: actorCLI}

			return withServices(cmd, func(services *wiring.AppServices) error {
				updated, err := apply(cmd, services, ref)
				if err != nil {
					return MapError(err)
				}
				c := services.Catalog.Current()
				return render(cmd, updated, func(w io.Writer) {
					fmt.Fprintf(w, "%s for project %s\n", done, updated.ID)
					printProject(w, updated, c)
				})
			})
		},
	}
	cmd.Flags().StringP("type", "t", "", "Category holding the project")
	return cmd
}

func flag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

var (
	updateGoalStatusCmd = newUpdateCmd("goal-status", "Set the status of a goal", "Goal status updated",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.UpdateGoalStatus(cmd.Context(), ref, flag(cmd, "goal"), flag(cmd, "status"))
		})

	updateGoalDeadlineCmd = newUpdateCmd("goal-deadline", "Set the deadline of a goal", "Goal deadline updated",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.UpdateGoalDeadline(cmd.Context(), ref, flag(cmd, "goal"), flag(cmd, "deadline"))
		})

	updateRatingCmd = newUpdateCmd("rating", "Set the manager or customer rating", "Rating updated",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			value := flag(cmd, "value")
			if value != "" && !json.Valid([]byte(value)) {
				// Bare words are taken as strings.
				encoded, err := json.Marshal(value)
				if err != nil {
					return nil, err
				}
				value = string(encoded)
			}
			return s.Updates.UpdateRating(cmd.Context(), ref, flag(cmd, "kind"), json.RawMessage(value))
		})

	updateCompletionDateCmd = newUpdateCmd("completion-date", "Set the completion date", "Completion date updated",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.UpdateCompletionDate(cmd.Context(), ref, flag(cmd, "date"))
		})

	updateFinalCompletionDateCmd = newUpdateCmd("final-completion-date", "Set the final completion date", "Final completion date updated",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.UpdateFinalCompletionDate(cmd.Context(), ref, flag(cmd, "date"))
		})

	updateTransferCmd = newUpdateCmd("transfer", "Replace the employees with one person", "Project transferred",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.TransferEmployees(cmd.Context(), ref, flag(cmd, "employee"))
		})

	updateAddEmployeeCmd = newUpdateCmd("add-employee", "Add an employee", "Employee added",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.AddEmployee(cmd.Context(), ref, flag(cmd, "employee"))
		})

	updateRemoveEmployeeCmd = newUpdateCmd("remove-employee", "Remove an employee", "Employee removed",
		func(cmd *cobra.Command, s *wiring.AppServices, ref application.Ref) (*project.Project, error) {
			return s.Updates.RemoveEmployee(cmd.Context(), ref, flag(cmd, "employee"))
		})
)

func init() {
	updateGoalStatusCmd.Flags().String("goal", "", "Goal name")
	updateGoalStatusCmd.Flags().String("status", "", "New status")
	updateGoalDeadlineCmd.Flags().String("goal", "", "Goal name")
	updateGoalDeadlineCmd.Flags().String("deadline", "", "New deadline")
	updateRatingCmd.Flags().String("kind", "", "Rating kind: manager or customer")
	updateRatingCmd.Flags().String("value", "", "Rating value as JSON; empty clears it")
	updateCompletionDateCmd.Flags().String("date", "", "Completion date (yyyy-mm-dd)")
	updateFinalCompletionDateCmd.Flags().String("date", "", "Final completion date (yyyy-mm-dd)")
	for _, c := range []*cobra.Command{updateTransferCmd, updateAddEmployeeCmd, updateRemoveEmployeeCmd} {
		c.Flags().String("employee", "", "Employee name")
	}

	updateCmd.AddCommand(
		updateGoalStatusCmd,
		updateGoalDeadlineCmd,
		updateRatingCmd,
		updateCompletionDateCmd,
		updateFinalCompletionDateCmd,
		updateTransferCmd,
		updateAddEmployeeCmd,
		updateRemoveEmployeeCmd,
	)
	RootCmd.AddCommand(updateCmd)
}
