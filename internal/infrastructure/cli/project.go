package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/spf13/cobra"
)

const actorCLI = "cli"

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "List, create and delete projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects of one category, or of all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("type")

		return withServices(cmd, func(services *wiring.AppServices) error {
			var (
				records []*project.Project
				err     error
			)
			if category == "all" {
				records, err = services.Projects.AggregateAll(cmd.Context())
			} else {
				records, err = services.Projects.List(cmd.Context(), category)
			}
			if err != nil {
				return MapError(fmt.Errorf("list projects: %w", err))
			}
			if category != "all" {
				for _, p := range records {
					if p.Type == "" {
						p.Type = string(project.ParseCategory(category))
					}
				}
			}

			c := services.Catalog.Current()
			return render(cmd, records, func(w io.Writer) {
				printProjects(w, records, c)
			})
		})
	},
}

type createResult struct {
	Project *project.Project       `json:"project"`
	Links   *dependency.LinkReport `json:"links,omitempty"`
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project from a JSON draft",
	Long: `Reads a project draft (id, name, type, employees, goals and, outside the
projects category, startDate and endDate) from --file, or from stdin when
the file is "-". Listed dependencies are linked back to the new project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		data, err := readInput(cmd, file)
		if err != nil {
			return err
		}
		var draft project.Draft
		if err := json.Unmarshal(data, &draft); err != nil {
			return NewCLIError("draft is not valid JSON", "See 'portfolio project create --help'", err)
		}

		return withServices(cmd, func(services *wiring.AppServices) error {
			created, report, err := services.Projects.Create(cmd.Context(), actorCLI, &draft)
			if err != nil {
				return MapError(err)
			}
			c := services.Catalog.Current()
			return render(cmd, createResult{Project: created, Links: report}, func(w io.Writer) {
				fmt.Fprintf(w, "Created project %s in %s\n", created.ID, draft.Category())
				printProject(w, created, c)
				printLinkReport(w, report)
			})
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project from its category",
	Long: `Removes the project. Projects that list it keep their reference; run
'portfolio deps check' to find them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("type")

		return withServices(cmd, func(services *wiring.AppServices) error {
			removed, err := services.Updates.DeleteProject(cmd.Context(), application.Ref{ID: args[0], Category: category, Actor: actorCLI})
			if err != nil {
				return MapError(err)
			}
			return render(cmd, removed, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted project %s from %s\n", removed.ID, project.ParseCategory(category))
			})
		})
	},
}

// readInput returns the contents of file, or stdin for "-".
func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	switch file {
	case "":
		return nil, NewCLIError("--file is required", "Pass a JSON file, or - to read stdin", nil)
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	default:
		data, err := os.ReadFile(file) // #nosec G304 -- path supplied by the operator
		if err != nil {
			return nil, NewCLIError("cannot read input", "", err)
		}
		return data, nil
	}
}

func init() {
	projectListCmd.Flags().StringP("type", "t", "all", "Category: projects, generation, realization or all")
	projectCreateCmd.Flags().StringP("file", "f", "", "Draft JSON file, - for stdin")
	projectDeleteCmd.Flags().StringP("type", "t", "", "Category holding the project")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	RootCmd.AddCommand(projectCmd)
}
