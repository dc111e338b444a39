package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/portfoliohq/portfolio/pkg/domain/catalog"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case formatText, formatJSON, formatYAML:
		return format, nil
	default:
		return "", NewCLIError(fmt.Sprintf("unknown output format %q", format), "Use -o text, -o json or -o yaml", nil)
	}
}

// render writes v as JSON or YAML, or calls text for the human format.
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// Through JSON so that field names and preserved extra fields match
		// the stored documents.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

// statusStyle colors a status name with its catalog color.
func statusStyle(c catalog.Catalog, name string) lipgloss.Style {
	color := c.Color(name)
	if color == "" {
		return dimStyle
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func printProjects(w io.Writer, records []*project.Project, c catalog.Catalog) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No projects.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-12s %-12s %-28s %s", "ID", "TYPE", "NAME", "STATUS")))
	for _, p := range records {
		fmt.Fprintf(w, "%-12s %-12s %-28s %s\n", p.ID, p.Type, p.Name, statusStyle(c, p.Status).Render(p.Status))
		if len(p.Dependencies) > 0 {
			fmt.Fprintf(w, "%s\n", dimStyle.Render("  depends on: "+strings.Join(p.Dependencies, ", ")))
		}
	}
}

func printProject(w io.Writer, p *project.Project, c catalog.Catalog) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(p.ID), p.Name)
	fmt.Fprintf(w, "  Status:    %s\n", statusStyle(c, p.Status).Render(p.Status))
	fmt.Fprintf(w, "  Dates:     %s to %s\n", p.StartDate, p.EndDate)
	if p.FinalCompletionDate != "" {
		fmt.Fprintf(w, "  Completed: %s\n", p.FinalCompletionDate)
	}
	fmt.Fprintf(w, "  Employees: %s\n", strings.Join(p.Employees, ", "))
	for _, g := range p.Goals {
		line := fmt.Sprintf("  Goal %q: %s", g.Name, statusStyle(c, g.Status).Render(g.Status))
		if g.Deadline != "" {
			line += " (due " + g.Deadline + ")"
		}
		fmt.Fprintln(w, line)
	}
	if len(p.Dependencies) > 0 {
		fmt.Fprintf(w, "  Depends on: %s\n", strings.Join(p.Dependencies, ", "))
	}
}

func outcomeStyle(outcome dependency.LinkOutcome) lipgloss.Style {
	switch outcome {
	case dependency.OutcomeLinked, dependency.OutcomeAlreadyLinked:
		return okStyle
	case dependency.OutcomeStorageFailed:
		return errStyle
	default:
		return warnStyle
	}
}

func printLinkReport(w io.Writer, report *dependency.LinkReport) {
	if report == nil || len(report.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "Dependencies of %s:\n", report.ProjectID)
	for _, res := range report.Results {
		line := fmt.Sprintf("  %-12s %s", res.DependencyID, outcomeStyle(res.Outcome).Render(string(res.Outcome)))
		if res.Category != "" {
			line += dimStyle.Render(" (" + string(res.Category) + ")")
		}
		if res.Error != "" {
			line += " " + res.Error
		}
		fmt.Fprintln(w, line)
	}
}

func printCheckReport(w io.Writer, report *dependency.CheckReport) {
	fmt.Fprintf(w, "%d projects (%d distinct ids), %d dependency edges\n", report.TotalProjects, report.DistinctIDs, report.TotalEdges)
	if report.Consistent() {
		fmt.Fprintln(w, okStyle.Render("Dependency graph is consistent."))
		return
	}
	fmt.Fprintf(w, "Found %d issues:\n", len(report.Issues))
	for _, is := range report.Issues {
		switch is.Kind {
		case dependency.IssueCollision:
			fmt.Fprintf(w, "  %s %s exists in %s and %v\n", warnStyle.Render(string(is.Kind)), is.ProjectID, is.Category, is.Also)
		default:
			fmt.Fprintf(w, "  %s %s (%s) -> %s\n", warnStyle.Render(string(is.Kind)), is.ProjectID, is.Category, is.Reference)
		}
	}
}

func printCatalog(w io.Writer, c catalog.Catalog) {
	for i, s := range c {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s %s\n", marker, statusStyle(c, s.Name).Render(s.Name), dimStyle.Render(s.Color))
	}
}
