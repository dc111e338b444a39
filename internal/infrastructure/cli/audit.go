package cli

import (
	"fmt"
	"io"

	"github.com/portfoliohq/portfolio/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the change history",
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the recorded changes, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withServices(cmd, func(services *wiring.AppServices) error {
			events, err := services.Audit.GetTimeline()
			if err != nil {
				return MapError(fmt.Errorf("load audit trail: %w", err))
			}
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}
			return render(cmd, events, func(w io.Writer) {
				if len(events) == 0 {
					fmt.Fprintln(w, "No recorded changes.")
					return
				}
				for _, ev := range events {
					fmt.Fprintf(w, "%s  %-28s %-10s %s\n",
						dimStyle.Render(ev.Timestamp.Format("2006-01-02 15:04:05")),
						ev.Action, ev.Actor, formatMetadata(ev.Metadata))
				}
			})
		})
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(services *wiring.AppServices) error {
			violations, err := services.Audit.VerifyIntegrity()
			if err != nil {
				return MapError(fmt.Errorf("verification failed: %w", err))
			}

			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintln(out, okStyle.Render("Audit trail is intact and verified."))
				return nil
			}

			fmt.Fprintf(out, "Found %d integrity violations:\n", len(violations))
			for _, v := range violations {
				fmt.Fprintf(out, "  - %s\n", v)
			}
			return NewCLIError("audit trail failed verification", "Restore audit.jsonl from a backup", nil)
		})
	},
}

func formatMetadata(meta map[string]interface{}) string {
	if len(meta) == 0 {
		return ""
	}
	id, _ := meta["project_id"].(string)
	cat, _ := meta["category"].(string)
	switch {
	case id != "" && cat != "":
		return id + " (" + cat + ")"
	case id != "":
		return id
	default:
		return fmt.Sprint(meta)
	}
}

func init() {
	auditLogCmd.Flags().Int("limit", 0, "Show only the most recent entries")

	auditCmd.AddCommand(auditLogCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	RootCmd.AddCommand(auditCmd)
}
