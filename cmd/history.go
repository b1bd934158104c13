package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent wizard activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		session := mustString(cmd, "session")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		events, err := svc.store.EventRepo().QueryWizardEvents(cmd.Context(), session, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No wizard activity recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-8s  %-8s  %-12s  %-24s  %s\n", "Timestamp", "Session", "Plan", "Action", "Field", "Detail")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, e := range events {
			fmt.Fprintf(out, "%-19s  %-8s  %-8s  %-12s  %-24s  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.SessionID, 8),
				truncate(e.PlanID, 8),
				e.Action,
				truncate(e.FieldLabel, 24),
				truncate(e.Detail, 40),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 30, "Number of events to show")
	historyCmd.Flags().String("session", "", "Only show one session")
}
