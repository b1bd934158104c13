package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available lesson plan templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		reg, err := svc.withTemplates()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-18s  %-30s  %-8s  %6s  %s\n", "ID", "Name", "Version", "Fields", "Source")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, t := range reg.List() {
			fmt.Fprintf(out, "%-18s  %-30s  %-8s  %6d  %s\n",
				t.ID, truncate(t.Name, 30), t.Version, t.FieldCount(), t.Source)
		}
		for _, w := range reg.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		fmt.Fprintf(out, "\nUser templates are read from %s\n", svc.cfg.TemplatesDir())
		return nil
	},
}
