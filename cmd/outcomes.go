package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/curriculum"
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes [query]",
	Short: "Look up curriculum outcomes",
	Long: `List curriculum outcomes for a grade, or search them.

With a query, outcome IDs, descriptions and categories are searched.
Without one, --grade is required and lists that grade's outcomes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		cur := svc.withCurriculum()
		grade := curriculum.NormalizeGrade(mustString(cmd, "grade"))
		query := strings.Join(args, " ")

		var list []curriculum.Outcome
		switch {
		case query != "":
			list, err = cur.Search(ctx, query, grade)
		case grade != "":
			list, err = cur.OutcomesForGrade(ctx, grade, mustString(cmd, "topic"))
		default:
			return fmt.Errorf("give a search query or --grade (known grades: %s)", strings.Join(cur.Grades(ctx), ", "))
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No outcomes found.")
			return nil
		}
		for _, o := range list {
			fmt.Fprintf(out, "%-3s  %-24s  %s\n", o.Grade, truncate(o.Category, 24), curriculum.Format(o))
		}
		return nil
	},
}

func init() {
	outcomesCmd.Flags().StringP("grade", "g", "", "Grade level, e.g. 5 or K")
	outcomesCmd.Flags().String("topic", "", "Keep outcomes mentioning this topic")
}
