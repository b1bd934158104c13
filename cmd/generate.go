package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/wizard"
)

var generateCmd = &cobra.Command{
	Use:   "generate <request>",
	Short: "Create and fill a lesson plan without prompts",
	Long: `Create a plan from a template and fill it from a single request.

The request must name the grade, subject and topic. In step mode every
suggestion is approved as generated.`,
	Example: `  gpteach generate "grade 5 math lesson on fractions"
  gpteach generate -t gradual-release --mode step "grade 3 science on the water cycle"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := wizard.ParseMode(mustString(cmd, "mode"))
		if mode == wizard.ModeUnset {
			return fmt.Errorf("--mode must be full or step")
		}

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		svc.withGenerator(ctx)
		if svc.generator == nil {
			return fmt.Errorf("LLM provider not configured: %w", svc.generatorErr)
		}

		reg, err := svc.withTemplates()
		if err != nil {
			return err
		}
		tpl, ok := reg.Get(mustString(cmd, "template"))
		if !ok {
			return fmt.Errorf("unknown template %q (see gpteach templates)", mustString(cmd, "template"))
		}
		doc := plan.NewFromTemplate(tpl, mustString(cmd, "title"))

		wiz := svc.newWizard(doc, svc.generator)

		filled, err := autofill(ctx, wiz, doc, strings.Join(args, " "), mode)
		if err != nil {
			return err
		}
		if err := svc.store.PlanRepo().Save(ctx, doc); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %q (%s), %d fields filled.\n", doc.Title, doc.ID, filled)
		if show, _ := cmd.Flags().GetBool("print"); show {
			fmt.Fprintln(out)
			return plan.ExportMarkdown(out, doc)
		}
		return nil
	},
}

// autofill runs a whole session for request without asking anything and
// returns how many fields were written.
func autofill(ctx context.Context, wiz *wizard.Wizard, doc *plan.Document, request string, mode wizard.Mode) (int, error) {
	reply, err := wiz.Start(ctx, request)
	if err != nil {
		return 0, err
	}
	if wiz.State() == wizard.StateCollectingInfo {
		wiz.Cancel()
		return 0, fmt.Errorf("request is incomplete: %s", reply.Message)
	}

	reply, err = wiz.SelectMode(ctx, mode)
	if err != nil {
		return 0, err
	}

	filled := reply.Updated
	for wiz.State() == wizard.StateAwaitingDecision {
		if reply, err = wiz.Approve(ctx); err != nil {
			return filled, err
		}
		filled++
	}

	wiz.Session().Request.ApplyTo(doc)
	if reply.Title != "" && doc.Title == plan.DefaultTitle {
		doc.Title = reply.Title
	}
	return filled, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	generateCmd.Flags().StringP("template", "t", defaultTemplate, "Template to fill")
	generateCmd.Flags().String("title", "", "Plan title (defaults to the generated one)")
	generateCmd.Flags().StringP("mode", "m", "full", "full or step")
	generateCmd.Flags().BoolP("print", "p", false, "Print the plan as Markdown")
}
