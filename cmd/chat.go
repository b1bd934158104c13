package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/wizard"
)

const defaultTemplate = "edse-417"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Fill a lesson plan through a line-by-line conversation",
	Long: `Start a text conversation with the assistant on stdin/stdout.

Type your request first, then answer its questions. While a suggestion is
shown, press Enter (or type "approve") to accept it, "skip" to leave the
field, "regenerate" for another version, or type what to change. "cancel"
ends the session and "quit" exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		doc, err := chatDocument(ctx, cmd, svc)
		if err != nil {
			return err
		}

		wiz := svc.newWizard(doc, svc.generator)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plan %s (%s)\n", doc.Title, doc.ID)
		fmt.Fprintln(out, `What lesson should we plan? e.g. "Create a complete lesson plan for grade 5 math on fractions"`)

		save := func() error {
			if s := wiz.Session(); s != nil {
				s.Request.ApplyTo(doc)
			}
			return svc.store.PlanRepo().Save(ctx, doc)
		}
		return converse(ctx, cmd.InOrStdin(), out, wiz, doc, save)
	},
}

func chatDocument(ctx context.Context, cmd *cobra.Command, svc *services) (*plan.Document, error) {
	if ref, _ := cmd.Flags().GetString("plan"); ref != "" {
		return svc.loadPlan(ctx, ref)
	}

	reg, err := svc.withTemplates()
	if err != nil {
		return nil, err
	}
	id, _ := cmd.Flags().GetString("template")
	tpl, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown template %q (see gpteach templates)", id)
	}
	title, _ := cmd.Flags().GetString("title")
	doc := plan.NewFromTemplate(tpl, title)
	if err := svc.store.PlanRepo().Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return doc, nil
}

// converse drives wiz from line input until EOF or "quit". save runs after
// every transition.
func converse(ctx context.Context, in io.Reader, out io.Writer, wiz *wizard.Wizard, doc *plan.Document, save func() error) error {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, "> ") }

	prompt()
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "quit") || strings.EqualFold(text, "exit") {
			break
		}

		reply, err := step(ctx, wiz, text)
		switch {
		case errors.Is(err, wizard.ErrSessionMisuse):
			fmt.Fprintln(out, "That doesn't apply right now.")
		case err != nil:
			fmt.Fprintln(out, "Error:", err)
			if wiz.State() == wizard.StateGenerating {
				fmt.Fprintln(out, `Press Enter to retry or type "cancel".`)
			}
		case reply != nil:
			if reply.Title != "" && doc.Title == plan.DefaultTitle {
				doc.Title = reply.Title
			}
			printReply(out, reply)
		}

		if err := save(); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		prompt()
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// step maps one input line to a wizard operation.
func step(ctx context.Context, wiz *wizard.Wizard, text string) (*wizard.Reply, error) {
	lower := strings.ToLower(text)
	if lower == "cancel" {
		if wiz.State() == wizard.StateIdle {
			return nil, nil
		}
		wiz.Cancel()
		return &wizard.Reply{Message: "Session cancelled. Approved fields are kept."}, nil
	}

	switch wiz.State() {
	case wizard.StateCollectingInfo:
		if text == "" {
			return nil, nil
		}
		return wiz.ProvideInfo(text)
	case wizard.StateChoosingMode:
		mode := wizard.ParseMode(text)
		switch text {
		case "1":
			mode = wizard.ModeFull
		case "2":
			mode = wizard.ModeStep
		}
		if mode == wizard.ModeUnset {
			return &wizard.Reply{Message: `Please answer "full" or "step".`}, nil
		}
		return wiz.SelectMode(ctx, mode)
	case wizard.StateGenerating:
		return wiz.Generate(ctx)
	case wizard.StateAwaitingDecision:
		switch lower {
		case "", "approve", "ok", "yes", "y":
			return wiz.Approve(ctx)
		case "skip":
			return wiz.Skip(ctx)
		case "regenerate", "again":
			return wiz.Regenerate(ctx)
		}
		return wiz.Revise(ctx, text)
	}

	if text == "" {
		return nil, nil
	}
	return wiz.Start(ctx, text)
}

func printReply(out io.Writer, r *wizard.Reply) {
	for _, f := range r.Vanished {
		fmt.Fprintf(out, "(%q was removed from the plan, moving on.)\n", f.Label)
	}
	if r.Field != nil && r.Suggestion != "" {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", r.Progress, r.Total, r.Field.Label)
		fmt.Fprintln(out, strings.Repeat("─", 40))
		fmt.Fprintln(out, plan.StripTags(r.Suggestion))
		fmt.Fprintln(out, strings.Repeat("─", 40))
	}
	if r.Message != "" {
		fmt.Fprintln(out, r.Message)
	}
}

func init() {
	chatCmd.Flags().String("plan", "", "Continue an existing plan (id or id prefix)")
	chatCmd.Flags().StringP("template", "t", defaultTemplate, "Template for a new plan")
	chatCmd.Flags().String("title", "", "Title for a new plan")
}
