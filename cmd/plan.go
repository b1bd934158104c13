package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage saved lesson plans",
}

var planNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty plan from a template",
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
		id := mustString(cmd, "template")
		tpl, ok := reg.Get(id)
		if !ok {
			return fmt.Errorf("unknown template %q (see gpteach templates)", id)
		}

		doc := plan.NewFromTemplate(tpl, mustString(cmd, "title"))
		if err := svc.store.PlanRepo().Save(cmd.Context(), doc); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s) with %d fields.\n", doc.Title, doc.ID, len(doc.Fields()))
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		unfiled, _ := cmd.Flags().GetBool("unfiled")
		trashed, _ := cmd.Flags().GetBool("trash")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		filter := store.PlanFilter{Unfiled: unfiled, Trashed: trashed, Limit: limit}
		if ref := mustString(cmd, "class"); ref != "" {
			c, err := svc.loadClass(ctx, ref)
			if err != nil {
				return err
			}
			filter.ClassID = c.ID
			if ref := mustString(cmd, "folder"); ref != "" {
				f, err := svc.loadFolder(ctx, c.ID, ref)
				if err != nil {
					return err
				}
				filter.FolderID = f.ID
			}
		} else if mustString(cmd, "folder") != "" {
			return fmt.Errorf("--folder needs --class")
		}

		plans, err := svc.store.LibraryRepo().FindPlans(ctx, filter)
		if err != nil {
			return fmt.Errorf("list plans: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(plans) == 0 {
			if trashed {
				fmt.Fprintln(out, "The trash is empty.")
			} else {
				fmt.Fprintln(out, "No plans saved yet.")
			}
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-32s  %-5s  %-16s  %-20s  %s\n", "ID", "Title", "Grade", "Subject", "Topic", "Updated")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, p := range plans {
			fmt.Fprintf(out, "%-8s  %-32s  %-5s  %-16s  %-20s  %s\n",
				p.ID[:min(8, len(p.ID))],
				truncate(p.Title, 32),
				p.Grade,
				truncate(p.Subject, 16),
				truncate(p.Topic, 20),
				p.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a plan as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		doc, err := svc.loadPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return plan.ExportMarkdown(cmd.OutOrStdout(), doc)
	},
}

var planExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a plan as JSON or Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := mustString(cmd, "format")
		if format != "json" && format != "markdown" && format != "md" {
			return fmt.Errorf("--format must be json or markdown")
		}

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		doc, err := svc.loadPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if path := mustString(cmd, "output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			w = f
		}

		if format == "json" {
			return plan.ExportJSON(w, doc)
		}
		return plan.ExportMarkdown(w, doc)
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Move a plan to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		purge, _ := cmd.Flags().GetBool("purge")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		doc, err := svc.loadPlan(ctx, args[0])
		if err != nil {
			return err
		}
		if purge {
			if err := svc.store.PlanRepo().Delete(ctx, doc.ID); err != nil {
				return fmt.Errorf("delete plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q permanently.\n", doc.Title)
			return nil
		}
		if err := svc.store.LibraryRepo().TrashPlan(ctx, doc.ID); err != nil {
			return fmt.Errorf("trash plan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to the trash. Restore it with gpteach plan restore %s.\n", doc.Title, doc.ID[:8])
		return nil
	},
}

var planRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Take a plan out of the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		doc, err := svc.loadPlan(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.store.LibraryRepo().RestorePlan(ctx, doc.ID); err != nil {
			return fmt.Errorf("restore plan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %q.\n", doc.Title)
		return nil
	},
}

var planMoveCmd = &cobra.Command{
	Use:   "move <id> [class]",
	Short: "File a plan under a class, or unfile it when no class is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		doc, err := svc.loadPlan(ctx, args[0])
		if err != nil {
			return err
		}

		var classID, folderID, where string
		if len(args) == 2 {
			c, err := svc.loadClass(ctx, args[1])
			if err != nil {
				return err
			}
			classID, where = c.ID, c.Name
			if ref := mustString(cmd, "folder"); ref != "" {
				f, err := svc.loadFolder(ctx, c.ID, ref)
				if err != nil {
					return err
				}
				folderID, where = f.ID, c.Name+"/"+f.Name
			}
		} else if mustString(cmd, "folder") != "" {
			return fmt.Errorf("--folder needs a class")
		}

		if _, err := svc.store.LibraryRepo().MovePlan(ctx, doc.ID, classID, folderID); err != nil {
			return fmt.Errorf("move plan: %w", err)
		}
		if where == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Unfiled %q.\n", doc.Title)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s.\n", doc.Title, where)
		}
		return nil
	},
}

var planDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		doc, err := svc.loadPlan(ctx, args[0])
		if err != nil {
			return err
		}
		cp, err := svc.store.LibraryRepo().DuplicatePlan(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("duplicate plan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s).\n", cp.Title, cp.ID[:8])
		return nil
	},
}

var planScheduleCmd = &cobra.Command{
	Use:   "schedule <id> <when>",
	Short: "Add a plan to Google Calendar",
	Long: `Schedule a plan on Google Calendar.

<when> is "2006-01-02 15:04" for a timed lesson, or "2006-01-02" for an
all-day event. Times are read in the configured calendar time zone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("duration")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		start, allDay, err := parseWhen(args[1], svc.cfg.Calendar.TimeZone)
		if err != nil {
			return err
		}
		if allDay {
			duration = 0
		}

		ctx := cmd.Context()
		doc, err := svc.loadPlan(ctx, args[0])
		if err != nil {
			return err
		}
		sch, err := svc.scheduler(ctx)
		if err != nil {
			return err
		}
		ev, err := sch.AddPlan(ctx, doc, start, duration)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q on %s.\n", ev.Summary, ev.Start.Format("Mon Jan 2 2006 15:04"))
		if ev.Link != "" {
			fmt.Fprintln(cmd.OutOrStdout(), ev.Link)
		}
		return nil
	},
}

var planUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List scheduled lessons from Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		sch, err := svc.scheduler(ctx)
		if err != nil {
			return err
		}
		events, err := sch.Upcoming(ctx, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		shown := 0
		for _, e := range events {
			if e.PlanID == "" {
				continue
			}
			when := e.Start.Format("2006-01-02 15:04")
			if e.AllDay {
				when = e.Start.Format("2006-01-02") + " (all day)"
			}
			fmt.Fprintf(out, "%-24s  %-40s  %s\n", when, truncate(e.Summary, 40), e.PlanID[:min(8, len(e.PlanID))])
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(out, "No lessons scheduled.")
		}
		return nil
	},
}

// parseWhen reads a date or date-time in tz.
func parseWhen(s, tz string) (time.Time, bool, error) {
	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("time zone: %w", err)
		}
		loc = l
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q: want YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"", s)
}

func init() {
	planNewCmd.Flags().StringP("template", "t", defaultTemplate, "Template to use")
	planNewCmd.Flags().String("title", "", "Plan title")
	planListCmd.Flags().IntP("limit", "n", 50, "Number of plans to show")
	planListCmd.Flags().String("class", "", "Only plans in this class")
	planListCmd.Flags().String("folder", "", "Only plans in this folder of --class")
	planListCmd.Flags().Bool("unfiled", false, "Only plans outside any class")
	planListCmd.Flags().Bool("trash", false, "Show the trash")
	planDeleteCmd.Flags().Bool("purge", false, "Delete permanently instead of moving to the trash")
	planMoveCmd.Flags().String("folder", "", "Folder inside the class")
	planExportCmd.Flags().StringP("format", "f", "markdown", "json or markdown")
	planExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	planScheduleCmd.Flags().Duration("duration", time.Hour, "Lesson length; 0 makes an all-day event")
	planUpcomingCmd.Flags().IntP("limit", "n", 20, "Number of events to fetch")

	planCmd.AddCommand(planNewCmd, planListCmd, planShowCmd, planExportCmd, planMoveCmd, planDuplicateCmd,
		planDeleteCmd, planRestoreCmd, planScheduleCmd, planUpcomingCmd)
}
