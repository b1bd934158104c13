package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/store"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Organise plans into classes",
}

var classNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := plan.NewClass(args[0])
		if err != nil {
			return err
		}
		c.Grade = mustString(cmd, "grade")
		c.Subject = mustString(cmd, "subject")
		c.Section = mustString(cmd, "section")
		c.Semester = mustString(cmd, "semester")
		if err := setColor(&c.Color, mustString(cmd, "color")); err != nil {
			return err
		}

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.store.LibraryRepo().CreateClass(cmd.Context(), c); err != nil {
			return fmt.Errorf("create class: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created class %q (%s).\n", c.Name, c.ID[:8])
		return nil
	},
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes",
	RunE: func(cmd *cobra.Command, args []string) error {
		archived, _ := cmd.Flags().GetBool("archived")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		lib := svc.store.LibraryRepo()
		classes, err := lib.ListClasses(ctx, archived)
		if err != nil {
			return fmt.Errorf("list classes: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(classes) == 0 {
			if archived {
				fmt.Fprintln(out, "No archived classes.")
			} else {
				fmt.Fprintln(out, "No classes yet. Create one with gpteach class new.")
			}
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-28s  %-5s  %-16s  %-8s  %-12s  %s\n", "ID", "Name", "Grade", "Subject", "Section", "Semester", "Plans")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, c := range classes {
			plans, err := lib.FindPlans(ctx, store.PlanFilter{ClassID: c.ID})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-8s  %-28s  %-5s  %-16s  %-8s  %-12s  %d\n",
				c.ID[:min(8, len(c.ID))],
				truncate(c.Name, 28),
				c.Grade,
				truncate(c.Subject, 16),
				truncate(c.Section, 8),
				truncate(c.Semester, 12),
				len(plans),
			)
		}
		return nil
	},
}

var classArchiveCmd = &cobra.Command{
	Use:   "archive <class>",
	Short: "Hide a class and its plans from the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			if err := svc.store.LibraryRepo().ArchiveClass(cmd.Context(), c.ID); err != nil {
				return fmt.Errorf("archive class: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %q.\n", c.Name)
			return nil
		})
	},
}

var classUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <class>",
	Short: "Bring an archived class back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			if err := svc.store.LibraryRepo().UnarchiveClass(cmd.Context(), c.ID); err != nil {
				return fmt.Errorf("unarchive class: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %q.\n", c.Name)
			return nil
		})
	},
}

var classDeleteCmd = &cobra.Command{
	Use:   "delete <class>",
	Short: "Permanently delete an archived class with its folders and plans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			if err := svc.store.LibraryRepo().DeleteClass(cmd.Context(), c.ID); err != nil {
				return fmt.Errorf("delete class: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q permanently.\n", c.Name)
			return nil
		})
	},
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Organise a class into folders",
}

var folderNewCmd = &cobra.Command{
	Use:   "new <class> <name>",
	Short: "Create a folder in a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			ctx := cmd.Context()
			var parentID string
			if ref := mustString(cmd, "parent"); ref != "" {
				parent, err := svc.loadFolder(ctx, c.ID, ref)
				if err != nil {
					return err
				}
				parentID = parent.ID
			}

			f, err := plan.NewFolder(c.ID, parentID, args[1])
			if err != nil {
				return err
			}
			if err := setColor(&f.Color, mustString(cmd, "color")); err != nil {
				return err
			}
			if err := svc.store.LibraryRepo().CreateFolder(ctx, f); err != nil {
				return fmt.Errorf("create folder: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %q in %s (%s).\n", f.Name, c.Name, f.ID[:8])
			return nil
		})
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list <class>",
	Short: "Show the folder tree of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, c.Name)
			n, err := printFolders(cmd, svc, c.ID, "", 1)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, "  (no folders)")
			}
			return nil
		})
	},
}

var folderDeleteCmd = &cobra.Command{
	Use:   "delete <class> <folder>",
	Short: "Move a folder and everything in it to the trash",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClass(cmd, args[0], func(svc *services, c *plan.Class) error {
			ctx := cmd.Context()
			f, err := svc.loadFolder(ctx, c.ID, args[1])
			if err != nil {
				return err
			}
			if err := svc.store.LibraryRepo().DeleteFolder(ctx, f.ID); err != nil {
				return fmt.Errorf("delete folder: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q and its plans to the trash.\n", f.Name)
			return nil
		})
	},
}

func printFolders(cmd *cobra.Command, svc *services, classID, parentID string, depth int) (int, error) {
	folders, err := svc.store.LibraryRepo().ListFolders(cmd.Context(), classID, parentID)
	if err != nil {
		return 0, fmt.Errorf("list folders: %w", err)
	}
	n := len(folders)
	for _, f := range folders {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s\n", strings.Repeat("  ", depth), f.ID[:min(8, len(f.ID))], f.Name)
		sub, err := printFolders(cmd, svc, classID, f.ID, depth+1)
		if err != nil {
			return 0, err
		}
		n += sub
	}
	return n, nil
}

func withClass(cmd *cobra.Command, ref string, fn func(*services, *plan.Class) error) error {
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	c, err := svc.loadClass(cmd.Context(), ref)
	if err != nil {
		return err
	}
	return fn(svc, c)
}

func setColor(dst *string, color string) error {
	if color == "" {
		return nil
	}
	if !slices.Contains(plan.Colors, color) {
		return fmt.Errorf("--color must be one of %s", strings.Join(plan.Colors, ", "))
	}
	*dst = color
	return nil
}

func init() {
	classNewCmd.Flags().String("grade", "", "Grade level")
	classNewCmd.Flags().String("subject", "", "Subject")
	classNewCmd.Flags().String("section", "", "Section")
	classNewCmd.Flags().String("semester", "", "Semester, e.g. \"Fall 2026\"")
	classNewCmd.Flags().String("color", "", "Swatch color")
	classListCmd.Flags().Bool("archived", false, "Show archived classes instead")
	folderNewCmd.Flags().String("parent", "", "Create inside this folder")
	folderNewCmd.Flags().String("color", "", "Swatch color")

	classCmd.AddCommand(classNewCmd, classListCmd, classArchiveCmd, classUnarchiveCmd, classDeleteCmd)
	folderCmd.AddCommand(folderNewCmd, folderListCmd, folderDeleteCmd)
}
