package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gpteach",
	Short: "AI lesson plan assistant for teachers",
	Long:  "GPTeach helps teachers fill in lesson plan templates with an AI assistant, field by field or all at once.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides GPTEACH_DB and the config file)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides GPTEACH_CONFIG)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(outcomesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
