package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gpteach/gpteach/internal/app"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	deps, err := svc.screenDeps(ctx)
	if err != nil {
		return err
	}
	if deps.Generator == nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", svc.generatorErr)
		fmt.Fprintln(os.Stderr, "AI features will be unavailable.")
	}

	return app.Run(ctx, app.Options{
		Deps:         deps,
		TemplatesDir: svc.cfg.TemplatesDir(),
	})
}
