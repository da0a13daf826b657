// Package commands implements the resumectl operator CLI.
package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"resumeai-backend/internal/bootstrap"
	"resumeai-backend/internal/shared/config"
	"resumeai-backend/internal/shared/storage/db"
)

// buildApp is replaced in tests.
var buildApp = func(ctx context.Context) (*bootstrap.App, error) {
	cfg := config.Load()
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	cliOpts := db.OptionsFromEnv(db.DefaultCLIOptions())
	return bootstrap.Build(ctx, cfg, bootstrap.Options{SkipRouter: true, DBOptions: &cliOpts})
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resumectl",
		Short: "Operate the resume analysis store",
		Long: `resumectl ingests PDF resumes, inspects stored records and removes them,
using the same storage and LLM configuration as the API server.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newIngestCmd(),
		newListCmd(),
		newGetCmd(),
		newRetireCmd(),
		newWipeCmd(),
		newMigrateCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
