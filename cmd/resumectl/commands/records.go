package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resumeai-backend/internal/bootstrap"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored resumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				recs, err := app.Resumes.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
				for _, rec := range recs {
					status := "draft"
					if rec.IsComplete() {
						status = "complete"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.DisplayName(), status)
				}
				return tw.Flush()
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored resume record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				rec, err := app.Resumes.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newRetireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire <id>",
		Short: "Delete a resume, its files and its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Resumes.RetireByID(ctx, args[0], nil)
				if err != nil {
					return err
				}
				if !res.OK() {
					fmt.Fprintln(cmd.OutOrStdout(), res.Message())
					return fmt.Errorf("retire %s: %d deletion(s) failed", res.ID, len(res.Errors))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", res.ID)
				return nil
			})
		},
	}
}

func newWipeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every stored file and record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Resumes.Wipe(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d file(s)\n", res.Deleted)
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", e.Error(), e.Path)
				}
				if len(res.Errors) > 0 {
					return fmt.Errorf("wipe: %d deletion(s) failed", len(res.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of all data")
	return cmd
}
