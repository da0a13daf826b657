package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resumeai-backend/internal/bootstrap"
	"resumeai-backend/internal/documents"
	"resumeai-backend/internal/resumes"
)

func newIngestCmd() *cobra.Command {
	var company, title, description string

	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Upload and analyze a PDF resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			name := filepath.Base(args[0])
			info, err := documents.Inspect(name, data)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out := cmd.OutOrStdout()
				if info.Pages > 1 {
					fmt.Fprintf(out, "note: %d pages, only page 1 is analyzed\n", info.Pages)
				}
				rec, err := app.Resumes.Ingest(ctx, resumes.IngestInput{
					FileName:       name,
					Data:           data,
					CompanyName:    company,
					JobTitle:       title,
					JobDescription: description,
					Pages:          info.Pages,
				}, func(st resumes.Status) {
					fmt.Fprintf(out, "[%s] %s\n", st.Stage, st.Message)
				})
				if err != nil {
					if rec.ID != "" {
						fmt.Fprintf(out, "draft kept: %s\n", rec.ID)
					}
					return err
				}
				return printJSON(out, rec)
			})
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&description, "description", "", "job description")
	return cmd
}
