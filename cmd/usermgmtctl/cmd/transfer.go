package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cirestech/usermgmt/pkg/client"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import users from a JSON array",
		Long: `Uploads a JSON array of user records. Records whose username or email
already exists, including earlier records of the same file, are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			res, err := call(cmd.Context(), a, "Importing users", func(ctx context.Context) (*client.ImportResult, error) {
				return a.client.Import(ctx, f)
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Imported %d of %d record(s)", res.SuccessfulImports, res.TotalRecords)
			if res.FailedImports > 0 {
				pterm.Warning.Printfln("%d record(s) rejected", res.FailedImports)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var search, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export users as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			_, err := call(cmd.Context(), a, "Exporting users", func(ctx context.Context) (struct{}, error) {
				return struct{}{}, a.client.ExportCSV(ctx, search, w)
			})
			if err != nil {
				return err
			}
			if output != "" {
				pterm.Success.Printfln("Export written to %s", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only export matching users")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
