package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import events from JSON or CSV",
		Long: `Imports events from a structured file. Continuities are referred
to by name; events without one go to the default timeline. Generates
embeddings automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, d.WorldID, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  line %d: %s\n", e.Line, e.Message)
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d events would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d events", result.Imported)
		}

		if result.Skipped > 0 {
			fmt.Printf(", %d skipped", result.Skipped)
		}

		fmt.Println()

		return nil
	})
}
