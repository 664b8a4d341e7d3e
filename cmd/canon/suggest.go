package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

func newSuggestCmd() *cobra.Command {
	var filePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "suggest [TEXT]",
		Short: "Suggest event outcomes from session notes",
		Long: `Runs session notes through the LLM and proposes outcomes for
review. Nothing is saved; pipe the JSON into 'canon events create
--outcomes' once you have checked the entity IDs.

Examples:
  canon suggest "Aldric was crowned king of Valdria."
  canon suggest --file session-12.md --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 0 {
				text = args[0]
			}
			return runSuggest(cmd, text, filePath, asJSON)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read session notes from a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print outcomes as a JSON array")

	return cmd
}

func runSuggest(cmd *cobra.Command, text, filePath string, asJSON bool) error {
	ctx := cmd.Context()

	if text == "" && filePath == "" {
		return fmt.Errorf("provide session notes as an argument or with --file")
	}
	if text != "" && filePath != "" {
		return fmt.Errorf("provide either an argument or --file, not both")
	}

	return withDeps(func(d *Deps) error {
		var outcomes []entities.EventOutcome
		var err error

		if filePath != "" {
			outcomes, err = d.Suggest.HandleFile(ctx, filePath)
		} else {
			outcomes, err = d.Suggest.HandleText(ctx, text)
		}
		if err != nil {
			return fmt.Errorf("suggesting outcomes: %w", err)
		}

		if len(outcomes) == 0 {
			fmt.Println("No state changes found in the notes.")
			return nil
		}

		if asJSON {
			data, err := json.MarshalIndent(outcomes, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling outcomes: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Suggested outcomes (%d):\n\n", len(outcomes))
		for _, o := range outcomes {
			fmt.Printf("  %s.%s", o.EntityID, o.Field)
			if o.FromValue != "" {
				fmt.Printf(": %q -> %q", o.FromValue, o.ToValue)
			} else {
				fmt.Printf(" -> %q", o.ToValue)
			}
			fmt.Println()
			if o.Description != "" {
				fmt.Printf("    %s\n", o.Description)
			}
		}

		fmt.Println("\nEntity IDs are names from the notes; map them to record IDs before saving.")

		return nil
	})
}
