package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Semantic search over world events",
		Long: `Searches indexed events by meaning rather than keywords.

Examples:
  canon search "who rules Valdria"
  canon search "battles near the capital" --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultQueryLimit, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.Query.Handle(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("searching events: %w", err)
		}

		if len(result.Events) == 0 {
			fmt.Println("No matching events found.")
			return nil
		}

		fmt.Printf("Found %d events:\n\n", len(result.Events))

		for i, event := range result.Events {
			fmt.Printf("%d. %s", i+1, event.Name)
			if event.InWorldTime != "" {
				fmt.Printf(" (%s)", event.InWorldTime)
			}
			fmt.Println()

			if event.Description != "" {
				fmt.Printf("   %s\n", event.Description)
			}
			if len(event.Tags) > 0 {
				fmt.Printf("   tags: %s\n", strings.Join(event.Tags, ", "))
			}
			fmt.Printf("   id: %s\n\n", event.ID)
		}

		return nil
	})
}
