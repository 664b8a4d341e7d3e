package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage canonical records in a world",
	}

	cmd.AddCommand(
		newRecordsCreateCmd(),
		newRecordsSetCmd(),
		newRecordsShowCmd(),
		newRecordsListCmd(),
		newRecordsDeleteCmd(),
	)

	return cmd
}

func newRecordsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create KIND NAME",
		Short: "Create a new record",
		Long: `Creates a record of the given kind. Valid kinds are
character, location, faction, session and note.

Examples:
  canon records create character "Aldric"
  canon records create location "Highspire"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				record, err := d.Records.HandleCreate(ctx, d.WorldID, entities.RecordKind(args[0]), args[1])
				if err != nil {
					return fmt.Errorf("creating record: %w", err)
				}

				fmt.Printf("Created %s %q (%s)\n", record.Kind, record.Name, record.ID)
				return nil
			})
		},
	}
}

func newRecordsSetCmd() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Set fields on a record",
		Long: `Sets one or more fields on a record, then checks the record
against event-derived state in every continuity and reports drift.

Examples:
  canon records set "Aldric" --field status="King of Valdria"
  canon records set "Highspire" --field condition=ruined --field ruler=`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsSet(cmd, args[0], fields)
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field to set, as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func runRecordsSet(cmd *cobra.Command, name string, fields []string) error {
	ctx := cmd.Context()

	changes, err := parseFieldChanges(fields)
	if err != nil {
		return err
	}

	return withDeps(func(d *Deps) error {
		record, err := d.Records.HandleGetByName(ctx, d.WorldID, name)
		if err != nil {
			return fmt.Errorf("finding record: %w", err)
		}
		if record == nil {
			return fmt.Errorf("record %q not found", name)
		}

		result, err := d.Records.HandleSet(ctx, record.ID, changes)
		if err != nil {
			return fmt.Errorf("setting fields: %w", err)
		}

		fmt.Printf("Updated %s %q\n", result.Record.Kind, result.Record.Name)

		if result.DriftsDetected > 0 {
			fmt.Printf("Drift: %d new mismatch(es) against event-derived state. Run 'canon drifts list --record %q'.\n",
				result.DriftsDetected, result.Record.Name)
		}
		if result.DriftsResolved > 0 {
			fmt.Printf("Resolved %d previously open drift(s).\n", result.DriftsResolved)
		}
		if result.DriftsDetected == 0 && result.DriftsResolved == 0 {
			fmt.Println("No drift against event-derived state.")
		}

		return nil
	})
}

func newRecordsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a record and its open drifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				record, err := d.Records.HandleGetByName(ctx, d.WorldID, args[0])
				if err != nil {
					return fmt.Errorf("finding record: %w", err)
				}
				if record == nil {
					return fmt.Errorf("record %q not found", args[0])
				}

				result, err := d.Records.HandleShow(ctx, record.ID)
				if err != nil {
					return fmt.Errorf("showing record: %w", err)
				}

				printRecord(result.Record)

				if len(result.Drifts) > 0 {
					fmt.Printf("\nOpen drifts (%d):\n", len(result.Drifts))
					for _, drift := range result.Drifts {
						fmt.Printf("  [%s] %s: record says %q, events say %q (continuity %s)\n",
							drift.ID[:8], drift.Field, drift.CurrentValue, drift.EventDerivedValue, drift.ContinuityID)
					}
				}

				return nil
			})
		},
	}
}

func newRecordsListCmd() *cobra.Command {
	var kind string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records in a world",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				result, err := d.Records.HandleList(ctx, d.WorldID, entities.RecordKind(kind), limit, offset)
				if err != nil {
					return fmt.Errorf("listing records: %w", err)
				}

				if len(result.Records) == 0 {
					fmt.Println("No records found.")
					return nil
				}

				fmt.Printf("Records (%d total):\n\n", result.Total)
				fmt.Printf("%-12s %-25s %s\n", "KIND", "NAME", "ID")
				fmt.Printf("%-12s %-25s %s\n", "----", "----", "--")

				for _, record := range result.Records {
					fmt.Printf("%-12s %-25s %s\n", record.Kind, record.Name, record.ID)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Filter by record kind")
	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum number of records to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of records to skip")

	return cmd
}

func newRecordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a record and its drifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				record, err := d.Records.HandleGetByName(ctx, d.WorldID, args[0])
				if err != nil {
					return fmt.Errorf("finding record: %w", err)
				}
				if record == nil {
					return fmt.Errorf("record %q not found", args[0])
				}

				if err := d.Records.HandleDelete(ctx, record.ID); err != nil {
					return fmt.Errorf("deleting record: %w", err)
				}

				fmt.Printf("Deleted %s %q\n", record.Kind, record.Name)
				return nil
			})
		},
	}
}

// parseFieldChanges converts key=value flag values into field changes.
// An empty value clears the field.
func parseFieldChanges(fields []string) ([]entities.FieldChange, error) {
	changes := make([]entities.FieldChange, 0, len(fields))

	for _, field := range fields {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value)", field)
		}
		changes = append(changes, entities.FieldChange{Field: key, NewValue: value})
	}

	return changes, nil
}

func printRecord(record *entities.Record) {
	fmt.Printf("%s %q (%s)\n", record.Kind, record.Name, record.ID)

	if len(record.Fields) == 0 {
		fmt.Println("  (no fields set)")
		return
	}

	keys := make([]string, 0, len(record.Fields))
	for key := range record.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("  %-20s %s\n", key+":", record.Fields[key])
	}
}
