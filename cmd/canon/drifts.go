package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

func newDriftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drifts",
		Short: "Inspect and resolve drift between records and events",
		RunE:  runDriftsList("", ""),
	}

	cmd.AddCommand(
		newDriftsListCmd(),
		newDriftsResolveCmd(),
	)

	return cmd
}

func newDriftsListCmd() *cobra.Command {
	var record string
	var continuity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open drifts in a world",
		Long: `Lists open drift rows, where a record's current field value
disagrees with the value derived from events.

Examples:
  canon drifts list
  canon drifts list --record "Aldric"
  canon drifts list --continuity "Default Timeline"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriftsList(record, continuity)(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&record, "record", "r", "", "Filter by record name")
	cmd.Flags().StringVarP(&continuity, "continuity", "c", "", "Filter by continuity (name or ID)")

	return cmd
}

func runDriftsList(record, continuity string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		return withDeps(func(d *Deps) error {
			var filter ports.DriftFilter

			if record != "" {
				rec, err := d.Records.HandleGetByName(ctx, d.WorldID, record)
				if err != nil {
					return fmt.Errorf("finding record: %w", err)
				}
				if rec == nil {
					return fmt.Errorf("record %q not found", record)
				}
				filter.EntityID = rec.ID
			}

			if continuity != "" {
				cont, err := findContinuity(ctx, d, continuity)
				if err != nil {
					return err
				}
				filter.ContinuityID = cont.ID
			}

			drifts, err := d.Drifts.HandleList(ctx, filter)
			if err != nil {
				return fmt.Errorf("listing drifts: %w", err)
			}

			if len(drifts) == 0 {
				fmt.Println("No open drifts.")
				return nil
			}

			fmt.Printf("Open drifts (%d):\n\n", len(drifts))
			for _, drift := range drifts {
				printDrift(drift)
			}

			return nil
		})
	}
}

func newDriftsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve DRIFT_ID",
		Short: "Manually resolve a drift",
		Long: `Marks a drift as resolved without changing the record. Use this
when the divergence is intentional. The drift reopens if a later edit
still mismatches the event-derived value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				if err := d.Drifts.HandleResolve(ctx, args[0]); err != nil {
					return fmt.Errorf("resolving drift: %w", err)
				}

				fmt.Printf("Resolved drift %s\n", args[0])
				return nil
			})
		},
	}
}

func printDrift(drift entities.Drift) {
	fmt.Printf("  [%s] field %q: record says %q, events say %q\n",
		drift.ID, drift.Field, drift.CurrentValue, drift.EventDerivedValue)
	fmt.Printf("       record %s, continuity %s, detected %s\n",
		drift.EntityID, drift.ContinuityID, drift.DetectedAt.Format("2006-01-02 15:04"))
}
