package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/services"
)

type eventCreateFlags struct {
	continuity  string
	campaign    string
	description string
	secrets     string
	tags        []string
	inWorldTime string
	outcomes    string
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage world events",
	}

	cmd.AddCommand(
		newEventsCreateCmd(),
		newEventsListCmd(),
		newEventsShowCmd(),
		newEventsSetOutcomesCmd(),
		newEventsDeleteCmd(),
	)

	return cmd
}

func newEventsCreateCmd() *cobra.Command {
	var flags eventCreateFlags

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new event",
		Long: `Creates an event in a continuity and indexes it for semantic
search. Outcomes are given as a JSON array of state changes.

Examples:
  canon events create "Coronation of Aldric" --time "3E-412-01-14" \
    --outcomes '[{"entityID":"REC_ID","field":"status","toValue":"King of Valdria"}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsCreate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.continuity, "continuity", "c", entities.DefaultContinuityName, "Continuity (name or ID)")
	cmd.Flags().StringVar(&flags.campaign, "campaign", "", "Campaign ID")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Event description")
	cmd.Flags().StringVar(&flags.secrets, "secrets", "", "GM-only notes")
	cmd.Flags().StringSliceVar(&flags.tags, "tags", nil, "Comma-separated tags")
	cmd.Flags().StringVarP(&flags.inWorldTime, "time", "t", "", "In-world timestamp (sortable string)")
	cmd.Flags().StringVar(&flags.outcomes, "outcomes", "", "Outcomes as a JSON array")

	return cmd
}

func runEventsCreate(cmd *cobra.Command, name string, flags eventCreateFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		continuity, err := findContinuity(ctx, d, flags.continuity)
		if err != nil {
			return err
		}

		event, err := d.Events.HandleCreate(ctx, services.CreateEventInput{
			WorldID:      d.WorldID,
			ContinuityID: continuity.ID,
			CampaignID:   flags.campaign,
			Name:         name,
			Description:  flags.description,
			Secrets:      flags.secrets,
			Tags:         flags.tags,
			InWorldTime:  flags.inWorldTime,
			Outcomes:     entities.ParseOutcomes(flags.outcomes),
		})
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}

		fmt.Printf("Created event %q (%s) in continuity %q\n", event.Name, event.ID, continuity.Name)
		return nil
	})
}

func newEventsListCmd() *cobra.Command {
	var continuity string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events in a world or continuity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				continuityID := ""
				if continuity != "" {
					resolved, err := findContinuity(ctx, d, continuity)
					if err != nil {
						return err
					}
					continuityID = resolved.ID
				}

				events, err := d.Events.HandleList(ctx, d.WorldID, continuityID, limit)
				if err != nil {
					return fmt.Errorf("listing events: %w", err)
				}

				if len(events) == 0 {
					fmt.Println("No events found.")
					return nil
				}

				fmt.Printf("Events (%d):\n\n", len(events))
				for _, event := range events {
					printEventLine(event)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&continuity, "continuity", "c", "", "Filter by continuity (name or ID)")
	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum number of events to return")

	return cmd
}

func newEventsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show EVENT_ID",
		Short: "Show an event with its outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				event, err := d.Events.HandleGet(ctx, args[0])
				if err != nil {
					return fmt.Errorf("getting event: %w", err)
				}
				if event == nil {
					return fmt.Errorf("event %q not found", args[0])
				}

				fmt.Printf("%s (%s)\n", event.Name, event.ID)
				if event.InWorldTime != "" {
					fmt.Printf("  time:        %s\n", event.InWorldTime)
				}
				fmt.Printf("  continuity:  %s\n", event.ContinuityID)
				if event.Description != "" {
					fmt.Printf("  description: %s\n", event.Description)
				}
				if len(event.Tags) > 0 {
					fmt.Printf("  tags:        %s\n", strings.Join(event.Tags, ", "))
				}

				outcomes := entities.ParseOutcomes(event.Outcomes)
				if len(outcomes) > 0 {
					fmt.Printf("\nOutcomes (%d):\n", len(outcomes))
					for _, o := range outcomes {
						fmt.Printf("  %s.%s -> %q\n", o.EntityID, o.Field, o.ToValue)
					}
				}

				return nil
			})
		},
	}
}

func newEventsSetOutcomesCmd() *cobra.Command {
	var outcomes string

	cmd := &cobra.Command{
		Use:   "set-outcomes EVENT_ID",
		Short: "Replace an event's outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				event, err := d.Events.HandleSetOutcomes(ctx, args[0], entities.ParseOutcomes(outcomes))
				if err != nil {
					return fmt.Errorf("setting outcomes: %w", err)
				}

				parsed := entities.ParseOutcomes(event.Outcomes)
				fmt.Printf("Updated event %q with %d outcome(s)\n", event.Name, len(parsed))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outcomes, "outcomes", "", "Outcomes as a JSON array")
	_ = cmd.MarkFlagRequired("outcomes")

	return cmd
}

func newEventsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete EVENT_ID",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				if err := d.Events.HandleDelete(ctx, args[0]); err != nil {
					return fmt.Errorf("deleting event: %w", err)
				}

				fmt.Printf("Deleted event %s\n", args[0])
				return nil
			})
		},
	}
}

func printEventLine(event entities.Event) {
	when := event.InWorldTime
	if when == "" {
		when = "-"
	}
	fmt.Printf("  %-38s %-20s %s\n", event.ID, when, event.Name)
}
