package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContinuitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continuities",
		Short: "Manage continuities (timelines) in a world",
		RunE:  runContinuitiesList,
	}

	cmd.AddCommand(
		newContinuitiesListCmd(),
		newContinuitiesCreateCmd(),
		newContinuitiesBranchCmd(),
		newContinuitiesUpdateCmd(),
		newContinuitiesDeleteCmd(),
	)

	return cmd
}

func newContinuitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List continuities in a world",
		RunE:  runContinuitiesList,
	}
}

func runContinuitiesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		continuities, err := d.Continuities.HandleList(ctx, d.WorldID)
		if err != nil {
			return fmt.Errorf("listing continuities: %w", err)
		}

		if len(continuities) == 0 {
			fmt.Println("No continuities found.")
			return nil
		}

		fmt.Printf("%-38s %-25s %s\n", "ID", "NAME", "BRANCHED FROM")
		fmt.Printf("%-38s %-25s %s\n", "--", "----", "-------------")

		for _, c := range continuities {
			branched := "-"
			if c.IsBranch() {
				branched = c.BranchedFromID
			}
			fmt.Printf("%-38s %-25s %s\n", c.ID, c.Name, branched)
		}

		return nil
	})
}

func newContinuitiesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new continuity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				continuity, err := d.Continuities.HandleCreate(ctx, d.WorldID, args[0], description)
				if err != nil {
					return fmt.Errorf("creating continuity: %w", err)
				}

				fmt.Printf("Created continuity %q (%s)\n", continuity.Name, continuity.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Continuity description")

	return cmd
}

func newContinuitiesBranchCmd() *cobra.Command {
	var from string
	var atEvent string
	var description string

	cmd := &cobra.Command{
		Use:   "branch NAME",
		Short: "Branch a new continuity off an existing one at an event",
		Long: `Creates a continuity that diverges from an existing one at a
specific event. The event must belong to the source continuity.

Examples:
  canon continuities branch "What if Aldric died" --from "Default Timeline" --at EVENT_ID`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				source, err := findContinuity(ctx, d, from)
				if err != nil {
					return err
				}

				branch, err := d.Continuities.HandleBranch(ctx, source.ID, atEvent, args[0], description)
				if err != nil {
					return fmt.Errorf("branching continuity: %w", err)
				}

				fmt.Printf("Branched continuity %q (%s) from %q at event %s\n",
					branch.Name, branch.ID, source.Name, atEvent)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source continuity (name or ID)")
	cmd.Flags().StringVar(&atEvent, "at", "", "Branch point event ID")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Continuity description")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func newContinuitiesUpdateCmd() *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "update CONTINUITY",
		Short: "Update a continuity's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				continuity, err := findContinuity(ctx, d, args[0])
				if err != nil {
					return err
				}

				updated, err := d.Continuities.HandleUpdate(ctx, continuity.ID, name, description)
				if err != nil {
					return fmt.Errorf("updating continuity: %w", err)
				}

				fmt.Printf("Updated continuity %q (%s)\n", updated.Name, updated.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New continuity name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New continuity description")

	return cmd
}

func newContinuitiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CONTINUITY",
		Short: "Delete a continuity and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				continuity, err := findContinuity(ctx, d, args[0])
				if err != nil {
					return err
				}

				if err := d.Continuities.HandleDelete(ctx, continuity.ID); err != nil {
					return fmt.Errorf("deleting continuity: %w", err)
				}

				fmt.Printf("Deleted continuity %q\n", continuity.Name)
				return nil
			})
		},
	}
}
