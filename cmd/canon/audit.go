package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/canon-core/internal/domain/ports"
	"github.com/ersonp/canon-core/internal/infrastructure/config"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit NAME",
		Short: "Show the audit trail for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withRelationalDB(func(db ports.RelationalDB) error {
				record, err := db.FindRecordByName(ctx, config.SanitizeWorldName(globalWorld), args[0])
				if err != nil {
					return fmt.Errorf("finding record: %w", err)
				}
				if record == nil {
					return fmt.Errorf("record %q not found", args[0])
				}

				entries, err := db.FindAuditLog(ctx, record.ID)
				if err != nil {
					return fmt.Errorf("reading audit log: %w", err)
				}

				if len(entries) == 0 {
					fmt.Println("No audit entries.")
					return nil
				}

				fmt.Printf("Audit trail for %q (%d entries):\n\n", record.Name, len(entries))
				for _, entry := range entries {
					fmt.Printf("  %s  %-20s", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action)
					if len(entry.Details) > 0 {
						fmt.Printf("  %v", entry.Details)
					}
					fmt.Println()
				}

				return nil
			})
		},
	}
}
