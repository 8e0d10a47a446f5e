package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the item database up to the current schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(current.cfg.DBPath())
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx := cmd.Context()
		from, err := db.Version(ctx, conn)
		if err != nil {
			return err
		}
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
		to, err := db.Version(ctx, conn)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if from == to {
			fmt.Fprintf(out, "%s is at schema version %d, nothing to do\n", current.cfg.DBPath(), to)
			return nil
		}
		fmt.Fprintf(out, "%s migrated from schema version %d to %d\n", current.cfg.DBPath(), from, to)
		return nil
	},
}
