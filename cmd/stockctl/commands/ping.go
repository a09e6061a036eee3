package commands

import (
	"fmt"

	"stockapi/internal/database"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		var name, version string
		err = pool.QueryRow(ctx, "SELECT current_database(), current_setting('server_version')").Scan(&name, &version)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Connected to database %s (PostgreSQL %s)\n", name, version)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		return database.EnsureSchema(ctx, pool, logger)
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(migrateCmd)
}
