package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the workshop schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	workshop, err := openWorkshop(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer workshop.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "workshop schema is up to date (%s)\n", workshop.Config.StoreDriver)
	return nil
}
