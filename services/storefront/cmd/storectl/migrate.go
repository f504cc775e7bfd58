package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := repository.Migrate(gdb); err != nil {
			return err
		}
		color.Green("✓ schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
