package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/pkg/logx"
)

var (
	dbDriver string
	dbDSN    string
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Operator tasks for the curtain store",
	Long: `storectl migrates the database, seeds the catalog from a YAML file
and creates admin accounts.

The database is taken from --driver/--dsn or DB_DRIVER/DB_DSN (a .env file is read).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func init() {
	_ = godotenv.Load()
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", envOr("DB_DRIVER", "postgres"), "database driver (postgres|sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "dsn", envOr("DB_DSN", ""), "database DSN")
}

func openDB() (*gorm.DB, zerolog.Logger, error) {
	log := logx.New("storectl", envOr("APP_ENV", "dev")).Level(zerolog.WarnLevel)
	gdb, err := db.Open(dbDriver, dbDSN, log)
	return gdb, log, err
}
