package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

var adminIn service.RegisterInput

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminIn.Email == "" || adminIn.Password == "" {
			return errors.New("--email and --password are required")
		}
		gdb, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := repository.Migrate(gdb); err != nil {
			return err
		}
		u, created, err := service.NewUserAdminService(repository.NewUserRepo(gdb)).CreateAdmin(cmd.Context(), adminIn)
		if err != nil {
			return err
		}
		if created {
			color.Green("✓ created admin %s (id %d)", u.Email, u.ID)
		} else {
			color.Yellow("• %s already existed and is now an admin", u.Email)
		}
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminIn.Email, "email", "", "admin email")
	f.StringVar(&adminIn.Password, "password", "", "admin password (min 8 characters)")
	f.StringVar(&adminIn.Name, "name", "Admin", "first name")
	f.StringVar(&adminIn.Surname, "surname", "", "surname")
	rootCmd.AddCommand(createAdminCmd)
}
