package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/api/auth"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/spf13/cobra"
)

var adminCmdFlags struct {
	Email    string
	Password string
	Name     string
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create or promote an admin account",
	Long: `Create an admin account with a local password, or promote an existing account.
Flags override the admin section of the config file.`,
	Example: `indiflix admin --email admin@example.com --password secret --name Admin`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		adminCfg := config.AdminConfig{}
		if cfg.Auth != nil && cfg.Auth.Admin != nil {
			adminCfg = *cfg.Auth.Admin
		}
		if adminCmdFlags.Email != "" {
			adminCfg.Email = adminCmdFlags.Email
		}
		if adminCmdFlags.Password != "" {
			adminCfg.Password = adminCmdFlags.Password
		}
		if adminCmdFlags.Name != "" {
			adminCfg.Name = adminCmdFlags.Name
		}
		if adminCfg.Email == "" {
			return fmt.Errorf("an admin email is required")
		}

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		user, err := auth.EnsureAdmin(cmd.Context(), db, &adminCfg, true)
		if err != nil {
			return fmt.Errorf("failed to ensure admin: %w", err)
		}
		log.Info("admin account ready", "id", user.ID, "email", user.Email)
		return nil
	},
}

func init() {
	adminCmd.Flags().StringVar(&adminCmdFlags.Email, "email", "", "Email of the admin account")
	adminCmd.Flags().StringVar(&adminCmdFlags.Password, "password", "", "Password for a newly created account")
	adminCmd.Flags().StringVar(&adminCmdFlags.Name, "name", "", "Display name for a newly created account")
	rootCmd.AddCommand(adminCmd)
}
