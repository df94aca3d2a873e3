package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trunkline/trunkline/internal/config"
	"github.com/trunkline/trunkline/internal/db"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		tenantID   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Trunkline database",
		Long:  "Creates the MySQL database, migrates all tables and optionally seeds a tenant.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, tenantID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant to seed with default assignment settings")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath, tenantID string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adminDB, err := db.ConnectAdmin(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.Database.Host, cfg.Database.Port)

	if err := db.CreateDatabase(adminDB, cfg.Database.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Database)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Database, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if tenantID != "" {
		if err := db.SeedTenant(gormDB, tenantID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded default assignment settings for tenant %s\n", tenantID)
	}
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	return cmd
}

// connectFromConfig loads the config file and opens the application database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Database.Database, err)
	}
	return cfg, gormDB, nil
}
