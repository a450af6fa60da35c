package main

import (
	"context"
	"errors"
	"fmt"

	"coursecrawler/internal/platform/postgres"

	"github.com/spf13/cobra"
)

var migratePrint bool

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the catalog schema to DATABASE_URL",
	RunE:  runMigrate,
}

func init() {
	migrateCommand.Flags().BoolVar(&migratePrint, "print", false, "Print the schema instead of applying it")
	rootCmd.AddCommand(migrateCommand)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migratePrint {
		fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
	return nil
}
