package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/database/seeders"
	"github.com/adegaexpress/adega/pkg/database"
	"github.com/adegaexpress/adega/pkg/migration"
)

// bootDB loads config and opens the configured database.
func bootDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}

// withDB runs fn against the database and closes it afterwards.
func withDB(fn func(db *gorm.DB) error) error {
	db, err := bootDB()
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			n, err := migration.New(db, cmd.OutOrStdout()).Run()
			if err == nil && n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %d migration(s) applied\n", n)
			}
			return err
		})
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			_, err := migration.New(db, cmd.OutOrStdout()).Rollback()
			return err
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show which migrations have run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			rows, err := migration.New(db, nil).Status()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
			for _, r := range rows {
				ran, batch := "no", "-"
				if r.Ran {
					ran, batch = "yes", fmt.Sprint(r.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, r.Name)
			}
			return w.Flush()
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed categories, products, couriers and the admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
			return seeders.RunAll(cmd.Context(), db, cmd.OutOrStdout())
		})
	},
}
