package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/db"
	"github.com/mind-engage/edukid/internal/learning"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [catalog.yaml]",
	Short: "Load a YAML catalog of topics, users and questions",
	Long:  "Load a YAML catalog into the database. Without an argument the SEED_FILE env var or the built-in catalog is used. Does nothing when the catalog's sentinel user already exists.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer log.Sync()

		path := cfg.SeedFile
		if len(args) == 1 {
			path = args[0]
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()

		res, err := applySeed(ctx, path, account.NewSQLStore(dbh), learning.NewSQLStore(dbh), log)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog already applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d topics, %d users, %d questions\n", res.Topics, res.Users, res.Questions)
		return nil
	},
}

// applySeed loads path, or the embedded catalog when path is empty.
func applySeed(ctx context.Context, path string, users account.Store, catalog seed.CatalogWriter, log *logger.Logger) (seed.Result, error) {
	c := seed.Default()
	if path != "" {
		var err error
		if c, err = seed.Load(path); err != nil {
			return seed.Result{}, fmt.Errorf("seed catalog %s: %w", path, err)
		}
	}
	res, err := seed.Apply(ctx, c, users, catalog, log)
	if err != nil {
		return seed.Result{}, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}
