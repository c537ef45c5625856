package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/fhuszti/cleanmedia-go/internal/config"
	"github.com/fhuszti/cleanmedia-go/internal/db"
	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/migration"
)

// migrate creates the Dendrite tables cleanmedia reads in an empty database,
// for trying cleanmedia out without a homeserver.
func main() {
	var configFile string
	var allowPostgres bool

	c := &cobra.Command{
		Use:           "migrate",
		Short:         "Create a scratch Dendrite media catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, allowPostgres)
		},
	}
	c.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "location of the dendrite.yaml config file")
	c.Flags().BoolVar(&allowPostgres, "allow-postgres", false, "also run against a PostgreSQL database")

	if err := c.ExecuteContext(context.Background()); err != nil {
		logger.Errorf(context.Background(), "❌  %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, allowPostgres bool) error {
	logger.Init("")

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	driver, err := db.DriverFor(cfg.ConnectionString)
	if err != nil {
		return err
	}
	if driver != "sqlite" && !allowPostgres {
		return errors.New("refusing to touch a PostgreSQL database, Dendrite owns its schema; pass --allow-postgres for a scratch database")
	}

	database, err := db.New(db.Config{ConnectionString: cfg.ConnectionString})
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	if err := migration.MigrateUp(database.DB, database.Driver); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.MediaPath, 0o755); err != nil {
		return err
	}

	logger.Info(ctx, "✅  Migrations applied successfully")
	return nil
}
