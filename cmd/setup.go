package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/djtools/internal/parsers"
	"github.com/desertthunder/djtools/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example app and playlist configuration files. Existing files are kept.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	playlistPath := cmd.String("playlist-config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		r.logger.Warn("skipping app config", "path", configPath, "error", err)
	} else {
		r.logger.Info("config file created", "path", configPath)
		r.writePlain("✓ Wrote %s\n", configPath)
	}

	if err := parsers.CreateConfigFile(playlistPath); err != nil {
		r.logger.Warn("skipping playlist config", "path", playlistPath, "error", err)
	} else {
		r.logger.Info("playlist config created", "path", playlistPath)
		r.writePlain("✓ Wrote %s\n", playlistPath)
	}

	r.writePlainln("Next steps:")
	r.writePlain("1. Set library.xml_path in %s to your Rekordbox XML export\n", configPath)
	r.writePlain("2. Edit %s to list your genres and selectors\n", playlistPath)
	r.writePlain("3. Run 'djtools playlists build'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one with --rollback.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	path, err := config.DatabasePath()
	if err != nil {
		return err
	}
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back latest migration", "path", path)
		return r.writePlain("✓ Rolled back latest migration in %s\n", path)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s\n", path)
}
