package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/services"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// Setup writes a config file when missing and creates both databases with their migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s\n", r.configPath)
	}

	for _, target := range []struct {
		path   string
		schema shared.Schema
	}{
		{r.config.Database.LedgerPath, shared.LedgerSchema},
		{r.config.Database.CachePath, shared.CacheSchema},
	} {
		r.logger.Info("initializing database", "path", target.path, "schema", target.schema)
		db, err := shared.NewDatabase(target.path)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		err = r.migrate(db, target.schema)
		db.Close()
		if err != nil {
			return err
		}
		r.writePlain("✓ %s database ready: %s\n", target.schema, target.path)
	}

	if _, source, err := services.ResolveAPIKey(r.keys, r.config.Generator.APIKey); err != nil {
		r.writePlainln("No Anthropic API key found. Run 'greekdeck set-key' or set ANTHROPIC_API_KEY.")
	} else {
		r.writePlain("✓ API key found (%s)\n", source)
	}

	r.writePlainln("Next steps:")
	r.writePlain("1. greekdeck import-freq <frequency.csv>\n")
	r.writePlain("2. greekdeck sync %s\n", r.config.Deck.APKG)
	r.writePlain("3. greekdeck add-batch %s -n 10\n", r.config.Deck.APKG)
	return nil
}
