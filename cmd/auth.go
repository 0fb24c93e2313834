package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/services"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// SetKey prompts for an Anthropic API key and stores it in the system keyring.
func (r *Runner) SetKey(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("open") {
		r.writePlain("Opening %s\n", services.ConsoleKeysURL)
		if err := r.openBrowser(services.ConsoleKeysURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	key, err := r.readSecret(ctx, "Anthropic API key")
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: no key entered", shared.ErrMissingArgument)
	}

	if err := r.keys.Set(key); err != nil {
		return err
	}
	r.logger.Info("api key stored", "service", services.KeyringService)
	r.writePlain("✓ API key saved to the system keyring\n")
	return nil
}

// ClearKey removes the stored API key.
func (r *Runner) ClearKey(ctx context.Context, cmd *cli.Command) error {
	if err := r.keys.Delete(); err != nil {
		return err
	}
	r.writePlain("✓ API key removed from the system keyring\n")
	return nil
}
