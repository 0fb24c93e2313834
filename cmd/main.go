package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/ui"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "greekdeck",
		Usage:    "Grow a Greek vocabulary Anki deck from a frequency list",
		Version:  "0.4.0",
		Flags:    globalFlags(),
		Before:   runner.configure,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, ui.ErrAborted), errors.Is(err, context.Canceled):
			logger.Warn("aborted")
			os.Exit(130)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
