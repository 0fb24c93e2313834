package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/tasks"
	"github.com/desertthunder/greekdeck/internal/ui"
)

// reviewerFor returns the reviewer for a command: auto-accept with --no-review, else the terminal prompt.
func (r *Runner) reviewerFor(cmd *cli.Command) tasks.Reviewer {
	if r.reviewer != nil {
		return r.reviewer
	}
	if cmd.Bool("no-review") {
		return tasks.AutoAccept{}
	}
	r.useLogFile()
	return ui.NewReviewPrompt(r.input, r.output)
}

// useLogFile redirects logs to the configured file so that log lines do not draw over the review prompt.
func (r *Runner) useLogFile() {
	path := r.config.Log.File
	if path == "" {
		return
	}
	fileLogger, _, err := shared.NewFileLogger(path)
	if err != nil {
		r.logger.Warn("failed to open log file", "path", path, "error", err)
		return
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)
}

func (r *Runner) confirmPrompt(ctx context.Context, question string) (bool, error) {
	return ui.Confirm(ctx, r.input, r.output, question)
}

func (r *Runner) secretPrompt(ctx context.Context, label string) (string, error) {
	return ui.PromptSecret(ctx, r.input, r.output, label)
}

// confirmCost asks before spending API calls unless --yes is set.
func (r *Runner) confirmCost(ctx context.Context, cmd *cli.Command, calls int, cost float64) (bool, error) {
	if calls == 0 || cmd.Bool("yes") {
		return true, nil
	}
	return r.confirm(ctx, fmt.Sprintf("Generate %d card(s) for about $%.2f?", calls, cost))
}
