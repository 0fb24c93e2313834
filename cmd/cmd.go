// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are accepted before any command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Frequency ledger database (overrides database.ledger_path)",
		},
		&cli.StringFlag{
			Name:  "cache",
			Usage: "Card cache database (overrides database.cache_path)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

func rangeFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "range", Usage: usage + " (START-END)"}
}

func noReviewFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "no-review", Usage: "Accept generated cards without review"}
}

func delayFlag() *cli.FloatFlag {
	return &cli.FloatFlag{Name: "delay", Usage: "Seconds between API calls (default: generator.delay_seconds)"}
}

func yesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the cost confirmation"}
}

func apkgFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "apkg", Usage: "Deck package to check (default: deck.apkg)"}
}

func outputFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: usage}
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "json", Usage: "Output JSON"}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the ledger and cache databases",
		Action: r.Setup,
	}
}

func setKeyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "set-key",
		Usage: "Store the Anthropic API key in the system keyring",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the Anthropic console keys page first",
			},
		},
		Action: r.SetKey,
	}
}

func clearKeyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "clear-key",
		Usage:  "Remove the stored Anthropic API key",
		Action: r.ClearKey,
	}
}

// importFreqCommand loads a frequency list into the ledger
func importFreqCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import-freq",
		Usage:     "Import a frequency list CSV (lemma,frequency) into the ledger",
		ArgsUsage: "CSV",
		Flags: []cli.Flag{
			outputFlag("Ledger database to create (default: database.ledger_path)"),
			&cli.BoolFlag{
				Name:  "no-auto-skip",
				Usage: "Keep function words pending",
			},
		},
		Action: r.ImportFreq,
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Mark ledger words already present in a deck package",
		ArgsUsage: "APKG",
		Action:    r.Sync,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show ledger progress per rank range",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Status,
	}
}

func pendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pending",
		Usage: "List pending words in rank order",
		Flags: []cli.Flag{
			rangeFlag("Rank range"),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of words",
				Value:   50,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (table, csv)",
				Value: "table",
			},
		},
		Action: r.Pending,
	}
}

func skipCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "skip",
		Usage:     "Mark words as skipped",
		ArgsUsage: "WORDS...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "reason",
				Aliases: []string{"r"},
				Usage:   "Reason stored with the words",
			},
		},
		Action: r.Skip,
	}
}

// addCommand generates cards for named words
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Generate, review and package cards for words",
		ArgsUsage: "WORDS...",
		Flags: []cli.Flag{
			apkgFlag(),
			noReviewFlag(),
			delayFlag(),
			outputFlag("Package path (default: timestamped name in deck.output_dir)"),
		},
		Action: r.Add,
	}
}

func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Generate a card for a word and print it without saving",
		ArgsUsage: "WORD",
		Action:    r.Preview,
	}
}

func addBatchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add-batch",
		Usage:     "Generate cards for a random sample of pending words",
		ArgsUsage: "APKG",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "count",
				Aliases:  []string{"n"},
				Usage:    "Number of words",
				Required: true,
			},
			rangeFlag("Sample ranks from this range"),
			delayFlag(),
			noReviewFlag(),
			yesFlag(),
			outputFlag("Package path (default: timestamped name in deck.output_dir)"),
		},
		Action: r.AddBatch,
	}
}

func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "enrich",
		Usage:     "Fill empty example, comment, collocation and etymology fields of deck notes",
		ArgsUsage: "APKG",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum notes to enrich (0: all)",
			},
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Regenerate all four fields of notes without example and comment",
			},
			delayFlag(),
			noReviewFlag(),
			outputFlag("Package path (default: timestamped name in deck.output_dir)"),
		},
		Action: r.Enrich,
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "Regenerate deck notes for words, keeping their identity",
		ArgsUsage: "WORDS...",
		Flags: []cli.Flag{
			apkgFlag(),
			noReviewFlag(),
			outputFlag("Package path (default: timestamped name in deck.output_dir)"),
		},
		Action: r.Refresh,
	}
}

// buildDeckCommand packages cached cards into a shareable deck
func buildDeckCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "build-deck",
		Usage: "Build a standalone deck from cached cards for a rank range",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "range",
				Usage:    "Rank range (START-END)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "deck-name",
				Usage: "Deck name (default: Greek Top N or Greek S-E)",
			},
			outputFlag("Package path (default: Greek_top_N.apkg or Greek_S_E.apkg)"),
			&cli.BoolFlag{
				Name:  "generate-missing",
				Usage: "Generate cards missing from the cache",
			},
			delayFlag(),
			yesFlag(),
		},
		Action: r.BuildDeck,
	}
}

func cacheStatusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "cache-status",
		Usage:  "Show cached cards per model and cache coverage of the ledger",
		Flags:  []cli.Flag{rangeFlag("Rank range"), jsonFlag()},
		Action: r.CacheStatus,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export deck notes as CSV, Markdown or text",
		ArgsUsage: "APKG",
		Flags: []cli.Flag{
			outputFlag("Output file (default: cards.<ext>)"),
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format (csv, markdown, txt)",
				Value: "csv",
			},
		},
		Action: r.Export,
	}
}

func tagCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add tags to every note of a deck package",
		ArgsUsage: "APKG TAGS...",
		Flags: []cli.Flag{
			outputFlag("Package path (default: <name>_tagged.apkg)"),
			&cli.StringFlag{
				Name:  "deck-name",
				Usage: "Deck name for the written package (default: deck.deck_name)",
			},
		},
		Action: r.Tag,
	}
}
