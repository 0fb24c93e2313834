package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/repositories"
	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/tasks"
	"github.com/desertthunder/greekdeck/internal/ui"
)

// ImportFreq reads a frequency CSV and appends its words to the ledger, creating the ledger if needed.
func (r *Runner) ImportFreq(ctx context.Context, cmd *cli.Command) error {
	csvPath := cmd.Args().First()
	if csvPath == "" {
		return fmt.Errorf("%w: CSV path", shared.ErrMissingArgument)
	}
	dbPath := cmd.String("output")
	if dbPath == "" {
		dbPath = r.config.Database.LedgerPath
	}
	autoSkip := r.config.Import.AutoSkipFunctionWords && !cmd.Bool("no-auto-skip")

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open frequency list: %w", err)
	}
	defer f.Close()

	rows, err := formatter.ReadFrequencyCSV(f)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := r.migrate(db, shared.LedgerSchema); err != nil {
		return err
	}

	r.logger.Info("importing frequency list", "csv", csvPath, "db", dbPath, "rows", len(rows), "auto_skip", autoSkip)
	stats, err := repositories.NewLedgerRepository(db, nil, nil).ImportList(ctx, rows, autoSkip)
	if err != nil {
		return err
	}

	r.writePlainHeader("Import Complete")
	r.writePlain("Ledger: %s\n", dbPath)
	r.writePlain("Rows read: %d\n", stats.TotalRows)
	r.writePlain("Imported: %d\n", stats.Imported)
	r.writePlain("Function words skipped: %d\n", stats.FunctionWordsSkipped)
	r.writePlain("Duplicates skipped: %d\n", stats.DuplicatesSkipped)
	r.writePlain("Empty or invalid rows: %d\n", stats.EmptySkipped)
	return nil
}

// Sync marks pending words found in the deck package as in the deck.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	apkg := cmd.Args().First()
	if apkg == "" {
		apkg = r.config.Deck.APKG
	}

	notes, err := anki.ReadNotes(ctx, apkg)
	if err != nil {
		return err
	}

	db, ledger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := r.newEngine(cmd, engineOpts{ledger: ledger})
	if err != nil {
		return err
	}

	progressCh, wait := r.watchProgress()
	result, err := engine.Sync(ctx, progressCh, notes)
	wait()
	if err != nil {
		return err
	}

	r.writePlainHeader("Sync Complete")
	r.writePlain("Deck notes: %d\n", result.Notes)
	r.writePlain("Pending words checked: %d\n", result.Pending)
	r.writePlain("Marked in deck: %d\n", result.Marked)
	return nil
}

// Status prints ledger counts per rank bucket.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	db, ledger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := ledger.StatusSummary(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}
	return r.writePlain("%s\n", ui.StatusTable(summary))
}

// Pending lists pending words as a table or CSV.
func (r *Runner) Pending(ctx context.Context, cmd *cli.Command) error {
	start, end, err := parseRange(cmd.String("range"))
	if err != nil {
		return err
	}
	format := cmd.String("format")
	if format != "table" && format != "csv" {
		return fmt.Errorf("%w: format %q, expected table or csv", shared.ErrInvalidFlag, format)
	}

	db, ledger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := ledger.GetPending(ctx, models.PendingQuery{Start: start, End: end, Limit: int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	if format == "csv" {
		data, err := formatter.PendingCSV(entries)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}
	if len(entries) == 0 {
		return r.writePlain("No pending words.\n")
	}
	return r.writePlain("%s\n", ui.PendingTable(entries))
}

// Skip marks words as skipped with an optional reason.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	words := cmd.Args().Slice()
	if len(words) == 0 {
		return fmt.Errorf("%w: words to skip", shared.ErrMissingArgument)
	}

	db, ledger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := ledger.SkipWords(ctx, words, cmd.String("reason"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Skipped %d of %d word(s)\n", n, len(words))
	if n < len(words) {
		r.writePlain("%s\n", ui.Warning("Some words were not found in the ledger"))
	}
	return nil
}

// printResults lists per-word outcomes and a count summary.
func (r *Runner) printResults(results []tasks.WordResult) {
	counts := map[tasks.Outcome]int{}
	for _, res := range results {
		counts[res.Outcome]++
	}
	r.writePlain("Added: %d  In deck: %d  Skipped: %d  Failed: %d",
		counts[tasks.OutcomeAdded], counts[tasks.OutcomeInDeck], counts[tasks.OutcomeSkipped], counts[tasks.OutcomeFailed])
	if n := counts[tasks.OutcomeNotFound]; n > 0 {
		r.writePlain("  Not found: %d", n)
	}
	r.writePlain("\n")

	for _, res := range results {
		if res.Err != nil {
			r.writePlain("  %s %s: %v\n", res.Outcome.Symbol(), res.Word, res.Err)
		}
	}
}
