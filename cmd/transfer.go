package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/tasks"
	"github.com/desertthunder/greekdeck/internal/ui"
)

// Add generates cards for the named words and writes them to a supplement package.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	words := cmd.Args().Slice()
	if len(words) == 0 {
		return fmt.Errorf("%w: words to add", shared.ErrMissingArgument)
	}

	notes, err := r.deckNotes(ctx, cmd.String("apkg"))
	if err != nil {
		return err
	}

	ledgerDB, ledger, err := r.openOptionalLedger()
	if err != nil {
		return err
	}
	if ledgerDB != nil {
		defer ledgerDB.Close()
	}
	cacheDB, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	engine, err := r.newEngine(cmd, engineOpts{ledger: ledger, cache: cache, generator: true})
	if err != nil {
		return err
	}

	r.logger.Info("adding words", "count", len(words))
	progressCh, wait := r.watchProgress()
	result, err := engine.Add(ctx, progressCh, words, tasks.AddOpts{DeckNotes: notes, Output: cmd.String("output")})
	wait()
	if err != nil {
		return err
	}
	return r.printAddResult(result)
}

// Preview prints a freshly generated card without caching or packaging it.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	word := cmd.Args().First()
	if word == "" {
		return fmt.Errorf("%w: word to preview", shared.ErrMissingArgument)
	}

	engine, err := r.newEngine(cmd, engineOpts{generator: true})
	if err != nil {
		return err
	}
	card, err := engine.Preview(ctx, word)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.CardPreview(card))
}

// AddBatch samples pending words, confirms the estimated cost and runs the add workflow over them.
func (r *Runner) AddBatch(ctx context.Context, cmd *cli.Command) error {
	count := int(cmd.Int("count"))
	start, end, err := parseRange(cmd.String("range"))
	if err != nil {
		return err
	}

	notes, err := r.deckNotes(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	ledgerDB, ledger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer ledgerDB.Close()
	cacheDB, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	engine, err := r.newEngine(cmd, engineOpts{ledger: ledger, cache: cache, generator: true})
	if err != nil {
		return err
	}

	plan, err := engine.PlanBatch(ctx, start, end, count)
	if err != nil {
		return err
	}
	if len(plan.Words) == 0 {
		return r.writePlain("No pending words in range.\n")
	}

	r.writePlainHeader("Batch Plan")
	r.writePlain("Words: %d (requested %d)\n", len(plan.Words), plan.Requested)
	r.writePlain("Cached: %d\n", plan.Cached)
	r.writePlain("API calls: %d (~%d tokens, ~$%.2f)\n", plan.APICalls, plan.EstimatedTokens, plan.EstimatedCost)

	ok, err := r.confirmCost(ctx, cmd, plan.APICalls, plan.EstimatedCost)
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("Cancelled.\n")
	}

	progressCh, wait := r.watchProgress()
	result, err := engine.AddBatch(ctx, progressCh, plan, tasks.AddOpts{DeckNotes: notes, Output: cmd.String("output")})
	wait()
	if err != nil {
		return err
	}
	return r.printAddResult(result)
}

func (r *Runner) printAddResult(result *tasks.AddResult) error {
	r.writePlain("\n")
	r.writePlainHeader("Add Complete")
	r.printResults(result.Results)
	if result.Package == "" {
		return r.writePlain("No cards accepted; nothing written.\n")
	}
	return r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ %d card(s) written to %s", len(result.Notes), result.Package)))
}

// Enrich backfills generated fields into existing deck notes.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	apkg := cmd.Args().First()
	if apkg == "" {
		apkg = r.config.Deck.APKG
	}
	notes, err := anki.ReadNotes(ctx, apkg)
	if err != nil {
		return err
	}

	cacheDB, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	engine, err := r.newEngine(cmd, engineOpts{cache: cache, generator: true})
	if err != nil {
		return err
	}

	full := cmd.Bool("full")
	r.writePlain("Notes needing enrichment: %d of %d\n", len(tasks.EnrichCandidates(notes, full)), len(notes))

	progressCh, wait := r.watchProgress()
	result, err := engine.Enrich(ctx, progressCh, notes, tasks.EnrichOpts{
		Limit:  int(cmd.Int("limit")),
		Full:   full,
		Output: cmd.String("output"),
	})
	wait()
	if err != nil {
		return err
	}
	return r.printUpdateResult("Enrich Complete", result)
}

// Refresh regenerates the deck notes for the named words.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	words := cmd.Args().Slice()
	if len(words) == 0 {
		return fmt.Errorf("%w: words to refresh", shared.ErrMissingArgument)
	}

	apkg := cmd.String("apkg")
	if apkg == "" {
		apkg = r.config.Deck.APKG
	}
	notes, err := anki.ReadNotes(ctx, apkg)
	if err != nil {
		return err
	}

	cacheDB, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	engine, err := r.newEngine(cmd, engineOpts{cache: cache, generator: true})
	if err != nil {
		return err
	}

	progressCh, wait := r.watchProgress()
	result, err := engine.Refresh(ctx, progressCh, notes, words, cmd.String("output"))
	wait()
	if err != nil {
		return err
	}
	return r.printUpdateResult("Refresh Complete", result)
}

func (r *Runner) printUpdateResult(title string, result *tasks.UpdateResult) error {
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.printResults(result.Results)
	if result.Package == "" {
		return r.writePlain("No notes updated; nothing written.\n")
	}
	r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ %d note(s) written to %s", len(result.Notes), result.Package)))
	return r.writePlain("Import the package into Anki to update the notes in place.\n")
}
