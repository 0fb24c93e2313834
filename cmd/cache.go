package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/tasks"
	"github.com/desertthunder/greekdeck/internal/ui"
)

// BuildDeck packages cached cards for a rank range into a standalone deck.
func (r *Runner) BuildDeck(ctx context.Context, cmd *cli.Command) error {
	start, end, err := parseRange(cmd.String("range"))
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

	generateMissing := cmd.Bool("generate-missing")
	engine, err := r.newEngine(cmd, engineOpts{ledger: ledger, cache: cache, generator: generateMissing})
	if err != nil {
		return err
	}

	progressCh, wait := r.watchProgress()
	result, err := engine.BuildDeck(ctx, progressCh, tasks.BuildOpts{
		Start:           start,
		End:             end,
		DeckName:        cmd.String("deck-name"),
		Output:          cmd.String("output"),
		GenerateMissing: generateMissing,
		ConfirmGenerate: func(missing int, cost float64) (bool, error) {
			return r.confirmCost(ctx, cmd, missing, cost)
		},
	})
	wait()
	if err != nil {
		return err
	}

	r.writePlainHeader("Build Complete")
	r.writePlain("Deck: %s\n", result.DeckName)
	r.writePlain("Words in range: %d\n", result.Words)
	r.writePlain("Cached: %d  Generated: %d  Missing: %d\n", result.Cached, result.Generated, result.Missing)
	for _, f := range result.Failed {
		r.writePlain("  %s %s: %v\n", f.Outcome.Symbol(), f.Word, f.Err)
	}
	if result.Package == "" {
		return r.writePlain("No cached cards in range; nothing written.\n")
	}
	if result.Missing > 0 && !generateMissing {
		r.writePlain("%s\n", ui.Warning("Run with --generate-missing to include the missing words"))
	}
	return r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ Deck written to %s", result.Package)))
}

type cacheStatus struct {
	Stats    *models.CacheStats    `json:"stats"`
	Coverage *tasks.CoverageReport `json:"coverage,omitempty"`
}

// CacheStatus prints cached cards per model and, when a ledger exists, cache coverage per rank bucket.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	start, end, err := parseRange(cmd.String("range"))
	if err != nil {
		return err
	}

	cacheDB, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}

	ledgerDB, ledger, err := r.openOptionalLedger()
	if err != nil {
		return err
	}
	var report *tasks.CoverageReport
	if ledgerDB != nil {
		defer ledgerDB.Close()
		engine, err := r.newEngine(cmd, engineOpts{ledger: ledger, cache: cache})
		if err != nil {
			return err
		}
		if report, err = engine.Coverage(ctx, nil, start, end); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(cacheStatus{Stats: stats, Coverage: report}, true)
	}

	r.writePlain("%s\n", ui.CacheTable(stats))
	if report != nil && len(report.Buckets) > 0 {
		r.writePlain("\nCoverage, ranks %d-%d\n", report.Start, report.End)
		r.writePlain("%s\n", ui.CoverageTable(report.Buckets))
	}
	return nil
}
