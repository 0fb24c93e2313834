package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// BuildOpts configures [DeckEngine.BuildDeck].
type BuildOpts struct {
	Start, End      int
	DeckName        string // Default: "Greek Top N" for ranges from 1, else "Greek S-E"
	Output          string // Default: Greek_top_N.apkg or Greek_S_E.apkg in the output directory
	GenerateMissing bool

	// ConfirmGenerate is asked before generating missing cards; nil proceeds.
	ConfirmGenerate func(missing int, estimatedCost float64) (bool, error)
}

// BuildResult summarizes a [DeckEngine.BuildDeck].
type BuildResult struct {
	DeckName  string       `json:"deck_name"`
	Package   string       `json:"package,omitempty"`
	Words     int          `json:"words"`
	Cached    int          `json:"cached"`
	Generated int          `json:"generated"`
	Missing   int          `json:"missing"`
	Failed    []WordResult `json:"-"`
}

// DeckName returns the default deck name for a rank range.
func DeckName(start, end int) string {
	if start == 1 {
		return fmt.Sprintf("Greek Top %d", end)
	}
	return fmt.Sprintf("Greek %d-%d", start, end)
}

// DeckFileName returns the default package file name for a rank range.
func DeckFileName(start, end int) string {
	if start == 1 {
		return fmt.Sprintf("Greek_top_%d.apkg", end)
	}
	return fmt.Sprintf("Greek_%d_%d.apkg", start, end)
}

type rankedCard struct {
	entry models.FrequencyEntry
	card  *models.GeneratedCard
}

// BuildDeck writes a shareable deck of every ledger word in the range, regardless of status,
// from cached cards. Missing cards are generated only when GenerateMissing is set.
func (e *DeckEngine) BuildDeck(ctx context.Context, progress chan<- ProgressUpdate, opts BuildOpts) (*BuildResult, error) {
	if err := e.requireLedger(); err != nil {
		return nil, err
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: card cache", shared.ErrMissingArgument)
	}
	if opts.Start < 1 || opts.End < opts.Start {
		return nil, fmt.Errorf("%w: invalid range %d-%d", shared.ErrInvalidArgument, opts.Start, opts.End)
	}
	if opts.DeckName == "" {
		opts.DeckName = DeckName(opts.Start, opts.End)
	}
	if opts.Output == "" {
		opts.Output = DeckFileName(opts.Start, opts.End)
		if e.outputDir != "" {
			opts.Output = filepath.Join(e.outputDir, opts.Output)
		}
	}

	entries, err := e.ledger.GetRange(ctx, opts.Start, opts.End)
	if err != nil {
		return nil, err
	}
	result := &BuildResult{DeckName: opts.DeckName, Words: len(entries)}
	e.sendProgress(progress, loadPendingUpdate(len(entries)))

	var cards []rankedCard
	var missing []models.FrequencyEntry
	for _, entry := range entries {
		card, ok, err := e.cache.Get(ctx, entry.Word)
		if err != nil {
			return nil, err
		}
		if ok {
			cards = append(cards, rankedCard{entry: entry, card: card})
		} else {
			missing = append(missing, entry)
		}
	}
	result.Cached = len(cards)

	if len(missing) > 0 && opts.GenerateMissing {
		proceed := true
		if opts.ConfirmGenerate != nil {
			_, cost := e.estimate(len(missing))
			if proceed, err = opts.ConfirmGenerate(len(missing), cost); err != nil {
				return nil, err
			}
		}
		if proceed {
			generated, err := e.generateMissing(ctx, progress, missing, result)
			if err != nil {
				return nil, err
			}
			cards = append(cards, generated...)
		}
	}
	result.Missing = result.Words - len(cards)

	if len(cards) == 0 {
		return result, nil
	}

	sort.Slice(cards, func(i, j int) bool { return cards[i].entry.Rank < cards[j].entry.Rank })
	tags := []string{anki.TagAutoGenerated, anki.TagBuildDeck, anki.RangeTag(opts.Start, opts.End)}
	notes := make([]models.Note, len(cards))
	for i, rc := range cards {
		notes[i] = formatter.RenderCard(rc.card)
		notes[i].Tags = tags
	}

	e.sendProgress(progress, writePackageUpdate(opts.Output, len(notes)))
	if err := anki.WritePackage(ctx, opts.Output, anki.NewDeck(opts.DeckName), notes); err != nil {
		return nil, err
	}
	result.Package = opts.Output
	e.logger.Info("deck built", "deck", opts.DeckName, "cards", len(notes), "path", opts.Output)
	return result, nil
}

func (e *DeckEngine) generateMissing(ctx context.Context, progress chan<- ProgressUpdate, missing []models.FrequencyEntry, result *BuildResult) ([]rankedCard, error) {
	var cards []rankedCard
	for i, entry := range missing {
		e.sendProgress(progress, generateUpdate(i+1, len(missing), entry.Word))

		res := WordResult{Word: entry.Word, Rank: entry.Rank, Outcome: OutcomeAdded}
		card, err := e.generate(ctx, entry.Word, true)
		switch {
		case err == nil:
			cards = append(cards, rankedCard{entry: entry, card: card})
			result.Generated++
		case ctx.Err() != nil, errors.Is(err, shared.ErrMissingCredentials):
			return nil, err
		default:
			res.Outcome, res.Err = OutcomeFailed, err
			result.Failed = append(result.Failed, res)
		}
		e.sendProgress(progress, wordDoneUpdate(i+1, len(missing), res))
	}
	return cards, nil
}

// CoverageReport holds cache coverage of the ledger per rank bucket.
type CoverageReport struct {
	Start   int                     `json:"start"`
	End     int                     `json:"end"`
	Buckets []models.CoverageBucket `json:"buckets"`
}

// Coverage counts cached cards per 500-rank bucket in [start, end]. A zero start is 1 and a
// zero end is the highest rank. Buckets without words are left out.
func (e *DeckEngine) Coverage(ctx context.Context, progress chan<- ProgressUpdate, start, end int) (*CoverageReport, error) {
	if err := e.requireLedger(); err != nil {
		return nil, err
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: card cache", shared.ErrMissingArgument)
	}
	if start <= 0 {
		start = 1
	}
	if end <= 0 {
		maxRank, err := e.ledger.MaxRank(ctx)
		if err != nil {
			return nil, err
		}
		end = maxRank
	}

	report := &CoverageReport{Start: start, End: end}
	if end < start {
		return report, nil
	}

	keys, err := e.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}

	steps := (end-start)/anki.BandWidth + 1
	for i, s := 0, start; s <= end; i, s = i+1, s+anki.BandWidth {
		bucketEnd := min(s+anki.BandWidth-1, end)
		e.sendProgress(progress, coverageUpdate(i+1, steps, s, bucketEnd))

		words, err := e.ledger.GetRange(ctx, s, bucketEnd)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			continue
		}
		bucket := models.CoverageBucket{Start: s, End: bucketEnd, Words: len(words)}
		for _, w := range words {
			if _, ok := keys[e.cache.Key(w.Word)]; ok {
				bucket.Cached++
			}
		}
		report.Buckets = append(report.Buckets, bucket)
	}
	return report, nil
}
