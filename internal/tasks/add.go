package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/matcher"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// AddOpts configures [DeckEngine.Add] and [DeckEngine.AddBatch].
type AddOpts struct {
	DeckNotes []models.Note // Existing deck notes to check for duplicates; nil skips the check
	Output    string        // Package path (default: timestamped name in the output directory)
}

// AddResult summarizes an add workflow.
type AddResult struct {
	Results []WordResult
	Notes   []models.Note
	Package string
}

// Count returns the number of words with outcome o.
func (r *AddResult) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// addFlow holds what differs between the single-word and the batch workflows.
type addFlow struct {
	prefix     string
	inDeckNote string
	skipNote   string
	addedNote  string
	tags       []string
}

var (
	singleFlow = addFlow{
		prefix:     "AZ_update",
		inDeckNote: "already in deck",
		skipNote:   "skipped during add",
		addedNote:  "added -> %s",
	}
	batchFlow = addFlow{
		prefix:     "AZ_batch",
		inDeckNote: "sync: found during batch",
		skipNote:   "skipped during batch",
		addedNote:  "batch add -> %s",
		tags:       []string{anki.TagBatch},
	}
)

// Add generates, reviews and packages cards for words.
//
// Words already in DeckNotes are marked in the deck and skipped. Accepted cards are written to
// one package and their words marked in the deck. The ledger is optional.
func (e *DeckEngine) Add(ctx context.Context, progress chan<- ProgressUpdate, words []string, opts AddOpts) (*AddResult, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no words to add", shared.ErrMissingArgument)
	}

	entries := make([]models.FrequencyEntry, len(words))
	for i, w := range words {
		entries[i] = models.FrequencyEntry{Word: w}
		if e.ledger == nil {
			continue
		}
		entry, ok, err := e.ledger.GetByWord(ctx, w)
		if err != nil {
			return nil, err
		}
		if ok {
			entries[i].Rank = entry.Rank
		}
	}
	return e.addWords(ctx, progress, entries, opts, singleFlow)
}

// BatchPlan is a sample of pending words chosen for [DeckEngine.AddBatch].
type BatchPlan struct {
	Requested       int                     `json:"requested"`
	Words           []models.FrequencyEntry `json:"words"`
	Cached          int                     `json:"cached"`
	APICalls        int                     `json:"api_calls"`
	EstimatedTokens int                     `json:"estimated_tokens"`
	EstimatedCost   float64                 `json:"estimated_cost"`
}

// PlanBatch picks up to count random pending words in [start, end] and estimates the cost of
// generating the ones not yet cached. Zero bounds are open.
func (e *DeckEngine) PlanBatch(ctx context.Context, start, end, count int) (*BatchPlan, error) {
	if err := e.requireLedger(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", shared.ErrInvalidArgument, count)
	}

	pending, err := e.ledger.GetPending(ctx, models.PendingQuery{Start: start, End: end})
	if err != nil {
		return nil, err
	}

	selected := append([]models.FrequencyEntry(nil), pending...)
	if len(selected) > count {
		e.shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
		selected = selected[:count]
	}

	plan := &BatchPlan{Requested: count, Words: selected}
	if e.cache != nil && len(selected) > 0 {
		keys, err := e.cache.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, entry := range selected {
			if _, ok := keys[e.cache.Key(entry.Word)]; ok {
				plan.Cached++
			}
		}
	}
	plan.APICalls = len(selected) - plan.Cached
	plan.EstimatedTokens, plan.EstimatedCost = e.estimate(plan.APICalls)
	return plan, nil
}

// AddBatch runs the add workflow over a planned sample, tagging cards with their frequency band.
func (e *DeckEngine) AddBatch(ctx context.Context, progress chan<- ProgressUpdate, plan *BatchPlan, opts AddOpts) (*AddResult, error) {
	if err := e.requireLedger(); err != nil {
		return nil, err
	}
	if plan == nil || len(plan.Words) == 0 {
		return &AddResult{}, nil
	}
	return e.addWords(ctx, progress, plan.Words, opts, batchFlow)
}

func (e *DeckEngine) addWords(ctx context.Context, progress chan<- ProgressUpdate, entries []models.FrequencyEntry, opts AddOpts, flow addFlow) (*AddResult, error) {
	var corpus *matcher.Corpus
	if opts.DeckNotes != nil {
		corpus = e.matcher.NewCorpus(backFields(opts.DeckNotes))
	}

	result := &AddResult{}
	var accepted []string
	total := len(entries)
	month := anki.AddedTag(e.now())

	for i, entry := range entries {
		word := entry.Word
		e.sendProgress(progress, generateUpdate(i+1, total, word))
		res := WordResult{Word: word, Rank: entry.Rank}

		switch card, skipped, err := e.classify(ctx, corpus, word); {
		case err != nil && !errors.Is(err, ErrAttemptsExhausted):
			return result, err
		case err != nil:
			res.Outcome, res.Err = OutcomeFailed, err
		case card == nil && !skipped:
			res.Outcome = OutcomeInDeck
			if err := e.mark(ctx, word, models.StatusInDeck, flow.inDeckNote); err != nil {
				return result, err
			}
		case skipped:
			res.Outcome = OutcomeSkipped
			if err := e.mark(ctx, word, models.StatusSkipped, flow.skipNote); err != nil {
				return result, err
			}
		default:
			res.Outcome = OutcomeAdded
			note := formatter.RenderCard(card)
			note.Tags = anki.MergeTags([]string{anki.TagAutoGenerated, month}, flow.tags...)
			note.Tags = anki.MergeTags(note.Tags, anki.POSTag(card.PartOfSpeech), anki.FrequencyBandTag(entry.Rank))
			result.Notes = append(result.Notes, note)
			accepted = append(accepted, word)
		}

		result.Results = append(result.Results, res)
		e.sendProgress(progress, wordDoneUpdate(i+1, total, res))
	}

	if len(result.Notes) == 0 {
		return result, nil
	}

	path := opts.Output
	if path == "" {
		path = e.packagePath(flow.prefix)
	}
	e.sendProgress(progress, writePackageUpdate(path, len(result.Notes)))
	if err := anki.WritePackage(ctx, path, e.deck, result.Notes); err != nil {
		return result, err
	}
	result.Package = path

	e.sendProgress(progress, markLedgerUpdate(len(accepted), models.StatusInDeck.String()))
	note := fmt.Sprintf(flow.addedNote, filepath.Base(path))
	for _, word := range accepted {
		if err := e.mark(ctx, word, models.StatusInDeck, note); err != nil {
			return result, err
		}
	}
	e.logger.Info("package written", "path", path, "notes", len(result.Notes))
	return result, nil
}

// classify returns the reviewed card for word. A nil card with skipped=false and no error
// means the word is already in the deck.
func (e *DeckEngine) classify(ctx context.Context, corpus *matcher.Corpus, word string) (*models.GeneratedCard, bool, error) {
	if corpus != nil && corpus.Contains(word) {
		return nil, false, nil
	}
	return e.review(ctx, word, false)
}

// mark records a status change when a ledger is configured. Words missing from the ledger are logged.
func (e *DeckEngine) mark(ctx context.Context, word string, status models.Status, note string) error {
	if e.ledger == nil {
		return nil
	}
	ok, err := e.ledger.MarkProcessed(ctx, word, status, note)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Debug("word not in ledger", "word", word, "status", status)
	}
	return nil
}
