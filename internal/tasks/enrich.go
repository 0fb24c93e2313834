package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// EnrichOpts configures [DeckEngine.Enrich].
type EnrichOpts struct {
	Limit  int    // Maximum notes to enrich; zero means all candidates
	Full   bool   // Target notes with neither Example nor Comment and replace all four generated fields
	Output string // Package path (default: timestamped name in the output directory)
}

// UpdateResult summarizes an enrich or refresh run.
type UpdateResult struct {
	Candidates int
	Results    []WordResult
	Notes      []models.Note
	Package    string
}

// Count returns the number of words with outcome o.
func (r *UpdateResult) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// EnrichCandidates returns the notes [DeckEngine.Enrich] would consider.
func EnrichCandidates(notes []models.Note, full bool) []models.Note {
	var out []models.Note
	for _, n := range notes {
		example, comment := blank(n.Example), blank(n.Comment)
		if full {
			if example && comment {
				out = append(out, n)
			}
			continue
		}
		if example || comment || blank(n.Collocations) || blank(n.Etymology) {
			out = append(out, n)
		}
	}
	return out
}

// Enrich backfills generated content into existing deck notes and packages them under their
// original GUIDs, so importing the package updates the notes in place.
//
// By default only empty Example, Comment, Collocations and Etymology fields are filled.
// With Full those four fields are replaced.
func (e *DeckEngine) Enrich(ctx context.Context, progress chan<- ProgressUpdate, notes []models.Note, opts EnrichOpts) (*UpdateResult, error) {
	candidates := EnrichCandidates(notes, opts.Full)
	result := &UpdateResult{Candidates: len(candidates)}
	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	for i, note := range candidates {
		word := wordOf(note.Back)
		e.sendProgress(progress, generateUpdate(i+1, len(candidates), word))

		res := WordResult{Word: word}
		card, skipped, err := e.review(ctx, word, false)
		switch {
		case err != nil && !errors.Is(err, ErrAttemptsExhausted):
			return result, err
		case err != nil:
			res.Outcome, res.Err = OutcomeFailed, err
		case skipped:
			res.Outcome = OutcomeSkipped
		default:
			res.Outcome = OutcomeAdded
			result.Notes = append(result.Notes, enrichNote(note, formatter.RenderCard(card), opts.Full))
		}
		result.Results = append(result.Results, res)
		e.sendProgress(progress, wordDoneUpdate(i+1, len(candidates), res))
	}

	return result, e.writeUpdate(ctx, progress, result, opts.Output, "AZ_enriched", anki.TagEnriched)
}

func enrichNote(note, generated models.Note, full bool) models.Note {
	fill := func(current, next string) string {
		if full || blank(current) {
			return next
		}
		return current
	}
	note.Example = fill(note.Example, generated.Example)
	note.Comment = fill(note.Comment, generated.Comment)
	note.Collocations = fill(note.Collocations, generated.Collocations)
	note.Etymology = fill(note.Etymology, generated.Etymology)
	return note
}

// Refresh regenerates every field except Back for the deck notes matching words, keeping GUIDs.
// The lookup compares the normalized Back field; the first note wins.
func (e *DeckEngine) Refresh(ctx context.Context, progress chan<- ProgressUpdate, notes []models.Note, words []string, output string) (*UpdateResult, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no words to refresh", shared.ErrMissingArgument)
	}

	norm := e.matcher.Normalizer()
	byBack := make(map[string]models.Note, len(notes))
	for _, n := range notes {
		key := norm.Normalize(n.Back)
		if _, ok := byBack[key]; !ok && key != "" {
			byBack[key] = n
		}
	}

	result := &UpdateResult{}
	for i, w := range words {
		e.sendProgress(progress, generateUpdate(i+1, len(words), w))

		res := WordResult{Word: w}
		note, ok := byBack[norm.Normalize(w)]
		if !ok {
			res.Outcome, res.Err = OutcomeNotFound, fmt.Errorf("%w: %s", shared.ErrNoteNotFound, w)
			result.Results = append(result.Results, res)
			e.sendProgress(progress, wordDoneUpdate(i+1, len(words), res))
			continue
		}
		result.Candidates++

		card, skipped, err := e.review(ctx, wordOf(note.Back), true)
		switch {
		case err != nil && !errors.Is(err, ErrAttemptsExhausted):
			return result, err
		case err != nil:
			res.Outcome, res.Err = OutcomeFailed, err
		case skipped:
			res.Outcome = OutcomeSkipped
		default:
			res.Outcome = OutcomeAdded
			refreshed := formatter.RenderCard(card)
			refreshed.ID, refreshed.GUID, refreshed.Back, refreshed.Tags = note.ID, note.GUID, note.Back, note.Tags
			result.Notes = append(result.Notes, refreshed)
		}
		result.Results = append(result.Results, res)
		e.sendProgress(progress, wordDoneUpdate(i+1, len(words), res))
	}

	return result, e.writeUpdate(ctx, progress, result, output, "AZ_refresh", anki.TagRefreshed)
}

func (e *DeckEngine) writeUpdate(ctx context.Context, progress chan<- ProgressUpdate, result *UpdateResult, output, prefix, tag string) error {
	if len(result.Notes) == 0 {
		return nil
	}
	month := anki.AddedTag(e.now())
	for i := range result.Notes {
		result.Notes[i].Tags = anki.MergeTags(result.Notes[i].Tags, tag, month)
	}

	if output == "" {
		output = e.packagePath(prefix)
	}
	e.sendProgress(progress, writePackageUpdate(output, len(result.Notes)))
	if err := anki.WritePackage(ctx, output, e.deck, result.Notes); err != nil {
		return err
	}
	result.Package = output
	e.logger.Info("package written", "path", output, "notes", len(result.Notes))
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
