// package tasks implements the deck workflows: syncing the ledger with a deck, generating and reviewing
// cards, and writing packages.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/matcher"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/services"
	"github.com/desertthunder/greekdeck/internal/shared"
)

const (
	DefaultMaxAttempts   = 3
	DefaultTokensPerCard = 800
	DefaultCostPerToken  = 0.000015
)

// ErrAttemptsExhausted is reported for a word whose review attempts all failed or were regenerated.
var ErrAttemptsExhausted = errors.New("max attempts reached")

// Ledger is the frequency ledger as used by the engine.
type Ledger interface {
	GetPending(ctx context.Context, q models.PendingQuery) ([]models.FrequencyEntry, error)
	GetRange(ctx context.Context, start, end int) ([]models.FrequencyEntry, error)
	GetByWord(ctx context.Context, word string) (models.FrequencyEntry, bool, error)
	MarkProcessed(ctx context.Context, word string, status models.Status, note string) (bool, error)
	MarkManyProcessed(ctx context.Context, words []string, status models.Status, note string) (int, error)
	MaxRank(ctx context.Context) (int, error)
}

// CardStore caches generated cards by word.
type CardStore interface {
	Key(word string) string
	Get(ctx context.Context, word string) (*models.GeneratedCard, bool, error)
	Store(ctx context.Context, word string, card *models.GeneratedCard, model string) error
	Keys(ctx context.Context) (map[string]struct{}, error)
}

// Reviewer decides whether a generated card is kept.
type Reviewer interface {
	Review(ctx context.Context, word string, card *models.GeneratedCard) (models.Decision, error)
}

// AutoAccept accepts every card.
type AutoAccept struct{}

func (AutoAccept) Review(context.Context, string, *models.GeneratedCard) (models.Decision, error) {
	return models.DecisionAccept, nil
}

// Outcome is what happened to one word in a workflow.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeInDeck
	OutcomeSkipped
	OutcomeFailed
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeInDeck:
		return "in_deck"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotFound:
		return "not_found"
	default:
		return ""
	}
}

// Symbol is a one-character marker for progress lines.
func (o Outcome) Symbol() string {
	switch o {
	case OutcomeAdded:
		return "✓"
	case OutcomeInDeck:
		return "="
	case OutcomeSkipped:
		return "-"
	default:
		return "✗"
	}
}

// WordResult records the outcome for one word.
type WordResult struct {
	Word    string
	Rank    int
	Outcome Outcome
	Err     error
}

// EngineOpts configures a [DeckEngine].
type EngineOpts struct {
	Ledger    Ledger             // Optional; ledger updates are skipped when nil
	Cache     CardStore          // Optional; generation is uncached when nil
	Generator services.Generator // Required by operations that generate cards
	Reviewer  Reviewer           // Defaults to [AutoAccept]
	Matcher   *matcher.Matcher   // Defaults to the default normalizer
	Logger    *log.Logger        // Defaults to a discarding logger
	Deck      anki.Deck          // Deck for supplement packages (default: [anki.DefaultDeck])
	OutputDir string             // Directory for generated packages (default: working directory)

	Delay         time.Duration // Minimum spacing between generation calls
	MaxAttempts   int           // Review attempts per word (default: 3)
	TokensPerCard int           // Cost estimate input (default: 800)
	CostPerToken  float64       // Cost estimate input in USD (default: 0.000015)
}

// DeckEngine runs the deck workflows over a ledger, a card cache and a generator.
type DeckEngine struct {
	ledger    Ledger
	cache     CardStore
	generator services.Generator
	reviewer  Reviewer
	matcher   *matcher.Matcher
	logger    *log.Logger
	deck      anki.Deck
	outputDir string

	limiter       *rate.Limiter
	maxAttempts   int
	tokensPerCard int
	costPerToken  float64

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewDeckEngine creates a DeckEngine from opts, filling defaults.
func NewDeckEngine(opts EngineOpts) *DeckEngine {
	if opts.Reviewer == nil {
		opts.Reviewer = AutoAccept{}
	}
	if opts.Matcher == nil {
		opts.Matcher = matcher.NewMatcher(nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Deck.Name == "" {
		opts.Deck = anki.DefaultDeck()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.TokensPerCard <= 0 {
		opts.TokensPerCard = DefaultTokensPerCard
	}
	if opts.CostPerToken <= 0 {
		opts.CostPerToken = DefaultCostPerToken
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &DeckEngine{
		ledger:        opts.Ledger,
		cache:         opts.Cache,
		generator:     opts.Generator,
		reviewer:      opts.Reviewer,
		matcher:       opts.Matcher,
		logger:        opts.Logger,
		deck:          opts.Deck,
		outputDir:     opts.OutputDir,
		limiter:       rate.NewLimiter(limit, 1),
		maxAttempts:   opts.MaxAttempts,
		tokensPerCard: opts.TokensPerCard,
		costPerToken:  opts.CostPerToken,
		now:           time.Now,
		shuffle:       rand.Shuffle,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DeckEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *DeckEngine) requireLedger() error {
	if e.ledger == nil {
		return fmt.Errorf("%w: frequency ledger", shared.ErrMissingArgument)
	}
	return nil
}

// packagePath names a timestamped package, e.g. AZ_update_2025-03-14_093000.apkg.
func (e *DeckEngine) packagePath(prefix string) string {
	name := fmt.Sprintf("%s_%s.apkg", prefix, e.now().Format("2006-01-02_150405"))
	if e.outputDir == "" {
		return name
	}
	return filepath.Join(e.outputDir, name)
}

// estimate returns the token and USD estimate for n uncached cards.
func (e *DeckEngine) estimate(n int) (int, float64) {
	tokens := n * e.tokensPerCard
	return tokens, float64(tokens) * e.costPerToken
}

// Preview generates a card for word without touching the cache.
func (e *DeckEngine) Preview(ctx context.Context, word string) (*models.GeneratedCard, error) {
	return e.callGenerator(ctx, word)
}

func (e *DeckEngine) callGenerator(ctx context.Context, word string) (*models.GeneratedCard, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("%w: no card generator configured", shared.ErrMissingCredentials)
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.generator.Generate(ctx, word)
}

// generate returns a card for word, from the cache unless force is set.
// Fresh cards are written back to the cache.
func (e *DeckEngine) generate(ctx context.Context, word string, force bool) (*models.GeneratedCard, error) {
	if !force && e.cache != nil {
		card, ok, err := e.cache.Get(ctx, word)
		if err != nil {
			return nil, err
		}
		if ok {
			e.logger.Debug("cache hit", "word", word)
			return card, nil
		}
	}

	card, err := e.callGenerator(ctx, word)
	if err != nil {
		return nil, err
	}
	e.logger.Info("generated card", "word", word, "input_tokens", card.Usage.InputTokens, "output_tokens", card.Usage.OutputTokens)

	if e.cache != nil {
		if err := e.cache.Store(ctx, word, card, e.generator.Model()); err != nil {
			return nil, err
		}
	}
	return card, nil
}

// review generates and reviews a card for word until it is accepted or skipped, for at most
// maxAttempts attempts. A regenerate decision bypasses the cache on the next attempt.
//
// The bool reports a skip. When every attempt is used up the error wraps
// [ErrAttemptsExhausted]; any other error ends the workflow.
func (e *DeckEngine) review(ctx context.Context, word string, force bool) (*models.GeneratedCard, bool, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		card, err := e.generate(ctx, word, force)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			if errors.Is(err, shared.ErrMissingCredentials) {
				return nil, false, err
			}
			e.logger.Warn("generation failed", "word", word, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		decision, err := e.reviewer.Review(ctx, word, card)
		if err != nil {
			return nil, false, err
		}
		switch decision {
		case models.DecisionAccept:
			return card, false, nil
		case models.DecisionSkip:
			return nil, true, nil
		default:
			force = true
		}
	}

	if lastErr == nil {
		return nil, false, fmt.Errorf("%w for %s", ErrAttemptsExhausted, word)
	}
	return nil, false, fmt.Errorf("%w for %s: %w", ErrAttemptsExhausted, word, lastErr)
}

// SyncResult summarizes a [DeckEngine.Sync].
type SyncResult struct {
	Notes   int      `json:"notes"`
	Pending int      `json:"pending"`
	Matched []string `json:"matched"`
	Marked  int      `json:"marked"`
}

// Sync marks every pending word whose Greek form appears in a deck note's Back field as in the deck.
func (e *DeckEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, notes []models.Note) (*SyncResult, error) {
	if err := e.requireLedger(); err != nil {
		return nil, err
	}

	pending, err := e.ledger.GetPending(ctx, models.PendingQuery{})
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, loadPendingUpdate(len(pending)))

	corpus := e.matcher.NewCorpus(backFields(notes))
	result := &SyncResult{Notes: len(notes), Pending: len(pending)}
	for i, entry := range pending {
		e.sendProgress(progress, matchDeckUpdate(i+1, len(pending), entry.Word))
		if corpus.Contains(entry.Word) {
			result.Matched = append(result.Matched, entry.Word)
		}
	}

	if len(result.Matched) == 0 {
		return result, nil
	}

	e.sendProgress(progress, markLedgerUpdate(len(result.Matched), models.StatusInDeck.String()))
	result.Marked, err = e.ledger.MarkManyProcessed(ctx, result.Matched, models.StatusInDeck, "sync: found in APKG")
	if err != nil {
		return nil, err
	}
	e.logger.Info("sync complete", "notes", len(notes), "pending", len(pending), "marked", result.Marked)
	return result, nil
}

// TagNotes adds tags to every note, keeping existing tags first.
func TagNotes(notes []models.Note, tags []string) []models.Note {
	tagged := make([]models.Note, len(notes))
	for i, n := range notes {
		n.Tags = anki.MergeTags(n.Tags, tags...)
		tagged[i] = n
	}
	return tagged
}

func backFields(notes []models.Note) []string {
	backs := make([]string, len(notes))
	for i, n := range notes {
		backs[i] = n.Back
	}
	return backs
}

// wordOf returns the plain Greek word held in a Back field.
func wordOf(back string) string {
	return formatter.PlainText(back)
}
