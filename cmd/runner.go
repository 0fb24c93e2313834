package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/repositories"
	"github.com/desertthunder/greekdeck/internal/services"
	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	keys        services.KeyStore
	generator   services.Generator
	reviewer    tasks.Reviewer
	confirm     func(ctx context.Context, question string) (bool, error)
	readSecret  func(ctx context.Context, label string) (string, error)
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Keys       services.KeyStore

	// Generator replaces the Anthropic client; used by tests.
	Generator services.Generator
	// Reviewer replaces the interactive review prompt.
	Reviewer tasks.Reviewer
	// Confirm replaces the interactive y/n prompt.
	Confirm func(ctx context.Context, question string) (bool, error)
	// ReadSecret replaces the masked input prompt.
	ReadSecret func(ctx context.Context, label string) (string, error)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Keys == nil {
		opts.Keys = services.NewSystemKeyStore()
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		keys:        opts.Keys,
		generator:   opts.Generator,
		reviewer:    opts.Reviewer,
		confirm:     opts.Confirm,
		readSecret:  opts.ReadSecret,
		openBrowser: shared.OpenBrowser,
	}
	if r.confirm == nil {
		r.confirm = r.confirmPrompt
	}
	if r.readSecret == nil {
		r.readSecret = r.secretPrompt
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, setKeyCommand, clearKeyCommand,
		importFreqCommand, syncCommand, statusCommand, pendingCommand, skipCommand,
		addCommand, previewCommand, addBatchCommand, enrichCommand, refreshCommand,
		buildDeckCommand, cacheStatusCommand, exportCommand, tagCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// configure loads the configuration named by the global flags before any command runs.
//
// A missing config file falls back to built-in defaults and the environment; setup creates it.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	source := path
	if _, err := os.Stat(path); err != nil {
		if cmd.IsSet("config") {
			r.logger.Warn("config file not found, using defaults", "path", path)
		}
		source = ""
	}
	config, err := shared.LoadConfig(source)
	if err != nil {
		return ctx, err
	}

	if db := cmd.String("db"); db != "" {
		config.Database.LedgerPath = db
	}
	if cache := cmd.String("cache"); cache != "" {
		config.Database.CachePath = cache
	}
	level := config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.ParseLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	r.logger = shared.WithLogger(r.logger, "run", shared.GenerateID()[:8])
	return ctx, nil
}

// openLedger opens the ledger database, which must already exist.
func (r *Runner) openLedger() (*sql.DB, *repositories.LedgerRepository, error) {
	db, err := shared.OpenExisting(r.config.Database.LedgerPath)
	if err != nil {
		if errors.Is(err, shared.ErrDatabaseNotFound) {
			return nil, nil, fmt.Errorf("%w; run import-freq first", err)
		}
		return nil, nil, err
	}
	if err := r.migrate(db, shared.LedgerSchema); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repositories.NewLedgerRepository(db, nil, nil), nil
}

// openOptionalLedger opens the ledger when it exists. A missing ledger yields nils.
func (r *Runner) openOptionalLedger() (*sql.DB, *repositories.LedgerRepository, error) {
	db, ledger, err := r.openLedger()
	if errors.Is(err, shared.ErrDatabaseNotFound) {
		r.logger.Warn("no ledger found; ledger updates skipped", "path", r.config.Database.LedgerPath)
		return nil, nil, nil
	}
	return db, ledger, err
}

// openCache opens the card cache, creating it when missing.
func (r *Runner) openCache() (*sql.DB, *repositories.CardCacheRepository, error) {
	db, err := shared.NewDatabase(r.config.Database.CachePath)
	if err != nil {
		return nil, nil, err
	}
	if err := r.migrate(db, shared.CacheSchema); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repositories.NewCardCacheRepository(db, nil), nil
}

func (r *Runner) migrate(db *sql.DB, schema shared.Schema) error {
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db, schema); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", schema, err)
	}
	return nil
}

// newGenerator returns the configured generator, building an Anthropic client from the stored key.
func (r *Runner) newGenerator() (services.Generator, error) {
	if r.generator != nil {
		return r.generator, nil
	}

	key, source, err := services.ResolveAPIKey(r.keys, r.config.Generator.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w; run 'greekdeck set-key' or set ANTHROPIC_API_KEY", err)
	}
	prompt, err := services.LoadPrompt(r.config.Generator.PromptPath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("using API key", "source", source)

	return services.NewClaudeService(services.ClaudeOpts{
		APIKey:     key,
		Model:      r.config.Generator.Model,
		MaxTokens:  r.config.Generator.MaxTokens,
		Prompt:     prompt,
		BaseURL:    r.config.Generator.BaseURL,
		HTTPClient: r.httpClient,
	})
}

// engineOpts collects what a workflow needs. Nil repositories are left unset.
type engineOpts struct {
	ledger    *repositories.LedgerRepository
	cache     *repositories.CardCacheRepository
	generator bool
}

// newEngine builds a [tasks.DeckEngine] from the configuration and the command's flags.
func (r *Runner) newEngine(cmd *cli.Command, opts engineOpts) (*tasks.DeckEngine, error) {
	eo := tasks.EngineOpts{
		Logger:        r.logger,
		Deck:          r.deck(),
		OutputDir:     r.config.Deck.OutputDir,
		Delay:         time.Duration(r.config.Generator.DelaySeconds * float64(time.Second)),
		MaxAttempts:   r.config.Generator.MaxAttempts,
		TokensPerCard: r.config.Generator.TokensPerCard,
		CostPerToken:  r.config.Generator.CostPerToken,
		Reviewer:      r.reviewerFor(cmd),
	}
	if opts.ledger != nil {
		eo.Ledger = opts.ledger
	}
	if opts.cache != nil {
		eo.Cache = opts.cache
	}
	if cmd.IsSet("delay") {
		eo.Delay = time.Duration(cmd.Float("delay") * float64(time.Second))
	}
	if opts.generator {
		gen, err := r.newGenerator()
		if err != nil {
			return nil, err
		}
		eo.Generator = gen
	}
	return tasks.NewDeckEngine(eo), nil
}

// deck returns the main deck named in the configuration.
func (r *Runner) deck() anki.Deck {
	d := anki.Deck{ID: r.config.Deck.DeckID, Name: r.config.Deck.DeckName}
	if d.Name == "" {
		return anki.DefaultDeck()
	}
	if d.ID == 0 {
		d.ID = anki.DeckIDFromName(d.Name)
	}
	return d
}

// deckNotes reads the deck package used for duplicate checks. A missing file yields no notes.
func (r *Runner) deckNotes(ctx context.Context, path string) ([]models.Note, error) {
	if path == "" {
		path = r.config.Deck.APKG
	}
	notes, err := anki.ReadNotes(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("deck package not found; duplicate check skipped", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("loaded deck notes", "path", path, "notes", len(notes))
	return notes, nil
}

// watchProgress prints updates from a new channel until it is closed.
// The returned function closes the channel and waits for the printer.
func (r *Runner) watchProgress() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.MatchDeck, tasks.ScanCoverage:
				r.logger.Debug(update.Message)
			case tasks.GenerateCards:
				if update.Data != nil {
					r.writePlain("   %s\n", update.Message)
				}
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// parseRange parses "S-E" (or "S:E") into inclusive rank bounds. An empty string is unbounded.
func parseRange(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ':' || r == ' ' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: range %q, expected START-END", shared.ErrInvalidFlag, s)
	}
	start, err1 := strconv.Atoi(parts[0])
	end, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return 0, 0, fmt.Errorf("%w: range %q, expected START-END with 1 <= START <= END", shared.ErrInvalidFlag, s)
	}
	return start, end, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
