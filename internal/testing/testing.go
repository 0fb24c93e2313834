// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// MockGenerator is a test double for [services.Generator].
//
// Words listed in Cards get a copy of that card; other words get a minimal card.
// Words listed in Errs fail with that error.
type MockGenerator struct {
	Cards     map[string]*models.GeneratedCard
	Errs      map[string]error
	ModelName string

	mu    sync.Mutex
	calls []string
}

func (m *MockGenerator) Generate(ctx context.Context, word string) (*models.GeneratedCard, error) {
	m.mu.Lock()
	m.calls = append(m.calls, word)
	n := len(m.calls)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[word]; ok {
		return nil, err
	}
	if card, ok := m.Cards[word]; ok {
		c := *card
		return &c, nil
	}
	return &models.GeneratedCard{
		FrontRU:      "перевод " + word,
		FrontEN:      "translation of " + word,
		Back:         word,
		PartOfSpeech: "noun",
		Examples:     []models.Example{{Greek: "<em>" + word + "</em>", Russian: "пример"}},
		Usage:        models.Usage{InputTokens: int64(100 * n), OutputTokens: 200},
	}, nil
}

func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Calls returns the words passed to Generate, in order.
func (m *MockGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ScriptedReviewer returns queued decisions per word, then Default.
type ScriptedReviewer struct {
	Script  map[string][]models.Decision
	Default models.Decision
	Err     error

	Seen []string
}

func (r *ScriptedReviewer) Review(ctx context.Context, word string, card *models.GeneratedCard) (models.Decision, error) {
	r.Seen = append(r.Seen, word)
	if r.Err != nil {
		return 0, r.Err
	}
	if queue := r.Script[word]; len(queue) > 0 {
		r.Script[word] = queue[1:]
		return queue[0], nil
	}
	return r.Default, nil
}

// MustOpenDB opens an in-memory database with every schema migrated.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, schema := range []shared.Schema{shared.LedgerSchema, shared.CacheSchema} {
		if err := shared.RunMigrations(db, schema); err != nil {
			t.Fatalf("Failed to migrate %s: %v", schema, err)
		}
	}
	return db
}

// MustOpenFileDB creates a migrated database file at path and closes it.
func MustOpenFileDB(t *testing.T, path string) {
	t.Helper()
	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	for _, schema := range []shared.Schema{shared.LedgerSchema, shared.CacheSchema} {
		if err := shared.RunMigrations(db, schema); err != nil {
			t.Fatalf("Failed to migrate %s: %v", schema, err)
		}
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
