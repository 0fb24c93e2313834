package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/greekdeck/internal/matcher"
	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// CardCacheRepository stores generated cards keyed by the normalized word.
type CardCacheRepository struct {
	db         *sql.DB
	normalizer *matcher.Normalizer
	now        func() time.Time
}

// NewCardCacheRepository creates a CardCacheRepository over db. A nil normalizer uses [matcher.Default].
func NewCardCacheRepository(db *sql.DB, normalizer *matcher.Normalizer) *CardCacheRepository {
	if normalizer == nil {
		normalizer = matcher.Default()
	}
	return &CardCacheRepository{db: db, normalizer: normalizer, now: time.Now}
}

// Key returns the cache key for word.
func (r *CardCacheRepository) Key(word string) string {
	return r.normalizer.Normalize(word)
}

// Store inserts or replaces the card for word, keeping the original creation time.
func (r *CardCacheRepository) Store(ctx context.Context, word string, card *models.GeneratedCard, model string) error {
	key := r.Key(word)
	if key == "" {
		return fmt.Errorf("%w: empty cache key for %q", shared.ErrInvalidInput, word)
	}

	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp(r.now())
	query := `
		INSERT INTO card_cache (word_normalized, word_original, card_json, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(word_normalized) DO UPDATE SET
			word_original = excluded.word_original,
			card_json = excluded.card_json,
			model = excluded.model,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, key, word, string(data), model, now, now); err != nil {
		return fmt.Errorf("failed to store card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card: %w", err)
	}
	return nil
}

// Get returns the cached card for word.
func (r *CardCacheRepository) Get(ctx context.Context, word string) (*models.GeneratedCard, bool, error) {
	key := r.Key(word)
	if key == "" {
		return nil, false, nil
	}

	var data string
	err := r.db.QueryRowContext(ctx, "SELECT card_json FROM card_cache WHERE word_normalized = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get card: %w", err)
	}

	var card models.GeneratedCard
	if err := json.Unmarshal([]byte(data), &card); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached card for %q: %w", key, err)
	}
	card.Raw = json.RawMessage(data)
	return &card, true, nil
}

// Has reports whether a card is cached for word.
func (r *CardCacheRepository) Has(ctx context.Context, word string) (bool, error) {
	key := r.Key(word)
	if key == "" {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM card_cache WHERE word_normalized = ?)", key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cache: %w", err)
	}
	return exists, nil
}

// Keys returns the set of cached keys.
func (r *CardCacheRepository) Keys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT word_normalized FROM card_cache")
	if err != nil {
		return nil, fmt.Errorf("failed to query cache keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache keys: %w", err)
	}
	return keys, nil
}

// Stats counts cached cards overall and per generating model.
func (r *CardCacheRepository) Stats(ctx context.Context) (*models.CacheStats, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT model, COUNT(*) FROM card_cache GROUP BY model ORDER BY model")
	if err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}
	defer rows.Close()

	stats := &models.CacheStats{Models: make(map[string]int)}
	for rows.Next() {
		var model string
		var n int
		if err := rows.Scan(&model, &n); err != nil {
			return nil, fmt.Errorf("failed to scan cache stats: %w", err)
		}
		stats.Models[model] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache stats: %w", err)
	}
	return stats, nil
}
