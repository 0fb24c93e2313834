package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/desertthunder/greekdeck/internal/matcher"
	"github.com/desertthunder/greekdeck/internal/models"
)

const (
	// BucketSize is the rank width of each [models.RangeSummary].
	BucketSize = 500

	// AutoSkipNote annotates function words skipped at import.
	AutoSkipNote = "auto-skip: function word"
)

var entryColumns = []string{"rank", "greek", "frequency", "processed", "processed_at", "notes"}

// LedgerRepository persists the frequency ledger.
//
// Status updates fall back to normalized comparison when the exact stored text
// does not match, so callers may pass display forms such as "η πόλη".
type LedgerRepository struct {
	db            *sql.DB
	normalizer    *matcher.Normalizer
	functionWords matcher.WordSet
	now           func() time.Time
}

// NewLedgerRepository creates a LedgerRepository over db.
// A nil normalizer uses [matcher.Default]; nil functionWords uses [matcher.DefaultFunctionWords].
func NewLedgerRepository(db *sql.DB, normalizer *matcher.Normalizer, functionWords []string) *LedgerRepository {
	if normalizer == nil {
		normalizer = matcher.Default()
	}
	if functionWords == nil {
		functionWords = matcher.DefaultFunctionWords
	}
	return &LedgerRepository{
		db:            db,
		normalizer:    normalizer,
		functionWords: matcher.NewWordSet(normalizer, functionWords),
		now:           time.Now,
	}
}

// ImportList inserts rows in order and reports what happened to each.
//
// Ranks are the 1-based position among rows that parsed and were not duplicates
// of an earlier row's normalized lemma. A rank already present in the ledger is
// counted as a duplicate and left untouched.
func (r *LedgerRepository) ImportList(ctx context.Context, rows []models.ImportRow, autoSkip bool) (*models.ImportStats, error) {
	stats := &models.ImportStats{}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertPending, err := tx.PrepareContext(ctx, "INSERT INTO freq_words (rank, greek, frequency) VALUES (?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertPending.Close()

	insertSkipped, err := tx.PrepareContext(ctx, `
		INSERT INTO freq_words (rank, greek, frequency, processed, processed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertSkipped.Close()

	seen := make(map[string]struct{})
	rank := 0
	now := timestamp(r.now())

	for _, row := range rows {
		stats.TotalRows++

		lemma := strings.TrimSpace(row.Lemma)
		if lemma == "" {
			stats.EmptySkipped++
			continue
		}
		frequency, err := strconv.Atoi(strings.TrimSpace(row.Frequency))
		if err != nil {
			stats.EmptySkipped++
			continue
		}

		normalized := r.normalizer.Normalize(lemma)
		if _, dup := seen[normalized]; dup {
			stats.DuplicatesSkipped++
			continue
		}
		seen[normalized] = struct{}{}
		rank++

		skip := autoSkip && r.functionWords.Has(normalized)
		if skip {
			_, err = insertSkipped.ExecContext(ctx, rank, lemma, frequency, int(models.StatusSkipped), now, AutoSkipNote)
		} else {
			_, err = insertPending.ExecContext(ctx, rank, lemma, frequency)
		}
		if isConstraintErr(err) {
			stats.DuplicatesSkipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert word %q: %w", lemma, err)
		}

		stats.Imported++
		if skip {
			stats.FunctionWordsSkipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return stats, nil
}

// MarkProcessed sets the status of word and reports whether a row holds it afterwards.
//
// Rows whose stored text equals word are updated first. Otherwise the first Pending
// row in rank order with the same normalized form is updated. Failing that, a row
// already holding status with the same normalized form has its timestamp and note
// refreshed, so repeating a call reports the same result.
func (r *LedgerRepository) MarkProcessed(ctx context.Context, word string, status models.Status, note string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp(r.now())
	result, err := tx.ExecContext(ctx,
		"UPDATE freq_words SET processed = ?, processed_at = ?, notes = ? WHERE greek = ?",
		int(status), now, nullString(note), word,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update word: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if n == 0 {
		normalized := r.normalizer.Normalize(word)
		if normalized == "" {
			return false, nil
		}

		rank, ok, err := r.findByStatus(ctx, tx, normalized, models.StatusPending)
		if err != nil {
			return false, err
		}
		if !ok && status != models.StatusPending {
			rank, ok, err = r.findByStatus(ctx, tx, normalized, status)
			if err != nil {
				return false, err
			}
		}
		if !ok {
			return false, nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE freq_words SET processed = ?, processed_at = ?, notes = ? WHERE rank = ?",
			int(status), now, nullString(note), rank,
		); err != nil {
			return false, fmt.Errorf("failed to update word: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit update: %w", err)
	}
	return true, nil
}

// findByStatus returns the lowest rank with the given status whose word normalizes to normalized.
func (r *LedgerRepository) findByStatus(ctx context.Context, tx *sql.Tx, normalized string, status models.Status) (int, bool, error) {
	words, err := r.wordsByStatus(ctx, tx, status)
	if err != nil {
		return 0, false, err
	}
	for _, w := range words {
		if r.normalizer.Normalize(w.word) == normalized {
			return w.rank, true, nil
		}
	}
	return 0, false, nil
}

type rankedWord struct {
	rank int
	word string
}

func (r *LedgerRepository) wordsByStatus(ctx context.Context, tx *sql.Tx, status models.Status) ([]rankedWord, error) {
	rows, err := tx.QueryContext(ctx, "SELECT rank, greek FROM freq_words WHERE processed = ? ORDER BY rank", int(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	var words []rankedWord
	for rows.Next() {
		var w rankedWord
		if err := rows.Scan(&w.rank, &w.word); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating words: %w", err)
	}
	return words, nil
}

// MarkManyProcessed sets status on the Pending rows matching words and returns how many were updated.
//
// One normalized index is built over Pending rows, lowest rank winning on collisions.
// Each row is updated at most once even if several words map to it.
func (r *LedgerRepository) MarkManyProcessed(ctx context.Context, words []string, status models.Status, note string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pending, err := r.wordsByStatus(ctx, tx, models.StatusPending)
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(pending))
	for _, w := range pending {
		norm := r.normalizer.Normalize(w.word)
		if _, ok := index[norm]; !ok {
			index[norm] = w.rank
		}
	}

	stmt, err := tx.PrepareContext(ctx, "UPDATE freq_words SET processed = ?, processed_at = ?, notes = ? WHERE rank = ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare update: %w", err)
	}
	defer stmt.Close()

	now := timestamp(r.now())
	updated := 0
	for _, word := range words {
		norm := r.normalizer.Normalize(word)
		rank, ok := index[norm]
		if !ok || norm == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, int(status), now, nullString(note), rank); err != nil {
			return 0, fmt.Errorf("failed to update word %q: %w", word, err)
		}
		delete(index, norm)
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit update: %w", err)
	}
	return updated, nil
}

// SkipWords marks words Skipped with a manual-skip note.
func (r *LedgerRepository) SkipWords(ctx context.Context, words []string, reason string) (int, error) {
	note := "manual skip"
	if reason != "" {
		note = "manual skip: " + reason
	}
	return r.MarkManyProcessed(ctx, words, models.StatusSkipped, note)
}

// GetRange returns entries with rank in [start, end] in rank order.
// Function words skipped at import are excluded; manually skipped words are kept.
func (r *LedgerRepository) GetRange(ctx context.Context, start, end int) ([]models.FrequencyEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From("freq_words").
		Where(sq.GtOrEq{"rank": start}).
		Where(sq.LtOrEq{"rank": end}).
		Where(sq.Expr("NOT (processed = ? AND COALESCE(notes, '') LIKE 'auto-skip%')", int(models.StatusSkipped))).
		OrderBy("rank").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryEntries(ctx, query, args...)
}

// GetPending returns Pending entries in rank order within the query's bounds.
func (r *LedgerRepository) GetPending(ctx context.Context, q models.PendingQuery) ([]models.FrequencyEntry, error) {
	builder := sq.Select(entryColumns...).
		From("freq_words").
		Where(sq.Eq{"processed": int(models.StatusPending)}).
		OrderBy("rank")
	if q.Start > 0 {
		builder = builder.Where(sq.GtOrEq{"rank": q.Start})
	}
	if q.End > 0 {
		builder = builder.Where(sq.LtOrEq{"rank": q.End})
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryEntries(ctx, query, args...)
}

// GetByWord finds an entry by exact stored text, then by normalized form in rank order.
func (r *LedgerRepository) GetByWord(ctx context.Context, word string) (models.FrequencyEntry, bool, error) {
	entries, err := r.queryEntries(ctx,
		"SELECT rank, greek, frequency, processed, processed_at, notes FROM freq_words WHERE greek = ? ORDER BY rank LIMIT 1",
		word,
	)
	if err != nil {
		return models.FrequencyEntry{}, false, err
	}
	if len(entries) > 0 {
		return entries[0], true, nil
	}

	normalized := r.normalizer.Normalize(word)
	if normalized == "" {
		return models.FrequencyEntry{}, false, nil
	}

	all, err := r.queryEntries(ctx, "SELECT rank, greek, frequency, processed, processed_at, notes FROM freq_words ORDER BY rank")
	if err != nil {
		return models.FrequencyEntry{}, false, err
	}
	for _, e := range all {
		if r.normalizer.Normalize(e.Word) == normalized {
			return e, true, nil
		}
	}
	return models.FrequencyEntry{}, false, nil
}

// MaxRank returns the highest rank in the ledger, or 0 when it is empty.
func (r *LedgerRepository) MaxRank(ctx context.Context) (int, error) {
	var maxRank sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(rank) FROM freq_words").Scan(&maxRank); err != nil {
		return 0, fmt.Errorf("failed to query max rank: %w", err)
	}
	return int(maxRank.Int64), nil
}

// StatusSummary counts entries by status overall and per [BucketSize]-wide rank bucket.
// Buckets run from rank 1 to the highest rank, including empty ones.
func (r *LedgerRepository) StatusSummary(ctx context.Context) (*models.StatusSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			(rank - 1) / ? AS bucket,
			COUNT(*),
			SUM(CASE WHEN processed = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN processed = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN processed = ? THEN 1 ELSE 0 END)
		FROM freq_words
		GROUP BY bucket
		ORDER BY bucket
	`, BucketSize, int(models.StatusInDeck), int(models.StatusPending), int(models.StatusSkipped))
	if err != nil {
		return nil, fmt.Errorf("failed to query status summary: %w", err)
	}
	defer rows.Close()

	counted := make(map[int]models.RangeSummary)
	maxBucket := -1
	summary := &models.StatusSummary{}
	for rows.Next() {
		var bucket int
		var rs models.RangeSummary
		if err := rows.Scan(&bucket, &rs.Total, &rs.InDeck, &rs.Pending, &rs.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan status summary: %w", err)
		}
		counted[bucket] = rs
		maxBucket = max(maxBucket, bucket)

		summary.Total += rs.Total
		summary.InDeck += rs.InDeck
		summary.Pending += rs.Pending
		summary.Skipped += rs.Skipped
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status summary: %w", err)
	}

	summary.Ranges = make([]models.RangeSummary, 0, maxBucket+1)
	for b := 0; b <= maxBucket; b++ {
		rs := counted[b]
		rs.Start = b*BucketSize + 1
		rs.End = rs.Start + BucketSize - 1
		summary.Ranges = append(summary.Ranges, rs)
	}
	return summary, nil
}

func (r *LedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.FrequencyEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	var entries []models.FrequencyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating words: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (models.FrequencyEntry, error) {
	var (
		e           models.FrequencyEntry
		processed   sql.NullInt64
		processedAt sql.NullString
		notes       sql.NullString
	)
	if err := rows.Scan(&e.Rank, &e.Word, &e.Frequency, &processed, &processedAt, &notes); err != nil {
		return e, fmt.Errorf("failed to scan word: %w", err)
	}
	e.Status = models.Status(processed.Int64)
	e.StatusChangedAt = parseTimestamp(processedAt)
	e.Note = notes.String
	return e, nil
}
