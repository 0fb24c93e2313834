package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with both schemas applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	for _, schema := range []shared.Schema{shared.LedgerSchema, shared.CacheSchema} {
		if err := shared.RunMigrations(db, schema); err != nil {
			db.Close()
			t.Fatalf("failed to run %s migrations: %v", schema, err)
		}
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func rowsOf(words ...string) []models.ImportRow {
	rows := make([]models.ImportRow, len(words))
	for i, w := range words {
		rows[i] = models.ImportRow{Line: i + 2, Lemma: w, Frequency: fmt.Sprint(1000 - i)}
	}
	return rows
}

func mustImport(t *testing.T, repo *LedgerRepository, rows []models.ImportRow, autoSkip bool) *models.ImportStats {
	t.Helper()
	stats, err := repo.ImportList(context.Background(), rows, autoSkip)
	if err != nil {
		t.Fatalf("ImportList failed: %v", err)
	}
	return stats
}

func mustGetByWord(t *testing.T, repo *LedgerRepository, word string) models.FrequencyEntry {
	t.Helper()
	e, ok, err := repo.GetByWord(context.Background(), word)
	if err != nil {
		t.Fatalf("GetByWord failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected %q in ledger", word)
	}
	return e
}

func TestLedgerImportList(t *testing.T) {
	ctx := context.Background()

	t.Run("stats and gap-free ranks", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		rows := []models.ImportRow{
			{Line: 2, Lemma: "και", Frequency: "1000"},
			{Line: 3, Lemma: "πόλη", Frequency: "900"},
			{Line: 4, Lemma: "", Frequency: "800"},
			{Line: 5, Lemma: "σπίτι", Frequency: "x"},
			{Line: 6, Lemma: "\u00b5ικρός", Frequency: "700"},
			{Line: 7, Lemma: "μικρός", Frequency: "600"},
			{Line: 8, Lemma: " νερό ", Frequency: " 500 "},
		}

		stats := mustImport(t, repo, rows, true)
		want := models.ImportStats{TotalRows: 7, Imported: 4, DuplicatesSkipped: 1, EmptySkipped: 2, FunctionWordsSkipped: 1}
		if *stats != want {
			t.Errorf("expected %+v, got %+v", want, *stats)
		}

		entries, err := repo.GetPending(ctx, models.PendingQuery{})
		if err != nil {
			t.Fatalf("GetPending failed: %v", err)
		}
		got := make([]string, len(entries))
		for i, e := range entries {
			got[i] = fmt.Sprintf("%d:%s", e.Rank, e.Word)
		}
		if strings.Join(got, ",") != "2:πόλη,3:\u00b5ικρός,4:νερό" {
			t.Errorf("unexpected ranks: %v", got)
		}

		kai := mustGetByWord(t, repo, "και")
		if kai.Rank != 1 || kai.Status != models.StatusSkipped || kai.Note != AutoSkipNote {
			t.Errorf("expected auto-skipped function word at rank 1, got %+v", kai)
		}
		if kai.StatusChangedAt == nil {
			t.Error("expected auto-skip timestamp")
		}
		if entries[0].StatusChangedAt != nil {
			t.Error("expected pending entry without timestamp")
		}
		if entries[2].Frequency != 500 {
			t.Errorf("expected trimmed frequency 500, got %d", entries[2].Frequency)
		}
	})

	t.Run("auto skip disabled", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		stats := mustImport(t, repo, rowsOf("και", "πόλη"), false)

		if stats.FunctionWordsSkipped != 0 || stats.Imported != 2 {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if e := mustGetByWord(t, repo, "και"); e.Status != models.StatusPending {
			t.Errorf("expected pending, got %v", e.Status)
		}
	})

	t.Run("confusable duplicate keeps first row", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		stats := mustImport(t, repo, rowsOf("λόγoς", "λόγος", "χρόνος"), false)

		if stats.Imported != 2 || stats.DuplicatesSkipped != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
		e := mustGetByWord(t, repo, "λόγος")
		if e.Word != "λόγoς" || e.Rank != 1 {
			t.Errorf("expected first-seen spelling at rank 1, got %+v", e)
		}
		if c := mustGetByWord(t, repo, "χρόνος"); c.Rank != 2 {
			t.Errorf("expected rank 2 after duplicate, got %d", c.Rank)
		}
	})

	t.Run("existing ranks are never overwritten", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "νερό"), true)

		if _, err := repo.MarkProcessed(ctx, "πόλη", models.StatusInDeck, "sync"); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		stats := mustImport(t, repo, rowsOf("θάλασσα", "βουνό", "δάσος"), true)
		if stats.Imported != 1 || stats.DuplicatesSkipped != 2 {
			t.Errorf("unexpected stats: %+v", stats)
		}

		e := mustGetByWord(t, repo, "πόλη")
		if e.Rank != 1 || e.Status != models.StatusInDeck {
			t.Errorf("expected rank 1 untouched, got %+v", e)
		}
		if _, ok, _ := repo.GetByWord(ctx, "θάλασσα"); ok {
			t.Error("expected colliding row not imported")
		}
		if d := mustGetByWord(t, repo, "δάσος"); d.Rank != 3 {
			t.Errorf("expected δάσος at rank 3, got %d", d.Rank)
		}
	})
}

func TestLedgerMarkProcessed(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *LedgerRepository {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "νερό", "σπίτι"), true)
		return repo
	}

	t.Run("exact match", func(t *testing.T) {
		repo := setup(t)
		ok, err := repo.MarkProcessed(ctx, "νερό", models.StatusInDeck, "added")
		if err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
		if !ok {
			t.Fatal("expected update")
		}
		e := mustGetByWord(t, repo, "νερό")
		if e.Status != models.StatusInDeck || e.Note != "added" || e.StatusChangedAt == nil {
			t.Errorf("unexpected entry: %+v", e)
		}
	})

	t.Run("normalized fallback", func(t *testing.T) {
		repo := setup(t)
		ok, err := repo.MarkProcessed(ctx, "<b>Η</b> Πόλη", models.StatusInDeck, "")
		if err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
		if !ok {
			t.Fatal("expected normalized match")
		}
		if e := mustGetByWord(t, repo, "πόλη"); e.Status != models.StatusInDeck {
			t.Errorf("expected in deck, got %v", e.Status)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, word := range []string{"σπίτι", "το σπίτι"} {
			t.Run(word, func(t *testing.T) {
				repo := setup(t)
				first, err := repo.MarkProcessed(ctx, word, models.StatusSkipped, "manual skip")
				if err != nil {
					t.Fatalf("first call failed: %v", err)
				}

				later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
				repo.now = func() time.Time { return later }

				second, err := repo.MarkProcessed(ctx, word, models.StatusSkipped, "manual skip")
				if err != nil {
					t.Fatalf("second call failed: %v", err)
				}
				if !first || !second {
					t.Errorf("expected both calls to report success, got %v and %v", first, second)
				}

				e := mustGetByWord(t, repo, "σπίτι")
				if e.Status != models.StatusSkipped {
					t.Errorf("expected skipped, got %v", e.Status)
				}
				if e.StatusChangedAt == nil || !e.StatusChangedAt.Equal(later) {
					t.Errorf("expected refreshed timestamp, got %v", e.StatusChangedAt)
				}
			})
		}
	})

	t.Run("different status is not a refresh", func(t *testing.T) {
		repo := setup(t)
		if _, err := repo.MarkProcessed(ctx, "η πόλη", models.StatusInDeck, ""); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
		ok, err := repo.MarkProcessed(ctx, "η πόλη", models.StatusSkipped, "")
		if err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
		if ok {
			t.Error("expected no Pending or Skipped row to match")
		}
		if e := mustGetByWord(t, repo, "πόλη"); e.Status != models.StatusInDeck {
			t.Errorf("expected status unchanged, got %v", e.Status)
		}
	})

	t.Run("first pending row in rank order wins", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewLedgerRepository(db, nil, nil)
		if _, err := db.Exec("INSERT INTO freq_words (rank, greek, frequency) VALUES (10, 'Λόγος', 5), (11, 'λόγος', 4)"); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		ok, err := repo.MarkProcessed(ctx, "ο λόγος", models.StatusInDeck, "")
		if err != nil || !ok {
			t.Fatalf("expected match, got %v, %v", ok, err)
		}

		pending, err := repo.GetPending(ctx, models.PendingQuery{})
		if err != nil {
			t.Fatalf("GetPending failed: %v", err)
		}
		if len(pending) != 1 || pending[0].Rank != 11 {
			t.Errorf("expected rank 11 left pending, got %+v", pending)
		}
	})

	t.Run("no match", func(t *testing.T) {
		repo := setup(t)
		for _, word := range []string{"θάλασσα", "", "<br>"} {
			ok, err := repo.MarkProcessed(ctx, word, models.StatusInDeck, "")
			if err != nil {
				t.Fatalf("MarkProcessed(%q) failed: %v", word, err)
			}
			if ok {
				t.Errorf("expected no match for %q", word)
			}
		}
	})
}

func TestLedgerMarkManyProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("counts each row once", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "νερό", "σπίτι"), true)

		n, err := repo.MarkManyProcessed(ctx, []string{"πόλη", "η πόλη", "ΝΕΡΟ", "νερό", "άγνωστο", ""}, models.StatusInDeck, "sync: found in APKG")
		if err != nil {
			t.Fatalf("MarkManyProcessed failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 updates, got %d", n)
		}

		if e := mustGetByWord(t, repo, "νερό"); e.Status != models.StatusInDeck {
			t.Errorf("expected νερό in deck, got %v", e.Status)
		}
		if e := mustGetByWord(t, repo, "σπίτι"); e.Status != models.StatusPending {
			t.Errorf("expected σπίτι pending, got %v", e.Status)
		}
	})

	t.Run("only pending rows", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("και", "πόλη"), true)

		n, err := repo.MarkManyProcessed(ctx, []string{"και", "πόλη"}, models.StatusInDeck, "")
		if err != nil {
			t.Fatalf("MarkManyProcessed failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 update, got %d", n)
		}
		if e := mustGetByWord(t, repo, "και"); e.Status != models.StatusSkipped {
			t.Errorf("expected function word to stay skipped, got %v", e.Status)
		}
	})

	t.Run("SkipWords", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "νερό"), true)

		n, err := repo.SkipWords(ctx, []string{"πόλη"}, "too easy")
		if err != nil {
			t.Fatalf("SkipWords failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 skipped, got %d", n)
		}
		if e := mustGetByWord(t, repo, "πόλη"); e.Note != "manual skip: too easy" {
			t.Errorf("unexpected note %q", e.Note)
		}

		if _, err := repo.SkipWords(ctx, []string{"νερό"}, ""); err != nil {
			t.Fatalf("SkipWords failed: %v", err)
		}
		if e := mustGetByWord(t, repo, "νερό"); e.Note != "manual skip" {
			t.Errorf("unexpected note %q", e.Note)
		}
	})
}

func TestLedgerQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("GetRange excludes auto-skipped only", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("και", "πόλη", "νερό", "σπίτι", "βουνό"), true)

		if _, err := repo.SkipWords(ctx, []string{"νερό"}, ""); err != nil {
			t.Fatalf("SkipWords failed: %v", err)
		}
		if _, err := repo.MarkProcessed(ctx, "σπίτι", models.StatusSkipped, ""); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		entries, err := repo.GetRange(ctx, 1, 4)
		if err != nil {
			t.Fatalf("GetRange failed: %v", err)
		}
		var words []string
		for _, e := range entries {
			words = append(words, e.Word)
		}
		if strings.Join(words, ",") != "πόλη,νερό,σπίτι" {
			t.Errorf("unexpected range: %v", words)
		}
	})

	t.Run("GetPending bounds", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "νερό", "σπίτι", "βουνό", "δάσος"), true)

		tests := []struct {
			name  string
			query models.PendingQuery
			ranks []int
		}{
			{"unbounded", models.PendingQuery{}, []int{1, 2, 3, 4, 5}},
			{"start", models.PendingQuery{Start: 4}, []int{4, 5}},
			{"end", models.PendingQuery{End: 2}, []int{1, 2}},
			{"range and limit", models.PendingQuery{Start: 2, End: 5, Limit: 2}, []int{2, 3}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				entries, err := repo.GetPending(ctx, tt.query)
				if err != nil {
					t.Fatalf("GetPending failed: %v", err)
				}
				if len(entries) != len(tt.ranks) {
					t.Fatalf("expected %d entries, got %d", len(tt.ranks), len(entries))
				}
				for i, e := range entries {
					if e.Rank != tt.ranks[i] {
						t.Errorf("entry %d: expected rank %d, got %d", i, tt.ranks[i], e.Rank)
					}
				}
			})
		}
	})

	t.Run("GetByWord", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)
		mustImport(t, repo, rowsOf("πόλη", "λόγoς"), true)

		if e := mustGetByWord(t, repo, "η Πόλη"); e.Rank != 1 {
			t.Errorf("expected rank 1, got %d", e.Rank)
		}
		if e := mustGetByWord(t, repo, "λόγος"); e.Rank != 2 {
			t.Errorf("expected rank 2, got %d", e.Rank)
		}
		if _, ok, err := repo.GetByWord(ctx, "θάλασσα"); err != nil || ok {
			t.Errorf("expected absent, got %v, %v", ok, err)
		}
	})

	t.Run("StatusSummary", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)

		words := make([]string, 1001)
		for i := range words {
			words[i] = fmt.Sprintf("λέξη%d", i+1)
		}
		mustImport(t, repo, rowsOf(words...), true)

		if _, err := repo.MarkManyProcessed(ctx, []string{"λέξη1", "λέξη2", "λέξη501"}, models.StatusInDeck, ""); err != nil {
			t.Fatalf("MarkManyProcessed failed: %v", err)
		}
		if _, err := repo.SkipWords(ctx, []string{"λέξη1001"}, ""); err != nil {
			t.Fatalf("SkipWords failed: %v", err)
		}

		summary, err := repo.StatusSummary(ctx)
		if err != nil {
			t.Fatalf("StatusSummary failed: %v", err)
		}
		if summary.Total != 1001 || summary.InDeck != 3 || summary.Skipped != 1 || summary.Pending != 997 {
			t.Errorf("unexpected totals: %+v", summary)
		}
		if len(summary.Ranges) != 3 {
			t.Fatalf("expected 3 buckets, got %d", len(summary.Ranges))
		}

		want := []models.RangeSummary{
			{Start: 1, End: 500, Total: 500, InDeck: 2, Pending: 498},
			{Start: 501, End: 1000, Total: 500, InDeck: 1, Pending: 499},
			{Start: 1001, End: 1500, Total: 1, Skipped: 1},
		}
		for i, w := range want {
			if summary.Ranges[i] != w {
				t.Errorf("bucket %d: expected %+v, got %+v", i, w, summary.Ranges[i])
			}
		}
	})

	t.Run("StatusSummary includes empty buckets", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewLedgerRepository(db, nil, nil)
		if _, err := db.Exec("INSERT INTO freq_words (rank, greek, frequency) VALUES (1, 'α', 1), (1200, 'β', 1)"); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		summary, err := repo.StatusSummary(ctx)
		if err != nil {
			t.Fatalf("StatusSummary failed: %v", err)
		}
		if len(summary.Ranges) != 3 || summary.Ranges[1].Total != 0 || summary.Ranges[1].Start != 501 {
			t.Errorf("unexpected ranges: %+v", summary.Ranges)
		}
	})

	t.Run("empty ledger", func(t *testing.T) {
		repo := NewLedgerRepository(setupTestDB(t), nil, nil)

		maxRank, err := repo.MaxRank(ctx)
		if err != nil || maxRank != 0 {
			t.Errorf("expected 0, got %d (%v)", maxRank, err)
		}
		summary, err := repo.StatusSummary(ctx)
		if err != nil {
			t.Fatalf("StatusSummary failed: %v", err)
		}
		if summary.Total != 0 || len(summary.Ranges) != 0 {
			t.Errorf("expected empty summary, got %+v", summary)
		}
	})
}

func TestLedgerStorageErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewLedgerRepository(db, nil, nil)
	db.Close()

	if _, err := repo.ImportList(ctx, rowsOf("πόλη"), true); err == nil {
		t.Error("expected ImportList error on closed database")
	}
	if _, err := repo.MarkProcessed(ctx, "πόλη", models.StatusInDeck, ""); err == nil {
		t.Error("expected MarkProcessed error on closed database")
	}
	if _, err := repo.MarkManyProcessed(ctx, []string{"πόλη"}, models.StatusInDeck, ""); err == nil {
		t.Error("expected MarkManyProcessed error on closed database")
	}
	if _, err := repo.GetRange(ctx, 1, 10); err == nil {
		t.Error("expected GetRange error on closed database")
	}
	if _, err := repo.StatusSummary(ctx); err == nil {
		t.Error("expected StatusSummary error on closed database")
	}
}
