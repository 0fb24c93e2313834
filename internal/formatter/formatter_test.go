package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

func testNotes() []models.Note {
	return []models.Note{
		{
			ID:           1700000000001,
			GUID:         "g1",
			Front:        "<div>город</div><div><br></div><div>city</div>",
			Back:         "η πόλη",
			Example:      "<li><strong>Η <em>πόλη</em> είναι μεγάλη.</strong> Город большой.</li>",
			Collocations: "<li><strong>μεγάλη πόλη</strong></li>",
			Tags:         []string{"auto-generated", "pos::noun"},
		},
		{
			ID:    1700000000002,
			Front: "вода, water",
			Back:  "το νερό",
		},
	}
}

func testCard() *models.GeneratedCard {
	return &models.GeneratedCard{
		FrontRU:      "город",
		FrontEN:      "city & town",
		Back:         "η πόλη",
		PartOfSpeech: "noun",
		Examples: []models.Example{
			{Greek: "Η <em>πόλη</em> <b>είναι</b> μεγάλη.", Russian: "Город <большой>."},
			{Greek: "Ζω στην <em>πόλη</em>.", Russian: "Я живу в городе."},
		},
		Conjugation:   "η πόλη, της πόλης",
		Synonyms:      []models.Synonym{{Word: "το άστυ", Distinction: "literary"}, {Word: "η κωμόπολη", Distinction: "small town"}},
		EtymologyNote: "from Ancient Greek πόλις",
		Collocations:  []string{"μεγάλη πόλη", "κέντρο της πόλης"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportNotesCSV", func(t *testing.T) {
		data, err := ExportNotesCSV(testNotes())
		if err != nil {
			t.Fatalf("ExportNotesCSV failed: %v", err)
		}

		output := string(data)
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if lines[0] != "note_id,front,back,example,comment,collocations,etymology,tags" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.Contains(output, "1700000000001") {
			t.Errorf("CSV missing note id")
		}
		if !strings.Contains(output, "auto-generated pos::noun") {
			t.Errorf("CSV missing space separated tags")
		}
		if !strings.Contains(output, `"вода, water"`) {
			t.Errorf("expected quoted field with comma, got: %s", output)
		}
	})

	t.Run("ExportNotesMarkdown", func(t *testing.T) {
		data, err := ExportNotesMarkdown(testNotes())
		if err != nil {
			t.Fatalf("ExportNotesMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Deck export",
			"**Notes**: 2",
			"## 1. η πόλη",
			"- город",
			"- city",
			"- Η πόλη είναι μεγάλη. Город большой.",
			"*Tags*: auto-generated, pos::noun",
			"## 2. το νερό",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "<strong>") {
			t.Error("expected markup stripped")
		}
		if strings.Contains(output, "**Etymology**") {
			t.Error("expected empty fields omitted")
		}
	})

	t.Run("ExportNotesText", func(t *testing.T) {
		data, err := ExportNotesText(testNotes())
		if err != nil {
			t.Fatalf("ExportNotesText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Notes: 2") {
			t.Errorf("missing count, got: %s", output)
		}
		if !strings.Contains(output, "1. η πόλη - город / city") {
			t.Errorf("missing first note, got: %s", output)
		}
		if !strings.Contains(output, "2. το νερό - вода, water") {
			t.Errorf("missing second note, got: %s", output)
		}
	})

	t.Run("PendingCSV", func(t *testing.T) {
		data, err := PendingCSV([]models.FrequencyEntry{{Rank: 3, Word: "πόλη", Frequency: 120}, {Rank: 9, Word: "νερό", Frequency: 80}})
		if err != nil {
			t.Fatalf("PendingCSV failed: %v", err)
		}
		want := "rank,greek,frequency\n3,πόλη,120\n9,νερό,80\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, string(data))
		}
	})
}

func TestWriteExport(t *testing.T) {
	tests := []struct {
		format ExportFormat
		want   string
	}{
		{FormatCSV, "note_id,front"},
		{FormatMarkdown, "# Deck export"},
		{FormatText, "Notes: 2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "export")
			written, err := WriteExport(testNotes(), tt.format, path)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if written != path {
				t.Errorf("expected %s, got %s", path, written)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read export: %v", err)
			}
			if !strings.HasPrefix(string(data), tt.want) {
				t.Errorf("expected prefix %q, got %q", tt.want, string(data))
			}
		})
	}

	t.Run("default path", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		written, err := WriteExport(testNotes(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "cards.md" {
			t.Errorf("expected cards.md, got %s", written)
		}
		if _, err := os.Stat(filepath.Join(dir, "cards.md")); err != nil {
			t.Errorf("expected file written: %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := WriteExport(testNotes(), ExportFormat("pdf"), filepath.Join(t.TempDir(), "x"))
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"", FormatCSV, false},
		{"Markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"txt", FormatText, false},
		{"text", FormatText, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestRenderCard(t *testing.T) {
	note := RenderCard(testCard())

	t.Run("Front", func(t *testing.T) {
		want := "<div>город</div><div><br></div><div>city &amp; town</div>"
		if note.Front != want {
			t.Errorf("expected %q, got %q", want, note.Front)
		}
	})

	t.Run("Back is the word", func(t *testing.T) {
		if note.Back != "η πόλη" {
			t.Errorf("expected back, got %q", note.Back)
		}
	})

	t.Run("Example keeps only em", func(t *testing.T) {
		want := "<li><strong>Η <em>πόλη</em> &lt;b&gt;είναι&lt;/b&gt; μεγάλη.</strong> Город &lt;большой&gt;.</li>\n" +
			"<li><strong>Ζω στην <em>πόλη</em>.</strong> Я живу в городе.</li>"
		if note.Example != want {
			t.Errorf("expected %q, got %q", want, note.Example)
		}
	})

	t.Run("Comment", func(t *testing.T) {
		want := "<div>η πόλη, της πόλης</div>\n<div><br></div>\n" +
			"<div><li><strong>το άστυ</strong>: literary</li>\n<li><strong>η κωμόπολη</strong>: small town</li></div>"
		if note.Comment != want {
			t.Errorf("expected %q, got %q", want, note.Comment)
		}
	})

	t.Run("Collocations and etymology", func(t *testing.T) {
		if note.Collocations != "<li><strong>μεγάλη πόλη</strong></li><li><strong>κέντρο της πόλης</strong></li>" {
			t.Errorf("unexpected collocations %q", note.Collocations)
		}
		if note.Etymology != "<em>from Ancient Greek πόλις</em>" {
			t.Errorf("unexpected etymology %q", note.Etymology)
		}
	})

	t.Run("Empty optional fields", func(t *testing.T) {
		n := RenderCard(&models.GeneratedCard{FrontRU: "вода", FrontEN: "water", Back: "το νερό"})
		if n.Example != "" || n.Comment != "" || n.Collocations != "" || n.Etymology != "" {
			t.Errorf("expected empty optional fields, got %+v", n)
		}
	})

	t.Run("Synonyms without conjugation", func(t *testing.T) {
		n := RenderCard(&models.GeneratedCard{Synonyms: []models.Synonym{{Word: "a", Distinction: "b"}}})
		if n.Comment != "<div><li><strong>a</strong>: b</li></div>" {
			t.Errorf("unexpected comment %q", n.Comment)
		}
	})
}

func TestCardPreview(t *testing.T) {
	t.Run("All sections", func(t *testing.T) {
		sections := PreviewSections(testCard())
		var titles []string
		for _, s := range sections {
			titles = append(titles, s.Title)
		}
		want := "Front (translations),Back (Greek),Examples,Comment,Collocations,Etymology"
		if strings.Join(titles, ",") != want {
			t.Errorf("expected %s, got %s", want, strings.Join(titles, ","))
		}
		if sections[1].Body != "η πόλη\nnoun" {
			t.Errorf("unexpected back section %q", sections[1].Body)
		}
		if !strings.HasPrefix(sections[2].Body, "1. Η πόλη είναι μεγάλη.\n   Город <большой>.") {
			t.Errorf("unexpected examples section %q", sections[2].Body)
		}
	})

	t.Run("Minimal card", func(t *testing.T) {
		sections := PreviewSections(&models.GeneratedCard{FrontRU: "вода", FrontEN: "water", Back: "το νερό"})
		if len(sections) != 2 {
			t.Errorf("expected 2 sections, got %d", len(sections))
		}
	})

	t.Run("Text", func(t *testing.T) {
		out := CardPreview(testCard())
		for _, want := range []string{"== Front (translations) ==", "город", "== Etymology ==", "  • το άστυ: literary"} {
			if !strings.Contains(out, want) {
				t.Errorf("preview missing %q:\n%s", want, out)
			}
		}
	})
}

func TestReadFrequencyCSV(t *testing.T) {
	t.Run("Rows after header", func(t *testing.T) {
		input := "lemma,frequency,extra\nκαι,5000,x\n\"η πόλη\",120\nμόνο\n,7\n"
		rows, err := ReadFrequencyCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadFrequencyCSV failed: %v", err)
		}
		want := []models.ImportRow{
			{Line: 2, Lemma: "και", Frequency: "5000"},
			{Line: 3, Lemma: "η πόλη", Frequency: "120"},
			{Line: 4, Lemma: "μόνο"},
			{Line: 5, Lemma: "", Frequency: "7"},
		}
		if len(rows) != len(want) {
			t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
		}
		for i := range want {
			if rows[i] != want[i] {
				t.Errorf("row %d: expected %+v, got %+v", i, want[i], rows[i])
			}
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		rows, err := ReadFrequencyCSV(strings.NewReader(""))
		if err != nil || len(rows) != 0 {
			t.Errorf("expected no rows, got %v, %v", rows, err)
		}
	})

	t.Run("Header only", func(t *testing.T) {
		rows, err := ReadFrequencyCSV(strings.NewReader("lemma,frequency\n"))
		if err != nil || len(rows) != 0 {
			t.Errorf("expected no rows, got %v, %v", rows, err)
		}
	})
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<div>a</div><div><br></div><div>b</div>", "a\nb"},
		{"x&nbsp;&amp;&nbsp;y", "x & y"},
		{"<li><strong>w</strong>: d</li><li>e</li>", "w: d\ne"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
