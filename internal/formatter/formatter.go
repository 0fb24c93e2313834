// package formatter converts between the tool's data and its text formats: frequency list CSV in,
// card HTML, terminal previews and note exports out.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// ExportFormat names an output format for [WriteExport].
type ExportFormat string

const (
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "markdown"
	FormatText     ExportFormat = "txt"
)

var defaultExportFiles = map[ExportFormat]string{
	FormatCSV:      "cards.csv",
	FormatMarkdown: "cards.md",
	FormatText:     "cards.txt",
}

// ParseExportFormat accepts csv, markdown (or md) and txt (or text).
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

var (
	breakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</div>|</p>|</li>`)
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
)

// PlainText strips markup from an Anki field, keeping line breaks.
func PlainText(field string) string {
	text := breakPattern.ReplaceAllString(field, "\n")
	text = html.UnescapeString(tagPattern.ReplaceAllString(text, ""))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// ExportNotesCSV writes notes with columns note_id, front, back, example, comment, collocations, etymology, tags.
func ExportNotesCSV(notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"note_id", "front", "back", "example", "comment", "collocations", "etymology", "tags"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, n := range notes {
		record := []string{
			strconv.FormatInt(n.ID, 10),
			n.Front,
			n.Back,
			n.Example,
			n.Comment,
			n.Collocations,
			n.Etymology,
			strings.Join(n.Tags, " "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportNotesMarkdown renders notes as a Markdown document, one section per note.
func ExportNotesMarkdown(notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Deck export\n\n")
	buf.WriteString(fmt.Sprintf("**Notes**: %d\n\n", len(notes)))

	for i, n := range notes {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, PlainText(n.Back)))
		for _, f := range []struct{ label, value string }{
			{"Translation", n.Front},
			{"Examples", n.Example},
			{"Comment", n.Comment},
			{"Collocations", n.Collocations},
			{"Etymology", n.Etymology},
		} {
			text := PlainText(f.value)
			if text == "" {
				continue
			}
			buf.WriteString(fmt.Sprintf("**%s**:\n\n", f.label))
			for _, line := range strings.Split(text, "\n") {
				buf.WriteString("- " + line + "\n")
			}
			buf.WriteString("\n")
		}
		if len(n.Tags) > 0 {
			buf.WriteString(fmt.Sprintf("*Tags*: %s\n\n", strings.Join(n.Tags, ", ")))
		}
	}

	return buf.Bytes(), nil
}

// ExportNotesText renders one line per note: the Greek word and its translation.
func ExportNotesText(notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Notes: %d\n\n", len(notes)))
	for i, n := range notes {
		front := strings.ReplaceAll(PlainText(n.Front), "\n", " / ")
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, PlainText(n.Back), front))
	}

	return buf.Bytes(), nil
}

// WriteExport renders notes in format and writes them to path.
//
// Defaults to cards.csv, cards.md or cards.txt in the working directory.
func WriteExport(notes []models.Note, format ExportFormat, path string) (string, error) {
	if path == "" {
		path = defaultExportFiles[format]
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = ExportNotesCSV(notes)
	case FormatMarkdown:
		data, err = ExportNotesMarkdown(notes)
	case FormatText:
		data, err = ExportNotesText(notes)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// PendingCSV renders ledger entries with columns rank, greek, frequency.
func PendingCSV(entries []models.FrequencyEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"rank", "greek", "frequency"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{strconv.Itoa(e.Rank), e.Word, strconv.Itoa(e.Frequency)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}
