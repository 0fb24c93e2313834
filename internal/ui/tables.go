package ui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/greekdeck/internal/models"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.help).
		Headers(headers...)
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// StatusTable renders ledger counts per rank bucket followed by the totals.
func StatusTable(s *models.StatusSummary) string {
	rows := make([][]string, 0, len(s.Ranges)+1)
	coverage := make([]float64, 0, len(s.Ranges)+1)
	for _, r := range s.Ranges {
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", r.Start, r.End),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.InDeck),
			strconv.Itoa(r.Pending),
			strconv.Itoa(r.Skipped),
			percent(r.Coverage()),
		})
		coverage = append(coverage, r.Coverage())
	}

	total := models.RangeSummary{Total: s.Total, InDeck: s.InDeck, Pending: s.Pending, Skipped: s.Skipped}
	rows = append(rows, []string{
		"all",
		strconv.Itoa(s.Total),
		strconv.Itoa(s.InDeck),
		strconv.Itoa(s.Pending),
		strconv.Itoa(s.Skipped),
		percent(total.Coverage()),
	})
	coverage = append(coverage, total.Coverage())

	return newTable("Ranks", "Total", "In deck", "Pending", "Skipped", "Coverage").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.header
			case col == 5:
				return CoverageStyle(coverage[row]).Padding(0, 1)
			default:
				return styles.cell
			}
		}).
		Render()
}

// PendingTable renders pending words in rank order.
func PendingTable(entries []models.FrequencyEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(e.Rank), e.Word, strconv.Itoa(e.Frequency)}
	}
	return newTable("Rank", "Greek", "Frequency").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		Render()
}

// CoverageTable renders cached cards per rank bucket.
func CoverageTable(buckets []models.CoverageBucket) string {
	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{
			fmt.Sprintf("%d-%d", b.Start, b.End),
			strconv.Itoa(b.Words),
			strconv.Itoa(b.Cached),
			percent(b.Coverage()),
		}
	}
	return newTable("Ranks", "Words", "Cached", "Coverage").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.header
			case col == 3:
				return CoverageStyle(buckets[row].Coverage()).Padding(0, 1)
			default:
				return styles.cell
			}
		}).
		Render()
}

// CacheTable renders cached card counts per model.
func CacheTable(stats *models.CacheStats) string {
	names := make([]string, 0, len(stats.Models))
	for name := range stats.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		label := name
		if label == "" {
			label = "(unknown)"
		}
		rows = append(rows, []string{label, strconv.Itoa(stats.Models[name])})
	}
	rows = append(rows, []string{"all", strconv.Itoa(stats.Total)})

	return newTable("Model", "Cards").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		Render()
}
