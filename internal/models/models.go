package models

import (
	"fmt"
	"time"
)

// Status is the processing state of a [FrequencyEntry].
//
// Values are persisted in the processed column and must not be renumbered.
type Status int

const (
	StatusPending Status = iota
	StatusInDeck
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInDeck:
		return "in_anki"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus parses the name produced by [Status.String].
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "in_anki", "in_deck":
		return StatusInDeck, nil
	case "skipped":
		return StatusSkipped, nil
	default:
		return 0, fmt.Errorf("unknown status: %q", s)
	}
}

// FrequencyEntry is one word of the imported frequency list.
type FrequencyEntry struct {
	Rank            int        `json:"rank"`
	Word            string     `json:"greek"`
	Frequency       int        `json:"frequency"`
	Status          Status     `json:"status"`
	StatusChangedAt *time.Time `json:"processed_at,omitempty"`
	Note            string     `json:"notes,omitempty"`
}

// ImportRow is a raw frequency list row before parsing.
type ImportRow struct {
	Line      int
	Lemma     string
	Frequency string
}

// ImportStats reports what an import did with each row.
type ImportStats struct {
	TotalRows            int `json:"total_rows"`
	Imported             int `json:"imported"`
	DuplicatesSkipped    int `json:"duplicates_skipped"`
	EmptySkipped         int `json:"empty_skipped"`
	FunctionWordsSkipped int `json:"function_words_skipped"`
}

// PendingQuery bounds a pending-word query. Zero values are unbounded.
type PendingQuery struct {
	Start int
	End   int
	Limit int
}

// RangeSummary holds per-status counts for one rank bucket.
type RangeSummary struct {
	Start   int `json:"start"`
	End     int `json:"end"`
	Total   int `json:"total"`
	InDeck  int `json:"in_anki"`
	Pending int `json:"pending"`
	Skipped int `json:"skipped"`
}

// Coverage returns the percentage of the bucket already in the deck.
func (r RangeSummary) Coverage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.InDeck) / float64(r.Total) * 100
}

// StatusSummary aggregates the ledger by status.
type StatusSummary struct {
	Total   int            `json:"total"`
	InDeck  int            `json:"in_anki"`
	Pending int            `json:"pending"`
	Skipped int            `json:"skipped"`
	Ranges  []RangeSummary `json:"ranges"`
}

// Decision is a reviewer's verdict on a generated card.
type Decision int

const (
	DecisionAccept Decision = iota
	DecisionRegenerate
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionRegenerate:
		return "regenerate"
	case DecisionSkip:
		return "skip"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// CoverageBucket counts the cached cards for one rank range.
type CoverageBucket struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Words  int `json:"words"`
	Cached int `json:"cached"`
}

// Coverage returns the percentage of words in the bucket with a cached card.
func (b CoverageBucket) Coverage() float64 {
	if b.Words == 0 {
		return 0
	}
	return float64(b.Cached) / float64(b.Words) * 100
}
