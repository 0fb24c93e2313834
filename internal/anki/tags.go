package anki

import (
	"fmt"
	"strings"
	"time"
)

const (
	TagAutoGenerated = "auto-generated"
	TagBatch         = "source::batch"
	TagBuildDeck     = "source::build-deck"
	TagEnriched      = "enriched"
	TagRefreshed     = "refreshed"

	// BandWidth is the number of ranks covered by one frequency band tag.
	BandWidth = 500
)

// FrequencyBandTag returns the freq:: tag of the band holding rank, e.g. "freq::501-1000".
func FrequencyBandTag(rank int) string {
	if rank < 1 {
		return ""
	}
	start := ((rank-1)/BandWidth)*BandWidth + 1
	return RangeTag(start, start+BandWidth-1)
}

// RangeTag returns the freq:: tag for an explicit rank range.
func RangeTag(start, end int) string {
	return fmt.Sprintf("freq::%d-%d", start, end)
}

// AddedTag returns the added:: tag for the month of t.
func AddedTag(t time.Time) string {
	return "added::" + t.Format("2006-01")
}

// POSTag returns the pos:: tag for a part of speech, or "" when pos is empty.
func POSTag(pos string) string {
	pos = sanitizeTag(pos)
	if pos == "" {
		return ""
	}
	return "pos::" + pos
}

// MergeTags appends extra to existing, dropping empties and duplicates while keeping order.
func MergeTags(existing []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	merged := make([]string, 0, len(existing)+len(extra))
	for _, group := range [][]string{existing, extra} {
		for _, tag := range group {
			tag = sanitizeTag(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

// Anki separates tags with spaces, so inner whitespace becomes an underscore.
func sanitizeTag(tag string) string {
	return strings.Join(strings.Fields(tag), "_")
}
