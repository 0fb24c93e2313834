package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadPending Phase = iota
	MatchDeck
	GenerateCards
	WritePackage
	MarkLedger
	ScanCoverage
)

func (p Phase) String() string {
	switch p {
	case LoadPending:
		return "load_pending"
	case MatchDeck:
		return "match_deck"
	case GenerateCards:
		return "generate_cards"
	case WritePackage:
		return "write_package"
	case MarkLedger:
		return "mark_ledger"
	case ScanCoverage:
		return "scan_coverage"
	default:
		return ""
	}
}

func loadPendingUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPending,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d pending words", count),
	}
}

func matchDeckUpdate(step, total int, word string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchDeck,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Matching %s...", step, total, word),
	}
}

func generateUpdate(step, total int, word string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateCards,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, word),
	}
}

func wordDoneUpdate(step, total int, res WordResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s %s", step, total, res.Outcome.Symbol(), res.Word)
	if res.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, res.Err)
	}
	return ProgressUpdate{
		Phase:   GenerateCards,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func writePackageUpdate(path string, notes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePackage,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d note(s) to %s...", notes, path),
	}
}

func markLedgerUpdate(count int, status string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MarkLedger,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Marking %d word(s) as %s...", count, status),
	}
}

func coverageUpdate(step, total, start, end int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanCoverage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Scanning ranks %d-%d...", start, end),
	}
}
