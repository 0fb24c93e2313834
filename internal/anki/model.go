// Package anki reads and writes Anki package (.apkg) files for the six-field vocabulary note type.
package anki

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const (
	DefaultDeckID   int64 = 1728801742169
	DefaultDeckName       = "AZ greek words"
	ModelID         int64 = 1722180007066
	ModelName             = "Basic"
	TemplateName          = "Card 1"
)

// FieldNames are the note type fields in order.
var FieldNames = []string{"Front", "Back", "Example", "Comment", "Collocations", "Etymology"}

const CardCSS = `.card {
    font-family: arial;
    font-size: 20px;
    text-align: center;
    color: black;
    background-color: white;
}`

// The question side shows the Greek word; the answer adds the translation and the notes.
const (
	QuestionFormat = "{{Back}}"
	AnswerFormat   = "{{FrontSide}}\n\n<hr id=answer>\n\n{{Front}}\n<hr/>\n{{Example}}\n<hr/>\n{{Comment}}\n<hr/>\n{{Collocations}}\n<hr/>\n{{Etymology}}"
)

// Deck identifies the deck notes are written into.
type Deck struct {
	ID   int64
	Name string
}

// DefaultDeck returns the main vocabulary deck.
func DefaultDeck() Deck {
	return Deck{ID: DefaultDeckID, Name: DefaultDeckName}
}

// NewDeck returns a deck whose id is derived from name.
func NewDeck(name string) Deck {
	return Deck{ID: DeckIDFromName(name), Name: name}
}

// DeckIDFromName returns a stable deck id: the first 12 hex digits of the SHA-256 of name.
func DeckIDFromName(name string) int64 {
	sum := sha256.Sum256([]byte(name))
	id, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:12], 16, 64)
	return id
}
