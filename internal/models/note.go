package models

import "encoding/json"

// FieldCount is the number of fields in the deck's note type.
const FieldCount = 6

// Note is one flashcard note. Back holds the Greek word and is the field matched against the ledger.
type Note struct {
	ID           int64    `json:"note_id"`
	GUID         string   `json:"guid"`
	Front        string   `json:"front"`
	Back         string   `json:"back"`
	Example      string   `json:"example"`
	Comment      string   `json:"comment"`
	Collocations string   `json:"collocations"`
	Etymology    string   `json:"etymology"`
	Tags         []string `json:"tags"`
}

// Fields returns the note fields in note type order.
func (n Note) Fields() []string {
	return []string{n.Front, n.Back, n.Example, n.Comment, n.Collocations, n.Etymology}
}

// NoteFromFields builds a note from fields in note type order, padding missing fields.
func NoteFromFields(id int64, guid string, fields []string, tags []string) Note {
	padded := make([]string, FieldCount)
	copy(padded, fields)
	return Note{
		ID:           id,
		GUID:         guid,
		Front:        padded[0],
		Back:         padded[1],
		Example:      padded[2],
		Comment:      padded[3],
		Collocations: padded[4],
		Etymology:    padded[5],
		Tags:         tags,
	}
}

// Example is a Greek sentence with its translation.
type Example struct {
	Greek   string `json:"greek"`
	Russian string `json:"russian"`
}

// Synonym is a related word with how it differs.
type Synonym struct {
	Word        string `json:"word"`
	Distinction string `json:"distinction"`
}

// Usage is the token usage of one generation call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// GeneratedCard is structured card content for one word.
type GeneratedCard struct {
	FrontRU       string    `json:"front_ru"`
	FrontEN       string    `json:"front_en"`
	Back          string    `json:"back"`
	PartOfSpeech  string    `json:"part_of_speech"`
	Examples      []Example `json:"examples"`
	Conjugation   string    `json:"conjugation"`
	Synonyms      []Synonym `json:"synonyms"`
	EtymologyNote string    `json:"etymology_note"`
	Collocations  []string  `json:"collocations"`

	Usage Usage           `json:"-"`
	Raw   json.RawMessage `json:"-"`
}

// CacheStats summarizes the card cache.
type CacheStats struct {
	Total  int            `json:"total"`
	Models map[string]int `json:"models"`
}
