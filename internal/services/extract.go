package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

const (
	snippetLen          = 500
	defaultPartOfSpeech = "unknown"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)```")

// ExtractJSON returns the JSON object in a model reply.
//
// A fenced code block is tried first, then the first balanced {...} span.
// Failure wraps [shared.ErrInvalidResponse] and quotes the start of the reply.
func ExtractJSON(text string) ([]byte, error) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}

	if candidate, ok := balancedObject(text); ok && json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	return nil, fmt.Errorf("%w: no JSON object in reply:\n%s", shared.ErrInvalidResponse, snippet(text))
}

// balancedObject returns the span from the first '{' to its matching '}'.
// Braces inside JSON strings are ignored.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func snippet(text string) string {
	if len(text) <= snippetLen {
		return text
	}
	cut := snippetLen
	// back off to a rune boundary
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}

// DecodeCard decodes card JSON for word, filling back and part of speech when absent.
func DecodeCard(data []byte, word string) (*models.GeneratedCard, error) {
	var card models.GeneratedCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("%w: failed to decode card for %q: %v", shared.ErrInvalidResponse, word, err)
	}

	if strings.TrimSpace(card.Back) == "" {
		card.Back = word
	}
	if strings.TrimSpace(card.PartOfSpeech) == "" {
		card.PartOfSpeech = defaultPartOfSpeech
	}
	card.Raw = json.RawMessage(data)
	return &card, nil
}
