package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompts/card_prompt.txt
var defaultPrompt string

// WordPlaceholder is replaced by the requested word in prompt templates.
const WordPlaceholder = "{word}"

// DefaultPrompt returns the embedded prompt template.
func DefaultPrompt() string {
	return defaultPrompt
}

// LoadPrompt reads a prompt template from path, or returns [DefaultPrompt] when path is empty.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return defaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %w", err)
	}
	if !strings.Contains(string(data), WordPlaceholder) {
		return "", fmt.Errorf("prompt template %s has no %s placeholder", path, WordPlaceholder)
	}
	return string(data), nil
}

// BuildPrompt fills template with word.
func BuildPrompt(template, word string) string {
	return strings.ReplaceAll(template, WordPlaceholder, word)
}
