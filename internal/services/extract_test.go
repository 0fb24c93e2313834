package services

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/greekdeck/internal/shared"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"fenced json", "text\n```json\n{\"a\":1}\n```\nmore", `{"a":1}`, false},
		{"fenced without language", "```\n{\"a\":2}\n```", `{"a":2}`, false},
		{"surrounding prose", `Sure! {"a":{"b":[1,2]}} Hope this helps {"c":3}`, `{"a":{"b":[1,2]}}`, false},
		{"braces inside strings", `{"a":"}{","b":"\"}"}`, `{"a":"}{","b":"\"}"}`, false},
		{"invalid fence falls back", "```json\nnot json\n```\n{\"a\":1}", `{"a":1}`, false},
		{"no object", "sorry", "", true},
		{"unbalanced", `{"a":1`, "", true},
		{"balanced but invalid", `{a:1}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidResponse) {
					t.Errorf("expected ErrInvalidResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("error quotes at most 500 bytes", func(t *testing.T) {
		long := strings.Repeat("λ", 400)
		_, err := ExtractJSON(long)
		if err == nil {
			t.Fatal("expected error")
		}
		if strings.Contains(err.Error(), long) {
			t.Error("expected reply to be truncated")
		}
		if !strings.Contains(err.Error(), strings.Repeat("λ", 250)) {
			t.Error("expected reply prefix in error")
		}
	})
}

func TestDecodeCard(t *testing.T) {
	t.Run("keeps fields", func(t *testing.T) {
		data := []byte(`{"back":"γράφω","part_of_speech":"verb","conjugation":"γράφω, έγραψα, θα γράψω",
			"synonyms":[{"word":"σημειώνω","distinction":"записывать"}],"collocations":["γράφω γράμμα"]}`)
		card, err := DecodeCard(data, "γράφω")
		if err != nil {
			t.Fatalf("DecodeCard failed: %v", err)
		}
		if card.PartOfSpeech != "verb" || len(card.Synonyms) != 1 || card.Synonyms[0].Distinction != "записывать" {
			t.Errorf("unexpected card: %+v", card)
		}
		if string(card.Raw) != string(data) {
			t.Error("expected raw payload kept")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := DecodeCard([]byte(`{"examples":"nope"}`), "x")
		if !errors.Is(err, shared.ErrInvalidResponse) {
			t.Errorf("expected ErrInvalidResponse, got %v", err)
		}
	})
}
