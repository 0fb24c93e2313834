package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/greekdeck/internal/shared"
	tu "github.com/desertthunder/greekdeck/internal/testing"
)

// messagesServer serves replies to POST /v1/messages and records the prompts it receives.
func messagesServer(t *testing.T, status int, reply string, prompts *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.MaxTokens != DefaultMaxTokens {
			t.Errorf("expected max_tokens %d, got %d", DefaultMaxTokens, req.MaxTokens)
		}
		if prompts != nil && len(req.Messages) == 1 && len(req.Messages[0].Content) == 1 {
			*prompts = append(*prompts, req.Messages[0].Content[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       req.Model,
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": reply}},
			"usage":       map[string]any{"input_tokens": 120, "output_tokens": 340},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClaudeService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Missing Key", func(t *testing.T) {
			_, err := NewClaudeService(ClaudeOpts{APIKey: "  "})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv, err := NewClaudeService(ClaudeOpts{APIKey: "k"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if srv.Model() != DefaultModel {
				t.Errorf("expected default model, got %s", srv.Model())
			}
			if srv.maxTokens != DefaultMaxTokens {
				t.Errorf("expected default max tokens, got %d", srv.maxTokens)
			}
			if srv.prompt != DefaultPrompt() {
				t.Error("expected embedded prompt")
			}
		})
	})

	t.Run("Generate", func(t *testing.T) {
		t.Run("Fenced Reply", func(t *testing.T) {
			var prompts []string
			reply := "Here is the card:\n```json\n" +
				`{"front_ru":"город","front_en":"city","back":"η πόλη","part_of_speech":"noun",` +
				`"examples":[{"greek":"Η <em>πόλη</em> είναι μεγάλη.","russian":"Город большой."}],` +
				`"conjugation":null,"synonyms":[],"etymology_note":"От др.-греч.","collocations":["μεγάλη πόλη"]}` +
				"\n```\nEnjoy!"
			server := messagesServer(t, http.StatusOK, reply, &prompts)

			srv, err := NewClaudeService(ClaudeOpts{APIKey: "test-key", Model: "claude-test", BaseURL: server.URL, Prompt: "Card for {word}."})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			card, err := srv.Generate(context.Background(), "πόλη")
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if card.Back != "η πόλη" || card.FrontEN != "city" || len(card.Examples) != 1 {
				t.Errorf("unexpected card: %+v", card)
			}
			if card.Usage.InputTokens != 120 || card.Usage.OutputTokens != 340 {
				t.Errorf("unexpected usage: %+v", card.Usage)
			}
			if len(prompts) != 1 || prompts[0] != "Card for πόλη." {
				t.Errorf("unexpected prompts: %q", prompts)
			}
		})

		t.Run("Defaults Applied", func(t *testing.T) {
			server := messagesServer(t, http.StatusOK, `{"front_ru":"и","front_en":"and"}`, nil)
			srv, _ := NewClaudeService(ClaudeOpts{APIKey: "test-key", BaseURL: server.URL})

			card, err := srv.Generate(context.Background(), "και")
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if card.Back != "και" {
				t.Errorf("expected back to default to word, got %q", card.Back)
			}
			if card.PartOfSpeech != "unknown" {
				t.Errorf("expected unknown part of speech, got %q", card.PartOfSpeech)
			}
		})

		t.Run("Invalid Reply", func(t *testing.T) {
			server := messagesServer(t, http.StatusOK, "I cannot help with that.", nil)
			srv, _ := NewClaudeService(ClaudeOpts{APIKey: "test-key", BaseURL: server.URL})

			_, err := srv.Generate(context.Background(), "πόλη")
			if !errors.Is(err, shared.ErrInvalidResponse) {
				t.Errorf("expected ErrInvalidResponse, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "I cannot help") {
				t.Errorf("expected reply snippet in error, got %v", err)
			}
		})

		t.Run("API Error", func(t *testing.T) {
			server := messagesServer(t, http.StatusBadRequest, "", nil)
			srv, _ := NewClaudeService(ClaudeOpts{APIKey: "test-key", BaseURL: server.URL})

			_, err := srv.Generate(context.Background(), "πόλη")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			srv, _ := NewClaudeService(ClaudeOpts{APIKey: "test-key", BaseURL: "http://localhost", HTTPClient: client})

			_, err := srv.Generate(context.Background(), "πόλη")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "connection refused") {
				t.Errorf("expected transport error in message, got %v", err)
			}
		})
	})
}

func TestPrompt(t *testing.T) {
	t.Run("DefaultPrompt has placeholder", func(t *testing.T) {
		if !strings.Contains(DefaultPrompt(), WordPlaceholder) {
			t.Error("expected placeholder in embedded prompt")
		}
	})

	t.Run("BuildPrompt replaces every placeholder", func(t *testing.T) {
		got := BuildPrompt("{word} / {word}", "νερό")
		if got != "νερό / νερό" {
			t.Errorf("unexpected prompt %q", got)
		}
	})

	t.Run("LoadPrompt", func(t *testing.T) {
		dir := t.TempDir()

		got, err := LoadPrompt("")
		if err != nil || got != DefaultPrompt() {
			t.Errorf("expected default prompt, got err %v", err)
		}

		good := dir + "/good.txt"
		if err := writeFile(good, "Word: {word}"); err != nil {
			t.Fatal(err)
		}
		if got, err := LoadPrompt(good); err != nil || got != "Word: {word}" {
			t.Errorf("unexpected result %q, %v", got, err)
		}

		bad := dir + "/bad.txt"
		if err := writeFile(bad, "no placeholder"); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPrompt(bad); err == nil {
			t.Error("expected error for template without placeholder")
		}

		if _, err := LoadPrompt(dir + "/missing.txt"); err == nil {
			t.Error("expected error for missing template")
		}
	})
}
