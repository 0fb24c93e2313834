package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 2048
)

// ClaudeOpts configures a [ClaudeService].
type ClaudeOpts struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// Prompt is the template sent for each word; empty uses [DefaultPrompt].
	Prompt string
	// BaseURL overrides the API endpoint.
	BaseURL    string
	HTTPClient *http.Client
	// MaxRetries is passed to the SDK. Attempts across words are paced by the caller.
	MaxRetries int
}

// ClaudeService generates cards through the Anthropic Messages API.
type ClaudeService struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	prompt    string
}

// NewClaudeService creates a ClaudeService. A missing API key is [shared.ErrMissingCredentials].
func NewClaudeService(opts ClaudeOpts) (*ClaudeService, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: no Anthropic API key; run set-key or set ANTHROPIC_API_KEY", shared.ErrMissingCredentials)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Prompt == "" {
		opts.Prompt = defaultPrompt
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &ClaudeService{
		client:    anthropic.NewClient(reqOpts...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		prompt:    opts.Prompt,
	}, nil
}

// Model returns the configured model name.
func (s *ClaudeService) Model() string {
	return s.model
}

// Generate sends one prompt for word and decodes the reply into a card.
func (s *ClaudeService) Generate(ctx context.Context, word string) (*models.GeneratedCard, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(s.prompt, word))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: generating %q: status %d: %v", shared.ErrAPIRequest, word, apiErr.StatusCode, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: generating %q", shared.ErrTimeout, word)
		}
		return nil, fmt.Errorf("%w: generating %q: %v", shared.ErrAPIRequest, word, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("%w: empty reply for %q", shared.ErrInvalidResponse, word)
	}

	data, err := ExtractJSON(strings.TrimSpace(text.String()))
	if err != nil {
		return nil, fmt.Errorf("reply for %q: %w", word, err)
	}

	card, err := DecodeCard(data, word)
	if err != nil {
		return nil, err
	}
	card.Usage = models.Usage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	return card, nil
}
