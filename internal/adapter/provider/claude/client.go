// Package claude implements the AI provider client used for fit analyses.
// The rest of the system only sees Complete(prompt) -> text; parsing and
// validating the text is the analysis service's job.
package claude

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

// Client wraps the Anthropic SDK behind the single-call contract the
// dispatcher needs.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
}

// New creates a provider client from configuration.
func New(cfg config.ProviderConfig) *Client {
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends one prompt and returns the raw response text. Transport and
// API failures wrap domain.ErrProviderUnavailable so the queue can retry
// them; response-shape problems are left to the caller's validation.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("provider call: %w: %w", domain.ErrProviderUnavailable, err)
	}

	if len(msg.Content) == 0 {
		return "", fmt.Errorf("provider call: empty response: %w", domain.ErrInvalidProviderResponse)
	}

	return msg.Content[0].Text, nil
}
