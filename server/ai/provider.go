// Package ai wraps the text-completion backend behind a small provider type.
// Callers see a single Complete call plus a transient/permanent error split;
// everything OpenAI-specific stays in here.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config holds the completion provider configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		APIKey:     "",
		Model:      "gpt-4o-mini",
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// Provider performs chat completions against an OpenAI-compatible API.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new completion provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Complete performs a single chat completion with the given system and user
// prompts. Transient failures are retried with exponential backoff; the
// returned error is classified as *TransientError or *PermanentError.
func (p *Provider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var result string
	err := p.doWithRetry(ctx, func() error {
		req := openai.ChatCompletionRequest{
			Model: p.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return &TransientError{Err: errors.New("empty chat response")}
		}
		result = resp.Choices[0].Message.Content

		if resp.Usage.TotalTokens > 0 {
			slog.Debug("completion tokens used",
				"total", resp.Usage.TotalTokens,
				"prompt", resp.Usage.PromptTokens,
				"completion", resp.Usage.CompletionTokens)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// doWithRetry executes fn with exponential backoff. Permanent errors are
// returned immediately; only transient ones are retried.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		lastErr = err
		if attempt < p.config.MaxRetries-1 {
			waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Debug("completion request failed, retrying",
				"attempt", attempt+1,
				"wait_time", waitTime,
				"error", err)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return &TransientError{Err: ctx.Err()}
			}
		}
	}
	return lastErr
}

// classify sorts backend failures into transient (worth retrying, or worth a
// fallback message upstream) and permanent (configuration defects).
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return &PermanentError{Err: err}
		case apiErr.HTTPStatusCode == 400 || apiErr.HTTPStatusCode == 404 || apiErr.HTTPStatusCode == 422:
			return &PermanentError{Err: err}
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return &TransientError{Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransientError{Err: err}
	}

	// Unknown failures are treated as transient so a later occurrence can
	// still succeed.
	return &TransientError{Err: err}
}
