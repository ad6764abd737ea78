package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
)

// claudeCompleter generates text through the Anthropic API.
type claudeCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int
	temp      float32
	retry     *RetryConfig
	logger    arbor.ILogger
}

// NewClaudeBackend creates a Claude-backed generation backend.
func NewClaudeBackend(config *common.ClaudeConfig, callTimeout time.Duration, logger arbor.ILogger) (*Backend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is not configured")
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	c := &claudeCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:     config.Model,
		maxTokens: maxTokens,
		temp:      config.Temperature,
		retry:     NewDefaultRetryConfig(),
		logger:    logger,
	}
	return NewBackend(c, callTimeout, logger), nil
}

func (c *claudeCompleter) runtime() models.Runtime {
	return models.RuntimeClaude
}

func (c *claudeCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.temp > 0 {
		params.Temperature = anthropic.Float(float64(c.temp))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		resp, apiErr = c.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = c.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		}

		c.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed after %d retries: %w", c.retry.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}
