package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
	"google.golang.org/genai"
)

// geminiCompleter generates text through the Gemini API.
type geminiCompleter struct {
	client *genai.Client
	model  string
	temp   float32
	retry  *RetryConfig
	logger arbor.ILogger
}

// NewGeminiBackend creates a Gemini-backed generation backend.
func NewGeminiBackend(ctx context.Context, config *common.GeminiConfig, callTimeout time.Duration, logger arbor.ILogger) (*Backend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &geminiCompleter{
		client: client,
		model:  config.Model,
		temp:   config.Temperature,
		retry:  NewDefaultRetryConfig(),
		logger: logger,
	}
	return NewBackend(c, callTimeout, logger), nil
}

func (g *geminiCompleter) runtime() models.Runtime {
	return models.RuntimeGemini
}

func (g *geminiCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temp),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		resp, apiErr = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == g.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = g.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		g.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed after %d retries: %w", g.retry.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}
