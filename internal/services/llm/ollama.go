package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
)

// ollamaCompleter generates text through a local Ollama runtime using its
// /api/generate endpoint. There is no official Go SDK; the client follows
// the same plain net/http JSON pattern as the other API clients here.
type ollamaCompleter struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewOllamaBackend creates a local-runtime generation backend.
func NewOllamaBackend(config *common.OllamaConfig, callTimeout time.Duration, logger arbor.ILogger) *Backend {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	c := &ollamaCompleter{
		baseURL: baseURL,
		model:   config.Model,
		httpClient: &http.Client{
			// Context deadlines bound individual calls; this is a hard cap
			Timeout: callTimeout + 10*time.Second,
		},
		logger: logger,
	}
	return NewBackend(c, callTimeout, logger)
}

func (o *ollamaCompleter) runtime() models.Runtime {
	return models.RuntimeOllama
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (o *ollamaCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		System: system,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncateForError(string(data)))
	}

	var generated ollamaGenerateResponse
	if err := json.Unmarshal(data, &generated); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if generated.Error != "" {
		return "", fmt.Errorf("ollama error: %s", generated.Error)
	}
	if generated.Response == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return generated.Response, nil
}

func truncateForError(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
