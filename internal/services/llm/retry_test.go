package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 429", errors.New("API returned 429 Too Many Requests"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"anthropic rate limit", errors.New("rate_limit_error: Number of requests exceeded"), true},
		{"quota", errors.New("quota exceeded for metric"), true},
		{"other error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, 17*time.Second, ExtractRetryDelay(errors.New("429: Please retry in 17s")))
	assert.Equal(t, 2500*time.Millisecond, ExtractRetryDelay(errors.New("retryDelay: 2.5s")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay hint here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 20*time.Second, cfg.CalculateBackoff(2, 0))

	// API-suggested delay overrides the base, plus a second of slack
	assert.Equal(t, 11*time.Second, cfg.CalculateBackoff(0, 10*time.Second))

	// Capped at MaxBackoff
	assert.Equal(t, 60*time.Second, cfg.CalculateBackoff(10, 0))
}
