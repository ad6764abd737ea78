package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Queue       QueueConfig      `toml:"queue"`
	Search      SearchConfig     `toml:"search"`
	Fetcher     FetcherConfig    `toml:"fetcher"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Ollama      OllamaConfig     `toml:"ollama"`
	LLM         LLMConfig        `toml:"llm"`
	Generation  GenerationConfig `toml:"generation"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

type BadgerConfig struct {
	Dir string `toml:"dir"`
}

// QueueConfig controls the job queue and worker pool.
type QueueConfig struct {
	Name              string `toml:"name"`               // Queue name prefix in Badger
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent workers
	PollInterval      string `toml:"poll_interval"`      // e.g. "500ms" - how often workers poll
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g. "5m" - claim duration before redelivery
	MaxAttempts       int    `toml:"max_attempts"`       // Attempt budget before dead-letter
	RetryBackoff      string `toml:"retry_backoff"`      // e.g. "2s" - base backoff, doubles per attempt
}

// SearchConfig configures the external web search provider.
type SearchConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	APIKey      string `toml:"api_key"`
	MaxResults  int    `toml:"max_results"`
	RateLimit   int    `toml:"rate_limit"` // requests per second
	Timeout     string `toml:"timeout"`
	CountryCode string `toml:"country_code"`
}

// FetcherConfig bounds per-site scraping.
type FetcherConfig struct {
	Timeout      string `toml:"timeout"`        // per-site fetch timeout
	MaxBodyBytes int    `toml:"max_body_bytes"` // response byte budget
	MaxTextChars int    `toml:"max_text_chars"` // per-site text cap after conversion
	UserAgent    string `toml:"user_agent"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type OllamaConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// LLMConfig selects default and fallback runtimes.
type LLMConfig struct {
	DefaultRuntime  string `toml:"default_runtime"`  // "gemini", "claude", "ollama"
	FallbackRuntime string `toml:"fallback_runtime"` // tried when the preferred runtime fails
	CallTimeout     string `toml:"call_timeout"`     // overall backend call timeout
}

// GenerationConfig bounds the retrieval pipeline.
type GenerationConfig struct {
	MaxSources       int    `toml:"max_sources"`        // unique-domain sources fetched per request
	MinAnswerLength  int    `toml:"min_answer_length"`  // validator rejection threshold
	QuizRetries      int    `toml:"quiz_retries"`       // diversity-repair regeneration budget
	DefaultCardCount int    `toml:"default_card_count"` //
	FetchTimeout     string `toml:"fetch_timeout"`      // per-site timeout override (falls back to fetcher.timeout)
}

type SchedulerConfig struct {
	Enabled             bool   `toml:"enabled"`
	QuarantineRetention string `toml:"quarantine_retention"` // e.g. "168h"
	SweepSchedule       string `toml:"sweep_schedule"`       // cron expression
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8787,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Dir: "./data"},
		},
		Queue: QueueConfig{
			Name:              "generation",
			Concurrency:       2,
			PollInterval:      "500ms",
			VisibilityTimeout: "5m",
			MaxAttempts:       3,
			RetryBackoff:      "2s",
		},
		Search: SearchConfig{
			Enabled:    true,
			Endpoint:   "https://google.serper.dev/search",
			MaxResults: 10,
			RateLimit:  5,
			Timeout:    "10s",
		},
		Fetcher: FetcherConfig{
			Timeout:      "8s",
			MaxBodyBytes: 2 * 1024 * 1024,
			MaxTextChars: 6000,
			UserAgent:    "memoro/1.0",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.1",
		},
		LLM: LLMConfig{
			DefaultRuntime: "gemini",
			CallTimeout:    "90s",
		},
		Generation: GenerationConfig{
			MaxSources:       5,
			MinAnswerLength:  3,
			QuizRetries:      3,
			DefaultCardCount: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			QuarantineRetention: "168h",
			SweepSchedule:       "0 * * * *",
		},
	}
}

// LoadConfig loads configuration in priority order:
// defaults -> TOML files (later files override earlier) -> environment variables
func LoadConfig(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies MEMORO_* environment variables over the loaded config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MEMORO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("MEMORO_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("MEMORO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("MEMORO_DATA_DIR"); v != "" {
		config.Storage.Badger.Dir = v
	}
	if v := os.Getenv("MEMORO_SEARCH_API_KEY"); v != "" {
		config.Search.APIKey = v
	}
	if v := os.Getenv("MEMORO_SEARCH_ENABLED"); v != "" {
		config.Search.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("MEMORO_OLLAMA_URL"); v != "" {
		config.Ollama.BaseURL = v
	}
	if v := os.Getenv("MEMORO_DEFAULT_RUNTIME"); v != "" {
		config.LLM.DefaultRuntime = v
	}
}

// Validate checks configuration invariants that cannot be defaulted away
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.Concurrency <= 0 {
		return fmt.Errorf("queue concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("queue max_attempts must be positive, got %d", c.Queue.MaxAttempts)
	}
	if _, err := c.Queue.GetPollInterval(); err != nil {
		return fmt.Errorf("invalid queue poll_interval: %w", err)
	}
	if _, err := c.Queue.GetVisibilityTimeout(); err != nil {
		return fmt.Errorf("invalid queue visibility_timeout: %w", err)
	}
	if _, err := c.Queue.GetRetryBackoff(); err != nil {
		return fmt.Errorf("invalid queue retry_backoff: %w", err)
	}
	return nil
}

// ParseDuration parses a duration string with a fallback default
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// GetPollInterval returns the parsed worker poll interval
func (q *QueueConfig) GetPollInterval() (time.Duration, error) {
	if q.PollInterval == "" {
		return 500 * time.Millisecond, nil
	}
	return time.ParseDuration(q.PollInterval)
}

// GetVisibilityTimeout returns the parsed claim visibility timeout
func (q *QueueConfig) GetVisibilityTimeout() (time.Duration, error) {
	if q.VisibilityTimeout == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(q.VisibilityTimeout)
}

// GetRetryBackoff returns the parsed base retry backoff
func (q *QueueConfig) GetRetryBackoff() (time.Duration, error) {
	if q.RetryBackoff == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(q.RetryBackoff)
}

// GetTimeout returns the parsed per-site fetch timeout
func (f *FetcherConfig) GetTimeout() time.Duration {
	return ParseDuration(f.Timeout, 8*time.Second)
}

// EffectiveFetcher returns the fetcher config with the generation-level
// per-site timeout override applied.
func (c *Config) EffectiveFetcher() FetcherConfig {
	fetcher := c.Fetcher
	if c.Generation.FetchTimeout != "" {
		fetcher.Timeout = c.Generation.FetchTimeout
	}
	return fetcher
}

// GetTimeout returns the parsed search request timeout
func (s *SearchConfig) GetTimeout() time.Duration {
	return ParseDuration(s.Timeout, 10*time.Second)
}

// GetCallTimeout returns the parsed overall backend call timeout
func (l *LLMConfig) GetCallTimeout() time.Duration {
	return ParseDuration(l.CallTimeout, 90*time.Second)
}

// GetQuarantineRetention returns the parsed dead-letter retention window
func (s *SchedulerConfig) GetQuarantineRetention() time.Duration {
	return ParseDuration(s.QuarantineRetention, 168*time.Hour)
}
