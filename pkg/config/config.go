package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all recap configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	DBPath     string           `yaml:"db_path"`
	Log        LogConfig        `yaml:"log"`
	Cache      CacheConfig      `yaml:"cache"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Generation GenerationConfig `yaml:"generation"`
	Summary    SummaryConfig    `yaml:"summary"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

// LogConfig controls the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig controls the tiered summary cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	TTL       time.Duration `yaml:"ttl"`
	LocalSize int           `yaml:"local_size"`
	LocalTTL  time.Duration `yaml:"local_ttl"`
}

// YouTubeConfig defines the metadata and caption endpoints.
type YouTubeConfig struct {
	BaseURL    string        `yaml:"base_url"`
	DataAPIURL string        `yaml:"data_api_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
}

// TranscriptConfig controls the transcript fallback chain.
// Strategies are tried in the listed order.
type TranscriptConfig struct {
	Strategies        []string      `yaml:"strategies"`
	FallbackLanguages []string      `yaml:"fallback_languages"`
	StrategyTimeout   time.Duration `yaml:"strategy_timeout"`
}

// ProviderConfig defines the upstream generation backend.
// Type is "ollama" (default) or "openai".
type ProviderConfig struct {
	Type   string `yaml:"type"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// GenerationConfig controls the generation invoker.
type GenerationConfig struct {
	Provider           ProviderConfig `yaml:"provider"`
	DefaultModel       string         `yaml:"default_model"`
	Timeout            time.Duration  `yaml:"timeout"`
	MaxTranscriptChars int            `yaml:"max_transcript_chars"`
	MaxChapters        int            `yaml:"max_chapters"`
}

// SummaryConfig controls request defaults.
type SummaryConfig struct {
	DefaultLanguage string `yaml:"default_language"`
	Dedupe          bool   `yaml:"dedupe"`
}

// TelemetryConfig controls outcome event recording.
type TelemetryConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
	QueueSize     int  `yaml:"queue_size"`
}

// TelegramConfig controls the Telegram bot webhook. The webhook is mounted
// only when BotToken is set.
type TelegramConfig struct {
	BotToken      string  `yaml:"bot_token"`
	WebhookSecret string  `yaml:"webhook_secret"`
	APIURL        string  `yaml:"api_url"`
	PriceStars    int     `yaml:"price_stars"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

var knownStrategies = map[string]bool{"timedtext": true, "data_api": true}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "recap.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled:   true,
			TTL:       2 * time.Hour,
			LocalSize: 1024,
			LocalTTL:  10 * time.Minute,
		},
		YouTube: YouTubeConfig{
			BaseURL:    "https://www.youtube.com",
			DataAPIURL: "https://www.googleapis.com/youtube/v3",
			Timeout:    10 * time.Second,
		},
		Transcript: TranscriptConfig{
			Strategies:        []string{"timedtext", "data_api"},
			FallbackLanguages: []string{"en"},
			StrategyTimeout:   10 * time.Second,
		},
		Generation: GenerationConfig{
			Provider: ProviderConfig{
				Type: "ollama",
				URL:  "http://localhost:11434",
			},
			DefaultModel:       "gemma3:1b",
			Timeout:            30 * time.Second,
			MaxTranscriptChars: 2000,
			MaxChapters:        10,
		},
		Summary: SummaryConfig{
			DefaultLanguage: "en",
			Dedupe:          true,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			RetentionDays: 30,
			QueueSize:     256,
		},
		Telegram: TelegramConfig{
			APIURL:        "https://api.telegram.org",
			RatePerSecond: 20,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Generation.Provider.Type {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown provider type %q", c.Generation.Provider.Type)
	}
	for _, s := range c.Transcript.Strategies {
		if !knownStrategies[s] {
			return fmt.Errorf("config: unknown transcript strategy %q", s)
		}
	}
	if c.Generation.MaxChapters < 0 {
		return fmt.Errorf("config: max_chapters must not be negative")
	}
	return nil
}
