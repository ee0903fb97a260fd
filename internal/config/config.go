// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram settings
	TelegramToken   string
	TelegramChatIDs []string
	ForwardChatID   string // webhook updates are forwarded here; empty disables the endpoint
	WebhookSecret   string // optional secret token for webhook validation

	// Summarizer settings
	GeminiAPIKey   string // empty disables the AI digest, the built-in formatter is used
	MaxAIRequests  int    // daily budget for summarizer calls (0 = unlimited)
	MaxDigestItems int    // items handed to the summarizer per digest

	// Feed settings
	SourcesPath  string // OPML or YAML feed list
	FetchTimeout time.Duration
	MaxRedirects int
	BatchSize    int

	// Push state settings
	RedisURL      string
	PostgresURL   string // alternate sent-item store when Redis is not configured
	SentCachePath string // file fallback when neither Redis nor Postgres is set
	PushTTLHours  int

	// Pipeline settings
	RefreshInterval time.Duration
	PushWindow      time.Duration // items newer than this are pushable on a cold start
	SnapshotTTL     time.Duration // how long the aggregated snapshot stays cached

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SourcesPath:     "configs/feeds.opml",
		FetchTimeout:    5 * time.Second,
		MaxRedirects:    3,
		BatchSize:       20,
		PushTTLHours:    48,
		RefreshInterval: 30 * time.Minute,
		PushWindow:      30 * time.Minute,
		SnapshotTTL:     time.Hour,
		MaxAIRequests:   50,
		MaxDigestItems:  20,
		SentCachePath:   "sent_items.json",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	for _, id := range strings.Split(os.Getenv("TELEGRAM_CHAT_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.TelegramChatIDs = append(cfg.TelegramChatIDs, id)
		}
	}
	cfg.ForwardChatID = os.Getenv("TELEGRAM_FORWARD_CHAT_ID")
	cfg.WebhookSecret = os.Getenv("TELEGRAM_WEBHOOK_SECRET")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.PostgresURL = os.Getenv("DATABASE_URL")

	if path := os.Getenv("FEED_SOURCES_PATH"); path != "" {
		cfg.SourcesPath = path
	}
	if path := os.Getenv("SENT_CACHE_PATH"); path != "" {
		cfg.SentCachePath = path
	}

	if v := getEnvIntOrDefault("FETCH_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.FetchTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("MAX_REDIRECTS", 0); v > 0 {
		cfg.MaxRedirects = v
	}
	if v := getEnvIntOrDefault("FEED_BATCH_SIZE", 0); v > 0 {
		cfg.BatchSize = v
	}
	if v := getEnvIntOrDefault("PUSH_TTL_HOURS", 0); v > 0 {
		cfg.PushTTLHours = v
	}
	if v := getEnvIntOrDefault("REFRESH_INTERVAL_MINUTES", 0); v > 0 {
		cfg.RefreshInterval = time.Duration(v) * time.Minute
	}
	if v := getEnvIntOrDefault("PUSH_WINDOW_MINUTES", 0); v > 0 {
		cfg.PushWindow = time.Duration(v) * time.Minute
	}
	if v := getEnvIntOrDefault("MAX_AI_REQUESTS", -1); v >= 0 {
		cfg.MaxAIRequests = v
	}
	if v := getEnvIntOrDefault("MAX_DIGEST_ITEMS", 0); v > 0 {
		cfg.MaxDigestItems = v
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if len(c.TelegramChatIDs) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_IDS is required")
	}
	return nil
}
