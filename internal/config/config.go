package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// BotToken authenticates against the Telegram Bot API. Required.
	BotToken string
	// DataDir holds prices.db; created on startup if missing.
	DataDir string
	// HomeCurrency is assumed when an entry carries no currency and is
	// the target of conversions.
	HomeCurrency string
	// FXBaseURL points at a frankfurter-style rate API.
	FXBaseURL string
	// FXTimeout bounds each conversion request.
	FXTimeout time.Duration
}

// Load reads .env if present, then the environment. Missing optional
// values fall back to defaults; a missing BOT_TOKEN is left empty for
// the caller to reject.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DataDir:      getEnv("DATA_DIR", "data"),
		HomeCurrency: getEnv("HOME_CURRENCY", "SGD"),
		FXBaseURL:    getEnv("FX_API_URL", ""),
		FXTimeout:    getDuration("FX_TIMEOUT_SECONDS", 10*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
