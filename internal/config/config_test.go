package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BOT_TOKEN", "DATA_DIR", "HOME_CURRENCY", "FX_API_URL", "FX_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.DataDir != "data" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if cfg.HomeCurrency != "SGD" {
		t.Errorf("expected default home currency SGD, got %q", cfg.HomeCurrency)
	}
	if cfg.FXTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.FXTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "t0ken")
	t.Setenv("DATA_DIR", "/var/lib/pricetracker")
	t.Setenv("HOME_CURRENCY", "MYR")
	t.Setenv("FX_TIMEOUT_SECONDS", "3")

	cfg := Load()
	if cfg.BotToken != "t0ken" {
		t.Errorf("bot token not read: %q", cfg.BotToken)
	}
	if cfg.DataDir != "/var/lib/pricetracker" {
		t.Errorf("data dir not read: %q", cfg.DataDir)
	}
	if cfg.HomeCurrency != "MYR" {
		t.Errorf("home currency not read: %q", cfg.HomeCurrency)
	}
	if cfg.FXTimeout != 3*time.Second {
		t.Errorf("timeout not read: %s", cfg.FXTimeout)
	}

	t.Setenv("FX_TIMEOUT_SECONDS", "not-a-number")
	if got := Load().FXTimeout; got != 10*time.Second {
		t.Errorf("expected bad timeout to fall back to default, got %s", got)
	}
}
