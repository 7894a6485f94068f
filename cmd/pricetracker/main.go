// Price-Tracker — Telegram bot for logging and comparing grocery prices.
//
// Configuration comes from the environment (or a .env file):
//
//	BOT_TOKEN          Telegram bot token (required)
//	DATA_DIR           directory holding prices.db (default: data)
//	HOME_CURRENCY      default currency code (default: SGD)
//	FX_API_URL         frankfurter-style rate API base URL
//	FX_TIMEOUT_SECONDS conversion request timeout (default: 10)
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Jayli90/Price-Tracker/internal/bot"
	"github.com/Jayli90/Price-Tracker/internal/config"
	"github.com/Jayli90/Price-Tracker/internal/fx"
	"github.com/Jayli90/Price-Tracker/internal/ledger"
	"github.com/Jayli90/Price-Tracker/internal/session"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is not set")
	}

	led, err := ledger.Open(ledger.Config{
		Path:         filepath.Join(cfg.DataDir, "prices.db"),
		HomeCurrency: cfg.HomeCurrency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger")
	}
	defer led.Close()
	log.Info().Str("data_dir", cfg.DataDir).Str("home_currency", led.HomeCurrency()).Msg("ledger ready")

	handler := bot.NewHandler(
		led,
		session.NewStore(session.DefaultTTL),
		fx.NewClient(cfg.FXBaseURL, cfg.FXTimeout),
		log,
	)

	b, err := bot.New(cfg.BotToken, handler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b.Start(ctx)
	log.Info().Msg("shutting down")
}
