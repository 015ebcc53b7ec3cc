package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	env "github.com/caarlos0/env/v11"
	"github.com/go-redis/redis/v8"

	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/notify"
)

type listenerConfig struct {
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"giro-events"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string `env:"APP_ENV" envDefault:"production"`
}

// notify-listener tails the giro event channel and logs each transition.
func main() {
	cfg, err := env.ParseAs[listenerConfig]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init(logging.Options{Service: "giro-notify-listener", Level: cfg.LogLevel, Env: cfg.AppEnv})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("listening for giro events", "addr", cfg.RedisAddr, "channel", cfg.NotifyChannel)
	err = notify.Listen(ctx, rdb, cfg.NotifyChannel, func(ctx context.Context, e notify.Event) {
		attrs := []any{"type", e.Type, "giro_id", e.GiroID, "status", e.Status, "occurred_at", e.OccurredAt}
		if e.MinoristaID != nil {
			attrs = append(attrs, "minorista_id", *e.MinoristaID)
		}
		if e.TransferencistaID != nil {
			attrs = append(attrs, "transferencista_id", *e.TransferencistaID)
		}
		logging.FromContext(ctx).Info("giro event", attrs...)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("listener stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("listener stopped")
}
