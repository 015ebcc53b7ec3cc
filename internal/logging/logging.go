package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

type ctxKey struct{}

type Options struct {
	Service string
	Level   string
	// Env "development" selects the text handler; anything else logs JSON.
	Env string
	// Out defaults to stdout.
	Out io.Writer
}

// Init builds the process logger and installs it as the slog default.
func Init(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}

func New(opts Options) *slog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	lvl, levelErr := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: moneyAttr}

	var handler slog.Handler
	if opts.Env == "development" {
		handler = slog.NewTextHandler(out, hopts)
	} else {
		handler = slog.NewJSONHandler(out, hopts)
	}

	logger := slog.New(handler).With("service", opts.Service)
	if levelErr != nil {
		logger.Warn("unknown log level, using info", "level", opts.Level)
	}
	return logger
}

// ParseLevel accepts the slog level names plus "warning". Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("ParseLevel: %w", err)
	}
	return lvl, nil
}

// moneyAttr logs decimal amounts as their plain string form in both
// handlers.
func moneyAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	switch v := a.Value.Any().(type) {
	case decimal.Decimal:
		return slog.String(a.Key, v.String())
	case *decimal.Decimal:
		if v != nil {
			return slog.String(a.Key, v.String())
		}
	}
	return a
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithGiro returns ctx carrying a logger tagged with giro_id.
func WithGiro(ctx context.Context, giroID fmt.Stringer) context.Context {
	return WithLogger(ctx, FromContext(ctx).With("giro_id", giroID.String()))
}

func WithMinorista(ctx context.Context, minoristaID fmt.Stringer) context.Context {
	return WithLogger(ctx, FromContext(ctx).With("minorista_id", minoristaID.String()))
}
