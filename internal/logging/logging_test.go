package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_TagsEntitiesAndRendersMoney(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Service: "giro-api", Level: "info", Env: "production", Out: &buf})

	giroID, minoristaID := uuid.New(), uuid.New()
	ctx := WithLogger(context.Background(), logger)
	ctx = WithMinorista(WithGiro(ctx, giroID), minoristaID)
	amount := decimal.RequireFromString("1.50")
	FromContext(ctx).Info("minorista entry posted", "amount", amount, "fee", &amount)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "giro-api", line["service"])
	assert.Equal(t, giroID.String(), line["giro_id"])
	assert.Equal(t, minoristaID.String(), line["minorista_id"])
	assert.Equal(t, "1.5", line["amount"])
	assert.Equal(t, "1.5", line["fee"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Service: "svc", Level: "loud", Out: &buf})

	assert.Contains(t, buf.String(), "unknown log level")
	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestFromContext_DefaultsWithoutLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
