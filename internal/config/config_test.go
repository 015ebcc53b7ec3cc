package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/giros")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "giro-events", cfg.NotifyChannel)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout())
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL())
	assert.True(t, cfg.DefaultProfitPct.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, cfg.CommissionPct.Equal(decimal.RequireFromString("0.06")))
	assert.Empty(t, cfg.Warnings())
}

func TestConfig_Warnings(t *testing.T) {
	tests := []struct {
		name       string
		profitPct  string
		commission string
		want       int
	}{
		{name: "commission covers profit share", profitPct: "0.05", commission: "0.06", want: 0},
		{name: "equal rates", profitPct: "0.05", commission: "0.05", want: 0},
		{name: "profit share exceeds commission", profitPct: "0.05", commission: "0.02", want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/giros")
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv("DEFAULT_PROFIT_PCT", tc.profitPct)
			t.Setenv("COMMISSION_PCT", tc.commission)

			cfg, err := Load()
			require.NoError(t, err)
			warnings := cfg.Warnings()
			require.Len(t, warnings, tc.want)
			if tc.want > 0 {
				assert.Contains(t, warnings[0], "COMMISSION_PCT")
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database url", env: map[string]string{"JWT_SECRET": "s"}},
		{name: "profit pct out of range", env: map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "DEFAULT_PROFIT_PCT": "1.5"}},
		{name: "negative commission", env: map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "COMMISSION_PCT": "-0.01"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"DATABASE_URL", "JWT_SECRET"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
