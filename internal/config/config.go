package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTExpiryH  int    `env:"JWT_EXPIRY_H" envDefault:"24"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"false"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBLockTimeoutMS    int `env:"DB_LOCK_TIMEOUT_MS" envDefault:"5000"`

	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	NotifyChannel   string `env:"NOTIFY_CHANNEL" envDefault:"giro-events"`
	IdempotencyTTLS int    `env:"IDEMPOTENCY_TTL_S" envDefault:"86400"`

	DefaultProfitPct decimal.Decimal `env:"DEFAULT_PROFIT_PCT" envDefault:"0.05"`
	CommissionPct    decimal.Decimal `env:"COMMISSION_PCT" envDefault:"0.06"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.DefaultProfitPct.IsNegative() || cfg.DefaultProfitPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("config.Load: DEFAULT_PROFIT_PCT must be in [0, 1)")
	}
	if cfg.CommissionPct.IsNegative() || cfg.CommissionPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("config.Load: COMMISSION_PCT must be in [0, 1)")
	}
	return &cfg, nil
}

// Warnings lists settings that load fine but are likely mistakes. A default
// profit share above the commission rate makes every attributed
// commission-type giro book a negative system profit.
func (c *Config) Warnings() []string {
	var out []string
	if c.DefaultProfitPct.GreaterThan(c.CommissionPct) {
		out = append(out, fmt.Sprintf(
			"DEFAULT_PROFIT_PCT %s exceeds COMMISSION_PCT %s: commission-type giros for new minoristas will book negative system profit",
			c.DefaultProfitPct, c.CommissionPct))
	}
	return out
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.DBLockTimeoutMS) * time.Millisecond
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryH) * time.Hour
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLS) * time.Second
}
