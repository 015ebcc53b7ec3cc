package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/josh-kwaku/giro-backend/internal/config"
	"github.com/josh-kwaku/giro-backend/internal/handler"
	"github.com/josh-kwaku/giro-backend/internal/idempotency"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/notify"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
	"github.com/josh-kwaku/giro-backend/internal/repository"
	"github.com/josh-kwaku/giro-backend/internal/service"
	"github.com/josh-kwaku/giro-backend/internal/service/dispatch"
	"github.com/josh-kwaku/giro-backend/internal/service/giro"
	"github.com/josh-kwaku/giro-backend/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{Service: "giro-api", Level: cfg.LogLevel, Env: cfg.AppEnv})
	for _, w := range cfg.Warnings() {
		slog.Warn("config", "warning", w)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.Open(ctx, cfg.DatabaseURL, repository.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second,
		LockTimeout:     cfg.LockTimeout(),
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	pool := db.Conn()

	if cfg.AutoMigrate {
		if err := repository.Migrate(pool, cfg.MigrationsDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "dir", cfg.MigrationsDir)
	}

	users := repository.NewUserRepository(pool)
	minoristas := repository.NewMinoristaRepository(pool)
	minoristaTxs := repository.NewMinoristaTransactionRepository(pool)
	transferencistas := repository.NewTransferencistaRepository(pool)
	banks := repository.NewBankRepository(pool)
	bankAccounts := repository.NewBankAccountRepository(pool)
	bankAccountTxs := repository.NewBankAccountTransactionRepository(pool)
	bankTxs := repository.NewBankTransactionRepository(pool)
	rates := repository.NewRateRepository(pool)
	giros := repository.NewGiroRepository(pool)
	giroEvents := repository.NewGiroEventRepository(pool)
	assignments := repository.NewAssignmentRepository(pool)

	rdb, notifier, idem := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	book := ratebook.NewBook(db, rates)
	recorder := ledger.NewRecorder(minoristas, minoristaTxs, bankAccounts, bankAccountTxs, bankTxs)
	ledgerSvc := ledger.NewService(db, recorder)
	dispatcher := dispatch.NewDispatcher(assignments)
	accountSvc := service.NewAccountService(service.AccountDeps{
		Users:            users,
		Minoristas:       minoristas,
		Transferencistas: transferencistas,
		Banks:            banks,
		BankAccounts:     bankAccounts,
	}, cfg.DefaultProfitPct)
	giroSvc := giro.NewService(giro.Deps{
		DB:               db,
		Giros:            giros,
		Events:           giroEvents,
		Minoristas:       minoristas,
		Banks:            banks,
		BankAccounts:     bankAccounts,
		Transferencistas: transferencistas,
		Rates:            book,
		Dispatcher:       dispatcher,
		Recorder:         recorder,
		Notifier:         notifier,
	}, cfg.CommissionPct)

	var redisCheck func(context.Context) error
	if rdb != nil {
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := newRouter(handlers{
		health:     handler.NewHealthHandler(pool, redisCheck),
		auth:       handler.NewAuthHandler(accountSvc, cfg.JWTSecret, cfg.JWTExpiry()),
		users:      handler.NewUserHandler(accountSvc),
		minoristas: handler.NewMinoristaHandler(accountSvc, ledgerSvc),
		banks:      handler.NewBankHandler(accountSvc, dispatcher, ledgerSvc),
		accounts:   handler.NewBankAccountHandler(accountSvc, ledgerSvc),
		rates:      handler.NewRateHandler(book),
		giros:      handler.NewGiroHandler(giroSvc, accountSvc),
	}, cfg.JWTSecret, idem)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectRedis returns a nil client when Redis is unreachable. The API keeps
// serving: events go to the log and the Idempotency-Key header is not enforced.
func connectRedis(cfg *config.Config) (*redis.Client, notify.Notifier, *idempotency.Store) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, continuing without notifications and idempotency", "addr", cfg.RedisAddr, "error", err)
		rdb.Close()
		return nil, notify.LogNotifier{}, nil
	}

	slog.Info("connected to redis", "addr", cfg.RedisAddr)
	return rdb, notify.NewRedisPublisher(rdb, cfg.NotifyChannel), idempotency.NewStore(rdb, cfg.IdempotencyTTL())
}
