// Command notifier runs the outage notification service: a scheduler that
// reconciles the public outage feed against the state store every poll
// interval and alerts subscribers over Telegram, plus a small ops HTTP
// surface for probes, metrics, and read-only outage queries.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/kouranbot/outage-notifier/internal/config"
	"github.com/kouranbot/outage-notifier/internal/feed"
	"github.com/kouranbot/outage-notifier/internal/gateway"
	httpapi "github.com/kouranbot/outage-notifier/internal/http"
	"github.com/kouranbot/outage-notifier/internal/observability"
	"github.com/kouranbot/outage-notifier/internal/repo"
	"github.com/kouranbot/outage-notifier/internal/scheduler"
	"github.com/kouranbot/outage-notifier/internal/services"
)

const version = "1.0.0"

func main() {
	// Local development convenience; absent .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("state store open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := repo.SeedGeography(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("geography seed failed")
	}

	tg, err := gateway.NewTelegram(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("gateway init failed")
	}

	metrics := observability.NewMetrics()
	logger := log.Logger

	monitor := &services.Monitor{
		Feed:       feed.NewClient(cfg.FeedURL, cfg.FeedTimeout),
		Normalizer: &services.Normalizer{DB: db, Log: logger, Metrics: metrics},
		Reconciler: &services.Reconciler{DB: db},
		Matcher:    &services.Matcher{DB: db},
		Dispatcher: &services.Dispatcher{
			DB:            db,
			Gateway:       tg,
			Log:           logger,
			Metrics:       metrics,
			Workers:       cfg.DispatchWorkers,
			Limiter:       rate.NewLimiter(rate.Limit(cfg.GatewayRPS), cfg.GatewayBurst),
			MaxRetries:    cfg.SendMaxRetries,
			RetryInterval: cfg.SendRetryInterval,
		},
		Log:     logger,
		Metrics: metrics,
	}

	sched := scheduler.New(monitor, clockwork.NewRealClock(),
		cfg.PollInterval, cfg.CycleTimeout, logger)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, sched, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("state store close error")
		}
	}

	log.Info().Msg("shutdown complete")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "outage-notifier").Logger()
}
