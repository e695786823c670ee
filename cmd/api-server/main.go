package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/curelink/booking-engine/internal/api"
	"github.com/curelink/booking-engine/internal/availability"
	"github.com/curelink/booking-engine/internal/booking"
	"github.com/curelink/booking-engine/internal/config"
	"github.com/curelink/booking-engine/internal/db"
	redisclient "github.com/curelink/booking-engine/internal/redis"
	"github.com/curelink/booking-engine/internal/review"
	"github.com/curelink/booking-engine/internal/video"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	// One video-provider client for the whole process, injected into the
	// booking service.
	rooms := video.NewClient(cfg.VideoAPIBaseURL, cfg.VideoAPIKey, cfg.VideoTimeout)

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)

	bookingSvc := booking.NewService(booking.NewPgRepository(pgPool), rooms, locker, log)
	availabilitySvc := availability.NewService(availability.NewPgRepository(pgPool), log)
	reviewSvc := review.NewService(review.NewPgRepository(pgPool), log)

	router := api.NewRouter(api.RouterConfig{
		Bookings:     bookingSvc,
		Availability: availabilitySvc,
		Reviews:      reviewSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       log,
		JWTSecret:    cfg.JWTSecret,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
