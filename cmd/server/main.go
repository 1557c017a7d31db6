package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/pairwave/rendezvous/internal/adapters/http"
	"github.com/pairwave/rendezvous/internal/adapters/ratelimit"
	"github.com/pairwave/rendezvous/internal/adapters/storage/actor"
	redisstore "github.com/pairwave/rendezvous/internal/adapters/storage/redis"
	"github.com/pairwave/rendezvous/internal/app"
	"github.com/pairwave/rendezvous/internal/config"
	"github.com/pairwave/rendezvous/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var (
		store   core.Store
		limiter core.RateLimiter
		pinger  router.Pinger
	)
	switch cfg.Storage {
	case "redis":
		primary := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		var replica *goredis.Client
		if cfg.RedisReplicaAddr != "" {
			replica = goredis.NewClient(&goredis.Options{Addr: cfg.RedisReplicaAddr})
		}
		rs := redisstore.New(primary, replica)
		store = rs
		pinger = rs
		limiter = ratelimit.NewRedis(primary)
		log.Info().Str("addr", cfg.RedisAddr).Str("replica", cfg.RedisReplicaAddr).Msg("using redis storage")
	default:
		as := actor.New()
		defer as.Close()
		store = as
		limiter = ratelimit.NewWindow()
		log.Info().Msg("using in-process actor storage")
	}

	engine := app.NewEngine(store, cfg.RoomTTL)
	r := router.SetupRouter(cfg, engine, limiter, pinger)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("rendezvous server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
