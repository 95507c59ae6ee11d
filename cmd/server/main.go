package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ranjel272/POSBF/internal/config"
	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/metrics"
	"github.com/Ranjel272/POSBF/internal/repository"
	"github.com/Ranjel272/POSBF/internal/router"
	"github.com/Ranjel272/POSBF/internal/service"
	"github.com/Ranjel272/POSBF/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Redis is optional: without it audit events are recorded inline and
	// login throttling is per process.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			if cfg.IsProduction() {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			log.Warn().Err(err).Msg("redis unavailable, running without it")
			rdb = nil
		}
	}

	metrics.Register()

	// Audit pipeline, wired here (composition root) so the worker has full
	// access to infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mailer worker.Notifier
	if cfg.MailEnabled() {
		mailer = infra.NewMailer(cfg)
	}
	breaker := infra.NewCircuitBreaker(infra.BreakerConfig{FailureThreshold: 5, OpenTimeout: time.Minute})
	auditWorker := worker.NewAuditWorker(repository.NewAccountRepository(db), mailer, breaker, cfg.AuditNotifyEmail)

	var audit service.AuditDispatcher
	if rdb != nil {
		audit = worker.NewDispatcher(rdb)
		worker.StartWorkerPool(ctx, rdb, map[string]worker.JobHandler{worker.JobTypeAudit: auditWorker}, cfg.WorkerPoolSize)
	} else {
		audit = worker.NewDirectDispatcher(auditWorker)
	}

	r := router.New(cfg, db, rdb, audit)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("POSBF backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
