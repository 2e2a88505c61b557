package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/docstore"
	dsmemory "tally/internal/docstore/memory"
	dssqlite "tally/internal/docstore/sqlite"
	apphttp "tally/internal/http"
	"tally/internal/ledger"
	applog "tally/internal/log"
	"tally/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Choose the document store backend.
	var docs docstore.Store
	switch docstore.BackendType(cfg.DataBackend) {
	case docstore.SQLiteBackend:
		store, err := dssqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite backend", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		docs = store
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		docs = dsmemory.New()
		logger.Info("Initialized memory backend")
	}
	defer docs.Close()

	store := ledger.NewStore(docs, cfg.BatchSize)
	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	tombstones := ledger.NewTombstoneIndex(docs)
	if err := tombstones.Load(ctx); err != nil {
		logger.Error("Failed to load deleted-occurrence index", "error", err)
		os.Exit(1)
	}

	engine := services.NewEngine(store, tombstones, cfg.HorizonYears)
	series := services.NewSeriesService(store, tombstones, engine)

	// Change events are optional; an empty AMQP URL runs without them.
	var events services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("AMQP change events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP change events disabled - no AMQP_URL provided")
	}

	budget := services.NewBudgetService(store, engine, series, events)

	// Reconcile on startup so templates added while the app was down
	// materialize before the first request, then periodically so the horizon
	// rolls forward across day boundaries.
	if generated, err := budget.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
		os.Exit(1)
	} else {
		logger.Info("Startup reconcile complete", "generated", generated)
	}

	go func() {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := budget.Reconcile(ctx); err != nil {
					logger.Error("Periodic reconcile failed", "error", err)
				}
			}
		}
	}()

	srv := apphttp.NewServer(cfg, budget, store, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
