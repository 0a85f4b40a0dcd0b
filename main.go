package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledger-bridge/internal/config"
	"ledger-bridge/internal/database"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/engine/native"
	"ledger-bridge/internal/engine/pgengine"
	"ledger-bridge/internal/gateway"
	"ledger-bridge/internal/handlers"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/metrics"
	"ledger-bridge/internal/service"
)

func main() {
	// Initialize the logger from ENV vars - supports Log level and file logging
	log := logger.NewFromEnv()
	defer log.Sync()
	log.Info("Starting ledger bridge")

	cfg := config.Load()
	log.Info("Configuration loaded - server_address: %s, engine: %s", cfg.ServerAddress, cfg.Engine)

	ledgerEngine, closeEngine, err := openEngine(cfg, log)
	if err != nil {
		log.Error("Failed to open ledger engine: %v", err)
		os.Exit(1)
	}
	defer closeEngine()
	log.Info("Ledger engine ready - engine: %s", cfg.Engine)

	collector := metrics.NewCollector("ledger_bridge")
	ledger := gateway.New(metrics.InstrumentEngine(ledgerEngine, collector), log)

	accountService := service.NewAccountService(ledger, log)
	transactionService := service.NewTransactionService(ledger, log)

	accountHandler := handlers.NewAccountHandler(accountService, log)
	transactionHandler := handlers.NewTransactionHandler(transactionService, log)

	router := handlers.SetupRoutes(accountHandler, transactionHandler, log)
	router.Use(collector.Middleware)
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server - address: %s", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Info("Server shutdown completed")
}

func openEngine(cfg *config.Config, log *logger.Logger) (engine.Engine, func(), error) {
	switch cfg.Engine {
	case config.EnginePostgres:
		db, err := database.NewConnection(cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return pgengine.New(db, log), func() { db.Close() }, nil
	case config.EngineNative:
		e, err := native.Open(cfg.LibraryDir)
		if err != nil {
			return nil, nil, err
		}
		return e, func() { e.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger engine %q", cfg.Engine)
	}
}
