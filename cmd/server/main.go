package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/config"
	httpServer "github.com/AnkanMisra/SettleOne/internal/infrastructure/http"
	"github.com/AnkanMisra/SettleOne/internal/logger"
	"github.com/AnkanMisra/SettleOne/internal/metrics"
	"github.com/AnkanMisra/SettleOne/internal/store"
	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Wire the store, collaborators and metrics
	recorder := metrics.NewPrometheusRecorder()
	sessionStore := store.NewSessionStore()

	services := httpServer.Services{
		Sessions: usecase.NewSessionService(sessionStore, zapLogger, recorder),
		Ens: usecase.NewEnsService(
			cfg.Eth.RPCURL,
			cfg.Ens.APIURL,
			time.Duration(cfg.Ens.CacheTTLSecs)*time.Second,
			zapLogger,
			recorder,
		),
		Quotes: usecase.NewQuoteService(cfg.Lifi.APIURL, cfg.Lifi.APIKey, zapLogger, recorder),
	}

	httpSrv := httpServer.NewServer(cfg, zapLogger, services)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
