package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/Tenders/internal/api"
	"github.com/shaiso/Tenders/internal/app"
	"github.com/shaiso/Tenders/internal/config"
	"github.com/shaiso/Tenders/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("tenders-api")
	logger.Info("starting tenders-api")

	cfg, err := config.Load(os.Getenv("TENDERS_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger, app.Options{Service: "tenders-api"})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	hcfg := api.Config{
		Syncer:   a.Syncer,
		Logs:     a.Store.Logs,
		Index:    a.Index,
		Defaults: cfg.Sync.Settings,
		Logger:   logger,
	}
	if a.Publisher != nil {
		hcfg.Dispatcher = a.Publisher
		hcfg.Broker = a.MQ
	}
	handler := api.NewHandler(hcfg)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := cfg.ListenAddr()

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown: синхронные запуски успевают записать журнал
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
