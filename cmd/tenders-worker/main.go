package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tenders/internal/app"
	"github.com/shaiso/Tenders/internal/config"
	"github.com/shaiso/Tenders/internal/telemetry"
	"github.com/shaiso/Tenders/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger("tenders-worker")
	logger.Info("starting tenders-worker")

	cfg, err := config.Load(os.Getenv("TENDERS_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger, app.Options{Service: "tenders-worker", RequireBroker: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	w := worker.New(worker.Config{
		Runner: a.Syncer,
		Conn:   a.MQ,
		Logger: logger,
	})
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		telemetry.CountRequest("tenders-worker")
		if w.IsStopped() || !a.MQ.IsConnected() {
			http.Error(rw, "rabbitmq unavailable", http.StatusServiceUnavailable)
			return
		}
		rw.Write([]byte("ok"))
	})

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}
	server := &http.Server{Addr: port, Handler: mux}
	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	w.Stop()
	_ = server.Close()

	logger.Info("stopped")
}
