package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tenders/internal/app"
	"github.com/shaiso/Tenders/internal/config"
	"github.com/shaiso/Tenders/internal/scheduler"
	"github.com/shaiso/Tenders/internal/telemetry"
)

const (
	schedLockKey int64 = 424243
	tickInterval       = time.Second
)

func main() {
	logger := telemetry.SetupLogger("tenders-scheduler")
	logger.Info("starting tenders-scheduler")

	cfg, err := config.Load(os.Getenv("TENDERS_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger, app.Options{Service: "tenders-scheduler"})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	scfg := scheduler.Config{
		Schedules: cfg.Sync.Schedules,
		Runner:    a.Syncer,
		Logger:    logger,
	}
	// С брокером запуски уходят воркерам, без него выполняются здесь
	if a.Publisher != nil {
		scfg.Dispatcher = a.Publisher
	}
	sched := scheduler.New(scfg)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		telemetry.CountRequest("tenders-scheduler")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	server := &http.Server{Addr: port, Handler: mux}
	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http error", "error", err)
			cancel()
		}
	}()

	runLoop(ctx, a.Store.Pool, sched, logger)

	_ = server.Close()
	logger.Info("stopped")
}

// runLoop тикает планировщиком, пока процесс держит лидерство.
//
// С Postgres лидер определяется pg_try_advisory_lock на выделенном
// соединении (блокировка живёт, пока живёт сессия). Без Postgres
// (SQLite) процесс считается единственным.
func runLoop(ctx context.Context, pool *pgxpool.Pool, sched *scheduler.Scheduler, logger *slog.Logger) {
	tk := time.NewTicker(tickInterval)
	defer tk.Stop()

	var conn *pgxpool.Conn
	defer func() {
		if conn != nil {
			_, _ = conn.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			conn.Release()
		}
	}()

	hasLock := pool == nil
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}

		// пытаемся стать лидером
		if !hasLock {
			if conn == nil {
				c, err := pool.Acquire(ctx)
				if err != nil {
					logger.Warn("acquire lock connection", "error", err)
					continue
				}
				conn = c
			}

			var ok bool
			if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
				logger.Warn("advisory lock failed", "error", err)
				conn.Release()
				conn = nil
				continue
			}
			if !ok {
				// не лидер — пропускаем тик
				continue
			}
			hasLock = true
			logger.Info("acquired scheduler leadership")
		}

		sched.Tick(ctx)
	}
}
