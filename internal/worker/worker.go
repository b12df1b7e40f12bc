package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/mq"
	"github.com/shaiso/Tenders/internal/telemetry"
)

const defaultPrefetch = 1

// Runner выполняет синхронизацию. Реализуется *syncer.Syncer.
type Runner interface {
	RunWithID(ctx context.Context, syncID string, settings domain.SyncSettings) domain.SyncResult
}

// Worker выполняет синхронизации, запрошенные через очередь sync.requested.
//
// Worker не хранит состояния: итог синхронизации пишет Syncer
// (журнал, метрики, событие sync.completed). Несколько воркеров
// могут потреблять из одной очереди.
type Worker struct {
	runner   Runner
	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Runner Runner
	Conn   *mq.Connection

	// Prefetch — сколько запросов воркер берёт одновременно (default: 1).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runner:   cfg.Runner,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает consumer очереди sync.requested.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return mq.ErrNotConnected
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "queue", mq.QueueSyncRequested, "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueSyncRequested),
		Handler:  w.HandleMessage,
		Tag:      "tenders-worker",
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("sync consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущей синхронизации.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// HandleMessage обрабатывает одно сообщение sync.requested.
//
// Неверный тип или нечитаемый payload — ошибка с mq.ErrPermanent
// (сообщение уходит в DLQ). Неуспешная синхронизация не считается
// ошибкой обработки: итог уже записан Syncer'ом. Прерывание
// остановкой воркера возвращает ErrInterrupted, и сообщение
// возвращается в очередь.
func (w *Worker) HandleMessage(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeSyncRequested {
		return fmt.Errorf("%w: %w: %s", mq.ErrPermanent, ErrUnexpectedMessage, msg.Type)
	}

	payload, err := mq.ParsePayload[mq.SyncRequestedPayload](msg)
	if err != nil {
		w.logger.Error("failed to parse sync.requested payload", "message_id", msg.ID, "error", err)
		return err
	}

	syncID := payload.SyncID
	if syncID == "" {
		syncID = uuid.NewString()
	}

	logger := telemetry.WithMessageID(telemetry.WithSyncID(w.logger, syncID), msg.ID)
	logger.Info("sync request received", "requested_by", payload.Source)

	result := w.runner.RunWithID(ctx, syncID, payload.Settings)

	if !result.Success && ctx.Err() != nil {
		logger.Warn("sync interrupted by shutdown", "message", result.Message)
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	logger.Info("sync request processed",
		"success", result.Success,
		"message", result.Message,
	)
	return nil
}
