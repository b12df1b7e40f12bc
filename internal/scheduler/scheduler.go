package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/mq"
	"github.com/shaiso/Tenders/internal/telemetry"
)

// Runner выполняет синхронизацию в текущем процессе.
// Реализуется *syncer.Syncer.
type Runner interface {
	RunWithID(ctx context.Context, syncID string, settings domain.SyncSettings) domain.SyncResult
}

// Dispatcher ставит синхронизацию в очередь.
// Реализуется *mq.Publisher.
type Dispatcher interface {
	PublishSyncRequested(ctx context.Context, payload mq.SyncRequestedPayload) error
}

// Scheduler запускает синхронизацию по расписаниям.
//
// Расписания хранятся в памяти (из конфигурации); NextDueAt
// вычисляется при создании. Если задан Dispatcher, запуск ставится
// в очередь sync.requested, иначе выполняется синхронно через Runner.
type Scheduler struct {
	schedules  []*domain.Schedule
	runner     Runner
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules  []domain.Schedule
	Runner     Runner
	Dispatcher Dispatcher // опционально, имеет приоритет над Runner
	Logger     *slog.Logger
	Now        func() time.Time
}

// New создаёт Scheduler. Расписания с ошибкой вычисления NextDueAt
// пропускаются с предупреждением; выключенные не планируются.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		runner:     cfg.Runner,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		now:        now,
	}

	start := now()
	for i := range cfg.Schedules {
		sched := cfg.Schedules[i]
		if !sched.Enabled {
			logger.Info("schedule disabled", "schedule", sched.Name)
			continue
		}

		next, err := NextDue(&sched, start)
		if err != nil {
			logger.Warn("skipping invalid schedule", "schedule", sched.Name, "error", err)
			continue
		}
		sched.NextDueAt = &next
		s.schedules = append(s.schedules, &sched)

		logger.Info("schedule registered", "schedule", sched.Name, "next_due_at", next)
	}
	return s
}

// Schedules возвращает активные расписания.
func (s *Scheduler) Schedules() []domain.Schedule {
	out := make([]domain.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, *sched)
	}
	return out
}

// Tick выполняет один тик планировщика.
//
// Для каждого расписания, у которого подошло время:
//  1. Запускает синхронизацию (или ставит в очередь)
//  2. Сдвигает NextDueAt от текущего момента (пропущенные запуски не догоняются)
//
// Ошибки одного расписания не блокируют остальные.
// Возвращает количество запущенных синхронизаций.
func (s *Scheduler) Tick(ctx context.Context) int {
	triggered := 0

	for _, sched := range s.schedules {
		if ctx.Err() != nil {
			break
		}

		now := s.now()
		if !sched.IsDue(now) {
			continue
		}

		logger := telemetry.WithSchedule(s.logger, sched.Name)
		if err := s.trigger(ctx, logger, sched); err != nil {
			logger.Error("failed to trigger sync", "error", err)
		} else {
			triggered++
		}

		finished := s.now()
		next, err := NextDue(sched, finished)
		if err != nil {
			logger.Error("failed to calculate next due", "error", err)
			continue
		}
		sched.RecordRun(now, next)
		logger.Debug("schedule advanced", "next_due_at", next)
	}

	if triggered > 0 {
		s.logger.Info("scheduler tick completed", "triggered", triggered)
	}
	return triggered
}

func (s *Scheduler) trigger(ctx context.Context, logger *slog.Logger, sched *domain.Schedule) error {
	syncID := uuid.NewString()

	if s.dispatcher != nil {
		err := s.dispatcher.PublishSyncRequested(ctx, mq.SyncRequestedPayload{
			SyncID:   syncID,
			Settings: sched.Settings,
			Source:   "scheduler",
		})
		if err != nil {
			return fmt.Errorf("publish sync.requested: %w", err)
		}
		logger.Info("sync requested", "sync_id", syncID)
		return nil
	}

	if s.runner == nil {
		return fmt.Errorf("scheduler has neither runner nor dispatcher")
	}

	result := s.runner.RunWithID(ctx, syncID, sched.Settings)
	logger.Info("scheduled sync finished",
		"sync_id", syncID,
		"success", result.Success,
		"message", result.Message,
	)
	return nil
}

// Run вызывает Tick с интервалом interval до отмены ctx.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
