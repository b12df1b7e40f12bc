package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Tenders/internal/domain"
)

// LogStore — хранилище журнала синхронизаций.
// Реализуется repo.SyncLogRepo и repo.SQLiteSyncLogRepo.
type LogStore interface {
	Create(ctx context.Context, log *domain.SyncLog) error
}

// Recorder сохраняет запись журнала по итогам запуска.
type Recorder struct {
	store  LogStore
	logger *slog.Logger
}

// NewRecorder создаёт Recorder. store == nil — журнал не ведётся.
func NewRecorder(store LogStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record сохраняет {totalTenders, newTendersCount}; время и ID назначает хранилище.
// Ошибка оборачивает ErrLogPersistence.
func (r *Recorder) Record(ctx context.Context, stats domain.SyncStats) (*domain.SyncLog, error) {
	if r.store == nil {
		return nil, nil
	}

	entry := domain.NewSyncLog(stats)
	if err := r.store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogPersistence, err)
	}

	r.logger.Debug("sync log recorded",
		"log_id", entry.ID,
		"total_tenders", entry.TotalTenders,
		"new_tenders_count", entry.NewTendersCount,
	)
	return entry, nil
}
