package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/normalize"
	"github.com/shaiso/Tenders/internal/source"
	"github.com/shaiso/Tenders/internal/telemetry"
)

const (
	msgFetchFailed   = "Error fetching from API: "
	msgIndexFailed   = "Error indexing to Elasticsearch: "
	msgCancelled     = "Sync cancelled: "
	msgNothingToSync = "API returned 0 tenders to sync"
	msgCompletedFmt  = "Sync completed: %d added, %d updated, %d failed"
	notifyTimeout    = 5 * time.Second
)

// Fetcher получает записи из внешнего API.
// Реализуется *source.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, params source.Params) ([]domain.RawTender, error)
}

// Notifier публикует итог запуска.
// Реализуется *mq.Publisher.
type Notifier interface {
	PublishSyncCompleted(ctx context.Context, syncID string, result domain.SyncResult) error
}

// Syncer выполняет синхронизацию: получение, нормализация, индексация, журнал.
//
// Хранит только неизменяемые зависимости, поэтому Run можно вызывать
// конкурентно. Исключение одновременных запусков между процессами —
// забота вызывающей стороны (advisory lock в scheduler).
type Syncer struct {
	fetcher      Fetcher
	indexer      *Indexer
	recorder     *Recorder
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
	onTransition func(domain.SyncState)
}

// Config — конфигурация Syncer.
type Config struct {
	Fetcher Fetcher
	Index   BulkWriter

	// Logs — журнал синхронизаций (опционально).
	Logs LogStore

	// Notifier — публикация sync.completed (опционально).
	Notifier Notifier

	Logger *slog.Logger

	// Now — источник времени для added_date (default: time.Now).
	Now func() time.Time

	// OnTransition вызывается при каждой смене этапа (опционально).
	OnTransition func(domain.SyncState)
}

// New создаёт Syncer.
func New(cfg Config) *Syncer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Syncer{
		fetcher:      cfg.Fetcher,
		indexer:      NewIndexer(cfg.Index, logger),
		recorder:     NewRecorder(cfg.Logs, logger),
		notifier:     cfg.Notifier,
		logger:       logger,
		now:          now,
		onTransition: cfg.OnTransition,
	}
}

// Run выполняет один запуск синхронизации с новым sync_id.
func (s *Syncer) Run(ctx context.Context, settings domain.SyncSettings) domain.SyncResult {
	return s.RunWithID(ctx, uuid.NewString(), settings)
}

// RunWithID выполняет один запуск синхронизации.
//
// Этапы: NORMALIZING → FETCHING → TRANSFORMING → INDEXING → LOGGING → DONE.
// При Pages > 1 этапы FETCHING..INDEXING повторяются для каждой страницы
// последовательно; обход прекращается на неполной странице.
//
// Никогда не возвращает ошибку: любой сбой превращается в
// SyncResult{Success: false} с сообщением, указывающим этап.
// Повторов внутри запуска нет.
func (s *Syncer) RunWithID(ctx context.Context, syncID string, settings domain.SyncSettings) domain.SyncResult {
	started := time.Now()
	logger := telemetry.WithSyncID(telemetry.FromContextOr(ctx, s.logger), syncID)
	logger.Info("sync started", "pages", settings.PageCount())

	result, outcome := s.run(ctx, logger, settings)

	elapsed := time.Since(started)
	telemetry.ObserveSync(outcome, result.Stats, elapsed)

	attrs := []any{"outcome", outcome, "message", result.Message, "duration", elapsed}
	if result.Stats != nil {
		attrs = append(attrs,
			"total", result.Stats.Total,
			"added", result.Stats.Added,
			"updated", result.Stats.Updated,
			"failed", result.Stats.Failed,
			"duplicates", result.Stats.Duplicates,
		)
	}
	if result.Success {
		logger.Info("sync finished", attrs...)
	} else {
		logger.Error("sync failed", attrs...)
	}

	s.notify(ctx, logger, syncID, result)
	return result
}

func (s *Syncer) run(ctx context.Context, logger *slog.Logger, settings domain.SyncSettings) (domain.SyncResult, string) {
	s.enter(logger, domain.SyncStateNormalizing)
	base := source.BuildParams(settings)
	pageSize := source.PageSize(settings)
	normalizer := normalize.New(normalize.Config{Now: s.now, Logger: logger})

	var (
		stats   domain.SyncStats
		indexed bool
		failure string
		outcome string
	)

	for page := 1; page <= settings.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			failure, outcome = msgCancelled+err.Error(), telemetry.OutcomeCancelled
			break
		}

		s.enter(logger, domain.SyncStateFetching)
		started := time.Now()
		records, err := s.fetcher.Fetch(ctx, source.ForPage(base, page))
		telemetry.ObserveStage("fetch", started)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				failure, outcome = msgCancelled+ctxErr.Error(), telemetry.OutcomeCancelled
			} else {
				failure, outcome = msgFetchFailed+err.Error(), telemetry.OutcomeFailed
			}
			break
		}
		logger.Debug("page fetched", "page", page, "records", len(records))

		s.enter(logger, domain.SyncStateTransforming)
		started = time.Now()
		batch := normalizer.Normalize(records)
		telemetry.ObserveStage("transform", started)
		pageStats := domain.SyncStats{
			Total:      len(records),
			Failed:     batch.Rejected,
			Duplicates: batch.Duplicates,
		}

		s.enter(logger, domain.SyncStateIndexing)
		started = time.Now()
		indexStats, err := s.indexer.Index(ctx, batch.Documents)
		telemetry.ObserveStage("index", started)
		if err != nil {
			failure, outcome = msgIndexFailed+err.Error(), telemetry.OutcomeFailed
			break
		}
		pageStats.Add(indexStats)
		stats.Add(pageStats)
		indexed = true

		if len(records) < pageSize {
			break
		}
	}

	if indexed {
		s.enter(logger, domain.SyncStateLogging)
		started := time.Now()
		// Данные уже в индексе: журнал пишется и при отменённом контексте.
		if _, err := s.recorder.Record(context.WithoutCancel(ctx), stats); err != nil {
			logger.Error("failed to record sync log", "error", err)
		}
		telemetry.ObserveStage("log", started)
	}

	s.enter(logger, domain.SyncStateDone)

	result := domain.SyncResult{Success: failure == ""}
	if indexed {
		result.Stats = &stats
	}

	switch {
	case failure != "":
		result.Message = failure
	case stats.Total == 0:
		result.Message = msgNothingToSync
		outcome = telemetry.OutcomeEmpty
	default:
		result.Message = fmt.Sprintf(msgCompletedFmt, stats.Added, stats.Updated, stats.Failed)
		outcome = telemetry.OutcomeSuccess
	}
	return result, outcome
}

func (s *Syncer) enter(logger *slog.Logger, state domain.SyncState) {
	logger.Debug("sync state", "state", state)
	if s.onTransition != nil {
		s.onTransition(state)
	}
}

func (s *Syncer) notify(ctx context.Context, logger *slog.Logger, syncID string, result domain.SyncResult) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.PublishSyncCompleted(ctx, syncID, result); err != nil {
		logger.Warn("failed to publish sync.completed", "error", err)
	}
}
