package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/index"
	"github.com/shaiso/Tenders/internal/mq"
	"github.com/shaiso/Tenders/internal/telemetry"
)

// SyncRunner выполняет синхронизацию синхронно. Реализуется *syncer.Syncer.
type SyncRunner interface {
	Run(ctx context.Context, settings domain.SyncSettings) domain.SyncResult
}

// Dispatcher ставит синхронизацию в очередь. Реализуется *mq.Publisher.
type Dispatcher interface {
	PublishSyncRequested(ctx context.Context, payload mq.SyncRequestedPayload) error
}

// LogReader читает журнал синхронизаций. Реализуется repo.SyncLogStore.
type LogReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.SyncLog, error)
}

// TenderIndex — запросы к индексу тендеров. Реализуется *index.Client.
type TenderIndex interface {
	Stats(ctx context.Context, now time.Time) (*index.Stats, error)
	Recent(ctx context.Context, limit int) ([]domain.Fields, error)
	Ping(ctx context.Context) (*index.ClusterInfo, error)
}

// BrokerStatus — состояние соединения с брокером. Реализуется *mq.Connection.
type BrokerStatus interface {
	IsConnected() bool
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	syncer     SyncRunner
	dispatcher Dispatcher
	logs       LogReader
	index      TenderIndex
	broker     BrokerStatus
	defaults   domain.SyncSettings
	logger     *slog.Logger
	now        func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Syncer SyncRunner

	// Dispatcher — опционально; без него ?async=true недоступен.
	Dispatcher Dispatcher

	Logs  LogReader
	Index TenderIndex

	// Broker — опционально; попадает в /healthz.
	Broker BrokerStatus

	// Defaults — настройки для POST /api/v1/sync без тела.
	Defaults domain.SyncSettings

	Logger *slog.Logger
	Now    func() time.Time
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		syncer:     cfg.Syncer,
		dispatcher: cfg.Dispatcher,
		logs:       cfg.Logs,
		index:      cfg.Index,
		broker:     cfg.Broker,
		defaults:   cfg.Defaults,
		logger:     logger,
		now:        now,
	}
}

// requestLogger — логгер с request_id из middleware, иначе логгер Handler.
func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return telemetry.FromContextOr(r.Context(), h.logger)
}
