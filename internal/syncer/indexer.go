package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/index"
)

// BulkWriter — пакетная запись документов в индекс.
// Реализуется *index.Client.
type BulkWriter interface {
	Bulk(ctx context.Context, docs []domain.Document) ([]index.BulkItem, error)
}

// Indexer записывает документы и классифицирует результат по документам.
type Indexer struct {
	writer BulkWriter
	logger *slog.Logger
}

// NewIndexer создаёт Indexer.
func NewIndexer(writer BulkWriter, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{writer: writer, logger: logger}
}

// Index записывает документы одним пакетом.
//
// Возвращает счётчики Added/Updated/Failed (Total не заполняется):
//   - 2xx + created → Added
//   - 2xx + updated → Updated
//   - остальное, а также документы без результата в ответе → Failed
//
// Пустой список не отправляется в индекс. Ошибка (ErrIndexing) означает,
// что пакет не выполнен целиком; счётчики в этом случае не возвращаются.
func (i *Indexer) Index(ctx context.Context, docs []domain.Document) (domain.SyncStats, error) {
	if len(docs) == 0 {
		return domain.SyncStats{}, nil
	}

	items, err := i.writer.Bulk(ctx, docs)
	if err != nil {
		if !errors.Is(err, index.ErrIndexing) {
			err = fmt.Errorf("%w: %w", index.ErrIndexing, err)
		}
		return domain.SyncStats{}, err
	}

	var stats domain.SyncStats
	n := min(len(items), len(docs))
	for _, item := range items[:n] {
		switch {
		case item.OK() && item.Result == index.ResultCreated:
			stats.Added++
		case item.OK() && item.Result == index.ResultUpdated:
			stats.Updated++
		default:
			stats.Failed++
			i.logger.Warn("document not indexed",
				"document_id", item.ID,
				"status", item.Status,
				"result", item.Result,
				"error", item.Error,
			)
		}
	}

	if missing := len(docs) - n; missing > 0 {
		stats.Failed += missing
		i.logger.Warn("bulk response is missing items", "missing", missing)
	}

	return stats, nil
}
