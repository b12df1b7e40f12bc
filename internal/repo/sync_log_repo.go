package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Tenders/internal/domain"
)

// DefaultLogLimit — сколько записей журнала возвращается по умолчанию.
const DefaultLogLimit = 20

// SyncLogStore — хранилище журнала синхронизаций.
//
// Записи только добавляются: ни обновления, ни удаления нет.
type SyncLogStore interface {
	// EnsureSchema создаёт таблицу sync_logs, если её нет.
	EnsureSchema(ctx context.Context) error

	// Create добавляет запись; ID и SyncTime назначает хранилище.
	Create(ctx context.Context, log *domain.SyncLog) error

	// ListRecent возвращает последние записи, новые первыми.
	ListRecent(ctx context.Context, limit int) ([]domain.SyncLog, error)
}

// SyncLogRepo — журнал синхронизаций в Postgres.
type SyncLogRepo struct {
	pool *pgxpool.Pool
}

// NewSyncLogRepo создаёт новый SyncLogRepo.
func NewSyncLogRepo(pool *pgxpool.Pool) *SyncLogRepo {
	return &SyncLogRepo{pool: pool}
}

// EnsureSchema создаёт таблицу sync_logs.
func (r *SyncLogRepo) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_logs (
			id                BIGSERIAL PRIMARY KEY,
			sync_time         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			total_tenders     INTEGER NOT NULL,
			new_tenders_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sync_logs_sync_time_idx ON sync_logs (sync_time DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create sync_logs: %w", err)
		}
	}
	return nil
}

// Create добавляет запись журнала.
func (r *SyncLogRepo) Create(ctx context.Context, log *domain.SyncLog) error {
	query := `
		INSERT INTO sync_logs (total_tenders, new_tenders_count)
		VALUES ($1, $2)
		RETURNING id, sync_time
	`
	err := r.pool.QueryRow(ctx, query, log.TotalTenders, log.NewTendersCount).
		Scan(&log.ID, &log.SyncTime)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// ListRecent возвращает последние записи журнала.
func (r *SyncLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	query := `
		SELECT id, sync_time, total_tenders, new_tenders_count
		FROM sync_logs
		ORDER BY sync_time DESC, id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.SyncLog{}
	for rows.Next() {
		var l domain.SyncLog
		if err := rows.Scan(&l.ID, &l.SyncTime, &l.TotalTenders, &l.NewTendersCount); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
