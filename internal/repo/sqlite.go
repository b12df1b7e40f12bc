package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaiso/Tenders/internal/domain"
)

// sqliteTimeFormat — формат sync_time в SQLite (UTC, миллисекунды).
const sqliteTimeFormat = "%Y-%m-%dT%H:%M:%fZ"

// OpenSQLite открывает встроенную базу SQLite.
// DSN — путь к файлу или ":memory:".
func OpenSQLite(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = "tenders.db"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Одно соединение: SQLite не любит конкурентных писателей,
	// а для ":memory:" это ещё и одна общая база.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return db, nil
}

// SQLiteSyncLogRepo — журнал синхронизаций во встроенной SQLite.
type SQLiteSyncLogRepo struct {
	db *sql.DB
}

// NewSQLiteSyncLogRepo создаёт новый SQLiteSyncLogRepo.
func NewSQLiteSyncLogRepo(db *sql.DB) *SQLiteSyncLogRepo {
	return &SQLiteSyncLogRepo{db: db}
}

// EnsureSchema создаёт таблицу sync_logs.
func (r *SQLiteSyncLogRepo) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_logs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			sync_time         TEXT NOT NULL DEFAULT (strftime('` + sqliteTimeFormat + `', 'now')),
			total_tenders     INTEGER NOT NULL,
			new_tenders_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sync_logs_sync_time_idx ON sync_logs (sync_time DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create sync_logs: %w", err)
		}
	}
	return nil
}

// Create добавляет запись журнала.
func (r *SQLiteSyncLogRepo) Create(ctx context.Context, log *domain.SyncLog) error {
	var syncTime string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sync_logs (total_tenders, new_tenders_count)
		VALUES (?, ?)
		RETURNING id, sync_time
	`, log.TotalTenders, log.NewTendersCount).Scan(&log.ID, &syncTime)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}

	log.SyncTime, err = parseSQLiteTime(syncTime)
	return err
}

// ListRecent возвращает последние записи журнала.
func (r *SQLiteSyncLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sync_time, total_tenders, new_tenders_count
		FROM sync_logs
		ORDER BY sync_time DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.SyncLog{}
	for rows.Next() {
		var (
			l        domain.SyncLog
			syncTime string
		)
		if err := rows.Scan(&l.ID, &syncTime, &l.TotalTenders, &l.NewTendersCount); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		if l.SyncTime, err = parseSQLiteTime(syncTime); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sync_time %q: %w", s, err)
	}
	return t, nil
}
