package domain

import "time"

// SyncState — этап выполнения синхронизации.
//
// Жизненный цикл:
//
//	IDLE → NORMALIZING → FETCHING → TRANSFORMING → INDEXING → LOGGING → DONE
//	          (ошибка FETCHING или INDEXING) ↘ DONE
type SyncState string

const (
	SyncStateIdle         SyncState = "IDLE"
	SyncStateNormalizing  SyncState = "NORMALIZING"
	SyncStateFetching     SyncState = "FETCHING"
	SyncStateTransforming SyncState = "TRANSFORMING"
	SyncStateIndexing     SyncState = "INDEXING"
	SyncStateLogging      SyncState = "LOGGING"
	SyncStateDone         SyncState = "DONE"
)

// SyncStats — счётчики одного запуска синхронизации.
//
// Total — количество записей, полученных от API (до дедупликации).
// Записи без идентификатора и ошибки индексации попадают в Failed,
// повторы внутри запуска — в Duplicates.
type SyncStats struct {
	Total      int `json:"total"`
	Added      int `json:"added"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// Add суммирует счётчики (используется при обходе нескольких страниц).
func (s *SyncStats) Add(other SyncStats) {
	s.Total += other.Total
	s.Added += other.Added
	s.Updated += other.Updated
	s.Failed += other.Failed
	s.Duplicates += other.Duplicates
}

// Consistent проверяет инвариант added + updated + failed + duplicates == total.
func (s SyncStats) Consistent() bool {
	return s.Added+s.Updated+s.Failed+s.Duplicates == s.Total
}

// SyncResult — итог запуска синхронизации.
//
// Stats заполнен только если этап индексации был выполнен.
type SyncResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

// SyncLog — запись журнала синхронизаций (таблица sync_logs).
//
// Создаётся один раз на запуск, дошедший до индексации.
// Не изменяется и не удаляется этим сервисом.
type SyncLog struct {
	// ID — идентификатор записи (назначается хранилищем).
	ID int64 `json:"id"`

	// SyncTime — время синхронизации (назначается хранилищем).
	SyncTime time.Time `json:"sync_time"`

	// TotalTenders — сколько записей вернул API.
	TotalTenders int `json:"total_tenders"`

	// NewTendersCount — сколько документов создано в индексе.
	NewTendersCount int `json:"new_tenders_count"`
}

// NewSyncLog создаёт запись журнала по итоговым счётчикам.
func NewSyncLog(stats SyncStats) *SyncLog {
	return &SyncLog{
		TotalTenders:    stats.Total,
		NewTendersCount: stats.Added,
	}
}
