package api

import (
	"time"

	"github.com/shaiso/Tenders/internal/domain"
)

// Sync DTOs

// SyncAcceptedResponse — ответ на асинхронный запрос синхронизации.
type SyncAcceptedResponse struct {
	SyncID string `json:"sync_id"`
	Status string `json:"status"`
}

// SyncLogResponse — запись журнала синхронизаций.
type SyncLogResponse struct {
	ID              int64     `json:"id"`
	SyncTime        time.Time `json:"sync_time"`
	TotalTenders    int       `json:"total_tenders"`
	NewTendersCount int       `json:"new_tenders_count"`
}

// SyncLogFromDomain конвертирует domain.SyncLog в SyncLogResponse.
func SyncLogFromDomain(l domain.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:              l.ID,
		SyncTime:        l.SyncTime,
		TotalTenders:    l.TotalTenders,
		NewTendersCount: l.NewTendersCount,
	}
}

// Health DTOs

// HealthResponse — ответ /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Elasticsearch string `json:"elasticsearch"`
	RabbitMQ      string `json:"rabbitmq"`
	ClusterName   string `json:"cluster_name,omitempty"`
	Version       string `json:"version,omitempty"`
}
