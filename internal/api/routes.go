package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		RequestID(h.logger),
		Recovery(),
		Logging(),
		Metrics("tenders-api"),
	)

	// Sync
	mux.Handle("POST /api/v1/sync", chain(http.HandlerFunc(h.RunSync)))
	mux.Handle("GET /api/v1/sync/logs", chain(http.HandlerFunc(h.ListSyncLogs)))

	// Tenders
	mux.Handle("GET /api/v1/tenders/stats", chain(http.HandlerFunc(h.TenderStats)))
	mux.Handle("GET /api/v1/tenders/recent", chain(http.HandlerFunc(h.RecentTenders)))

	// Service
	mux.Handle("GET /healthz", http.HandlerFunc(h.Health))
	mux.Handle("GET /metrics", promhttp.Handler())
}
