package api

import (
	"net/http"

	"github.com/shaiso/Tenders/internal/index"
)

// TenderStats возвращает сводку по индексу тендеров.
// GET /api/v1/tenders/stats
func (h *Handler) TenderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.index.Stats(r.Context(), h.now())
	if err != nil {
		UpstreamError(w, h.requestLogger(r), err)
		return
	}
	Success(w, stats)
}

// RecentTenders возвращает последние добавленные тендеры.
// GET /api/v1/tenders/recent?limit=...
func (h *Handler) RecentTenders(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, index.DefaultRecentLimit, index.MaxRecentLimit)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	tenders, err := h.index.Recent(r.Context(), limit)
	if err != nil {
		UpstreamError(w, h.requestLogger(r), err)
		return
	}

	List(w, tenders, len(tenders))
}

// Health проверяет доступность Elasticsearch и RabbitMQ.
// GET /healthz
//
// Без Elasticsearch — 503. Потеря брокера только помечает
// статус как degraded: синхронный /sync продолжает работать.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", RabbitMQ: h.brokerStatus()}

	info, err := h.index.Ping(r.Context())
	if err != nil {
		h.requestLogger(r).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Elasticsearch = "unavailable"
		JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Elasticsearch = "ok"
	resp.ClusterName = info.ClusterName
	resp.Version = info.Version.Number
	if resp.RabbitMQ == "unavailable" {
		resp.Status = "degraded"
	}
	JSON(w, http.StatusOK, resp)
}

// brokerStatus: "disabled" без брокера, иначе ok/unavailable.
func (h *Handler) brokerStatus() string {
	switch {
	case h.broker == nil:
		return "disabled"
	case h.broker.IsConnected():
		return "ok"
	default:
		return "unavailable"
	}
}
