package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/mq"
	"github.com/shaiso/Tenders/internal/repo"
	"github.com/shaiso/Tenders/internal/telemetry"
)

// maxLogLimit — верхняя граница limit для журнала.
const maxLogLimit = 100

// RunSync запускает синхронизацию.
// POST /api/v1/sync[?async=true]
//
// Тело запроса — SyncSettings; без тела используются настройки по умолчанию.
// Синхронный режим возвращает SyncResult: 200 при успехе, 502 при ошибке.
// Асинхронный публикует sync.requested и возвращает 202 с sync_id.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	var settings domain.SyncSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		if !errors.Is(err, io.EOF) {
			BadRequest(w, "invalid request body: "+err.Error())
			return
		}
		settings = h.defaults
	}

	async := false
	if v := r.URL.Query().Get("async"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(w, "invalid async flag")
			return
		}
		async = parsed
	}

	if async {
		h.enqueueSync(w, r, settings)
		return
	}

	if h.syncer == nil {
		Unavailable(w, "sync is not configured")
		return
	}

	ctx := telemetry.WithLogger(r.Context(), h.requestLogger(r))
	result := h.syncer.Run(ctx, settings)
	if !result.Success {
		JSON(w, http.StatusBadGateway, DataResponse{Data: result})
		return
	}
	Success(w, result)
}

func (h *Handler) enqueueSync(w http.ResponseWriter, r *http.Request, settings domain.SyncSettings) {
	if h.dispatcher == nil {
		Unavailable(w, "async sync requires a message broker")
		return
	}

	syncID := uuid.NewString()
	err := h.dispatcher.PublishSyncRequested(r.Context(), mq.SyncRequestedPayload{
		SyncID:   syncID,
		Settings: settings,
		Source:   "api",
	})
	if err != nil {
		h.requestLogger(r).Error("failed to publish sync.requested", "sync_id", syncID, "error", err)
		Unavailable(w, "failed to enqueue sync")
		return
	}

	h.requestLogger(r).Info("sync enqueued", "sync_id", syncID)
	Accepted(w, SyncAcceptedResponse{SyncID: syncID, Status: "queued"})
}

// ListSyncLogs возвращает последние записи журнала синхронизаций.
// GET /api/v1/sync/logs?limit=...
func (h *Handler) ListSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, repo.DefaultLogLimit, maxLogLimit)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	logs, err := h.logs.ListRecent(r.Context(), limit)
	if err != nil {
		InternalError(w, h.requestLogger(r), err)
		return
	}

	result := make([]SyncLogResponse, len(logs))
	for i, l := range logs {
		result[i] = SyncLogFromDomain(l)
	}

	List(w, result, len(result))
}

// parseLimit читает ?limit: пусто — def, больше maxLimit — maxLimit.
func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
