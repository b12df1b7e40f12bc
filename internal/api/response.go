package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorCode — машиночитаемый код ошибки в теле ответа.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
)

// ErrorResponse — {"error": {"code": ..., "message": ...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — тело ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — {"data": ...}. Так же оборачивается и неуспешный
// SyncResult, чтобы клиент читал его одинаково при 200 и 502.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — {"data": [...], "total": n}.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON пишет status и data. Ошибка кодирования уже не может
// изменить статус, поэтому только логируется.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode response", "status", status, "error", err)
	}
}

// Success — 200 с конвертом data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Accepted — 202 с конвертом data.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// List — 200 со списком и его длиной.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error пишет ErrorResponse.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// BadRequest — 400, сообщение уходит клиенту как есть.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unavailable — 503: нужная зависимость процесса не настроена.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// InternalError — 500; подробности только в логе.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("internal error", "error", err)
	}
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// UpstreamError — 502: Elasticsearch не ответил.
func UpstreamError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("search index request failed", "error", err)
	Error(w, http.StatusBadGateway, ErrCodeUpstream, "search index unavailable")
}
