package source

import (
	"errors"
	"fmt"
)

// Ошибки получения данных из внешнего API.
var (
	// ErrFetch — запрос к внешнему API не удался
	// (сеть, таймаут, отмена, не-2xx статус, невалидный JSON).
	ErrFetch = errors.New("api request failed")

	// ErrMalformedResponse — в ответе нет массива ни под "results", ни под "data".
	ErrMalformedResponse = errors.New("unexpected API response format")
)

// StatusError — внешний API ответил не-2xx статусом.
type StatusError struct {
	StatusCode int
	// Body — начало тела ответа (не более maxErrorBody символов).
	Body string
}

// Error реализует интерфейс error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("API responded with status %d: %s", e.StatusCode, e.Body)
}
