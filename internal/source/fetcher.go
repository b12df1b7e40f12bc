package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shaiso/Tenders/internal/domain"
)

const (
	// DefaultTimeout — таймаут одного запроса к внешнему API.
	DefaultTimeout = 30 * time.Second

	maxResponseBody = 10 * 1024 * 1024 // 10 MB
	maxErrorBody    = 500
)

// Ключи ответа, под которыми API может вернуть массив записей (в порядке проверки).
var envelopeKeys = []string{"results", "data"}

// DefaultHeaders возвращает заголовки, которые ожидает портал тендеров.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
		"Accept-Language":  "en-US,en;q=0.9",
		"User-Agent":       "Mozilla/5.0 (compatible; Tenders-Sync/1.0)",
	}
}

// Fetcher выполняет запросы к внешнему API тендеров.
//
// Один вызов Fetch — один GET без кеширования с ограничением по времени.
// Fetcher не хранит изменяемого состояния и безопасен для параллельного использования.
type Fetcher struct {
	url     string
	timeout time.Duration
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

// Config — конфигурация Fetcher.
type Config struct {
	// URL — endpoint внешнего API (обязательно).
	URL string

	// Timeout — таймаут запроса (default: 30s).
	Timeout time.Duration

	// Headers — заголовки запроса (default: DefaultHeaders()).
	Headers map[string]string

	// Client — HTTP-клиент (опционально).
	Client *http.Client

	Logger *slog.Logger
}

// New создаёт новый Fetcher.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := cfg.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		url:     cfg.URL,
		timeout: timeout,
		headers: headers,
		client:  client,
		logger:  logger,
	}
}

// Fetch запрашивает одну страницу записей.
//
// Возвращает записи из массива "results" или "data".
// Пустой массив — корректный результат (ноль записей), не ошибка.
func (f *Fetcher) Fetch(ctx context.Context, params Params) ([]domain.RawTender, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	reqURL := f.requestURL(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}
	// Всегда свежие данные
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	f.logger.Debug("fetching tenders", "url", reqURL)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: request not completed within %s: %w", ErrFetch, f.timeout, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: reading response: %w", ErrFetch, ctxErr)
		}
		return nil, fmt.Errorf("%w: read response: %v", ErrFetch, err)
	}

	f.logger.Debug("api response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", ErrFetch, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		})
	}

	return f.decode(body)
}

// decode извлекает массив записей из ответа.
func (f *Fetcher) decode(body []byte) ([]domain.RawTender, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Валидный JSON, но не объект
			return nil, fmt.Errorf("%w: response is a JSON %s, not an object", ErrMalformedResponse, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: failed to parse API response as JSON: %v (body: %s)",
			ErrFetch, err, truncate(string(body), maxErrorBody))
	}
	if envelope == nil {
		return nil, fmt.Errorf("%w: response is null", ErrMalformedResponse)
	}

	for _, key := range envelopeKeys {
		raw, ok := envelope[key]
		if !ok || !isArray(raw) {
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: decode %q array: %v", ErrMalformedResponse, key, err)
		}

		records := make([]domain.RawTender, 0, len(items))
		for i, item := range items {
			var rec domain.RawTender
			if err := json.Unmarshal(item, &rec); err != nil {
				// Запись без полей будет отклонена нормализатором
				f.logger.Warn("skipping non-object record", "index", i, "error", err)
				rec = domain.RawTender{Fields: domain.NewFields()}
			}
			records = append(records, rec)
		}

		f.logger.Debug("decoded api response", "envelope", key, "records", len(records))
		return records, nil
	}

	return nil, fmt.Errorf("%w: neither results nor data array found", ErrMalformedResponse)
}

// requestURL собирает URL запроса с параметрами.
func (f *Fetcher) requestURL(params Params) string {
	query := params.Encode()
	if query == "" {
		return f.url
	}
	sep := "?"
	if strings.Contains(f.url, "?") {
		sep = "&"
	}
	return f.url + sep + query
}

// isArray проверяет, что сырое JSON-значение — массив.
func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// truncate обрезает строку до maxLen символов.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
