package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует внутренние пакеты) ---

// SyncStats — счётчики синхронизации.
type SyncStats struct {
	Total      int `json:"total"`
	Added      int `json:"added"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// SyncResult — итог синхронной синхронизации.
type SyncResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

// SyncAccepted — ответ на асинхронный запрос.
type SyncAccepted struct {
	SyncID string `json:"sync_id"`
	Status string `json:"status"`
}

// SyncLogResponse — запись журнала синхронизаций.
type SyncLogResponse struct {
	ID              int64  `json:"id"`
	SyncTime        string `json:"sync_time"`
	TotalTenders    int    `json:"total_tenders"`
	NewTendersCount int    `json:"new_tenders_count"`
}

// StatsResponse — сводка по индексу.
type StatsResponse struct {
	TotalTenders  int64            `json:"totalTenders"`
	NewTodayCount int64            `json:"newTodayCount"`
	ByStatus      map[string]int64 `json:"byStatus"`
	ByCategory    map[string]int64 `json:"byCategory"`
}

// Tender — документ индекса; поля зависят от внешнего API.
type Tender map[string]any

// --- Request types ---

// SyncRequest — параметры синхронизации (незаданные поля не отправляются).
type SyncRequest struct {
	PageSize         *int     `json:"pageSize,omitempty"`
	TenderCategory   *int     `json:"tenderCategory,omitempty"`
	TenderActivityID *int     `json:"tenderActivityId,omitempty"`
	TenderAreasID    *int     `json:"tenderAreasId,omitempty"`
	Fields           []string `json:"fields,omitempty"`
	Pages            int      `json:"pages,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Tenders API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// Таймаут покрывает синхронный запуск синхронизации.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- Sync ---

// RunSync запускает синхронизацию и ждёт её завершения.
//
// Неуспешная синхронизация (HTTP 502) возвращается как SyncResult
// с Success=false, а не как ошибка.
func (c *Client) RunSync(req SyncRequest) (*SyncResult, error) {
	resp, err := c.do(http.MethodPost, "/api/v1/sync", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		if err := c.checkError(resp); err != nil {
			return nil, err
		}
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var result SyncResult
	if err := json.Unmarshal(dr.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode sync result: %w", err)
	}
	return &result, nil
}

// EnqueueSync ставит синхронизацию в очередь.
func (c *Client) EnqueueSync(req SyncRequest) (*SyncAccepted, error) {
	var accepted SyncAccepted
	err := c.post("/api/v1/sync?async=true", req, &accepted)
	return &accepted, err
}

// ListSyncLogs возвращает последние записи журнала.
func (c *Client) ListSyncLogs(limit int) ([]SyncLogResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var logs []SyncLogResponse
	err := c.list("/api/v1/sync/logs", params, &logs)
	return logs, err
}

// --- Tenders ---

// Stats возвращает сводку по индексу.
func (c *Client) Stats() (*StatsResponse, error) {
	var stats StatsResponse
	err := c.get("/api/v1/tenders/stats", &stats)
	return &stats, err
}

// RecentTenders возвращает последние добавленные тендеры.
func (c *Client) RecentTenders(limit int) ([]Tender, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var tenders []Tender
	err := c.list("/api/v1/tenders/recent", params, &tenders)
	return tenders, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
