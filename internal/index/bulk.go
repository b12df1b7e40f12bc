package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/Tenders/internal/domain"
)

// Результаты операции index в ответе _bulk.
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
)

// BulkItem — результат записи одного документа.
type BulkItem struct {
	// ID — _id документа.
	ID string

	// Status — HTTP-статус операции над документом.
	Status int

	// Result — "created", "updated" или пусто при ошибке.
	Result string

	// Error — описание ошибки документа (type: reason).
	Error string
}

// OK возвращает true, если документ записан.
func (i BulkItem) OK() bool {
	return i.Status >= 200 && i.Status < 300
}

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool                        `json:"errors"`
	Items  []map[string]bulkItemResult `json:"items"`
}

type bulkItemResult struct {
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Result string          `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type bulkItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Bulk записывает документы одним запросом _bulk (операция index,
// _id = documentId) и ждёт refresh, чтобы документы сразу были видны в поиске.
//
// Возвращает результаты по документам в порядке ответа.
// Ошибка возвращается только если запрос не выполнен целиком:
// транспорт, статус ошибки или нечитаемый ответ (всё оборачивает ErrIndexing).
// Пустой список не отправляется.
func (c *Client) Bulk(ctx context.Context, docs []domain.Document) ([]BulkItem, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	body, err := c.bulkBody(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexing, err)
	}

	res, err := c.es.Bulk(bytes.NewReader(body),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexing, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %w", ErrIndexing, responseError(res))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode bulk response: %w", ErrIndexing, err)
	}

	items := make([]BulkItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		for _, r := range entry {
			items = append(items, BulkItem{
				ID:     r.ID,
				Status: r.Status,
				Result: r.Result,
				Error:  itemError(r.Error),
			})
		}
	}

	c.logger.Debug("bulk request completed",
		"documents", len(docs),
		"items", len(items),
		"errors", parsed.Errors,
	)
	return items, nil
}

// bulkBody собирает NDJSON: строка действия, затем строка документа.
func (c *Client) bulkBody(docs []domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, doc := range docs {
		if err := enc.Encode(bulkAction{Index: bulkMeta{Index: c.index, ID: doc.ID}}); err != nil {
			return nil, fmt.Errorf("encode action for %s: %w", doc.ID, err)
		}
		if err := enc.Encode(doc.Fields); err != nil {
			return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func itemError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var e bulkItemError
	if err := json.Unmarshal(raw, &e); err == nil && (e.Type != "" || e.Reason != "") {
		if e.Type == "" {
			return e.Reason
		}
		return e.Type + ": " + e.Reason
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
