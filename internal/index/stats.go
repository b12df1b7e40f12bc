package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shaiso/Tenders/internal/domain"
)

const (
	// DefaultRecentLimit — сколько последних тендеров возвращает Recent по умолчанию.
	DefaultRecentLimit = 4

	// MaxRecentLimit — верхняя граница limit для Recent.
	MaxRecentLimit = 100

	// termsSize — сколько корзин возвращают агрегации по статусу и категории.
	termsSize = 10

	// newTenderWindow — окно "новых за сутки".
	newTenderWindow = 24 * time.Hour
)

// Stats — сводка по индексу для дашборда.
type Stats struct {
	TotalTenders  int64            `json:"totalTenders"`
	NewTodayCount int64            `json:"newTodayCount"`
	ByStatus      map[string]int64 `json:"byStatus"`
	ByCategory    map[string]int64 `json:"byCategory"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Source domain.Fields `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      any   `json:"key"`
			DocCount int64 `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// Count возвращает количество документов, подходящих под query.
// nil query — все документы индекса.
func (c *Client) Count(ctx context.Context, query map[string]any) (int64, error) {
	opts := []func(*esapi.CountRequest){
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
	}
	if query != nil {
		body, err := json.Marshal(map[string]any{"query": query})
		if err != nil {
			return 0, fmt.Errorf("marshal count query: %w", err)
		}
		opts = append(opts, c.es.Count.WithBody(bytes.NewReader(body)))
	}

	res, err := c.es.Count(opts...)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrQuery, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("%w: count: %w", ErrQuery, responseError(res))
	}

	var parsed countResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: decode count: %w", ErrQuery, err)
	}
	return parsed.Count, nil
}

// Stats собирает сводку: всего документов, добавленных за последние
// сутки (по added_date) и распределения по status и category.
func (c *Client) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	total, err := c.Count(ctx, nil)
	if err != nil {
		return nil, err
	}

	since := now.Add(-newTenderWindow).UTC().Format(time.RFC3339Nano)
	newToday, err := c.Count(ctx, map[string]any{
		"range": map[string]any{
			domain.FieldAddedDate: map[string]any{"gte": since},
		},
	})
	if err != nil {
		return nil, err
	}

	parsed, err := c.search(ctx, map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"status_counts":   map[string]any{"terms": map[string]any{"field": "status", "size": termsSize}},
			"category_counts": map[string]any{"terms": map[string]any{"field": "category", "size": termsSize}},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalTenders:  total,
		NewTodayCount: newToday,
		ByStatus:      buckets(parsed, "status_counts"),
		ByCategory:    buckets(parsed, "category_counts"),
	}, nil
}

// Recent возвращает последние проиндексированные документы (по added_date).
// limit <= 0 — DefaultRecentLimit, больше MaxRecentLimit — обрезается.
func (c *Client) Recent(ctx context.Context, limit int) ([]domain.Fields, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	parsed, err := c.search(ctx, map[string]any{
		"size": limit,
		"sort": []any{
			map[string]any{domain.FieldAddedDate: map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	})
	if err != nil {
		return nil, err
	}

	tenders := make([]domain.Fields, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		tenders = append(tenders, hit.Source)
	}
	return tenders, nil
}

func (c *Client) search(ctx context.Context, body map[string]any) (*searchResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrQuery, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %w", ErrQuery, responseError(res))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read search: %w", ErrQuery, err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search: %w", ErrQuery, err)
	}
	return &parsed, nil
}

func buckets(res *searchResponse, name string) map[string]int64 {
	out := make(map[string]int64)
	agg, ok := res.Aggregations[name]
	if !ok {
		return out
	}
	for _, b := range agg.Buckets {
		out[fmt.Sprint(b.Key)] = b.DocCount
	}
	return out
}
