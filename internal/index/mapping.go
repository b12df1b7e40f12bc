package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// tendersMapping — маппинг индекса тендеров.
// Поля, которых нет в маппинге, индексируются динамически.
var tendersMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"tenderId":                  map[string]string{"type": "long"},
			"tenderIdString":            map[string]string{"type": "keyword"},
			"documentId":                map[string]string{"type": "keyword"},
			"referenceNumber":           map[string]string{"type": "keyword"},
			"tenderName":                map[string]string{"type": "text"},
			"title":                     map[string]string{"type": "text"},
			"agencyName":                map[string]string{"type": "keyword"},
			"organization":              map[string]string{"type": "keyword"},
			"branchName":                map[string]string{"type": "keyword"},
			"location":                  map[string]string{"type": "keyword"},
			"tenderStatusId":            map[string]string{"type": "integer"},
			"tenderStatusName":          map[string]string{"type": "keyword"},
			"status":                    map[string]string{"type": "keyword"},
			"tenderActivityId":          map[string]string{"type": "integer"},
			"tenderActivityName":        map[string]string{"type": "keyword"},
			"category":                  map[string]string{"type": "keyword"},
			"lastOfferPresentationDate": map[string]string{"type": "date"},
			"closingDate":               map[string]string{"type": "date"},
			"remainingDays":             map[string]string{"type": "integer"},
			"createdAt":                 map[string]string{"type": "date"},
			"updatedAt":                 map[string]string{"type": "date"},
			"added_date":                map[string]string{"type": "date"},
			"source":                    map[string]string{"type": "keyword"},
		},
	},
}

// ClusterInfo — сведения о кластере из ответа корневого endpoint.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// Ping проверяет соединение с кластером.
func (c *Client) Ping(ctx context.Context) (*ClusterInfo, error) {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: info: %w", ErrQuery, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: info: %w", ErrQuery, responseError(res))
	}

	var info ClusterInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode info: %w", ErrQuery, err)
	}
	return &info, nil
}

// EnsureIndex создаёт индекс с маппингом, если его ещё нет.
// Возвращает true, если индекс был создан.
func (c *Client) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("%w: check index: %w", ErrQuery, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		c.logger.Debug("index exists")
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("%w: check index: unexpected status %d", ErrQuery, res.StatusCode)
	}

	body, err := json.Marshal(tendersMapping)
	if err != nil {
		return false, fmt.Errorf("marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return false, fmt.Errorf("%w: create index: %w", ErrQuery, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, fmt.Errorf("%w: create index: %w", ErrQuery, responseError(res))
	}

	c.logger.Info("index created")
	return true, nil
}
