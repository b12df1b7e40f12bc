package index

import (
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	// ErrIndexing — запрос записи в индекс не выполнен целиком
	// (транспорт или статус ошибки для всего _bulk).
	ErrIndexing = errors.New("indexing failed")

	// ErrQuery — запрос чтения (count, search, info) не выполнен.
	ErrQuery = errors.New("index query failed")
)

// maxErrorBody — сколько символов тела ответа попадает в текст ошибки.
const maxErrorBody = 500

// responseError формирует ошибку по ответу со статусом >= 400.
func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return fmt.Errorf("elasticsearch responded with status %d: %s", res.StatusCode, body)
}
