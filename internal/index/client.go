package index

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

const (
	// DefaultAddress — адрес кластера по умолчанию.
	DefaultAddress = "http://localhost:9200"

	// DefaultIndex — имя индекса тендеров по умолчанию.
	DefaultIndex = "tenders"
)

// Client — клиент индекса тендеров.
//
// Работает с одним индексом; все методы безопасны для
// конкурентного использования.
type Client struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// Addresses — адреса узлов кластера (default: DefaultAddress).
	Addresses []string

	// Username/Password — basic auth. Пустой Username — без авторизации.
	Username string
	Password string

	// Index — имя индекса (default: DefaultIndex).
	Index string

	// InsecureSkipVerify отключает проверку TLS-сертификата кластера.
	InsecureSkipVerify bool

	// Transport — HTTP-транспорт (для тестов).
	Transport http.RoundTripper

	Logger *slog.Logger
}

// New создаёт Client. Соединение не проверяется, для этого есть Ping.
func New(cfg Config) (*Client, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 {
		addresses = []string{DefaultAddress}
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	}
	if esCfg.Transport == nil && cfg.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		esCfg.Transport = transport
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Client{
		es:     es,
		index:  index,
		logger: logger.With("index", index),
	}, nil
}

// Index возвращает имя индекса.
func (c *Client) Index() string {
	return c.index
}
