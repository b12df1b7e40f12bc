package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Tenders/internal/config"
	"github.com/shaiso/Tenders/internal/index"
	"github.com/shaiso/Tenders/internal/mq"
	"github.com/shaiso/Tenders/internal/repo"
	"github.com/shaiso/Tenders/internal/source"
	"github.com/shaiso/Tenders/internal/syncer"
)

// ErrBrokerRequired — процессу нужен RabbitMQ, но URL не задан.
var ErrBrokerRequired = errors.New("rabbitmq is required")

// App — собранные зависимости процесса.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Store  *repo.Store
	Index  *index.Client
	Syncer *syncer.Syncer

	// MQ и Publisher равны nil, если брокер не настроен или недоступен
	// (для процессов, которым он не обязателен).
	MQ        *mq.Connection
	Publisher *mq.Publisher
}

// Options — что требуется конкретному процессу.
type Options struct {
	// Service — имя процесса, им подписывается соединение с брокером.
	Service string

	// RequireBroker — без RabbitMQ процесс не стартует (worker).
	RequireBroker bool
}

// Open подключается к хранилищу, Elasticsearch и (при наличии) RabbitMQ,
// создаёт индекс при необходимости и собирает Syncer.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := repo.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	a.Store = store
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	a.Index, err = index.New(index.Config{
		Addresses:          cfg.Elasticsearch.Addresses,
		Username:           cfg.Elasticsearch.Username,
		Password:           cfg.Elasticsearch.Password,
		Index:              cfg.Elasticsearch.Index,
		InsecureSkipVerify: cfg.Elasticsearch.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	created, err := a.Index.EnsureIndex(ctx)
	if err != nil {
		// Кластер может подняться позже: синхронизация отчитается ошибкой индексации.
		logger.Warn("failed to ensure tenders index", "index", a.Index.Index(), "error", err)
	} else if created {
		logger.Info("tenders index created", "index", a.Index.Index())
	}

	if err := a.openBroker(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}

	scfg := syncer.Config{
		Fetcher: source.New(source.Config{
			URL:     cfg.Source.URL,
			Timeout: cfg.Source.Timeout,
			Headers: cfg.Source.Headers,
			Logger:  logger,
		}),
		Index:  a.Index,
		Logs:   store.Logs,
		Logger: logger,
	}
	if a.Publisher != nil {
		scfg.Notifier = a.Publisher
	}
	a.Syncer = syncer.New(scfg)

	return a, nil
}

func (a *App) openBroker(ctx context.Context, opts Options) error {
	url := a.Config.RabbitMQ.URL
	if url == "" {
		if opts.RequireBroker {
			return ErrBrokerRequired
		}
		a.Logger.Info("rabbitmq not configured, async sync disabled")
		return nil
	}

	conn, err := mq.Dial(mq.ConnectionConfig{URL: url, Name: opts.Service, Logger: a.Logger})
	if err == nil {
		err = mq.SetupTopology(ctx, conn)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		if opts.RequireBroker {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		a.Logger.Warn("rabbitmq unavailable, async sync disabled", "error", err)
		return nil
	}

	a.MQ = conn
	a.Publisher = mq.NewPublisher(conn, a.Logger)
	a.Logger.Info("connected to rabbitmq", "topology", mq.TopologyInfo())
	return nil
}

// Close освобождает соединения.
func (a *App) Close() {
	if a.MQ != nil {
		if err := a.MQ.Close(); err != nil {
			a.Logger.Warn("failed to close rabbitmq connection", "error", err)
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
