package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Tenders/internal/telemetry"
)

// ErrPermanent помечает ошибку, при которой повтор бессмысленен
// (нечитаемый payload и т.п.): сообщение уходит в DLQ, а не в очередь.
var ErrPermanent = errors.New("permanent message failure")

// maxLoggedBody — сколько байт тела нечитаемого сообщения попадает в лог.
const maxLoggedBody = 512

// Handler обрабатывает разобранное сообщение.
//
// nil — ack. Ошибка с ErrPermanent — в DLQ. Любая другая ошибка
// возвращает сообщение в очередь один раз; повторный сбой после
// redelivery тоже отправляет его в DLQ.
type Handler func(ctx context.Context, msg *Message) error

// Consumer читает очередь и передаёт сообщения в Handler по одному.
// После reconnect подписка восстанавливается автоматически.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	tag      string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — параметры подписки.
type ConsumerConfig struct {
	Queue   string
	Handler Handler

	// Tag — consumer tag в management UI (пусто — генерирует брокер).
	Tag string

	// Prefetch — лимит неподтверждённых сообщений (default: 1).
	Prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		tag:      cfg.Tag,
		handler:  cfg.Handler,
		prefetch: max(cfg.Prefetch, 1),
	}
}

// Start блокируется до отмены ctx или Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started", "prefetch", c.prefetch)
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery channel closed, waiting for reconnect", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, resubscribing")
		}
	}
}

// Stop прерывает Start.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil || ch.IsClosed() {
		return nil, ErrNotConnected
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return ErrNotConnected
			}
			c.dispatch(ctx, raw)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	msg, err := DecodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("dropping unreadable message",
			"error", err,
			"body", truncate(raw.Body, maxLoggedBody),
		)
		_ = raw.Nack(false, false)
		return
	}

	logger := telemetry.WithMessageID(c.logger, msg.ID)
	logger.Debug("received message", "type", msg.Type, "redelivered", raw.Redelivered)

	err = c.handler(ctx, &msg)
	ack, requeue := settle(err, raw.Redelivered)

	switch {
	case ack:
		if ackErr := raw.Ack(false); ackErr != nil {
			logger.Warn("ack failed", "error", ackErr)
		}
		return
	case requeue:
		logger.Warn("handler failed, requeueing", "type", msg.Type, "error", err)
	default:
		logger.Error("handler failed, dead-lettering", "type", msg.Type, "error", err)
	}

	if nackErr := raw.Nack(false, requeue); nackErr != nil {
		logger.Warn("nack failed", "error", nackErr)
	}
}

// settle решает судьбу сообщения по результату обработчика.
func settle(err error, redelivered bool) (ack, requeue bool) {
	switch {
	case err == nil:
		return true, false
	case errors.Is(err, ErrPermanent), redelivered:
		return false, false
	default:
		return false, true
	}
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

// DecodeMessage разбирает тело AMQP-сообщения.
func DecodeMessage(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: decode message: %w", ErrPermanent, err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("%w: message type is empty", ErrPermanent)
	}
	return msg, nil
}

// ParsePayload приводит Payload (после DecodeMessage это map[string]any)
// к типу T через повторный JSON round-trip.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("%w: unmarshal payload: %w", ErrPermanent, err)
	}
	return result, nil
}
