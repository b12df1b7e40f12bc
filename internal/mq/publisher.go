package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Tenders/internal/domain"
)

// MessageType — значение поля type конверта.
type MessageType string

const (
	MessageTypeSyncRequested MessageType = "sync.requested"
	MessageTypeSyncCompleted MessageType = "sync.completed"
)

// HeaderSyncID — AMQP-заголовок с sync_id, чтобы найти запуск
// в management UI без разбора тела.
const HeaderSyncID = "x-sync-id"

// Message — JSON-конверт любого сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage оборачивает payload в конверт с новым UUID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// SyncRequestedPayload — запрос на синхронизацию.
type SyncRequestedPayload struct {
	SyncID   string              `json:"sync_id"`
	Settings domain.SyncSettings `json:"settings"`

	// Source — инициатор: "api", "scheduler" или "cli".
	Source string `json:"source,omitempty"`
}

// SyncCompletedPayload — итог синхронизации.
type SyncCompletedPayload struct {
	SyncID string            `json:"sync_id"`
	Result domain.SyncResult `json:"result"`
}

// Publisher отправляет конверты в exchange tenders.sync.
// Сообщения persistent; AppId — имя соединения (процесса).
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher поверх conn.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger.With("component", "publisher")}
}

// PublishSyncRequested ставит синхронизацию в очередь tenders-worker.
func (p *Publisher) PublishSyncRequested(ctx context.Context, payload SyncRequestedPayload) error {
	msg := NewMessage(MessageTypeSyncRequested, payload)
	return p.publish(ctx, RoutingKeyRequested, msg, payload.SyncID)
}

// PublishSyncCompleted сообщает подписчикам итог запуска.
func (p *Publisher) PublishSyncCompleted(ctx context.Context, syncID string, result domain.SyncResult) error {
	msg := NewMessage(MessageTypeSyncCompleted, SyncCompletedPayload{SyncID: syncID, Result: result})
	return p.publish(ctx, RoutingKeyCompleted, msg, syncID)
}

func (p *Publisher) publish(ctx context.Context, key RoutingKey, msg *Message, syncID string) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.Type),
		AppId:        p.conn.cfg.Name,
		Headers:      amqp.Table{HeaderSyncID: syncID},
		Body:         body,
	}

	err = p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(ctx, string(ExchangeSync), string(key), false, false, publishing)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}

	p.logger.Debug("published", "type", msg.Type, "message_id", msg.ID, "sync_id", syncID)
	return nil
}
