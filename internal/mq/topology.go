package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

type (
	Exchange   string
	Queue      string
	RoutingKey string
)

const (
	ExchangeSync Exchange = "tenders.sync"
	ExchangeDLQ  Exchange = "tenders.dlq"
)

const (
	QueueSyncRequested Queue = "sync.requested"
	QueueSyncCompleted Queue = "sync.completed"
	QueueDLQSync       Queue = "dlq.sync"
)

const (
	RoutingKeyRequested RoutingKey = "requested"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQSync   RoutingKey = "sync"
)

// binding — durable-очередь, привязанная к direct exchange.
type binding struct {
	exchange Exchange
	queue    Queue
	key      RoutingKey

	// deadLetter — отклонённые без requeue сообщения уходят в DLQ.
	deadLetter bool

	consumer string
}

var topology = []binding{
	{ExchangeSync, QueueSyncRequested, RoutingKeyRequested, true, "tenders-worker"},
	{ExchangeSync, QueueSyncCompleted, RoutingKeyCompleted, false, "external subscribers"},
	{ExchangeDLQ, QueueDLQSync, RoutingKeyDLQSync, false, "manual inspection"},
}

// SetupTopology объявляет exchanges, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeSync, ExchangeDLQ} {
			if err := ch.ExchangeDeclare(string(ex), amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range topology {
			var args amqp.Table
			if b.deadLetter {
				args = amqp.Table{
					"x-dead-letter-exchange":    string(ExchangeDLQ),
					"x-dead-letter-routing-key": string(RoutingKeyDLQSync),
				}
			}
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo описывает топологию для стартового лога.
func TopologyInfo() string {
	var sb strings.Builder
	for _, ex := range []Exchange{ExchangeSync, ExchangeDLQ} {
		fmt.Fprintf(&sb, "%s (direct)\n", ex)
		for _, b := range topology {
			if b.exchange != ex {
				continue
			}
			fmt.Fprintf(&sb, "  %s [%s] -> %s", b.queue, b.key, b.consumer)
			if b.deadLetter {
				fmt.Fprintf(&sb, " (dlq: %s)", QueueDLQSync)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
