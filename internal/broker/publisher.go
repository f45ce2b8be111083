package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"order-desk-backend/internal/models"
)

// Publisher forwards order change events to a RabbitMQ topic exchange for
// consumers outside this service. Consumers bind with orders.* or a single
// change type.
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{conn: conn, exchange: exchange, ch: ch}, nil
}

// RoutingKey is orders.<type>, e.g. orders.update.
func RoutingKey(ev models.ChangeEvent) string {
	switch ev.Type {
	case models.ChangeInsert:
		return "orders.insert"
	case models.ChangeUpdate:
		return "orders.update"
	case models.ChangeDelete:
		return "orders.delete"
	default:
		return "orders.resync"
	}
}

func (p *Publisher) Publish(ctx context.Context, ev models.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    fmt.Sprintf("%s:%d", ev.OrderID, ev.At.UnixNano()),
		Body:         body,
	})
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
