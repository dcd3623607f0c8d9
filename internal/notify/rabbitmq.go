package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

const exchange = "orders_topic"

// Publisher pushes order lifecycle events to a RabbitMQ topic exchange so
// dashboards and kitchen displays can follow orders live.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *slog.Logger
}

type event struct {
	Event      string        `json:"event"`
	OrderID    string        `json:"orderId"`
	Order      *domain.Order `json:"order,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

func Dial(url string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("conn.Channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare: %w", err)
	}

	log.Info("connected to rabbitmq", "exchange", exchange)

	return &Publisher{conn: conn, ch: ch, log: log}, nil
}

func (p *Publisher) OrderCreated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, "order.created", event{
		Event:      "order.created",
		OrderID:    order.ID,
		Order:      &order,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) OrderUpdated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, "order.updated", event{
		Event:      "order.updated",
		OrderID:    order.ID,
		Order:      &order,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) OrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, "order.deleted", event{
		Event:      "order.deleted",
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, ev event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("ch.PublishWithContext: %w", err)
	}

	p.log.Debug("order event published", "routing_key", routingKey, "order_id", ev.OrderID)
	return nil
}

func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
