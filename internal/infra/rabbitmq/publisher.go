package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"order-lifecycle/internal/domain"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const RoutingKeyOrderStatusChanged = "order.status.changed"

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	log      zerolog.Logger
}

// Message is the envelope consumers expect: a pattern plus the payload.
type Message struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
	ID      string `json:"id,omitempty"`
}

func NewPublisher(amqpURL, exchange string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return newPublisher(conn, ch, exchange, logger), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      logger.With().Str("component", "rabbitmq_publisher").Str("exchange", exchange).Logger(),
	}
}

func buildPublishing(pattern string, data any) (amqp.Publishing, error) {
	body, err := json.Marshal(Message{Pattern: pattern, Data: data})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, pattern string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildPublishing(pattern, data)
	if err != nil {
		return err
	}

	p.log.Debug().Str("pattern", pattern).Int("bytes", len(msg.Body)).Msg("publishing message")

	if err := p.channel.Publish(p.exchange, pattern, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// NotifyStatusChanged makes the publisher the notification gateway.
func (p *Publisher) NotifyStatusChanged(ctx context.Context, evt domain.OrderStatusChangedEvent) error {
	return p.Publish(ctx, RoutingKeyOrderStatusChanged, evt)
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
