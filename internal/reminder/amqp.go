package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// RoutingKey is used for every inactivity reminder.
const RoutingKey = "reminder.inactivity"

// DefaultExchange is the topic exchange reminders are published to.
const DefaultExchange = "lingbook.reminders"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQP publishes reminders to a topic exchange for a push gateway to deliver.
type AMQP struct {
	conn     *amqp091.Connection
	channel  publisher
	exchange string
}

// DialAMQP connects to uri and declares the exchange.
func DialAMQP(uri, exchange string) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{conn: conn, channel: ch, exchange: exchange}, nil
}

func (a *AMQP) Notify(ctx context.Context, r Reminder) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	err = a.channel.PublishWithContext(ctx, a.exchange, RoutingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    r.SentAt,
		Body:         body,
		Headers: amqp091.Table{
			"event_type": RoutingKey,
			"user_id":    r.UserID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (a *AMQP) Close() error {
	if c, ok := a.channel.(*amqp091.Channel); ok {
		c.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
