// Package event publishes content-change notifications to the message bus
// so downstream consumers (cache invalidation, site rebuilds) can react to
// admin mutations. Publishing is best-effort and never fails the mutation.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ContentChangedMessage is the wire shape of one change notification.
type ContentChangedMessage struct {
	Event      string    `json:"event"`
	Timestamp  time.Time `json:"timestamp"`
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	IDs        []string  `json:"ids"`
}

// Publisher is what the HTTP layer depends on; a nil publisher disables
// change notifications entirely.
type Publisher interface {
	PublishContentChanged(ctx context.Context, collection, action string, ids []string) error
	Close()
}

type PublishingChannel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

type RabbitPublisher struct {
	conn       *amqp.Connection
	ch         PublishingChannel
	exchange   string
	routingKey string
	logger     *log.Logger
}

func NewRabbitPublisher(uri, exchange, routingKey string, logger *log.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connection failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel creation failed: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare failed: %w", err)
	}

	return &RabbitPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) PublishContentChanged(ctx context.Context, collection, action string, ids []string) error {
	body, err := json.Marshal(ContentChangedMessage{
		Event:      "content.changed",
		Timestamp:  time.Now().UTC(),
		Collection: collection,
		Action:     action,
		IDs:        ids,
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}
