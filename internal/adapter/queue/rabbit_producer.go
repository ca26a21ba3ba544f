// Package queue carries confirmed scans over RabbitMQ. The HTTP side of a
// scan session only acknowledges that a code was accepted; adding the
// product to the cart happens on the consuming side, at least once, guarded
// by the idempotency store.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

const (
	ExchangeName       = "scan.events"
	ScanConfirmedKey   = "scan.confirmed"
	ScanConfirmedQueue = "scan.confirmed.q"
)

type RabbitProducer struct {
	ch *amqp.Channel
}

// NewRabbitProducer declares the scan exchange, the confirmed-scan queue and
// its binding, and switches the channel to confirm mode.
func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		ScanConfirmedQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, ScanConfirmedKey, ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch}, nil
}

// PublishScanConfirmed emits one accepted scan.
func (p *RabbitProducer) PublishScanConfirmed(ctx context.Context, msg usecase.ScanConfirmedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, ExchangeName, ScanConfirmedKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
