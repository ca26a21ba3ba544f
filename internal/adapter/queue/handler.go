package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single delivery. It must be idempotent: the broker
// redelivers on requeue. Return nil => ACK; return error => NACK.
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}
