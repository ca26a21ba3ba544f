package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
)

var jsonLog = logging.New("queue-json")

// JSONHandler adapts a typed function into a raw Delivery handler.
type JSONHandler[T any] struct {
	HandleFunc func(ctx context.Context, msg T) error
}

func (h JSONHandler[T]) Handle(ctx context.Context, d amqp.Delivery) error {
	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		// A payload that does not parse will not parse on redelivery either.
		// Drop it instead of letting the requeue loop spin on it.
		jsonLog.Warn("dropping malformed message", "rk", d.RoutingKey, "err", err)
		return nil
	}
	return h.HandleFunc(ctx, v)
}
