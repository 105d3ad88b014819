// Package queue defines the at-least-once transport between the messages
// service and the consumer.
//
// A Delivery that is neither acked nor nacked is redelivered by the driver
// once its lease expires, so handlers only ack after the event is durable.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed publisher or receiver.
var ErrClosed = errors.New("queue closed")

// Publisher sends envelope bodies to the queue.
type Publisher interface {
	// Publish enqueues body. key is the rocket id; drivers that partition use
	// it to keep one rocket's events together.
	Publish(ctx context.Context, key string, body []byte) error
	Close() error
}

// Receiver pulls batches of deliveries.
type Receiver interface {
	// Receive blocks until at least one delivery is available, the driver's
	// poll window elapses (returning an empty batch), or ctx is done.
	Receive(ctx context.Context) ([]Delivery, error)
	Close() error
}

// Delivery is one received message.
type Delivery struct {
	// ID identifies this delivery for logging and attempt records.
	ID   string
	Key  string
	Body []byte
	// Attempt counts deliveries of the same message, starting at 1, when the
	// driver knows it.
	Attempt int

	ack  func(context.Context) error
	nack func(context.Context) error
}

// NewDelivery builds a delivery with driver callbacks.
func NewDelivery(id, key string, body []byte, attempt int, ack, nack func(context.Context) error) Delivery {
	return Delivery{ID: id, Key: key, Body: body, Attempt: attempt, ack: ack, nack: nack}
}

// Ack removes the message from the queue.
func (d Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Nack returns the message to the queue for redelivery.
func (d Delivery) Nack(ctx context.Context) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}
