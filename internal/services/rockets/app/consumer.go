package app

import (
	"context"
	"log"

	cmdentry "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/consumer"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/reconcile"
)

// ConsumerConfig configures the consumer process.
type ConsumerConfig struct {
	GRPCPort int
	DBPath   string
	Name     string
	Workers  int
	// Incremental enables the single-event fast path.
	Incremental bool
	Queue       QueueConfig
}

// NewConsumerServer opens the store and queue and wires the consumer loop as
// the server's background work.
func NewConsumerServer(ctx context.Context, cfg ConsumerConfig) (*Server, error) {
	server, err := newServer(cmdentry.ServiceConsumer, cfg.GRPCPort)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		server.abort()
		return nil, err
	}
	server.onClose(store.Close)

	receiver, err := OpenReceiver(ctx, cfg.Queue)
	if err != nil {
		server.abort()
		return nil, err
	}
	server.onClose(receiver.Close)

	engine, err := reconcile.New(store,
		reconcile.WithLogf(log.Printf),
		reconcile.WithIncrementalFastPath(cfg.Incremental),
	)
	if err != nil {
		server.abort()
		return nil, err
	}
	loop := consumer.New(receiver, engine, store, consumer.Config{
		Name:    cfg.Name,
		Workers: cfg.Workers,
	}, log.Printf)
	server.work = loop.Run
	server.registerHealth("consumer.runtime")
	return server, nil
}

// RunConsumer runs the consumer process until ctx ends.
func RunConsumer(ctx context.Context, cfg ConsumerConfig) error {
	server, err := NewConsumerServer(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
