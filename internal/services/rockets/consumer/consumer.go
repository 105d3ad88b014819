// Package consumer drains the message queue into the reconciliation engine.
package consumer

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/rocketwatch/internal/platform/errors"
	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/reconcile"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
	"golang.org/x/sync/errgroup"
)

const (
	defaultName         = "rockets-consumer"
	defaultWorkers      = 4
	defaultRetryBackoff = time.Second
)

// Ingester applies one decoded event.
type Ingester interface {
	Ingest(ctx context.Context, evt event.Event) (reconcile.Result, error)
}

// Config controls consumer concurrency.
type Config struct {
	// Name is recorded as the consumer on every attempt.
	Name    string
	Workers int
	// RetryBackoff is the pause after a failed receive.
	RetryBackoff time.Duration
	// IngestTimeout bounds the reconciliation of one delivery.
	IngestTimeout time.Duration
}

func (c Config) normalized() Config {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.IngestTimeout <= 0 {
		c.IngestTimeout = timeouts.Ingest
	}
	return c
}

// Consumer receives deliveries and ingests them, acking only once the event
// is durable or can never succeed.
type Consumer struct {
	receiver queue.Receiver
	engine   Ingester
	attempts storage.AttemptStore
	cfg      Config
	now      func() time.Time
	logf     func(string, ...any)
}

// New builds a consumer. attempts may be nil.
func New(receiver queue.Receiver, engine Ingester, attempts storage.AttemptStore, cfg Config, logf func(string, ...any)) *Consumer {
	if logf == nil {
		logf = log.Printf
	}
	return &Consumer{
		receiver: receiver,
		engine:   engine,
		attempts: attempts,
		cfg:      cfg.normalized(),
		now:      time.Now,
		logf:     logf,
	}
}

// Run starts the workers and blocks until ctx is done or the receiver closes.
func (c *Consumer) Run(ctx context.Context) error {
	if c.receiver == nil {
		return errors.New("queue receiver is required")
	}
	if c.engine == nil {
		return errors.New("reconcile engine is required")
	}
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		group.Go(func() error {
			return c.work(groupCtx)
		})
	}
	return group.Wait()
}

func (c *Consumer) work(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		batch, err := c.receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			c.logf("receive deliveries: %v", err)
			timer := time.NewTimer(c.cfg.RetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			continue
		}
		for _, delivery := range batch {
			c.Process(ctx, delivery)
		}
	}
}

// Process handles one delivery and returns the recorded outcome. Each delivery
// is independent: a failure never affects the rest of its batch.
func (c *Consumer) Process(ctx context.Context, delivery queue.Delivery) string {
	record := storage.AttemptRecord{
		DeliveryID: delivery.ID,
		RocketID:   delivery.Key,
		Consumer:   c.cfg.Name,
	}

	err := c.handle(ctx, delivery, &record)
	switch {
	case err == nil:
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			c.logf("ack delivery %s: %v", delivery.ID, ackErr)
		}
	case IsPermanent(err):
		c.logf("Process failed: %v", err)
		record.Outcome = storage.OutcomeDead
		record.LastError = err.Error()
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			c.logf("ack dead delivery %s: %v", delivery.ID, ackErr)
		}
	default:
		c.logf("Process failed: %v", err)
		record.Outcome = storage.OutcomeRetry
		record.LastError = err.Error()
		if nackErr := delivery.Nack(ctx); nackErr != nil {
			c.logf("nack delivery %s: %v", delivery.ID, nackErr)
		}
	}

	c.record(ctx, record)
	return record.Outcome
}

func (c *Consumer) handle(ctx context.Context, delivery queue.Delivery, record *storage.AttemptRecord) error {
	evt, err := event.DecodeEnvelope(delivery.Body)
	if err != nil {
		return Permanent(err)
	}
	record.RocketID = evt.RocketID
	record.Seq = evt.Seq
	record.EventType = string(evt.Kind)

	ingestCtx, cancel := context.WithTimeout(ctx, c.cfg.IngestTimeout)
	defer cancel()
	result, err := c.engine.Ingest(ingestCtx, evt)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeInvalidEvent) {
			return Permanent(err)
		}
		return err
	}
	if result.Outcome == reconcile.OutcomeApplied {
		record.Outcome = storage.OutcomeStored
	} else {
		record.Outcome = storage.OutcomeDuplicate
	}
	return nil
}

func (c *Consumer) record(ctx context.Context, record storage.AttemptRecord) {
	if c.attempts == nil {
		return
	}
	record.CreatedAt = c.now().UTC()
	if err := c.attempts.RecordAttempt(context.WithoutCancel(ctx), record); err != nil {
		c.logf("record attempt %s: %v", record.DeliveryID, err)
	}
}
