package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue/kafka"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue/memqueue"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue/sqs"
)

// Queue drivers.
const (
	DriverSQS    = "sqs"
	DriverKafka  = "kafka"
	DriverMemory = "memory"
)

// QueueConfig selects and configures the queue driver.
type QueueConfig struct {
	Driver string

	SQSQueueURL        string
	SQSRegion          string
	SQSEndpoint        string
	SQSAccessKeyID     string
	SQSSecretAccessKey string
	SQSWaitTime        time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Memory is the shared queue for the memory driver, so an ingress and a
	// consumer in one process see the same messages.
	Memory *memqueue.Queue
}

func (c QueueConfig) driver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return DriverSQS
	}
	return driver
}

func (c QueueConfig) sqsConfig() sqs.Config {
	waitTime := c.SQSWaitTime
	if waitTime <= 0 {
		waitTime = timeouts.QueueReceiveWait
	}
	return sqs.Config{
		QueueURL:        c.SQSQueueURL,
		Region:          c.SQSRegion,
		Endpoint:        c.SQSEndpoint,
		AccessKeyID:     c.SQSAccessKeyID,
		SecretAccessKey: c.SQSSecretAccessKey,
		WaitTime:        waitTime,
	}
}

func (c QueueConfig) kafkaConfig() kafka.Config {
	return kafka.Config{
		Brokers: c.KafkaBrokers,
		Topic:   c.KafkaTopic,
		GroupID: c.KafkaGroupID,
	}
}

func (c QueueConfig) memory() (*memqueue.Queue, error) {
	if c.Memory == nil {
		return nil, fmt.Errorf("memory queue driver needs a shared queue")
	}
	return c.Memory, nil
}

// OpenPublisher opens the ingress side of the configured queue.
func OpenPublisher(ctx context.Context, cfg QueueConfig) (queue.Publisher, error) {
	switch cfg.driver() {
	case DriverSQS:
		client, err := sqs.New(ctx, cfg.sqsConfig())
		if err != nil {
			return nil, err
		}
		return client, nil
	case DriverKafka:
		producer, err := kafka.NewProducer(cfg.kafkaConfig())
		if err != nil {
			return nil, err
		}
		return producer, nil
	case DriverMemory:
		q, err := cfg.memory()
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}

// OpenReceiver opens the consumer side of the configured queue.
func OpenReceiver(ctx context.Context, cfg QueueConfig) (queue.Receiver, error) {
	switch cfg.driver() {
	case DriverSQS:
		client, err := sqs.New(ctx, cfg.sqsConfig())
		if err != nil {
			return nil, err
		}
		return client, nil
	case DriverKafka:
		consumer, err := kafka.NewConsumer(cfg.kafkaConfig())
		if err != nil {
			return nil, err
		}
		return consumer, nil
	case DriverMemory:
		q, err := cfg.memory()
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
