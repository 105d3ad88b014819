// Package kafka is the Kafka queue driver. Messages are keyed by rocket id so
// one rocket's events share a partition.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
	kafkago "github.com/segmentio/kafka-go"
)

// Config configures the Kafka driver.
type Config struct {
	Brokers []string
	Topic   string
	// GroupID is the consumer group; required for receiving.
	GroupID string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes envelopes to the topic.
type Producer struct {
	writer messageWriter
}

// NewProducer builds a synchronous producer that waits for all replicas.
func NewProducer(cfg Config) (*Producer, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &Producer{writer: newWriter(cfg)}, nil
}

func newWriter(cfg Config) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Publish writes body with key as the message key.
func (p *Producer) Publish(ctx context.Context, key string, body []byte) error {
	if err := p.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(key), Value: body}); err != nil {
		return fmt.Errorf("kafka write message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads the topic as a member of a consumer group.
type Consumer struct {
	reader messageReader
	writer messageWriter
}

// NewConsumer joins cfg.GroupID. Nacked messages are written back to the topic
// through a producer before their offset is committed.
func NewConsumer(cfg Config) (*Consumer, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, fmt.Errorf("kafka group id is required")
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &Consumer{reader: reader, writer: newWriter(cfg)}, nil
}

// Receive fetches the next message. Offsets are committed only on Ack or
// Nack.
func (c *Consumer) Receive(ctx context.Context) ([]queue.Delivery, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("kafka fetch message: %w", err)
	}
	return []queue.Delivery{c.delivery(msg)}, nil
}

func (c *Consumer) delivery(msg kafkago.Message) queue.Delivery {
	id := fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	return queue.NewDelivery(id, string(msg.Key), msg.Value, redeliveries(msg)+1,
		func(ctx context.Context) error {
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("kafka commit: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			retry := kafkago.Message{
				Key:   msg.Key,
				Value: msg.Value,
				Headers: []kafkago.Header{
					{Key: redeliveryHeader, Value: []byte(strconv.Itoa(redeliveries(msg) + 1))},
				},
			}
			if err := c.writer.WriteMessages(ctx, retry); err != nil {
				return fmt.Errorf("kafka republish: %w", err)
			}
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("kafka commit: %w", err)
			}
			return nil
		},
	)
}

const redeliveryHeader = "x-rocketwatch-redeliveries"

func redeliveries(msg kafkago.Message) int {
	for _, header := range msg.Headers {
		if header.Key == redeliveryHeader {
			n, _ := strconv.Atoi(string(header.Value))
			return n
		}
	}
	return 0
}

// Close leaves the group and closes the retry writer.
func (c *Consumer) Close() error {
	return errors.Join(c.reader.Close(), c.writer.Close())
}

func validate(cfg Config) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return fmt.Errorf("kafka topic is required")
	}
	return nil
}

var (
	_ queue.Publisher = (*Producer)(nil)
	_ queue.Receiver  = (*Consumer)(nil)
)
