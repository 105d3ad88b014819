// Package queueconfig parses the queue settings shared by the messages and
// consumer commands.
package queueconfig

import (
	"flag"
	"strings"
	"time"

	rocketsapp "github.com/louisbranch/rocketwatch/internal/services/rockets/app"
)

// Config holds queue driver configuration. Defaults target localstack.
type Config struct {
	Driver             string        `env:"QUEUE_DRIVER" envDefault:"sqs"`
	SQSEndpoint        string        `env:"SQS_ENDPOINT" envDefault:"http://localhost:4566"`
	SQSRegion          string        `env:"SQS_REGION" envDefault:"us-east-1"`
	SQSQueueURL        string        `env:"SQS_QUEUE_URL" envDefault:"http://sqs.us-east-1.localhost.localstack.cloud:4566/000000000000/rocket-messages-queue"`
	SQSAccessKeyID     string        `env:"ACCESS_KEY_ID" envDefault:"test"`
	SQSSecretAccessKey string        `env:"SECRET_ACCESS_KEY" envDefault:"test"`
	SQSWaitTime        time.Duration `env:"SQS_WAIT_TIME" envDefault:"20s"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic         string        `env:"KAFKA_TOPIC" envDefault:"rocket-messages"`
	KafkaGroupID       string        `env:"KAFKA_GROUP" envDefault:"rocket-consumer"`
}

// RegisterFlags binds the queue flags to cfg, using its current values as
// defaults.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Driver, "queue-driver", cfg.Driver, "Queue driver: sqs or kafka")
	fs.StringVar(&cfg.SQSEndpoint, "sqs-endpoint", cfg.SQSEndpoint, "SQS endpoint override")
	fs.StringVar(&cfg.SQSRegion, "sqs-region", cfg.SQSRegion, "SQS region")
	fs.StringVar(&cfg.SQSQueueURL, "sqs-queue-url", cfg.SQSQueueURL, "SQS queue URL")
	fs.DurationVar(&cfg.SQSWaitTime, "sqs-wait-time", cfg.SQSWaitTime, "SQS long-poll wait")
	fs.Func("kafka-brokers", "Comma separated Kafka brokers", func(raw string) error {
		cfg.KafkaBrokers = splitList(raw)
		return nil
	})
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic")
	fs.StringVar(&cfg.KafkaGroupID, "kafka-group", cfg.KafkaGroupID, "Kafka consumer group")
}

// App converts the parsed settings into the runtime queue configuration.
func (c Config) App() rocketsapp.QueueConfig {
	return rocketsapp.QueueConfig{
		Driver:             c.Driver,
		SQSQueueURL:        c.SQSQueueURL,
		SQSRegion:          c.SQSRegion,
		SQSEndpoint:        c.SQSEndpoint,
		SQSAccessKeyID:     c.SQSAccessKeyID,
		SQSSecretAccessKey: c.SQSSecretAccessKey,
		SQSWaitTime:        c.SQSWaitTime,
		KafkaBrokers:       c.KafkaBrokers,
		KafkaTopic:         c.KafkaTopic,
		KafkaGroupID:       c.KafkaGroupID,
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
