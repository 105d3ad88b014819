// Package sqs is the Amazon SQS queue driver. It works against localstack by
// pointing Endpoint at the emulator.
package sqs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
)

const (
	// keyAttribute carries the rocket id next to the envelope body.
	keyAttribute           = "rocketUuid"
	receiveCountAttribute  = "ApproximateReceiveCount"
	defaultMaxMessages     = 10
	defaultWaitTime        = 20 * time.Second
	defaultVisibilityDelay = 0
)

// API is the subset of the SQS client the driver calls.
type API interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *awssqs.ChangeMessageVisibilityInput, optFns ...func(*awssqs.Options)) (*awssqs.ChangeMessageVisibilityOutput, error)
}

// Config configures the SQS driver.
type Config struct {
	QueueURL        string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// MaxMessages is the receive batch size, at most 10.
	MaxMessages int32
	// WaitTime is the long-poll window, at most 20s.
	WaitTime time.Duration
}

// Client publishes to and receives from one SQS queue.
type Client struct {
	api         API
	queueURL    string
	maxMessages int32
	waitTime    time.Duration
}

// New builds a client with static credentials and an optional custom endpoint.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("sqs region is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	api := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithAPI(api, cfg)
}

// NewWithAPI builds a client over an existing SQS API.
func NewWithAPI(api API, cfg Config) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("sqs api is required")
	}
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, fmt.Errorf("sqs queue url is required")
	}
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 || maxMessages > defaultMaxMessages {
		maxMessages = defaultMaxMessages
	}
	waitTime := cfg.WaitTime
	if waitTime <= 0 || waitTime > defaultWaitTime {
		waitTime = defaultWaitTime
	}
	return &Client{
		api:         api,
		queueURL:    strings.TrimSpace(cfg.QueueURL),
		maxMessages: maxMessages,
		waitTime:    waitTime,
	}, nil
}

// Publish sends body with the rocket id as a message attribute.
func (c *Client) Publish(ctx context.Context, key string, body []byte) error {
	input := &awssqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if key != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			keyAttribute: {DataType: aws.String("String"), StringValue: aws.String(key)},
		}
	}
	if _, err := c.api.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Receive long-polls for a batch. An empty batch means the poll window
// elapsed.
func (c *Client) Receive(ctx context.Context) ([]queue.Delivery, error) {
	out, err := c.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:              aws.String(c.queueURL),
		MaxNumberOfMessages:   c.maxMessages,
		WaitTimeSeconds:       int32(c.waitTime / time.Second),
		MessageAttributeNames: []string{keyAttribute},
		AttributeNames:        []types.QueueAttributeName{types.QueueAttributeName(receiveCountAttribute)},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("sqs receive message: %w", err)
	}

	deliveries := make([]queue.Delivery, 0, len(out.Messages))
	for _, msg := range out.Messages {
		deliveries = append(deliveries, c.delivery(msg))
	}
	return deliveries, nil
}

func (c *Client) delivery(msg types.Message) queue.Delivery {
	receipt := aws.ToString(msg.ReceiptHandle)
	key := ""
	if attr, ok := msg.MessageAttributes[keyAttribute]; ok {
		key = aws.ToString(attr.StringValue)
	}
	attempt := 0
	if raw, ok := msg.Attributes[receiveCountAttribute]; ok {
		attempt, _ = strconv.Atoi(raw)
	}
	return queue.NewDelivery(aws.ToString(msg.MessageId), key, []byte(aws.ToString(msg.Body)), attempt,
		func(ctx context.Context) error {
			_, err := c.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
				QueueUrl:      aws.String(c.queueURL),
				ReceiptHandle: aws.String(receipt),
			})
			if err != nil {
				return fmt.Errorf("sqs delete message: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			_, err := c.api.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
				QueueUrl:          aws.String(c.queueURL),
				ReceiptHandle:     aws.String(receipt),
				VisibilityTimeout: defaultVisibilityDelay,
			})
			if err != nil {
				return fmt.Errorf("sqs change visibility: %w", err)
			}
			return nil
		},
	)
}

// Close is a no-op; the SQS client holds no connections of its own.
func (c *Client) Close() error {
	return nil
}

var (
	_ queue.Publisher = (*Client)(nil)
	_ queue.Receiver  = (*Client)(nil)
)
