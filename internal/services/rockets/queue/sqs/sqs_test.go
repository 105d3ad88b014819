package sqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeAPI struct {
	sent       []*awssqs.SendMessageInput
	receiveIn  *awssqs.ReceiveMessageInput
	messages   []types.Message
	deleted    []string
	visibility []*awssqs.ChangeMessageVisibilityInput
	sendErr    error
}

func (f *fakeAPI) SendMessage(_ context.Context, in *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &awssqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeAPI) ReceiveMessage(_ context.Context, in *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	return &awssqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, in *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeAPI) ChangeMessageVisibility(_ context.Context, in *awssqs.ChangeMessageVisibilityInput, _ ...func(*awssqs.Options)) (*awssqs.ChangeMessageVisibilityOutput, error) {
	f.visibility = append(f.visibility, in)
	return &awssqs.ChangeMessageVisibilityOutput{}, nil
}

const queueURL = "http://sqs.us-east-1.localhost.localstack.cloud:4566/000000000000/rocket-messages-queue"

func TestNewWithAPIValidates(t *testing.T) {
	if _, err := NewWithAPI(nil, Config{QueueURL: queueURL}); err == nil {
		t.Fatal("expected error for nil api")
	}
	if _, err := NewWithAPI(&fakeAPI{}, Config{}); err == nil {
		t.Fatal("expected error for missing queue url")
	}
}

func TestPublishSendsBodyAndKey(t *testing.T) {
	api := &fakeAPI{}
	client, err := NewWithAPI(api, Config{QueueURL: queueURL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Publish(context.Background(), "r-1", []byte(`{"metadata":{}}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(api.sent))
	}
	sent := api.sent[0]
	if aws.ToString(sent.QueueUrl) != queueURL || aws.ToString(sent.MessageBody) != `{"metadata":{}}` {
		t.Fatalf("sent = %+v", sent)
	}
	if aws.ToString(sent.MessageAttributes[keyAttribute].StringValue) != "r-1" {
		t.Fatalf("key attribute = %+v, want r-1", sent.MessageAttributes)
	}

	api.sendErr = errors.New("queue does not exist")
	if err := client.Publish(context.Background(), "r-1", nil); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestReceiveClampsPollSettings(t *testing.T) {
	api := &fakeAPI{}
	client, err := NewWithAPI(api, Config{QueueURL: queueURL, MaxMessages: 50, WaitTime: time.Minute})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	batch, err := client.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("batch = %d, want empty", len(batch))
	}
	if api.receiveIn.MaxNumberOfMessages != 10 || api.receiveIn.WaitTimeSeconds != 20 {
		t.Fatalf("receive input = %d/%d, want 10/20", api.receiveIn.MaxNumberOfMessages, api.receiveIn.WaitTimeSeconds)
	}
}

func TestDeliveryAckDeletesAndNackResetsVisibility(t *testing.T) {
	api := &fakeAPI{messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		ReceiptHandle: aws.String("receipt-1"),
		Body:          aws.String("body"),
		Attributes:    map[string]string{receiveCountAttribute: "3"},
		MessageAttributes: map[string]types.MessageAttributeValue{
			keyAttribute: {DataType: aws.String("String"), StringValue: aws.String("r-9")},
		},
	}}}
	client, err := NewWithAPI(api, Config{QueueURL: queueURL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	batch, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	delivery := batch[0]
	if delivery.ID != "m-1" || delivery.Key != "r-9" || string(delivery.Body) != "body" || delivery.Attempt != 3 {
		t.Fatalf("delivery = %+v", delivery)
	}
	if err := delivery.Nack(ctx); err != nil {
		t.Fatalf("nack: %v", err)
	}
	if len(api.visibility) != 1 || api.visibility[0].VisibilityTimeout != 0 || aws.ToString(api.visibility[0].ReceiptHandle) != "receipt-1" {
		t.Fatalf("visibility changes = %+v", api.visibility)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "receipt-1" {
		t.Fatalf("deleted = %v, want receipt-1", api.deleted)
	}
}
