package kafka

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	next      []kafkago.Message
	committed []kafkago.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.next) == 0 {
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.next[0]
	r.next = r.next[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConfigValidation(t *testing.T) {
	if _, err := NewProducer(Config{Topic: "rocket-messages"}); err == nil {
		t.Fatal("expected error for missing brokers")
	}
	if _, err := NewProducer(Config{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Fatal("expected error for missing topic")
	}
	if _, err := NewConsumer(Config{Brokers: []string{"localhost:9092"}, Topic: "rocket-messages"}); err == nil {
		t.Fatal("expected error for missing group")
	}
}

func TestProducerPublishKeysByRocket(t *testing.T) {
	writer := &fakeWriter{}
	producer := &Producer{writer: writer}

	if err := producer.Publish(context.Background(), "r-1", []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(writer.written) != 1 || string(writer.written[0].Key) != "r-1" {
		t.Fatalf("written = %+v, want one message keyed r-1", writer.written)
	}

	writer.err = errors.New("leader not available")
	if err := producer.Publish(context.Background(), "r-1", nil); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestConsumerAckCommits(t *testing.T) {
	reader := &fakeReader{next: []kafkago.Message{{Topic: "t", Partition: 2, Offset: 7, Key: []byte("r-1"), Value: []byte("body")}}}
	consumer := &Consumer{reader: reader, writer: &fakeWriter{}}
	ctx := context.Background()

	batch, err := consumer.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(batch) != 1 || batch[0].ID != "t/2/7" || batch[0].Key != "r-1" || batch[0].Attempt != 1 {
		t.Fatalf("batch = %+v", batch)
	}
	if err := batch[0].Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(reader.committed) != 1 || reader.committed[0].Offset != 7 {
		t.Fatalf("committed = %+v, want offset 7", reader.committed)
	}
}

func TestConsumerNackRepublishesThenCommits(t *testing.T) {
	reader := &fakeReader{next: []kafkago.Message{{Topic: "t", Offset: 3, Key: []byte("r-1"), Value: []byte("body")}}}
	writer := &fakeWriter{}
	consumer := &Consumer{reader: reader, writer: writer}
	ctx := context.Background()

	batch, err := consumer.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := batch[0].Nack(ctx); err != nil {
		t.Fatalf("nack: %v", err)
	}
	if len(writer.written) != 1 || string(writer.written[0].Value) != "body" {
		t.Fatalf("republished = %+v, want body", writer.written)
	}
	if redeliveries(writer.written[0]) != 1 {
		t.Fatalf("redeliveries = %d, want 1", redeliveries(writer.written[0]))
	}
	if len(reader.committed) != 1 {
		t.Fatalf("committed = %d, want 1", len(reader.committed))
	}
}

func TestConsumerNackKeepsOffsetWhenRepublishFails(t *testing.T) {
	reader := &fakeReader{next: []kafkago.Message{{Offset: 3}}}
	consumer := &Consumer{reader: reader, writer: &fakeWriter{err: errors.New("broker down")}}
	ctx := context.Background()

	batch, err := consumer.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := batch[0].Nack(ctx); err == nil {
		t.Fatal("expected nack error")
	}
	if len(reader.committed) != 0 {
		t.Fatal("offset committed after failed republish")
	}
}

func TestConsumerClose(t *testing.T) {
	reader := &fakeReader{}
	writer := &fakeWriter{}
	consumer := &Consumer{reader: reader, writer: writer}

	if err := consumer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !reader.closed || !writer.closed {
		t.Fatal("expected reader and writer closed")
	}
}
