// Package memqueue is an in-process queue driver for tests and single-binary
// development runs.
package memqueue

import (
	"context"
	"strconv"
	"sync"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
)

type message struct {
	id      string
	key     string
	body    []byte
	attempt int
}

// Queue is a FIFO queue with explicit ack and nack. Nacked messages go to the
// back of the queue.
type Queue struct {
	mu        sync.Mutex
	pending   []message
	inflight  map[string]message
	acked     int
	nextID    int
	batchSize int
	closed    bool
	ready     chan struct{}
}

// New creates a queue that hands out at most batchSize messages per Receive.
func New(batchSize int) *Queue {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Queue{
		inflight:  map[string]message{},
		batchSize: batchSize,
		ready:     make(chan struct{}, 1),
	}
}

// Publish enqueues one message.
func (q *Queue) Publish(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return queue.ErrClosed
	}
	q.nextID++
	q.pending = append(q.pending, message{
		id:   "mem-" + strconv.Itoa(q.nextID),
		key:  key,
		body: append([]byte(nil), body...),
	})
	q.signal()
	return nil
}

// Receive waits for pending messages and leases up to the batch size.
func (q *Queue) Receive(ctx context.Context) ([]queue.Delivery, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, queue.ErrClosed
		}
		if len(q.pending) > 0 {
			n := min(len(q.pending), q.batchSize)
			batch := make([]queue.Delivery, 0, n)
			for _, msg := range q.pending[:n] {
				msg.attempt++
				q.inflight[msg.id] = msg
				batch = append(batch, q.delivery(msg))
			}
			q.pending = q.pending[n:]
			if len(q.pending) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return batch, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *Queue) delivery(msg message) queue.Delivery {
	return queue.NewDelivery(msg.id, msg.key, msg.body, msg.attempt,
		func(context.Context) error {
			q.mu.Lock()
			defer q.mu.Unlock()
			if _, ok := q.inflight[msg.id]; ok {
				delete(q.inflight, msg.id)
				q.acked++
			}
			return nil
		},
		func(context.Context) error {
			q.mu.Lock()
			defer q.mu.Unlock()
			leased, ok := q.inflight[msg.id]
			if !ok {
				return nil
			}
			delete(q.inflight, msg.id)
			q.pending = append(q.pending, leased)
			q.signal()
			return nil
		},
	)
}

// signal wakes one waiting receiver. Callers hold q.mu.
func (q *Queue) signal() {
	if q.closed {
		return
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Stats reports pending, in-flight, and acked message counts.
func (q *Queue) Stats() (pending, inflight, acked int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.inflight), q.acked
}

// Close stops the queue. Blocked receivers return queue.ErrClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ready)
	}
	return nil
}

var (
	_ queue.Publisher = (*Queue)(nil)
	_ queue.Receiver  = (*Queue)(nil)
)
