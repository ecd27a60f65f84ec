package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"warrior_go/internal/event"
)

var ErrQueueClosed = errors.New("event queue closed")

// Queue is an unbounded, ordered, multi-producer single-consumer event queue.
// Publish never blocks; events are stamped with a gapless sequence number in publish order.
type Queue struct {
	mu      sync.Mutex
	items   []event.Event
	head    int
	nextSeq uint64
	closed  bool

	// signal has capacity 1 so a publish between the consumer's empty check and its wait is not lost.
	signal chan struct{}
}

// NewQueue allocates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  make([]event.Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Publish stamps and enqueues an event.
func (q *Queue) Publish(ev event.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.nextSeq++
	ev.SetHeader(q.nextSeq, time.Now().UnixMicro())
	q.items = append(q.items, ev)
	q.mu.Unlock()

	q.wake()
	return nil
}

// Next blocks until an event is available, ctx is done, or the queue is closed and drained.
// It must only be called from a single consumer goroutine.
func (q *Queue) Next(ctx context.Context) (event.Event, error) {
	for {
		q.mu.Lock()
		if q.head < len(q.items) {
			ev := q.items[q.head]
			q.items[q.head] = nil
			q.head++
			switch {
			case q.head == len(q.items):
				q.items = q.items[:0]
				q.head = 0
			case q.head*2 >= len(q.items):
				// a queue that never drains must not keep its consumed prefix
				n := copy(q.items, q.items[q.head:])
				clear(q.items[n:])
				q.items = q.items[:n]
				q.head = 0
			}
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close stops the queue from accepting new events. Queued events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
