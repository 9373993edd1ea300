// Package queue defines the contract for handing accepted bronze
// batches to the silver transform workers.
//
// Implementations may use channels or more advanced structures. The
// service starts with an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/ironforge/raidlake/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity   = 10000
	defaultBufferSize = 10000
)

// Message references one bronze object awaiting its silver transform.
type Message struct {
	ObjectName string
	RaidID     string
	IngestDate string
	BatchID    string
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a message to the queue.
	// Returns false if the queue is full and the message was not enqueued.
	Enqueue(ctx context.Context, m Message) bool

	// Dequeue returns a channel that will receive messages as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Message

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new messages can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages   chan Message
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.messages = make(chan Message, q.bufferSize)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	if len(q.messages) >= q.capacity {
		return false
	}

	select {
	case q.messages <- m:
		metrics.UpdateQueueSize(len(q.messages))
		return true
	case <-ctx.Done():
		return false
	default:
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive messages as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range q.messages {
			select {
			case out <- m:
				metrics.UpdateQueueSize(len(q.messages))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.messages)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.messages)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
