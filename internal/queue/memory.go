package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryQueue is an in-process JobQueue used by the memory store driver and tests.
// Nacked jobs with requeue are delivered again, others are dropped.
type MemoryQueue struct {
	mu     sync.Mutex
	jobs   chan *Job
	closed bool
}

// NewMemoryQueue creates a queue holding up to capacity pending jobs
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 16
	}
	return &MemoryQueue{jobs: make(chan *Job, capacity)}
}

// Enqueue adds a job, failing when the queue is full or closed
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue full")
	}
}

// Consume delivers jobs until ctx is cancelled or the queue is closed
func (q *MemoryQueue) Consume(ctx context.Context, _ int) (<-chan *Message, <-chan error, error) {
	msgChan := make(chan *Message)
	errChan := make(chan error)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				msg := NewMessage(job, nil, func(requeue bool) error {
					if requeue {
						return q.Enqueue(context.Background(), job)
					}
					return nil
				})
				select {
				case <-ctx.Done():
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// Pending returns the number of jobs waiting for delivery
func (q *MemoryQueue) Pending() int {
	return len(q.jobs)
}

// HealthCheck reports an error once the queue has been closed
func (q *MemoryQueue) HealthCheck(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	return nil
}

// Close stops delivery
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}
