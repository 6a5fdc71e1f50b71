package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue.
	// The caller is responsible for acknowledging each message.
	// Prefetch controls how many unacknowledged messages each consumer can hold.
	// Both channels are closed when ctx is cancelled or the connection is lost.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered jobs older than retention and reports how many were removed
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

var (
	_ JobQueue         = (*RabbitMQQueue)(nil)
	_ JobQueue         = (*MemoryQueue)(nil)
	_ DLQPurger        = (*RabbitMQQueue)(nil)
	_ MessageInterface = (*Message)(nil)
)
