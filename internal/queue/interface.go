package queue

import (
	"context"
	"time"
)

// MessageInterface abstracts a delivered job so workers can be tested
// without a broker.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue publishes and consumes background jobs. Consumers must ack
// or nack every message they receive; prefetch bounds the number of
// outstanding unacked messages per consumer.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error
	Consume(ctx context.Context, prefetch int) (<-chan *Message, <-chan error, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// DLQPurger removes aged-out messages from the dead letter queue.
type DLQPurger interface {
	// PurgeOlderThan drops DLQ messages older than retention and
	// reports how many were removed.
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
