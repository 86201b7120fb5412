package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names. The delayed exchange needs the
// rabbitmq_delayed_message_exchange plugin; without it jobs with a
// NotBefore are published immediately and gated consumer-side.
const (
	DefaultQueueName           = "commitment_jobs"
	DefaultDLQName             = "commitment_jobs_dlq"
	DefaultExchangeName        = "commitment_exchange"
	DefaultDelayedExchangeName = "commitment_exchange_delayed"

	jobRoutingKey = "jobs"
	dlqRoutingKey = "dlq"
)

// RabbitMQQueue is the AMQP-backed JobQueue.
type RabbitMQQueue struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	queueName       string
	dlqName         string
	exchange        string
	delayedExchange string
	delayedReady    bool
}

// NewRabbitMQQueue dials the broker and declares the job topology.
func NewRabbitMQQueue(amqpURL string) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:            conn,
		ch:              ch,
		queueName:       DefaultQueueName,
		dlqName:         DefaultDLQName,
		exchange:        DefaultExchangeName,
		delayedExchange: DefaultDelayedExchangeName,
	}

	if err := q.declareTopology(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	return q, nil
}

func (q *RabbitMQQueue) declareTopology() error {
	// Delayed exchange first. A failed declare closes the channel, so
	// reopen before falling back to immediate publishing.
	err := q.ch.ExchangeDeclare(q.delayedExchange, "x-delayed-message",
		true, false, false, false, amqp.Table{"x-delayed-type": "direct"})
	if err != nil {
		if q.ch.IsClosed() {
			ch, openErr := q.conn.Channel()
			if openErr != nil {
				return fmt.Errorf("reopen channel: %w", openErr)
			}
			q.ch = ch
		}
	} else {
		q.delayedReady = true
	}

	if err := q.ch.ExchangeDeclare(q.exchange, "direct",
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := q.ch.QueueDeclare(q.dlqName,
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlq: %w", err)
	}
	if err := q.ch.QueueBind(q.dlqName, dlqRoutingKey, q.exchange, false, nil); err != nil {
		return fmt.Errorf("bind dlq: %w", err)
	}

	// Rejected job messages route to the DLQ.
	if _, err := q.ch.QueueDeclare(q.queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    q.exchange,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := q.ch.QueueBind(q.queueName, jobRoutingKey, q.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if q.delayedReady {
		if err := q.ch.QueueBind(q.queueName, jobRoutingKey, q.delayedExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue to delayed exchange: %w", err)
		}
	}
	return nil
}

// Enqueue publishes a job. NotAfter becomes a per-message TTL so
// expired jobs dead-letter instead of lingering; NotBefore routes
// through the delayed exchange when the plugin is present.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.CreatedAt,
	}
	if job.NotAfter != nil {
		if ttl := time.Until(*job.NotAfter); ttl > 0 {
			pub.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
		}
	}

	exchange := q.exchange
	if job.NotBefore != nil && q.delayedReady {
		if delay := time.Until(*job.NotBefore); delay > 0 {
			exchange = q.delayedExchange
			pub.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
		}
	}

	if err := q.ch.PublishWithContext(ctx, exchange, jobRoutingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Consume opens a dedicated consumer channel and streams decoded jobs.
// Undecodable and expired deliveries dead-letter; jobs delivered
// before their NotBefore are requeued. Both returned channels close
// when ctx ends.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetch int) (<-chan *Message, <-chan error, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("start consumer: %w", err)
	}

	msgs := make(chan *Message, prefetch)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					errs <- fmt.Errorf("delivery channel closed")
					return
				}

				var job Job
				if err := json.Unmarshal(d.Body, &job); err != nil {
					_ = d.Nack(false, false)
					errs <- fmt.Errorf("unmarshal job: %w", err)
					continue
				}
				if job.IsExpired() {
					_ = d.Nack(false, false)
					continue
				}
				if !job.ShouldProcess() {
					_ = d.Nack(false, true)
					continue
				}

				m := &Message{job: &job, tag: d.DeliveryTag, ch: ch}
				select {
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				case msgs <- m:
				}
			}
		}
	}()

	return msgs, errs, nil
}

// HealthCheck verifies the connection, channel and main queue.
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	if q.ch == nil || q.ch.IsClosed() {
		return fmt.Errorf("rabbitmq channel is closed")
	}
	if _, err := q.ch.QueueDeclarePassive(q.queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    q.exchange,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}); err != nil {
		return fmt.Errorf("queue inspect failed: %w", err)
	}
	return nil
}

// PurgeOlderThan walks the DLQ dropping messages published before the
// retention cutoff. The walk stops at the first young message, which
// goes back on the queue; DLQ order is roughly chronological.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	purged := 0

	for {
		select {
		case <-ctx.Done():
			return purged, ctx.Err()
		default:
		}

		d, ok, err := q.ch.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("read dlq: %w", err)
		}
		if !ok {
			return purged, nil
		}

		if d.Timestamp.Before(cutoff) {
			if err := d.Ack(false); err != nil {
				return purged, fmt.Errorf("purge dlq message: %w", err)
			}
			purged++
			continue
		}

		if err := d.Nack(false, true); err != nil {
			return purged, fmt.Errorf("requeue dlq message: %w", err)
		}
		return purged, nil
	}
}

// Close tears down the channel and connection.
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.ch != nil {
		err = q.ch.Close()
	}
	if q.conn != nil {
		if cerr := q.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
