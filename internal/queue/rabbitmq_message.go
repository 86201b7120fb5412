package queue

import amqp "github.com/rabbitmq/amqp091-go"

// Message pairs a decoded Job with the AMQP delivery it arrived on.
type Message struct {
	job *Job
	tag uint64
	ch  *amqp.Channel
}

func (m *Message) Ack() error {
	return m.ch.Ack(m.tag, false)
}

// Nack rejects the delivery. With requeue false the broker
// dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.ch.Nack(m.tag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.job
}

var _ MessageInterface = (*Message)(nil)
