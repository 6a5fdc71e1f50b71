package queue

// Message wraps a Job with the acknowledgement hooks of the transport that delivered it
type Message struct {
	Job  *Job
	ack  func() error
	nack func(requeue bool) error
}

// NewMessage builds a message with custom acknowledgement hooks
func NewMessage(job *Job, ack func() error, nack func(requeue bool) error) *Message {
	return &Message{Job: job, ack: ack, nack: nack}
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// Nack negatively acknowledges the message
func (m *Message) Nack(requeue bool) error {
	if m.nack == nil {
		return nil
	}
	return m.nack(requeue)
}

// GetJob returns the wrapped job
func (m *Message) GetJob() *Job {
	return m.Job
}
