package broker

import (
	"context"
	"sync"
)

// Memory is an in-process fan-out broker used by worker tests. It
// implements the same at-most-once-per-consumer, explicit-disposition
// semantics as NatsBroker, without a network dependency.
type Memory struct {
	mu    sync.Mutex
	queue map[string][][]byte
}

// NewMemory returns an empty in-memory broker.
func NewMemory() *Memory {
	return &Memory{queue: make(map[string][][]byte)}
}

// Publisher returns a Publisher that appends to this broker's queues.
func (m *Memory) Publisher() Publisher { return &memoryPublisher{m: m} }

// Subscriber returns a Subscriber that pops from subject's queue.
func (m *Memory) Subscriber(subject string) Subscriber { return &memorySubscriber{m: m, subject: subject} }

// Pending returns the number of undelivered messages on subject.
func (m *Memory) Pending(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue[subject])
}

type memoryPublisher struct{ m *Memory }

func (p *memoryPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.m.queue[subject] = append(p.m.queue[subject], payload)
	return nil
}

type memorySubscriber struct {
	m       *Memory
	subject string
}

// Next does not block: on an empty queue it returns a nil Message and
// ctx.Err(), which is nil while ctx is still live.
func (s *memorySubscriber) Next(ctx context.Context) (Message, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q := s.m.queue[s.subject]
	if len(q) == 0 {
		return nil, ctx.Err()
	}
	payload := q[0]
	s.m.queue[s.subject] = q[1:]
	return &MemoryMessage{data: payload}, nil
}

// MemoryMessage discards its disposition once set: a memory queue
// never redelivers. Disposition() lets worker tests assert which
// terminal outcome was chosen without testing redelivery itself.
type MemoryMessage struct {
	data        []byte
	disposition string
}

func (m *MemoryMessage) Data() []byte { return m.data }

// Disposition reports "ack", "nack", "reject", or "" if no terminal
// call has been made yet.
func (m *MemoryMessage) Disposition() string { return m.disposition }

func (m *MemoryMessage) Ack(ctx context.Context) error {
	m.disposition = "ack"
	return nil
}

func (m *MemoryMessage) Nack(ctx context.Context) error {
	m.disposition = "nack"
	return nil
}

func (m *MemoryMessage) Term(ctx context.Context) error {
	m.disposition = "reject"
	return nil
}
