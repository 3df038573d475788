// Package broker defines the durable, pull-based work-queue
// abstraction the crawl pipeline is built on (spec.md §4.5): at most
// one consumer per message, batch size 1, and three terminal
// dispositions (ack/nack/reject).
package broker

import "context"

// Message is one pulled work item. Exactly one of Ack, Nack, or Term
// must be called per message.
type Message interface {
	// Data returns the raw message payload.
	Data() []byte
	// Ack marks the message consumed; it will not be redelivered.
	Ack(ctx context.Context) error
	// Nack marks the message as a transient failure; the broker
	// redelivers it after backoff.
	Nack(ctx context.Context) error
	// Term marks the message as poison; the broker never redelivers
	// it. This is the broker's realization of spec.md's "reject".
	Term(ctx context.Context) error
}

// Subscriber pulls work items from one subject, one at a time.
type Subscriber interface {
	// Next blocks until a message is available, ctx is done, or a
	// fatal subscription error occurs.
	Next(ctx context.Context) (Message, error)
}

// Publisher fire-and-forget publishes payloads to subjects on the
// broker's stream. A returned error must cause the caller's own
// in-flight message to nack (spec.md §4.5, §4.8).
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// Subjects used on stream "debias" (spec.md §6).
const (
	SubjectFetch   = "fetch-queue"
	SubjectRender  = "render-queue"
	SubjectProcess = "process-queue"
	StreamName     = "debias"
)
