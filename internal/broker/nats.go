package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsBroker is the production broker adapter: a durable JetStream
// "debias" stream with work-queue retention, one filtered consumer
// per subject, pull subscription with batch size 1.
type NatsBroker struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// Connect dials dsn, declares the "debias" stream (idempotent), and
// returns a ready-to-use broker. Callers must call Close on shutdown.
func Connect(ctx context.Context, dsn string) (*NatsBroker, error) {
	conn, err := nats.Connect(dsn, nats.Name("debias-crawler"))
	if err != nil {
		return nil, fmt.Errorf("broker: connect: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("broker: jetstream: %w", err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectFetch, SubjectRender, SubjectProcess},
		Retention: jetstream.WorkQueuePolicy,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("broker: create stream: %w", err)
	}
	return &NatsBroker{conn: conn, js: js}, nil
}

// Close closes the underlying NATS connection without draining it.
func (b *NatsBroker) Close() {
	b.conn.Close()
}

// Publisher returns a Publisher bound to this broker's JetStream
// context; subject is passed per-call so one Publisher value can be
// shared across the three queues.
func (b *NatsBroker) Publisher() Publisher {
	return &natsPublisher{js: b.js}
}

// Subscriber creates (idempotently) a durable, explicit-ack, pull
// consumer named consumerName filtered to subject, and returns a
// Subscriber pulling one message at a time from it.
func (b *NatsBroker) Subscriber(ctx context.Context, subject, consumerName string) (Subscriber, error) {
	cons, err := b.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("broker: create consumer %q: %w", consumerName, err)
	}
	return &natsSubscriber{consumer: cons}, nil
}

type natsPublisher struct {
	js jetstream.JetStream
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	_, err := p.js.Publish(ctx, subject, payload)
	return err
}

type natsSubscriber struct {
	consumer jetstream.Consumer
}

func (s *natsSubscriber) Next(ctx context.Context) (Message, error) {
	for {
		batch, err := s.consumer.Fetch(1, jetstream.FetchMaxWait(30*time.Second))
		if err != nil {
			return nil, err
		}
		for msg := range batch.Messages() {
			return &natsMessage{msg: msg}, nil
		}
		if err := batch.Error(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

type natsMessage struct {
	msg jetstream.Msg
}

func (m *natsMessage) Data() []byte { return m.msg.Data() }

func (m *natsMessage) Ack(ctx context.Context) error {
	return m.msg.Ack()
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.msg.Nak()
}

func (m *natsMessage) Term(ctx context.Context) error {
	return m.msg.Term()
}
