package broker

import (
	"context"
	"testing"
)

func TestMemoryPublishAndConsume(t *testing.T) {
	m := NewMemory()
	pub := m.Publisher()
	ctx := context.Background()

	if err := pub.Publish(ctx, SubjectFetch, []byte(`{"url":"https://example.com"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := m.Pending(SubjectFetch); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}

	sub := m.Subscriber(SubjectFetch)
	msg, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(msg.Data()) != `{"url":"https://example.com"}` {
		t.Errorf("Data = %q", msg.Data())
	}
	if m.Pending(SubjectFetch) != 0 {
		t.Errorf("Pending after pop = %d, want 0", m.Pending(SubjectFetch))
	}

	if err := msg.Ack(ctx); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if got := msg.(*MemoryMessage).Disposition(); got != "ack" {
		t.Errorf("Disposition = %q, want ack", got)
	}
}

func TestMemorySubscriberEmptyQueueReturnsCtxErr(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := m.Subscriber(SubjectRender)
	if _, err := sub.Next(ctx); err == nil {
		t.Fatal("expected an error from Next on an empty, cancelled-context subscriber")
	}
}
