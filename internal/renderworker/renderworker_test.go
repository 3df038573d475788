package renderworker

import (
	"context"
	"testing"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/dedup"
	"github.com/TheSnook/debias-crawler/internal/finish"
	"github.com/TheSnook/debias-crawler/internal/frontier"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/render"
	"github.com/TheSnook/debias-crawler/internal/target"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

func hashOf(url string) string {
	normalized, _ := urlutil.Normalize(url)
	return urlutil.Hash(normalized)
}

func newTestWorker(t *testing.T) (*Worker, *broker.Memory, *render.StaticRenderer) {
	t.Helper()
	cfg := target.Config{
		ID:           "t1",
		Name:         "Test Site",
		RootURL:      "https://example.com",
		Render:       target.RenderAlways,
		TextSelector: "p",
	}
	reg, err := target.NewRegistry([]target.Config{cfg})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	mb := broker.NewMemory()
	renderer := render.NewStaticRenderer()
	seq := &finish.Sequence{
		Objects:        objectstore.NewMemoryStore(),
		Metadata:       metastore.NewMemoryStore(),
		Publisher:      mb.Publisher(),
		ExpandFrontier: (&frontier.Expander{Publisher: mb.Publisher()}).Expand,
	}

	w := &Worker{
		Subscriber: mb.Subscriber(broker.SubjectRender),
		Targets:    reg,
		Dedup:      dedup.NewMemoryCache(),
		Renderer:   renderer,
		Finish:     seq,
	}
	return w, mb, renderer
}

func publishRender(ctx context.Context, t *testing.T, mb *broker.Memory, url string) {
	t.Helper()
	if err := mb.Publisher().Publish(ctx, broker.SubjectRender, []byte(`{"url":"`+url+`"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestRenderWorkerSuccessRunsFinishAndAcks(t *testing.T) {
	w, mb, renderer := newTestWorker(t)
	renderer.Pages["https://example.com/"] = "<html><body><p>rendered</p></body></html>"
	ctx := context.Background()
	publishRender(ctx, t, mb, "https://example.com/")

	msg, err := w.Subscriber.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "ack" {
		t.Fatalf("Disposition = %q, want ack", got)
	}
	if mb.Pending(broker.SubjectProcess) != 1 {
		t.Errorf("expected one process-queue publish from finish")
	}
}

func TestRenderWorkerUnknownDomainRejects(t *testing.T) {
	w, mb, _ := newTestWorker(t)
	ctx := context.Background()
	publishRender(ctx, t, mb, "https://unregistered.example/")

	msg, _ := w.Subscriber.Next(ctx)
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "reject" {
		t.Fatalf("Disposition = %q, want reject", got)
	}
}

func TestRenderWorkerRenderFailureNacks(t *testing.T) {
	w, mb, renderer := newTestWorker(t)
	renderer.Err = context.DeadlineExceeded
	ctx := context.Background()
	publishRender(ctx, t, mb, "https://example.com/")

	msg, _ := w.Subscriber.Next(ctx)
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "nack" {
		t.Fatalf("Disposition = %q, want nack", got)
	}
}

func TestRenderWorkerDedupRejectsRecentlyRendered(t *testing.T) {
	w, mb, renderer := newTestWorker(t)
	renderer.Pages["https://example.com/"] = "<html></html>"
	ctx := context.Background()

	cache := w.Dedup.(*dedup.MemoryCache)
	_ = cache.Set(ctx, dedup.RenderURLHashKey(hashOf("https://example.com/")), "1", dedup.RenderURLHashTTL)

	publishRender(ctx, t, mb, "https://example.com/")
	msg, _ := w.Subscriber.Next(ctx)
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "reject" {
		t.Fatalf("Disposition = %q, want reject", got)
	}
}
