package processworker

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/nlp"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/wordstore"
)

func newTestWorker(t *testing.T) (*Worker, *broker.Memory, *metastore.MemoryStore, *objectstore.MemoryStore) {
	t.Helper()
	mb := broker.NewMemory()
	meta := metastore.NewMemoryStore()
	objects := objectstore.NewMemoryStore()

	w := &Worker{
		Subscriber: mb.Subscriber(broker.SubjectProcess),
		Metadata:   meta,
		Objects:    objects,
		NLP:        nlp.NewHeuristicProcessor(),
		Words:      wordstore.NewMemoryStore(),
	}
	return w, mb, meta, objects
}

func publishProcess(ctx context.Context, t *testing.T, mb *broker.Memory, payload []byte) {
	t.Helper()
	if err := mb.Publisher().Publish(ctx, broker.SubjectProcess, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestProcessWorkerSuccessAcks(t *testing.T) {
	w, mb, meta, objects := newTestWorker(t)
	ctx := context.Background()

	id, err := meta.Save(ctx, metastore.Metadata{TargetID: "t1", AbsoluteURL: "https://example.com/a", URLHash: "uh1"})
	if err != nil {
		t.Fatalf("Save metadata: %v", err)
	}
	html := `<html><head><title>Test</title><meta property="article:published_time" content="2026-01-01T00:00:00Z"></head><body><article><p>Some content about the economy and market.</p></article></body></html>`
	if err := objects.Upload(ctx, "t1/uh1/ch1.html", html); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	req := `{"url":"https://example.com/a","target_id":"t1","filepath":"t1/uh1/ch1.html","metadata":` +
		strconv.FormatInt(id, 10) + `,"datetime":"` + time.Now().Format(time.RFC3339) + `"}`
	publishProcess(ctx, t, mb, []byte(req))

	msg, err := w.Subscriber.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "ack" {
		t.Fatalf("Disposition = %q, want ack", got)
	}
	store := w.Words.(*wordstore.MemoryStore)
	if len(store.Documents) != 1 {
		t.Errorf("expected one persisted document, got %d", len(store.Documents))
	}
}

func TestProcessWorkerMissingMetadataRejects(t *testing.T) {
	w, mb, _, _ := newTestWorker(t)
	ctx := context.Background()

	req := `{"url":"https://example.com/a","target_id":"t1","filepath":"t1/uh1/ch1.html","metadata":999,"datetime":"` +
		time.Now().Format(time.RFC3339) + `"}`
	publishProcess(ctx, t, mb, []byte(req))

	msg, _ := w.Subscriber.Next(ctx)
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "reject" {
		t.Fatalf("Disposition = %q, want reject", got)
	}
}

func TestProcessWorkerNoDateRejects(t *testing.T) {
	w, mb, meta, objects := newTestWorker(t)
	ctx := context.Background()

	id, _ := meta.Save(ctx, metastore.Metadata{TargetID: "t1", AbsoluteURL: "https://example.com/a", URLHash: "uh2"})
	html := `<html><head><title>No Date</title></head><body><article><p>No date here.</p></article></body></html>`
	_ = objects.Upload(ctx, "t1/uh2/ch2.html", html)

	req := `{"url":"https://example.com/a","target_id":"t1","filepath":"t1/uh2/ch2.html","metadata":` +
		strconv.FormatInt(id, 10) + `,"datetime":"` + time.Now().Format(time.RFC3339) + `"}`
	publishProcess(ctx, t, mb, []byte(req))

	msg, _ := w.Subscriber.Next(ctx)
	w.handle(ctx, msg)

	if got := msg.(*broker.MemoryMessage).Disposition(); got != "reject" {
		t.Fatalf("Disposition = %q, want reject", got)
	}
}

