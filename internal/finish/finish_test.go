package finish

import (
	"context"
	"errors"
	"testing"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/target"
)

func newTestSequence() (*Sequence, *broker.Memory, *objectstore.MemoryStore, *metastore.MemoryStore) {
	mb := broker.NewMemory()
	objects := objectstore.NewMemoryStore()
	meta := metastore.NewMemoryStore()
	seq := &Sequence{
		Objects:   objects,
		Metadata:  meta,
		Publisher: mb.Publisher(),
	}
	return seq, mb, objects, meta
}

func TestSequenceRunUploadsSavesAndPublishes(t *testing.T) {
	seq, mb, objects, meta := newTestSequence()
	cfg := target.Config{ID: "t1", Name: "Test", RootURL: "https://example.com", Render: target.RenderNever}
	parser := target.New(cfg)

	req := BuildRequest(cfg, "https://example.com/a", "<html>content</html>")
	if err := seq.Run(context.Background(), parser, req); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if mb.Pending(broker.SubjectProcess) != 1 {
		t.Errorf("expected one process-queue publish")
	}
	if got, err := objects.Download(context.Background(), req.Filepath); err != nil || got != req.Content {
		t.Errorf("Download = %q, %v; want %q, nil", got, err, req.Content)
	}
	if m, err := meta.Read(context.Background(), 1); err != nil || m == nil {
		t.Errorf("expected metadata row 1 to exist after commit, got %v, %v", m, err)
	}
}

func TestSequenceRunRollsBackOnUploadFailure(t *testing.T) {
	seq, mb, _, meta := newTestSequence()
	seq.Objects = &failingStore{}
	cfg := target.Config{ID: "t1", Name: "Test", RootURL: "https://example.com", Render: target.RenderNever}
	parser := target.New(cfg)

	req := BuildRequest(cfg, "https://example.com/a", "<html>content</html>")
	if err := seq.Run(context.Background(), parser, req); err == nil {
		t.Fatal("expected Run to fail when upload fails")
	}
	if mb.Pending(broker.SubjectProcess) != 0 {
		t.Error("expected no process-queue publish after a failed upload")
	}
	if _, err := meta.Read(context.Background(), 1); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestSequenceFrontierFailureReturnsErrorButKeepsCommit(t *testing.T) {
	seq, mb, objects, _ := newTestSequence()
	seq.ExpandFrontier = func(ctx context.Context, parser *target.Parser, content string) error {
		return errors.New("frontier boom")
	}
	cfg := target.Config{ID: "t1", Name: "Test", RootURL: "https://example.com", Render: target.RenderNever}
	parser := target.New(cfg)

	req := BuildRequest(cfg, "https://example.com/a", "<html>content</html>")
	if err := seq.Run(context.Background(), parser, req); err == nil {
		t.Fatal("expected Run to return the frontier error")
	}
	if mb.Pending(broker.SubjectProcess) != 1 {
		t.Error("expected the committed process-queue publish to remain despite the frontier failure")
	}
	if _, err := objects.Download(context.Background(), req.Filepath); err != nil {
		t.Errorf("expected the committed upload to remain: %v", err)
	}
}

type failingStore struct{}

func (f *failingStore) Upload(ctx context.Context, key, content string) error {
	return errors.New("upload failed")
}
func (f *failingStore) Download(ctx context.Context, key string) (string, error) { return "", nil }
func (f *failingStore) Close() error                                            { return nil }
