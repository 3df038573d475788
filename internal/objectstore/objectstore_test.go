package objectstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKey(t *testing.T) {
	got := Key("BBC", "abc123", "def456")
	want := "BBC/abc123/def456.html"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Upload(ctx, "k", "hello"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := s.Download(ctx, "k")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != "hello" {
		t.Errorf("Download = %q, want %q", got, "hello")
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Download(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestBBoltStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "objects.db")
	store, err := NewBBolt(dbPath, "artifacts")
	if err != nil {
		t.Fatalf("NewBBolt: %v", err)
	}
	defer store.Close()

	if err := store.Upload(ctx, "BBC/h1/h2.html", "<html>content</html>"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := store.Download(ctx, "BBC/h1/h2.html")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != "<html>content</html>" {
		t.Errorf("Download = %q", got)
	}
}

func TestNewUnknownScheme(t *testing.T) {
	if _, err := New("ftp:foo"); err == nil {
		t.Fatal("expected error for unregistered scheme")
	}
}

func TestNewMissingScheme(t *testing.T) {
	if _, err := New("no-colon-here"); err == nil {
		t.Fatal("expected error for missing scheme separator")
	}
}
