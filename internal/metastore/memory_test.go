package metastore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSaveAndRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Save(ctx, Metadata{TargetID: "t1", AbsoluteURL: "https://example.com/a", LastScrape: time.Now()})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Read(ctx, id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got == nil || got.TargetID != "t1" {
		t.Fatalf("Read(%d) = %+v, want TargetID=t1", id, got)
	}
}

func TestMemoryStoreReadMissing(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Read(context.Background(), 999999)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != nil {
		t.Fatalf("Read(missing) = %+v, want nil", got)
	}
}

func TestMemoryStoreTransactionCommit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var id int64
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.Save(ctx, Metadata{TargetID: "t1"})
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	got, _ := s.Read(ctx, id)
	if got == nil {
		t.Fatal("expected committed row to be visible after transaction")
	}
}

func TestMemoryStoreTransactionRollback(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("boom")
	var id int64
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.Save(ctx, Metadata{TargetID: "t1"})
		if err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction error = %v, want %v", err, boom)
	}

	got, _ := s.Read(ctx, id)
	if got != nil {
		t.Fatal("expected row to be rolled back, but it is visible")
	}
}
