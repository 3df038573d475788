package metastore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by worker tests. Its
// WithTransaction applies writes to a staging copy and only commits
// them to the visible map if fn returns nil, matching the real
// store's rollback-on-error semantics closely enough for unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]Metadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]Metadata)}
}

type memoryTxKey struct{}

type memoryTx struct {
	store   *MemoryStore
	staged  map[int64]Metadata
	nextID  int64
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	staged := make(map[int64]Metadata, len(s.records))
	for k, v := range s.records {
		staged[k] = v
	}
	tx := &memoryTx{store: s, staged: staged, nextID: s.nextID}
	s.mu.Unlock()

	txCtx := context.WithValue(ctx, memoryTxKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}

	s.mu.Lock()
	s.records = tx.staged
	s.nextID = tx.nextID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, m Metadata) (int64, error) {
	if tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		tx.nextID++
		m.ID = tx.nextID
		tx.staged[m.ID] = m
		return m.ID, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	s.records[m.ID] = m
	return m.ID, nil
}

func (s *MemoryStore) Read(ctx context.Context, id int64) (*Metadata, error) {
	if tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		if m, ok := tx.staged[id]; ok {
			return &m, nil
		}
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.records[id]; ok {
		return &m, nil
	}
	return nil, nil
}
