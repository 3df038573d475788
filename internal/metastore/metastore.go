// Package metastore is the append-only metadata record of every
// crawled artifact (spec.md §3/§4.3), with a transactional scope used
// by the finish sequence to group an object-store upload and a
// metadata insert into one all-or-nothing unit.
package metastore

import (
	"context"
	"time"
)

// Metadata is one row, exactly spec.md §3's Metadata record. Rows are
// append-only and never updated.
type Metadata struct {
	ID          int64
	TargetID    string
	TargetName  string
	AbsoluteURL string
	LastScrape  time.Time
	Filepath    string
	URLHash     string
	ContentHash string
	ContentSize int
}

// Store is the metadata-store contract consumed by the finish
// sequence (C4) and the process worker (C9).
type Store interface {
	// Save inserts metadata and returns its assigned id.
	Save(ctx context.Context, metadata Metadata) (int64, error)
	// Read looks up a row by id, returning nil if absent.
	Read(ctx context.Context, id int64) (*Metadata, error)
	// WithTransaction runs fn inside a single transaction scope; any
	// error returned by fn rolls the transaction back, matching
	// spec.md §4.3's "scoped acquisition" semantics.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
