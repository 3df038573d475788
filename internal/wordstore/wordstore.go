// Package wordstore persists the NLP collaborator's output into the
// analytics tables the aggregation service reads: documents, keywords,
// topics, and their per-document appearance counts (spec.md §4.10
// step 4). Table shape and upsert semantics are ported directly from
// debias/core/wordstore.py.
package wordstore

import (
	"context"
	"time"
)

// Keyword is a named-entity-style keyword extracted from a document.
type Keyword struct {
	Text string
	Type string
}

// Topic is a zero-shot-classified topic label for a document.
type Topic struct {
	Text string
	Type string
}

// ProcessingResult is the NLP collaborator's output, ready to persist.
type ProcessingResult struct {
	AbsoluteURL     string
	URLHash         string
	TargetID        string
	ScrapeDatetime  time.Time
	ArticleDatetime *time.Time
	Snippet         string
	Title           string
	Keywords        []Keyword
	Topics          []Topic
}

// TargetDimension is the aggregation dimension row for one news
// source: its country and political alignment, seeded from config.
type TargetDimension struct {
	ID        string
	Name      string
	MainPage  string
	Country   string
	Alignment string
}

// Store persists ProcessingResults and seeds the target dimension
// table that the (out-of-scope) aggregation service groups by.
type Store interface {
	// Save inserts a document row and upserts its keywords, topics,
	// and appearance counts, all inside one transaction.
	Save(ctx context.Context, result ProcessingResult) error
	// SeedTargets upserts the target dimension rows, a no-op for
	// targets already present.
	SeedTargets(ctx context.Context, targets []TargetDimension) error
}
