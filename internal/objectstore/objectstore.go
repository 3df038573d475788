// Package objectstore puts and gets UTF-8 blobs at content-addressed
// keys (spec.md §4.3). It mirrors the teacher's scheme-registry
// backend factory (storage.New("<scheme>:<path>")), adapted from
// redirect-aware HTML archival to the crawler's content-addressed
// artifact model.
package objectstore

import (
	"context"
	"fmt"
	"strings"
)

// Store is the object-store client contract consumed by the finish
// sequence (C3) and the process worker (C9).
type Store interface {
	Upload(ctx context.Context, key, content string) error
	Download(ctx context.Context, key string) (string, error)
	Close() error
}

type constructor func(path string) (Store, error)

var registry = map[string]constructor{}

func register(scheme string, fn constructor) {
	registry[scheme] = fn
}

// New builds a Store from a "<scheme>:<path>" target string, e.g.
// "s3:us-east-1:news-articles" or "bbolt:/var/lib/debias/objects.db:artifacts".
func New(target string) (Store, error) {
	scheme, path, ok := strings.Cut(target, ":")
	if !ok {
		return nil, fmt.Errorf("objectstore: target %q has no \"<scheme>:<path>\" prefix", target)
	}
	fn, ok := registry[scheme]
	if !ok {
		return nil, fmt.Errorf("objectstore: no backend registered for scheme %q", scheme)
	}
	return fn(path)
}

// Key returns the content-addressed key layout from spec.md §3/§6:
// "{target_id}/{url_hash}/{content_hash}.html".
func Key(targetID, urlHash, contentHash string) string {
	return fmt.Sprintf("%s/%s/%s.html", targetID, urlHash, contentHash)
}
