package objectstore

// Adapted from the teacher's storage/bbolt.go: same go.etcd.io/bbolt
// open/bucket pattern, but storing the raw UTF-8 content bytes
// directly rather than a protobuf-encoded resource.Resource — there
// is no redirect/content-type envelope to preserve in this model, so
// the extra serialization layer would have no field to carry (see
// DESIGN.md).

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// BBoltStore is an embedded, single-file Store for local development
// and tests.
type BBoltStore struct {
	db     *bbolt.DB
	bucket string
}

// NewBBolt opens (creating if needed) a bbolt database at path with
// the given bucket.
func NewBBolt(path, bucket string) (Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("objectstore: open bbolt database %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("objectstore: create bucket %q: %w", bucket, err)
	}
	return &BBoltStore{db: db, bucket: bucket}, nil
}

func (s *BBoltStore) Upload(ctx context.Context, key, content string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(s.bucket)).Put([]byte(key), []byte(content))
	})
}

func (s *BBoltStore) Download(ctx context.Context, key string) (string, error) {
	var content []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(s.bucket)).Get([]byte(key))
		if v == nil {
			return errors.New("objectstore: key not found: " + key)
		}
		content = make([]byte, len(v))
		copy(content, v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (s *BBoltStore) Close() error {
	return s.db.Close()
}

// newBBoltFromTarget builds a BBoltStore from a "<path>:<bucket>"
// string, matching the teacher's registration shape.
func newBBoltFromTarget(path string) (Store, error) {
	parts := strings.SplitN(path, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf(`objectstore: bbolt path %q does not have expected format "<path>:<bucket>"`, path)
	}
	return NewBBolt(parts[0], parts[1])
}

func init() {
	register("bbolt", newBBoltFromTarget)
}
