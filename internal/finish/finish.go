// Package finish implements the sequence shared by the fetch worker's
// non-render path and the render worker (spec.md §4.8): within a
// single metadata-store transaction, upload the artifact, save its
// metadata row, and publish a ProcessRequest; then, once committed,
// expand the frontier. Grounded in the teacher's crawler.go fetch loop
// (upload-then-record sequencing) generalized to the spec's explicit
// transaction-then-frontier ordering.
package finish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/target"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

// Request bundles everything the finish sequence needs, gathered by
// either calling worker before invoking Run.
type Request struct {
	Target      target.Config
	URL         string // already normalized
	Content     string
	ContentHash string
	URLHash     string
	Filepath    string
}

// ProcessRequest is the wire payload published to the process queue,
// exactly spec.md §6's ProcessRequest.
type ProcessRequest struct {
	URL        string    `json:"url"`
	TargetID   string    `json:"target_id"`
	Filepath   string    `json:"filepath"`
	MetadataID int64     `json:"metadata"`
	Datetime   time.Time `json:"datetime"`
}

// Sequence runs the transactional upload+save+publish step and, on
// commit, the frontier expansion. It holds only shared, read-only or
// concurrency-safe collaborators, so one Sequence is shared across all
// in-flight messages in a worker process (spec.md §5).
type Sequence struct {
	Objects        objectstore.Store
	Metadata       metastore.Store
	Publisher      broker.Publisher
	Now            func() time.Time
	ExpandFrontier func(ctx context.Context, parser *target.Parser, content string) error
}

// Run executes spec.md §4.8 in full for one message. parser is the
// target parser that matched req.URL's domain, used only for the
// post-commit frontier expansion. Run returns an error whenever the
// outer message must be nacked: either the transactional step failed,
// or it committed but frontier expansion failed afterward (in which
// case the crawl itself is not undone — see spec.md §4.8).
func (s *Sequence) Run(ctx context.Context, parser *target.Parser, req Request) error {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	var metadataID int64
	err := s.Metadata.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Objects.Upload(ctx, req.Filepath, req.Content); err != nil {
			return fmt.Errorf("finish: upload: %w", err)
		}

		id, err := s.Metadata.Save(ctx, metastore.Metadata{
			TargetID:    req.Target.ID,
			TargetName:  req.Target.Name,
			AbsoluteURL: req.URL,
			LastScrape:  now(),
			Filepath:    req.Filepath,
			URLHash:     req.URLHash,
			ContentHash: req.ContentHash,
			ContentSize: len(req.Content),
		})
		if err != nil {
			return fmt.Errorf("finish: save metadata: %w", err)
		}
		metadataID = id

		payload, err := json.Marshal(ProcessRequest{
			URL:        req.URL,
			TargetID:   req.Target.ID,
			Filepath:   req.Filepath,
			MetadataID: metadataID,
			Datetime:   now(),
		})
		if err != nil {
			return fmt.Errorf("finish: marshal process request: %w", err)
		}
		if err := s.Publisher.Publish(ctx, broker.SubjectProcess, payload); err != nil {
			return fmt.Errorf("finish: publish process request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.ExpandFrontier == nil {
		return nil
	}
	if err := s.ExpandFrontier(ctx, parser, req.Content); err != nil {
		return fmt.Errorf("finish: frontier expansion: %w", err)
	}
	return nil
}

// BuildRequest fills in the derivable fields (hashes, filepath) of a
// Request given the already-normalized URL and fetched/rendered
// content.
func BuildRequest(t target.Config, url, content string) Request {
	urlHash := urlutil.Hash(url)
	contentHash := urlutil.Hash(content)
	return Request{
		Target:      t,
		URL:         url,
		Content:     content,
		ContentHash: contentHash,
		URLHash:     urlHash,
		Filepath:    objectstore.Key(t.ID, urlHash, contentHash),
	}
}
