// Package processworker implements the process-queue consumer,
// spec.md §4.10: look up the metadata row, download the stored
// artifact, invoke the NLP collaborator, and persist the result into
// the analytics tables.
package processworker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/nlp"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/wordstore"
)

// ProcessRequest is the wire payload consumed from process-queue,
// exactly spec.md §6's ProcessRequest.
type ProcessRequest struct {
	URL        string    `json:"url"`
	TargetID   string    `json:"target_id"`
	Filepath   string    `json:"filepath"`
	MetadataID int64     `json:"metadata"`
	Datetime   time.Time `json:"datetime"`
}

// Worker consumes ProcessRequests.
type Worker struct {
	Subscriber broker.Subscriber
	Metadata   metastore.Store
	Objects    objectstore.Store
	NLP        nlp.Processor
	Words      wordstore.Store
	Logger     *zap.Logger
}

// Run pulls messages from process-queue one at a time and handles
// each on its own goroutine, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Subscriber.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("processworker: pull: %w", err)
		}
		go w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg broker.Message) {
	var req ProcessRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		w.logger().Error("malformed process request", zap.Error(err))
		_ = msg.Term(ctx)
		return
	}

	rejected, err := w.process(ctx, req)
	if err != nil {
		level := w.logger().Warn
		disp := "nack"
		if rejected {
			level = w.logger().Error
			disp = "reject"
		}
		level("process failed", zap.String("url", req.URL), zap.String("disposition", disp), zap.Error(err))
		if rejected {
			_ = msg.Term(ctx)
		} else {
			_ = msg.Nack(ctx)
		}
		return
	}
	_ = msg.Ack(ctx)
}

// process runs spec.md §4.10 steps 1–5. The bool return reports
// whether the error (if any) is a reject rather than a nack.
func (w *Worker) process(ctx context.Context, req ProcessRequest) (bool, error) {
	metadata, err := w.Metadata.Read(ctx, req.MetadataID)
	if err != nil {
		return false, fmt.Errorf("read metadata: %w", err)
	}
	if metadata == nil {
		return true, fmt.Errorf("no metadata row for id %d", req.MetadataID)
	}

	content, err := w.Objects.Download(ctx, req.Filepath)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", req.Filepath, err)
	}

	result, err := w.NLP.Process(content, req.TargetID, req.URL, req.Datetime)
	if err != nil {
		return false, fmt.Errorf("nlp process: %w", err)
	}
	if result.ArticleDatetime == nil {
		return true, fmt.Errorf("no article_datetime found, unusable")
	}

	err = w.Words.Save(ctx, wordstore.ProcessingResult{
		AbsoluteURL:     req.URL,
		URLHash:         metadata.URLHash,
		TargetID:        req.TargetID,
		ScrapeDatetime:  req.Datetime,
		ArticleDatetime: result.ArticleDatetime,
		Snippet:         result.Snippet,
		Title:           result.Title,
		Keywords:        result.Keywords,
		Topics:          result.Topics,
	})
	if err != nil {
		return false, fmt.Errorf("persist analytics: %w", err)
	}
	return false, nil
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
