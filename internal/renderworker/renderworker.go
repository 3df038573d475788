// Package renderworker implements the render-queue consumer, spec.md
// §4.7: normalize, dedup against the render-specific cache namespace,
// invoke the headless-render collaborator, and run the shared finish
// sequence.
package renderworker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/dedup"
	"github.com/TheSnook/debias-crawler/internal/finish"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/render"
	"github.com/TheSnook/debias-crawler/internal/target"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

// RenderRequest is the wire payload consumed from render-queue,
// exactly spec.md §6's RenderRequest.
type RenderRequest struct {
	URL string `json:"url"`
}

// Worker consumes RenderRequests.
type Worker struct {
	Subscriber broker.Subscriber
	Targets    *target.Registry
	Dedup      dedup.Cache
	Renderer   render.Renderer
	Finish     *finish.Sequence
	Logger     *zap.Logger
}

// Run pulls messages from render-queue one at a time and handles each
// on its own goroutine, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Subscriber.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("renderworker: pull: %w", err)
		}
		go w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg broker.Message) {
	var req RenderRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		w.logger().Error("malformed render request", zap.Error(err))
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
		level("render failed", zap.String("url", req.URL), zap.String("disposition", disp), zap.Error(err))
		if rejected {
			_ = msg.Term(ctx)
		} else {
			_ = msg.Nack(ctx)
		}
		return
	}
	_ = msg.Ack(ctx)
}

// process runs spec.md §4.7 steps 1–5. The bool return reports
// whether the error (if any) is a reject rather than a nack.
func (w *Worker) process(ctx context.Context, req RenderRequest) (bool, error) {
	url, err := urlutil.Normalize(req.URL)
	if err != nil {
		return true, fmt.Errorf("normalize: %w", err)
	}

	domain := urlutil.DomainOf(url)
	parser := w.Targets.Lookup(domain)
	if parser == nil {
		return true, fmt.Errorf("no target registered for domain %q", domain)
	}

	urlHash := urlutil.Hash(url)
	renderKey := dedup.RenderURLHashKey(urlHash)
	if _, seen, err := w.Dedup.Get(ctx, renderKey); err != nil {
		return false, fmt.Errorf("dedup get: %w", err)
	} else if seen {
		return true, fmt.Errorf("recently rendered")
	}
	if err := w.Dedup.Set(ctx, renderKey, "1", dedup.RenderURLHashTTL); err != nil {
		return false, fmt.Errorf("dedup set: %w", err)
	}

	content, err := w.Renderer.Render(ctx, url)
	if err != nil {
		return false, fmt.Errorf("render: %w", err)
	}

	contentHash := urlutil.Hash(content)
	finishReq := finish.Request{
		Target:      parser.Config(),
		URL:         url,
		Content:     content,
		ContentHash: contentHash,
		URLHash:     urlHash,
		Filepath:    objectstore.Key(parser.Config().ID, urlHash, contentHash),
	}
	if err := w.Finish.Run(ctx, parser, finishReq); err != nil {
		return false, fmt.Errorf("finish: %w", err)
	}
	return false, nil
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
