// Package fetchworker implements the fetch-queue consumer, spec.md
// §4.6 steps 1–8: normalize, dedup, GET, content-hash short-circuit,
// and branch on the target's render policy. HTTP client shape
// (explicit Transport, bounded timeout) is adapted from the teacher's
// crawler.go, generalized to follow ordinary redirects instead of the
// teacher's single-site mirroring mode.
package fetchworker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/dedup"
	"github.com/TheSnook/debias-crawler/internal/finish"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/target"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

// FetchRequest is the wire payload consumed from fetch-queue, exactly
// spec.md §6's FetchRequest.
type FetchRequest struct {
	URL string `json:"url"`
}

// Worker consumes FetchRequests. One Worker is shared across in-flight
// messages; its HTTP client, registry, and caches are created once at
// startup (spec.md §5).
type Worker struct {
	Subscriber    broker.Subscriber
	Publisher     broker.Publisher
	Targets       *target.Registry
	Dedup         dedup.Cache
	Finish        *finish.Sequence
	HTTPClient    *http.Client
	AutoThreshold int
	UserAgent     string
	Logger        *zap.Logger
}

// NewHTTPClient returns a bounded-timeout client that follows
// redirects normally. Worker does not build one itself: its
// HTTPClient field must be set.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{},
	}
}

// Run pulls messages from fetch-queue one at a time (batch size 1,
// per spec.md §5) and handles each on its own goroutine so many
// fetches can be in flight concurrently, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Subscriber.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetchworker: pull: %w", err)
		}
		go w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg broker.Message) {
	var req FetchRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		w.logger().Error("malformed fetch request", zap.Error(err))
		_ = msg.Term(ctx)
		return
	}

	disposition, err := w.process(ctx, req)
	if err != nil {
		level := w.logger().Warn
		if disposition == dispositionReject {
			level = w.logger().Error
		}
		level("fetch failed", zap.String("url", req.URL), zap.String("disposition", disposition.String()), zap.Error(err))
	}
	switch disposition {
	case dispositionAck:
		_ = msg.Ack(ctx)
	case dispositionReject:
		_ = msg.Term(ctx)
	default:
		_ = msg.Nack(ctx)
	}
}

type disposition int

const (
	dispositionNack disposition = iota
	dispositionAck
	dispositionReject
)

func (d disposition) String() string {
	switch d {
	case dispositionAck:
		return "ack"
	case dispositionReject:
		return "reject"
	default:
		return "nack"
	}
}

// process runs spec.md §4.6 steps 1–8, returning the terminal
// disposition to apply to the outer message.
func (w *Worker) process(ctx context.Context, req FetchRequest) (disposition, error) {
	url, err := urlutil.Normalize(req.URL)
	if err != nil {
		return dispositionReject, fmt.Errorf("normalize: %w", err)
	}

	domain := urlutil.DomainOf(url)
	parser := w.Targets.Lookup(domain)
	if parser == nil {
		return dispositionReject, fmt.Errorf("no target registered for domain %q", domain)
	}

	urlHash := urlutil.Hash(url)
	urlKey := dedup.URLHashKey(urlHash)
	if _, seen, err := w.Dedup.Get(ctx, urlKey); err != nil {
		return dispositionNack, fmt.Errorf("dedup get: %w", err)
	} else if seen {
		return dispositionReject, fmt.Errorf("recently handled")
	}
	if err := w.Dedup.Set(ctx, urlKey, "1", dedup.URLHashTTL); err != nil {
		return dispositionNack, fmt.Errorf("dedup set: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dispositionNack, fmt.Errorf("build request: %w", err)
	}
	if w.UserAgent != "" {
		httpReq.Header.Set("User-Agent", w.UserAgent)
	}
	resp, err := w.HTTPClient.Do(httpReq)
	if err != nil {
		return dispositionNack, fmt.Errorf("GET: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dispositionNack, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dispositionNack, fmt.Errorf("read body: %w", err)
	}
	content := string(body)

	contentHash := urlutil.Hash(content)
	contentKey := dedup.ContentHashKey(urlHash)
	if cached, ok, err := w.Dedup.Get(ctx, contentKey); err != nil {
		return dispositionNack, fmt.Errorf("dedup get content: %w", err)
	} else if ok && cached == contentHash {
		return dispositionAck, nil
	}
	if err := w.Dedup.Set(ctx, contentKey, contentHash, dedup.ContentHashTTL); err != nil {
		return dispositionNack, fmt.Errorf("dedup set content: %w", err)
	}

	cfg := parser.Config()
	switch cfg.Render {
	case target.RenderNever:
		if err := w.runFinish(ctx, parser, url, content, urlHash, contentHash); err != nil {
			return dispositionNack, err
		}
		return dispositionAck, nil
	case target.RenderAlways:
		if err := w.publishRender(ctx, url); err != nil {
			return dispositionNack, err
		}
		return dispositionAck, nil
	case target.RenderAuto:
		sample := parser.ExtractText(content)
		if len(sample) < w.threshold() {
			if err := w.publishRender(ctx, url); err != nil {
				return dispositionNack, err
			}
			return dispositionAck, nil
		}
		if err := w.runFinish(ctx, parser, url, content, urlHash, contentHash); err != nil {
			return dispositionNack, err
		}
		return dispositionAck, nil
	}
	return dispositionNack, fmt.Errorf("unreachable render policy %q", cfg.Render)
}

func (w *Worker) threshold() int {
	if w.AutoThreshold <= 0 {
		return 300
	}
	return w.AutoThreshold
}

func (w *Worker) runFinish(ctx context.Context, parser *target.Parser, url, content, urlHash, contentHash string) error {
	req := finish.Request{
		Target:      parser.Config(),
		URL:         url,
		Content:     content,
		ContentHash: contentHash,
		URLHash:     urlHash,
		Filepath:    objectstore.Key(parser.Config().ID, urlHash, contentHash),
	}
	return w.Finish.Run(ctx, parser, req)
}

func (w *Worker) publishRender(ctx context.Context, url string) error {
	payload, err := json.Marshal(struct {
		URL string `json:"url"`
	}{URL: url})
	if err != nil {
		return fmt.Errorf("marshal render request: %w", err)
	}
	if err := w.Publisher.Publish(ctx, broker.SubjectRender, payload); err != nil {
		return fmt.Errorf("publish render request: %w", err)
	}
	return nil
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
