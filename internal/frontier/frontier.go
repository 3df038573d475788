// Package frontier implements the outgoing-link expansion step shared
// by the finish sequence (spec.md §4.9): extract hrefs, resolve and
// normalize each to an absolute URL, and fan out a FetchRequest per
// link concurrently. Grounded in the corpus's use of
// golang.org/x/sync/errgroup for bounded concurrent fan-out (see
// DESIGN.md).
package frontier

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/target"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

// FetchRequest is the wire payload published to the fetch queue,
// exactly spec.md §6's FetchRequest.
type FetchRequest struct {
	URL string `json:"url"`
}

// Expander publishes one FetchRequest per outgoing link found on a
// page.
type Expander struct {
	Publisher broker.Publisher
}

// Expand runs spec.md §4.9: extract hrefs from content via parser
// (already resolved to absolute URLs by Parser.ExtractHrefs),
// normalize each, and publish them concurrently to fetch-queue. The
// first publish error is returned.
func (e *Expander) Expand(ctx context.Context, parser *target.Parser, content string) error {
	hrefs := parser.ExtractHrefs(content)

	g, gctx := errgroup.WithContext(ctx)
	for _, href := range hrefs.Hrefs {
		href := href
		g.Go(func() error {
			return e.publishOne(gctx, href)
		})
	}
	return g.Wait()
}

func (e *Expander) publishOne(ctx context.Context, absolute string) error {
	normalized, err := urlutil.Normalize(absolute)
	if err != nil {
		return fmt.Errorf("frontier: normalize %q: %w", absolute, err)
	}
	payload, err := json.Marshal(FetchRequest{URL: normalized})
	if err != nil {
		return fmt.Errorf("frontier: marshal fetch request: %w", err)
	}
	if err := e.Publisher.Publish(ctx, broker.SubjectFetch, payload); err != nil {
		return fmt.Errorf("frontier: publish %q: %w", normalized, err)
	}
	return nil
}
