// Package render implements the render(url) → html capability
// boundary named in spec.md §6, using a headless Chrome instance via
// go-rod/rod. Adapted from the corpus's own rod usage
// (theRebelliousNerd-codenerd's internal/browser session manager): a
// launcher-backed rod.Browser connected once at startup, one page per
// Render call.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer is the render(url) → html collaborator consumed by the
// render worker (C8).
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// NavigationTimeout bounds how long a single Render call waits for the
// page to finish loading, per spec.md §5 ("each external call has an
// implementation-defined timeout").
const NavigationTimeout = 30 * time.Second

// RodRenderer is the production Renderer, backed by one shared
// headless browser instance.
type RodRenderer struct {
	browser *rod.Browser
}

// New launches (or attaches to) a headless Chrome instance and returns
// a ready-to-use Renderer. debugURL may be empty to launch a local,
// managed Chrome.
func New(debugURL string) (*RodRenderer, error) {
	if debugURL == "" {
		launched, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("render: launch chrome: %w", err)
		}
		debugURL = launched
	}
	browser := rod.New().ControlURL(debugURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("render: connect: %w", err)
	}
	return &RodRenderer{browser: browser}, nil
}

// Render opens url in a fresh page, waits for it to finish loading,
// and returns the fully rendered HTML document. There is no
// interactive pause; this is a plain navigate-then-read.
func (r *RodRenderer) Render(ctx context.Context, url string) (string, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("render: open page %s: %w", url, err)
	}
	defer page.Close()

	deadline, cancel := context.WithTimeout(ctx, NavigationTimeout)
	defer cancel()
	page = page.Context(deadline)

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("render: wait load %s: %w", url, err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("render: read html %s: %w", url, err)
	}
	return html, nil
}

// Close releases the underlying browser process.
func (r *RodRenderer) Close() error {
	return r.browser.Close()
}
