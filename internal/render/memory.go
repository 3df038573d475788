package render

import "context"

// StaticRenderer is an in-process Renderer fake for worker tests: it
// returns a canned HTML string (or error) per URL instead of driving a
// real browser.
type StaticRenderer struct {
	Pages map[string]string
	Err   error
}

// NewStaticRenderer returns a StaticRenderer with an empty page set.
func NewStaticRenderer() *StaticRenderer {
	return &StaticRenderer{Pages: make(map[string]string)}
}

func (r *StaticRenderer) Render(ctx context.Context, url string) (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	return r.Pages[url], nil
}

func (r *StaticRenderer) Close() error { return nil }
