package render

import (
	"context"
	"errors"
	"testing"
)

func TestStaticRendererReturnsPage(t *testing.T) {
	r := NewStaticRenderer()
	r.Pages["https://example.com/a"] = "<html>rendered</html>"

	html, err := r.Render(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if html != "<html>rendered</html>" {
		t.Errorf("Render = %q", html)
	}
}

func TestStaticRendererPropagatesError(t *testing.T) {
	r := NewStaticRenderer()
	r.Err = errors.New("boom")

	if _, err := r.Render(context.Background(), "https://example.com/a"); err == nil {
		t.Fatal("expected error from Render")
	}
}
