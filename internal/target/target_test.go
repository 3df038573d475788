package target

import "testing"

func validConfig() Config {
	return Config{
		ID:           "bbc",
		Name:         "BBC News",
		RootURL:      "https://www.bbc.com",
		Render:       RenderAuto,
		TextSelector: "p",
		HrefSelector: "a[href]",
	}
}

func TestConfigValidateRejectsUnknownRenderPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Render = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject an unknown render policy")
	}
}

func TestConfigValidateRejectsMissingFields(t *testing.T) {
	cfg := validConfig()
	cfg.ID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject a blank id")
	}
}

func TestExtractTextJoinsMatchedElements(t *testing.T) {
	p := New(validConfig())
	html := `<html><body><p>Hello</p><p>world</p></body></html>`
	if got, want := p.ExtractText(html), "Hello world"; got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestExtractTextEmptySelectorYieldsEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.TextSelector = ""
	p := New(cfg)
	if got := p.ExtractText(`<html><body><p>Hello</p></body></html>`); got != "" {
		t.Errorf("ExtractText with empty selector = %q, want \"\"", got)
	}
}

func TestExtractTextNoMatchesYieldsEmpty(t *testing.T) {
	p := New(validConfig())
	if got := p.ExtractText(`<html><body><div>Hello</div></body></html>`); got != "" {
		t.Errorf("ExtractText with no matches = %q, want \"\"", got)
	}
}

func TestExtractHrefsResolvesRelativeLinksAbsolute(t *testing.T) {
	p := New(validConfig())
	html := `<html><body><a href="/a">a</a><a href="https://other.example/b">b</a></body></html>`
	got := p.ExtractHrefs(html)
	want := []string{"https://www.bbc.com/a", "https://other.example/b"}
	if len(got.Hrefs) != len(want) {
		t.Fatalf("ExtractHrefs = %v, want %v", got.Hrefs, want)
	}
	for i := range want {
		if got.Hrefs[i] != want[i] {
			t.Errorf("ExtractHrefs[%d] = %q, want %q", i, got.Hrefs[i], want[i])
		}
	}
}

func TestExtractHrefsSkipsMissingOrEmptyHref(t *testing.T) {
	p := New(validConfig())
	html := `<html><body><a>none</a><a href="">empty</a><a href="/ok">ok</a></body></html>`
	got := p.ExtractHrefs(html)
	if len(got.Hrefs) != 1 || got.Hrefs[0] != "https://www.bbc.com/ok" {
		t.Errorf("ExtractHrefs.Hrefs = %v, want one retained href", got.Hrefs)
	}
	if got.Malformed != 2 {
		t.Errorf("ExtractHrefs.Malformed = %d, want 2", got.Malformed)
	}
}

func TestExtractHrefsDomainOnlyDropsOffSiteAndRelativeLinks(t *testing.T) {
	cfg := validConfig()
	cfg.DomainOnly = true
	p := New(cfg)
	html := `<html><body>
		<a href="https://www.bbc.com/a">same</a>
		<a href="https://bbc.com/b">same, no www</a>
		<a href="https://other.example/c">other</a>
		<a href="/d">relative</a>
	</body></html>`
	got := p.ExtractHrefs(html)
	want := []string{"https://www.bbc.com/a", "https://bbc.com/b"}
	if len(got.Hrefs) != len(want) {
		t.Fatalf("ExtractHrefs.Hrefs = %v, want %v", got.Hrefs, want)
	}
	for i := range want {
		if got.Hrefs[i] != want[i] {
			t.Errorf("ExtractHrefs[%d] = %q, want %q", i, got.Hrefs[i], want[i])
		}
	}
}

func TestExtractHrefsDefaultSelectorWhenUnset(t *testing.T) {
	cfg := validConfig()
	cfg.HrefSelector = ""
	p := New(cfg)
	got := p.ExtractHrefs(`<html><body><a href="/x">x</a></body></html>`)
	if len(got.Hrefs) != 1 {
		t.Fatalf("ExtractHrefs with default selector = %v, want one href", got.Hrefs)
	}
}

func TestRegistryLookupByDomainAndByRootStrippedOfWWW(t *testing.T) {
	reg, err := NewRegistry([]Config{validConfig()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	if reg.Lookup("bbc.com") == nil {
		t.Error("expected a registered parser for bbc.com")
	}
	if reg.Lookup("www.bbc.com") == nil {
		t.Error("expected a registered parser for www.bbc.com")
	}
	if reg.Lookup("unregistered.example") != nil {
		t.Error("expected no parser for an unregistered domain")
	}
}

func TestRegistryRejectsDuplicateDomain(t *testing.T) {
	a := validConfig()
	b := validConfig()
	b.ID = "bbc2"
	_, err := NewRegistry([]Config{a, b})
	if err == nil {
		t.Fatal("NewRegistry should reject a second target on the same domain")
	}
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.RootURL = ""
	if _, err := NewRegistry([]Config{cfg}); err == nil {
		t.Fatal("NewRegistry should reject an invalid target config")
	}
}
