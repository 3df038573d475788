// Package target holds the per-site configuration and HTML parser
// (spec.md §4.2): a read-only Registry of Parsers, keyed by root
// domain, each able to sample body text (to decide the auto-render
// path) and extract the outgoing-link frontier via CSS selectors.
// Selector matching is adapted from the original Python parser.py's
// BeautifulSoup(html).select(...), generalized to goquery (grounded
// in the corpus's own goquery dependency — see DESIGN.md).
package target

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

// RenderPolicy is the closed tri-value set from spec.md §3/§9:
// unknown values must be rejected at config load time.
type RenderPolicy string

const (
	RenderAuto   RenderPolicy = "auto"
	RenderAlways RenderPolicy = "always"
	RenderNever  RenderPolicy = "never"
)

const defaultHrefSelector = "a[href]"

// Config is one target's immutable site configuration, spec.md §3.
type Config struct {
	ID           string
	Name         string
	RootURL      string
	DomainOnly   bool
	Render       RenderPolicy
	TextSelector string
	HrefSelector string
	Country      string
	Alignment    string
}

// Validate rejects an incomplete config or an unknown render policy.
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("target: id is required")
	}
	if c.RootURL == "" {
		return fmt.Errorf("target %q: root_url is required", c.ID)
	}
	switch c.Render {
	case RenderAuto, RenderAlways, RenderNever:
	default:
		return fmt.Errorf("target %q: unknown render policy %q", c.ID, c.Render)
	}
	return nil
}

func (c Config) hrefSelector() string {
	if c.HrefSelector == "" {
		return defaultHrefSelector
	}
	return c.HrefSelector
}

// Hrefs is the result of Parser.ExtractHrefs: the retained, absolute
// hrefs plus a count of elements skipped for having no (or an empty)
// href attribute — never fatal, per spec.md §4.2. Hrefs dropped by the
// domain_only filter are not counted.
type Hrefs struct {
	Hrefs     []string
	Malformed int
}

// Parser wraps one target's Config with the registered (www-stripped)
// domain it was registered under, so domain_only filtering agrees with
// how Registry.Lookup keys targets. Relative hrefs are resolved against
// the configured RootURL, not the www-stripped domain.
type Parser struct {
	cfg        Config
	rootDomain string
}

// New builds a Parser for a single, already-validated Config.
func New(cfg Config) *Parser {
	return &Parser{
		cfg:        cfg,
		rootDomain: registeredDomain(urlutil.DomainOf(cfg.RootURL)),
	}
}

// Config returns the target configuration this parser was built from.
func (p *Parser) Config() Config {
	return p.cfg
}

// ExtractText applies the target's text_selector and joins the
// stripped text of every matched element with single spaces. An empty
// selector or a document with no matches yields "". Used only to
// decide the fetch worker's auto-render path (spec.md §4.2).
func (p *Parser) ExtractText(html string) string {
	if p.cfg.TextSelector == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var parts []string
	doc.Find(p.cfg.TextSelector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// ExtractHrefs applies the target's href_selector (defaulting to
// "a[href]") and returns the retained hrefs resolved to absolute URLs
// against the target's root, per spec.md §4.2. An href with a missing
// or empty attribute is skipped and counted as malformed. When
// DomainOnly is set, an href is kept only if its own domain (before
// being made absolute, matching the original parser.py semantics)
// matches the target's registered root domain — so a domain_only
// target only follows fully-qualified same-site links, not
// site-relative ones.
func (p *Parser) ExtractHrefs(html string) Hrefs {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Hrefs{Malformed: 0}
	}

	var out Hrefs
	doc.Find(p.cfg.hrefSelector()).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			out.Malformed++
			return
		}
		if p.cfg.DomainOnly {
			hrefDomain := registeredDomain(urlutil.DomainOf(href))
			if hrefDomain != p.rootDomain {
				return
			}
		}
		out.Hrefs = append(out.Hrefs, urlutil.Absolute(p.cfg.RootURL, href))
	})
	return out
}

// Registry is a read-only, built-once-at-startup map of root domain
// to Parser, mirroring the teacher's load-once site.Config pattern but
// keyed for O(1) domain lookup across many targets instead of one.
type Registry struct {
	byDomain map[string]*Parser
}

// NewRegistry validates and builds a Registry from a target list.
// Every target's root domain must be unique; a blank or unparsable
// root_url is an error.
func NewRegistry(cfgs []Config) (*Registry, error) {
	reg := &Registry{byDomain: make(map[string]*Parser, len(cfgs))}
	for _, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		domain := registeredDomain(urlutil.DomainOf(cfg.RootURL))
		if domain == "" {
			return nil, fmt.Errorf("target %q: root_url %q has no domain", cfg.ID, cfg.RootURL)
		}
		if _, dup := reg.byDomain[domain]; dup {
			return nil, fmt.Errorf("target %q: domain %q already registered", cfg.ID, domain)
		}
		reg.byDomain[domain] = New(cfg)
	}
	return reg, nil
}

// Lookup returns the Parser registered for domain, or nil if none
// matches. The domain is registered-domain-normalized the same way as
// at registration time, so "www.bbc.com" and "bbc.com" resolve to the
// same entry.
func (r *Registry) Lookup(domain string) *Parser {
	return r.byDomain[registeredDomain(domain)]
}

// Len reports the number of registered targets.
func (r *Registry) Len() int {
	return len(r.byDomain)
}

// registeredDomain strips a leading "www." the same way the teacher's
// Crawler.isLocal compares hostnames, so a target registered against
// "www.example.com" matches requests for "example.com" and vice versa.
func registeredDomain(domain string) string {
	return strings.TrimPrefix(domain, "www.")
}
