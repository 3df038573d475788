// Package nlp implements the process(html, target_id, url,
// scrape_datetime) collaborator contract named in spec.md §6. It is a
// deterministic, dependency-light stand-in for the original's
// spaCy/zero-shot pipeline (experiments/nlp/parser.py's title/date
// extraction, extractor.py's keyword extraction): capitalized-run
// entity heuristics for keywords, lexical keyword-set matching for
// topics, and a best-effort published-date scrape from the same meta
// tags the original checks.
package nlp

import (
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/TheSnook/debias-crawler/internal/wordstore"
)

// SnippetLength caps the stored snippet length, mirroring the
// original's SNIPPET_LENGTH config constant.
const SnippetLength = 280

// Result is the process() contract's output before it is stamped with
// the fields the process worker already knows (target_id, URL, hash).
type Result struct {
	Title           string
	Snippet         string
	ArticleDatetime *time.Time
	Keywords        []wordstore.Keyword
	Topics          []wordstore.Topic
}

// Processor is the NLP collaborator contract consumed by the process
// worker (C9).
type Processor interface {
	Process(html, targetID, url string, scrapeDatetime time.Time) (Result, error)
}

// HeuristicProcessor is the production Processor. Determinism is not
// required by the contract (spec.md §6); this implementation happens
// to be deterministic because it is pure text heuristics.
type HeuristicProcessor struct {
	Topics map[string][]string // topic label -> lexical trigger words, lowercase
}

// NewHeuristicProcessor returns a HeuristicProcessor seeded with a
// small default topic lexicon. Callers may replace Topics entirely.
func NewHeuristicProcessor() *HeuristicProcessor {
	return &HeuristicProcessor{Topics: defaultTopics()}
}

func defaultTopics() map[string][]string {
	return map[string][]string{
		"politics": {"election", "senate", "congress", "president", "parliament", "minister", "policy"},
		"conflict": {"war", "military", "troops", "invasion", "ceasefire", "airstrike"},
		"economy":  {"inflation", "market", "economy", "trade", "tariff", "recession"},
		"health":   {"vaccine", "hospital", "pandemic", "outbreak", "disease"},
	}
}

// Process extracts a title, snippet, best-effort published date,
// capitalized-run keywords, and lexical topics from html.
func (p *HeuristicProcessor) Process(html, targetID, url string, scrapeDatetime time.Time) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, err
	}

	title := extractTitle(doc)
	content := extractContent(doc)
	snippet := content
	if len(snippet) > SnippetLength {
		snippet = snippet[:SnippetLength] + "..."
	}

	return Result{
		Title:           title,
		Snippet:         snippet,
		ArticleDatetime: extractDate(doc),
		Keywords:        extractKeywords(title, content),
		Topics:          p.classifyTopics(title, content),
	}, nil
}

// extractTitle mirrors parser.py's extract_title: <title> tag first,
// then the first h1 whose class hints at a headline, then any h1.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	headline := doc.Find("h1").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		class = strings.ToLower(class)
		return strings.Contains(class, "headline") || strings.Contains(class, "title")
	}).First()
	if text := strings.TrimSpace(headline.Text()); text != "" {
		return text
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractContent mirrors parser.py's extract_content: prefer <article>
// or <main>, falling back to the document's first 30 paragraphs.
func extractContent(doc *goquery.Document) string {
	scope := doc.Find("article").First()
	if scope.Length() == 0 {
		scope = doc.Find("main").First()
	}
	var paragraphs *goquery.Selection
	if scope.Length() > 0 {
		paragraphs = scope.Find("p")
	} else {
		paragraphs = doc.Find("p")
	}
	var parts []string
	paragraphs.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if scope.Length() == 0 && i >= 30 {
			return false
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	content := strings.Join(parts, " ")
	if len(content) > 3000 {
		content = content[:3000]
	}
	return content
}

// dateMetaTags is the same ordered probe list as the original
// experiments/nlp/parser.py's extract_date.
var dateMetaTags = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[property="og:published_time"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="pubdate"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`time[datetime]`, "datetime"},
}

// dateLayouts are tried in order against each candidate date string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
}

func extractDate(doc *goquery.Document) *time.Time {
	for _, probe := range dateMetaTags {
		sel := doc.Find(probe.selector).First()
		if sel.Length() == 0 {
			continue
		}
		raw, ok := sel.Attr(probe.attr)
		if !ok || raw == "" {
			continue
		}
		if t, ok := parseDate(raw); ok {
			return &t
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractKeywords is a capitalized-run entity heuristic: consecutive
// capitalized words ("New York", "United Nations") become one
// keyword, typed ORG if present in title, else GPE as a conservative
// default. This stands in for spaCy NER, per the NLP contract's
// determinism-not-required clause (spec.md §6).
func extractKeywords(title, content string) []wordstore.Keyword {
	seen := make(map[string]bool)
	var keywords []wordstore.Keyword
	for _, run := range capitalizedRuns(title + " " + content) {
		if len(run) < 3 || seen[run] {
			continue
		}
		seen[run] = true
		kind := "GPE"
		if strings.Contains(title, run) {
			kind = "ORG"
		}
		keywords = append(keywords, wordstore.Keyword{Text: run, Type: kind})
		if len(keywords) >= 20 {
			break
		}
	}
	return keywords
}

func capitalizedRuns(text string) []string {
	var runs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			runs = append(runs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, field := range strings.Fields(text) {
		word := strings.Trim(field, ".,;:!?\"'()")
		if word == "" {
			flush()
			continue
		}
		r := []rune(word)
		if len(r) > 0 && strings.ToUpper(string(r[0])) == string(r[0]) && strings.ToLower(string(r[0])) != string(r[0]) {
			current = append(current, word)
		} else {
			flush()
		}
	}
	flush()
	return runs
}

// classifyTopics matches lowercase trigger words against the combined
// title+content text, in place of the original's zero-shot
// classifier. Every matching topic label is returned as a CATEGORY
// topic, in sorted label order.
func (p *HeuristicProcessor) classifyTopics(title, content string) []wordstore.Topic {
	haystack := strings.ToLower(title + " " + content)
	labels := make([]string, 0, len(p.Topics))
	for label := range p.Topics {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	var topics []wordstore.Topic
	for _, label := range labels {
		for _, trigger := range p.Topics[label] {
			if strings.Contains(haystack, trigger) {
				topics = append(topics, wordstore.Topic{Text: label, Type: "CATEGORY"})
				break
			}
		}
	}
	return topics
}
