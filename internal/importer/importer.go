// Package importer turns HTML pages into encyclopedia entries.
//
// The main content of a page is isolated by:
//  1. Removing noise elements (nav, footer, scripts, images, etc.)
//  2. Picking the best container (<main>, <article>, or <body>)
//  3. Converting what is left to Markdown
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "encyclopedia-importer/1.0"
	// MaxPageSize caps how much of a response body is read.
	MaxPageSize = 5 << 20
)

// ErrNoTitle is returned when a page has neither an <h1> nor a <title>.
var ErrNoTitle = errors.New("page has no title")

// noiseSelectors are removed before extraction.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// Page is an imported document ready to become an entry.
type Page struct {
	Title  string
	Body   string // Markdown, without the title heading
	Source string
}

// Importer fetches and converts HTML pages.
type Importer struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient replaces the client used by Fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Importer) { i.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// New creates an Importer.
func New(opts ...Option) *Importer {
	i := &Importer{client: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Load reads src, which is either an http(s) URL or a local file path.
func (i *Importer) Load(ctx context.Context, src string) (Page, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return i.Fetch(ctx, src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return Page{}, fmt.Errorf("reading %s: %w", src, err)
	}
	page, err := Parse(string(data))
	page.Source = src
	return page, err
}

// Fetch retrieves url and converts it.
func (i *Importer) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := i.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return Page{}, fmt.Errorf("reading response body: %w", err)
	}
	if i.logger != nil {
		i.logger.Debug("fetched page", "url", url, "bytes", len(body))
	}

	page, err := Parse(string(body))
	page.Source = url
	return page, err
}

// Parse extracts the title and main content of an HTML document.
// The title comes from the first <h1> of the content, falling back to
// <title>; the heading it came from is dropped from the body. A page without
// either is still converted and returned alongside ErrNoTitle.
func Parse(html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parsing HTML: %w", err)
	}

	docTitle := strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return Page{}, fmt.Errorf("no content container found in HTML")
	}

	title := docTitle
	if h1 := content.Find("h1").First(); h1.Length() > 0 {
		if text := collapseSpace(h1.Text()); text != "" {
			title = text
			h1.Remove()
		}
	}
	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return Page{}, fmt.Errorf("serializing content: %w", err)
	}
	body, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return Page{}, fmt.Errorf("converting HTML to markdown: %w", err)
	}

	page := Page{Title: title, Body: strings.TrimSpace(body)}
	if title == "" {
		return page, ErrNoTitle
	}
	return page, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
