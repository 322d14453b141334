package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Source loads the HTML document shown by a tab.
type Source interface {
	// Fetch returns the document body and the URL it was finally loaded from.
	Fetch(ctx context.Context, url string) (body []byte, finalURL string, err error)
}

// DOMExecutor evaluates scripts against HTML parsed from a Source.
type DOMExecutor struct {
	source Source
}

// NewDOMExecutor returns an executor reading documents from source.
func NewDOMExecutor(source Source) *DOMExecutor {
	return &DOMExecutor{source: source}
}

// Execute parses the tab's document and returns the text of the first
// selector in script with non-blank text.
func (d *DOMExecutor) Execute(ctx context.Context, tab Tab, script Script) (*RawPage, error) {
	body, finalURL, err := d.source.Fetch(ctx, tab.URL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, sel := range script.Exclude {
		group, err := cascadia.ParseGroup(sel)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude selector '%s': %w", sel, err)
		}
		for _, n := range cascadia.QueryAll(doc, group) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
		}
	}

	page := &RawPage{Title: documentTitle(doc), URL: finalURL}
	if page.URL == "" {
		page.URL = tab.URL
	}

	for _, sel := range script.Selectors {
		group, err := cascadia.ParseGroup(sel)
		if err != nil {
			return nil, fmt.Errorf("invalid selector '%s': %w", sel, err)
		}
		for _, n := range cascadia.QueryAll(doc, group) {
			if text := textContent(n); strings.TrimSpace(text) != "" {
				page.Text = text
				return page, nil
			}
		}
	}
	return page, nil
}

// documentTitle returns the text of the first <title> element.
func documentTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node) bool
	traverse = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			title = textContent(n)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if traverse(c) {
				return true
			}
		}
		return false
	}
	traverse(doc)
	return title
}

// textContent concatenates the text below n, skipping elements whose text
// is never rendered.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if isSkippedElement(n.Data) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func isSkippedElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

// maxDocumentSize bounds the bytes read from one page.
const maxDocumentSize = 5 << 20

// HTTPSource fetches documents over HTTP.
type HTTPSource struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSource returns a source using client, or a client with timeout
// when client is nil.
func NewHTTPSource(client *http.Client, userAgent string, timeout time.Duration) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPSource{client: client, userAgent: userAgent}
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("failed to load page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read page: %w", err)
	}
	return body, resp.Request.URL.String(), nil
}

// StaticSource serves documents from memory, keyed by URL.
type StaticSource struct {
	mu    sync.RWMutex
	pages map[string]string
}

// NewStaticSource returns a source serving pages.
func NewStaticSource(pages map[string]string) *StaticSource {
	s := &StaticSource{pages: make(map[string]string, len(pages))}
	for url, doc := range pages {
		s.pages[url] = doc
	}
	return s
}

// Put stores or replaces the document for url.
func (s *StaticSource) Put(url, doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = doc
}

func (s *StaticSource) Fetch(_ context.Context, url string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.pages[url]
	if !ok {
		return nil, "", fmt.Errorf("no document for %s", url)
	}
	return []byte(doc), url, nil
}
