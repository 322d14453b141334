package cli

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/entrhq/pagechat/pkg/extract"
)

// URLTabs tracks pages opened by URL when no browser is attached. The
// extractor fetches each page itself.
type URLTabs struct {
	mu     sync.Mutex
	nextID int
	active extract.Tab
}

// NewURLTabs returns an empty tab list.
func NewURLTabs() *URLTabs {
	return &URLTabs{nextID: 1}
}

// Open records rawURL as a new active tab.
func (t *URLTabs) Open(_ context.Context, rawURL string) (extract.Tab, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return extract.Tab{}, fmt.Errorf("invalid URL: %s", rawURL)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = extract.Tab{ID: t.nextID, URL: u.String()}
	t.nextID++
	return t.active, nil
}

// Active returns the most recently opened tab.
func (t *URLTabs) Active() (extract.Tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.active.ID != 0
}
