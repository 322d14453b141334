package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/entrhq/pagechat/pkg/extract"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Default values for tab management.
const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxTabs = 8
)

// ErrNotInitialized is returned when tabs are opened before Initialize.
var ErrNotInitialized = errors.New("browser not initialized")

// Options configures a TabManager.
type Options struct {
	Headless  bool
	Timeout   time.Duration
	MaxTabs   int
	UserAgent string
}

type tab struct {
	id       int
	page     playwright.Page
	openedAt time.Time
}

// TabManager owns a Playwright browser and the tabs opened in it.
type TabManager struct {
	mu         sync.RWMutex
	opts       Options
	logger     *logging.Logger
	playwright *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	tabs       map[int]*tab
	nextID     int
	active     int
}

// NewTabManager creates a manager; call Initialize before opening tabs.
func NewTabManager(opts Options, logger *logging.Logger) *TabManager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTabs <= 0 {
		opts.MaxTabs = DefaultMaxTabs
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &TabManager{
		opts:   opts,
		logger: logger,
		tabs:   make(map[int]*tab),
		nextID: 1,
	}
}

// Initialize installs Playwright and Chromium when missing and launches the
// browser. Calling it again is a no-op.
func (m *TabManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.context != nil {
		return nil
	}

	// Discard driver output so it does not interleave with the REPL.
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := m.opts.Headless
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if m.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(m.opts.UserAgent)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	m.playwright = pw
	m.browser = browser
	m.context = bctx
	m.logger.Infof("chromium launched (headless=%t)", headless)
	return nil
}

// Open loads url in a new tab and makes it the active tab.
func (m *TabManager) Open(ctx context.Context, url string) (extract.Tab, error) {
	if err := ctx.Err(); err != nil {
		return extract.Tab{}, err
	}

	m.mu.Lock()
	if m.context == nil {
		m.mu.Unlock()
		return extract.Tab{}, ErrNotInitialized
	}
	if len(m.tabs) >= m.opts.MaxTabs {
		m.mu.Unlock()
		return extract.Tab{}, fmt.Errorf("maximum number of tabs (%d) reached", m.opts.MaxTabs)
	}
	bctx := m.context
	m.mu.Unlock()

	page, err := bctx.NewPage()
	if err != nil {
		return extract.Tab{}, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(m.opts.Timeout.Milliseconds()))

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		_ = page.Close()
		return extract.Tab{}, fmt.Errorf("navigation failed: %w", err)
	}

	id := m.addTab(page)
	m.logger.Debugf("opened tab %d: %s", id, url)
	return extract.Tab{ID: id, URL: page.URL()}, nil
}

// addTab registers page under a fresh id and activates it.
func (m *TabManager) addTab(page playwright.Page) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.tabs[id] = &tab{id: id, page: page, openedAt: time.Now()}
	m.active = id
	return id
}

// Focus makes the tab with id the active tab.
func (m *TabManager) Focus(id int) (extract.Tab, error) {
	m.mu.Lock()
	t, ok := m.tabs[id]
	if ok {
		m.active = id
	}
	m.mu.Unlock()

	if !ok {
		return extract.Tab{}, fmt.Errorf("tab %d not found", id)
	}
	_ = t.page.BringToFront()
	return extract.Tab{ID: id, URL: t.page.URL()}, nil
}

// Active returns the tab in front. ok is false when no tab is open.
func (m *TabManager) Active() (extract.Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tabs[m.active]
	if !ok {
		return extract.Tab{}, false
	}
	return extract.Tab{ID: t.id, URL: t.page.URL()}, true
}

// Tabs lists open tabs by id.
func (m *TabManager) Tabs() []extract.Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tabs := make([]extract.Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		tabs = append(tabs, extract.Tab{ID: t.id, URL: t.page.URL()})
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	return tabs
}

// Close closes the tab with id. When it was active, the most recently
// opened remaining tab becomes active.
func (m *TabManager) Close(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tabs[id]
	if !ok {
		return fmt.Errorf("tab %d not found", id)
	}
	delete(m.tabs, id)

	if m.active == id {
		m.active = 0
		var newest time.Time
		for _, other := range m.tabs {
			if m.active == 0 || other.openedAt.After(newest) {
				m.active, newest = other.id, other.openedAt
			}
		}
	}

	if err := t.page.Close(); err != nil {
		return fmt.Errorf("failed to close tab %d: %w", id, err)
	}
	return nil
}

// Shutdown closes all tabs and stops Playwright.
func (m *TabManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.tabs {
		_ = t.page.Close()
		delete(m.tabs, id)
	}
	m.active = 0

	if m.context != nil {
		_ = m.context.Close()
		m.context = nil
	}
	if m.browser != nil {
		_ = m.browser.Close()
		m.browser = nil
	}
	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.playwright = nil
	}
	return nil
}

// Execute runs script in the page of tab.
func (m *TabManager) Execute(ctx context.Context, tab extract.Tab, script extract.Script) (*extract.RawPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	t, ok := m.tabs[tab.ID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("No tab with id: %d", tab.ID)
	}

	result, err := t.page.Evaluate(extractionScript, scriptArg(script))
	if err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}
	return decodeRawPage(result)
}
