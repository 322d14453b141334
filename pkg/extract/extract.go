// Package extract turns the page shown in a tab into bounded plain text
// that can be sent to a model as context.
//
// Extraction never returns an error: every failure is reported through
// Result so callers can show the message as is.
package extract

import (
	"context"
	"fmt"

	"github.com/entrhq/pagechat/pkg/logging"
)

// DefaultMaxLength bounds extracted content, in runes.
const DefaultMaxLength = 4000

// Failure messages reported in Result.Error.
const (
	ErrMsgNoURL         = "No tab URL provided"
	ErrMsgNoTabID       = "No tab ID"
	ErrMsgExtractFailed = "Failed to extract content from page"
	ErrMsgUnknown       = "Unknown error"
)

// Tab identifies a browsing context. ID 0 means the tab has no
// identifiable id.
type Tab struct {
	ID  int
	URL string
}

// PageContent is the cleaned, bounded content of a page.
type PageContent struct {
	Title   string
	Content string
	URL     string
}

// Result reports the outcome of an extraction. Content is set only when
// Success is true; Error only when it is false.
type Result struct {
	Success bool
	Content *PageContent
	Error   string
}

func failure(msg string) Result {
	return Result{Error: msg}
}

// RawPage is what an Executor reads from a page before cleaning.
type RawPage struct {
	Title string
	Text  string
	URL   string
}

// Executor runs a read-only Script in the page shown by a tab. A nil page
// with a nil error means the script produced no result.
type Executor interface {
	Execute(ctx context.Context, tab Tab, script Script) (*RawPage, error)
}

// Options tunes a single extraction.
type Options struct {
	// MaxLength overrides DefaultMaxLength when positive.
	MaxLength int

	// Strategy forces a registered strategy by name instead of URL matching.
	Strategy string

	// Include selectors are tried before the strategy's own.
	Include []string

	// Exclude selectors remove elements before text is collected.
	Exclude []string
}

// Extractor reads page content through an Executor.
type Extractor struct {
	executor Executor
	registry *Registry
	logger   *logging.Logger
}

// NewExtractor returns an extractor. A nil registry uses DefaultRegistry.
func NewExtractor(executor Executor, registry *Registry, logger *logging.Logger) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Extractor{executor: executor, registry: registry, logger: logger}
}

// Registry returns the strategies the extractor chooses from.
func (e *Extractor) Registry() *Registry {
	return e.registry
}

// Extract reads the page shown in tab. It never panics; a panicking
// executor is reported as a failed extraction.
func (e *Extractor) Extract(ctx context.Context, tab Tab, opts Options) (result Result) {
	if tab.URL == "" {
		return failure(ErrMsgNoURL)
	}
	if tab.ID == 0 {
		return failure(ErrMsgNoTabID)
	}

	strategy := e.registry.Match(tab.URL)
	if opts.Strategy != "" {
		forced, ok := e.registry.Lookup(opts.Strategy)
		if !ok {
			return failure(fmt.Sprintf("Unknown extraction strategy: %s", opts.Strategy))
		}
		strategy = forced
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("extraction panicked for %s: %v", tab.URL, r)
			result = failure(ErrMsgExtractFailed)
		}
	}()

	e.logger.Debugf("extracting tab %d (%s) with strategy %s", tab.ID, tab.URL, strategy.Name)

	page, err := e.executor.Execute(ctx, tab, ScriptFor(strategy, opts.Include, opts.Exclude))
	if err != nil {
		e.logger.Warnf("extraction failed for %s: %v", tab.URL, err)
		msg := err.Error()
		if msg == "" {
			msg = ErrMsgUnknown
		}
		return failure(msg)
	}
	if page == nil {
		return failure(ErrMsgExtractFailed)
	}

	content := Clean(page.Text)
	if content == "" {
		return failure(ErrMsgExtractFailed)
	}

	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	url := page.URL
	if url == "" {
		url = tab.URL
	}

	return Result{
		Success: true,
		Content: &PageContent{
			Title:   Clean(page.Title),
			Content: Truncate(content, maxLength),
			URL:     url,
		},
	}
}
