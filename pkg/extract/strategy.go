package extract

import (
	"fmt"

	"github.com/gobwas/glob"
)

// FallbackSelector is tried after every strategy selector.
const FallbackSelector = "body"

// Strategy names the selectors used to find the main content of a page.
type Strategy struct {
	Name string

	// Patterns are URL globs; a strategy without patterns only applies
	// as the registry default.
	Patterns []string

	// Selectors are CSS selector groups tried in order. The text of the
	// first matching element with non-blank text wins.
	Selectors []string
}

// Builtin strategies.
var (
	GitHubStrategy = Strategy{
		Name:     "github",
		Patterns: []string{"*://github.com/*", "*://www.github.com/*"},
		Selectors: []string{
			"#readme",
			".blob-wrapper, .Box-body",
			".js-comment-container",
		},
	}

	DefaultStrategy = Strategy{
		Name: "default",
		Selectors: []string{
			"article, main",
			".content, #content, .article, #article",
		},
	}
)

// Script is the read-only selector chain an Executor evaluates in a page.
type Script struct {
	// Selectors are tried in order; FallbackSelector is always last.
	Selectors []string

	// Exclude lists selectors whose elements are dropped before text is
	// collected.
	Exclude []string
}

// ScriptFor builds the script for s, trying include ahead of the
// strategy's own selectors.
func ScriptFor(s Strategy, include, exclude []string) Script {
	selectors := make([]string, 0, len(include)+len(s.Selectors)+1)
	selectors = append(selectors, include...)
	selectors = append(selectors, s.Selectors...)
	selectors = append(selectors, FallbackSelector)
	return Script{Selectors: selectors, Exclude: exclude}
}

type siteStrategy struct {
	strategy Strategy
	matchers []glob.Glob
}

// Registry picks the strategy for a URL. Site strategies are matched in
// registration order; the default applies when none matches.
type Registry struct {
	fallback Strategy
	sites    []siteStrategy
}

// NewRegistry compiles the URL patterns of sites.
func NewRegistry(fallback Strategy, sites ...Strategy) (*Registry, error) {
	r := &Registry{fallback: fallback}
	seen := map[string]bool{fallback.Name: true}

	for _, s := range sites {
		if s.Name == "" {
			return nil, fmt.Errorf("strategy name is required")
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate strategy %q", s.Name)
		}
		if len(s.Patterns) == 0 {
			return nil, fmt.Errorf("strategy %q has no URL patterns", s.Name)
		}
		seen[s.Name] = true

		site := siteStrategy{strategy: s}
		for _, pattern := range s.Patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern '%s' for strategy %q: %w", pattern, s.Name, err)
			}
			site.matchers = append(site.matchers, g)
		}
		r.sites = append(r.sites, site)
	}
	return r, nil
}

// DefaultRegistry returns the builtin github and default strategies.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultStrategy, GitHubStrategy)
	if err != nil {
		panic(err)
	}
	return r
}

// Match returns the first site strategy whose pattern matches url, or the
// default strategy.
func (r *Registry) Match(url string) Strategy {
	for _, site := range r.sites {
		for _, m := range site.matchers {
			if m.Match(url) {
				return site.strategy
			}
		}
	}
	return r.fallback
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Strategy, bool) {
	if name == r.fallback.Name {
		return r.fallback, true
	}
	for _, site := range r.sites {
		if site.strategy.Name == name {
			return site.strategy, true
		}
	}
	return Strategy{}, false
}

// Names lists the registered strategies, site strategies first.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sites)+1)
	for _, site := range r.sites {
		names = append(names, site.strategy.Name)
	}
	return append(names, r.fallback.Name)
}
