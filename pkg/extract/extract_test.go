package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	page    *RawPage
	err     error
	panics  bool
	scripts []Script
}

func (s *stubExecutor) Execute(_ context.Context, _ Tab, script Script) (*RawPage, error) {
	s.scripts = append(s.scripts, script)
	if s.panics {
		panic("page crashed")
	}
	return s.page, s.err
}

func TestExtract_TabValidation(t *testing.T) {
	exec := &stubExecutor{page: &RawPage{Text: "text"}}
	ex := NewExtractor(exec, nil, nil)

	res := ex.Extract(context.Background(), Tab{ID: 1}, Options{})
	assert.Equal(t, Result{Error: "No tab URL provided"}, res)

	res = ex.Extract(context.Background(), Tab{URL: "https://example.com/"}, Options{})
	assert.Equal(t, Result{Error: "No tab ID"}, res)

	assert.Empty(t, exec.scripts)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name string
		exec *stubExecutor
		want string
	}{
		{name: "executor error", exec: &stubExecutor{err: errors.New("Cannot access contents of the page")}, want: "Cannot access contents of the page"},
		{name: "executor error without message", exec: &stubExecutor{err: errors.New("")}, want: "Unknown error"},
		{name: "no result", exec: &stubExecutor{}, want: "Failed to extract content from page"},
		{name: "empty body", exec: &stubExecutor{page: &RawPage{Title: "Empty", Text: " \n\t "}}, want: "Failed to extract content from page"},
		{name: "panic", exec: &stubExecutor{panics: true}, want: "Failed to extract content from page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExtractor(tt.exec, nil, nil).Extract(context.Background(), Tab{ID: 7, URL: "https://example.com/"}, Options{})
			assert.False(t, res.Success)
			assert.Nil(t, res.Content)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestExtract_CleansAndBounds(t *testing.T) {
	t.Run("exactly max length is unchanged", func(t *testing.T) {
		text := strings.Repeat("é", DefaultMaxLength)
		res := NewExtractor(&stubExecutor{page: &RawPage{Text: text}}, nil, nil).
			Extract(context.Background(), Tab{ID: 1, URL: "https://example.com/"}, Options{})
		require.True(t, res.Success)
		assert.Equal(t, text, res.Content.Content)
	})

	t.Run("one over is truncated with marker", func(t *testing.T) {
		text := strings.Repeat("a", DefaultMaxLength+1)
		res := NewExtractor(&stubExecutor{page: &RawPage{Text: text}}, nil, nil).
			Extract(context.Background(), Tab{ID: 1, URL: "https://example.com/"}, Options{})
		require.True(t, res.Success)
		assert.Equal(t, strings.Repeat("a", DefaultMaxLength)+"...", res.Content.Content)
	})

	t.Run("whitespace collapsed and url defaulted", func(t *testing.T) {
		page := &RawPage{Title: "  My\n Page ", Text: "\n\n  Hello \n\n\n   world\t!  "}
		res := NewExtractor(&stubExecutor{page: page}, nil, nil).
			Extract(context.Background(), Tab{ID: 1, URL: "https://example.com/a"}, Options{MaxLength: 8})
		require.True(t, res.Success)
		assert.Equal(t, &PageContent{Title: "My Page", Content: "Hello wo...", URL: "https://example.com/a"}, res.Content)
	})
}

func TestExtract_StrategySelection(t *testing.T) {
	exec := &stubExecutor{page: &RawPage{Text: "x"}}
	ex := NewExtractor(exec, nil, nil)

	ex.Extract(context.Background(), Tab{ID: 1, URL: "https://github.com/golang/go"}, Options{})
	ex.Extract(context.Background(), Tab{ID: 1, URL: "https://go.dev/doc/"}, Options{})
	ex.Extract(context.Background(), Tab{ID: 1, URL: "https://github.com/golang/go"}, Options{
		Strategy: "default",
		Include:  []string{".markdown-body"},
		Exclude:  []string{"nav"},
	})

	require.Len(t, exec.scripts, 3)
	assert.Equal(t, []string{"#readme", ".blob-wrapper, .Box-body", ".js-comment-container", "body"}, exec.scripts[0].Selectors)
	assert.Equal(t, []string{"article, main", ".content, #content, .article, #article", "body"}, exec.scripts[1].Selectors)
	assert.Equal(t, Script{
		Selectors: []string{".markdown-body", "article, main", ".content, #content, .article, #article", "body"},
		Exclude:   []string{"nav"},
	}, exec.scripts[2])

	res := ex.Extract(context.Background(), Tab{ID: 1, URL: "https://go.dev/"}, Options{Strategy: "wiki"})
	assert.Equal(t, "Unknown extraction strategy: wiki", res.Error)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{url: "https://github.com/golang/go", want: "github"},
		{url: "http://www.github.com/owner/repo/issues/1", want: "github"},
		{url: "https://gist.github.com/someone", want: "default"},
		{url: "https://github.com.evil.example/", want: "default"},
		{url: "https://example.com/github.com/", want: "default"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Match(tt.url).Name)
		})
	}

	assert.Equal(t, []string{"github", "default"}, r.Names())

	_, err := NewRegistry(DefaultStrategy, Strategy{Name: "bad", Patterns: []string{"[unclosed"}})
	assert.Error(t, err)
	_, err = NewRegistry(DefaultStrategy, Strategy{Name: "default", Patterns: []string{"*"}})
	assert.Error(t, err)
	_, err = NewRegistry(DefaultStrategy, Strategy{Name: "nopatterns"})
	assert.Error(t, err)
}

func TestTruncateAndClean(t *testing.T) {
	assert.Equal(t, "", Truncate("", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "日本...", Truncate("日本語", 2))
	assert.Equal(t, "...", Truncate("x", 0))

	assert.Equal(t, "a b c", Clean("  a\n\n b \t\r\n c  "))
	assert.Equal(t, "", Clean("\n \n"))
}

const githubRepoPage = `<!DOCTYPE html>
<html><head><title>
  golang/go: The Go programming language
</title><style>.x{color:red}</style></head>
<body>
  <nav>Skip to content Sign in</nav>
  <div class="Box-body">file listing</div>
  <div id="readme"><article><h1>The Go Programming Language</h1>
  <script>window.track()</script>
  <p>Go is an open source programming language.</p></article></div>
</body></html>`

const blogPage = `<html><head><title>Blog</title></head><body>
<header>Site header</header>
<main>   </main>
<div class="content"></div>
<div id="content"><p>First post</p><aside class="ad">Buy now</aside><p>Second paragraph</p></div>
</body></html>`

func TestDOMExecutor(t *testing.T) {
	source := NewStaticSource(map[string]string{
		"https://github.com/golang/go": githubRepoPage,
		"https://blog.example/":        blogPage,
		"https://bare.example/":        `<html><body><p>Only   body</p><noscript>enable js</noscript></body></html>`,
	})
	ex := NewExtractor(NewDOMExecutor(source), nil, nil)

	t.Run("github readme", func(t *testing.T) {
		res := ex.Extract(context.Background(), Tab{ID: 1, URL: "https://github.com/golang/go"}, Options{})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "golang/go: The Go programming language", res.Content.Title)
		assert.Equal(t, "The Go Programming Language Go is an open source programming language.", res.Content.Content)
	})

	t.Run("skips blank matches and honours exclude", func(t *testing.T) {
		res := ex.Extract(context.Background(), Tab{ID: 2, URL: "https://blog.example/"}, Options{Exclude: []string{".ad"}})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "First postSecond paragraph", res.Content.Content)
		assert.Equal(t, "Blog", res.Content.Title)
	})

	t.Run("falls back to body", func(t *testing.T) {
		res := ex.Extract(context.Background(), Tab{ID: 3, URL: "https://bare.example/"}, Options{})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "Only body", res.Content.Content)
		assert.Equal(t, "", res.Content.Title)
	})

	t.Run("missing document", func(t *testing.T) {
		res := ex.Extract(context.Background(), Tab{ID: 4, URL: "https://missing.example/"}, Options{})
		assert.Equal(t, "no document for https://missing.example/", res.Error)
	})

	t.Run("invalid selector", func(t *testing.T) {
		res := ex.Extract(context.Background(), Tab{ID: 5, URL: "https://bare.example/"}, Options{Include: []string{"p[["}})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "invalid selector")
	})
}

func TestHTTPSource(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/article", http.StatusFound)
		case "/article":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>Article</title></head><body><article>Served text</article></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ex := NewExtractor(NewDOMExecutor(NewHTTPSource(server.Client(), "pagechat-test", 0)), nil, nil)

	res := ex.Extract(context.Background(), Tab{ID: 1, URL: server.URL + "/old"}, Options{})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Served text", res.Content.Content)
	assert.Equal(t, server.URL+"/article", res.Content.URL)
	assert.Equal(t, "pagechat-test", gotUA)

	res = ex.Extract(context.Background(), Tab{ID: 1, URL: server.URL + "/gone"}, Options{})
	assert.Equal(t, "failed to load page: status 404", res.Error)
}
