package browser

import (
	"fmt"

	"github.com/entrhq/pagechat/pkg/extract"
)

// extractionScript reads the page without mutating it: excluded elements
// are removed from a detached clone of the document.
const extractionScript = `({ selectors, exclude }) => {
  const skipped = 'script, style, noscript, template';
  const root = document.documentElement.cloneNode(true);
  for (const sel of exclude) {
    root.querySelectorAll(sel).forEach((n) => n.remove());
  }
  const page = { title: document.title || '', text: '', url: window.location.href };
  for (const sel of selectors) {
    for (const el of root.querySelectorAll(sel)) {
      el.querySelectorAll(skipped).forEach((n) => n.remove());
      const text = el.textContent || '';
      if (text.trim()) {
        page.text = text;
        return page;
      }
    }
  }
  return page;
}`

func scriptArg(script extract.Script) map[string]interface{} {
	selectors := script.Selectors
	if selectors == nil {
		selectors = []string{}
	}
	exclude := script.Exclude
	if exclude == nil {
		exclude = []string{}
	}
	return map[string]interface{}{
		"selectors": selectors,
		"exclude":   exclude,
	}
}

// decodeRawPage converts the value returned by page.Evaluate. A nil value
// means the script produced nothing.
func decodeRawPage(v interface{}) (*extract.RawPage, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected script result of type %T", v)
	}

	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return &extract.RawPage{
		Title: str("title"),
		Text:  str("text"),
		URL:   str("url"),
	}, nil
}
