package urlqueue

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// SeenSet records URLs dispatched during one crawl run.
type SeenSet struct {
	urls map[string]bool
	mu   sync.Mutex
}

func NewSeenSet() *SeenSet {
	return &SeenSet{urls: make(map[string]bool)}
}

// Add reports whether urlStr was new.
func (s *SeenSet) Add(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.urls[urlStr] {
		return false
	}
	s.urls[urlStr] = true
	return true
}

func (s *SeenSet) Contains(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[urlStr]
}

func (s *SeenSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// ArticleMatcher recognises article links of the form <prefix><digits>/.
type ArticleMatcher struct {
	prefix string
	shape  *regexp.Regexp
}

func NewArticleMatcher(prefix string) *ArticleMatcher {
	return &ArticleMatcher{
		prefix: prefix,
		shape:  regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d+/$`),
	}
}

// Path reduces href to a host-less, query-less path and reports whether
// it has the article shape. Fragments are kept, so anchored links do not match.
func (m *ArticleMatcher) Path(href string) (string, bool) {
	if !strings.Contains(href, m.prefix) {
		return "", false
	}
	path := StripHost(href)
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	if !m.shape.MatchString(path) {
		return "", false
	}
	return path, true
}

// Paths filters hrefs down to unique article paths in first-seen order.
func (m *ArticleMatcher) Paths(hrefs []string) []string {
	paths := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if p, ok := m.Path(href); ok {
			paths = append(paths, p)
		}
	}
	return Dedup(paths)
}

// StripHost turns an absolute URL into its path part; other values pass through.
func StripHost(href string) string {
	if !strings.HasPrefix(href, "http") {
		return href
	}
	_, rest, found := strings.Cut(href, "://")
	if !found {
		return href
	}
	_, path, found := strings.Cut(rest, "/")
	if !found {
		return "/"
	}
	return "/" + path
}

func Dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// Resolve joins an article path onto the site base URL.
func Resolve(base, path string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
