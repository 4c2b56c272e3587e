package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"news_spider/internal/config"
	"news_spider/internal/models"
)

var (
	longBody  = strings.Repeat("Приморские новости дня. ", 20)
	shortBody = strings.Repeat("к", 50)
)

func articleHTML(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%[1]s</title></head>
<body>
  <h1>%[1]s</h1>
  <time datetime="2024-05-01T10:00:00+10:00">1 мая</time>
  <div class="article-body"><p>%[2]s</p></div>
</body></html>`, title, body)
}

func listingHTML(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><ul>`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a href="%s">link</a></li>`, h)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// fakeSite serves listing pages at /news/?page=N and articles by path.
type fakeSite struct {
	listings map[string]string
	articles map[string]string
	onHit    func(r *http.Request)
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.onHit != nil {
		s.onHit(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Path == "/news/" {
		body, ok := s.listings[r.URL.Query().Get("page")]
		if !ok {
			body = listingHTML()
		}
		_, _ = w.Write([]byte(body))
		return
	}
	body, ok := s.articles[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func serveSite(t *testing.T, site *fakeSite) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(site)
	t.Cleanup(srv.Close)
	return srv
}

func siteConfig(srv *httptest.Server) *config.SpiderConfig {
	cfg := config.Default()
	cfg.Source.BaseURL = srv.URL
	cfg.Source.ListingURL = srv.URL + "/news/?page=%d"
	cfg.Logic.PageDelayMS = 0
	cfg.Logic.MaxPages = 10
	return cfg
}

// memStore is an in-memory ArticleStore.
type memStore struct {
	mu        sync.Mutex
	articles  map[string]models.Article
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{articles: make(map[string]models.Article)}
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[url]
	return ok, nil
}

func (m *memStore) Insert(_ context.Context, a *models.Article) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", false, m.insertErr
	}
	if _, ok := m.articles[a.URL]; ok {
		return "", false, nil
	}
	a.ID = fmt.Sprintf("id-%d", len(m.articles)+1)
	m.articles[a.URL] = *a
	return a.ID, true, nil
}
