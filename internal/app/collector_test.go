package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"news_spider/internal/app"
	"news_spider/internal/logger"
)

func newCollector(srv *httptest.Server) *app.LinkCollector {
	cfg := siteConfig(srv)
	return app.NewLinkCollector(cfg, http.DefaultTransport, semaphore.NewWeighted(1), logger.NewNoOp())
}

func TestLinkCollector_FiltersArticleShape(t *testing.T) {
	t.Parallel()

	srv := serveSite(t, &fakeSite{listings: map[string]string{
		"1": listingHTML("/news/123/", "/news/abc/", "/news/123/?ref=1", "/category/news/"),
	}})

	got := newCollector(srv).Collect(context.Background(), srv.URL+"/news/?page=1")
	assert.Equal(t, []string{"/news/123/"}, got)
}

func TestLinkCollector_AbsoluteLinksBecomePaths(t *testing.T) {
	t.Parallel()

	srv := serveSite(t, &fakeSite{listings: map[string]string{
		"1": listingHTML("https://primamedia.ru/news/7/", "/news/8/", "/about/", "https://primamedia.ru/news/7/?utm=tg"),
	}})

	got := newCollector(srv).Collect(context.Background(), srv.URL+"/news/?page=1")
	assert.Equal(t, []string{"/news/7/", "/news/8/"}, got)
}

func TestLinkCollector_ErrorPageYieldsNothing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(listingHTML("/news/1/", "/news/2/")))
	}))
	t.Cleanup(srv.Close)

	got := newCollector(srv).Collect(context.Background(), srv.URL+"/news/?page=1")
	assert.Empty(t, got)
}

func TestLinkCollector_UnreachableHostYieldsNothing(t *testing.T) {
	t.Parallel()

	srv := serveSite(t, &fakeSite{})
	c := newCollector(srv)
	srv.Close()

	assert.Empty(t, c.Collect(context.Background(), srv.URL+"/news/?page=1"))
}

func TestLinkCollector_CanRevisitSamePage(t *testing.T) {
	t.Parallel()

	srv := serveSite(t, &fakeSite{listings: map[string]string{"1": listingHTML("/news/1/")}})
	c := newCollector(srv)

	assert.Equal(t, []string{"/news/1/"}, c.Collect(context.Background(), srv.URL+"/news/?page=1"))
	assert.Equal(t, []string{"/news/1/"}, c.Collect(context.Background(), srv.URL+"/news/?page=1"))
}

func TestLinkCollector_DoesNotSendCookies(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		cookies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cookies = append(cookies, r.Header.Get("Cookie"))
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingHTML("/news/1/")))
	}))
	t.Cleanup(srv.Close)

	c := newCollector(srv)
	c.Collect(context.Background(), srv.URL+"/news/?page=1")
	c.Collect(context.Background(), srv.URL+"/news/?page=2")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, cookies, 2)
	assert.Equal(t, []string{"", ""}, cookies)
}

func TestLinkCollector_TimeoutYieldsNothing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(listingHTML("/news/1/")))
	}))
	t.Cleanup(srv.Close)

	cfg := siteConfig(srv)
	cfg.Logic.RequestTimeoutSec = 1
	c := app.NewLinkCollector(cfg, http.DefaultTransport, semaphore.NewWeighted(1), logger.NewNoOp())

	start := time.Now()
	got := c.Collect(context.Background(), srv.URL+"/news/?page=1")
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 3*time.Second)
}
