package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly"
	"golang.org/x/sync/semaphore"

	"news_spider/internal/config"
	"news_spider/internal/logger"
	urlqueue "news_spider/internal/url_queue"
)

// LinkCollector pulls article paths off one archive listing page.
type LinkCollector struct {
	base     *colly.Collector
	sem      *semaphore.Weighted
	matcher  *urlqueue.ArticleMatcher
	selector string
	log      logger.Interface
}

func NewLinkCollector(cfg *config.SpiderConfig, transport http.RoundTripper, sem *semaphore.Weighted, log logger.Interface) *LinkCollector {
	c := colly.NewCollector(
		colly.UserAgent(cfg.Logic.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(transport)
	c.DisableCookies()
	c.SetRequestTimeout(cfg.Logic.RequestTimeout())

	return &LinkCollector{
		base:     c,
		sem:      sem,
		matcher:  urlqueue.NewArticleMatcher(cfg.Source.ArticlePrefix),
		selector: fmt.Sprintf(`a[href*=%q]`, cfg.Source.ArticlePrefix),
		log:      log.With("component", "collector"),
	}
}

// Collect returns the unique article paths on pageURL in page order.
// Error pages and transport failures yield an empty result.
func (lc *LinkCollector) Collect(ctx context.Context, pageURL string) []string {
	if err := lc.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer lc.sem.Release(1)

	var (
		hrefs  []string
		status int
	)
	c := lc.base.Clone()
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnHTML(lc.selector, func(e *colly.HTMLElement) {
		hrefs = append(hrefs, e.Attr("href"))
	})

	if err := c.Visit(pageURL); err != nil {
		lc.log.Warn("listing page fetch failed", "url", pageURL, "error", err)
		return nil
	}
	if status < 200 || status >= 300 {
		lc.log.Warn("listing page returned non-2xx", "url", pageURL, "status", status)
		return nil
	}

	paths := lc.matcher.Paths(hrefs)
	lc.log.Debug("listing page collected", "url", pageURL, "anchors", len(hrefs), "articles", len(paths))
	return paths
}
