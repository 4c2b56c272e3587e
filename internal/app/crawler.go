package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"news_spider/internal/config"
	"news_spider/internal/logger"
	"news_spider/internal/models"
	urlqueue "news_spider/internal/url_queue"
)

type LinkSource interface {
	Collect(ctx context.Context, pageURL string) []string
}

type ArticleSource interface {
	Fetch(ctx context.Context, articleURL string) (models.Outcome, error)
}

type URLChecker interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// PageResult summarises one listing page.
type PageResult struct {
	Page       int
	Links      int
	Dispatched int
	Saved      int
}

// Crawler walks listing pages in order and fans out article fetches per page.
// The seen set and running total are only touched from the Crawl goroutine.
type Crawler struct {
	links    LinkSource
	articles ArticleSource
	store    URLChecker
	seen     *urlqueue.SeenSet

	source    config.SourceConfig
	maxPages  int
	stopAfter int
	delay     time.Duration

	log logger.Interface
}

func NewCrawler(cfg *config.SpiderConfig, links LinkSource, articles ArticleSource, store URLChecker, log logger.Interface) *Crawler {
	return &Crawler{
		links:     links,
		articles:  articles,
		store:     store,
		seen:      urlqueue.NewSeenSet(),
		source:    cfg.Source,
		maxPages:  cfg.Logic.MaxPages,
		stopAfter: cfg.Logic.StopAfterPages,
		delay:     cfg.Logic.PageDelay(),
		log:       log.With("component", "crawler"),
	}
}

// Crawl returns the number of articles saved during this run. A storage
// fault ends the run once the current page's fetches have settled.
func (c *Crawler) Crawl(ctx context.Context) (int, error) {
	c.log.Info("crawl started", "source", c.source.Name, "max_pages", c.maxPages)

	total := 0
	for page := 1; page <= c.maxPages; page++ {
		if ctx.Err() != nil {
			c.log.Warn("crawl interrupted", "page", page)
			break
		}

		res, err := c.processPage(ctx, page)
		total += res.Saved
		if err != nil {
			return total, err
		}
		c.log.Info("page done", "page", page, "links", res.Links, "dispatched", res.Dispatched, "saved", res.Saved)

		if res.Saved == 0 && page > c.stopAfter {
			c.log.Info("no new articles on page, stopping", "page", page)
			break
		}
		if page < c.maxPages && !c.sleep(ctx) {
			c.log.Warn("crawl interrupted", "page", page)
			break
		}
	}

	c.log.Info("crawl finished", "saved", total)
	return total, nil
}

func (c *Crawler) processPage(ctx context.Context, page int) (PageResult, error) {
	res := PageResult{Page: page}
	pageURL := c.source.PageURL(page)
	c.log.Info("listing page", "page", page, "url", pageURL)

	paths := c.links.Collect(ctx, pageURL)
	res.Links = len(paths)
	if len(paths) == 0 {
		return res, nil
	}

	var targets []string
	for _, path := range paths {
		articleURL, err := urlqueue.Resolve(c.source.BaseURL, path)
		if err != nil {
			c.log.Warn("unresolvable article path", "path", path, "error", err)
			continue
		}
		if c.seen.Contains(articleURL) {
			continue
		}
		exists, err := c.store.Exists(ctx, articleURL)
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}
		c.seen.Add(articleURL)
		targets = append(targets, articleURL)
	}
	res.Dispatched = len(targets)

	outcomes, errs := c.fetchAll(ctx, targets)
	for _, o := range outcomes {
		if o == models.OutcomeSaved {
			res.Saved++
		}
	}
	return res, errors.Join(errs...)
}

// fetchAll runs one goroutine per URL and waits for all of them. A failing
// or panicking fetch does not affect its siblings.
func (c *Crawler) fetchAll(ctx context.Context, urls []string) ([]models.Outcome, []error) {
	outcomes := make([]models.Outcome, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("article fetch panicked", "url", u, "panic", fmt.Sprint(r))
					outcomes[i] = models.OutcomeFailed
				}
			}()
			outcomes[i], errs[i] = c.articles.Fetch(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return outcomes, errs
}

func (c *Crawler) sleep(ctx context.Context) bool {
	if c.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
