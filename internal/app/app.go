package app

import (
	"context"
	"fmt"
	"net/http"

	"news_spider/internal/config"
	"news_spider/internal/db"
	"news_spider/internal/logger"
	"news_spider/internal/models"
)

// Store is what SpiderApp needs from a backend.
type Store interface {
	ArticleStore
	Stats(ctx context.Context) (models.Stats, error)
	Location() string
	Close() error
}

type SpiderApp struct {
	config  *config.SpiderConfig
	store   Store
	crawler *Crawler
	log     logger.Interface
}

// Summary is reported once the crawl ends.
type Summary struct {
	Saved    int
	Stats    models.Stats
	Location string
}

// NewSpiderApp opens the configured store and wires the crawl pipeline.
func NewSpiderApp(ctx context.Context, cfg *config.SpiderConfig, log logger.Interface) (*SpiderApp, error) {
	store, err := db.Open(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	return NewSpiderAppWithStore(cfg, store, newTransport(cfg.Logic), log), nil
}

// NewSpiderAppWithStore wires the pipeline around an existing store and transport.
func NewSpiderAppWithStore(cfg *config.SpiderConfig, store Store, transport http.RoundTripper, log logger.Interface) *SpiderApp {
	sem := newLimiter(cfg.Logic)
	links := NewLinkCollector(cfg, transport, sem, log)
	articles := NewArticleFetcher(cfg, newHTTPClient(transport, cfg.Logic), sem, store, log)

	return &SpiderApp{
		config:  cfg,
		store:   store,
		crawler: NewCrawler(cfg, links, articles, store, log),
		log:     log,
	}
}

func (s *SpiderApp) Run(ctx context.Context) (Summary, error) {
	s.log.Info("starting spider",
		"source", s.config.Source.Name,
		"store", s.store.Location(),
		"concurrency", s.config.Logic.Concurrency,
		"page_delay", s.config.Logic.PageDelay(),
	)

	saved, err := s.crawler.Crawl(ctx)
	if err != nil {
		return Summary{Saved: saved}, fmt.Errorf("crawl: %w", err)
	}

	// An interrupted crawl still reports.
	stats, err := s.store.Stats(context.WithoutCancel(ctx))
	if err != nil {
		return Summary{Saved: saved}, err
	}
	return Summary{Saved: saved, Stats: stats, Location: s.store.Location()}, nil
}

func (s *SpiderApp) Close() error {
	return s.store.Close()
}
