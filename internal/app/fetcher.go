package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/semaphore"

	"news_spider/internal/config"
	"news_spider/internal/logger"
	"news_spider/internal/models"
	"news_spider/internal/textclean"
)

const (
	untitled            = "Без заголовка"
	primaryParagraphCap = 30
	fallbackParagraphs  = 25
	maxPageBytes        = 10 << 20

	primarySelector = `div[class*="article"] p, div[class*="text"] p, article p`
	dateSelector    = `time, .date, .published, .news-date, .entry-date`
)

var fallbackSelectors = []string{
	".entry-content p",
	".article-content p",
	".news-text p",
	".content p",
}

// ArticleStore is the slice of the store the crawl needs.
type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, a *models.Article) (id string, inserted bool, err error)
}

// ArticleFetcher downloads, extracts and persists a single article.
type ArticleFetcher struct {
	client         *http.Client
	sem            *semaphore.Weighted
	store          ArticleStore
	userAgent      string
	requestTimeout time.Duration
	minBodyLength  int
	readability    bool
	log            logger.Interface
}

func NewArticleFetcher(cfg *config.SpiderConfig, client *http.Client, sem *semaphore.Weighted, store ArticleStore, log logger.Interface) *ArticleFetcher {
	return &ArticleFetcher{
		client:         client,
		sem:            sem,
		store:          store,
		userAgent:      cfg.Logic.UserAgent,
		requestTimeout: cfg.Logic.RequestTimeout(),
		minBodyLength:  cfg.Logic.MinBodyLength,
		readability:    cfg.Logic.ReadabilityFallback,
		log:            log.With("component", "fetcher"),
	}
}

// Fetch reports what happened to articleURL. Fetch and extraction problems
// are folded into the outcome; only a storage fault is returned as an error.
func (f *ArticleFetcher) Fetch(ctx context.Context, articleURL string) (models.Outcome, error) {
	f.log.Info("parsing article", "url", articleURL)

	body, status, err := f.fetchURL(ctx, articleURL)
	if err != nil {
		f.log.Error("article fetch failed", "url", articleURL, "error", err)
		return models.OutcomeFailed, nil
	}
	if status < 200 || status >= 300 {
		f.log.Warn("article returned non-2xx", "url", articleURL, "status", status)
		return models.OutcomeSkipped, nil
	}

	article, err := ExtractArticle(body, articleURL, f.readability)
	if err != nil {
		f.log.Error("article extraction failed", "url", articleURL, "error", err)
		return models.OutcomeFailed, nil
	}

	length := textclean.Length(article.Description)
	f.log.Info("article text extracted", "url", articleURL, "length", length)
	if length < f.minBodyLength {
		return models.OutcomeSkipped, nil
	}

	_, inserted, err := f.store.Insert(ctx, article)
	if err != nil {
		return models.OutcomeFailed, err
	}
	if !inserted {
		f.log.Info("article already stored", "url", articleURL)
		return models.OutcomeDuplicate, nil
	}
	f.log.Info("article saved", "title", textclean.Truncate(article.Title, 70), "length", length)
	return models.OutcomeSaved, nil
}

// fetchURL holds a limiter slot only for the network round trip.
func (f *ArticleFetcher) fetchURL(ctx context.Context, urlStr string) ([]byte, int, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, 0, err
	}
	defer f.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return nil, resp.StatusCode, nil
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = resp.Body
	}
	body, err := io.ReadAll(io.LimitReader(utf8Reader, maxPageBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// ExtractArticle parses an article page. The description is normalized but
// not length-checked.
func ExtractArticle(body []byte, pageURL string, useReadability bool) (*models.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	parts := paragraphs(doc.Find(primarySelector), primaryParagraphCap)
	if len(parts) == 0 {
		for _, sel := range fallbackSelectors {
			if parts = paragraphs(doc.Find(sel), fallbackParagraphs); len(parts) > 0 {
				break
			}
		}
	}
	if len(parts) == 0 && useReadability {
		parts = readabilityParagraphs(body, pageURL)
	}

	return &models.Article{
		Title:       textclean.Truncate(extractTitle(doc), models.MaxTitleLength),
		Description: textclean.Normalize(strings.Join(parts, "\n\n")),
		URL:         pageURL,
		PublishedAt: extractPublishedAt(doc),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return untitled
}

func extractPublishedAt(doc *goquery.Document) *string {
	datetime, ok := doc.Find(dateSelector).First().Attr("datetime")
	if !ok {
		return nil
	}
	return &datetime
}

func paragraphs(sel *goquery.Selection, limit int) []string {
	parts := make([]string, 0, min(sel.Length(), limit))
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		parts = append(parts, strings.TrimSpace(s.Text()))
		return true
	})
	return parts
}

// readabilityParagraphs is the last resort for layouts none of the selectors know.
func readabilityParagraphs(body []byte, pageURL string) []string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil
	}
	if parts := paragraphs(doc.Find("p"), fallbackParagraphs); len(parts) > 0 {
		return parts
	}
	if text := strings.TrimSpace(doc.Text()); text != "" {
		return []string{text}
	}
	return nil
}
