package app

import (
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"news_spider/internal/config"
)

// newTransport is shared by the listing collector and the article fetcher.
// Its connection caps sit above the logical limiter so the limiter binds first.
func newTransport(logic config.LogicConfig) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        logic.MaxConns,
		MaxIdleConnsPerHost: logic.MaxConnsPerHost,
		MaxConnsPerHost:     logic.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

func newHTTPClient(transport http.RoundTripper, logic config.LogicConfig) *http.Client {
	return &http.Client{
		Transport: transport,
		Timeout:   logic.SessionTimeout(),
	}
}

// newLimiter bounds in-flight fetches across listing pages and articles.
func newLimiter(logic config.LogicConfig) *semaphore.Weighted {
	return semaphore.NewWeighted(int64(logic.Concurrency))
}
