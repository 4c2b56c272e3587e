package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// SourceConfig describes the archive being crawled.
type SourceConfig struct {
	Name          string `yaml:"name"`
	BaseURL       string `yaml:"base_url"`
	ListingURL    string `yaml:"listing_url"`
	ArticlePrefix string `yaml:"article_prefix"`
}

type DBConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	Connection string `yaml:"connection"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type LogicConfig struct {
	Concurrency         int    `yaml:"concurrency"`
	MaxPages            int    `yaml:"max_pages"`
	StopAfterPages      int    `yaml:"stop_after_pages"`
	PageDelayMS         int    `yaml:"page_delay_ms"`
	RequestTimeoutSec   int    `yaml:"request_timeout_sec"`
	SessionTimeoutSec   int    `yaml:"session_timeout_sec"`
	MinBodyLength       int    `yaml:"min_body_length"`
	MaxConns            int    `yaml:"max_conns"`
	MaxConnsPerHost     int    `yaml:"max_conns_per_host"`
	ReadabilityFallback bool   `yaml:"readability_fallback"`
	UserAgent           string `yaml:"user_agent"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type SpiderConfig struct {
	DB     DBConfig     `yaml:"db"`
	Logic  LogicConfig  `yaml:"logic"`
	Source SourceConfig `yaml:"source"`
	Log    LogConfig    `yaml:"log"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the configuration used when no file is present.
func Default() *SpiderConfig {
	return &SpiderConfig{
		DB: DBConfig{
			Driver:     DriverSQLite,
			Path:       "primamedia.db",
			Database:   "news_spider",
			Collection: "articles",
		},
		Logic: LogicConfig{
			Concurrency:         5,
			MaxPages:            300,
			StopAfterPages:      3,
			PageDelayMS:         2000,
			RequestTimeoutSec:   15,
			SessionTimeoutSec:   30,
			MinBodyLength:       300,
			MaxConns:            100,
			MaxConnsPerHost:     30,
			ReadabilityFallback: false,
			UserAgent:           defaultUserAgent,
		},
		Source: SourceConfig{
			Name:          "primamedia",
			BaseURL:       "https://primamedia.ru",
			ListingURL:    "https://primamedia.ru/news/?page=%d",
			ArticlePrefix: "/news/",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// LoadConfig reads path on top of Default. A missing file yields the defaults.
func LoadConfig(path string) (*SpiderConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SpiderConfig) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.DB.Path) == "" {
			return fmt.Errorf("%w: db.path is required for sqlite", ErrInvalidConfig)
		}
	case DriverMongo:
		if c.DB.Connection == "" || c.DB.Database == "" || c.DB.Collection == "" {
			return fmt.Errorf("%w: db.connection, db.database and db.collection are required for mongo", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown db.driver %q", ErrInvalidConfig, c.DB.Driver)
	}
	if c.Logic.Concurrency <= 0 {
		return fmt.Errorf("%w: logic.concurrency must be positive", ErrInvalidConfig)
	}
	if c.Logic.MaxPages <= 0 {
		return fmt.Errorf("%w: logic.max_pages must be positive", ErrInvalidConfig)
	}
	if c.Logic.StopAfterPages < 0 || c.Logic.PageDelayMS < 0 || c.Logic.MinBodyLength < 0 {
		return fmt.Errorf("%w: logic values must not be negative", ErrInvalidConfig)
	}
	if c.Logic.RequestTimeoutSec <= 0 || c.Logic.SessionTimeoutSec <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if !strings.Contains(c.Source.ListingURL, "%d") {
		return fmt.Errorf("%w: source.listing_url needs a %%d page placeholder", ErrInvalidConfig)
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("%w: source.base_url is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Source.ArticlePrefix, "/") || !strings.HasSuffix(c.Source.ArticlePrefix, "/") {
		return fmt.Errorf("%w: source.article_prefix must start and end with /", ErrInvalidConfig)
	}
	return nil
}

func (l LogicConfig) PageDelay() time.Duration {
	return time.Duration(l.PageDelayMS) * time.Millisecond
}

func (l LogicConfig) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutSec) * time.Second
}

func (l LogicConfig) SessionTimeout() time.Duration {
	return time.Duration(l.SessionTimeoutSec) * time.Second
}

// PageURL renders the listing URL for a 1-based page number.
func (s SourceConfig) PageURL(page int) string {
	return fmt.Sprintf(s.ListingURL, page)
}
