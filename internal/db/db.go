// Package db holds the article store backends.
package db

import (
	"context"
	"fmt"

	"news_spider/internal/config"
	"news_spider/internal/logger"
	"news_spider/internal/models"
)

// Store is implemented by every backend.
type Store interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, a *models.Article) (id string, inserted bool, err error)
	Stats(ctx context.Context) (models.Stats, error)
	Location() string
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)

// Open creates the schema if needed and returns the configured backend.
func Open(ctx context.Context, cfg config.DBConfig, log logger.Interface) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path, log)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: unknown db driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}
