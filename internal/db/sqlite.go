package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"news_spider/internal/logger"
	"news_spider/internal/models"
	"news_spider/internal/textclean"
)

// SQLiteStore keeps articles in a single-file SQLite database. One connection
// is held open, so concurrent callers are serialized by database/sql.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
	log  logger.Interface
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		url TEXT UNIQUE NOT NULL,
		published_at TEXT,
		comments_count INTEGER DEFAULT 0,
		created_at_utc TEXT NOT NULL,
		rating INTEGER DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(url);`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at_utc);`,
}

// uriPathEscaper escapes the characters SQLite's URI parser treats as delimiters.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func sqliteDSN(path string) string {
	return "file:" + uriPathEscaper.Replace(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func OpenSQLite(ctx context.Context, path string, log logger.Interface) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := NewSQLiteStore(conn, path, log)
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info("article store ready", "driver", "sqlite", "path", path)
	return s, nil
}

// NewSQLiteStore wraps an already opened handle without touching the schema.
func NewSQLiteStore(conn *sqlx.DB, path string, log logger.Interface) *SQLiteStore {
	return &SQLiteStore{db: conn, path: path, log: log}
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one, `SELECT COUNT(1) FROM articles WHERE url=?`, url)
	if err != nil {
		return false, fmt.Errorf("check url %s: %w", url, err)
	}
	return one > 0, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, a *models.Article) (string, bool, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO articles
			(id, title, description, url, published_at, comments_count, created_at_utc, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, textclean.Truncate(a.Title, models.MaxTitleLength), a.Description, a.URL,
		a.PublishedAt, a.CommentsCount, createdAt, a.Rating)
	if err != nil {
		return "", false, fmt.Errorf("insert article %s: %w", a.URL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("insert article %s: %w", a.URL, err)
	}
	if n == 0 {
		return "", false, nil
	}
	a.ID = id
	a.CreatedAtUTC = createdAt
	return id, true, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.Stats, error) {
	var row struct {
		Total  int     `db:"total"`
		AvgLen float64 `db:"avg_len"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total, COALESCE(AVG(LENGTH(description)), 0) AS avg_len
		FROM articles
	`)
	if err != nil {
		return models.Stats{}, fmt.Errorf("article stats: %w", err)
	}
	return models.Stats{Count: row.Total, AvgDescriptionLength: int(row.AvgLen)}, nil
}

// Get loads one article by url. Returns nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*models.Article, error) {
	var out []models.Article
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, title, description, url, published_at, comments_count, rating, created_at_utc
		FROM articles WHERE url=?
	`, url)
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", url, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// List returns every stored article ordered by insertion time.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Article, error) {
	var out []models.Article
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, title, description, url, published_at, comments_count, rating, created_at_utc
		FROM articles ORDER BY created_at_utc, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Location() string { return s.path }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
