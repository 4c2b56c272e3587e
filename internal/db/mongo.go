package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news_spider/internal/config"
	"news_spider/internal/logger"
	"news_spider/internal/models"
	"news_spider/internal/textclean"
)

// MongoStore is the alternate article backend. Uniqueness of url is enforced
// by a unique index, so a duplicate insert surfaces as a duplicate key error.
type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
	location string
	log      logger.Interface
}

func OpenMongo(ctx context.Context, cfg config.DBConfig, log logger.Interface) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client:   client,
		articles: client.Database(cfg.Database).Collection(cfg.Collection),
		location: cfg.Database + "." + cfg.Collection,
		log:      log,
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("article store ready", "driver", "mongo", "collection", s.location)
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at_utc", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("can't create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, url string) (bool, error) {
	n, err := s.articles.CountDocuments(ctx, bson.M{"url": url}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check url %s: %w", url, err)
	}
	return n > 0, nil
}

func (s *MongoStore) Insert(ctx context.Context, a *models.Article) (string, bool, error) {
	doc := *a
	doc.ID = uuid.NewString()
	doc.Title = textclean.Truncate(a.Title, models.MaxTitleLength)
	doc.CreatedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.articles.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("insert article %s: %w", a.URL, err)
	}
	a.ID = doc.ID
	a.CreatedAtUTC = doc.CreatedAtUTC
	return doc.ID, true, nil
}

func (s *MongoStore) Stats(ctx context.Context) (models.Stats, error) {
	cursor, err := s.articles.Aggregate(ctx, statsPipeline())
	if err != nil {
		return models.Stats{}, fmt.Errorf("article stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return models.Stats{}, fmt.Errorf("article stats: %w", err)
	}
	if len(results) == 0 {
		return models.Stats{}, nil
	}
	return statsFromDoc(results[0]), nil
}

func statsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_len", Value: bson.D{{Key: "$avg", Value: bson.D{{Key: "$strLenCP", Value: "$description"}}}}},
		}}},
	}
}

func statsFromDoc(doc bson.M) models.Stats {
	return models.Stats{
		Count:                int(toFloat(doc["total"])),
		AvgDescriptionLength: int(toFloat(doc["avg_len"])),
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func (s *MongoStore) Location() string { return s.location }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
