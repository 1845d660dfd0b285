package repository

import (
	"context"
	"time"

	"PriceBoard/internal/domain/models"
)

// PredictionSource reads prediction series and news from the upstream API.
type PredictionSource interface {
	FetchPredictions(ctx context.Context, key models.SeriesKey) (models.PredictionSet, error)
	FetchNews(ctx context.Context) ([]models.NewsItem, error)
}

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// Publisher ships snapshots to Kafka.
type Publisher interface {
	PublishSnapshot(ctx context.Context, s *models.Snapshot) error
	Close() error
}

// Archive persists merged snapshots for later analysis.
type Archive interface {
	Init(ctx context.Context) error
	StoreSnapshot(ctx context.Context, s *models.Snapshot) error
	History(ctx context.Context, key models.SeriesKey, date string, limit int) ([]models.ArchivedPoint, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordFetch(commodity, result string)
	RecordError(kind string)
	RecordCache(cache string, hit bool)
	RecordLastPrice(commodity, series string, price float64)
	RecordDropped(commodity string, n int)
	RecordArchived(backend, commodity string)
	RecordLatency(op string, seconds float64)
}
