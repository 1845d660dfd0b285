package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/internal/news"
	"PriceBoard/pkg/cache"
	applogger "PriceBoard/pkg/logger"
)

const newsCacheKey = "news:all"

// NewsUseCase pages the upstream news list, cached for ttl.
type NewsUseCase struct {
	source  drepo.PredictionSource
	cache   drepo.Cache
	metrics drepo.Metrics
	log     *applogger.Logger
	perPage int
	ttl     time.Duration
}

// NewNewsUseCase creates a NewsUseCase.
func NewNewsUseCase(source drepo.PredictionSource, c drepo.Cache, metrics drepo.Metrics, log *applogger.Logger, perPage int, ttl time.Duration) *NewsUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	if perPage <= 0 {
		perPage = news.DefaultPerPage
	}
	return &NewsUseCase{source: source, cache: c, metrics: metrics, log: log, perPage: perPage, ttl: ttl}
}

// Page returns one page of headlines; out-of-range pages are clamped.
func (u *NewsUseCase) Page(ctx context.Context, page int) (news.Page, error) {
	items, err := u.items(ctx)
	if err != nil {
		return news.Page{}, err
	}
	return news.Paginate(items, page, u.perPage), nil
}

// Invalidate drops the cached list.
func (u *NewsUseCase) Invalidate(ctx context.Context) error {
	return u.cache.Delete(ctx, newsCacheKey)
}

func (u *NewsUseCase) items(ctx context.Context) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := u.cache.Get(ctx, newsCacheKey, &items)
	switch {
	case err == nil:
		u.metrics.RecordCache("news", true)
		return items, nil
	case errors.Is(err, cache.ErrCacheMiss):
		u.metrics.RecordCache("news", false)
	default:
		u.metrics.RecordError("cache_get")
		u.log.Warn("news cache read failed", applogger.Error(err))
	}

	items, err = u.source.FetchNews(ctx)
	if err != nil {
		u.metrics.RecordError("upstream_news")
		u.log.Error("news fetch failed", applogger.Error(err))
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	if err := u.cache.Set(ctx, newsCacheKey, items, u.ttl); err != nil {
		u.metrics.RecordError("cache_set")
		u.log.Warn("news cache write failed", applogger.Error(err))
	}
	return items, nil
}
