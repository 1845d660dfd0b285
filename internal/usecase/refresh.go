package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceBoard/internal/domain/models"
	"PriceBoard/pkg/cache"
	applogger "PriceBoard/pkg/logger"
)

const refreshLockKey = "lock:refresh"

// RefreshJob refetches every commodity. With a shared cache only one replica
// runs a given round; the others see the lock and skip.
type RefreshJob struct {
	chart   *ChartUseCase
	news    *NewsUseCase
	locker  cache.Service
	log     *applogger.Logger
	dev     bool
	lockTTL time.Duration
}

// NewRefreshJob creates a RefreshJob. When dev is set the dev-model series are refreshed too.
func NewRefreshJob(chart *ChartUseCase, news *NewsUseCase, locker cache.Service, log *applogger.Logger, dev bool) *RefreshJob {
	if log == nil {
		log = applogger.Nop()
	}
	return &RefreshJob{chart: chart, news: news, locker: locker, log: log, dev: dev, lockTTL: time.Minute}
}

// Keys lists the series a round refreshes.
func (j *RefreshJob) Keys() []models.SeriesKey {
	keys := make([]models.SeriesKey, 0, 2*len(models.Commodities))
	for _, c := range models.Commodities {
		keys = append(keys, models.SeriesKey{Commodity: c.Value})
		if j.dev {
			keys = append(keys, models.SeriesKey{Commodity: c.Value, Dev: true})
		}
	}
	return keys
}

// Run refreshes all series. A failed commodity does not stop the others; the
// returned error joins every failure.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx, refreshLockKey, j.lockTTL)
		if err != nil {
			return fmt.Errorf("refresh lock: %w", err)
		}
		if !ok {
			j.log.Debug("refresh already running elsewhere")
			return nil
		}
		defer func() {
			if err := j.locker.Unlock(context.Background(), refreshLockKey); err != nil {
				j.log.Warn("refresh unlock failed", applogger.Error(err))
			}
		}()
	}

	start := time.Now()
	var errs []error
	refreshed := 0
	for _, key := range j.Keys() {
		if _, err := j.chart.Refresh(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		refreshed++
	}
	if j.news != nil {
		if err := j.news.Invalidate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("invalidate news: %w", err))
		}
	}

	j.log.Info("refresh round finished",
		applogger.Int("refreshed", refreshed),
		applogger.Int("failed", len(errs)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return errors.Join(errs...)
}

// RefreshKey refreshes a single series.
func (j *RefreshJob) RefreshKey(ctx context.Context, key models.SeriesKey) error {
	_, err := j.chart.Refresh(ctx, key)
	return err
}
