package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/pkg/cache"
	applogger "PriceBoard/pkg/logger"
)

// SnapshotSink receives snapshots freshly fetched from upstream.
type SnapshotSink interface {
	Process(ctx context.Context, s *models.Snapshot) error
}

// ChartUseCase serves merged prediction series and chart windows.
//
// Reads go store -> cache -> upstream. The store holds merged snapshots for
// this process, the cache holds the raw upstream payload (shared between
// replicas when it is Redis backed).
type ChartUseCase struct {
	source  drepo.PredictionSource
	cache   drepo.Cache
	store   *SnapshotStore
	sink    SnapshotSink
	metrics drepo.Metrics
	log     *applogger.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewChartUseCase creates a ChartUseCase. sink may be nil.
func NewChartUseCase(
	source drepo.PredictionSource,
	c drepo.Cache,
	store *SnapshotStore,
	sink SnapshotSink,
	metrics drepo.Metrics,
	log *applogger.Logger,
	ttl time.Duration,
) *ChartUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &ChartUseCase{
		source:  source,
		cache:   c,
		store:   store,
		sink:    sink,
		metrics: metrics,
		log:     log,
		ttl:     ttl,
		now:     time.Now,
	}
}

// PredictionCacheKey is the cache key for the raw upstream payload of key.
func PredictionCacheKey(key models.SeriesKey) string {
	return cache.GenerateKey("prediction", key.String())
}

// Store exposes the snapshot store for subscribers.
func (u *ChartUseCase) Store() *SnapshotStore { return u.store }

// Snapshot returns the current snapshot for key, loading it if missing or stale.
func (u *ChartUseCase) Snapshot(ctx context.Context, key models.SeriesKey) (*models.Snapshot, error) {
	if snap, ok := u.store.Get(key); ok && u.fresh(snap) {
		return snap, nil
	}
	return u.load(ctx, key, false)
}

// Refresh drops cached data for key and refetches it from upstream.
func (u *ChartUseCase) Refresh(ctx context.Context, key models.SeriesKey) (*models.Snapshot, error) {
	if err := u.cache.Delete(ctx, PredictionCacheKey(key)); err != nil {
		u.log.Warn("prediction cache delete failed", applogger.String("key", key.String()), applogger.Error(err))
	}
	return u.load(ctx, key, true)
}

// Window returns the chart window for key. A nil offset means the most recent window.
func (u *ChartUseCase) Window(ctx context.Context, key models.SeriesKey, r chart.ViewRange, offset *int) (chart.Window, error) {
	snap, err := u.Snapshot(ctx, key)
	if err != nil {
		return chart.Window{}, err
	}
	vp := chart.NewViewport(snap.Len()).SelectRange(r)
	if offset != nil {
		vp = vp.WithOffset(*offset)
	}
	return vp.Window(snap.Merged), nil
}

// Scroll applies one scroll input of delta to the window at offset.
func (u *ChartUseCase) Scroll(ctx context.Context, key models.SeriesKey, r chart.ViewRange, offset int, delta float64) (chart.Window, error) {
	snap, err := u.Snapshot(ctx, key)
	if err != nil {
		return chart.Window{}, err
	}
	vp := chart.NewViewport(snap.Len()).SelectRange(r).WithOffset(offset).Scroll(delta)
	return vp.Window(snap.Merged), nil
}

func (u *ChartUseCase) fresh(snap *models.Snapshot) bool {
	return u.ttl <= 0 || u.now().Sub(snap.FetchedAt) < u.ttl
}

func (u *ChartUseCase) load(ctx context.Context, key models.SeriesKey, bypassCache bool) (*models.Snapshot, error) {
	seq := u.store.NextSeq()
	start := u.now()

	set, fromUpstream, err := u.fetch(ctx, key, bypassCache)
	if err != nil {
		// serve what we have rather than fail the request
		if snap, ok := u.store.Get(key); ok && !bypassCache {
			u.log.Warn("serving stale snapshot", applogger.String("key", key.String()), applogger.Error(err))
			return snap, nil
		}
		return nil, err
	}

	report := chart.MergeSeriesReport(set.Series14, set.Series7)
	snap := &models.Snapshot{
		Commodity: key.Commodity,
		Dev:       key.Dev,
		Seq:       seq,
		FetchedAt: u.now(),
		Raw:       set,
		Merged:    report.Points,
		Dropped:   report.Dropped,
	}
	u.metrics.RecordLatency("load_snapshot", u.now().Sub(start).Seconds())
	if fromUpstream {
		u.metrics.RecordDropped(string(key.Commodity), report.Dropped)
		u.recordLastPrices(snap)
	}

	if !u.store.Put(snap) {
		u.log.Debug("discarded stale snapshot",
			applogger.String("key", key.String()),
			applogger.Uint64("seq", seq),
		)
		if cur, ok := u.store.Get(key); ok {
			return cur, nil
		}
		return snap, nil
	}

	if report.Dropped > 0 {
		u.log.Warn("dropped rows with unparsable dates",
			applogger.String("key", key.String()),
			applogger.Int("dropped", report.Dropped),
		)
	}
	if fromUpstream && u.sink != nil {
		if err := u.sink.Process(ctx, snap); err != nil {
			u.log.Warn("archive snapshot failed", applogger.String("key", key.String()), applogger.Error(err))
		}
	}
	return snap, nil
}

func (u *ChartUseCase) fetch(ctx context.Context, key models.SeriesKey, bypassCache bool) (models.PredictionSet, bool, error) {
	ck := PredictionCacheKey(key)
	if !bypassCache {
		var set models.PredictionSet
		err := u.cache.Get(ctx, ck, &set)
		switch {
		case err == nil:
			u.metrics.RecordCache("prediction", true)
			return set, false, nil
		case errors.Is(err, cache.ErrCacheMiss):
			u.metrics.RecordCache("prediction", false)
		default:
			u.metrics.RecordError("cache_get")
			u.log.Warn("prediction cache read failed", applogger.String("key", ck), applogger.Error(err))
		}
	}

	set, err := u.source.FetchPredictions(ctx, key)
	if err != nil {
		u.metrics.RecordFetch(string(key.Commodity), "error")
		u.metrics.RecordError("upstream_fetch")
		u.log.Error("prediction fetch failed", applogger.String("key", key.String()), applogger.Error(err))
		return models.PredictionSet{}, false, fmt.Errorf("fetch %s: %w", key, err)
	}
	u.metrics.RecordFetch(string(key.Commodity), "ok")

	if err := u.cache.Set(ctx, ck, set, u.ttl); err != nil {
		u.metrics.RecordError("cache_set")
		u.log.Warn("prediction cache write failed", applogger.String("key", ck), applogger.Error(err))
	}
	return set, true, nil
}

func (u *ChartUseCase) recordLastPrices(snap *models.Snapshot) {
	commodity := string(snap.Commodity)
	var actual, p14, p7 *float64
	for i := len(snap.Merged) - 1; i >= 0 && (actual == nil || p14 == nil || p7 == nil); i-- {
		pt := snap.Merged[i]
		if actual == nil && pt.ActualPrice != nil {
			actual = pt.ActualPrice
		}
		if p14 == nil && pt.PredictedPrice14 != nil {
			p14 = pt.PredictedPrice14
		}
		if p7 == nil && pt.PredictedPrice7 != nil {
			p7 = pt.PredictedPrice7
		}
	}
	if actual != nil {
		u.metrics.RecordLastPrice(commodity, "actual", *actual)
	}
	if p14 != nil {
		u.metrics.RecordLastPrice(commodity, "predicted_14d", *p14)
	}
	if p7 != nil {
		u.metrics.RecordLastPrice(commodity, "predicted_7d", *p7)
	}
}
