package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/pkg/cache"
)

func dailySet(n int) models.PredictionSet {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var set models.PredictionSet
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		set.Series14 = append(set.Series14, models.RawPrice{Date: d, ActualPrice: p(float64(100 + i)), PredictedPrice: p(float64(101 + i))})
		set.Series7 = append(set.Series7, models.RawPrice{Date: d, PredictedPrice: p(float64(102 + i))})
	}
	return set
}

func newChartFixture(t *testing.T) (*ChartUseCase, *fakeSource, *recordingSink) {
	t.Helper()
	src := newFakeSource()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	sink := &recordingSink{}
	uc := NewChartUseCase(src, mc, NewSnapshotStore(), sink, nopMetrics{}, nil, time.Minute)
	return uc, src, sink
}

func TestSnapshotMergesAndCaches(t *testing.T) {
	uc, src, sink := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Corn}
	src.sets[key] = dailySet(3)

	snap, err := uc.Snapshot(context.Background(), key)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Len() != 3 {
		t.Fatalf("len = %d, want 3", snap.Len())
	}
	if pt := snap.Merged[0]; *pt.ActualPrice != 100 || *pt.PredictedPrice14 != 101 || *pt.PredictedPrice7 != 102 {
		t.Fatalf("unexpected merged point %+v", pt)
	}

	if _, err := uc.Snapshot(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if n := src.callsFor(key); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
	if sink.count() != 1 {
		t.Fatalf("archived %d snapshots, want 1", sink.count())
	}
}

func TestSnapshotStaleStoreReadsCache(t *testing.T) {
	uc, src, sink := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Rice}
	src.sets[key] = dailySet(2)

	now := time.Now()
	uc.now = func() time.Time { return now }
	if _, err := uc.Snapshot(context.Background(), key); err != nil {
		t.Fatal(err)
	}

	// past the store TTL the raw payload is still in cache
	uc.store.Invalidate(key)
	if _, err := uc.Snapshot(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if n := src.callsFor(key); n != 1 {
		t.Fatalf("upstream calls = %d, want 1 (cache hit)", n)
	}
	if sink.count() != 1 {
		t.Fatalf("cache hits must not be archived again, got %d", sink.count())
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	uc, src, sink := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Wheat, Dev: true}
	src.sets[key] = dailySet(2)

	first, err := uc.Snapshot(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	src.sets[key] = dailySet(5)
	second, err := uc.Refresh(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if second.Len() != 5 || second.Seq <= first.Seq {
		t.Fatalf("refresh did not replace snapshot: len=%d seq %d -> %d", second.Len(), first.Seq, second.Seq)
	}
	if src.callsFor(key) != 2 || sink.count() != 2 {
		t.Fatalf("calls=%d archived=%d, want 2 and 2", src.callsFor(key), sink.count())
	}
}

func TestSnapshotUpstreamError(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	src.err = errUpstream

	_, err := uc.Snapshot(context.Background(), models.SeriesKey{Commodity: models.Coffee})
	if !errors.Is(err, drepo.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSnapshotServesStaleOnUpstreamError(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Soybean}
	src.sets[key] = dailySet(4)

	now := time.Now()
	uc.now = func() time.Time { return now }
	if _, err := uc.Snapshot(context.Background(), key); err != nil {
		t.Fatal(err)
	}

	// expire store and cache, then break upstream
	now = now.Add(time.Hour)
	_ = uc.cache.Delete(context.Background(), PredictionCacheKey(key))
	src.err = errUpstream

	snap, err := uc.Snapshot(context.Background(), key)
	if err != nil {
		t.Fatalf("expected stale snapshot, got %v", err)
	}
	if snap.Len() != 4 {
		t.Fatalf("len = %d, want 4", snap.Len())
	}
	if _, err := uc.Refresh(context.Background(), key); err == nil {
		t.Fatal("refresh must surface the upstream error")
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	uc, _, sink := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Coffee}

	older := uc.store.NextSeq()
	newer := uc.store.NextSeq()
	if !uc.store.Put(&models.Snapshot{Commodity: key.Commodity, Seq: newer, Merged: make([]models.PricePoint, 7)}) {
		t.Fatal("newer snapshot rejected")
	}
	if uc.store.Put(&models.Snapshot{Commodity: key.Commodity, Seq: older, Merged: make([]models.PricePoint, 2)}) {
		t.Fatal("older snapshot accepted")
	}
	if snap, _ := uc.store.Get(key); snap.Len() != 7 {
		t.Fatalf("store holds len %d, want 7", snap.Len())
	}
	if sink.count() != 0 {
		t.Fatal("direct store writes must not archive")
	}
}

func TestWindowAndScroll(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Coffee}
	src.sets[key] = dailySet(40)
	ctx := context.Background()

	w, err := uc.Window(ctx, key, chart.Range2W, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.Offset != 26 || w.MaxScrollOffset != 26 || len(w.Points) != 14 {
		t.Fatalf("latest window: offset=%d max=%d len=%d", w.Offset, w.MaxScrollOffset, len(w.Points))
	}

	for _, tc := range []struct{ in, want int }{{100, 26}, {-5, 0}, {10, 10}} {
		off := tc.in
		w, err := uc.Window(ctx, key, chart.Range2W, &off)
		if err != nil {
			t.Fatal(err)
		}
		if w.Offset != tc.want {
			t.Errorf("offset %d -> %d, want %d", tc.in, w.Offset, tc.want)
		}
	}

	w, err = uc.Scroll(ctx, key, chart.Range2W, 10, -120)
	if err != nil {
		t.Fatal(err)
	}
	if w.Offset != 9 {
		t.Fatalf("scroll back: offset %d, want 9", w.Offset)
	}
	w, _ = uc.Scroll(ctx, key, chart.Range2W, 26, 1)
	if w.Offset != 26 {
		t.Fatalf("scroll past end: offset %d, want 26", w.Offset)
	}
}

func TestWindowShortSeriesScrollIsNoop(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Corn}
	src.sets[key] = dailySet(5)

	w, err := uc.Scroll(context.Background(), key, chart.Range1Y, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w.Offset != 0 || w.MaxScrollOffset != 0 || len(w.Points) != 5 {
		t.Fatalf("unexpected window %+v", w)
	}
}

func TestPredictionCacheKey(t *testing.T) {
	got := PredictionCacheKey(models.SeriesKey{Commodity: models.Corn, Dev: true})
	if got != fmt.Sprintf("prediction:%s", "corn:dev") {
		t.Fatalf("got %q", got)
	}
}
