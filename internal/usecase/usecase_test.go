package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/pkg/cache"
)

func headlines(n int) []models.NewsItem {
	out := make([]models.NewsItem, n)
	for i := range out {
		out[i] = models.NewsItem{Title: fmt.Sprintf("headline %d", i+1)}
	}
	return out
}

func TestNewsPageCachesList(t *testing.T) {
	src := newFakeSource()
	src.news = headlines(12)
	mc := cache.NewMemoryCache()
	defer mc.Close()
	uc := NewNewsUseCase(src, mc, nopMetrics{}, nil, 5, time.Minute)

	pg, err := uc.Page(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if pg.Page != 3 || pg.TotalPages != 3 || len(pg.Items) != 2 || pg.Items[0].Title != "headline 11" {
		t.Fatalf("unexpected page %+v", pg)
	}

	pg, err = uc.Page(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if pg.Page != 3 {
		t.Fatalf("page not clamped: %d", pg.Page)
	}
	if src.newsHits != 1 {
		t.Fatalf("news fetched %d times, want 1", src.newsHits)
	}

	if err := uc.Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Page(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if src.newsHits != 2 {
		t.Fatalf("news fetched %d times after invalidate, want 2", src.newsHits)
	}
}

func TestNewsPageUpstreamError(t *testing.T) {
	src := newFakeSource()
	src.err = errUpstream
	mc := cache.NewMemoryCache()
	defer mc.Close()

	_, err := NewNewsUseCase(src, mc, nopMetrics{}, nil, 0, time.Minute).Page(context.Background(), 1)
	if !errors.Is(err, drepo.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRefreshJobRefreshesEveryCommodity(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	mc := cache.NewMemoryCache()
	defer mc.Close()

	job := NewRefreshJob(uc, nil, mc, nil, true)
	if got := len(job.Keys()); got != 2*len(models.Commodities) {
		t.Fatalf("keys = %d, want %d", got, 2*len(models.Commodities))
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, key := range job.Keys() {
		if src.callsFor(key) != 1 {
			t.Errorf("%s fetched %d times", key, src.callsFor(key))
		}
	}
	if ok, _ := mc.Exists(context.Background(), refreshLockKey); ok {
		t.Fatal("refresh lock not released")
	}
}

func TestRefreshJobSkipsWhenLocked(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	mc := cache.NewMemoryCache()
	defer mc.Close()
	_, _ = mc.TryLock(context.Background(), refreshLockKey, time.Minute)

	if err := NewRefreshJob(uc, nil, mc, nil, false).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := src.callsFor(models.SeriesKey{Commodity: models.Coffee}); n != 0 {
		t.Fatalf("locked round fetched %d times", n)
	}
}

func TestRefreshJobJoinsErrors(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	src.err = errUpstream

	err := NewRefreshJob(uc, nil, nil, nil, false).Run(context.Background())
	if !errors.Is(err, drepo.ErrUpstream) {
		t.Fatalf("expected joined upstream errors, got %v", err)
	}
	for _, c := range models.Commodities {
		if src.callsFor(models.SeriesKey{Commodity: c.Value}) != 1 {
			t.Fatalf("%s not attempted after an earlier failure", c.Value)
		}
	}
}

func TestArchiveProcessorRoutes(t *testing.T) {
	snap := &models.Snapshot{Commodity: models.Rice}
	pub, arch := &fakePublisher{}, &fakeArchive{}

	cases := []struct {
		backend   string
		published int
		stored    int
		wantErr   bool
	}{
		{BackendNone, 0, 0, false},
		{"", 0, 0, false},
		{BackendKafka, 1, 0, false},
		{BackendClickHouse, 0, 1, false},
		{"s3", 0, 0, true},
	}
	for _, tc := range cases {
		pub.published, arch.stored = nil, nil
		err := NewArchiveProcessor(pub, arch, nopMetrics{}, tc.backend).Process(context.Background(), snap)
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: err = %v", tc.backend, err)
		}
		if len(pub.published) != tc.published || len(arch.stored) != tc.stored {
			t.Errorf("%q: published=%d stored=%d", tc.backend, len(pub.published), len(arch.stored))
		}
	}

	p := NewArchiveProcessor(pub, arch, nopMetrics{}, BackendKafka)
	p.Close()
	if !pub.closed || !arch.closed {
		t.Fatal("close did not reach both backends")
	}
}

func TestArchiveProcessorMissingBackend(t *testing.T) {
	err := NewArchiveProcessor(nil, nil, nopMetrics{}, BackendKafka).Process(context.Background(), &models.Snapshot{})
	if err == nil {
		t.Fatal("expected error for kafka backend without publisher")
	}
}

func TestPredictionUpdatedHandler(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	h := NewPredictionUpdatedHandler("prediction.updated", uc, nopMetrics{}, nil)
	if h.Topic() != "prediction.updated" {
		t.Fatalf("topic = %s", h.Topic())
	}

	key := models.SeriesKey{Commodity: models.Corn, Dev: true}
	src.sets[key] = dailySet(3)
	if err := h.Handle(context.Background(), []byte(`{"commodity":"corn","dev":true}`)); err != nil {
		t.Fatal(err)
	}
	if snap, ok := uc.store.Get(key); !ok || snap.Len() != 3 {
		t.Fatal("notification did not load the series")
	}

	// malformed and unknown payloads are acknowledged, not retried
	for _, payload := range []string{`{bad`, `{"commodity":"cocoa"}`} {
		if err := h.Handle(context.Background(), []byte(payload)); err != nil {
			t.Fatalf("%s: %v", payload, err)
		}
	}

	src.err = errUpstream
	if err := h.Handle(context.Background(), []byte(`{"commodity":"corn"}`)); err == nil {
		t.Fatal("refresh failure must be returned for retry")
	}
}

func TestSnapshotStoreSubscribers(t *testing.T) {
	s := NewSnapshotStore()
	var got atomic.Int32
	cancel := s.Subscribe(func(*models.Snapshot) { got.Add(1) })

	s.Put(&models.Snapshot{Commodity: models.Coffee, Seq: s.NextSeq()})
	if s.Put(&models.Snapshot{Commodity: models.Coffee, Seq: 0}) {
		t.Fatal("older snapshot accepted")
	}
	cancel()
	s.Put(&models.Snapshot{Commodity: models.Coffee, Seq: s.NextSeq()})

	if got.Load() != 1 {
		t.Fatalf("listener called %d times, want 1", got.Load())
	}
	if len(s.Keys()) != 1 {
		t.Fatalf("keys = %v", s.Keys())
	}
}

func TestRefreshSeriesJob(t *testing.T) {
	uc, src, _ := newChartFixture(t)
	key := models.SeriesKey{Commodity: models.Rice, Dev: true}
	src.sets[key] = dailySet(4)
	job := NewRefreshSeriesJob(NewRefreshJob(uc, nil, nil, nil, false))

	if job.Type() != RefreshSeriesType {
		t.Fatalf("type = %s", job.Type())
	}
	if err := job.Handle(context.Background(), json.RawMessage(`{"commodity":"rice","dev":true}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if snap, ok := uc.Store().Get(key); !ok || snap.Len() != 4 {
		t.Fatal("series not refreshed")
	}

	for _, bad := range []string{`{"commodity":"gold"}`, `{}`, `[`} {
		if err := job.Handle(context.Background(), json.RawMessage(bad)); err == nil {
			t.Fatalf("%s: expected error", bad)
		}
	}
}

func TestArchiveHistory(t *testing.T) {
	arch := &fakeArchive{}
	key := models.SeriesKey{Commodity: models.Corn}
	snap := &models.Snapshot{Commodity: models.Corn, Seq: 3, Merged: []models.PricePoint{{Date: "2024-01-02", ActualPrice: p(1)}}}

	ch := NewArchiveProcessor(nil, arch, nopMetrics{}, BackendClickHouse)
	if err := ch.Process(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	got, err := ch.History(context.Background(), key, "2024-01-02", 10)
	if err != nil || len(got) != 1 || got[0].Seq != 3 {
		t.Fatalf("history = %+v, %v", got, err)
	}

	for _, backend := range []string{BackendNone, BackendKafka} {
		_, err := NewArchiveProcessor(&fakePublisher{}, arch, nopMetrics{}, backend).History(context.Background(), key, "2024-01-02", 10)
		if !errors.Is(err, ErrHistoryUnavailable) {
			t.Fatalf("%s: err = %v", backend, err)
		}
	}
}

func TestSnapshotStoreNotifiesInSeqOrder(t *testing.T) {
	store := NewSnapshotStore()
	key := models.SeriesKey{Commodity: models.Corn}

	var mu sync.Mutex
	var seen []uint64
	store.Subscribe(func(s *models.Snapshot) {
		mu.Lock()
		seen = append(seen, s.Seq)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put(&models.Snapshot{Commodity: key.Commodity, Seq: store.NextSeq()})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no notifications")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("notification %d has seq %d after %d", i, seen[i], seen[i-1])
		}
	}
	if last, _ := store.Get(key); last.Seq != seen[len(seen)-1] {
		t.Fatalf("stored seq %d, last notified %d", last.Seq, seen[len(seen)-1])
	}
}
