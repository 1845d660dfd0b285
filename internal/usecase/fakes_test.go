package usecase

import (
	"context"
	"errors"
	"sync"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
)

var p = models.Price

type fakeSource struct {
	mu       sync.Mutex
	sets     map[models.SeriesKey]models.PredictionSet
	news     []models.NewsItem
	err      error
	calls    map[models.SeriesKey]int
	newsHits int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sets:  make(map[models.SeriesKey]models.PredictionSet),
		calls: make(map[models.SeriesKey]int),
	}
}

func (f *fakeSource) FetchPredictions(_ context.Context, key models.SeriesKey) (models.PredictionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.err != nil {
		return models.PredictionSet{}, f.err
	}
	return f.sets[key], nil
}

func (f *fakeSource) FetchNews(context.Context) ([]models.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newsHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.news, nil
}

func (f *fakeSource) callsFor(key models.SeriesKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string)              {}
func (nopMetrics) RecordError(string)                      {}
func (nopMetrics) RecordCache(string, bool)                {}
func (nopMetrics) RecordLastPrice(string, string, float64) {}
func (nopMetrics) RecordDropped(string, int)               {}
func (nopMetrics) RecordArchived(string, string)           {}
func (nopMetrics) RecordLatency(string, float64)           {}

type recordingSink struct {
	mu    sync.Mutex
	snaps []*models.Snapshot
	err   error
}

func (s *recordingSink) Process(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

type fakePublisher struct {
	published []*models.Snapshot
	closed    bool
	err       error
}

func (f *fakePublisher) PublishSnapshot(_ context.Context, s *models.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, s)
	return nil
}

func (f *fakePublisher) Close() error { f.closed = true; return nil }

type fakeArchive struct {
	stored []*models.Snapshot
	closed bool
}

func (f *fakeArchive) Init(context.Context) error { return nil }
func (f *fakeArchive) StoreSnapshot(_ context.Context, s *models.Snapshot) error {
	f.stored = append(f.stored, s)
	return nil
}
func (f *fakeArchive) History(_ context.Context, key models.SeriesKey, date string, _ int) ([]models.ArchivedPoint, error) {
	var out []models.ArchivedPoint
	for _, s := range f.stored {
		if s.Key() != key {
			continue
		}
		for _, pt := range s.Merged {
			if pt.Date == date {
				out = append(out, models.ArchivedPoint{FetchedAt: s.FetchedAt, Seq: s.Seq, PricePoint: pt})
			}
		}
	}
	return out, nil
}
func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { f.closed = true; return nil }

var errUpstream = errors.Join(drepo.ErrUpstream, errors.New("connection refused"))

var (
	_ drepo.PredictionSource = (*fakeSource)(nil)
	_ drepo.Metrics          = nopMetrics{}
	_ drepo.Publisher        = (*fakePublisher)(nil)
	_ drepo.Archive          = (*fakeArchive)(nil)
)
