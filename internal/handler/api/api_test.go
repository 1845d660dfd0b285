package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/internal/usecase"
	"PriceBoard/pkg/cache"

	"github.com/labstack/echo/v4"
)

type stubSource struct {
	sets map[models.SeriesKey]models.PredictionSet
	news []models.NewsItem
	err  error
}

func (s *stubSource) FetchPredictions(_ context.Context, key models.SeriesKey) (models.PredictionSet, error) {
	if s.err != nil {
		return models.PredictionSet{}, s.err
	}
	return s.sets[key], nil
}

func (s *stubSource) FetchNews(context.Context) ([]models.NewsItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.news, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string)              {}
func (nopMetrics) RecordError(string)                      {}
func (nopMetrics) RecordCache(string, bool)                {}
func (nopMetrics) RecordLastPrice(string, string, float64) {}
func (nopMetrics) RecordDropped(string, int)               {}
func (nopMetrics) RecordArchived(string, string)           {}
func (nopMetrics) RecordLatency(string, float64)           {}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func daily(n int) models.PredictionSet {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var set models.PredictionSet
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		set.Series14 = append(set.Series14, models.RawPrice{Date: d, ActualPrice: models.Price(float64(i))})
		set.Series7 = append(set.Series7, models.RawPrice{Date: d, PredictedPrice: models.Price(float64(i) + 0.5)})
	}
	return set
}

func newTestServer(t *testing.T, src *stubSource) *echo.Echo {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	chartUC := usecase.NewChartUseCase(src, mc, usecase.NewSnapshotStore(), nil, nopMetrics{}, nil, time.Minute)
	newsUC := usecase.NewNewsUseCase(src, mc, nopMetrics{}, nil, 5, time.Minute)
	archive := usecase.NewArchiveProcessor(nil, nil, nopMetrics{}, usecase.BackendNone)

	e := echo.New()
	NewChartHandler(nil, chartUC, archive, false).RegisterRoutes(e)
	NewNewsHandler(nil, newsUC).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func TestChartWindowDefaultsToLatest(t *testing.T) {
	src := &stubSource{sets: map[models.SeriesKey]models.PredictionSet{
		{Commodity: models.Corn}: daily(40),
	}}
	e := newTestServer(t, src)

	rec, env := do(t, e, http.MethodGet, "/api/chart?commodity=corn")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var w chart.Window
	if err := json.Unmarshal(env.Data, &w); err != nil {
		t.Fatal(err)
	}
	if w.Range != chart.Range2W || len(w.Points) != 14 || w.Offset != 26 || w.Total != 40 {
		t.Fatalf("unexpected window %+v", w)
	}
	if w.Points[13].Date != "2024-02-09" {
		t.Fatalf("last point = %s", w.Points[13].Date)
	}
}

func TestChartWindowExplicitOffset(t *testing.T) {
	src := &stubSource{sets: map[models.SeriesKey]models.PredictionSet{
		{Commodity: models.Coffee}: daily(40),
	}}
	e := newTestServer(t, src)

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"offset=0", 0},
		{"offset=10", 10},
		{"offset=999", 26},
	} {
		_, env := do(t, e, http.MethodGet, "/api/chart?"+tc.query)
		var w chart.Window
		if err := json.Unmarshal(env.Data, &w); err != nil {
			t.Fatal(err)
		}
		if w.Offset != tc.want {
			t.Fatalf("%s: offset = %d, want %d", tc.query, w.Offset, tc.want)
		}
	}
}

func TestChartScroll(t *testing.T) {
	src := &stubSource{sets: map[models.SeriesKey]models.PredictionSet{
		{Commodity: models.Wheat}: daily(40),
	}}
	e := newTestServer(t, src)

	_, env := do(t, e, http.MethodGet, "/api/chart/scroll?commodity=wheat&offset=10&delta=-120")
	var w chart.Window
	if err := json.Unmarshal(env.Data, &w); err != nil {
		t.Fatal(err)
	}
	if w.Offset != 9 {
		t.Fatalf("offset = %d, want 9", w.Offset)
	}
}

func TestChartValidation(t *testing.T) {
	e := newTestServer(t, &stubSource{})

	for _, target := range []string{
		"/api/chart?range=5y",
		"/api/chart?commodity=gold",
		"/api/chart?dev=maybe",
		"/api/chart/history?date=yesterday",
		"/api/chart?offset=abc",
	} {
		rec, env := do(t, e, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestOutOfRangeOffsetIsClamped(t *testing.T) {
	src := &stubSource{sets: map[models.SeriesKey]models.PredictionSet{
		{Commodity: models.Coffee}: daily(40),
	}}
	e := newTestServer(t, src)

	cases := []struct {
		target string
		want   int
	}{
		{"/api/chart?offset=-5", 0},
		{"/api/chart?offset=500", 26},
		{"/api/chart/scroll?offset=-5&delta=-1", 0},
		{"/api/chart/scroll?offset=-5&delta=1", 1},
		{"/api/chart/scroll?offset=900&delta=1", 26},
	}
	for _, tc := range cases {
		rec, env := do(t, e, http.MethodGet, tc.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", tc.target, rec.Code, env.Data)
		}
		var w chart.Window
		if err := json.Unmarshal(env.Data, &w); err != nil {
			t.Fatal(err)
		}
		if w.Offset != tc.want {
			t.Fatalf("%s: offset = %d, want %d", tc.target, w.Offset, tc.want)
		}
	}
}

func TestNewsNegativePageIsClamped(t *testing.T) {
	src := &stubSource{}
	for i := 0; i < 7; i++ {
		src.news = append(src.news, models.NewsItem{Title: fmt.Sprintf("n%d", i)})
	}
	e := newTestServer(t, src)

	rec, env := do(t, e, http.MethodGet, "/api/news?page=-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Items []models.NewsItem `json:"items"`
		Page  int               `json:"page"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.Page != 1 || len(page.Items) != 5 || page.Items[0].Title != "n0" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestUpstreamFailureIs502(t *testing.T) {
	e := newTestServer(t, &stubSource{err: fmt.Errorf("dial: %w", drepo.ErrUpstream)})

	rec, env := do(t, e, http.MethodGet, "/api/chart/series?commodity=rice")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	var errs []struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(env.Data, &errs); err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Code != "ERR_UPSTREAM" {
		t.Fatalf("unexpected errors %s", env.Data)
	}
}

func TestUnknownErrorIs500(t *testing.T) {
	e := newTestServer(t, &stubSource{err: errors.New("boom")})

	rec, _ := do(t, e, http.MethodGet, "/api/news")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSeriesAndRefresh(t *testing.T) {
	key := models.SeriesKey{Commodity: models.Soybean, Dev: true}
	src := &stubSource{sets: map[models.SeriesKey]models.PredictionSet{key: daily(3)}}
	e := newTestServer(t, src)

	_, env := do(t, e, http.MethodGet, "/api/chart/series?commodity=soybean&dev=true")
	var series ChartSeries
	if err := json.Unmarshal(env.Data, &series); err != nil {
		t.Fatal(err)
	}
	if len(series.Points) != 3 || !series.Snapshot.Dev || series.Snapshot.LastDate != "2024-01-03" {
		t.Fatalf("unexpected series %+v", series.Snapshot)
	}

	src.sets[key] = daily(5)
	rec, env := do(t, e, http.MethodPost, "/api/refresh?commodity=soybean&dev=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	var info models.SnapshotInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	if info.Points != 5 || info.Seq <= series.Snapshot.Seq {
		t.Fatalf("refresh did not refetch: %+v", info)
	}
}

type recordingQueue struct {
	types []string
	keys  []models.SeriesKey
}

func (q *recordingQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.types = append(q.types, msgType)
	q.keys = append(q.keys, payload.(models.SeriesKey))
	return nil
}

func TestAsyncRefreshIsQueued(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	src := &stubSource{}
	uc := usecase.NewChartUseCase(src, mc, usecase.NewSnapshotStore(), nil, nopMetrics{}, nil, time.Minute)
	h := NewChartHandler(nil, uc, nil, true)
	q := &recordingQueue{}
	h.SetRefreshQueue(q)
	e := echo.New()
	h.RegisterRoutes(e)

	rec, _ := do(t, e, http.MethodPost, "/api/refresh?commodity=corn&async=true")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	want := models.SeriesKey{Commodity: models.Corn, Dev: true}
	if len(q.keys) != 1 || q.keys[0] != want || q.types[0] != usecase.RefreshSeriesType {
		t.Fatalf("queued %+v %v", q.keys, q.types)
	}
}

func TestHistoryDisabled(t *testing.T) {
	e := newTestServer(t, &stubSource{})

	rec, env := do(t, e, http.MethodGet, "/api/chart/history?date=2024-01-02")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var errs []struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(env.Data, &errs)
	if len(errs) != 1 || errs[0].Code != "ERR_ARCHIVE_DISABLED" {
		t.Fatalf("unexpected errors %s", env.Data)
	}
}

func TestCommodities(t *testing.T) {
	e := newTestServer(t, &stubSource{})

	_, env := do(t, e, http.MethodGet, "/api/commodities")
	var out commoditiesResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Commodities) != 5 || out.Default != models.Coffee || len(out.Ranges) != 5 {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestNewsPage(t *testing.T) {
	src := &stubSource{}
	for i := 0; i < 12; i++ {
		src.news = append(src.news, models.NewsItem{Title: fmt.Sprintf("n%d", i)})
	}
	e := newTestServer(t, src)

	_, env := do(t, e, http.MethodGet, "/api/news?page=3")
	var page struct {
		Items      []models.NewsItem `json:"items"`
		Page       int               `json:"page"`
		TotalPages int               `json:"total_pages"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.Page != 3 || page.TotalPages != 3 || len(page.Items) != 2 || page.Items[0].Title != "n10" {
		t.Fatalf("unexpected page %+v", page)
	}

	_, env = do(t, e, http.MethodGet, "/api/news?page=9")
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.Page != 3 {
		t.Fatalf("page not clamped: %d", page.Page)
	}
}
