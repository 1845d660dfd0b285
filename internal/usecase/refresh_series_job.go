package usecase

import (
	"context"
	"fmt"

	"PriceBoard/internal/domain/models"
	"PriceBoard/pkg/queue"
)

// RefreshSeriesType is the queue message type for a single-series refresh.
const RefreshSeriesType = "refresh_series"

// RefreshSeriesJob runs queued refresh requests on whichever replica pops them.
type RefreshSeriesJob struct {
	refresh *RefreshJob
}

func NewRefreshSeriesJob(refresh *RefreshJob) *RefreshSeriesJob {
	return &RefreshSeriesJob{refresh: refresh}
}

func (j *RefreshSeriesJob) Name() string { return "refresh-series" }
func (j *RefreshSeriesJob) Type() string { return RefreshSeriesType }

// Handle expects a SeriesKey payload.
func (j *RefreshSeriesJob) Handle(ctx context.Context, payload interface{}) error {
	key, err := queue.ParsePayload[models.SeriesKey](payload)
	if err != nil {
		return fmt.Errorf("refresh payload: %w", err)
	}
	if _, err := models.ParseCommodity(string(key.Commodity)); err != nil || key.Commodity == "" {
		return fmt.Errorf("refresh payload: unknown commodity %q", key.Commodity)
	}
	return j.refresh.RefreshKey(ctx, *key)
}

var _ queue.Job = (*RefreshSeriesJob)(nil)
