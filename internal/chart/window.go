package chart

import (
	"time"

	"PriceBoard/internal/domain/models"
	"PriceBoard/pkg/util"
)

// Window is the visible part of a merged series.
type Window struct {
	Range           ViewRange           `json:"range"`
	DisplayCount    int                 `json:"display_count"`
	Offset          int                 `json:"offset"`
	MaxScrollOffset int                 `json:"max_scroll_offset"`
	Total           int                 `json:"total"`
	Today           string              `json:"today"`
	Points          []models.PricePoint `json:"points"`
}

// MaxScrollOffset is the largest valid start index for a series of length n.
func MaxScrollOffset(n int, r ViewRange) int {
	if m := n - r.DisplayCount(); m > 0 {
		return m
	}
	return 0
}

// ClampOffset clamps offset into [0, MaxScrollOffset(n, r)].
func ClampOffset(offset, n int, r ViewRange) int {
	if offset < 0 {
		return 0
	}
	if m := MaxScrollOffset(n, r); offset > m {
		return m
	}
	return offset
}

// ScrollStep is how many points one scroll input moves the window.
func ScrollStep(r ViewRange) int {
	if s := r.DisplayCount() / 20; s > 1 {
		return s
	}
	return 1
}

// GetWindow returns the window of series for range r starting at the clamped offset.
func GetWindow(series []models.PricePoint, r ViewRange, offset int) Window {
	return getWindowAt(series, r, offset, time.Now())
}

func getWindowAt(series []models.PricePoint, r ViewRange, offset int, now time.Time) Window {
	if !r.Valid() {
		r = DefaultRange
	}
	n := len(series)
	count := r.DisplayCount()
	start := ClampOffset(offset, n, r)
	end := start + count
	if end > n {
		end = n
	}
	points := make([]models.PricePoint, end-start)
	copy(points, series[start:end])
	return Window{
		Range:           r,
		DisplayCount:    count,
		Offset:          start,
		MaxScrollOffset: MaxScrollOffset(n, r),
		Total:           n,
		Today:           Today(now),
		Points:          points,
	}
}

// Today is now's local calendar date, used as the chart's reference line.
func Today(now time.Time) string {
	return util.FormatDate(util.LocalMidnight(now))
}
