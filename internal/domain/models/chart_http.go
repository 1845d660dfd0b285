package models

// SeriesRequest selects one series. Dev is kept as text so an omitted value
// can fall back to the configured default.
type SeriesRequest struct {
	Commodity string `query:"commodity" json:"commodity" default:"coffee" validate:"oneof=coffee wheat rice corn soybean"`
	Dev       string `query:"dev" json:"dev" validate:"omitempty,oneof=true false 1 0"`
}

// ChartRequest and ScrollRequest leave Offset unvalidated beyond integer
// parsing; out-of-range offsets are clamped by the chart engine.
type ChartRequest struct {
	SeriesRequest
	Range  string `query:"range" json:"range" default:"2w" validate:"oneof=2w 1m 3m 6m 1y"`
	Offset string `query:"offset" json:"offset"`
}

type ScrollRequest struct {
	SeriesRequest
	Range  string  `query:"range" json:"range" default:"2w" validate:"oneof=2w 1m 3m 6m 1y"`
	Offset int     `query:"offset" json:"offset"`
	Delta  float64 `query:"delta" json:"delta"`
}

type HistoryRequest struct {
	SeriesRequest
	Date  string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// RefreshRequest asks for a refetch; Async hands it to the refresh queue.
type RefreshRequest struct {
	SeriesRequest
	Async bool `query:"async" json:"async"`
}

// NewsRequest pages outside [1, totalPages] are clamped, not rejected.
type NewsRequest struct {
	Page int `query:"page" json:"page" default:"1"`
}
