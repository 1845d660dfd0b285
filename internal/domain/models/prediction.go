package models

import "time"

// RawPrice is one row of an upstream prediction series.
type RawPrice struct {
	Date           string   `json:"Date"`
	PredictedPrice *float64 `json:"Predicted_Price,omitempty"`
	ActualPrice    *float64 `json:"Actual_Price,omitempty"`
}

// PricePoint is one merged chart point, keyed by calendar date.
type PricePoint struct {
	Date             string   `json:"Date"`
	ActualPrice      *float64 `json:"Actual_Price,omitempty"`
	PredictedPrice14 *float64 `json:"Predicted_Price,omitempty"`
	PredictedPrice7  *float64 `json:"Predicted_Price_7,omitempty"`
}

// PredictionSet is the pair of horizon series returned by the prediction API.
// The json tags match the API's "data" object.
type PredictionSet struct {
	Series14 []RawPrice `json:"prediction_result_14days"`
	Series7  []RawPrice `json:"prediction_result_7days"`
}

// Snapshot is a merged prediction set for one commodity, as last fetched.
type Snapshot struct {
	Commodity Commodity     `json:"commodity"`
	Dev       bool          `json:"dev"`
	Seq       uint64        `json:"seq"`
	FetchedAt time.Time     `json:"fetched_at"`
	Raw       PredictionSet `json:"-"`
	Merged    []PricePoint  `json:"points"`
	Dropped   int           `json:"dropped"`
}

// Key returns the snapshot's series key.
func (s *Snapshot) Key() SeriesKey {
	return SeriesKey{Commodity: s.Commodity, Dev: s.Dev}
}

// SnapshotInfo is snapshot metadata without the points.
type SnapshotInfo struct {
	Commodity Commodity `json:"commodity"`
	Dev       bool      `json:"dev"`
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetched_at"`
	Points    int       `json:"points"`
	Dropped   int       `json:"dropped"`
	FirstDate string    `json:"first_date,omitempty"`
	LastDate  string    `json:"last_date,omitempty"`
}

// Info summarises the snapshot.
func (s *Snapshot) Info() SnapshotInfo {
	info := SnapshotInfo{
		Commodity: s.Commodity,
		Dev:       s.Dev,
		Seq:       s.Seq,
		FetchedAt: s.FetchedAt,
		Points:    len(s.Merged),
		Dropped:   s.Dropped,
	}
	if n := len(s.Merged); n > 0 {
		info.FirstDate = s.Merged[0].Date
		info.LastDate = s.Merged[n-1].Date
	}
	return info
}

// Len returns the merged series length.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Merged)
}

// Price is a small helper for building optional prices.
func Price(v float64) *float64 { return &v }

// ArchivedPoint is one merged point as it looked in one archived fetch.
type ArchivedPoint struct {
	FetchedAt time.Time `json:"fetched_at"`
	Seq       uint64    `json:"seq"`
	PricePoint
}
