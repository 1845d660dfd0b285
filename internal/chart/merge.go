// Package chart merges the 14-day and 7-day prediction series into one date-indexed series and computes
// the scrollable display window over it.
package chart

import (
	"sort"
	"time"

	"PriceBoard/internal/domain/models"
	"PriceBoard/pkg/util"
)

// MergeReport is the merge result plus the number of input rows dropped for unparsable dates.
type MergeReport struct {
	Points  []models.PricePoint
	Dropped int
}

// MergeSeries merges the 14-day and 7-day series by calendar date, ascending.
// Rows with unparsable dates are dropped.
func MergeSeries(series14, series7 []models.RawPrice) []models.PricePoint {
	return MergeSeriesReport(series14, series7).Points
}

// MergeSeriesReport is MergeSeries that also counts dropped rows.
func MergeSeriesReport(series14, series7 []models.RawPrice) MergeReport {
	type entry struct {
		at    time.Time
		point models.PricePoint
	}
	byDate := make(map[string]*entry, len(series14)+len(series7))
	dropped := 0

	for _, row := range series14 {
		at, ok := util.ParseDate(row.Date)
		if !ok {
			dropped++
			continue
		}
		key := util.FormatDate(at)
		// last row wins for a repeated date
		byDate[key] = &entry{at: at, point: models.PricePoint{
			Date:             key,
			ActualPrice:      copyPrice(row.ActualPrice),
			PredictedPrice14: copyPrice(row.PredictedPrice),
		}}
	}

	for _, row := range series7 {
		at, ok := util.ParseDate(row.Date)
		if !ok {
			dropped++
			continue
		}
		key := util.FormatDate(at)
		if e, ok := byDate[key]; ok {
			e.point.PredictedPrice7 = copyPrice(row.PredictedPrice)
			continue
		}
		byDate[key] = &entry{at: at, point: models.PricePoint{
			Date:            key,
			PredictedPrice7: copyPrice(row.PredictedPrice),
		}}
	}

	entries := make([]*entry, 0, len(byDate))
	for _, e := range byDate {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	points := make([]models.PricePoint, len(entries))
	for i, e := range entries {
		points[i] = e.point
	}
	return MergeReport{Points: points, Dropped: dropped}
}

func copyPrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
