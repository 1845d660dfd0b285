package ws

import (
	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
)

// EventKind enumerates the inputs a chart session reacts to.
type EventKind int

const (
	EventSelectSeries EventKind = iota
	EventSelectRange
	EventScroll
	EventDataArrived
)

// Event is one input to Reduce. Snapshot is set for series selection and
// data arrival, Range for range selection, Delta for scrolling.
type Event struct {
	Kind     EventKind
	Snapshot *models.Snapshot
	Range    chart.ViewRange
	Delta    float64
}

// State is what one session is looking at.
type State struct {
	Key      models.SeriesKey
	Snapshot *models.Snapshot
	View     chart.Viewport
}

// NewState starts on key with no data yet.
func NewState(key models.SeriesKey) State {
	return State{Key: key, View: chart.NewViewport(0)}
}

// Reduce applies ev and reports whether the client should get a new window.
// User events always produce one. Data arrivals only do when they replace the
// series the session is showing with a newer snapshot; the view jumps to the
// latest window only when the series length changed.
func Reduce(s State, ev Event) (State, bool) {
	switch ev.Kind {
	case EventSelectSeries:
		if ev.Snapshot == nil {
			return s, false
		}
		s.Key = ev.Snapshot.Key()
		s.Snapshot = ev.Snapshot
		s.View = s.View.SeriesChanged(ev.Snapshot.Len())
		return s, true
	case EventSelectRange:
		s.View = s.View.SelectRange(ev.Range)
		return s, true
	case EventScroll:
		s.View = s.View.Scroll(ev.Delta)
		return s, true
	case EventDataArrived:
		snap := ev.Snapshot
		if snap == nil || snap.Key() != s.Key {
			return s, false
		}
		if s.Snapshot != nil && snap.Seq <= s.Snapshot.Seq {
			return s, false
		}
		s.Snapshot = snap
		if snap.Len() != s.View.SeriesLen {
			s.View = s.View.SeriesChanged(snap.Len())
		} else {
			s.View = s.View.Clamp()
		}
		return s, true
	}
	return s, false
}

// Window is the visible part of the current series.
func (s State) Window() chart.Window {
	var series []models.PricePoint
	if s.Snapshot != nil {
		series = s.Snapshot.Merged
	}
	return s.View.Window(series)
}
