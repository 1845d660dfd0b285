package chart

import "PriceBoard/internal/domain/models"

// Viewport is the UI-owned window position. Transitions return a new value and never mutate the receiver.
// Invariant: 0 <= ScrollOffset <= MaxScrollOffset(SeriesLen, Range).
type Viewport struct {
	Range        ViewRange `json:"range"`
	ScrollOffset int       `json:"scroll_offset"`
	SeriesLen    int       `json:"series_len"`
}

// NewViewport shows the most recent window of the default range.
func NewViewport(seriesLen int) Viewport {
	return Viewport{Range: DefaultRange, SeriesLen: seriesLen}.toLatest()
}

// SelectRange switches the range and jumps to the most recent data.
func (v Viewport) SelectRange(r ViewRange) Viewport {
	if !r.Valid() {
		return v
	}
	v.Range = r
	return v.toLatest()
}

// Scroll moves the window one step in the direction of delta (positive = more recent).
func (v Viewport) Scroll(delta float64) Viewport {
	if v.SeriesLen <= v.Range.DisplayCount() || delta == 0 {
		return v
	}
	step := ScrollStep(v.Range)
	if delta < 0 {
		step = -step
	}
	v.ScrollOffset = ClampOffset(v.ScrollOffset+step, v.SeriesLen, v.Range)
	return v
}

// SeriesChanged records a replaced series and jumps to its most recent data.
func (v Viewport) SeriesChanged(seriesLen int) Viewport {
	v.SeriesLen = seriesLen
	return v.toLatest()
}

// WithOffset moves to an explicit offset, clamped.
func (v Viewport) WithOffset(offset int) Viewport {
	v.ScrollOffset = offset
	return v.Clamp()
}

// Clamp restores the offset invariant for a viewport built from outside input.
// An unknown range falls back to the default.
func (v Viewport) Clamp() Viewport {
	if !v.Range.Valid() {
		v.Range = DefaultRange
	}
	v.ScrollOffset = ClampOffset(v.ScrollOffset, v.SeriesLen, v.Range)
	return v
}

// MaxScrollOffset for the current range and series length.
func (v Viewport) MaxScrollOffset() int {
	return MaxScrollOffset(v.SeriesLen, v.Range)
}

// Window slices series at the viewport's position.
func (v Viewport) Window(series []models.PricePoint) Window {
	return GetWindow(series, v.Range, v.ScrollOffset)
}

func (v Viewport) toLatest() Viewport {
	if !v.Range.Valid() {
		v.Range = DefaultRange
	}
	v.ScrollOffset = v.MaxScrollOffset()
	return v
}
