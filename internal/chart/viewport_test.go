package chart

import "testing"

func TestNewViewportShowsLatest(t *testing.T) {
	v := NewViewport(40)
	if v.Range != Range2W || v.ScrollOffset != 26 {
		t.Fatalf("unexpected viewport %+v", v)
	}
}

func TestSelectRangeJumpsToLatest(t *testing.T) {
	v := NewViewport(400).WithOffset(3)
	v = v.SelectRange(Range3M)
	if v.ScrollOffset != 310 {
		t.Fatalf("offset = %d, want 310", v.ScrollOffset)
	}
	v = v.SelectRange(Range1Y)
	if v.ScrollOffset != 35 {
		t.Fatalf("offset = %d, want 35", v.ScrollOffset)
	}
}

func TestSelectRangeIgnoresUnknown(t *testing.T) {
	v := NewViewport(40).WithOffset(5)
	if got := v.SelectRange("9y"); got != v {
		t.Fatalf("unknown range changed viewport: %+v", got)
	}
}

func TestScrollStepsAndClamps(t *testing.T) {
	v := NewViewport(400).SelectRange(Range1Y) // max 35, step 18
	v = v.Scroll(-120)
	if v.ScrollOffset != 17 {
		t.Fatalf("offset = %d, want 17", v.ScrollOffset)
	}
	v = v.Scroll(-1)
	if v.ScrollOffset != 0 {
		t.Fatalf("offset = %d, want 0", v.ScrollOffset)
	}
	v = v.Scroll(-1)
	if v.ScrollOffset != 0 {
		t.Fatalf("offset = %d, want 0 after clamping", v.ScrollOffset)
	}
	v = v.Scroll(3).Scroll(3).Scroll(3)
	if v.ScrollOffset != 35 {
		t.Fatalf("offset = %d, want 35", v.ScrollOffset)
	}
}

func TestScrollNoopWhenSeriesFits(t *testing.T) {
	v := NewViewport(5).SelectRange(Range1Y)
	if got := v.Scroll(-50); got != v {
		t.Fatalf("scroll changed a fitting series: %+v", got)
	}
	if v.MaxScrollOffset() != 0 {
		t.Fatalf("max offset = %d", v.MaxScrollOffset())
	}
}

func TestScrollZeroDeltaNoop(t *testing.T) {
	v := NewViewport(100).WithOffset(40)
	if got := v.Scroll(0); got != v {
		t.Fatalf("zero delta moved viewport: %+v", got)
	}
}

func TestSeriesChangedResetsToLatest(t *testing.T) {
	v := NewViewport(40).WithOffset(0)
	v = v.SeriesChanged(60)
	if v.ScrollOffset != 46 || v.SeriesLen != 60 {
		t.Fatalf("unexpected viewport %+v", v)
	}
	v = v.SeriesChanged(0)
	if v.ScrollOffset != 0 {
		t.Fatalf("empty series offset = %d", v.ScrollOffset)
	}
}

func TestWithOffsetClamps(t *testing.T) {
	v := NewViewport(40)
	if got := v.WithOffset(100).ScrollOffset; got != 26 {
		t.Fatalf("offset = %d, want 26", got)
	}
	if got := v.WithOffset(-5).ScrollOffset; got != 0 {
		t.Fatalf("offset = %d, want 0", got)
	}
}

func TestClampExternalViewport(t *testing.T) {
	cases := []struct {
		in   Viewport
		want Viewport
	}{
		{Viewport{Range: Range2W, ScrollOffset: 99, SeriesLen: 40}, Viewport{Range: Range2W, ScrollOffset: 26, SeriesLen: 40}},
		{Viewport{Range: Range2W, ScrollOffset: -3, SeriesLen: 40}, Viewport{Range: Range2W, ScrollOffset: 0, SeriesLen: 40}},
		{Viewport{Range: Range1Y, ScrollOffset: 4, SeriesLen: 5}, Viewport{Range: Range1Y, ScrollOffset: 0, SeriesLen: 5}},
		{Viewport{Range: "5d", ScrollOffset: 30, SeriesLen: 40}, Viewport{Range: DefaultRange, ScrollOffset: 26, SeriesLen: 40}},
	}
	for _, tc := range cases {
		if got := tc.in.Clamp(); got != tc.want {
			t.Errorf("Clamp(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	v := NewViewport(100)
	before := v
	_ = v.Scroll(-1)
	_ = v.SelectRange(Range1M)
	_ = v.SeriesChanged(10)
	if v != before {
		t.Fatalf("receiver mutated: %+v", v)
	}
}
