package chart

import (
	"fmt"
	"testing"
	"time"

	"PriceBoard/internal/domain/models"
)

func series(n int) []models.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, n)
	for i := range out {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i).Format("2006-01-02"), ActualPrice: models.Price(float64(i))}
	}
	return out
}

func TestGetWindowClamps(t *testing.T) {
	s := series(40)
	cases := []struct {
		offset int
		want   int
	}{
		{100, 26},
		{-5, 0},
		{10, 10},
		{26, 26},
	}
	for _, tc := range cases {
		w := GetWindow(s, Range2W, tc.offset)
		if w.MaxScrollOffset != 26 {
			t.Fatalf("max offset = %d, want 26", w.MaxScrollOffset)
		}
		if w.Offset != tc.want {
			t.Fatalf("offset(%d) = %d, want %d", tc.offset, w.Offset, tc.want)
		}
		if len(w.Points) != 14 {
			t.Fatalf("window len = %d, want 14", len(w.Points))
		}
		if w.Points[0].Date != s[tc.want].Date {
			t.Fatalf("window starts at %s, want %s", w.Points[0].Date, s[tc.want].Date)
		}
	}
}

func TestGetWindowShortSeries(t *testing.T) {
	s := series(5)
	w := GetWindow(s, Range1Y, 3)
	if w.MaxScrollOffset != 0 || w.Offset != 0 {
		t.Fatalf("unexpected offsets %+v", w)
	}
	if len(w.Points) != 5 {
		t.Fatalf("expected full series, got %d", len(w.Points))
	}
}

func TestGetWindowEmpty(t *testing.T) {
	w := GetWindow(nil, Range3M, 4)
	if len(w.Points) != 0 || w.MaxScrollOffset != 0 || w.Offset != 0 {
		t.Fatalf("unexpected window %+v", w)
	}
}

func TestGetWindowLengthProperty(t *testing.T) {
	for _, n := range []int{0, 1, 13, 14, 15, 30, 89, 90, 91, 200, 365, 400} {
		s := series(n)
		for _, r := range Ranges {
			for _, off := range []int{-10, 0, 1, n / 2, n, n + 10} {
				t.Run(fmt.Sprintf("%d/%s/%d", n, r, off), func(t *testing.T) {
					w := GetWindow(s, r, off)
					if len(w.Points) > r.DisplayCount() {
						t.Fatalf("window %d exceeds display count %d", len(w.Points), r.DisplayCount())
					}
					if n >= r.DisplayCount() && len(w.Points) != r.DisplayCount() {
						t.Fatalf("window %d, want %d", len(w.Points), r.DisplayCount())
					}
					if w.Offset < 0 || w.Offset > w.MaxScrollOffset {
						t.Fatalf("offset %d outside [0,%d]", w.Offset, w.MaxScrollOffset)
					}
				})
			}
		}
	}
}

func TestGetWindowDoesNotAliasSeries(t *testing.T) {
	s := series(20)
	w := GetWindow(s, Range2W, 0)
	w.Points[0].Date = "changed"
	if s[0].Date == "changed" {
		t.Fatalf("window aliases the series")
	}
}

func TestTodayIsLocalDate(t *testing.T) {
	now := time.Date(2024, 6, 30, 23, 59, 0, 0, time.Local)
	w := getWindowAt(series(3), Range2W, 0, now)
	if w.Today != "2024-06-30" {
		t.Fatalf("today = %s", w.Today)
	}
}

func TestScrollStep(t *testing.T) {
	want := map[ViewRange]int{Range2W: 1, Range1M: 1, Range3M: 4, Range6M: 9, Range1Y: 18}
	for r, step := range want {
		if got := ScrollStep(r); got != step {
			t.Fatalf("ScrollStep(%s) = %d, want %d", r, got, step)
		}
	}
}

func TestParseViewRange(t *testing.T) {
	if r, err := ParseViewRange(""); err != nil || r != Range2W {
		t.Fatalf("empty range: %v %v", r, err)
	}
	if r, err := ParseViewRange("6m"); err != nil || r.DisplayCount() != 180 {
		t.Fatalf("6m: %v %v", r, err)
	}
	if _, err := ParseViewRange("5y"); err == nil {
		t.Fatalf("expected error for unknown range")
	}
}
