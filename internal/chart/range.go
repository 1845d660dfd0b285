package chart

import "fmt"

// ViewRange is a selectable chart time range.
type ViewRange string

const (
	Range2W ViewRange = "2w"
	Range1M ViewRange = "1m"
	Range3M ViewRange = "3m"
	Range6M ViewRange = "6m"
	Range1Y ViewRange = "1y"
)

// DefaultRange is the range a fresh viewport starts with.
const DefaultRange = Range2W

// Ranges lists all ranges, shortest first.
var Ranges = []ViewRange{Range2W, Range1M, Range3M, Range6M, Range1Y}

// DisplayCount is the number of points shown at once for the range.
// Unknown ranges fall back to the default range's count.
func (r ViewRange) DisplayCount() int {
	switch r {
	case Range2W:
		return 14
	case Range1M:
		return 30
	case Range3M:
		return 90
	case Range6M:
		return 180
	case Range1Y:
		return 365
	default:
		return DefaultRange.DisplayCount()
	}
}

// Valid reports whether r is a known range.
func (r ViewRange) Valid() bool {
	for _, v := range Ranges {
		if v == r {
			return true
		}
	}
	return false
}

// ParseViewRange validates a raw range. Empty means DefaultRange.
func ParseViewRange(s string) (ViewRange, error) {
	if s == "" {
		return DefaultRange, nil
	}
	r := ViewRange(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown range %q", s)
	}
	return r, nil
}
