package models

import "fmt"

// Commodity identifies a futures contract the prediction API serves.
type Commodity string

const (
	Coffee  Commodity = "coffee"
	Wheat   Commodity = "wheat"
	Rice    Commodity = "rice"
	Corn    Commodity = "corn"
	Soybean Commodity = "soybean"
)

// CommodityOption is a selectable commodity with its display label.
type CommodityOption struct {
	Value Commodity `json:"value"`
	Label string    `json:"label"`
}

// Commodities lists the supported commodities in display order.
var Commodities = []CommodityOption{
	{Value: Coffee, Label: "커피"},
	{Value: Wheat, Label: "밀"},
	{Value: Rice, Label: "쌀"},
	{Value: Corn, Label: "옥수수"},
	{Value: Soybean, Label: "대두"},
}

// DefaultCommodity is shown when none is selected.
const DefaultCommodity = Coffee

// ParseCommodity validates a raw commodity name. Empty means the default.
func ParseCommodity(s string) (Commodity, error) {
	if s == "" {
		return DefaultCommodity, nil
	}
	for _, c := range Commodities {
		if string(c.Value) == s {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("unknown commodity %q", s)
}

// SeriesKey identifies one snapshot: a commodity served by either the production or the dev model.
type SeriesKey struct {
	Commodity Commodity `json:"commodity"`
	Dev       bool      `json:"dev"`
}

func (k SeriesKey) String() string {
	if k.Dev {
		return string(k.Commodity) + ":dev"
	}
	return string(k.Commodity)
}
