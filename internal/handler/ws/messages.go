package ws

import (
	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
)

// Client message types.
const (
	MsgSelectCommodity = "select_commodity"
	MsgSelectRange     = "select_range"
	MsgScroll          = "scroll"
)

// Server message types.
const (
	MsgWindow = "window"
	MsgError  = "error"
)

// ClientMessage is anything a browser sends on /ws/chart.
type ClientMessage struct {
	Type      string  `json:"type"`
	Commodity string  `json:"commodity,omitempty"`
	Dev       *bool   `json:"dev,omitempty"`
	Range     string  `json:"range,omitempty"`
	Delta     float64 `json:"delta,omitempty"`
}

// ServerMessage is pushed to the browser after every state change.
type ServerMessage struct {
	Type      string           `json:"type"`
	Session   string           `json:"session,omitempty"`
	Commodity models.Commodity `json:"commodity,omitempty"`
	Dev       bool             `json:"dev,omitempty"`
	Seq       uint64           `json:"seq,omitempty"`
	Window    *chart.Window    `json:"window,omitempty"`
	Message   string           `json:"message,omitempty"`
}
