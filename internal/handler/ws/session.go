package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	applogger "PriceBoard/pkg/logger"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// Session is one websocket chart viewer. All state changes happen on the run
// goroutine; readPump and the hub only queue events for it.
type Session struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	log  *applogger.Logger

	send   chan []byte
	inbox  chan ClientMessage
	arrive chan *models.Snapshot

	state State

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		id:     id,
		hub:    h,
		conn:   conn,
		log:    h.log.With(applogger.String("session", id)),
		send:   make(chan []byte, h.sendBuffer),
		inbox:  make(chan ClientMessage, h.sendBuffer),
		arrive: make(chan *models.Snapshot, h.sendBuffer),
		state:  NewState(models.SeriesKey{Commodity: models.DefaultCommodity, Dev: h.defaultDev}),
		done:   make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// notify queues a data-arrival event without blocking the store writer.
func (s *Session) notify(snap *models.Snapshot) {
	select {
	case s.arrive <- snap:
	case <-s.done:
	default:
		s.log.Warn("session inbox full, data arrival dropped", applogger.String("key", snap.Key().String()))
	}
}

// close stops the session. writePump sends the close frame and closes the conn.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) run(ctx context.Context) {
	defer s.close()

	s.selectSeries(ctx, s.state.Key)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case msg := <-s.inbox:
			s.handle(ctx, msg)
		case snap := <-s.arrive:
			s.apply(Event{Kind: EventDataArrived, Snapshot: snap})
		}
	}
}

func (s *Session) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case MsgSelectCommodity:
		c, err := models.ParseCommodity(msg.Commodity)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		dev := s.state.Key.Dev
		if msg.Dev != nil {
			dev = *msg.Dev
		}
		s.selectSeries(ctx, models.SeriesKey{Commodity: c, Dev: dev})
	case MsgSelectRange:
		r, err := chart.ParseViewRange(msg.Range)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		s.apply(Event{Kind: EventSelectRange, Range: r})
	case MsgScroll:
		s.apply(Event{Kind: EventScroll, Delta: msg.Delta})
	default:
		s.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *Session) selectSeries(ctx context.Context, key models.SeriesKey) {
	fctx, cancel := context.WithTimeout(ctx, s.hub.fetchTimeout)
	defer cancel()

	snap, err := s.hub.chart.Snapshot(fctx, key)
	if err != nil {
		s.log.Error("session snapshot failed", applogger.String("key", key.String()), applogger.Error(err))
		if errors.Is(err, drepo.ErrUpstream) {
			s.sendError("prediction service is unavailable, try again later")
		} else {
			s.sendError("failed to load chart data")
		}
		return
	}
	s.apply(Event{Kind: EventSelectSeries, Snapshot: snap})
}

func (s *Session) apply(ev Event) {
	next, push := Reduce(s.state, ev)
	s.state = next
	if !push {
		return
	}
	w := s.state.Window()
	msg := ServerMessage{
		Type:      MsgWindow,
		Session:   s.id,
		Commodity: s.state.Key.Commodity,
		Dev:       s.state.Key.Dev,
		Window:    &w,
	}
	if s.state.Snapshot != nil {
		msg.Seq = s.state.Snapshot.Seq
	}
	s.write(msg)
}

func (s *Session) sendError(text string) {
	s.write(ServerMessage{Type: MsgError, Session: s.id, Message: text})
}

func (s *Session) write(msg ServerMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal ws message", applogger.Error(err))
		return
	}
	select {
	case s.send <- b:
	case <-s.done:
	default:
		// a client that cannot keep up is disconnected rather than served stale windows
		s.log.Warn("session send buffer full, closing")
		s.close()
	}
}

func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.close()
	}()

	readWait := 2 * s.hub.pingInterval
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(readWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("ws read error", applogger.Error(err))
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(b, &msg); err != nil {
			s.sendError("invalid message: " + err.Error())
			continue
		}
		select {
		case s.inbox <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.hub.writeTimeout))
			return
		case b := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Debug("ws write error", applogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
