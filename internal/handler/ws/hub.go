package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"PriceBoard/internal/domain/models"
	"PriceBoard/internal/usecase"
	applogger "PriceBoard/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Hub tracks chart sessions and fans snapshot arrivals out to them.
type Hub struct {
	chart *usecase.ChartUseCase
	log   *applogger.Logger

	pingInterval time.Duration
	writeTimeout time.Duration
	fetchTimeout time.Duration
	sendBuffer   int
	defaultDev   bool

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Hub.
type Option func(*Hub)

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.fetchTimeout = d
		}
	}
}

func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithDefaultDev sets the model a new session starts on.
func WithDefaultDev(dev bool) Option {
	return func(h *Hub) { h.defaultDev = dev }
}

// NewHub creates a hub serving sessions from uc.
func NewHub(uc *usecase.ChartUseCase, log *applogger.Logger, opts ...Option) *Hub {
	if log == nil {
		log = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		chart:        uc,
		log:          log,
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		fetchTimeout: 30 * time.Second,
		sendBuffer:   16,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chart", h.Serve)
}

// Start subscribes the hub to snapshot arrivals.
func (h *Hub) Start() {
	h.unsub = h.chart.Store().Subscribe(h.broadcast)
	h.log.Info("websocket hub started")
}

// Stop unsubscribes and closes every session.
func (h *Hub) Stop(ctx context.Context) error {
	if h.unsub != nil {
		h.unsub()
	}
	h.cancel()

	h.mu.RLock()
	for _, s := range h.sessions {
		s.close()
	}
	h.mu.RUnlock()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for h.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	h.log.Info("websocket hub stopped")
	return nil
}

// Serve upgrades the request and runs a chart session on it.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}

	s := newSession(uuid.NewString(), h, conn)
	h.register(s)

	go s.writePump()
	go s.run(h.ctx)
	go s.readPump()
	return nil
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.log.Debug("ws session opened", applogger.String("session", s.id), applogger.Int("sessions", n))
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	n := len(h.sessions)
	h.mu.Unlock()
	h.log.Debug("ws session closed", applogger.String("session", s.id), applogger.Int("sessions", n))
}

func (h *Hub) broadcast(snap *models.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.notify(snap)
	}
}
