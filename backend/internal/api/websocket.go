package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/config"
	"github.com/souvik03-136/craftwatch/backend/internal/metrics"
	"github.com/souvik03-136/craftwatch/backend/internal/models"
	"github.com/souvik03-136/craftwatch/backend/internal/presenter"
	"github.com/souvik03-136/craftwatch/backend/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

var errViewerGone = errors.New("viewer disconnected")

// Message is one frame on the /ws channel, in either direction.
type Message struct {
	Type      string `json:"type"`
	HTML      string `json:"html,omitempty"`
	Online    *bool  `json:"online,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

const (
	msgStatus    = "status"
	msgCountdown = "countdown"
	msgRefresh   = "refresh"
)

// Hub runs one presenter loop per connected viewer and stops them all on
// shutdown. The status last rendered into a session's page seeds that
// session's live loop, so opening the page probes once.
type Hub struct {
	source   presenter.Source
	renderer *presenter.Renderer
	metrics  *metrics.Collector
	logger   *zap.Logger
	loopOpts []presenter.LoopOption

	rendered *lru.Cache[string, models.ServerStatus]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add in join against cancel in Stop.
	mu      sync.Mutex
	viewers int
}

func newHub(source presenter.Source, renderer *presenter.Renderer, collector *metrics.Collector, logger *zap.Logger, loopOpts []presenter.LoopOption) (*Hub, error) {
	rendered, err := lru.New[string, models.ServerStatus](session.DefaultStoreSize)
	if err != nil {
		return nil, fmt.Errorf("create rendered status cache: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		source:   source,
		renderer: renderer,
		metrics:  collector,
		logger:   logger,
		loopOpts: loopOpts,
		rendered: rendered,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Rendered records the status just shown on sessionID's page.
func (h *Hub) Rendered(sessionID string, s models.ServerStatus) {
	h.rendered.Add(sessionID, s)
}

// seed returns the page status for sessionID if it is still within the
// current refresh cycle. It is handed out once.
func (h *Hub) seed(sessionID string) (models.ServerStatus, bool) {
	s, ok := h.rendered.Get(sessionID)
	if !ok {
		return models.ServerStatus{}, false
	}
	h.rendered.Remove(sessionID)
	if time.Since(s.CheckedAt) >= config.RefreshInterval {
		return models.ServerStatus{}, false
	}
	return s, true
}

// Viewers returns the number of open live connections.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

// Stop ends every live loop and waits for them to exit. Viewers arriving
// afterwards are turned away.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()
	h.wg.Wait()
}

// join registers a viewer with the WaitGroup unless the hub is stopping.
func (h *Hub) join() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return false
	}
	h.wg.Add(1)
	return true
}

func (h *Hub) track(delta int) {
	h.mu.Lock()
	h.viewers += delta
	h.mu.Unlock()
	if delta > 0 {
		h.metrics.ViewerConnected()
	} else {
		h.metrics.ViewerDisconnected()
	}
}

// Live upgrades an authenticated request and streams status and countdown
// frames until the browser goes away or the hub stops.
func (h *Hub) Live(c echo.Context) error {
	if !authenticated(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if !h.join() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
	}
	defer h.wg.Done()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the client.
		h.logger.Warn("❌ WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	h.track(1)
	defer h.track(-1)

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	v := &viewer{
		conn:     conn,
		renderer: h.renderer,
		logger:   h.logger,
		send:     make(chan []byte, sendBuffer),
		gone:     make(chan struct{}),
	}
	sess := sessionFrom(c)
	opts := append([]presenter.LoopOption{presenter.WithLoopLogger(h.logger)}, h.loopOpts...)
	if s, ok := h.seed(sess.ID()); ok {
		opts = append(opts, presenter.WithInitialStatus(s))
	}
	loop := presenter.NewLoop(h.source, v, opts...)

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		v.readPump(func() {
			h.metrics.RecordRefresh()
			loop.Refresh()
		})
	}()
	go func() {
		defer pumps.Done()
		v.writePump(ctx)
	}()
	go func() {
		select {
		case <-v.gone:
			cancel()
		case <-ctx.Done():
		}
	}()

	h.logger.Info("📡 Viewer connected",
		zap.String("remote_ip", c.RealIP()),
		zap.Time("authenticated_at", sess.AuthenticatedAt()),
	)
	if err := loop.Run(ctx); err != nil && !errors.Is(err, errViewerGone) {
		h.logger.Warn("⚠️ Live loop stopped", zap.Error(err))
	}
	cancel()
	pumps.Wait()
	h.logger.Info("📴 Viewer disconnected", zap.String("remote_ip", c.RealIP()))
	return nil
}

// viewer is the presenter.Sink for one WebSocket connection.
type viewer struct {
	conn     *websocket.Conn
	renderer *presenter.Renderer
	logger   *zap.Logger
	send     chan []byte

	goneOnce sync.Once
	gone     chan struct{}
}

func (v *viewer) Status(s models.ServerStatus) error {
	html, err := v.renderer.StatusFragment(s)
	if err != nil {
		return err
	}
	online := s.Online
	return v.push(Message{Type: msgStatus, HTML: html, Online: &online})
}

func (v *viewer) Countdown(remaining int) error {
	html, err := v.renderer.CountdownFragment(remaining)
	if err != nil {
		return err
	}
	return v.push(Message{Type: msgCountdown, HTML: html, Remaining: remaining})
}

func (v *viewer) push(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case v.send <- data:
		return nil
	case <-v.gone:
		return errViewerGone
	}
}

func (v *viewer) markGone() {
	v.goneOnce.Do(func() { close(v.gone) })
}

// readPump turns refresh frames into onRefresh calls and notices disconnects.
func (v *viewer) readPump(onRefresh func()) {
	defer v.markGone()

	v.conn.SetReadLimit(maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				v.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			v.logger.Debug("Ignoring malformed frame", zap.Error(err))
			continue
		}
		if m.Type == msgRefresh {
			onRefresh()
		}
	}
}

// writePump owns all writes to the connection. It closes the connection on
// exit, which also unblocks readPump.
func (v *viewer) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.markGone()
		v.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = v.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
			return
		case <-v.gone:
			return
		case data := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				v.logger.Debug("WebSocket write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
