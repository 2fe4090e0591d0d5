package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/metrics"
	"github.com/souvik03-136/craftwatch/backend/internal/presenter"
	"github.com/souvik03-136/craftwatch/backend/internal/session"
)

// Handler serves the dashboard pages.
type Handler struct {
	source  presenter.Source
	gate    *session.Gate
	store   *session.Store
	metrics *metrics.Collector
	logger  *zap.Logger
	target  string
	hub     *Hub
}

// Index shows the password prompt until the session is authenticated, then
// the dashboard with a fresh probe.
func (h *Handler) Index(c echo.Context) error {
	if !authenticated(c) {
		return c.Render(http.StatusOK, viewLogin, nil)
	}
	status := h.source.Probe(c.Request().Context())
	h.hub.Rendered(sessionFrom(c).ID(), status)
	return c.Render(http.StatusOK, viewPage, status)
}

// Login checks the submitted password. A match sends the browser back to the
// dashboard; anything else shows the same prompt again. A session that is
// already in goes straight back to the dashboard.
func (h *Handler) Login(c echo.Context) error {
	if authenticated(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	sess := sessionFrom(c)
	if h.gate.Authenticate(sess, c.FormValue("password")) {
		h.metrics.RecordLogin(true)
		h.logger.Info("🔓 Dashboard unlocked", zap.String("session", sess.ID()))
		return c.Redirect(http.StatusSeeOther, "/")
	}
	h.metrics.RecordLogin(false)
	h.logger.Debug("🔒 Password mismatch", zap.String("remote_ip", c.RealIP()))
	return c.Render(http.StatusUnauthorized, viewLogin, nil)
}

// Refresh is the script-free "Refresh Now": the redirected GET re-probes.
func (h *Handler) Refresh(c echo.Context) error {
	if authenticated(c) {
		h.metrics.RecordRefresh()
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status            string   `json:"status"`
	Target            string   `json:"target"`
	ActiveViewers     int      `json:"active_viewers"`
	Sessions          int      `json:"sessions"`
	MemoryUsedPercent *float64 `json:"memory_used_percent,omitempty"`
}

// Health reports process liveness. It does not probe the Minecraft server.
func (h *Handler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:        "ok",
		Target:        h.target,
		ActiveViewers: h.hub.Viewers(),
		Sessions:      h.store.Len(),
	}
	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.logger.Warn("⚠️ Memory stats error", zap.Error(err))
	} else {
		resp.MemoryUsedPercent = &memStat.UsedPercent
	}
	return c.JSON(http.StatusOK, resp)
}
