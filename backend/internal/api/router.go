package api

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/souvik03-136/craftwatch/backend/internal/models"
	"github.com/souvik03-136/craftwatch/backend/internal/presenter"
	"github.com/souvik03-136/craftwatch/backend/internal/telemetry"
)

const (
	viewPage  = "page"
	viewLogin = "login"
)

// templateRenderer adapts presenter.Renderer to echo.Renderer.
type templateRenderer struct {
	r *presenter.Renderer
}

func (t templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	switch name {
	case viewLogin:
		return t.r.Login(w)
	case viewPage:
		status, ok := data.(models.ServerStatus)
		if !ok {
			return fmt.Errorf("page view needs models.ServerStatus, got %T", data)
		}
		return t.r.Page(w, status)
	default:
		return fmt.Errorf("unknown view %q", name)
	}
}

// RegisterRoutes sets up middleware and the dashboard endpoints.
func RegisterRoutes(e *echo.Echo, h *Handler, d Deps) {
	e.Renderer = templateRenderer{r: d.Renderer}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(telemetry.ServiceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/metrics"
	})))
	e.Use(RequestLogger(d.Logger))

	// Operational endpoints
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	// Dashboard
	sessions := Sessions(d.Store)
	e.GET("/", h.Index, sessions)
	e.POST("/login", h.Login, sessions)
	e.POST("/refresh", h.Refresh, sessions)
	e.GET("/ws", h.hub.Live, sessions)
}
