package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
)

const healthMessage = "A Simple Todo API Built With Go and Echo"

type Pinger func(ctx context.Context) error

type HealthHTTP struct {
	Ping Pinger
}

func (h *HealthHTTP) Checker(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{Status: statusSuccess, Message: healthMessage})
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	if h.Ping == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.NoContent(http.StatusOK)
}
