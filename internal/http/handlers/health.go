package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

// HandleHealthz returns a simple health check response.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HandleReadyz reports whether the integration store is reachable.
func (h *Handlers) HandleReadyz(c *echo.Context) error {
	if err := h.Service.Ready(c.Request().Context()); err != nil {
		h.logger(c).Warn("readiness check failed", "error", err)
		return c.String(http.StatusServiceUnavailable, "not ready")
	}
	return c.String(http.StatusOK, "ok")
}
