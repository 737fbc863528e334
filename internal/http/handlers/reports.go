package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

// HandleVercelSummary reads the project behind the connected Vercel
// integration.
func (h *Handlers) HandleVercelSummary(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	summary, err := h.Service.VercelSummary(c.Request().Context(), projectID)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleAWSIdentity resolves the caller identity of the connected AWS
// credentials.
func (h *Handlers) HandleAWSIdentity(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	identity, err := h.Service.AWSIdentity(c.Request().Context(), projectID)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	return c.JSON(http.StatusOK, identity)
}
