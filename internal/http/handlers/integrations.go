package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

type connectRequest struct {
	IntegrationType string            `json:"integrationType"`
	DisplayName     string            `json:"displayName"`
	Credentials     map[string]string `json:"credentials"`
}

type updateRequest struct {
	IntegrationType string            `json:"integrationType"`
	Credentials     map[string]string `json:"credentials"`
}

type providerResponse struct {
	Type            registry.ProviderType `json:"integrationType"`
	DisplayName     string                `json:"displayName"`
	SensitiveFields []string              `json:"sensitiveFields"`
}

// HandleConnect stores and verifies a new integration.
func (h *Handlers) HandleConnect(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return h.RenderAPIError(c, fmt.Errorf("%w: malformed request body", registry.ErrInvalidArgument))
	}

	integration, err := h.Service.Connect(c.Request().Context(), projectID, req.IntegrationType, req.DisplayName, req.Credentials)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	return c.JSON(http.StatusCreated, integration)
}

// HandleUpdate merges the supplied credential fields over the stored ones.
func (h *Handlers) HandleUpdate(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return h.RenderAPIError(c, fmt.Errorf("%w: malformed request body", registry.ErrInvalidArgument))
	}

	integration, err := h.Service.Update(c.Request().Context(), projectID, req.IntegrationType, req.Credentials)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	return c.JSON(http.StatusOK, integration)
}

// HandleCredentials returns the masked stored credentials.
func (h *Handlers) HandleCredentials(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	providerType := strings.TrimSpace(c.Param("integrationType"))

	display, err := h.Service.DisplayCredentials(c.Request().Context(), projectID, providerType)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	return c.JSON(http.StatusOK, display)
}

func (h *Handlers) HandleListIntegrations(c *echo.Context) error {
	projectID, err := projectIDParam(c)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	integrations, err := h.Service.ListForProject(c.Request().Context(), projectID)
	if err != nil {
		return h.RenderAPIError(c, err)
	}
	if integrations == nil {
		integrations = []registry.Integration{}
	}
	return c.JSON(http.StatusOK, integrations)
}

func (h *Handlers) HandleProviders(c *echo.Context) error {
	connectors := h.Service.Providers()
	out := make([]providerResponse, 0, len(connectors))
	for _, connector := range connectors {
		out = append(out, providerResponse{
			Type:            connector.Type(),
			DisplayName:     connector.DisplayName(),
			SensitiveFields: connector.SensitiveFields(),
		})
	}
	return c.JSON(http.StatusOK, out)
}
