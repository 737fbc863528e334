// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/threadspace/threadspace/internal/connectors/aws"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/vercel"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// IntegrationService is what the handlers need from the integrations layer.
type IntegrationService interface {
	Connect(ctx context.Context, projectID uuid.UUID, providerType, displayName string, credentials map[string]string) (registry.Integration, error)
	Update(ctx context.Context, projectID uuid.UUID, providerType string, credentials map[string]string) (registry.Integration, error)
	DisplayCredentials(ctx context.Context, projectID uuid.UUID, providerType string) (map[string]string, error)
	ListForProject(ctx context.Context, projectID uuid.UUID) ([]registry.Integration, error)
	Providers() []registry.Connector
	VercelSummary(ctx context.Context, projectID uuid.UUID) (vercel.ProjectSummary, error)
	AWSIdentity(ctx context.Context, projectID uuid.UUID) (aws.Identity, error)
	Ready(ctx context.Context) error
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Service IntegrationService
	Logger  *slog.Logger
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// StatusForError maps a registry error kind onto an HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrProviderCredentialsInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrExternalServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RenderAPIError writes err as an ErrorResponse. Client-caused kinds carry the
// error text. Everything else is logged and answered with a generic message.
func (h *Handlers) RenderAPIError(c *echo.Context, err error) error {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		return h.RenderError(c, err)
	}
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	resp := ErrorResponse{
		Code:      strings.ToUpper(registry.ErrorKind(err)),
		Message:   err.Error(),
		RequestID: requestID,
	}
	switch status {
	case http.StatusUnprocessableEntity:
		resp.Message = "the provider rejected the supplied credentials"
	case http.StatusServiceUnavailable:
		resp.Message = "the provider could not be reached, try again later"
	}
	h.logger(c).Warn("api request failed",
		"request_id", requestID,
		"path", requestPath(c),
		"status", status,
		"kind", registry.ErrorKind(err),
		"error", err,
	)
	return c.JSON(status, resp)
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	h.logger(c).Error("http error",
		"request_id", requestID,
		"method", method,
		"path", requestPath(c),
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

func (h *Handlers) logger(c *echo.Context) *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	if l := c.Logger(); l != nil {
		return l
	}
	return slog.Default()
}

func requestPath(c *echo.Context) string {
	if req := c.Request(); req != nil && req.URL != nil {
		return req.URL.Path
	}
	return ""
}

func projectIDParam(c *echo.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param("projectId"))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: project id %q is not a UUID", registry.ErrInvalidArgument, raw)
	}
	return id, nil
}
