package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/threadspace/threadspace/internal/config"
	"github.com/threadspace/threadspace/internal/http/authn"
	"github.com/threadspace/threadspace/internal/http/handlers"
)

const maxRequestIDLength = 128

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h      *handlers.Handlers
	e      *echo.Echo
	cfg    config.Config
	logger *slog.Logger
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, svc handlers.IntegrationService, logger *slog.Logger) (*EchoServer, error) {
	if svc == nil {
		return nil, errors.New("http server requires an integration service")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.InternalSyncToken) == "" {
		logger.Warn("INTERNAL_SYNC_TOKEN is empty, every project route will answer 401")
	}

	e := echo.New()
	e.Logger = logger
	es := &EchoServer{
		h:      &handlers.Handlers{Service: svc, Logger: logger},
		e:      e,
		cfg:    cfg,
		logger: logger,
	}
	e.HTTPErrorHandler = es.httpErrorHandler
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.Recover())
	es.e.Use(requestID)
	es.e.Use(es.accessLog)

	es.e.GET("/healthz", es.h.HandleHealthz)
	es.e.GET("/readyz", es.h.HandleReadyz)

	api := es.e.Group("")
	api.Use(authn.RequireInternalToken(es.cfg.InternalSyncToken))
	api.GET("/integrations/providers", es.h.HandleProviders)
	api.POST("/projects/:projectId/integrations/connect", es.h.HandleConnect)
	api.PUT("/projects/:projectId/integrations/update", es.h.HandleUpdate)
	api.GET("/projects/:projectId/integrations/credentials/:integrationType", es.h.HandleCredentials)
	api.GET("/projects/:projectId/integrations", es.h.HandleListIntegrations)
	api.GET("/projects/:projectId/vercel/summary", es.h.HandleVercelSummary)
	api.GET("/projects/:projectId/aws/identity", es.h.HandleAWSIdentity)
}

// Handler exposes the router for an http.Server.
func (es *EchoServer) Handler() http.Handler {
	return es.e
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if err == nil {
		return
	}
	status := httpStatusFromError(err)
	switch status {
	case http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	case http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	default:
		_ = c.String(status, http.StatusText(status))
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code >= 400 && he.Code <= 599 {
		return he.Code
	}
	return http.StatusInternalServerError
}

// requestID reuses a sane inbound X-Request-ID or mints one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func (es *EchoServer) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		started := time.Now()
		err := next(c)
		id, _ := c.Get(handlers.ContextKeyRequestID).(string)
		es.logger.Info("http request",
			"request_id", id,
			"method", c.Request().Method,
			"route", c.Path(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return err
	}
}
