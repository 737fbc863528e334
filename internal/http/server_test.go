package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/threadspace/threadspace/internal/config"
	"github.com/threadspace/threadspace/internal/connectors/aws"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/vercel"
	"github.com/threadspace/threadspace/internal/http/authn"
	"github.com/threadspace/threadspace/internal/http/handlers"
)

func TestHTTPErrorHandlerInternalErrorIsGeneric(t *testing.T) {
	e := echo.New()
	e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(handlers.ContextKeyRequestID, "req-123")

	es := &EchoServer{h: &handlers.Handlers{}, e: e}
	es.httpErrorHandler(c, errors.New("very sensitive error"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want %d", rec.Code, http.StatusInternalServerError)
	}

	body := rec.Body.String()
	if strings.Contains(body, "very sensitive") {
		t.Fatalf("response leaked error details: %q", body)
	}
	if !strings.Contains(body, "Internal server error") {
		t.Fatalf("response missing generic message: %q", body)
	}
	if !strings.Contains(body, "Reference: req-123") {
		t.Fatalf("response missing request reference: %q", body)
	}
	if !strings.Contains(body, "Code: "+handlers.InternalErrorCode) {
		t.Fatalf("response missing error code: %q", body)
	}
}

func TestHTTPErrorHandlerNotFoundDoesNotLeakMessage(t *testing.T) {
	e := echo.New()
	e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	es := &EchoServer{h: &handlers.Handlers{}, e: e}
	es.httpErrorHandler(c, echo.NewHTTPError(http.StatusNotFound, "leaky not found"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want %d", rec.Code, http.StatusNotFound)
	}
	body := rec.Body.String()
	if strings.Contains(body, "leaky") {
		t.Fatalf("response leaked error details: %q", body)
	}
	if !strings.Contains(body, "404 page not found") {
		t.Fatalf("response missing not found message: %q", body)
	}
}

func TestHTTPStatusFromError(t *testing.T) {
	if got := httpStatusFromError(echo.ErrNotFound); got != http.StatusNotFound {
		t.Fatalf("status=%d want %d", got, http.StatusNotFound)
	}
	if got := httpStatusFromError(echo.ErrForbidden); got != http.StatusForbidden {
		t.Fatalf("status=%d want %d", got, http.StatusForbidden)
	}
	if got := httpStatusFromError(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status=%d want %d", got, http.StatusInternalServerError)
	}
}

func TestHTTPErrorHandlerBadRequestUsesStatusText(t *testing.T) {
	e := echo.New()
	e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/bad", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	es := &EchoServer{h: &handlers.Handlers{}, e: e}
	es.httpErrorHandler(c, echo.NewHTTPError(http.StatusBadRequest, "leaky bad request"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want %d", rec.Code, http.StatusBadRequest)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != http.StatusText(http.StatusBadRequest) {
		t.Fatalf("body=%q want %q", got, http.StatusText(http.StatusBadRequest))
	}
}

type fakeService struct {
	connectErr  error
	lastConnect struct {
		projectID    uuid.UUID
		providerType string
		displayName  string
		credentials  map[string]string
	}
	display    map[string]string
	displayErr error
	list       []registry.Integration
	summaryErr error
	readyErr   error
}

func (f *fakeService) Connect(_ context.Context, projectID uuid.UUID, providerType, displayName string, credentials map[string]string) (registry.Integration, error) {
	f.lastConnect.projectID = projectID
	f.lastConnect.providerType = providerType
	f.lastConnect.displayName = displayName
	f.lastConnect.credentials = credentials
	if f.connectErr != nil {
		return registry.Integration{}, f.connectErr
	}
	return registry.Integration{ID: uuid.New(), ProjectID: projectID, ProviderType: registry.ProviderVercel, Status: registry.StatusConnected, DisplayName: displayName}, nil
}

func (f *fakeService) Update(_ context.Context, projectID uuid.UUID, _ string, _ map[string]string) (registry.Integration, error) {
	return registry.Integration{ProjectID: projectID, Status: registry.StatusConnected}, nil
}

func (f *fakeService) DisplayCredentials(context.Context, uuid.UUID, string) (map[string]string, error) {
	return f.display, f.displayErr
}

func (f *fakeService) ListForProject(context.Context, uuid.UUID) ([]registry.Integration, error) {
	return f.list, nil
}

func (f *fakeService) Providers() []registry.Connector { return nil }

func (f *fakeService) VercelSummary(context.Context, uuid.UUID) (vercel.ProjectSummary, error) {
	if f.summaryErr != nil {
		return vercel.ProjectSummary{}, f.summaryErr
	}
	return vercel.ProjectSummary{ID: "prj_1", Name: "site"}, nil
}

func (f *fakeService) AWSIdentity(context.Context, uuid.UUID) (aws.Identity, error) {
	return aws.Identity{Account: "123456789012"}, nil
}

func (f *fakeService) Ready(context.Context) error { return f.readyErr }

const testToken = "internal-s3cret"

func newTestServer(t *testing.T, svc *fakeService) *EchoServer {
	t.Helper()
	es, err := NewEchoServer(config.Config{InternalSyncToken: testToken}, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}
	return es
}

func do(t *testing.T, es *EchoServer, method, path, body string, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if withToken {
		req.Header.Set(authn.HeaderInternalToken, testToken)
	}
	rec := httptest.NewRecorder()
	es.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireInternalToken(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{})
	project := uuid.NewString()
	rec := do(t, es, http.MethodGet, "/projects/"+project+"/integrations", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
	rec = do(t, es, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d want 200", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("response missing X-Request-ID")
	}
}

func TestConnectRoute(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	es := newTestServer(t, svc)
	project := uuid.New()
	rec := do(t, es, http.MethodPost, "/projects/"+project.String()+"/integrations/connect",
		`{"integrationType":"VERCEL","displayName":"Marketing","credentials":{"apiToken":"tok_abcdef1234","projectName":"site"}}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastConnect.projectID != project || svc.lastConnect.providerType != "VERCEL" || svc.lastConnect.credentials["projectName"] != "site" {
		t.Fatalf("service saw %+v", svc.lastConnect)
	}
	var got registry.Integration
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got.Status != registry.StatusConnected || got.DisplayName != "Marketing" {
		t.Fatalf("response = %+v", got)
	}
	if strings.Contains(rec.Body.String(), "tok_abcdef1234") {
		t.Fatalf("response leaked credentials: %s", rec.Body.String())
	}
}

func TestConnectRouteMapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{name: "invalid", err: fmt.Errorf("%w: VERCEL projectName is required", registry.ErrInvalidArgument), wantCode: http.StatusBadRequest, wantKind: "INVALID_ARGUMENT"},
		{name: "rejected", err: fmt.Errorf("%w: aws InvalidClientTokenId", registry.ErrProviderCredentialsInvalid), wantCode: http.StatusUnprocessableEntity, wantKind: "PROVIDER_CREDENTIALS_INVALID"},
		{name: "unavailable", err: registry.ErrExternalServiceUnavailable, wantCode: http.StatusServiceUnavailable, wantKind: "EXTERNAL_SERVICE_UNAVAILABLE"},
		{name: "not found", err: registry.ErrNotFound, wantCode: http.StatusNotFound, wantKind: "NOT_FOUND"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			es := newTestServer(t, &fakeService{connectErr: tc.err})
			rec := do(t, es, http.MethodPost, "/projects/"+uuid.NewString()+"/integrations/connect", `{"integrationType":"AWS","displayName":"Prod","credentials":{}}`, true)
			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			var body handlers.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if body.Code != tc.wantKind {
				t.Fatalf("code=%q want %q", body.Code, tc.wantKind)
			}
			if body.RequestID == "" {
				t.Fatal("error response missing request id")
			}
		})
	}
}

func TestConnectRouteRejectsBadProjectID(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{})
	rec := do(t, es, http.MethodPost, "/projects/not-a-uuid/integrations/connect", `{}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
}

func TestPersistenceFailureIsGeneric(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{displayErr: fmt.Errorf("%w: dial postgres 10.0.0.5", registry.ErrPersistence)})
	rec := do(t, es, http.MethodGet, "/projects/"+uuid.NewString()+"/integrations/credentials/VERCEL", "", true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("response leaked error details: %q", rec.Body.String())
	}
}

func TestCredentialsRoute(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{display: map[string]string{"apiToken": "****1234", "projectName": "site"}})
	rec := do(t, es, http.MethodGet, "/projects/"+uuid.NewString()+"/integrations/credentials/VERCEL", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got["apiToken"] != "****1234" || got["projectName"] != "site" {
		t.Fatalf("body = %v", got)
	}
}

func TestListRouteReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{})
	rec := do(t, es, http.MethodGet, "/projects/"+uuid.NewString()+"/integrations", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body=%q want []", got)
	}
}

func TestReportRoutes(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{})
	project := uuid.NewString()
	rec := do(t, es, http.MethodGet, "/projects/"+project+"/vercel/summary", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "prj_1") {
		t.Fatalf("summary status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(t, es, http.MethodGet, "/projects/"+project+"/aws/identity", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "123456789012") {
		t.Fatalf("identity status=%d body=%s", rec.Code, rec.Body.String())
	}

	es = newTestServer(t, &fakeService{summaryErr: registry.ErrProviderCredentialsInvalid})
	rec = do(t, es, http.MethodGet, "/projects/"+project+"/vercel/summary", "", true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("summary status=%d want 422", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	es := newTestServer(t, &fakeService{readyErr: errors.New("db down")})
	rec := do(t, es, http.MethodGet, "/readyz", "", false)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}
}
