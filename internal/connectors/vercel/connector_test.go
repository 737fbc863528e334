package vercel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/configstore"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/secretstore"
)

func newTestConnector(t *testing.T, verify bool, rt roundTripperFunc) (*Connector, *int32) {
	t.Helper()
	runner, err := lifecycle.New(secretstore.NewMemory(), time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("lifecycle.New error: %v", err)
	}
	var calls int32
	httpClient := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		if rt == nil {
			return nil, errors.New("unexpected request to " + req.URL.Path)
		}
		return rt(req)
	})}
	conn, err := NewConnector(runner, Options{BaseURL: "https://vercel.test", VerifyOnConnect: verify, HTTPClient: httpClient})
	if err != nil {
		t.Fatalf("NewConnector error: %v", err)
	}
	return conn, &calls
}

func TestConnectWithoutVerificationConnectsImmediately(t *testing.T) {
	t.Parallel()

	conn, calls := newTestConnector(t, false, nil)
	project := uuid.New()
	got, err := conn.Connect(context.Background(), project, "Marketing", map[string]string{
		configstore.FieldAPIToken:    "tok_abcdef1234",
		configstore.FieldProjectName: "site",
	})
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if got.Status != registry.StatusConnected {
		t.Fatalf("Status = %q, want CONNECTED", got.Status)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatalf("expected no API calls, got %d", *calls)
	}

	display, err := conn.DisplayCredentials(context.Background(), project)
	if err != nil {
		t.Fatalf("DisplayCredentials error: %v", err)
	}
	if display[configstore.FieldAPIToken] != "****1234" {
		t.Fatalf("apiToken = %q, want ****1234", display[configstore.FieldAPIToken])
	}
	if display[configstore.FieldProjectName] != "site" {
		t.Fatalf("projectName = %q, want site", display[configstore.FieldProjectName])
	}
	if _, ok := display[configstore.FieldTeamID]; ok {
		t.Fatalf("display should omit teamId: %v", display)
	}
}

func TestUpdateTeamOnlyPreservesStoredFields(t *testing.T) {
	t.Parallel()

	conn, _ := newTestConnector(t, false, nil)
	project := uuid.New()
	if _, err := conn.Connect(context.Background(), project, "Marketing", map[string]string{
		configstore.FieldAPIToken:    "tok_abcdef1234",
		configstore.FieldProjectName: "site",
	}); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if _, err := conn.Update(context.Background(), project, map[string]string{configstore.FieldTeamID: "team_1"}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	display, err := conn.DisplayCredentials(context.Background(), project)
	if err != nil {
		t.Fatalf("DisplayCredentials error: %v", err)
	}
	want := map[string]string{
		configstore.FieldAPIToken:    "****1234",
		configstore.FieldProjectName: "site",
		configstore.FieldTeamID:      "team_1",
	}
	if len(display) != len(want) {
		t.Fatalf("display = %v, want %v", display, want)
	}
	for k, v := range want {
		if display[k] != v {
			t.Fatalf("display[%s] = %q, want %q", k, display[k], v)
		}
	}
}

func TestConnectMissingProjectNameIsInvalid(t *testing.T) {
	t.Parallel()

	conn, _ := newTestConnector(t, true, nil)
	_, err := conn.Connect(context.Background(), uuid.New(), "Marketing", map[string]string{configstore.FieldAPIToken: "tok"})
	if !errors.Is(err, registry.ErrInvalidArgument) {
		t.Fatalf("Connect error = %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), configstore.FieldProjectName) {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestConnectWithVerification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantStatus registry.Status
		wantErr    error
	}{
		{name: "accepted", status: http.StatusOK, wantStatus: registry.StatusConnected},
		{name: "rejected", status: http.StatusUnauthorized, wantStatus: registry.StatusFailed, wantErr: registry.ErrProviderCredentialsInvalid},
		{name: "unknown project", status: http.StatusNotFound, wantStatus: registry.StatusFailed, wantErr: registry.ErrProviderCredentialsInvalid},
		{name: "outage", status: http.StatusServiceUnavailable, wantStatus: registry.StatusFailed, wantErr: registry.ErrExternalServiceUnavailable},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conn, _ := newTestConnector(t, true, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(req, tc.status, `{"id":"prj_1","name":"site"}`), nil
			})
			got, err := conn.Connect(context.Background(), uuid.New(), "Marketing", map[string]string{
				configstore.FieldAPIToken:    "tok_abcdef1234",
				configstore.FieldProjectName: "site",
			})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("Connect error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("Connect error = %v, want %v", err, tc.wantErr)
			}
			if got.Status != tc.wantStatus {
				t.Fatalf("Status = %q, want %q", got.Status, tc.wantStatus)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	conn, _ := newTestConnector(t, false, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/v9/projects/site":
			return jsonResponse(req, http.StatusOK, `{"id":"prj_1","name":"site","framework":"nextjs","git":{"repository":"acme/site"}}`), nil
		case "/v9/projects/prj_1/domains":
			return jsonResponse(req, http.StatusOK, `{"domains":[{"name":"acme.dev","verified":true,"primary":true}]}`), nil
		case "/v10/projects/prj_1/env":
			return jsonResponse(req, http.StatusOK, `{"envs":[{"key":"DATABASE_URL","target":["production"],"value":"postgres://secret"}]}`), nil
		case "/v6/deployments":
			return jsonResponse(req, http.StatusOK, `{"deployments":[{"uid":"dpl_1","url":"site.vercel.app","state":"READY","createdAt":1}]}`), nil
		default:
			return jsonResponse(req, http.StatusNotFound, `{}`), nil
		}
	})
	project := uuid.New()
	if _, err := conn.Summary(context.Background(), project); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("Summary before connect error = %v, want ErrNotFound", err)
	}
	if _, err := conn.Connect(context.Background(), project, "Marketing", map[string]string{
		configstore.FieldAPIToken:    "tok_abcdef1234",
		configstore.FieldProjectName: "site",
	}); err != nil {
		t.Fatalf("Connect error: %v", err)
	}

	summary, err := conn.Summary(context.Background(), project)
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if summary.ID != "prj_1" || summary.Repository != "acme/site" || summary.Framework != "nextjs" {
		t.Fatalf("summary = %#v", summary)
	}
	if len(summary.Domains) != 1 || !summary.Domains[0].Primary {
		t.Fatalf("domains = %#v", summary.Domains)
	}
	if len(summary.Envs) != 1 || summary.Envs[0].Key != "DATABASE_URL" {
		t.Fatalf("envs = %#v", summary.Envs)
	}
	if len(summary.Deployments) != 1 || summary.Deployments[0].ID != "dpl_1" {
		t.Fatalf("deployments = %#v", summary.Deployments)
	}
}

func TestSummaryPropagatesRejectedToken(t *testing.T) {
	t.Parallel()

	conn, _ := newTestConnector(t, false, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusForbidden, `{"error":{"code":"forbidden"}}`), nil
	})
	project := uuid.New()
	if _, err := conn.Connect(context.Background(), project, "Marketing", map[string]string{
		configstore.FieldAPIToken:    "tok_abcdef1234",
		configstore.FieldProjectName: "site",
	}); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if _, err := conn.Summary(context.Background(), project); !errors.Is(err, registry.ErrProviderCredentialsInvalid) {
		t.Fatalf("Summary error = %v, want ErrProviderCredentialsInvalid", err)
	}
}
