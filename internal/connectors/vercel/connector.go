// Package vercel connects projects to a Vercel project with an API token and
// reads a summary of that project back for reporting.
package vercel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/configstore"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

const defaultDeploymentLimit = 5

type Options struct {
	BaseURL string

	// VerifyOnConnect looks the configured project up with the supplied token
	// before the integration is marked CONNECTED. When false the integration
	// is connected as soon as it is stored.
	VerifyOnConnect bool

	// HTTPClient overrides the client used for API calls.
	HTTPClient *http.Client

	DeploymentLimit int
}

// Connector implements registry.Connector for Vercel.
type Connector struct {
	runner *lifecycle.Runner
	opts   Options
}

var _ registry.Connector = (*Connector)(nil)

func NewConnector(runner *lifecycle.Runner, opts Options) (*Connector, error) {
	if runner == nil {
		return nil, errors.New("vercel connector requires a lifecycle runner")
	}
	opts.BaseURL = strings.TrimSpace(opts.BaseURL)
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DeploymentLimit <= 0 {
		opts.DeploymentLimit = defaultDeploymentLimit
	}
	return &Connector{runner: runner, opts: opts}, nil
}

func (c *Connector) Type() registry.ProviderType { return registry.ProviderVercel }
func (c *Connector) DisplayName() string         { return "Vercel" }
func (c *Connector) SensitiveFields() []string   { return configstore.VercelSensitiveFields() }

func (c *Connector) Connect(ctx context.Context, projectID uuid.UUID, displayName string, credentials map[string]string) (registry.Integration, error) {
	if len(credentials) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, configstore.ErrEmptyCredentials)
	}
	creds := configstore.VercelCredentialsFromMap(credentials)
	if err := creds.Validate(); err != nil {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
	}
	payload, err := configstore.EncodeCredentials(creds)
	if err != nil {
		return registry.Integration{}, fmt.Errorf("encode vercel credentials: %w", err)
	}

	req := lifecycle.ConnectRequest{
		ProjectID:    projectID,
		ProviderType: registry.ProviderVercel,
		DisplayName:  displayName,
		Payload:      payload,
	}
	if c.opts.VerifyOnConnect {
		req.Verify = func(ctx context.Context) error { return c.verify(ctx, creds) }
	}
	return c.runner.Connect(ctx, req)
}

// verify looks the configured project up. A missing project is reported as
// rejected credentials since the token cannot reach it.
func (c *Connector) verify(ctx context.Context, creds configstore.VercelCredentials) error {
	client, err := c.client(creds)
	if err != nil {
		return err
	}
	_, err = client.GetProject(ctx, creds.ProjectName)
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("%w: %w", registry.ErrProviderCredentialsInvalid, err)
	}
	return err
}

func (c *Connector) Update(ctx context.Context, projectID uuid.UUID, credentials map[string]string) (registry.Integration, error) {
	if len(credentials) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, configstore.ErrEmptyCredentials)
	}
	update := configstore.VercelCredentialsFromMap(credentials)
	return c.runner.Update(ctx, projectID, registry.ProviderVercel, func(current []byte) ([]byte, error) {
		existing, err := configstore.DecodeVercelCredentials(current)
		if err != nil {
			return nil, fmt.Errorf("%w: decode stored vercel credentials: %w", registry.ErrPersistence, err)
		}
		merged := configstore.MergeVercelCredentials(existing, update)
		if err := merged.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
		}
		return configstore.EncodeCredentials(merged)
	})
}

func (c *Connector) DisplayCredentials(ctx context.Context, projectID uuid.UUID) (map[string]string, error) {
	_, payload, err := c.runner.Current(ctx, projectID, registry.ProviderVercel)
	if err != nil {
		return nil, err
	}
	creds, err := configstore.DecodeVercelCredentials(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode stored vercel credentials: %w", registry.ErrPersistence, err)
	}
	return creds.Display(), nil
}

func (c *Connector) client(creds configstore.VercelCredentials) (*Client, error) {
	client, err := New(c.opts.BaseURL, creds.APIToken, creds.TeamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
	}
	if c.opts.HTTPClient != nil {
		client.HTTP = c.opts.HTTPClient
	}
	return client, nil
}
