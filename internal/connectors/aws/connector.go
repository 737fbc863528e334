// Package aws connects projects to AWS accounts with an access key pair and
// verifies the pair through STS before the integration is marked CONNECTED.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/configstore"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

// IdentityClient is the part of Client the connector depends on.
type IdentityClient interface {
	CallerIdentity(ctx context.Context) (Identity, error)
}

// ClientFactory builds an IdentityClient for a credential set.
type ClientFactory func(ctx context.Context, creds configstore.AWSCredentials) (IdentityClient, error)

// Connector implements registry.Connector for AWS.
type Connector struct {
	runner    *lifecycle.Runner
	newClient ClientFactory
}

var _ registry.Connector = (*Connector)(nil)

// NewConnector wires the connector to the lifecycle runner. A nil factory
// builds real STS clients whose HTTP timeout matches httpTimeout.
func NewConnector(runner *lifecycle.Runner, newClient ClientFactory, httpTimeout time.Duration) (*Connector, error) {
	if runner == nil {
		return nil, errors.New("aws connector requires a lifecycle runner")
	}
	if newClient == nil {
		newClient = DefaultClientFactory(httpTimeout)
	}
	return &Connector{runner: runner, newClient: newClient}, nil
}

func DefaultClientFactory(httpTimeout time.Duration) ClientFactory {
	return func(ctx context.Context, creds configstore.AWSCredentials) (IdentityClient, error) {
		return New(ctx, Options{
			Region:          creds.Region,
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			RoleARN:         creds.RoleARN,
			HTTPTimeout:     httpTimeout,
		})
	}
}

func (c *Connector) Type() registry.ProviderType { return registry.ProviderAWS }
func (c *Connector) DisplayName() string         { return "Amazon Web Services" }
func (c *Connector) SensitiveFields() []string   { return configstore.AWSSensitiveFields() }

func (c *Connector) Connect(ctx context.Context, projectID uuid.UUID, displayName string, credentials map[string]string) (registry.Integration, error) {
	if len(credentials) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, configstore.ErrEmptyCredentials)
	}
	creds := configstore.AWSCredentialsFromMap(credentials)
	if err := creds.Validate(); err != nil {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
	}
	payload, err := configstore.EncodeCredentials(creds)
	if err != nil {
		return registry.Integration{}, fmt.Errorf("encode aws credentials: %w", err)
	}

	return c.runner.Connect(ctx, lifecycle.ConnectRequest{
		ProjectID:    projectID,
		ProviderType: registry.ProviderAWS,
		DisplayName:  displayName,
		Payload:      payload,
		Verify: func(ctx context.Context) error {
			_, err := c.identity(ctx, creds)
			return err
		},
	})
}

// Update overlays the supplied fields on the stored pair. The merged pair is
// not re-verified.
func (c *Connector) Update(ctx context.Context, projectID uuid.UUID, credentials map[string]string) (registry.Integration, error) {
	if len(credentials) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, configstore.ErrEmptyCredentials)
	}
	update := configstore.AWSCredentialsFromMap(credentials)
	return c.runner.Update(ctx, projectID, registry.ProviderAWS, func(current []byte) ([]byte, error) {
		existing, err := configstore.DecodeAWSCredentials(current)
		if err != nil {
			return nil, fmt.Errorf("%w: decode stored aws credentials: %w", registry.ErrPersistence, err)
		}
		merged := configstore.MergeAWSCredentials(existing, update)
		if err := merged.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
		}
		return configstore.EncodeCredentials(merged)
	})
}

func (c *Connector) DisplayCredentials(ctx context.Context, projectID uuid.UUID) (map[string]string, error) {
	_, payload, err := c.runner.Current(ctx, projectID, registry.ProviderAWS)
	if err != nil {
		return nil, err
	}
	creds, err := configstore.DecodeAWSCredentials(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode stored aws credentials: %w", registry.ErrPersistence, err)
	}
	return creds.Display(), nil
}

// Identity resolves the caller identity behind the project's connected
// credentials.
func (c *Connector) Identity(ctx context.Context, projectID uuid.UUID) (Identity, error) {
	_, payload, err := c.runner.Connected(ctx, projectID, registry.ProviderAWS)
	if err != nil {
		return Identity{}, err
	}
	creds, err := configstore.DecodeAWSCredentials(payload)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: decode stored aws credentials: %w", registry.ErrPersistence, err)
	}
	return c.identity(ctx, creds)
}

func (c *Connector) identity(ctx context.Context, creds configstore.AWSCredentials) (Identity, error) {
	client, err := c.newClient(ctx, creds)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: build aws client: %w", registry.ErrExternalServiceUnavailable, err)
	}
	return client.CallerIdentity(ctx)
}
