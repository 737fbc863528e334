// Package integrations is the entry point used by the API layer. It resolves
// the connector for a provider and enforces the request-level checks that
// apply to every provider.
package integrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/aws"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/secretstore"
	"github.com/threadspace/threadspace/internal/connectors/vercel"
)

// VercelSummaries reads the connected Vercel project.
type VercelSummaries interface {
	Summary(ctx context.Context, projectID uuid.UUID) (vercel.ProjectSummary, error)
}

// AWSIdentities resolves the caller identity of the connected AWS account.
type AWSIdentities interface {
	Identity(ctx context.Context, projectID uuid.UUID) (aws.Identity, error)
}

type Service struct {
	registry *registry.Registry
	store    secretstore.Store
	logger   *slog.Logger

	vercel VercelSummaries
	aws    AWSIdentities
}

type Deps struct {
	Registry *registry.Registry
	Store    secretstore.Store
	Logger   *slog.Logger

	// Optional read paths. When nil the matching report is reported as
	// having no registered provider.
	Vercel VercelSummaries
	AWS    AWSIdentities
}

func NewService(deps Deps) (*Service, error) {
	if deps.Registry == nil {
		return nil, errors.New("integration service requires a registry")
	}
	if deps.Store == nil {
		return nil, errors.New("integration service requires a secret store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: deps.Registry,
		store:    deps.Store,
		logger:   logger,
		vercel:   deps.Vercel,
		aws:      deps.AWS,
	}, nil
}

func (s *Service) Connect(ctx context.Context, projectID uuid.UUID, providerType, displayName string, credentials map[string]string) (registry.Integration, error) {
	if err := requireProject(projectID); err != nil {
		return registry.Integration{}, err
	}
	connector, err := s.connector(providerType)
	if err != nil {
		return registry.Integration{}, err
	}
	return connector.Connect(ctx, projectID, displayName, credentials)
}

func (s *Service) Update(ctx context.Context, projectID uuid.UUID, providerType string, credentials map[string]string) (registry.Integration, error) {
	if err := requireProject(projectID); err != nil {
		return registry.Integration{}, err
	}
	connector, err := s.connector(providerType)
	if err != nil {
		return registry.Integration{}, err
	}
	return connector.Update(ctx, projectID, credentials)
}

func (s *Service) DisplayCredentials(ctx context.Context, projectID uuid.UUID, providerType string) (map[string]string, error) {
	if err := requireProject(projectID); err != nil {
		return nil, err
	}
	connector, err := s.connector(providerType)
	if err != nil {
		return nil, err
	}
	return connector.DisplayCredentials(ctx, projectID)
}

// ListForProject returns every integration of the project, newest first.
func (s *Service) ListForProject(ctx context.Context, projectID uuid.UUID) ([]registry.Integration, error) {
	if err := requireProject(projectID); err != nil {
		return nil, err
	}
	return s.store.ListByProject(ctx, projectID)
}

// Providers lists the connectors available for new integrations.
func (s *Service) Providers() []registry.Connector {
	return s.registry.All()
}

func (s *Service) VercelSummary(ctx context.Context, projectID uuid.UUID) (vercel.ProjectSummary, error) {
	if err := requireProject(projectID); err != nil {
		return vercel.ProjectSummary{}, err
	}
	if s.vercel == nil {
		return vercel.ProjectSummary{}, fmt.Errorf("%w: %s", registry.ErrNoProviderRegistered, registry.ProviderVercel)
	}
	return s.vercel.Summary(ctx, projectID)
}

func (s *Service) AWSIdentity(ctx context.Context, projectID uuid.UUID) (aws.Identity, error) {
	if err := requireProject(projectID); err != nil {
		return aws.Identity{}, err
	}
	if s.aws == nil {
		return aws.Identity{}, fmt.Errorf("%w: %s", registry.ErrNoProviderRegistered, registry.ProviderAWS)
	}
	return s.aws.Identity(ctx, projectID)
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) connector(providerType string) (registry.Connector, error) {
	parsed, err := registry.ParseProviderType(providerType)
	if err != nil {
		return nil, err
	}
	connector, err := s.registry.Get(parsed)
	if err != nil {
		s.logger.Error("no connector registered for provider", "provider", string(parsed))
		return nil, err
	}
	return connector, nil
}

func requireProject(projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	return nil
}
