// Package secretstore persists integrations together with their credential
// payloads.
package secretstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

// ErrStatusConflict is returned when a status change is attempted on a row
// that already left PENDING.
var ErrStatusConflict = errors.New("integration status already finalized")

// Secret is the credential payload owned by exactly one integration.
type Secret struct {
	IntegrationID uuid.UUID
	ProviderType  registry.ProviderType
	Payload       []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateParams struct {
	ProjectID    uuid.UUID
	ProviderType registry.ProviderType
	DisplayName  string
	Payload      []byte
}

// Store is the durable home of integrations and secrets. Lookups that find
// nothing return an error wrapping registry.ErrNotFound; storage failures
// wrap registry.ErrPersistence.
type Store interface {
	// CreatePending writes a PENDING integration and its secret atomically.
	CreatePending(ctx context.Context, in CreateParams) (registry.Integration, error)

	// Finalize moves a PENDING integration to CONNECTED or FAILED.
	Finalize(ctx context.Context, integrationID uuid.UUID, status registry.Status) (registry.Integration, error)

	// Current returns the newest CONNECTED integration for the pair, or the
	// newest integration of any status when none is connected.
	Current(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error)

	// Connected returns the newest CONNECTED integration for the pair.
	Connected(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error)

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]registry.Integration, error)

	GetSecret(ctx context.Context, integrationID uuid.UUID) (Secret, error)

	// UpdateSecret replaces the payload and bumps the owning integration's
	// updatedAt in the same unit of work.
	UpdateSecret(ctx context.Context, integrationID uuid.UUID, payload []byte) (registry.Integration, error)

	Ping(ctx context.Context) error
}

// LockKey is the advisory lock key serializing writes for one
// (project, provider) pair.
func LockKey(projectID uuid.UUID, providerType registry.ProviderType) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("integration"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(projectID[:])
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.ToUpper(string(providerType))))
	return int64(h.Sum64())
}

func validateCreate(in CreateParams) error {
	if in.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", registry.ErrInvalidArgument)
	}
	if len(in.Payload) == 0 {
		return fmt.Errorf("%w: secret payload is required", registry.ErrInvalidArgument)
	}
	return nil
}
