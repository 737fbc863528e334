package secretstore

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

// Memory is an in-process Store for local development and tests. Payloads
// are kept unsealed.
type Memory struct {
	mu           sync.Mutex
	now          func() time.Time
	seq          int64
	integrations map[uuid.UUID]memoryIntegration
	secrets      map[uuid.UUID]Secret
}

type memoryIntegration struct {
	registry.Integration
	seq int64
}

func NewMemory() *Memory {
	return &Memory{
		now:          func() time.Time { return time.Now().UTC() },
		integrations: make(map[uuid.UUID]memoryIntegration),
		secrets:      make(map[uuid.UUID]Secret),
	}
}

func (m *Memory) CreatePending(_ context.Context, in CreateParams) (registry.Integration, error) {
	if err := validateCreate(in); err != nil {
		return registry.Integration{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.seq++
	integration := registry.Integration{
		ID:           uuid.New(),
		ProjectID:    in.ProjectID,
		ProviderType: in.ProviderType,
		Status:       registry.StatusPending,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.integrations[integration.ID] = memoryIntegration{Integration: integration, seq: m.seq}
	m.secrets[integration.ID] = Secret{
		IntegrationID: integration.ID,
		ProviderType:  in.ProviderType,
		Payload:       bytes.Clone(in.Payload),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return integration, nil
}

func (m *Memory) Finalize(_ context.Context, integrationID uuid.UUID, status registry.Status) (registry.Integration, error) {
	if !registry.StatusPending.CanTransitionTo(status) {
		return registry.Integration{}, fmt.Errorf("%w: cannot finalize to %s", registry.ErrInvalidArgument, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.integrations[integrationID]
	if !ok {
		return registry.Integration{}, fmt.Errorf("%w: integration %s", registry.ErrNotFound, integrationID)
	}
	if !row.Status.CanTransitionTo(status) {
		return registry.Integration{}, fmt.Errorf("%w: integration %s is %s", ErrStatusConflict, integrationID, row.Status)
	}
	row.Status = status
	row.UpdatedAt = m.now()
	m.integrations[integrationID] = row
	return row.Integration, nil
}

func (m *Memory) Current(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error) {
	if integration, ok := m.latest(projectID, providerType, registry.StatusConnected); ok {
		return integration, nil
	}
	if integration, ok := m.latest(projectID, providerType, ""); ok {
		return integration, nil
	}
	return registry.Integration{}, fmt.Errorf("%w: %s", registry.ErrNotFound, pairLabel(projectID, providerType))
}

func (m *Memory) Connected(_ context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error) {
	if integration, ok := m.latest(projectID, providerType, registry.StatusConnected); ok {
		return integration, nil
	}
	return registry.Integration{}, fmt.Errorf("%w: connected %s", registry.ErrNotFound, pairLabel(projectID, providerType))
}

func (m *Memory) ListByProject(_ context.Context, projectID uuid.UUID) ([]registry.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]memoryIntegration, 0)
	for _, row := range m.integrations {
		if row.ProjectID == projectID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b memoryIntegration) int { return int(b.seq - a.seq) })
	out := make([]registry.Integration, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Integration)
	}
	return out, nil
}

func (m *Memory) GetSecret(_ context.Context, integrationID uuid.UUID) (Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	secret, ok := m.secrets[integrationID]
	if !ok {
		return Secret{}, fmt.Errorf("%w: secret for integration %s", registry.ErrNotFound, integrationID)
	}
	secret.Payload = bytes.Clone(secret.Payload)
	return secret, nil
}

func (m *Memory) UpdateSecret(_ context.Context, integrationID uuid.UUID, payload []byte) (registry.Integration, error) {
	if len(payload) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: secret payload is required", registry.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.integrations[integrationID]
	if !ok {
		return registry.Integration{}, fmt.Errorf("%w: integration %s", registry.ErrNotFound, integrationID)
	}
	secret, ok := m.secrets[integrationID]
	if !ok {
		return registry.Integration{}, fmt.Errorf("%w: secret for integration %s", registry.ErrNotFound, integrationID)
	}
	now := m.now()
	secret.Payload = bytes.Clone(payload)
	secret.UpdatedAt = now
	m.secrets[integrationID] = secret
	row.UpdatedAt = now
	m.integrations[integrationID] = row
	return row.Integration, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// latest returns the newest row for the pair, restricted to status unless it
// is empty.
func (m *Memory) latest(projectID uuid.UUID, providerType registry.ProviderType, status registry.Status) (registry.Integration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		best  memoryIntegration
		found bool
	)
	for _, row := range m.integrations {
		if row.ProjectID != projectID || row.ProviderType != providerType {
			continue
		}
		if status != "" && row.Status != status {
			continue
		}
		if !found || row.seq > best.seq {
			best = row
			found = true
		}
	}
	return best.Integration, found
}
