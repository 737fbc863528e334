package secretstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/db/gen"
	"github.com/threadspace/threadspace/internal/metrics"
	"github.com/threadspace/threadspace/internal/sealer"
)

// Postgres is the pgx-backed Store. Secret payloads pass through the sealer
// on every write and read.
type Postgres struct {
	pool   *pgxpool.Pool
	q      *gen.Queries
	sealer sealer.Sealer
}

func NewPostgres(pool *pgxpool.Pool, s sealer.Sealer) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("secret store pool is nil")
	}
	if s == nil {
		s = sealer.Plaintext{}
	}
	return &Postgres{pool: pool, q: gen.New(pool), sealer: s}, nil
}

func (p *Postgres) CreatePending(ctx context.Context, in CreateParams) (registry.Integration, error) {
	if err := validateCreate(in); err != nil {
		return registry.Integration{}, err
	}
	sealed, err := p.seal(ctx, in.Payload)
	if err != nil {
		return registry.Integration{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return registry.Integration{}, fmt.Errorf("%w: generate integration id: %w", registry.ErrPersistence, err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return registry.Integration{}, persistenceErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := p.q.WithTx(tx)
	if err := q.AcquireIntegrationLock(ctx, LockKey(in.ProjectID, in.ProviderType)); err != nil {
		return registry.Integration{}, persistenceErr("acquire integration lock", err)
	}
	row, err := q.CreateIntegration(ctx, gen.CreateIntegrationParams{
		ID:           id,
		ProjectID:    in.ProjectID,
		ProviderType: string(in.ProviderType),
		Status:       string(registry.StatusPending),
		DisplayName:  strings.TrimSpace(in.DisplayName),
	})
	if err != nil {
		return registry.Integration{}, persistenceErr("create integration", err)
	}
	if _, err := q.UpsertIntegrationSecret(ctx, gen.UpsertIntegrationSecretParams{
		IntegrationID: row.ID,
		ProviderType:  row.ProviderType,
		SecretJson:    string(sealed),
		Sealer:        p.sealer.Name(),
	}); err != nil {
		return registry.Integration{}, persistenceErr("create integration secret", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return registry.Integration{}, persistenceErr("commit integration", err)
	}
	return toIntegration(row), nil
}

func (p *Postgres) Finalize(ctx context.Context, integrationID uuid.UUID, status registry.Status) (registry.Integration, error) {
	if !registry.StatusPending.CanTransitionTo(status) {
		return registry.Integration{}, fmt.Errorf("%w: cannot finalize to %s", registry.ErrInvalidArgument, status)
	}
	row, err := p.q.UpdatePendingIntegrationStatus(ctx, gen.UpdatePendingIntegrationStatusParams{
		ID:     integrationID,
		Status: string(status),
	})
	if err == nil {
		return toIntegration(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return registry.Integration{}, persistenceErr("finalize integration", err)
	}
	existing, getErr := p.q.GetIntegration(ctx, integrationID)
	if getErr != nil {
		return registry.Integration{}, lookupErr("integration "+integrationID.String(), getErr)
	}
	return registry.Integration{}, fmt.Errorf("%w: integration %s is %s", ErrStatusConflict, integrationID, existing.Status)
}

func (p *Postgres) Current(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error) {
	integration, err := p.Connected(ctx, projectID, providerType)
	if err == nil || !errors.Is(err, registry.ErrNotFound) {
		return integration, err
	}
	row, err := p.q.GetLatestIntegration(ctx, gen.GetLatestIntegrationParams{
		ProjectID:    projectID,
		ProviderType: string(providerType),
	})
	if err != nil {
		return registry.Integration{}, lookupErr(pairLabel(projectID, providerType), err)
	}
	return toIntegration(row), nil
}

func (p *Postgres) Connected(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, error) {
	row, err := p.q.GetLatestIntegrationByStatus(ctx, gen.GetLatestIntegrationByStatusParams{
		ProjectID:    projectID,
		ProviderType: string(providerType),
		Status:       string(registry.StatusConnected),
	})
	if err != nil {
		return registry.Integration{}, lookupErr("connected "+pairLabel(projectID, providerType), err)
	}
	return toIntegration(row), nil
}

func (p *Postgres) ListByProject(ctx context.Context, projectID uuid.UUID) ([]registry.Integration, error) {
	rows, err := p.q.ListIntegrationsByProject(ctx, projectID)
	if err != nil {
		return nil, persistenceErr("list integrations", err)
	}
	out := make([]registry.Integration, 0, len(rows))
	for _, row := range rows {
		out = append(out, toIntegration(row))
	}
	return out, nil
}

func (p *Postgres) GetSecret(ctx context.Context, integrationID uuid.UUID) (Secret, error) {
	row, err := p.q.GetIntegrationSecret(ctx, integrationID)
	if err != nil {
		return Secret{}, lookupErr("secret for integration "+integrationID.String(), err)
	}
	payload, err := p.open(ctx, row)
	if err != nil {
		return Secret{}, err
	}
	return Secret{
		IntegrationID: row.IntegrationID,
		ProviderType:  registry.ProviderType(row.ProviderType),
		Payload:       payload,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func (p *Postgres) UpdateSecret(ctx context.Context, integrationID uuid.UUID, payload []byte) (registry.Integration, error) {
	if len(payload) == 0 {
		return registry.Integration{}, fmt.Errorf("%w: secret payload is required", registry.ErrInvalidArgument)
	}
	sealed, err := p.seal(ctx, payload)
	if err != nil {
		return registry.Integration{}, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return registry.Integration{}, persistenceErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := p.q.WithTx(tx)
	if _, err := q.UpdateIntegrationSecret(ctx, gen.UpdateIntegrationSecretParams{
		IntegrationID: integrationID,
		SecretJson:    string(sealed),
		Sealer:        p.sealer.Name(),
	}); err != nil {
		return registry.Integration{}, lookupErr("secret for integration "+integrationID.String(), err)
	}
	row, err := q.TouchIntegration(ctx, integrationID)
	if err != nil {
		return registry.Integration{}, lookupErr("integration "+integrationID.String(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return registry.Integration{}, persistenceErr("commit secret update", err)
	}
	return toIntegration(row), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return persistenceErr("ping", err)
	}
	return nil
}

func (p *Postgres) seal(ctx context.Context, payload []byte) ([]byte, error) {
	sealed, err := p.sealer.Seal(ctx, payload)
	if err != nil {
		metrics.SecretSealFailuresTotal.WithLabelValues(p.sealer.Name(), "seal").Inc()
		return nil, fmt.Errorf("%w: seal secret: %w", registry.ErrPersistence, err)
	}
	return sealed, nil
}

func (p *Postgres) open(ctx context.Context, row gen.IntegrationSecret) ([]byte, error) {
	stored := []byte(row.SecretJson)
	if row.Sealer == sealer.NameNone && !sealer.HasEnvelope(stored) {
		return stored, nil
	}
	if row.Sealer != sealer.NameNone && row.Sealer != p.sealer.Name() {
		metrics.SecretSealFailuresTotal.WithLabelValues(p.sealer.Name(), "open").Inc()
		return nil, fmt.Errorf("%w: secret for integration %s sealed with %q: %w", registry.ErrPersistence, row.IntegrationID, row.Sealer, sealer.ErrSealerMismatch)
	}
	payload, err := p.sealer.Open(ctx, stored)
	if err != nil {
		metrics.SecretSealFailuresTotal.WithLabelValues(p.sealer.Name(), "open").Inc()
		return nil, fmt.Errorf("%w: open secret for integration %s: %w", registry.ErrPersistence, row.IntegrationID, err)
	}
	return payload, nil
}

func toIntegration(row gen.Integration) registry.Integration {
	return registry.Integration{
		ID:           row.ID,
		ProjectID:    row.ProjectID,
		ProviderType: registry.ProviderType(row.ProviderType),
		Status:       registry.Status(row.Status),
		DisplayName:  row.DisplayName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func lookupErr(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, what)
	}
	return persistenceErr("load "+what, err)
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", registry.ErrPersistence, op, err)
}

func pairLabel(projectID uuid.UUID, providerType registry.ProviderType) string {
	return fmt.Sprintf("%s integration for project %s", providerType, projectID)
}
