// Package lifecycle drives one integration through PENDING to CONNECTED or
// FAILED and applies credential updates to the stored secret.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/secretstore"
	"github.com/threadspace/threadspace/internal/metrics"
)

const DefaultVerifyTimeout = 5 * time.Second

// VerifyFunc performs the live credential check. It must return an error
// wrapping registry.ErrProviderCredentialsInvalid when the provider rejected
// the credentials. Any other error is treated as the provider being
// unreachable.
type VerifyFunc func(ctx context.Context) error

// Runner persists connection attempts through a secretstore.Store.
type Runner struct {
	Store   secretstore.Store
	Timeout time.Duration
	Logger  *slog.Logger

	now func() time.Time
}

func New(store secretstore.Store, timeout time.Duration, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("lifecycle runner requires a secret store")
	}
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Store: store, Timeout: timeout, Logger: logger, now: time.Now}, nil
}

type ConnectRequest struct {
	ProjectID    uuid.UUID
	ProviderType registry.ProviderType
	DisplayName  string
	Payload      []byte

	// Verify is nil when the provider defers verification. The integration
	// is then marked CONNECTED right after it is stored.
	Verify VerifyFunc
}

// Connect stores a PENDING integration with its secret, runs the verification
// and finalizes the row. A rejected or unreachable verification leaves a
// FAILED row behind and returns the classified error.
func (r *Runner) Connect(ctx context.Context, req ConnectRequest) (registry.Integration, error) {
	if req.ProjectID == uuid.Nil {
		return registry.Integration{}, fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return registry.Integration{}, fmt.Errorf("%w: display name is required", registry.ErrInvalidArgument)
	}

	logger := r.logger().With("project_id", req.ProjectID.String(), "provider", string(req.ProviderType))

	pending, err := r.Store.CreatePending(ctx, secretstore.CreateParams{
		ProjectID:    req.ProjectID,
		ProviderType: req.ProviderType,
		DisplayName:  req.DisplayName,
		Payload:      req.Payload,
	})
	if err != nil {
		metrics.ConnectAttemptsTotal.WithLabelValues(string(req.ProviderType), "error").Inc()
		return registry.Integration{}, err
	}
	logger = logger.With("integration_id", pending.ID.String())

	verifyErr := r.verify(ctx, req.ProviderType, req.Verify)
	status := registry.StatusConnected
	if verifyErr != nil {
		status = registry.StatusFailed
	}

	// Finalize runs even if the caller went away so the row does not stay
	// PENDING.
	finalized, err := r.Store.Finalize(context.WithoutCancel(ctx), pending.ID, status)
	if err != nil {
		logger.Error("finalize integration failed", "status", string(status), "err", err)
		metrics.ConnectAttemptsTotal.WithLabelValues(string(req.ProviderType), "error").Inc()
		if verifyErr != nil {
			return registry.Integration{}, errors.Join(verifyErr, err)
		}
		return registry.Integration{}, err
	}
	metrics.ConnectAttemptsTotal.WithLabelValues(string(req.ProviderType), string(finalized.Status)).Inc()

	if verifyErr != nil {
		logger.Warn("integration verification failed", "kind", registry.ErrorKind(verifyErr), "err", verifyErr)
		return finalized, verifyErr
	}
	logger.Info("integration connected", "deferred_verification", req.Verify == nil)
	return finalized, nil
}

// verify runs fn under the runner timeout, detached from the caller's
// cancellation, and classifies the result.
func (r *Runner) verify(ctx context.Context, providerType registry.ProviderType, fn VerifyFunc) error {
	if fn == nil {
		return nil
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	started := r.clock()
	err := Classify(fn(verifyCtx))
	metrics.VerificationDuration.WithLabelValues(string(providerType), outcomeLabel(err)).Observe(r.clock().Sub(started).Seconds())
	return err
}

// Classify maps a verification error onto the two failure kinds a connect
// may report.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrProviderCredentialsInvalid), errors.Is(err, registry.ErrExternalServiceUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: verification timed out: %w", registry.ErrExternalServiceUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", registry.ErrExternalServiceUnavailable, err)
	}
}

// MergeFunc receives the stored payload and returns the payload to store.
type MergeFunc func(current []byte) ([]byte, error)

// Update rewrites the secret of the project's current integration for the
// provider. The status is left untouched and no verification is run.
func (r *Runner) Update(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType, merge MergeFunc) (registry.Integration, error) {
	if merge == nil {
		return registry.Integration{}, errors.New("lifecycle update requires a merge function")
	}
	current, payload, err := r.Current(ctx, projectID, providerType)
	if err != nil {
		return registry.Integration{}, err
	}
	next, err := merge(payload)
	if err != nil {
		metrics.CredentialUpdatesTotal.WithLabelValues(string(providerType), "invalid").Inc()
		return registry.Integration{}, err
	}
	updated, err := r.Store.UpdateSecret(ctx, current.ID, next)
	if err != nil {
		metrics.CredentialUpdatesTotal.WithLabelValues(string(providerType), "error").Inc()
		return registry.Integration{}, err
	}
	metrics.CredentialUpdatesTotal.WithLabelValues(string(providerType), "updated").Inc()
	r.logger().Info("integration credentials updated",
		"project_id", projectID.String(),
		"provider", string(providerType),
		"integration_id", updated.ID.String(),
		"status", string(updated.Status),
	)
	return updated, nil
}

// Current loads the integration that update and display operate on together
// with its decrypted payload.
func (r *Runner) Current(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, []byte, error) {
	if projectID == uuid.Nil {
		return registry.Integration{}, nil, fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	integration, err := r.Store.Current(ctx, projectID, providerType)
	if err != nil {
		return registry.Integration{}, nil, err
	}
	return r.withSecret(ctx, integration, "current")
}

// Connected loads the newest CONNECTED integration and its payload for
// provider read paths.
func (r *Runner) Connected(ctx context.Context, projectID uuid.UUID, providerType registry.ProviderType) (registry.Integration, []byte, error) {
	if projectID == uuid.Nil {
		return registry.Integration{}, nil, fmt.Errorf("%w: project id is required", registry.ErrInvalidArgument)
	}
	integration, err := r.Store.Connected(ctx, projectID, providerType)
	if err != nil {
		return registry.Integration{}, nil, err
	}
	return r.withSecret(ctx, integration, "connected")
}

func (r *Runner) withSecret(ctx context.Context, integration registry.Integration, consumer string) (registry.Integration, []byte, error) {
	secret, err := r.Store.GetSecret(ctx, integration.ID)
	if err != nil {
		return registry.Integration{}, nil, err
	}
	metrics.CredentialReadsTotal.WithLabelValues(string(integration.ProviderType), consumer).Inc()
	return integration, secret.Payload, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, registry.ErrProviderCredentialsInvalid):
		return "rejected"
	default:
		return "unavailable"
	}
}
