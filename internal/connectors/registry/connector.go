package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ProviderType identifies an external provider a project can connect to.
type ProviderType string

const (
	ProviderAWS    ProviderType = "AWS"
	ProviderVercel ProviderType = "VERCEL"
)

// ParseProviderType accepts any casing and surrounding whitespace.
func ParseProviderType(raw string) (ProviderType, error) {
	switch ProviderType(strings.ToUpper(strings.TrimSpace(raw))) {
	case ProviderAWS:
		return ProviderAWS, nil
	case ProviderVercel:
		return ProviderVercel, nil
	case "":
		return "", fmt.Errorf("%w: integration type is required", ErrInvalidArgument)
	default:
		return "", fmt.Errorf("%w: unknown integration type %q", ErrInvalidArgument, strings.TrimSpace(raw))
	}
}

func (p ProviderType) String() string { return string(p) }

// Connector onboards, updates and displays credentials for one provider.
// Implementations hold no per-call state.
type Connector interface {
	Type() ProviderType

	// DisplayName is the human label, e.g. "Amazon Web Services".
	DisplayName() string

	// SensitiveFields lists the payload keys that are masked on display.
	SensitiveFields() []string

	Connect(ctx context.Context, projectID uuid.UUID, displayName string, credentials map[string]string) (Integration, error)
	Update(ctx context.Context, projectID uuid.UUID, credentials map[string]string) (Integration, error)
	DisplayCredentials(ctx context.Context, projectID uuid.UUID) (map[string]string, error)
}
