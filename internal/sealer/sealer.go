// Package sealer encrypts credential payloads before they reach the database.
package sealer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	NameNone   = "none"
	NameAppKey = "appkey"
	NameVault  = "vault"
)

// ErrSealerMismatch is returned when a stored payload was sealed by a
// different sealer than the one configured.
var ErrSealerMismatch = errors.New("sealed payload does not match configured sealer")

// Sealer encrypts and decrypts opaque payloads.
type Sealer interface {
	Name() string
	Seal(ctx context.Context, plaintext []byte) ([]byte, error)
	Open(ctx context.Context, sealed []byte) ([]byte, error)
}

// Plaintext stores payloads as they are.
type Plaintext struct{}

func (Plaintext) Name() string { return NameNone }

func (Plaintext) Seal(_ context.Context, plaintext []byte) ([]byte, error) {
	return bytes.Clone(plaintext), nil
}

func (Plaintext) Open(_ context.Context, sealed []byte) ([]byte, error) {
	if HasEnvelope(sealed) {
		return nil, fmt.Errorf("%w: payload is encrypted but no sealer is configured", ErrSealerMismatch)
	}
	return bytes.Clone(sealed), nil
}

// Options selects and configures a sealer.
type Options struct {
	Kind   string
	AppKey string
	Vault  VaultOptions
}

// New builds the sealer named by opts.Kind.
func New(opts Options) (Sealer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", NameNone:
		return Plaintext{}, nil
	case NameAppKey:
		return NewAppKey([]byte(opts.AppKey))
	case NameVault:
		return NewVaultTransit(opts.Vault)
	default:
		return nil, fmt.Errorf("unknown secret sealer %q", opts.Kind)
	}
}

// isLegacyPlaintext reports whether payload is an unsealed JSON document
// written before a sealer was enabled.
func isLegacyPlaintext(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
