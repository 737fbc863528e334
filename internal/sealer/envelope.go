package sealer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	envelopePrefix = "tsx.secret.v1:"

	algorithmAESGCM       = "aes-256-gcm"
	algorithmVaultTransit = "vault-transit"
)

type envelope struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce,omitempty"`
	Ciphertext string `json:"ciphertext"`
}

// HasEnvelope reports whether payload carries the sealed envelope prefix.
func HasEnvelope(payload []byte) bool {
	return strings.HasPrefix(string(payload), envelopePrefix)
}

func encodeEnvelope(env envelope) ([]byte, error) {
	env.KeyID = strings.TrimSpace(env.KeyID)
	env.Algorithm = strings.ToLower(strings.TrimSpace(env.Algorithm))
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return append([]byte(envelopePrefix), data...), nil
}

func decodeEnvelope(sealed []byte, wantAlgorithm string) (envelope, error) {
	if len(sealed) == 0 {
		return envelope{}, fmt.Errorf("sealed payload is empty")
	}
	payload := string(sealed)
	if !strings.HasPrefix(payload, envelopePrefix) {
		return envelope{}, fmt.Errorf("invalid envelope prefix")
	}
	var parsed envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(payload, envelopePrefix)), &parsed); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	parsed.Algorithm = strings.ToLower(strings.TrimSpace(parsed.Algorithm))
	if parsed.Algorithm != wantAlgorithm {
		return envelope{}, fmt.Errorf("%w: algorithm %q, want %q", ErrSealerMismatch, parsed.Algorithm, wantAlgorithm)
	}
	if strings.TrimSpace(parsed.Ciphertext) == "" {
		return envelope{}, fmt.Errorf("envelope ciphertext is required")
	}
	return parsed, nil
}

func encodeBase64(value []byte) string {
	return base64.StdEncoding.EncodeToString(value)
}

func decodeBase64(value, what string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return decoded, nil
}
