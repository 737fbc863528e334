package sealer

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

const defaultAppKeyID = "app-key"

// AppKey seals payloads with AES-GCM under a key held by the process.
type AppKey struct {
	aead    cipher.AEAD
	keyID   string
	version int
}

// NewAppKey derives a 256-bit key from keyMaterial unless it already is a
// valid AES key length.
func NewAppKey(keyMaterial []byte) (*AppKey, error) {
	material := bytes.TrimSpace(keyMaterial)
	if len(material) == 0 {
		return nil, fmt.Errorf("SECRET_APP_KEY is required for the appkey sealer")
	}
	block, err := aes.NewCipher(normalizeKey(material))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &AppKey{aead: aead, keyID: defaultAppKeyID, version: 1}, nil
}

func (a *AppKey) Name() string { return NameAppKey }

func (a *AppKey) Seal(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("plaintext is required")
	}
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce generation failed: %w", err)
	}
	return encodeEnvelope(envelope{
		KeyID:      a.keyID,
		Version:    a.version,
		Algorithm:  algorithmAESGCM,
		Nonce:      encodeBase64(nonce),
		Ciphertext: encodeBase64(a.aead.Seal(nil, nonce, plaintext, nil)),
	})
}

func (a *AppKey) Open(_ context.Context, sealed []byte) ([]byte, error) {
	if !HasEnvelope(sealed) && isLegacyPlaintext(sealed) {
		return bytes.Clone(sealed), nil
	}
	env, err := decodeEnvelope(sealed, algorithmAESGCM)
	if err != nil {
		return nil, err
	}
	if env.KeyID != "" && env.KeyID != a.keyID {
		return nil, fmt.Errorf("%w: key id %q", ErrSealerMismatch, env.KeyID)
	}
	nonce, err := decodeBase64(env.Nonce, "nonce")
	if err != nil {
		return nil, err
	}
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("nonce has length %d, want %d", len(nonce), a.aead.NonceSize())
	}
	ciphertext, err := decodeBase64(env.Ciphertext, "ciphertext")
	if err != nil {
		return nil, err
	}
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plaintext, nil
}

func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		return bytes.Clone(value)
	}
	sum := sha256.Sum256(value)
	return sum[:]
}
