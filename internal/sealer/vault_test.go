package sealer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVaultTransitRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Vault-Token"); got != "s.token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/v1/transit/encrypt/credentials":
			writeJSON(t, w, map[string]any{"data": map[string]any{"ciphertext": "vault:v2:" + body["plaintext"]}})
		case "/v1/transit/decrypt/credentials":
			writeJSON(t, w, map[string]any{"data": map[string]any{"plaintext": strings.TrimPrefix(body["ciphertext"], "vault:v2:")}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s, err := NewVaultTransit(VaultOptions{Address: server.URL, Token: "s.token", KeyName: "credentials"})
	if err != nil {
		t.Fatalf("NewVaultTransit() error = %v", err)
	}

	plaintext := []byte(`{"apiToken":"tok_abcdef1234"}`)
	sealed, err := s.Seal(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if !HasEnvelope(sealed) {
		t.Fatalf("sealed payload missing envelope: %s", sealed)
	}
	if !bytes.Contains(sealed, []byte(`"ver":2`)) {
		t.Fatalf("sealed payload should record transit key version: %s", sealed)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatalf("sealed payload leaks plaintext: %s", sealed)
	}

	opened, err := s.Open(context.Background(), sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("Open() = %s, want %s", opened, plaintext)
	}
}

func TestVaultTransitSealFailsOnPermissionDenied(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
	}))
	defer server.Close()

	s, err := NewVaultTransit(VaultOptions{Address: server.URL, Token: "s.token", KeyName: "credentials"})
	if err != nil {
		t.Fatalf("NewVaultTransit() error = %v", err)
	}
	if _, err := s.Seal(context.Background(), []byte(`{"k":"v"}`)); err == nil {
		t.Fatal("expected seal error")
	}
}

func TestVaultTransitRejectsAppKeyEnvelope(t *testing.T) {
	t.Parallel()

	s, err := NewVaultTransit(VaultOptions{Address: "http://127.0.0.1:1", Token: "s.token", KeyName: "credentials"})
	if err != nil {
		t.Fatalf("NewVaultTransit() error = %v", err)
	}
	sealed, err := encodeEnvelope(envelope{Algorithm: algorithmAESGCM, Ciphertext: base64.StdEncoding.EncodeToString([]byte("x"))})
	if err != nil {
		t.Fatalf("encodeEnvelope() error = %v", err)
	}
	if _, err := s.Open(context.Background(), sealed); err == nil {
		t.Fatal("expected algorithm mismatch")
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}
