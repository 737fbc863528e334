package sealer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

const (
	VaultAuthTypeToken   = "token"
	VaultAuthTypeAppRole = "approle"

	defaultTransitMount = "transit"
	vaultHTTPTimeout    = 10 * time.Second
)

type VaultOptions struct {
	Address          string
	Namespace        string
	AuthType         string
	Token            string
	AppRoleMountPath string
	AppRoleRoleID    string
	AppRoleSecretID  string
	TLSSkipVerify    bool
	TLSCACertPEM     string
	TransitMount     string
	KeyName          string
}

// VaultTransit delegates encryption to a Vault transit key. The ciphertext
// Vault returns is kept inside the local envelope.
type VaultTransit struct {
	client      *vaultapi.Client
	mount       string
	keyName     string
	namespace   string
	addressHost string
}

func NewVaultTransit(opts VaultOptions) (*VaultTransit, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	keyName := strings.Trim(strings.TrimSpace(opts.KeyName), "/")
	if keyName == "" {
		return nil, errors.New("vault transit key name is required")
	}
	mount := normalizeMountPath(opts.TransitMount)
	if mount == "" {
		mount = defaultTransitMount
	}
	authType := strings.ToLower(strings.TrimSpace(opts.AuthType))
	if authType == "" {
		authType = VaultAuthTypeToken
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{
		Timeout:   vaultHTTPTimeout,
		Transport: buildHTTPTransport(opts.TLSSkipVerify, strings.TrimSpace(opts.TLSCACertPEM)),
	}
	cfg.MaxRetries = 0
	addressHost := ""
	if parsed, err := neturl.Parse(address); err == nil {
		addressHost = strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace != "" {
		client.SetNamespace(namespace)
	}

	switch authType {
	case VaultAuthTypeToken:
		token := strings.TrimSpace(opts.Token)
		if token == "" {
			return nil, errors.New("vault token is required")
		}
		client.SetToken(token)
	case VaultAuthTypeAppRole:
		roleID := strings.TrimSpace(opts.AppRoleRoleID)
		secretID := strings.TrimSpace(opts.AppRoleSecretID)
		mountPath := normalizeMountPath(opts.AppRoleMountPath)
		if mountPath == "" {
			mountPath = "approle"
		}
		if roleID == "" {
			return nil, errors.New("vault AppRole role ID is required")
		}
		if secretID == "" {
			return nil, errors.New("vault AppRole secret ID is required")
		}
		loginPath := "auth/" + mountPath + "/login"
		secret, err := client.Logical().Write(loginPath, map[string]any{
			"role_id":   roleID,
			"secret_id": secretID,
		})
		if err != nil {
			return nil, fmt.Errorf("vault approle login at %s: %w", loginPath, err)
		}
		if secret == nil || secret.Auth == nil || strings.TrimSpace(secret.Auth.ClientToken) == "" {
			return nil, errors.New("vault approle login succeeded without client token")
		}
		client.SetToken(secret.Auth.ClientToken)
	default:
		return nil, errors.New("vault auth type is invalid")
	}

	return &VaultTransit{
		client:      client,
		mount:       mount,
		keyName:     keyName,
		namespace:   namespace,
		addressHost: addressHost,
	}, nil
}

func (v *VaultTransit) Name() string { return NameVault }

func (v *VaultTransit) Seal(ctx context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("plaintext is required")
	}
	path := v.mount + "/encrypt/" + neturl.PathEscape(v.keyName)
	secret, err := v.client.Logical().WriteWithContext(ctx, path, map[string]any{
		"plaintext": base64.StdEncoding.EncodeToString(plaintext),
	})
	if err != nil {
		return nil, fmt.Errorf("vault transit encrypt: %w", v.withNamespaceHint(err))
	}
	ciphertext := dataString(secret, "ciphertext")
	if ciphertext == "" {
		return nil, errors.New("vault transit encrypt returned no ciphertext")
	}
	return encodeEnvelope(envelope{
		KeyID:      v.mount + "/" + v.keyName,
		Version:    transitKeyVersion(ciphertext),
		Algorithm:  algorithmVaultTransit,
		Ciphertext: ciphertext,
	})
}

func (v *VaultTransit) Open(ctx context.Context, sealed []byte) ([]byte, error) {
	if !HasEnvelope(sealed) && isLegacyPlaintext(sealed) {
		return bytes.Clone(sealed), nil
	}
	env, err := decodeEnvelope(sealed, algorithmVaultTransit)
	if err != nil {
		return nil, err
	}
	path := v.mount + "/decrypt/" + neturl.PathEscape(v.keyName)
	secret, err := v.client.Logical().WriteWithContext(ctx, path, map[string]any{
		"ciphertext": env.Ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("vault transit decrypt: %w", v.withNamespaceHint(err))
	}
	encoded := dataString(secret, "plaintext")
	if encoded == "" {
		return nil, errors.New("vault transit decrypt returned no plaintext")
	}
	return decodeBase64(encoded, "vault plaintext")
}

func dataString(secret *vaultapi.Secret, key string) string {
	if secret == nil || secret.Data == nil {
		return ""
	}
	raw, ok := secret.Data[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

// transitKeyVersion reads n from a "vault:vN:..." ciphertext.
func transitKeyVersion(ciphertext string) int {
	parts := strings.SplitN(ciphertext, ":", 3)
	if len(parts) < 3 || parts[0] != "vault" || !strings.HasPrefix(parts[1], "v") {
		return 0
	}
	var version int
	if _, err := fmt.Sscanf(parts[1], "v%d", &version); err != nil {
		return 0
	}
	return version
}

func normalizeMountPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

func (v *VaultTransit) withNamespaceHint(err error) error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(v.namespace) != "" {
		return err
	}
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(v.addressHost)), ".hashicorp.cloud") {
		return err
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "permission denied") && !strings.Contains(msg, "403") {
		return err
	}
	return fmt.Errorf("%w (tip: set VAULT_NAMESPACE to \"admin\" for HCP Vault Dedicated)", err)
}

func buildHTTPTransport(skipVerify bool, caCertPEM string) http.RoundTripper {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return http.DefaultTransport
	}
	transport := base.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	transport.TLSClientConfig.InsecureSkipVerify = skipVerify
	if strings.TrimSpace(caCertPEM) != "" {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM([]byte(caCertPEM)) {
			transport.TLSClientConfig.RootCAs = pool
		}
	}
	return transport
}
