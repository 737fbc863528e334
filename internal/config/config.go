package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/threadspace/threadspace/internal/sealer"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultMetricsAddr      = ":9090"
	defaultVerifyTimeout    = 5 * time.Second
	defaultVercelAPIBase    = "https://api.vercel.com"
	defaultDeploymentLimit  = 5
	defaultVaultTransitPath = "transit"

	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	DatabaseURL       string
	StoreBackend      string
	HTTPAddr          string
	MetricsAddr       string
	InternalSyncToken string

	VerifyTimeout         time.Duration
	VercelAPIBase         string
	VercelVerifyOnConnect bool
	VercelDeploymentLimit int
	AWSVerifyHTTPTimeout  time.Duration
	SecretSealer          string
	SecretAppKey          string
	Vault                 sealer.VaultOptions
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		StoreBackend:          strings.ToLower(strings.TrimSpace(getenvDefault("STORE_BACKEND", StoreBackendPostgres))),
		HTTPAddr:              getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:           getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		InternalSyncToken:     strings.TrimSpace(os.Getenv("INTERNAL_SYNC_TOKEN")),
		VerifyTimeout:         getenvDurationDefault("VERIFY_TIMEOUT", defaultVerifyTimeout),
		VercelAPIBase:         strings.TrimSpace(getenvDefault("VERCEL_API_BASE", defaultVercelAPIBase)),
		VercelVerifyOnConnect: getenvBoolDefault("VERCEL_VERIFY_ON_CONNECT", false),
		VercelDeploymentLimit: getenvIntDefault("VERCEL_DEPLOYMENT_LIMIT", defaultDeploymentLimit),
		SecretSealer:          strings.ToLower(strings.TrimSpace(getenvDefault("SECRET_SEALER", sealer.NameNone))),
		SecretAppKey:          os.Getenv("SECRET_APP_KEY"),
		Vault: sealer.VaultOptions{
			Address:          strings.TrimSpace(os.Getenv("VAULT_ADDR")),
			Namespace:        strings.TrimSpace(os.Getenv("VAULT_NAMESPACE")),
			AuthType:         strings.TrimSpace(getenvDefault("VAULT_AUTH_TYPE", sealer.VaultAuthTypeToken)),
			Token:            strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
			AppRoleMountPath: strings.TrimSpace(os.Getenv("VAULT_APPROLE_MOUNT")),
			AppRoleRoleID:    strings.TrimSpace(os.Getenv("VAULT_APPROLE_ROLE_ID")),
			AppRoleSecretID:  strings.TrimSpace(os.Getenv("VAULT_APPROLE_SECRET_ID")),
			TLSSkipVerify:    getenvBoolDefault("VAULT_TLS_SKIP_VERIFY", false),
			TLSCACertPEM:     os.Getenv("VAULT_CACERT_PEM"),
			TransitMount:     strings.TrimSpace(getenvDefault("VAULT_TRANSIT_MOUNT", defaultVaultTransitPath)),
			KeyName:          strings.TrimSpace(os.Getenv("VAULT_TRANSIT_KEY")),
		},
	}
	cfg.AWSVerifyHTTPTimeout = getenvDurationDefault("AWS_VERIFY_HTTP_TIMEOUT", cfg.VerifyTimeout)

	switch cfg.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return cfg, fmt.Errorf("STORE_BACKEND must be %q or %q", StoreBackendPostgres, StoreBackendMemory)
	}
	if opts.RequireDatabaseURL && cfg.StoreBackend == StoreBackendPostgres && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

// SealerOptions returns the options for sealer.New.
func (c Config) SealerOptions() sealer.Options {
	return sealer.Options{
		Kind:   c.SecretSealer,
		AppKey: c.SecretAppKey,
		Vault:  c.Vault,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
