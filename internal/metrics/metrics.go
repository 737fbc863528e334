package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "threadspace"
)

var (
	verificationDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	// Connector lifecycle
	ConnectAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connect_attempts_total",
		Help:      "Count of integration connect attempts by final status.",
	}, []string{"provider", "status"})

	CredentialUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_updates_total",
		Help:      "Count of stored credential updates.",
	}, []string{"provider", "outcome"})

	VerificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "verification_duration_seconds",
		Help:      "Time taken for a live credential verification call.",
		Buckets:   verificationDurationBuckets,
	}, []string{"provider", "outcome"})

	CredentialReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_reads_total",
		Help:      "Count of stored credential reads by consumer.",
	}, []string{"provider", "consumer"})

	// Secret storage
	SecretSealFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "secret_seal_failures_total",
		Help:      "Count of secret seal and open failures.",
	}, []string{"sealer", "op"})

	// Provider reads
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Count of outbound provider API requests.",
	}, []string{"provider", "operation", "outcome"})
)
