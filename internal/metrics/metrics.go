// Package metrics регистрирует prometheus-метрики сервиса прав доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions число разрешений прав доступа по источнику и итоговому типу.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_resolutions_total",
		Help: "Number of access resolutions by provenance and resulting access type.",
	}, []string{"provenance", "access_type"})

	// Mutations число операций изменения прав доступа по исходу.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_mutations_total",
		Help: "Number of entitlement mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// AuthorityRequestDuration длительность запросов к внешнему сервису прав доступа.
	AuthorityRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authority_request_duration_seconds",
		Help:    "Latency of entitlement authority requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
)

// Исходы операций для меток.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
)
