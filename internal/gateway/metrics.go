package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_circuit_breaker_state",
			Help: "Circuit breaker state per endpoint (0=closed, 1=half-open, 2=open)",
		},
		[]string{"endpoint"},
	)

	breakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_circuit_breaker_rejections_total",
			Help: "Calls rejected without reaching the provider because the breaker was open",
		},
		[]string{"endpoint"},
	)

	retryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_retry_attempts_total",
			Help: "Retry attempts per provider (excludes the first try)",
		},
		[]string{"provider"},
	)

	environmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_environment_fallback_total",
			Help: "Times live credentials were missing and the test bundle was used instead",
		},
		[]string{"provider"},
	)
)
