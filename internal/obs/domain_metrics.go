package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingCalculationsTotal counts shipping calculation outcomes per country.
	PricingCalculationsTotal *prometheus.CounterVec
	// DownPaymentDistributionsTotal counts payment reconciliation outcomes.
	DownPaymentDistributionsTotal *prometheus.CounterVec
	// DownPaymentCapsTotal counts down payments clamped to the aggregate due.
	DownPaymentCapsTotal prometheus.Counter
	// StaleCalculationsTotal counts rejected attempts to finalise an order with
	// a stale shipping calculation.
	StaleCalculationsTotal prometheus.Counter
	// RateCacheTotal counts rate/rule cache lookups by result.
	RateCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_calculations_total",
			Help:      "Count of shipping cost calculations by country and result.",
		}, []string{"country", "result"})
		DownPaymentDistributionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downpayment_distributions_total",
			Help:      "Count of down payment reconciliation runs by result.",
		}, []string{"result"})
		DownPaymentCapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downpayment_caps_total",
			Help:      "Count of down payments capped at the customer's aggregate order total.",
		})
		StaleCalculationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_calculations_total",
			Help:      "Count of shipping calculations rejected as stale.",
		})
		RateCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_cache_total",
			Help:      "Count of shipping rate cache lookups by result.",
		}, []string{"result"})

		reg.MustRegister(
			PricingCalculationsTotal,
			DownPaymentDistributionsTotal,
			DownPaymentCapsTotal,
			StaleCalculationsTotal,
			RateCacheTotal,
		)
	})
}

// ObservePricingCalculation increments the pricing counter when metrics are registered.
func ObservePricingCalculation(country, result string) {
	if PricingCalculationsTotal != nil {
		PricingCalculationsTotal.WithLabelValues(country, result).Inc()
	}
}

// ObserveDistribution increments the reconciliation counter when metrics are registered.
func ObserveDistribution(result string, capped bool) {
	if DownPaymentDistributionsTotal != nil {
		DownPaymentDistributionsTotal.WithLabelValues(result).Inc()
	}
	if capped && DownPaymentCapsTotal != nil {
		DownPaymentCapsTotal.Inc()
	}
}

// ObserveStaleCalculation increments the staleness counter when metrics are registered.
func ObserveStaleCalculation() {
	if StaleCalculationsTotal != nil {
		StaleCalculationsTotal.Inc()
	}
}

// ObserveRateCache increments the cache counter when metrics are registered.
func ObserveRateCache(result string) {
	if RateCacheTotal != nil {
		RateCacheTotal.WithLabelValues(result).Inc()
	}
}
