package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote computations by outcome.
	QuotesTotal *prometheus.CounterVec
	// QuoteDuration records end-to-end quote latency in milliseconds.
	QuoteDuration prometheus.Histogram
	// DistanceResolveTotal counts billed-distance decisions by provenance.
	DistanceResolveTotal *prometheus.CounterVec
	// TariffReloadTotal counts tariff configuration loads by outcome.
	TariffReloadTotal *prometheus.CounterVec
	// CityCacheWarmed tracks how many city rows the worker last preloaded.
	CityCacheWarmed prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of quote computations by outcome.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency of quote computations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		DistanceResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distance_resolve_total",
			Help:      "Count of billed-distance decisions by source.",
		}, []string{"source"})
		TariffReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tariff_reload_total",
			Help:      "Count of tariff configuration loads by outcome.",
		}, []string{"result"})
		CityCacheWarmed = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "city_cache_warmed_rows",
			Help:      "Number of city pricing rows loaded by the last cache warm.",
		})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				QuoteDuration = v
			}
		})
		mustRegisterCollector(reg, DistanceResolveTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DistanceResolveTotal = v
			}
		})
		mustRegisterCollector(reg, TariffReloadTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TariffReloadTotal = v
			}
		})
		mustRegisterCollector(reg, CityCacheWarmed, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CityCacheWarmed = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
