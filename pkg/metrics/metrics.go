// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

//nolint: gochecknoglobals
var (
	entitlementDenialsTotal *prometheus.CounterVec
	crawlsTotal             *prometheus.CounterVec
	crawlTransitionsLost    prometheus.Counter
	pagesIngestedTotal      prometheus.Counter
	crawlsExpiredTotal      prometheus.Counter

	once sync.Once
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		entitlementDenialsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitescope_entitlement_denials_total",
				Help: "Requests rejected by plan entitlement checks, labeled by operation and tier.",
			},
			[]string{"operation", "tier"},
		)

		crawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitescope_crawls_total",
				Help: "Crawls that reached a terminal status, labeled by status.",
			},
			[]string{"status"},
		)

		crawlTransitionsLost = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitescope_crawl_transition_races_total",
				Help: "Status updates dropped because another worker moved the crawl first.",
			},
		)

		pagesIngestedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitescope_pages_ingested_total",
				Help: "Scored pages accepted into storage.",
			},
		)

		crawlsExpiredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitescope_crawls_expired_total",
				Help: "Crawls failed by the expiry sweep after exceeding the crawl timeout.",
			},
		)
	})
}

// EntitlementDenied records a plan limit rejection for an operation.
func EntitlementDenied(operation, tier string) {
	if entitlementDenialsTotal != nil {
		entitlementDenialsTotal.WithLabelValues(operation, tier).Inc()
	}
}

// CrawlFinished records a crawl reaching the given terminal status.
func CrawlFinished(status string) {
	if crawlsTotal != nil {
		crawlsTotal.WithLabelValues(status).Inc()
	}
}

// CrawlTransitionLost records a compare-and-set update that lost its race.
func CrawlTransitionLost() {
	if crawlTransitionsLost != nil {
		crawlTransitionsLost.Inc()
	}
}

// PageIngested records one accepted page score.
func PageIngested() {
	if pagesIngestedTotal != nil {
		pagesIngestedTotal.Inc()
	}
}

// CrawlExpired records one crawl failed by the expiry sweep.
func CrawlExpired() {
	if crawlsExpiredTotal != nil {
		crawlsExpiredTotal.Inc()
	}
}
