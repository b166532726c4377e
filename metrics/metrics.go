// Package metrics exposes prometheus instrumentation for the engine.
//
// A private registry keeps the exposition limited to engine metrics; the
// handler is mounted at /metrics by the API router.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	rechargesValidated    *prometheus.CounterVec
	spendsRejected        prometheus.Counter
	distributionsPlanned  *prometheus.CounterVec
	riskScoreDistribution prometheus.Histogram
	alertsRaised          *prometheus.CounterVec
	scanDuration          prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		rechargesValidated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "recharges_validated_total",
			Help: "Recharge verdicts by outcome (within_limit, exceeds_limit)",
		}, []string{"outcome"}),
		spendsRejected: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "spends_rejected_total",
			Help: "Spend operations blocked by the balance gate",
		}),
		distributionsPlanned: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "distributions_planned_total",
			Help: "Distribution plans built, by policy",
		}, []string{"policy"}),
		riskScoreDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "transaction_risk_score_distribution",
			Help:    "Distribution of transaction risk scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),
		alertsRaised: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_alerts_raised_total",
			Help: "Fraud alerts raised by scan runs, by type",
		}, []string{"type"}),
		scanDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_scan_duration_seconds",
			Help:    "Duration of periodic fraud scan runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) RecordRechargeVerdict(exceeds bool) {
	outcome := "within_limit"
	if exceeds {
		outcome = "exceeds_limit"
	}
	c.rechargesValidated.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSpendRejected() {
	c.spendsRejected.Inc()
}

func (c *Collector) RecordDistributionPlanned(policy string) {
	c.distributionsPlanned.WithLabelValues(policy).Inc()
}

func (c *Collector) RecordRiskScore(score int) {
	c.riskScoreDistribution.Observe(float64(score))
}

func (c *Collector) RecordAlert(alertType string) {
	c.alertsRaised.WithLabelValues(alertType).Inc()
}

func (c *Collector) RecordScan(duration time.Duration) {
	c.scanDuration.Observe(duration.Seconds())
}

// Handler returns the prometheus exposition handler for this registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
