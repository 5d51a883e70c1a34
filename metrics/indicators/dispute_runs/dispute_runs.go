package disputeruns

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AngleProtocol/merkl-dispute-sub000/metrics/consts"
)

// Indicators tracks pipeline runs and the disputes they lead to.
type Indicators interface {
	ObserveStepDurationSeconds(step string, seconds float64)
	IncrementOutcome(kind, code string)
	IncrementDisputes(state string)
	SetLastRunTimestamp(unixSeconds int64)
}

type PromIndicators struct {
	stepDurationSeconds *prometheus.HistogramVec
	outcomesTotal       *prometheus.CounterVec
	disputesTotal       *prometheus.CounterVec
	lastRunTimestamp    prometheus.Gauge
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(botName string, reg prometheus.Registerer) *PromIndicators {
	return &PromIndicators{
		stepDurationSeconds: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "step_duration_seconds",
				Help:        "Duration of each pipeline step in seconds",
				ConstLabels: prometheus.Labels{"bot_name": botName},
				Buckets:     prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"step"},
		),
		outcomesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "run_outcomes_total",
				Help:        "Number of pipeline runs by outcome kind and code",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
			[]string{"kind", "code"},
		),
		disputesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "disputes_total",
				Help:        "Number of dispute submissions by state (submitted, dry_run, failure)",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
			[]string{"state"},
		),
		lastRunTimestamp: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "last_run_timestamp_seconds",
				Help:        "Unix time of the last completed run",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
		),
	}
}

func (p *PromIndicators) ObserveStepDurationSeconds(step string, seconds float64) {
	p.stepDurationSeconds.WithLabelValues(step).Observe(seconds)
}

func (p *PromIndicators) IncrementOutcome(kind, code string) {
	p.outcomesTotal.WithLabelValues(kind, code).Inc()
}

func (p *PromIndicators) IncrementDisputes(state string) {
	p.disputesTotal.WithLabelValues(state).Inc()
}

func (p *PromIndicators) SetLastRunTimestamp(unixSeconds int64) {
	p.lastRunTimestamp.Set(float64(unixSeconds))
}
