package transactionprocess

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AngleProtocol/merkl-dispute-sub000/metrics/consts"
)

// Indicators follows every transaction the bot signs, labelled by contract
// method (approve, disputeTree).
type Indicators interface {
	ObserveBroadcastSeconds(method string, seconds float64)
	ObserveConfirmationSeconds(method string, seconds float64)
	ObserveGasUsed(method string, gasUsed uint64)
	IncrementInFlight()
	DecrementInFlight()
	IncrementProcessedTxsTotal(method, state string)
}

type PromIndicators struct {
	broadcastSeconds    *prometheus.HistogramVec
	confirmationSeconds *prometheus.HistogramVec
	gasUsed             *prometheus.HistogramVec
	inFlight            prometheus.Gauge
	processedTxsTotal   *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(botName string, reg prometheus.Registerer) *PromIndicators {
	opts := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   consts.DisputePromNamespace,
			Subsystem:   consts.TransactionProcess,
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"bot_name": botName},
			Buckets:     buckets,
		}
	}
	return &PromIndicators{
		broadcastSeconds: promauto.With(reg).NewHistogramVec(
			opts("broadcast_seconds", "Time to sign and broadcast a transaction", prometheus.ExponentialBuckets(0.1, 2, 8)),
			[]string{"method"},
		),
		confirmationSeconds: promauto.With(reg).NewHistogramVec(
			opts("confirmation_seconds", "Time from signing to a successful receipt", prometheus.ExponentialBuckets(1, 2, 10)),
			[]string{"method"},
		),
		gasUsed: promauto.With(reg).NewHistogramVec(
			opts("gas_used", "Gas used by confirmed transactions", prometheus.ExponentialBuckets(25_000, 2, 8)),
			[]string{"method"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace:   consts.DisputePromNamespace,
				Subsystem:   consts.TransactionProcess,
				Name:        "in_flight",
				Help:        "Transactions sent and not yet confirmed",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
		),
		processedTxsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.DisputePromNamespace,
				Subsystem:   consts.TransactionProcess,
				Name:        "processed_total",
				Help:        "Transactions by method and state (success, failure)",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
			[]string{"method", "state"},
		),
	}
}

func (p *PromIndicators) ObserveBroadcastSeconds(method string, seconds float64) {
	p.broadcastSeconds.WithLabelValues(method).Observe(seconds)
}

func (p *PromIndicators) ObserveConfirmationSeconds(method string, seconds float64) {
	p.confirmationSeconds.WithLabelValues(method).Observe(seconds)
}

func (p *PromIndicators) ObserveGasUsed(method string, gasUsed uint64) {
	p.gasUsed.WithLabelValues(method).Observe(float64(gasUsed))
}

func (p *PromIndicators) IncrementInFlight() {
	p.inFlight.Inc()
}

func (p *PromIndicators) DecrementInFlight() {
	p.inFlight.Dec()
}

func (p *PromIndicators) IncrementProcessedTxsTotal(method, state string) {
	p.processedTxsTotal.WithLabelValues(method, state).Inc()
}
