package rpccalls

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AngleProtocol/merkl-dispute-sub000/metrics/consts"
)

type Indicators interface {
	ObserveRPCRequestDurationSeconds(duration float64, method, status string)
	AddRPCRequestTotal(method, status string)
}

type PromIndicators struct {
	rpcRequestDurationSeconds *prometheus.HistogramVec
	rpcRequestTotal           *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(botName string, reg prometheus.Registerer) *PromIndicators {
	return &PromIndicators{
		rpcRequestDurationSeconds: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "rpc_request_duration_seconds",
				Help:        "Duration of json-rpc <method> in seconds",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
			[]string{"method", "status"},
		),
		rpcRequestTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.DisputePromNamespace,
				Name:        "rpc_request_total",
				Help:        "Total number of json-rpc <method> requests",
				ConstLabels: prometheus.Labels{"bot_name": botName},
			},
			[]string{"method", "status"},
		),
	}
}

// ObserveRPCRequestDurationSeconds observes the duration of a json-rpc request
func (p *PromIndicators) ObserveRPCRequestDurationSeconds(duration float64, method, status string) {
	p.rpcRequestDurationSeconds.With(prometheus.Labels{
		"method": method,
		"status": status,
	}).Observe(duration)
}

// AddRPCRequestTotal adds a json-rpc request to the total number of requests
func (p *PromIndicators) AddRPCRequestTotal(method, status string) {
	p.rpcRequestTotal.With(prometheus.Labels{
		"method": method,
		"status": status,
	}).Inc()
}
