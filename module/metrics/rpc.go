package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/savings-vault/vault-cranker/module"
)

// RPCCollector implements metric collection for requests to the ledger RPC endpoints.
type RPCCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ module.RPCMetrics = (*RPCCollector)(nil)

func NewRPCCollector(registerer prometheus.Registerer) *RPCCollector {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemRPC,
		Name:      "requests_total",
		Help:      "the number of json-rpc requests sent, by endpoint, method and status",
	}, []string{LabelEndpoint, LabelMethod, LabelStatus})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemRPC,
		Name:      "request_duration_seconds",
		Help:      "the duration of json-rpc requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{LabelMethod})
	registerer.MustRegister(requests, duration)

	return &RPCCollector{
		requests: requests,
		duration: duration,
	}
}

func (c *RPCCollector) RPCRequestCompleted(endpoint string, method string, status string, duration time.Duration) {
	c.requests.WithLabelValues(endpoint, method, status).Inc()
	c.duration.WithLabelValues(method).Observe(duration.Seconds())
}
