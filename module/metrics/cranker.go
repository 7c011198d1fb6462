package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
)

// CrankerCollector implements metric collection for crank cycles.
type CrankerCollector struct {
	cranks      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	network     *prometheus.GaugeVec
}

var _ module.CrankerMetrics = (*CrankerCollector)(nil)

func NewCrankerCollector(registerer prometheus.Registerer) *CrankerCollector {
	cranks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemCrank,
		Name:      "attempts_total",
		Help:      "the number of accrue interest attempts, by outcome",
	}, []string{LabelWallet, LabelAsset, LabelOutcome})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemCrank,
		Name:      "attempt_duration_seconds",
		Help:      "the duration of accrue interest attempts from building the request to verifying the vault",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{LabelOutcome})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemCrank,
		Name:      "retries_total",
		Help:      "the number of times a failed attempt was retried within its cycle",
	}, []string{LabelWallet, LabelAsset})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespaceCranker,
		Subsystem: subsystemCrank,
		Name:      "last_success_timestamp_seconds",
		Help:      "the unix time of the last successful cycle of a pair",
	}, []string{LabelWallet, LabelAsset})
	network := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespaceCranker,
		Name:      "network_info",
		Help:      "reported as 1 for the network the rpc endpoint was last identified as",
	}, []string{LabelNetwork})
	registerer.MustRegister(cranks, duration, retries, lastSuccess, network)

	return &CrankerCollector{
		cranks:      cranks,
		duration:    duration,
		retries:     retries,
		lastSuccess: lastSuccess,
		network:     network,
	}
}

func (c *CrankerCollector) CrankCompleted(wallet, asset solana.Identity, outcome module.CrankOutcome, duration time.Duration) {
	c.cranks.WithLabelValues(wallet.String(), asset.String(), string(outcome)).Inc()
	c.duration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

func (c *CrankerCollector) CrankRetried(wallet, asset solana.Identity) {
	c.retries.WithLabelValues(wallet.String(), asset.String()).Inc()
}

func (c *CrankerCollector) LastSuccessfulCrank(wallet, asset solana.Identity, at time.Time) {
	c.lastSuccess.WithLabelValues(wallet.String(), asset.String()).Set(float64(at.Unix()))
}

func (c *CrankerCollector) ClusterIdentified(network solana.Network) {
	c.network.Reset()
	c.network.WithLabelValues(network.String()).Set(1)
}
