package metrics

import (
	"time"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
)

type NoopCollector struct{}

var _ module.CrankerMetrics = (*NoopCollector)(nil)
var _ module.RPCMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CrankCompleted(solana.Identity, solana.Identity, module.CrankOutcome, time.Duration) {
}
func (nc *NoopCollector) CrankRetried(solana.Identity, solana.Identity)                   {}
func (nc *NoopCollector) LastSuccessfulCrank(solana.Identity, solana.Identity, time.Time) {}
func (nc *NoopCollector) ClusterIdentified(solana.Network)                                {}
func (nc *NoopCollector) RPCRequestCompleted(string, string, string, time.Duration)       {}
