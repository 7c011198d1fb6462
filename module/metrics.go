package module

import (
	"time"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// CrankOutcome is the classification of a single crank cycle.
type CrankOutcome string

const (
	CrankOutcomeSuccess          CrankOutcome = "success"
	CrankOutcomeSubmissionFailed CrankOutcome = "submission_failed"
	CrankOutcomeVaultNotFound    CrankOutcome = "vault_not_found"
	CrankOutcomeError            CrankOutcome = "error"
)

// CrankerMetrics tracks the outcome of crank cycles for every (wallet, asset) pair.
type CrankerMetrics interface {
	// CrankCompleted records the outcome and duration of one crank attempt.
	CrankCompleted(wallet, asset solana.Identity, outcome CrankOutcome, duration time.Duration)

	// CrankRetried is called every time a cycle retries a failed attempt.
	CrankRetried(wallet, asset solana.Identity)

	// LastSuccessfulCrank records the time of the last successful cycle of a pair.
	LastSuccessfulCrank(wallet, asset solana.Identity, at time.Time)

	// ClusterIdentified records the network the RPC endpoint was identified as.
	ClusterIdentified(network solana.Network)
}

// RPCMetrics tracks requests made to the ledger RPC endpoints.
type RPCMetrics interface {
	// RPCRequestCompleted records a finished request. status is "ok", "rpc_error", "transport_error" or "circuit_open".
	RPCRequestCompleted(endpoint string, method string, status string, duration time.Duration)
}
