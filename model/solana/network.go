package solana

// Network is the logical cluster an RPC endpoint is connected to.
type Network int

const (
	NetworkUnknown Network = iota
	NetworkTest
	NetworkProduction
)

// Well-known genesis hashes.
var (
	// DevnetGenesisHash is the genesis hash of the devnet cluster.
	DevnetGenesisHash = MustHashFromBase58("EtWTRABZaYq6iMfeYKouRu166VU2xqa1wcaWoxPkrZBG")
	// MainnetGenesisHash is the genesis hash of the mainnet-beta cluster.
	MainnetGenesisHash = MustHashFromBase58("5eykt4UsFv8P8NJdTREpY1vzqKqZKvdpKuc147dw2N9d")
)

func (n Network) String() string {
	switch n {
	case NetworkTest:
		return "devnet"
	case NetworkProduction:
		return "mainnet-beta"
	default:
		return "unknown"
	}
}

// ExplorerSuffix is the query string block explorers expect for addresses on this network.
func (n Network) ExplorerSuffix() string {
	if n == NetworkTest {
		return "?cluster=devnet"
	}
	return ""
}

// Commitment is the level of confirmation a read or status query is evaluated against.
type Commitment string

const (
	// CommitmentProcessed is the relaxed-consistency level: the most recent block seen by the node,
	// which may still be skipped by the cluster.
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Satisfies returns true if a status reported at level c meets the required level.
func (c Commitment) Satisfies(required Commitment) bool {
	return c.rank() >= required.rank()
}

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}
