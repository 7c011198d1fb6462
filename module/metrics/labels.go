package metrics

const (
	LabelWallet   = "wallet"
	LabelAsset    = "asset"
	LabelOutcome  = "outcome"
	LabelNetwork  = "network"
	LabelEndpoint = "endpoint"
	LabelMethod   = "method"
	LabelStatus   = "status"
)

// namespaces and subsystems of all metrics exposed by the cranker
const (
	namespaceCranker = "cranker"

	subsystemCrank = "crank"
	subsystemRPC   = "rpc"
)
