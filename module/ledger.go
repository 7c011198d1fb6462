package module

import (
	"context"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// LedgerClient is the subset of the ledger RPC API the cranker depends on.
// Implementations must be safe for concurrent use.
type LedgerClient interface {
	// Endpoint returns the URL of the endpoint that served the last request.
	Endpoint() string

	// GetGenesisHash returns the genesis hash of the cluster behind the endpoint.
	GetGenesisHash(ctx context.Context) (solana.Hash, error)

	// AccountExists returns true if the account holds state at the given commitment.
	AccountExists(ctx context.Context, account solana.Identity, commitment solana.Commitment) (bool, error)

	// GetLatestBlockhash returns a recent blockhash to reference in a new transaction.
	GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.Hash, error)

	// SendTransaction submits a signed transaction and returns its signature. Returning without
	// error does not imply the transaction was executed.
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts solana.SendOptions) (solana.Signature, error)

	// GetSignatureStatus returns the status of a submitted transaction,
	// or nil if the network does not know the signature (yet).
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error)
}
