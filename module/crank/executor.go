package crank

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/cluster"
)

// DefaultConfirmPollInterval is the interval at which the status of a submitted transaction is polled.
const DefaultConfirmPollInterval = 500 * time.Millisecond

// NetworkIdentifier resolves the network a ledger endpoint is connected to.
type NetworkIdentifier interface {
	Identify(ctx context.Context, source cluster.GenesisSource) (solana.Network, error)
}

// Config configures how crank transactions are submitted and verified.
type Config struct {
	// ConfirmTimeout is how long to wait for the submitted transaction to be processed before
	// checking the vault. Zero disables waiting.
	ConfirmTimeout time.Duration
	// ConfirmPollInterval is the interval between two signature status queries.
	ConfirmPollInterval time.Duration
	// SkipPreflight disables transaction simulation by the endpoint before submission.
	SkipPreflight bool
}

func DefaultConfig() Config {
	return Config{
		ConfirmTimeout:      30 * time.Second,
		ConfirmPollInterval: DefaultConfirmPollInterval,
		SkipPreflight:       false,
	}
}

// Executor submits accrue interest transactions and verifies that the target vault exists.
type Executor struct {
	log        zerolog.Logger
	client     module.LedgerClient
	signer     solana.Signer
	builder    *Builder
	identifier NetworkIdentifier
	metrics    module.CrankerMetrics
	config     Config
}

func NewExecutor(
	log zerolog.Logger,
	client module.LedgerClient,
	signer solana.Signer,
	builder *Builder,
	identifier NetworkIdentifier,
	metrics module.CrankerMetrics,
	config Config,
) *Executor {
	if config.ConfirmPollInterval <= 0 {
		config.ConfirmPollInterval = DefaultConfirmPollInterval
	}
	return &Executor{
		log:        log.With().Str("component", "crank_executor").Logger(),
		client:     client,
		signer:     signer,
		builder:    builder,
		identifier: identifier,
		metrics:    metrics,
		config:     config,
	}
}

// Cranker returns the identity paying for and signing crank transactions.
func (e *Executor) Cranker() solana.Identity {
	return e.signer.Identity()
}

// Execute cranks the savings vault of wallet for asset once.
// Success means the transaction was submitted and the vault account exists; whether interest
// was accrued by this transaction is not verified.
// Expected errors during normal operations:
//   - SubmissionFailedError if the transaction could not be submitted or failed on chain
//   - VaultNotFoundError if the savings vault could not be found after submission
func (e *Executor) Execute(ctx context.Context, wallet, asset solana.Identity) error {
	start := time.Now()
	err := e.execute(ctx, wallet, asset)
	e.metrics.CrankCompleted(wallet, asset, outcome(err), time.Since(start))
	return err
}

func (e *Executor) execute(ctx context.Context, wallet, asset solana.Identity) error {
	req, err := e.builder.Build(e.signer.Identity(), wallet, asset)
	if err != nil {
		return fmt.Errorf("could not build crank request: %w", err)
	}

	log := e.log.With().
		Str("wallet", wallet.String()).
		Str("asset", asset.String()).
		Str("savings_vault", req.Vault.SavingsVault.Identity.String()).
		Logger()

	sig, err := e.submit(ctx, req)
	if err != nil {
		return err
	}
	log.Info().Str("signature", sig.String()).Msg("accrue interest transaction submitted")

	if e.config.ConfirmTimeout > 0 {
		err = e.awaitProcessed(ctx, sig)
		if err != nil {
			return err
		}
	}

	return e.verify(ctx, log, req.Vault.SavingsVault.Identity)
}

// submit signs the crank transaction with the cranker as fee payer and sends it.
func (e *Executor) submit(ctx context.Context, req *Request) (solana.Signature, error) {
	blockhash, err := e.client.GetLatestBlockhash(ctx, solana.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, NewSubmissionFailedErrorf("could not get recent blockhash: %w", err)
	}

	tx, err := solana.NewSignedTransaction(e.signer, req.Instructions(), blockhash)
	if err != nil {
		return solana.Signature{}, NewSubmissionFailedErrorf("could not sign transaction: %w", err)
	}

	sig, err := e.client.SendTransaction(ctx, tx, solana.SendOptions{
		SkipPreflight:       e.config.SkipPreflight,
		PreflightCommitment: solana.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, NewSubmissionFailedErrorf("could not send transaction: %w", err)
	}
	return sig, nil
}

// awaitProcessed polls the status of sig until it was processed, failed, or the confirmation
// timeout elapsed. Elapsing the timeout is not an error, the vault check decides the outcome.
func (e *Executor) awaitProcessed(parent context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(parent, e.config.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.config.ConfirmPollInterval)
	defer ticker.Stop()

	log := e.log.With().Str("signature", sig.String()).Logger()
	for {
		status, err := e.client.GetSignatureStatus(ctx, sig)
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("could not get signature status")
		case status == nil:
			// not seen by the endpoint yet
		case status.Failed():
			return NewSubmissionFailedErrorf("transaction %s failed: %s", sig, string(status.Err))
		case status.ConfirmationStatus.Satisfies(solana.CommitmentProcessed):
			log.Debug().
				Uint64("slot", status.Slot).
				Str("confirmation_status", string(status.ConfirmationStatus)).
				Msg("transaction processed")
			return nil
		}

		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return parent.Err()
			}
			log.Warn().Dur("timeout", e.config.ConfirmTimeout).Msg("transaction not processed before timeout, checking vault anyway")
			return nil
		case <-ticker.C:
		}
	}
}

// verify checks that the vault account exists with relaxed consistency. If it does not, the
// network of the endpoint is included in the error to point out a cluster mismatch.
// A check interrupted by cancellation of ctx returns the context error, since it says nothing
// about the vault.
func (e *Executor) verify(ctx context.Context, log zerolog.Logger, vault solana.Identity) error {
	if ctx.Err() != nil {
		return fmt.Errorf("savings vault check aborted: %w", ctx.Err())
	}
	exists, err := e.client.AccountExists(ctx, vault, solana.CommitmentProcessed)
	if err == nil && exists {
		log.Info().Msg("savings vault verified")
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("savings vault check aborted: %w", ctx.Err())
	}

	network, idErr := e.identifier.Identify(ctx, e.client)
	if idErr != nil {
		log.Warn().Err(idErr).Msg("could not identify cluster, assuming production")
		network = solana.NetworkProduction
	} else {
		e.metrics.ClusterIdentified(network)
	}

	log.Error().
		Err(err).
		Str("network", network.String()).
		Str("explorer", "https://explorer.solana.com/address/"+vault.String()+network.ExplorerSuffix()).
		Msg("savings vault account not found")
	return NewVaultNotFoundError(vault, network, err)
}

func outcome(err error) module.CrankOutcome {
	switch {
	case err == nil:
		return module.CrankOutcomeSuccess
	case IsSubmissionFailedError(err):
		return module.CrankOutcomeSubmissionFailed
	case IsVaultNotFoundError(err):
		return module.CrankOutcomeVaultNotFound
	default:
		return module.CrankOutcomeError
	}
}
