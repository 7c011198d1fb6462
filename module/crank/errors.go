package crank

import (
	"errors"
	"fmt"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// ErrInvalidComputeUnitLimit is returned when a compute unit ceiling outside of the range accepted by the ledger is configured.
var ErrInvalidComputeUnitLimit = errors.New("invalid compute unit limit")

// SubmissionFailedError indicates that the accrue interest transaction could not be submitted,
// or was rejected by the network. The crank may be retried.
type SubmissionFailedError struct {
	err error
}

func NewSubmissionFailedError(err error) SubmissionFailedError {
	return SubmissionFailedError{err: err}
}

func NewSubmissionFailedErrorf(msg string, args ...interface{}) SubmissionFailedError {
	return SubmissionFailedError{err: fmt.Errorf(msg, args...)}
}

func (e SubmissionFailedError) Error() string {
	return fmt.Sprintf("accrue interest submission failed: %v", e.err)
}

func (e SubmissionFailedError) Unwrap() error {
	return e.err
}

// IsSubmissionFailedError returns whether err is a SubmissionFailedError
func IsSubmissionFailedError(err error) bool {
	var target SubmissionFailedError
	return errors.As(err, &target)
}

// VaultNotFoundError indicates that the savings vault could not be found after submission,
// usually because the wallet has no vault for the asset on the targeted cluster.
type VaultNotFoundError struct {
	Vault   solana.Identity
	Network solana.Network
	err     error
}

func NewVaultNotFoundError(vault solana.Identity, network solana.Network, err error) VaultNotFoundError {
	return VaultNotFoundError{Vault: vault, Network: network, err: err}
}

func (e VaultNotFoundError) Error() string {
	return fmt.Sprintf("savings vault account %s does not exist on cluster %s", e.Vault, e.Network)
}

// Unwrap returns the error of the account lookup, which is nil if the lookup succeeded
// and found no account.
func (e VaultNotFoundError) Unwrap() error {
	return e.err
}

// IsVaultNotFoundError returns whether err is a VaultNotFoundError
func IsVaultNotFoundError(err error) bool {
	var target VaultNotFoundError
	return errors.As(err, &target)
}
