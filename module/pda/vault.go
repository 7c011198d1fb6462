package pda

import (
	"fmt"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// Seed literals of the savings vault program. Changing any of these (or the seed order below)
// yields addresses the deployed program does not recognise.
var (
	SeedSavingsVault              = []byte("savings_vault")
	SeedSavingsVaultTreasury      = []byte("savings_vault-treasury")
	SeedInterestDepositorManager  = []byte("interest_depositor_manager")
	SeedInterestDepositorTreasury = []byte("interest_depositor_treasury")
)

// Address is a derived address together with its bump seed.
type Address struct {
	Identity solana.Identity
	Bump     uint8
}

// VaultAccounts is the chain of program accounts backing one (asset, wallet) savings vault.
type VaultAccounts struct {
	SavingsVault              Address
	SavingsVaultTreasury      Address
	InterestDepositorManager  Address
	InterestDepositorTreasury Address
}

// SavingsVault derives the vault of wallet for asset.
func SavingsVault(program, asset, wallet solana.Identity) (Address, error) {
	return find(program, SeedSavingsVault, asset[:], wallet[:])
}

// SavingsVaultTreasury derives the treasury token account of a savings vault.
func SavingsVaultTreasury(program, savingsVault solana.Identity) (Address, error) {
	return find(program, SeedSavingsVaultTreasury, savingsVault[:])
}

// InterestDepositorManager derives the per-asset interest depositor manager.
func InterestDepositorManager(program, asset solana.Identity) (Address, error) {
	return find(program, SeedInterestDepositorManager, asset[:])
}

// InterestDepositorTreasury derives the treasury of an interest depositor manager.
func InterestDepositorTreasury(program, manager solana.Identity) (Address, error) {
	return find(program, SeedInterestDepositorTreasury, manager[:])
}

// DeriveVaultAccounts derives all four accounts of the vault hierarchy, in dependency order.
func DeriveVaultAccounts(program, asset, wallet solana.Identity) (*VaultAccounts, error) {
	vault, err := SavingsVault(program, asset, wallet)
	if err != nil {
		return nil, fmt.Errorf("could not derive savings vault: %w", err)
	}
	vaultTreasury, err := SavingsVaultTreasury(program, vault.Identity)
	if err != nil {
		return nil, fmt.Errorf("could not derive savings vault treasury: %w", err)
	}
	manager, err := InterestDepositorManager(program, asset)
	if err != nil {
		return nil, fmt.Errorf("could not derive interest depositor manager: %w", err)
	}
	managerTreasury, err := InterestDepositorTreasury(program, manager.Identity)
	if err != nil {
		return nil, fmt.Errorf("could not derive interest depositor treasury: %w", err)
	}

	return &VaultAccounts{
		SavingsVault:              vault,
		SavingsVaultTreasury:      vaultTreasury,
		InterestDepositorManager:  manager,
		InterestDepositorTreasury: managerTreasury,
	}, nil
}

func find(program solana.Identity, seeds ...[]byte) (Address, error) {
	id, bump, err := FindProgramAddress(program, seeds...)
	if err != nil {
		return Address{}, err
	}
	return Address{Identity: id, Bump: bump}, nil
}
