package pda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/savings-vault/vault-cranker/model/solana"
)

var (
	testProgram = solana.MustIdentityFromBase58("HfJVM6Ayjajt9H58AZoCFqkCQQFehSeQfGQbi3crxT8W")
	testWallet  = solana.MustIdentityFromBase58("TUAXRFzyLeXmG9wPLaMXt66jUagfrWmL9oGq4rMwjAu")
	testAsset   = solana.MustIdentityFromBase58("FmAFDKSPL61s8kQZCHwsZULA313pdHJ73PuBK4wePpNh")
)

func TestDeriveVaultAccounts(t *testing.T) {
	accounts, err := DeriveVaultAccounts(testProgram, testAsset, testWallet)
	require.NoError(t, err)

	assert.Equal(t, "EoCfwVzKyX5MwfrYo9HZmUHXkz8ru6D1KHTvxVZy8LwY", accounts.SavingsVault.Identity.String())
	assert.Equal(t, "3oRHQKRkwvvaYZeVSALpcM7zGxDNvtQTpkZBRDmcmhph", accounts.SavingsVaultTreasury.Identity.String())
	assert.Equal(t, "H6A6ik9q1WdCSKWFHW9enUnmcRBwDdP11idqsZ1Y3YHB", accounts.InterestDepositorManager.Identity.String())
	assert.Equal(t, "CkheNEyyohCC8tHXjLhdMp6rf7f8oLKxB6FR9fAsxFus", accounts.InterestDepositorTreasury.Identity.String())
	assert.Equal(t, uint8(255), accounts.SavingsVault.Bump)

	// the individual helpers follow the same chain
	vault, err := SavingsVault(testProgram, testAsset, testWallet)
	require.NoError(t, err)
	assert.Equal(t, accounts.SavingsVault, vault)

	treasury, err := SavingsVaultTreasury(testProgram, vault.Identity)
	require.NoError(t, err)
	assert.Equal(t, accounts.SavingsVaultTreasury, treasury)

	manager, err := InterestDepositorManager(testProgram, testAsset)
	require.NoError(t, err)
	assert.Equal(t, accounts.InterestDepositorManager, manager)

	managerTreasury, err := InterestDepositorTreasury(testProgram, manager.Identity)
	require.NoError(t, err)
	assert.Equal(t, accounts.InterestDepositorTreasury, managerTreasury)
}

// TestDeriveVaultAccounts_ChainStability checks which accounts depend on the wallet and which only on the asset.
func TestDeriveVaultAccounts_ChainStability(t *testing.T) {
	identity := func(t *rapid.T, label string) solana.Identity {
		var id solana.Identity
		copy(id[:], rapid.SliceOfN(rapid.Byte(), solana.IdentityLength, solana.IdentityLength).Draw(t, label))
		return id
	}

	rapid.Check(t, func(t *rapid.T) {
		asset := identity(t, "asset")
		wallet := identity(t, "wallet")
		otherWallet := wallet
		otherWallet[0] ^= 0xff
		otherAsset := asset
		otherAsset[31] ^= 0xff

		base, err := DeriveVaultAccounts(testProgram, asset, wallet)
		require.NoError(t, err)

		walletChanged, err := DeriveVaultAccounts(testProgram, asset, otherWallet)
		require.NoError(t, err)
		assert.NotEqual(t, base.SavingsVault, walletChanged.SavingsVault)
		assert.NotEqual(t, base.SavingsVaultTreasury, walletChanged.SavingsVaultTreasury)
		assert.Equal(t, base.InterestDepositorManager, walletChanged.InterestDepositorManager)
		assert.Equal(t, base.InterestDepositorTreasury, walletChanged.InterestDepositorTreasury)

		assetChanged, err := DeriveVaultAccounts(testProgram, otherAsset, wallet)
		require.NoError(t, err)
		assert.NotEqual(t, base.SavingsVault.Identity, assetChanged.SavingsVault.Identity)
		assert.NotEqual(t, base.SavingsVaultTreasury.Identity, assetChanged.SavingsVaultTreasury.Identity)
		assert.NotEqual(t, base.InterestDepositorManager.Identity, assetChanged.InterestDepositorManager.Identity)
		assert.NotEqual(t, base.InterestDepositorTreasury.Identity, assetChanged.InterestDepositorTreasury.Identity)
	})
}
