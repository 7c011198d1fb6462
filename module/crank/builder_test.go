package crank

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/utils/unittest"
)

func TestAccrueInterestDiscriminator(t *testing.T) {
	assert.Equal(t, [8]byte{47, 40, 115, 198, 91, 12, 222, 49}, AccrueInterestDiscriminator)
}

func TestSetComputeUnitLimit(t *testing.T) {
	ix := SetComputeUnitLimit(DefaultComputeUnitLimit)
	assert.Equal(t, solana.ComputeBudgetProgramID, ix.ProgramID)
	assert.Empty(t, ix.Accounts)
	require.Len(t, ix.Data, 5)
	assert.Equal(t, byte(0x02), ix.Data[0])
	assert.Equal(t, uint32(400_000), binary.LittleEndian.Uint32(ix.Data[1:]))
	assert.Equal(t, []byte{0x02, 0x80, 0x1a, 0x06, 0x00}, ix.Data)
}

func TestBuild(t *testing.T) {
	cranker := unittest.IdentityFixture()
	builder := NewBuilder(unittest.SavingsVaultProgram, 0)

	req, err := builder.Build(cranker, unittest.DevnetWallet, unittest.DevnetAsset)
	require.NoError(t, err)

	assert.Equal(t, DefaultComputeUnitLimit, req.ComputeUnitLimit)
	assert.Equal(t, unittest.DevnetSavingsVault, req.Vault.SavingsVault.Identity)
	assert.Equal(t, solana.MustIdentityFromBase58("3oRHQKRkwvvaYZeVSALpcM7zGxDNvtQTpkZBRDmcmhph"), req.Vault.SavingsVaultTreasury.Identity)
	assert.Equal(t, solana.MustIdentityFromBase58("H6A6ik9q1WdCSKWFHW9enUnmcRBwDdP11idqsZ1Y3YHB"), req.Vault.InterestDepositorManager.Identity)
	assert.Equal(t, solana.MustIdentityFromBase58("CkheNEyyohCC8tHXjLhdMp6rf7f8oLKxB6FR9fAsxFus"), req.Vault.InterestDepositorTreasury.Identity)

	ixs := req.Instructions()
	require.Len(t, ixs, 2)
	assert.Equal(t, SetComputeUnitLimit(DefaultComputeUnitLimit), ixs[0])

	accrue := ixs[1]
	assert.Equal(t, unittest.SavingsVaultProgram, accrue.ProgramID)
	assert.Equal(t, AccrueInterestDiscriminator[:], accrue.Data)
	assert.Equal(t, []solana.AccountMeta{
		{Identity: unittest.DevnetAsset, IsSigner: false, IsWritable: false},
		{Identity: cranker, IsSigner: true, IsWritable: true},
		{Identity: unittest.DevnetWallet, IsSigner: false, IsWritable: false},
		{Identity: req.Vault.SavingsVault.Identity, IsSigner: false, IsWritable: true},
		{Identity: req.Vault.SavingsVaultTreasury.Identity, IsSigner: false, IsWritable: true},
		{Identity: req.Vault.InterestDepositorManager.Identity, IsSigner: false, IsWritable: true},
		{Identity: req.Vault.InterestDepositorTreasury.Identity, IsSigner: false, IsWritable: true},
		{Identity: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{Identity: solana.ClockSysvarID, IsSigner: false, IsWritable: false},
	}, accrue.Accounts)
}

// TestBuild_Deterministic verifies that building the same request twice yields identical instructions.
func TestBuild_Deterministic(t *testing.T) {
	cranker := unittest.IdentityFixture()
	wallet := unittest.IdentityFixture()
	asset := unittest.IdentityFixture()
	builder := NewBuilder(unittest.SavingsVaultProgram, 200_000)

	first, err := builder.Build(cranker, wallet, asset)
	require.NoError(t, err)
	second, err := builder.Build(cranker, wallet, asset)
	require.NoError(t, err)

	assert.Equal(t, first.Instructions(), second.Instructions())
	assert.Equal(t, uint32(200_000), binary.LittleEndian.Uint32(first.Instructions()[0].Data[1:]))
}

// TestBuild_Transaction verifies that a crank request compiles into a transaction that fits the size limit,
// with the cranker as the only signer.
func TestBuild_Transaction(t *testing.T) {
	signer := unittest.SignerFixture(t)
	req, err := NewBuilder(unittest.SavingsVaultProgram, 0).Build(signer.Identity(), unittest.DevnetWallet, unittest.DevnetAsset)
	require.NoError(t, err)

	tx, err := solana.NewSignedTransaction(signer, req.Instructions(), unittest.HashFixture())
	require.NoError(t, err)
	require.Len(t, tx.Signatures, 1)

	msg := tx.Message
	assert.Equal(t, signer.Identity(), msg.AccountKeys[0])
	assert.Equal(t, uint8(1), msg.Header.NumRequiredSignatures)
	assert.Equal(t, uint8(0), msg.Header.NumReadonlySignedAccounts)
	// asset, wallet, token program, clock, compute budget program and savings vault program
	assert.Equal(t, uint8(6), msg.Header.NumReadonlyUnsignedAccounts)
	assert.Len(t, msg.AccountKeys, 11)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(raw), solana.MaxTransactionSize)
}

// TestBuilder_SetComputeUnitLimit verifies that a changed limit applies to subsequently built requests only.
func TestBuilder_SetComputeUnitLimit(t *testing.T) {
	builder := NewBuilder(unittest.SavingsVaultProgram, 0)
	assert.Equal(t, DefaultComputeUnitLimit, builder.ComputeUnitLimit())
	assert.Equal(t, unittest.SavingsVaultProgram, builder.Program())

	before, err := builder.Build(unittest.IdentityFixture(), unittest.DevnetWallet, unittest.DevnetAsset)
	require.NoError(t, err)

	previous, err := builder.SetComputeUnitLimit(200_000)
	require.NoError(t, err)
	assert.Equal(t, DefaultComputeUnitLimit, previous)

	after, err := builder.Build(unittest.IdentityFixture(), unittest.DevnetWallet, unittest.DevnetAsset)
	require.NoError(t, err)
	assert.Equal(t, DefaultComputeUnitLimit, before.ComputeUnitLimit)
	assert.Equal(t, uint32(200_000), after.ComputeUnitLimit)
	assert.Equal(t, uint32(200_000), binary.LittleEndian.Uint32(after.Instructions()[0].Data[1:]))

	for _, invalid := range []uint32{0, MaxComputeUnitLimit + 1} {
		_, err := builder.SetComputeUnitLimit(invalid)
		assert.ErrorIs(t, err, ErrInvalidComputeUnitLimit)
	}
	assert.Equal(t, uint32(200_000), builder.ComputeUnitLimit())
}
