package unittest

import (
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module/signer"
)

// Addresses of the savings vault deployment on devnet.
var (
	SavingsVaultProgram = solana.MustIdentityFromBase58("HfJVM6Ayjajt9H58AZoCFqkCQQFehSeQfGQbi3crxT8W")
	DevnetWallet        = solana.MustIdentityFromBase58("TUAXRFzyLeXmG9wPLaMXt66jUagfrWmL9oGq4rMwjAu")
	DevnetAsset         = solana.MustIdentityFromBase58("FmAFDKSPL61s8kQZCHwsZULA313pdHJ73PuBK4wePpNh")
	// DevnetSavingsVault is the savings vault of DevnetWallet for DevnetAsset.
	DevnetSavingsVault = solana.MustIdentityFromBase58("EoCfwVzKyX5MwfrYo9HZmUHXkz8ru6D1KHTvxVZy8LwY")
)

func IdentityFixture() solana.Identity {
	var id solana.Identity
	_, _ = crand.Read(id[:])
	return id
}

func IdentityListFixture(n int) []solana.Identity {
	ids := make([]solana.Identity, n)
	for i := range ids {
		ids[i] = IdentityFixture()
	}
	return ids
}

func HashFixture() solana.Hash {
	var h solana.Hash
	_, _ = crand.Read(h[:])
	return h
}

func SignatureFixture() solana.Signature {
	var sig solana.Signature
	_, _ = crand.Read(sig[:])
	return sig
}

// SignerFixture returns a signer with a random key.
func SignerFixture(t testing.TB) *signer.Local {
	seed := make([]byte, 32)
	_, err := crand.Read(seed)
	require.NoError(t, err)
	local, err := signer.NewLocalFromSeed(seed)
	require.NoError(t, err)
	return local
}
