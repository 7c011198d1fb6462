// Package pda derives program addresses: account addresses owned by a program that are
// computed from seeds and have no private key.
package pda

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/minio/sha256-simd"

	"github.com/savings-vault/vault-cranker/model/solana"
)

const (
	// MaxSeeds is the maximum number of seeds, including the bump seed.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed in bytes.
	MaxSeedLength = 32

	derivationMarker = "ProgramDerivedAddress"
)

var (
	// ErrDerivationExhausted is returned when no bump in [0, 255] yields an off-curve address.
	ErrDerivationExhausted = errors.New("unable to find a viable program address bump seed")
	// ErrOnCurve is returned when the derived hash is a valid ed25519 point, and so could have a private key.
	ErrOnCurve       = errors.New("derived address lies on the ed25519 curve")
	ErrMaxSeedLength = fmt.Errorf("seed exceeds maximum length of %d bytes", MaxSeedLength)
	ErrMaxSeeds      = fmt.Errorf("more than %d seeds", MaxSeeds)
)

// CreateProgramAddress computes the address for exactly the given seeds.
//
// Expected errors:
//   - ErrMaxSeeds, ErrMaxSeedLength for malformed seed sets
//   - ErrOnCurve if the resulting hash is a point on the curve
func CreateProgramAddress(program solana.Identity, seeds ...[]byte) (solana.Identity, error) {
	if len(seeds) > MaxSeeds {
		return solana.Identity{}, ErrMaxSeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return solana.Identity{}, ErrMaxSeedLength
		}
	}

	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(derivationMarker))

	var address solana.Identity
	copy(address[:], h.Sum(nil))

	if IsOnCurve(address) {
		return solana.Identity{}, ErrOnCurve
	}
	return address, nil
}

// FindProgramAddress searches for the first bump, counting down from 255, for which
// seeds||bump yields an off-curve address. The result is fully determined by the inputs.
//
// Expected errors:
//   - ErrMaxSeeds, ErrMaxSeedLength for malformed seed sets
//   - ErrDerivationExhausted if every bump yields an on-curve address
func FindProgramAddress(program solana.Identity, seeds ...[]byte) (solana.Identity, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return solana.Identity{}, 0, ErrMaxSeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		address, err := CreateProgramAddress(program, withBump...)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return solana.Identity{}, 0, err
		}
		return address, uint8(b), nil
	}
	return solana.Identity{}, 0, ErrDerivationExhausted
}

// IsOnCurve returns true if the 32 bytes decode to a point on the ed25519 curve.
// Non-canonical encodings of valid points are accepted, matching the ledger's runtime.
func IsOnCurve(id solana.Identity) bool {
	_, err := new(edwards25519.Point).SetBytes(id[:])
	return err == nil
}
