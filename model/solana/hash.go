package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// HashLength is the size of a block or genesis hash.
const HashLength = 32

// Hash is a 32 byte ledger hash, used for recent blockhashes and genesis fingerprints.
type Hash [HashLength]byte

// HashFromBase58 parses the base58 text form of a hash.
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	b, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("could not decode base58 hash %q: %w", s, err)
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("invalid hash length for %q: expected %d bytes, got %d", s, HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// MustHashFromBase58 is HashFromBase58 for compile-time constants. It panics on invalid input.
func MustHashFromBase58(s string) Hash {
	h, err := HashFromBase58(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromBase58(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
