package solana

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentityLength is the size of an account or program address.
const IdentityLength = 32

// Identity is the 32 byte address of an account or program on the ledger.
// Two identities are equal iff their bytes are equal.
type Identity [IdentityLength]byte

// ZeroIdentity is the all-zero address, which is also the system program id.
var ZeroIdentity = Identity{}

// BytesToIdentity converts a byte slice of exactly IdentityLength bytes to an Identity.
func BytesToIdentity(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentityLength {
		return id, fmt.Errorf("invalid identity length: expected %d bytes, got %d", IdentityLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IdentityFromBase58 parses the base58 text form of an address.
func IdentityFromBase58(s string) (Identity, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Identity{}, fmt.Errorf("could not decode base58 identity %q: %w", s, err)
	}
	id, err := BytesToIdentity(b)
	if err != nil {
		return Identity{}, fmt.Errorf("could not parse identity %q: %w", s, err)
	}
	return id, nil
}

// MustIdentityFromBase58 is IdentityFromBase58 for compile-time constants. It panics on invalid input.
func MustIdentityFromBase58(s string) Identity {
	id, err := IdentityFromBase58(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Bytes returns the byte representation of the identity.
func (id Identity) Bytes() []byte {
	return id[:]
}

// String returns the base58 encoding of the identity.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero returns true if every byte of the identity is zero.
func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}

// Equals returns true if both identities hold the same bytes.
func (id Identity) Equals(other Identity) bool {
	return id == other
}

// Compare orders identities by their byte representation.
func (id Identity) Compare(other Identity) int {
	return bytes.Compare(id[:], other[:])
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := IdentityFromBase58(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
