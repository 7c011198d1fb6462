package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureLength is the size of an ed25519 transaction signature.
const SignatureLength = 64

// Signature is an ed25519 signature over a transaction message. The first signature of a
// transaction also serves as its id.
type Signature [SignatureLength]byte

// SignatureFromBase58 parses the base58 text form of a signature.
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("could not decode base58 signature %q: %w", s, err)
	}
	if len(b) != SignatureLength {
		return sig, fmt.Errorf("invalid signature length for %q: expected %d bytes, got %d", s, SignatureLength, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// Signer produces signatures on behalf of a single identity.
type Signer interface {
	Identity() Identity
	Sign(message []byte) (Signature, error)
}
