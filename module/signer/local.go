// Package signer provides the cranker's transaction signing key.
package signer

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// Local signs with an ed25519 key held in memory.
type Local struct {
	key ed25519.PrivateKey
	id  solana.Identity
}

var _ solana.Signer = (*Local)(nil)

// NewLocal wraps an ed25519 private key.
func NewLocal(key ed25519.PrivateKey) (*Local, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	id, err := solana.BytesToIdentity(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not derive public identity: %w", err)
	}
	return &Local{key: key, id: id}, nil
}

// NewLocalFromSeed creates a signer from a 32 byte ed25519 seed.
func NewLocalFromSeed(seed []byte) (*Local, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return NewLocal(ed25519.NewKeyFromSeed(seed))
}

// LoadKeypairFile reads a key file in the ledger CLI format: a JSON array of the 64 bytes
// seed||public key. The embedded public key must match the seed.
func LoadKeypairFile(path string) (*Local, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read keypair file: %w", err)
	}
	return ParseKeypair(raw)
}

// ParseKeypair decodes the JSON keypair format read by LoadKeypairFile.
func ParseKeypair(raw []byte) (*Local, error) {
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, fmt.Errorf("could not decode keypair: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(ints))
	}
	key := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid keypair byte at position %d: %d", i, v)
		}
		key[i] = byte(v)
	}

	local, err := NewLocalFromSeed(key[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if string(local.id[:]) != string(key[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("keypair public key does not match its seed")
	}
	return local, nil
}

// MarshalKeypair encodes the key in the format read by ParseKeypair.
func (l *Local) MarshalKeypair() ([]byte, error) {
	ints := make([]int, len(l.key))
	for i, b := range l.key {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

func (l *Local) Identity() solana.Identity {
	return l.id
}

func (l *Local) Sign(message []byte) (solana.Signature, error) {
	var sig solana.Signature
	copy(sig[:], ed25519.Sign(l.key, message))
	return sig, nil
}
