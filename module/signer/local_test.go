package signer_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savings-vault/vault-cranker/module/signer"
	"github.com/savings-vault/vault-cranker/utils/unittest"
)

func TestLoadKeypairFile(t *testing.T) {
	original, err := signer.NewLocalFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	require.NoError(t, err)

	raw, err := original.MarshalKeypair()
	require.NoError(t, err)
	path := unittest.WriteFile(t, "id.json", raw)

	loaded, err := signer.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, original.Identity(), loaded.Identity())

	msg := []byte("message")
	sig, err := loaded.Sign(msg)
	require.NoError(t, err)
	id := loaded.Identity()
	assert.True(t, ed25519.Verify(ed25519.PublicKey(id[:]), msg, sig[:]))
}

func TestParseKeypair_Invalid(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		_, err := signer.ParseKeypair([]byte("{"))
		assert.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := signer.ParseKeypair([]byte("[1,2,3]"))
		assert.Error(t, err)
	})

	t.Run("byte out of range", func(t *testing.T) {
		ints := bytes.Repeat([]byte("1,"), 63)
		raw := append(append([]byte("["), ints...), []byte("256]")...)
		_, err := signer.ParseKeypair(raw)
		assert.Error(t, err)
	})

	t.Run("mismatched public key", func(t *testing.T) {
		local, err := signer.NewLocalFromSeed(bytes.Repeat([]byte{1}, ed25519.SeedSize))
		require.NoError(t, err)
		raw, err := local.MarshalKeypair()
		require.NoError(t, err)
		var ints []int
		require.NoError(t, json.Unmarshal(raw, &ints))
		ints[len(ints)-1] ^= 0x01
		corrupted, err := json.Marshal(ints)
		require.NoError(t, err)

		_, err = signer.ParseKeypair(corrupted)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := signer.LoadKeypairFile("/does/not/exist.json")
		assert.Error(t, err)
	})
}
