package solana

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// MaxTransactionSize is the largest serialized transaction the network accepts.
	MaxTransactionSize = 1232

	maxAccountKeys = 256
)

var ErrMissingSigner = errors.New("missing signer for required signature")

// MessageHeader counts the signer and read-only accounts at the front and back of the account key list.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction is an Instruction whose accounts were replaced by indices into Message.AccountKeys.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message is the legacy transaction message: the part of a transaction covered by signatures.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Identity
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// NewMessage compiles instructions into a message paid for by payer.
//
// Account keys are ordered writable signers, read-only signers, writable non-signers and
// read-only non-signers, with the payer always first. An account referenced more than once
// takes the union of its roles.
func NewMessage(payer Identity, instructions []Instruction, recentBlockhash Hash) (*Message, error) {
	type role struct {
		signer   bool
		writable bool
	}
	order := []Identity{payer}
	roles := map[Identity]*role{payer: {signer: true, writable: true}}

	add := func(meta AccountMeta) {
		r, ok := roles[meta.Identity]
		if !ok {
			r = &role{}
			roles[meta.Identity] = r
			order = append(order, meta.Identity)
		}
		r.signer = r.signer || meta.IsSigner
		r.writable = r.writable || meta.IsWritable
	}
	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			add(meta)
		}
		add(AccountMeta{Identity: ix.ProgramID})
	}
	if len(order) > maxAccountKeys {
		return nil, fmt.Errorf("too many account keys: %d (max %d)", len(order), maxAccountKeys)
	}

	var signedWritable, signedReadonly, unsignedWritable, unsignedReadonly []Identity
	for _, id := range order {
		r := roles[id]
		switch {
		case r.signer && r.writable:
			signedWritable = append(signedWritable, id)
		case r.signer:
			signedReadonly = append(signedReadonly, id)
		case r.writable:
			unsignedWritable = append(unsignedWritable, id)
		default:
			unsignedReadonly = append(unsignedReadonly, id)
		}
	}

	keys := make([]Identity, 0, len(order))
	keys = append(keys, signedWritable...)
	keys = append(keys, signedReadonly...)
	keys = append(keys, unsignedWritable...)
	keys = append(keys, unsignedReadonly...)

	index := make(map[Identity]uint8, len(keys))
	for i, id := range keys {
		index[id] = uint8(i)
	}

	compiled := make([]CompiledInstruction, 0, len(instructions))
	for _, ix := range instructions {
		accounts := make([]uint8, 0, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			accounts = append(accounts, index[meta.Identity])
		}
		compiled = append(compiled, CompiledInstruction{
			ProgramIDIndex: index[ix.ProgramID],
			Accounts:       accounts,
			Data:           ix.Data,
		})
	}

	return &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(signedWritable) + len(signedReadonly)),
			NumReadonlySignedAccounts:   uint8(len(signedReadonly)),
			NumReadonlyUnsignedAccounts: uint8(len(unsignedReadonly)),
		},
		AccountKeys:     keys,
		RecentBlockhash: recentBlockhash,
		Instructions:    compiled,
	}, nil
}

// Signers returns the identities whose signatures the message requires, in signature order.
func (m *Message) Signers() []Identity {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// MarshalBinary encodes the message in the legacy wire format.
func (m *Message) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	if err := writeCompactU16(&buf, len(m.AccountKeys)); err != nil {
		return nil, fmt.Errorf("could not encode account key count: %w", err)
	}
	for _, key := range m.AccountKeys {
		buf.Write(key[:])
	}
	buf.Write(m.RecentBlockhash[:])

	if err := writeCompactU16(&buf, len(m.Instructions)); err != nil {
		return nil, fmt.Errorf("could not encode instruction count: %w", err)
	}
	for i, ix := range m.Instructions {
		buf.WriteByte(ix.ProgramIDIndex)
		if err := writeCompactU16(&buf, len(ix.Accounts)); err != nil {
			return nil, fmt.Errorf("could not encode account count of instruction %d: %w", i, err)
		}
		buf.Write(ix.Accounts)
		if err := writeCompactU16(&buf, len(ix.Data)); err != nil {
			return nil, fmt.Errorf("could not encode data length of instruction %d: %w", i, err)
		}
		buf.Write(ix.Data)
	}
	return buf.Bytes(), nil
}

// Transaction is a message together with the signatures of every required signer.
type Transaction struct {
	Signatures []Signature
	Message    *Message
}

// NewSignedTransaction compiles and signs a transaction. Every signer required by the message
// must be among signers.
func NewSignedTransaction(payer Signer, instructions []Instruction, recentBlockhash Hash, signers ...Signer) (*Transaction, error) {
	msg, err := NewMessage(payer.Identity(), instructions, recentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("could not compile message: %w", err)
	}
	tx := &Transaction{Message: msg}
	if err := tx.Sign(append([]Signer{payer}, signers...)...); err != nil {
		return nil, err
	}
	return tx, nil
}

// Sign (re)computes all signatures of the transaction.
func (tx *Transaction) Sign(signers ...Signer) error {
	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not encode message: %w", err)
	}

	byID := make(map[Identity]Signer, len(signers))
	for _, s := range signers {
		byID[s.Identity()] = s
	}

	required := tx.Message.Signers()
	sigs := make([]Signature, len(required))
	for i, id := range required {
		s, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, id)
		}
		sig, err := s.Sign(payload)
		if err != nil {
			return fmt.Errorf("could not sign with %s: %w", id, err)
		}
		sigs[i] = sig
	}
	tx.Signatures = sigs
	return nil
}

// ID returns the first signature, which identifies the transaction on the network.
func (tx *Transaction) ID() (Signature, error) {
	if len(tx.Signatures) == 0 {
		return Signature{}, fmt.Errorf("transaction is not signed")
	}
	return tx.Signatures[0], nil
}

// MarshalBinary encodes the signed transaction in the legacy wire format.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCompactU16(&buf, len(tx.Signatures)); err != nil {
		return nil, fmt.Errorf("could not encode signature count: %w", err)
	}
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
	buf.Write(payload)

	if buf.Len() > MaxTransactionSize {
		return nil, fmt.Errorf("transaction too large: %d bytes (max %d)", buf.Len(), MaxTransactionSize)
	}
	return buf.Bytes(), nil
}

// Base64 returns the base64 encoding of the wire format, as submitted over RPC.
func (tx *Transaction) Base64() (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// writeCompactU16 writes n using the ledger's variable length "short vec" encoding:
// 7 bits per byte, least significant group first, high bit set on all but the last byte.
func writeCompactU16(buf *bytes.Buffer, n int) error {
	if n < 0 || n > 0xffff {
		return fmt.Errorf("length %d out of compact-u16 range", n)
	}
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			buf.WriteByte(b)
			return nil
		}
		buf.WriteByte(b | 0x80)
	}
}
