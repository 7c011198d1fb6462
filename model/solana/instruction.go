package solana

// AccountMeta describes one account referenced by an instruction and the role it plays.
type AccountMeta struct {
	Identity   Identity
	IsSigner   bool
	IsWritable bool
}

// Meta returns an AccountMeta for the given identity.
func Meta(id Identity, signer bool, writable bool) AccountMeta {
	return AccountMeta{Identity: id, IsSigner: signer, IsWritable: writable}
}

// Instruction is a single call into an on-chain program.
type Instruction struct {
	ProgramID Identity
	Accounts  []AccountMeta
	Data      []byte
}
