package crank

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/sha256-simd"
	"go.uber.org/atomic"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module/pda"
)

const (
	// DefaultComputeUnitLimit is the compute unit ceiling requested for an accrue interest transaction.
	DefaultComputeUnitLimit uint32 = 400_000
	// MaxComputeUnitLimit is the largest compute unit ceiling the ledger accepts for a transaction.
	MaxComputeUnitLimit uint32 = 1_400_000
)

// instruction tag of SetComputeUnitLimit in the compute budget program
const setComputeUnitLimitTag = 0x02

// AccrueInterestDiscriminator selects the accrue_interest instruction of the savings vault program.
var AccrueInterestDiscriminator = InstructionDiscriminator("accrue_interest")

// InstructionDiscriminator returns the 8 byte prefix identifying an instruction of an anchor program.
func InstructionDiscriminator(name string) [8]byte {
	var discriminator [8]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(discriminator[:], sum[:8])
	return discriminator
}

// Request is everything needed to crank a single savings vault. It is built fresh for every
// attempt and never retained.
type Request struct {
	Program          solana.Identity
	Cranker          solana.Identity
	Wallet           solana.Identity
	Asset            solana.Identity
	Vault            pda.VaultAccounts
	TokenProgram     solana.Identity
	Clock            solana.Identity
	ComputeUnitLimit uint32
}

// Instructions returns the compute budget and accrue interest instructions, in the order
// they must appear in the transaction.
func (r *Request) Instructions() []solana.Instruction {
	return []solana.Instruction{
		SetComputeUnitLimit(r.ComputeUnitLimit),
		r.AccrueInterest(),
	}
}

// AccrueInterest returns the accrue_interest instruction. The account order is part of the
// program's interface.
func (r *Request) AccrueInterest() solana.Instruction {
	return solana.Instruction{
		ProgramID: r.Program,
		Accounts: []solana.AccountMeta{
			solana.Meta(r.Asset, false, false),
			solana.Meta(r.Cranker, true, true),
			solana.Meta(r.Wallet, false, false),
			solana.Meta(r.Vault.SavingsVault.Identity, false, true),
			solana.Meta(r.Vault.SavingsVaultTreasury.Identity, false, true),
			solana.Meta(r.Vault.InterestDepositorManager.Identity, false, true),
			solana.Meta(r.Vault.InterestDepositorTreasury.Identity, false, true),
			solana.Meta(r.TokenProgram, false, false),
			solana.Meta(r.Clock, false, false),
		},
		Data: AccrueInterestDiscriminator[:],
	}
}

// SetComputeUnitLimit returns a compute budget instruction requesting limit compute units for the transaction.
func SetComputeUnitLimit(limit uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimitTag
	binary.LittleEndian.PutUint32(data[1:], limit)
	return solana.Instruction{
		ProgramID: solana.ComputeBudgetProgramID,
		Data:      data,
	}
}

// Builder assembles crank requests for a savings vault program deployment.
// The compute unit limit may be changed while requests are built concurrently.
type Builder struct {
	program          solana.Identity
	computeUnitLimit *atomic.Uint32
}

func NewBuilder(program solana.Identity, computeUnitLimit uint32) *Builder {
	if computeUnitLimit == 0 {
		computeUnitLimit = DefaultComputeUnitLimit
	}
	return &Builder{
		program:          program,
		computeUnitLimit: atomic.NewUint32(computeUnitLimit),
	}
}

// Program returns the savings vault program the requests are addressed to.
func (b *Builder) Program() solana.Identity {
	return b.program
}

// ComputeUnitLimit returns the compute unit ceiling of subsequently built requests.
func (b *Builder) ComputeUnitLimit() uint32 {
	return b.computeUnitLimit.Load()
}

// SetComputeUnitLimit changes the compute unit ceiling of subsequently built requests and
// returns the previous value.
// Expected errors during normal operations:
//   - ErrInvalidComputeUnitLimit if limit is zero or exceeds MaxComputeUnitLimit
func (b *Builder) SetComputeUnitLimit(limit uint32) (uint32, error) {
	if limit == 0 || limit > MaxComputeUnitLimit {
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidComputeUnitLimit, limit, MaxComputeUnitLimit)
	}
	return b.computeUnitLimit.Swap(limit), nil
}

// Build derives the vault accounts of (wallet, asset) and returns the request signed by cranker.
// No error returns are expected during normal operations.
func (b *Builder) Build(cranker, wallet, asset solana.Identity) (*Request, error) {
	accounts, err := pda.DeriveVaultAccounts(b.program, asset, wallet)
	if err != nil {
		return nil, fmt.Errorf("could not derive vault accounts of wallet %s for asset %s: %w", wallet, asset, err)
	}

	return &Request{
		Program:          b.program,
		Cranker:          cranker,
		Wallet:           wallet,
		Asset:            asset,
		Vault:            *accounts,
		TokenProgram:     solana.TokenProgramID,
		Clock:            solana.ClockSysvarID,
		ComputeUnitLimit: b.computeUnitLimit.Load(),
	}, nil
}
