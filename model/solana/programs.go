package solana

// Well-known program and sysvar addresses.
var (
	SystemProgramID        = ZeroIdentity
	TokenProgramID         = MustIdentityFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ComputeBudgetProgramID = MustIdentityFromBase58("ComputeBudget111111111111111111111111111111")
	ClockSysvarID          = MustIdentityFromBase58("SysvarC1ock11111111111111111111111111111111")
)
