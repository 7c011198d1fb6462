package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module/pda"
	"github.com/savings-vault/vault-cranker/module/scheduler"
)

var flagDerivePairs []string

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the program derived accounts of savings vaults",
	Long: `Derive prints the savings vault, its treasury, the interest depositor manager and its
treasury for every configured pair, or for the pairs given with --pair. No rpc endpoint
is contacted.`,
	RunE: runDerive,
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().StringSliceVar(&flagDerivePairs, "pair", nil, "wallet/asset pair to derive, overrides the configured pairs")
}

func runDerive(cmd *cobra.Command, _ []string) error {
	pairs := cfg.Pairs
	if len(flagDerivePairs) > 0 {
		pairs = make([]scheduler.Pair, 0, len(flagDerivePairs))
		for _, s := range flagDerivePairs {
			pair, err := scheduler.ParsePair(s)
			if err != nil {
				return err
			}
			pairs = append(pairs, pair)
		}
	}
	return writeVaultAccounts(cmd.OutOrStdout(), cfg.ProgramID, pairs)
}

func writeVaultAccounts(w io.Writer, program solana.Identity, pairs []scheduler.Pair) error {
	for _, pair := range pairs {
		accounts, err := pda.DeriveVaultAccounts(program, pair.Asset, pair.Wallet)
		if err != nil {
			return fmt.Errorf("could not derive accounts of pair %s: %w", pair, err)
		}
		fmt.Fprintf(w, "pair %s\n", pair)
		fmt.Fprintf(w, "  savings_vault                %s (bump %d)\n", accounts.SavingsVault.Identity, accounts.SavingsVault.Bump)
		fmt.Fprintf(w, "  savings_vault_treasury       %s (bump %d)\n", accounts.SavingsVaultTreasury.Identity, accounts.SavingsVaultTreasury.Bump)
		fmt.Fprintf(w, "  interest_depositor_manager   %s (bump %d)\n", accounts.InterestDepositorManager.Identity, accounts.InterestDepositorManager.Bump)
		fmt.Fprintf(w, "  interest_depositor_treasury  %s (bump %d)\n", accounts.InterestDepositorTreasury.Identity, accounts.InterestDepositorTreasury.Bump)
	}
	return nil
}
