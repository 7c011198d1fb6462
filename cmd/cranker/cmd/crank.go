package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/savings-vault/vault-cranker/module/metrics"
	"github.com/savings-vault/vault-cranker/module/scheduler"
)

var flagCrankPairs []string

var crankCmd = &cobra.Command{
	Use:   "crank",
	Short: "Crank every pair once, regardless of its schedule",
	Long: `Crank submits accrue_interest once for every configured pair, or for the pairs given with
--pair, and exits with a non-zero status if any of them failed.`,
	RunE: runCrank,
}

func init() {
	rootCmd.AddCommand(crankCmd)
	crankCmd.Flags().StringSliceVar(&flagCrankPairs, "pair", nil, "wallet/asset pair to crank, overrides the configured pairs")
}

func runCrank(cmd *cobra.Command, _ []string) error {
	pairs := cfg.Pairs
	if len(flagCrankPairs) > 0 {
		pairs = make([]scheduler.Pair, 0, len(flagCrankPairs))
		for _, s := range flagCrankPairs {
			pair, err := scheduler.ParsePair(s)
			if err != nil {
				return err
			}
			pairs = append(pairs, pair)
		}
	}

	registry := prometheus.NewRegistry()
	client, identifier, err := newClient(log, cfg, registry)
	if err != nil {
		return err
	}
	executor, _, err := newExecutor(log, cfg, client, identifier, metrics.NewCrankerCollector(registry))
	if err != nil {
		return err
	}

	return crankPairs(cmd.Context(), cmd.OutOrStdout(), executor, pairs)
}

// crankPairs executes a crank for every pair in order. A failed pair does not prevent
// the remaining pairs from being cranked.
func crankPairs(ctx context.Context, w io.Writer, executor scheduler.Executor, pairs []scheduler.Pair) error {
	var errs *multierror.Error
	for _, pair := range pairs {
		if err := executor.Execute(ctx, pair.Wallet, pair.Asset); err != nil {
			fmt.Fprintf(w, "%s failed: %v\n", pair, err)
			errs = multierror.Append(errs, fmt.Errorf("could not crank pair %s: %w", pair, err))
			continue
		}
		fmt.Fprintf(w, "%s ok\n", pair)
	}
	return errs.ErrorOrNil()
}
