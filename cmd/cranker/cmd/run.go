package cmd

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
)

var flagPrintConfig bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cranker until interrupted",
	Long: `Run checks every configured pair on the check interval and submits accrue_interest once
the crank interval has passed since its last successful crank. The admin and metrics
servers are started alongside when configured.`,
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&flagPrintConfig, "print-config", false, "print the effective configuration before starting")
}

func runNode(cmd *cobra.Command, _ []string) error {
	if flagPrintConfig {
		out, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("could not encode config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	}

	n, err := newNode(log, cfg, clock.New())
	if err != nil {
		return err
	}
	return n.Run()
}
