package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/savings-vault/vault-cranker/module/cluster"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Print the network the rpc endpoint is connected to",
	RunE:  runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, _ []string) error {
	client, identifier, err := newClient(log, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RPCTimeout)
	defer cancel()

	network, err := identifier.Identify(ctx, client)
	if err != nil {
		return fmt.Errorf("could not identify cluster: %w", err)
	}
	genesis, err := client.GetGenesisHash(ctx)
	if err != nil {
		return cluster.NewEndpointUnreachableError(client.Endpoint(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "endpoint %s\nnetwork  %s\ngenesis  %s\n", client.Endpoint(), network, genesis)
	return nil
}
