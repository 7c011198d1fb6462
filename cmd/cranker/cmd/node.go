package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/admin"
	"github.com/savings-vault/vault-cranker/admin/commands"
	"github.com/savings-vault/vault-cranker/admin/commands/common"
	crankercommands "github.com/savings-vault/vault-cranker/admin/commands/cranker"
	"github.com/savings-vault/vault-cranker/config"
	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/cluster"
	"github.com/savings-vault/vault-cranker/module/component"
	"github.com/savings-vault/vault-cranker/module/crank"
	"github.com/savings-vault/vault-cranker/module/irrecoverable"
	"github.com/savings-vault/vault-cranker/module/metrics"
	"github.com/savings-vault/vault-cranker/module/rpc"
	"github.com/savings-vault/vault-cranker/module/scheduler"
	"github.com/savings-vault/vault-cranker/module/signer"
	"github.com/savings-vault/vault-cranker/module/util"
)

// shutdownTimeout bounds how long the node waits for its components to stop.
const shutdownTimeout = 30 * time.Second

// node wires the components of a long-running cranker.
type node struct {
	log      zerolog.Logger
	config   *config.Config
	registry *prometheus.Registry

	client     *rpc.Client
	identifier *cluster.Identifier
	builder    *crank.Builder
	executor   *crank.Executor
	runner     *scheduler.Runner

	// optional, nil if disabled
	admin         *admin.CommandRunner
	metricsServer *metrics.Server
}

// newClient creates the ledger rpc client and the identifier of the cluster behind it.
func newClient(log zerolog.Logger, cfg *config.Config, registerer prometheus.Registerer) (*rpc.Client, *cluster.Identifier, error) {
	client, err := rpc.NewClient(log, metrics.NewRPCCollector(registerer), cfg.RPC())
	if err != nil {
		return nil, nil, fmt.Errorf("could not create rpc client: %w", err)
	}
	identifier, err := cluster.NewIdentifier(log, cfg.GenesisCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create cluster identifier: %w", err)
	}
	return client, identifier, nil
}

// newExecutor loads the cranker key and creates the executor submitting crank transactions.
func newExecutor(
	log zerolog.Logger,
	cfg *config.Config,
	client module.LedgerClient,
	identifier *cluster.Identifier,
	collector module.CrankerMetrics,
) (*crank.Executor, *crank.Builder, error) {
	path, err := cfg.KeypairFile()
	if err != nil {
		return nil, nil, err
	}
	key, err := signer.LoadKeypairFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load cranker keypair from %s: %w", path, err)
	}

	builder := crank.NewBuilder(cfg.ProgramID, cfg.ComputeUnitLimit)
	executor := crank.NewExecutor(log, client, key, builder, identifier, collector, cfg.Crank())
	return executor, builder, nil
}

// newNode builds every component of the cranker from cfg. Nothing is started.
func newNode(log zerolog.Logger, cfg *config.Config, clk clock.Clock) (*node, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	crankerMetrics := metrics.NewCrankerCollector(registry)

	client, identifier, err := newClient(log, cfg, registry)
	if err != nil {
		return nil, err
	}
	executor, builder, err := newExecutor(log, cfg, client, identifier, crankerMetrics)
	if err != nil {
		return nil, err
	}
	runner, err := scheduler.NewRunner(log, cfg.Pairs, executor, crankerMetrics, clk, cfg.Scheduler())
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}

	n := &node{
		log:        log,
		config:     cfg,
		registry:   registry,
		client:     client,
		identifier: identifier,
		builder:    builder,
		executor:   executor,
		runner:     runner,
	}

	if cfg.AdminAddr != "" {
		bootstrapper := admin.NewCommandRunnerBootstrapper()
		commands.Register(bootstrapper, "set-log-level", &common.SetLogLevelCommand{})
		commands.Register(bootstrapper, "crank-now", crankercommands.NewCrankNowCommand(runner))
		commands.Register(bootstrapper, "list-schedules", crankercommands.NewListSchedulesCommand(runner))
		commands.Register(bootstrapper, "set-compute-unit-limit", crankercommands.NewSetComputeUnitLimitCommand(builder))
		n.admin = bootstrapper.Bootstrap(log, cfg.AdminAddr)
	}
	if cfg.MetricsPort != 0 {
		n.metricsServer = metrics.NewServer(log, registry, cfg.MetricsPort, n.health, cfg.ProfilerEnabled)
	}

	return n, nil
}

// components returns the components started with the node.
func (n *node) components() []component.Component {
	components := []component.Component{n.runner}
	if n.admin != nil {
		components = append(components, n.admin)
	}
	if n.metricsServer != nil {
		components = append(components, n.metricsServer)
	}
	return components
}

// readyDoneAware returns the components whose startup and shutdown are awaited.
func (n *node) readyDoneAware() []module.ReadyDoneAware {
	var aware []module.ReadyDoneAware
	for _, c := range n.components() {
		aware = append(aware, c)
	}
	return aware
}

// health reports the node healthy while every scheduler is running.
func (n *node) health() error {
	if util.CheckClosed(n.runner.ShutdownSignal()) {
		return errors.New("schedulers shutting down")
	}
	if !util.CheckClosed(n.runner.Ready()) {
		return errors.New("schedulers not started")
	}
	return nil
}

// Run starts the node and blocks until it receives SIGINT or SIGTERM, or a component throws an
// irrecoverable error. A second signal during shutdown aborts waiting for the components.
func (n *node) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sigCtx, cancel := util.WithSignal(context.Background(), sigChan)
	defer cancel()
	return n.run(sigCtx)
}

// run starts the node and stops it once ctx is done.
func (n *node) run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(runCtx)

	for _, c := range n.components() {
		c.Start(signalerCtx)
	}
	aware := n.readyDoneAware()

	select {
	case <-util.AllReady(aware...):
		n.log.Info().
			Str("cranker", n.executor.Cranker().String()).
			Str("endpoint", n.client.Endpoint()).
			Int("pairs", len(n.config.Pairs)).
			Msg("cranker startup complete")
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("unhandled irrecoverable error during startup: %w", err)
	}

	select {
	case <-ctx.Done():
		n.log.Info().Err(ctx.Err()).Msg("cranker shutting down")
	case err := <-errChan:
		return fmt.Errorf("unhandled irrecoverable error: %w", err)
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := util.WaitClosed(shutdownCtx, util.AllDone(aware...)); err != nil {
		return fmt.Errorf("cranker did not shut down in time: %w", err)
	}

	n.log.Info().Msg("cranker shutdown complete")
	return nil
}
