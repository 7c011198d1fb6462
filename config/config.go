// Package config loads the cranker configuration from the embedded defaults, an optional
// config file, the environment and command line flags, in increasing order of precedence.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module/crank"
	"github.com/savings-vault/vault-cranker/module/rpc"
	"github.com/savings-vault/vault-cranker/module/scheduler"
)

// EnvPrefix prefixes every configuration key read from the environment, for example
// CRANKER_RPC_ENDPOINTS for rpc-endpoints.
const EnvPrefix = "CRANKER"

var (
	//go:embed default-config.yml
	defaultConfigYAML []byte

	validate = validator.New()
)

const (
	// All constant strings are used for CLI flag names and corresponding keys for config values.
	// rpc client
	rpcEndpoints                    = "rpc-endpoints"
	rpcTimeout                      = "rpc-timeout"
	rpcRateLimit                    = "rpc-rate-limit"
	rpcRateBurst                    = "rpc-rate-burst"
	rpcMaxFailedRequests            = "rpc-max-failed-requests"
	rpcCircuitBreakerEnabled        = "rpc-circuit-breaker-enabled"
	rpcCircuitBreakerRestoreTimeout = "rpc-circuit-breaker-restore-timeout"
	rpcCircuitBreakerMaxFailures    = "rpc-circuit-breaker-max-failures"
	rpcCircuitBreakerMaxRequests    = "rpc-circuit-breaker-max-requests"
	// crank transactions
	keypairPath         = "keypair-path"
	programID           = "program-id"
	computeUnitLimit    = "compute-unit-limit"
	confirmTimeout      = "confirm-timeout"
	confirmPollInterval = "confirm-poll-interval"
	skipPreflight       = "skip-preflight"
	// scheduling
	crankInterval       = "crank-interval"
	checkInterval       = "check-interval"
	runOnStart          = "run-on-start"
	missingVaultBackoff = "missing-vault-backoff"
	retryMaxRetries     = "retry-max-retries"
	retryInitialDelay   = "retry-initial-delay"
	retryMaxDelay       = "retry-max-delay"
	retryJitterPercent  = "retry-jitter-percent"
	pairs               = "pairs"
	// operations
	metricsPort      = "metrics-port"
	profilerEnabled  = "profiler-enabled"
	adminAddr        = "admin-addr"
	logLevel         = "loglevel"
	logFormat        = "log-format"
	genesisCacheSize = "genesis-cache-size"
)

// Config is the complete cranker configuration.
type Config struct {
	RPCEndpoints                    []string      `validate:"required,min=1,dive,url" mapstructure:"rpc-endpoints" yaml:"rpc-endpoints"`
	RPCTimeout                      time.Duration `validate:"gt=0" mapstructure:"rpc-timeout" yaml:"rpc-timeout"`
	RPCRateLimit                    float64       `validate:"gte=0" mapstructure:"rpc-rate-limit" yaml:"rpc-rate-limit"`
	RPCRateBurst                    int           `validate:"gte=0" mapstructure:"rpc-rate-burst" yaml:"rpc-rate-burst"`
	RPCMaxFailedRequests            int           `validate:"gte=0" mapstructure:"rpc-max-failed-requests" yaml:"rpc-max-failed-requests"`
	RPCCircuitBreakerEnabled        bool          `mapstructure:"rpc-circuit-breaker-enabled" yaml:"rpc-circuit-breaker-enabled"`
	RPCCircuitBreakerRestoreTimeout time.Duration `validate:"gt=0" mapstructure:"rpc-circuit-breaker-restore-timeout" yaml:"rpc-circuit-breaker-restore-timeout"`
	RPCCircuitBreakerMaxFailures    uint32        `validate:"gt=0" mapstructure:"rpc-circuit-breaker-max-failures" yaml:"rpc-circuit-breaker-max-failures"`
	RPCCircuitBreakerMaxRequests    uint32        `validate:"gt=0" mapstructure:"rpc-circuit-breaker-max-requests" yaml:"rpc-circuit-breaker-max-requests"`

	KeypairPath         string          `validate:"required" mapstructure:"keypair-path" yaml:"keypair-path"`
	ProgramID           solana.Identity `validate:"required" mapstructure:"program-id" yaml:"program-id"`
	ComputeUnitLimit    uint32          `validate:"gt=0,lte=1400000" mapstructure:"compute-unit-limit" yaml:"compute-unit-limit"`
	ConfirmTimeout      time.Duration   `validate:"gte=0" mapstructure:"confirm-timeout" yaml:"confirm-timeout"`
	ConfirmPollInterval time.Duration   `validate:"gt=0" mapstructure:"confirm-poll-interval" yaml:"confirm-poll-interval"`
	SkipPreflight       bool            `mapstructure:"skip-preflight" yaml:"skip-preflight"`

	CrankInterval       time.Duration    `validate:"gt=0" mapstructure:"crank-interval" yaml:"crank-interval"`
	CheckInterval       time.Duration    `validate:"gt=0" mapstructure:"check-interval" yaml:"check-interval"`
	RunOnStart          bool             `mapstructure:"run-on-start" yaml:"run-on-start"`
	MissingVaultBackoff uint64           `mapstructure:"missing-vault-backoff" yaml:"missing-vault-backoff"`
	RetryMaxRetries     uint64           `mapstructure:"retry-max-retries" yaml:"retry-max-retries"`
	RetryInitialDelay   time.Duration    `validate:"gt=0" mapstructure:"retry-initial-delay" yaml:"retry-initial-delay"`
	RetryMaxDelay       time.Duration    `validate:"gtefield=RetryInitialDelay" mapstructure:"retry-max-delay" yaml:"retry-max-delay"`
	RetryJitterPercent  uint64           `validate:"lte=100" mapstructure:"retry-jitter-percent" yaml:"retry-jitter-percent"`
	Pairs               []scheduler.Pair `validate:"required,min=1,unique,dive" mapstructure:"pairs" yaml:"pairs"`

	MetricsPort      uint   `validate:"lte=65535" mapstructure:"metrics-port" yaml:"metrics-port"`
	ProfilerEnabled  bool   `mapstructure:"profiler-enabled" yaml:"profiler-enabled"`
	AdminAddr        string `validate:"omitempty,hostname_port" mapstructure:"admin-addr" yaml:"admin-addr"`
	LogLevel         string `validate:"oneof=trace debug info warn error" mapstructure:"loglevel" yaml:"loglevel"`
	LogFormat        string `validate:"oneof=console json" mapstructure:"log-format" yaml:"log-format"`
	GenesisCacheSize int    `validate:"gt=0" mapstructure:"genesis-cache-size" yaml:"genesis-cache-size"`
}

// Default returns the configuration embedded in the binary.
// No error returns are expected during normal operations.
func Default() (*Config, error) {
	v := viper.New()
	if err := readDefaults(v); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// InitializeFlags initializes all CLI flags of the cranker configuration on the provided pflag set,
// using the values of config as flag defaults.
func InitializeFlags(flags *pflag.FlagSet, config *Config) {
	flags.StringSlice(rpcEndpoints, config.RPCEndpoints, "JSON-RPC endpoints of the ledger, in order of preference")
	flags.Duration(rpcTimeout, config.RPCTimeout, "maximum duration of a single rpc request")
	flags.Float64(rpcRateLimit, config.RPCRateLimit, "maximum rpc requests per second across all endpoints, 0 disables rate limiting")
	flags.Int(rpcRateBurst, config.RPCRateBurst, "number of rpc requests allowed to exceed the rate limit momentarily")
	flags.Int(rpcMaxFailedRequests, config.RPCMaxFailedRequests, "number of failed endpoints after which an rpc call gives up")
	flags.Bool(rpcCircuitBreakerEnabled, config.RPCCircuitBreakerEnabled, "whether to guard every rpc endpoint with a circuit breaker")
	flags.Duration(rpcCircuitBreakerRestoreTimeout, config.RPCCircuitBreakerRestoreTimeout, "duration after which an open circuit breaker allows trial requests")
	flags.Uint32(rpcCircuitBreakerMaxFailures, config.RPCCircuitBreakerMaxFailures, "consecutive failed requests after which the circuit breaker of an endpoint opens")
	flags.Uint32(rpcCircuitBreakerMaxRequests, config.RPCCircuitBreakerMaxRequests, "trial requests allowed while the circuit breaker is half-open")

	flags.String(keypairPath, config.KeypairPath, "path of the cranker keypair file, a JSON array of 64 bytes")
	flags.String(programID, config.ProgramID.String(), "address of the savings vault program")
	flags.Uint32(computeUnitLimit, config.ComputeUnitLimit, "compute unit ceiling of crank transactions")
	flags.Duration(confirmTimeout, config.ConfirmTimeout, "how long to wait for a crank transaction to be processed, 0 disables waiting")
	flags.Duration(confirmPollInterval, config.ConfirmPollInterval, "interval between two transaction status queries")
	flags.Bool(skipPreflight, config.SkipPreflight, "submit crank transactions without preflight simulation")

	flags.Duration(crankInterval, config.CrankInterval, "minimum time between two successful cranks of a pair")
	flags.Duration(checkInterval, config.CheckInterval, "how often every pair is checked for being due")
	flags.Bool(runOnStart, config.RunOnStart, "crank every pair right after startup")
	flags.Uint64(missingVaultBackoff, config.MissingVaultBackoff, "consecutive cycles with a missing savings vault after which a pair is held back for one crank interval, 0 disables it")
	flags.Uint64(retryMaxRetries, config.RetryMaxRetries, "retries of a failed submission within one cycle")
	flags.Duration(retryInitialDelay, config.RetryInitialDelay, "delay before the first retry, doubled for every subsequent retry")
	flags.Duration(retryMaxDelay, config.RetryMaxDelay, "maximum delay between two retries")
	flags.Uint64(retryJitterPercent, config.RetryJitterPercent, "percentage by which retry delays are randomized")
	flags.StringSlice(pairs, pairStrings(config.Pairs), "wallet/asset pairs to crank, as base58 addresses")

	flags.Uint(metricsPort, config.MetricsPort, "port of the metrics server, 0 disables it")
	flags.Bool(profilerEnabled, config.ProfilerEnabled, "expose pprof endpoints on the metrics server")
	flags.String(adminAddr, config.AdminAddr, "address of the admin server, empty disables it")
	flags.String(logLevel, config.LogLevel, "level for logging output")
	flags.String(logFormat, config.LogFormat, "format of logging output, console or json")
	flags.Int(genesisCacheSize, config.GenesisCacheSize, "number of endpoints whose genesis hash is cached")
}

// Load builds the effective configuration. Values from the config file at path (if not empty),
// the environment and the changed flags override the embedded defaults in that order.
// Expected errors during normal operations:
//   - InvalidConfigError if the resulting configuration fails validation
func Load(v *viper.Viper, flags *pflag.FlagSet, path string) (*Config, error) {
	if err := readDefaults(v); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("could not bind flags: %w", err)
		}
	}

	config, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every field of the configuration.
// Expected errors during normal operations:
//   - InvalidConfigError if any field holds an invalid value
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return NewInvalidConfigError(err)
	}
	return nil
}

// YAML renders the configuration in the format of the config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// KeypairFile returns the keypair path with a leading ~ expanded to the home directory.
func (c *Config) KeypairFile() (string, error) {
	path := c.KeypairPath
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not expand keypair path %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// RPC returns the configuration of the ledger RPC client.
func (c *Config) RPC() rpc.Config {
	return rpc.Config{
		Endpoints:         c.RPCEndpoints,
		Timeout:           c.RPCTimeout,
		RateLimit:         c.RPCRateLimit,
		RateBurst:         c.RPCRateBurst,
		MaxFailedRequests: c.RPCMaxFailedRequests,
		CircuitBreaker: rpc.CircuitBreakerConfig{
			Enabled:        c.RPCCircuitBreakerEnabled,
			RestoreTimeout: c.RPCCircuitBreakerRestoreTimeout,
			MaxFailures:    c.RPCCircuitBreakerMaxFailures,
			MaxRequests:    c.RPCCircuitBreakerMaxRequests,
		},
	}
}

// Crank returns the configuration of the crank executor.
func (c *Config) Crank() crank.Config {
	return crank.Config{
		ConfirmTimeout:      c.ConfirmTimeout,
		ConfirmPollInterval: c.ConfirmPollInterval,
		SkipPreflight:       c.SkipPreflight,
	}
}

// Scheduler returns the configuration shared by the schedulers of all pairs.
func (c *Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		Interval:      c.CrankInterval,
		CheckInterval: c.CheckInterval,
		RunOnStart:    c.RunOnStart,

		MissingVaultBackoff: c.MissingVaultBackoff,
		Retry: scheduler.RetryConfig{
			MaxRetries:    c.RetryMaxRetries,
			InitialDelay:  c.RetryInitialDelay,
			MaxDelay:      c.RetryMaxDelay,
			JitterPercent: c.RetryJitterPercent,
		},
	}
}

func readDefaults(v *viper.Viper) error {
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfigYAML)); err != nil {
		return fmt.Errorf("could not read default config: %w", err)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, NewInvalidConfigError(fmt.Errorf("could not decode config: %w", err))
	}
	return &config, nil
}

func pairStrings(pairs []scheduler.Pair) []string {
	s := make([]string, 0, len(pairs))
	for _, p := range pairs {
		s = append(s, p.String())
	}
	return s
}
