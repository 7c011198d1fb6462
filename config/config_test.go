package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savings-vault/vault-cranker/module/crank"
	"github.com/savings-vault/vault-cranker/module/rpc"
	"github.com/savings-vault/vault-cranker/module/scheduler"
	"github.com/savings-vault/vault-cranker/utils/unittest"
)

// load builds the configuration from the given config file and command line arguments.
func load(t *testing.T, path string, args ...string) (*Config, error) {
	defaults, err := Default()
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitializeFlags(flags, defaults)
	require.NoError(t, flags.Parse(args))

	return Load(viper.New(), flags, path)
}

// TestDefault verifies that the embedded defaults are valid and match the defaults of every component.
func TestDefault(t *testing.T) {
	config, err := Default()
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, rpc.DefaultConfig(), config.RPC())
	assert.Equal(t, crank.DefaultConfig(), config.Crank())
	assert.Equal(t, scheduler.DefaultConfig(), config.Scheduler())
	assert.Equal(t, uint32(crank.DefaultComputeUnitLimit), config.ComputeUnitLimit)
	assert.Equal(t, unittest.SavingsVaultProgram, config.ProgramID)
	assert.Equal(t, []scheduler.Pair{{Wallet: unittest.DevnetWallet, Asset: unittest.DevnetAsset}}, config.Pairs)
	assert.Equal(t, "info", config.LogLevel)
}

// TestLoad_Precedence verifies that flags override the environment, which overrides the
// config file, which overrides the embedded defaults.
func TestLoad_Precedence(t *testing.T) {
	path := unittest.WriteFile(t, "config.yml", []byte(`
rpc-timeout: 10s
check-interval: 30m
crank-interval: 48h
missing-vault-backoff: 5
loglevel: debug
`))
	t.Setenv("CRANKER_CHECK_INTERVAL", "15m")
	t.Setenv("CRANKER_LOGLEVEL", "warn")

	config, err := load(t, path, "--loglevel=error")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, config.RPCTimeout)
	assert.Equal(t, 48*time.Hour, config.CrankInterval)
	assert.Equal(t, 15*time.Minute, config.CheckInterval)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, uint64(5), config.Scheduler().MissingVaultBackoff)
	// untouched keys keep their default
	assert.Equal(t, 5*time.Second, config.RetryInitialDelay)
}

func TestLoad_Pairs(t *testing.T) {
	pairs := []scheduler.Pair{
		{Wallet: unittest.IdentityFixture(), Asset: unittest.IdentityFixture()},
		{Wallet: unittest.IdentityFixture(), Asset: unittest.IdentityFixture()},
	}

	t.Run("flag", func(t *testing.T) {
		config, err := load(t, "", "--pairs="+pairs[0].String()+","+pairs[1].String())
		require.NoError(t, err)
		assert.Equal(t, pairs, config.Pairs)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CRANKER_PAIRS", pairs[0].String()+","+pairs[1].String())
		config, err := load(t, "")
		require.NoError(t, err)
		assert.Equal(t, pairs, config.Pairs)
	})

	t.Run("config file", func(t *testing.T) {
		path := unittest.WriteFile(t, "config.yml", []byte("pairs:\n  - "+pairs[0].String()+"\n  - "+pairs[1].String()+"\n"))
		config, err := load(t, path)
		require.NoError(t, err)
		assert.Equal(t, pairs, config.Pairs)
	})
}

func TestLoad_Invalid(t *testing.T) {
	pair := scheduler.Pair{Wallet: unittest.IdentityFixture(), Asset: unittest.IdentityFixture()}

	cases := map[string][]string{
		"malformed pair":       {"--pairs=not-a-pair"},
		"duplicate pair":       {"--pairs=" + pair.String() + "," + pair.String()},
		"invalid program id":   {"--program-id=0OIl"},
		"invalid endpoint":     {"--rpc-endpoints=not a url"},
		"no endpoints":         {"--rpc-endpoints="},
		"zero check interval":  {"--check-interval=0s"},
		"jitter out of range":  {"--retry-jitter-percent=120"},
		"max below init delay": {"--retry-initial-delay=1m", "--retry-max-delay=1s"},
		"unknown log level":    {"--loglevel=verbose"},
		"unknown log format":   {"--log-format=xml"},
		"compute unit ceiling": {"--compute-unit-limit=2000000"},
		"empty keypair path":   {"--keypair-path="},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(t, "", args...)
			require.Error(t, err)
			assert.True(t, IsInvalidConfigError(err), "unexpected error: %v", err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.False(t, IsInvalidConfigError(err))
}

// TestYAML verifies that the rendered configuration can be loaded as config file.
func TestYAML(t *testing.T) {
	config, err := load(t, "", "--crank-interval=36h", "--run-on-start")
	require.NoError(t, err)

	rendered, err := config.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "crank-interval: 36h0m0s")
	assert.Contains(t, string(rendered), "program-id: "+unittest.SavingsVaultProgram.String())

	reloaded, err := load(t, unittest.WriteFile(t, "config.yml", rendered))
	require.NoError(t, err)
	assert.Equal(t, config, reloaded)
}

func TestKeypairFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	config := &Config{KeypairPath: "~/.config/solana/id.json"}
	path, err := config.KeypairFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/solana/id.json"), path)

	config.KeypairPath = "/etc/cranker/id.json"
	path, err = config.KeypairFile()
	require.NoError(t, err)
	assert.Equal(t, "/etc/cranker/id.json", path)
}

func TestInvalidConfigError(t *testing.T) {
	err := NewInvalidConfigError(os.ErrInvalid)
	assert.Equal(t, "invalid configuration: invalid argument", err.Error())
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.True(t, IsInvalidConfigError(err))
	assert.False(t, IsInvalidConfigError(os.ErrInvalid))
}
