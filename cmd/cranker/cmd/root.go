package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/savings-vault/vault-cranker/config"
)

var (
	flagConfig string

	log zerolog.Logger
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cranker",
	Short: "Periodically accrue interest on savings vaults",
	Long: `cranker submits the accrue_interest instruction of the savings vault program for every
configured wallet/asset pair once per crank interval, and verifies that the savings vault exists
on the cluster the rpc endpoint is connected to.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	defaults, err := config.Default()
	if err != nil {
		panic(fmt.Sprintf("invalid embedded default config: %v", err))
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"path to a YAML config file, overriding the embedded defaults")
	config.InitializeFlags(rootCmd.PersistentFlags(), defaults)

	log = newLogger(os.Stderr, "console")
}

// initConfig loads the configuration of the invoked command and sets up the logger accordingly.
func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(viper.New(), cmd.Flags(), flagConfig)
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log = newLogger(os.Stderr, cfg.LogFormat)
	return nil
}

func newLogger(out io.Writer, format string) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
