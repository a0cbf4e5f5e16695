// Package cli implements the sekexd command-line surface: one
// subcommand per venue operation, plus serve for the long-running
// process. Grounded on the teacher's internal/cli package (root.go's
// persistent-flag-plus-cobra.OnInitialize pattern and server.go's
// flag-driven wiring of a long-running command), generalized from a
// single "start the node" verb to the venue's full operation set.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/sekex/internal/config"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sekexd",
	Short: "sekexd - permissioned SME security-token exchange",
	Long: `sekexd runs and administers a permissioned venue for trading
tokenized shares of small and mid-sized enterprises: a ledger,
per-company issuers with whitelisting and dividend accounting, a
registry, a price-time-priority order book, and a market-maker
incentive program, all behind a single owner capability.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and runs it.
// Called once by cmd/sekexd's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (toml)")
}

func initConfig() {
	loaded, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
}
