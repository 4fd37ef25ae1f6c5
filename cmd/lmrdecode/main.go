// Lmrdecode decodes land mobile radio trunking protocols from demodulated bit streams
// and Homebrew DMR repeater links.
//
// Usage:
//
//	lmrdecode [command] [flags]
//
// See 'lmrdecode --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	lmr "github.com/pd0mz/go-lmr"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("lmr/cmd")

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "lmrdecode",
	Short: "Land mobile radio trunking decoder",
	Long: `Decodes P25, DMR, MPT-1327, NXDN, Fleetsync II, MDC-1200 and LJ-1200 signalling
from demodulated bit streams, and DMR bursts received from a Homebrew master.

Decoded messages are printed, and can be published to NATS or MQTT, stored in
SQLite, PostgreSQL or ClickHouse, and counted in Prometheus metrics.`,
	Version:       lmr.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (critical, error, warning, notice, info, debug)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lmrdecode %s (%s)\n", lmr.Version, lmr.PackageID)
	},
}

func setupLogging(level string) error {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		"%{color}%{time:15:04:05.000} %{level:.4s} %{module}%{color:reset} %{message}",
	))
	leveled := logging.AddModuleLevel(formatter)
	if level == "" {
		level = "INFO"
	}
	l, err := logging.LogLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	leveled.SetLevel(l, "")
	logging.SetBackend(leveled)
	return nil
}

// newSession returns the identifier attached to all events of this run.
func newSession() string {
	return uuid.NewString()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
