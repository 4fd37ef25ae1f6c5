package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/config"
	"github.com/spf13/cobra"
)

var (
	decodeProtocol  string
	decodeFormat    string
	decodeTolerance int
	decodeName      string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file...]",
	Short: "Decode recorded bit streams of one protocol",
	Long: `Decode one or more recorded bit streams through a single protocol pipeline.

Without file arguments the stream is read from standard input. Outputs are taken
from the configuration file if one is given, otherwise messages are printed.`,
	Example: `  # Decode a P25 control channel recording of ASCII bits
  lmrdecode decode -p p25 cc.bits

  # Decode MDC-1200 from a packed bit stream on standard input
  demod | lmrdecode decode -p mdc1200 -f packed`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeProtocol, "protocol", "p", "", "protocol (p25, dmr, mpt1327, nxdn, fleetsync, mdc1200, lj1200)")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", config.FormatBits, "input format (bits, packed, dibits)")
	decodeCmd.Flags().IntVarP(&decodeTolerance, "tolerance", "t", 0, "sync tolerance override in bits, 0 for exact matches")
	decodeCmd.Flags().StringVarP(&decodeName, "name", "n", "", "channel name, defaults to the protocol")
	_ = decodeCmd.MarkFlagRequired("protocol")

	rootCmd.AddCommand(decodeCmd)
}

// loadOutputs returns the outputs of the configuration file, or the defaults.
func loadOutputs() (config.Outputs, error) {
	if configFile == "" {
		return config.Default().Outputs, nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Outputs{}, err
	}
	return cfg.Outputs, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	protocol, ok := lmr.ParseProtocol(decodeProtocol)
	if !ok {
		return fmt.Errorf("unsupported protocol %q", decodeProtocol)
	}
	if !config.ValidFormat(decodeFormat) {
		return fmt.Errorf("unknown input format %q", decodeFormat)
	}
	if decodeName == "" {
		decodeName = protocol.Key()
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := loadOutputs()
	if err != nil {
		return err
	}
	out, err := openOutputs(ctx, o, newSession(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()

	chc := channel.Config{Name: decodeName, Protocol: protocol}
	if cmd.Flags().Changed("tolerance") {
		chc.Tolerance = &decodeTolerance
	}
	c, err := channel.New(chc, out.Handler())
	if err != nil {
		return err
	}

	for _, name := range args {
		if err = decodeFile(ctx, c, name, decodeFormat); err != nil {
			return err
		}
	}
	c.Flush()
	logStats(c)
	return nil
}

func decodeFile(ctx context.Context, c *channel.Channel, name, format string) error {
	f, err := openInput(name)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Infof("decoding %s as %s (%s)", name, c.Protocol(), format)
	if err = feed(ctx, f, format, func(bits bit.Bits) { c.PushBits(bits) }); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func logStats(c *channel.Channel) {
	s := c.Stats()
	log.Infof("%s: %d bits, %d syncs, %d frames, %d dropped, %d messages (%d invalid, %d unknown)",
		c.Name(), s.Framer.Bits, s.Framer.Syncs, s.Framer.Frames, s.Framer.Dropped,
		s.Messages, s.Invalid, s.Unknown)
}
