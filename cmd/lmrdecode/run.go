package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/config"
	"github.com/pd0mz/go-lmr/homebrew"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all channels of the configuration file",
	Long: `Run every channel and the Homebrew link of the configuration file concurrently,
sending decoded messages to the configured outputs.

The command ends when all inputs are exhausted, or on interrupt.`,
	Example: `  lmrdecode run -c lmr.yaml`,
	RunE:    runRun,
}

var homebrewCmd = &cobra.Command{
	Use:   "homebrew",
	Short: "Decode DMR from a Homebrew master",
	Long: `Log in to the Homebrew master of the configuration file and decode the DMR
bursts it sends. Channels of the configuration file are ignored.`,
	Example: `  lmrdecode homebrew -c lmr.yaml`,
	RunE:    runHomebrew,
}

var homebrewDump bool

func init() {
	homebrewCmd.Flags().BoolVar(&homebrewDump, "dump", false, "log a hex dump of every received packet at debug level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(homebrewCmd)
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return nil, errors.New("a configuration file is required (--config)")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		if err = setupLogging(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return run(cmd, cfg, cfg.Channels, cfg.Homebrew)
}

func runHomebrew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Homebrew == nil {
		return errors.New("no homebrew section in the configuration file")
	}
	return run(cmd, cfg, nil, cfg.Homebrew)
}

func run(cmd *cobra.Command, cfg *config.Config, channels []config.Channel, hb *config.Homebrew) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := newSession()
	log.Infof("session %s", session)

	out, err := openOutputs(ctx, cfg.Outputs, session, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()

	var (
		g, gctx          = errgroup.WithContext(ctx)
		serveCtx, cancel = context.WithCancel(gctx)
		inputs           sync.WaitGroup
	)
	defer cancel()

	for _, chc := range channels {
		chc := chc
		c, err := channel.New(channel.Config{
			Name:      chc.Name,
			Protocol:  chc.ProtocolValue(),
			Tolerance: chc.Tolerance,
		}, out.Handler())
		if err != nil {
			return err
		}
		inputs.Add(1)
		g.Go(func() error {
			defer inputs.Done()
			return runChannel(gctx, c, chc, out)
		})
	}

	if hb != nil {
		link, err := newHomebrew(hb, out)
		if err != nil {
			return err
		}
		inputs.Add(1)
		g.Go(func() error {
			defer inputs.Done()
			return link.Run(gctx)
		})
	}

	g.Go(func() error { return out.Serve(serveCtx) })
	go func() {
		inputs.Wait()
		cancel()
	}()

	if err = g.Wait(); errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runChannel(ctx context.Context, c *channel.Channel, chc config.Channel, out *outputs) error {
	f, err := openInput(chc.Input)
	if err != nil {
		return fmt.Errorf("channel %s: %w", chc.Name, err)
	}
	defer f.Close()

	log.Infof("channel %s: decoding %s from %s (%s)", chc.Name, c.Protocol(), chc.Input, chc.Format)
	err = feed(ctx, f, chc.Format, func(bits bit.Bits) {
		c.PushBits(bits)
		out.Observe(c)
	})
	c.Flush()
	out.Observe(c)
	logStats(c)
	if err != nil {
		return fmt.Errorf("channel %s: %w", chc.Name, err)
	}
	return nil
}

// newHomebrew returns a link feeding the bursts of both timeslots to one DMR channel.
func newHomebrew(hb *config.Homebrew, out *outputs) (*homebrew.Link, error) {
	c, err := channel.New(channel.Config{Name: hb.Name, Protocol: lmr.DMR}, out.Handler())
	if err != nil {
		return nil, err
	}
	repeater := hb.Repeater
	link, err := homebrew.New(hb.Network, func() homebrew.RepeaterConfiguration {
		return repeater
	}, func(d *homebrew.Data) {
		pushData(c, d, time.Now())
		out.Observe(c)
	})
	if err != nil {
		return nil, err
	}
	link.Dump = homebrewDump
	return link, nil
}

// pushData decodes the burst of a DMRD packet.
func pushData(c *channel.Channel, d *homebrew.Data, ts time.Time) {
	burst, err := d.Burst()
	if err == nil {
		err = c.PushBurst(d.Slot, burst, ts)
	}
	if err != nil {
		log.Warningf("%s: %v", c.Name(), err)
	}
}
