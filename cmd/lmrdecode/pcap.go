package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/homebrew"
	"github.com/spf13/cobra"
)

var pcapPort uint16

var pcapCmd = &cobra.Command{
	Use:   "pcap file",
	Short: "Decode Homebrew DMRD packets from a capture file",
	Long: `Read a pcap or pcapng capture of Homebrew repeater traffic and decode the DMR
bursts of every DMRD packet. Each repeater ID gets its own DMR channel.`,
	Example: `  tcpdump -w hb.pcap udp port 62031
  lmrdecode pcap --port 62031 hb.pcap`,
	Args: cobra.ExactArgs(1),
	RunE: runPcap,
}

func init() {
	pcapCmd.Flags().Uint16Var(&pcapPort, "port", 0, "only decode UDP packets from or to this port")

	rootCmd.AddCommand(pcapCmd)
}

// packetSource opens a pcap or pcapng capture.
func packetSource(f io.ReadSeeker) (*gopacket.PacketSource, error) {
	r, err := pcapgo.NewReader(f)
	if err == nil {
		return gopacket.NewPacketSource(r, r.LinkType()), nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	ng, ngerr := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if ngerr != nil {
		return nil, fmt.Errorf("not a pcap (%v) or pcapng (%v) file", err, ngerr)
	}
	return gopacket.NewPacketSource(ng, ng.LinkType()), nil
}

// dmrdPayload returns the UDP payload of a packet if it carries a DMRD packet.
func dmrdPayload(packet gopacket.Packet, port uint16) ([]byte, bool) {
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return nil, false
	}
	if port != 0 && uint16(udp.SrcPort) != port && uint16(udp.DstPort) != port {
		return nil, false
	}
	if !bytes.HasPrefix(udp.Payload, homebrew.DMRData) {
		return nil, false
	}
	return udp.Payload, true
}

func runPcap(cmd *cobra.Command, args []string) error {
	o, err := loadOutputs()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := openOutputs(ctx, o, newSession(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	source, err := packetSource(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	channels, err := decodePackets(source, pcapPort, out.Handler())
	for _, c := range channels {
		logStats(c)
	}
	return err
}

// decodePackets feeds the DMRD packets of a capture to one DMR channel per repeater.
func decodePackets(source *gopacket.PacketSource, port uint16, h channel.Handler) (map[uint32]*channel.Channel, error) {
	var (
		channels = make(map[uint32]*channel.Channel)
		invalid  int
	)
	for {
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return channels, err
		}

		payload, ok := dmrdPayload(packet, port)
		if !ok {
			continue
		}
		d, err := homebrew.ParseData(payload)
		if err != nil {
			invalid++
			log.Debugf("%v", err)
			continue
		}

		c, ok := channels[d.RepeaterID]
		if !ok {
			name := fmt.Sprintf("hb/%d", d.RepeaterID)
			if c, err = channel.New(channel.Config{Name: name, Protocol: lmr.DMR}, h); err != nil {
				return channels, err
			}
			channels[d.RepeaterID] = c
		}
		pushData(c, d, packet.Metadata().Timestamp)
	}
	if invalid > 0 {
		log.Warningf("skipped %d invalid DMRD packets", invalid)
	}
	return channels, nil
}
