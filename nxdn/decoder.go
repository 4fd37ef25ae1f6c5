package nxdn

import (
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

var log = logging.MustGetLogger("lmr/nxdn")

// PatternName is the framer pattern name of the NXDN frame sync.
const PatternName = "nxdn"

// SACCH layout.
const (
	sacchFragmentBits = 18
	sacchFragments    = 4
)

var (
	srStructure = bit.Indices(0, 1)
	srRAN       = bit.Indices(2, 7)
)

// Decoder turns NXDN frames into messages. It reassembles superframe SACCH
// fragments and is not safe for concurrent use.
type Decoder struct {
	ran      uint8
	hasRAN   bool
	sacch    *bit.Buffer
	received int
	outcome  crc.Outcome
}

func NewDecoder() *Decoder { return &Decoder{} }

// RAN returns the last radio access number seen.
func (d *Decoder) RAN() (uint8, bool) { return d.ran, d.hasRAN }

// Pattern returns the framer pattern. All frames have the same length.
func (d *Decoder) Pattern() *framer.Pattern {
	return &framer.Pattern{
		Name:      PatternName,
		Protocol:  Protocol,
		Value:     SyncPattern,
		Width:     SyncBits,
		Tolerance: SyncTolerance,
		Length:    FrameBits,
	}
}

// Decode returns the layer 3 messages carried by a frame.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	raw := frame.Buffer
	if raw.Size() < FrameBits {
		return nil
	}
	payload := raw.Slice(SyncBits, FrameBits).Bits()
	Scramble(payload)

	lich := DecodeLICH(payload[:LICHBits])
	if !lich.ParityOK {
		log.Debugf("LICH %02X parity error", lich.Value)
		return nil
	}

	ts := time.Now()
	switch {
	case lich.RFChannel == RCCH && lich.Outbound:
		return d.decodeCAC(payload, ts)
	case lich.RFChannel == RCCH:
		log.Debugf("skipping inbound %s", lich)
		return nil
	case lich.Functional == UDCH:
		log.Debugf("skipping %s", lich)
		return nil
	}

	var msgs []message.Message
	if m := d.decodeSACCH(lich, payload[SACCHOffset:SACCHOffset+SACCH.Bits()], ts); m != nil {
		msgs = append(msgs, m)
	}
	if lich.FACCH1First() {
		msgs = append(msgs, d.decodeFACCH1(payload[FACCH1FirstOffset:FACCH1FirstOffset+FACCH1.Bits()], ts))
	}
	if lich.FACCH1Second() {
		msgs = append(msgs, d.decodeFACCH1(payload[FACCH1SecondOffset:FACCH1SecondOffset+FACCH1.Bits()], ts))
	}
	return msgs
}

func (d *Decoder) context(ts time.Time) message.Context {
	return message.Context{AccessCode: uint32(d.ran), Timestamp: ts}
}

func (d *Decoder) setRAN(buf *bit.Buffer) {
	if buf.Outcome().Valid() {
		d.ran, d.hasRAN = uint8(buf.Int(srRAN)), true
	}
}

func (d *Decoder) decodeCAC(payload bit.Bits, ts time.Time) []message.Message {
	cac := CACOut.Decode(payload[CACOffset : CACOffset+CACOut.Bits()])
	d.setRAN(cac)

	l3 := cac.Slice(8, 8+Layer3Bits)
	l3.SetOutcome(cac.Outcome())
	return []message.Message{DecodeLayer3(l3, d.context(ts))}
}

// decodeSACCH collects the four fragments of a superframe SACCH. It returns the
// layer 3 message after the last fragment, or nil.
func (d *Decoder) decodeSACCH(lich LICH, bits bit.Bits, ts time.Time) message.Message {
	sacch := SACCH.Decode(bits)
	d.setRAN(sacch)
	if lich.Functional != SACCHSuperframe {
		return nil
	}
	if !sacch.Outcome().Valid() {
		d.sacch = nil
		return nil
	}

	// Structure counts down from the first (3) to the last (0) fragment.
	part := sacchFragments - 1 - int(sacch.Int(srStructure))
	if part == 0 {
		d.sacch = bit.NewBuffer(sacchFragments * sacchFragmentBits)
		d.received = 0
		d.outcome = crc.OutcomePassed
	}
	if d.sacch == nil || part != d.received {
		log.Debugf("SACCH fragment %d out of sequence", part)
		d.sacch = nil
		return nil
	}
	d.sacch.AppendBits(sacch.Slice(8, 8+sacchFragmentBits).Bits())
	d.outcome = d.outcome.Merge(sacch.Outcome())
	d.received++
	if d.received < sacchFragments {
		return nil
	}

	l3 := d.sacch
	l3.SetOutcome(d.outcome)
	d.sacch = nil
	return DecodeLayer3(l3, d.context(ts))
}

func (d *Decoder) decodeFACCH1(bits bit.Bits, ts time.Time) message.Message {
	facch := FACCH1.Decode(bits)
	l3 := facch.Slice(0, FACCH1.Data())
	l3.SetOutcome(facch.Outcome())
	return DecodeLayer3(l3, d.context(ts))
}
