// Package nxdn decodes NXDN 4800 and 9600 baud frames: the link information channel,
// slow and fast associated control channels and the outbound control channel.
package nxdn

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.NXDN

// Frame layout.
const (
	SyncPattern   = 0xcdf59
	SyncBits      = 20
	SyncTolerance = 2
	FrameBits     = 384
	PayloadBits   = FrameBits - SyncBits

	LICHBits = 16
)

// Offsets of the coded channels in the descrambled payload.
const (
	SACCHOffset        = LICHBits
	FACCH1FirstOffset  = SACCHOffset + 60
	FACCH1SecondOffset = FACCH1FirstOffset + 144
	CACOffset          = LICHBits
)

// PN9 is the scrambling sequence of x^9+x^4+1 seeded with 0xe4, applied to the payload
// bits after the frame sync word.
var PN9 = pn9(PayloadBits)

func pn9(n int) bit.Bits {
	var (
		o  = make(bit.Bits, n)
		pn = uint16(0xe4)
	)
	for i := range o {
		o[i] = bit.Bit(pn & 1)
		pn = pn>>1 | ((pn^pn>>4)&1)<<8
	}
	return o
}

// Scramble toggles the payload bits with the PN9 sequence. It is its own inverse.
func Scramble(payload bit.Bits) {
	for i := range payload {
		if i >= len(PN9) {
			return
		}
		payload[i] ^= PN9[i]
	}
}

// RF channel types.
type RFChannel uint8

const (
	RCCH  RFChannel = iota // trunked control
	RTCH                   // trunked traffic
	RDCH                   // conventional
	RTCHC                  // composite control
)

var RFChannelName = map[RFChannel]string{
	RCCH:  "RCCH",
	RTCH:  "RTCH",
	RDCH:  "RDCH",
	RTCHC: "RTCH_C",
}

func (c RFChannel) String() string { return RFChannelName[c] }

// Functional channel types. The meaning of the two bits depends on the RF channel.
type FunctionalChannel uint8

const (
	CAC FunctionalChannel = iota
	CACLong
	CACShort
	SACCHNonSuperframe
	UDCH
	SACCHSuperframe
	SACCHSuperframeIdle
)

var FunctionalChannelName = map[FunctionalChannel]string{
	CAC:                 "CAC",
	CACLong:             "CAC long",
	CACShort:            "CAC short",
	SACCHNonSuperframe:  "SACCH",
	UDCH:                "UDCH",
	SACCHSuperframe:     "SACCH superframe",
	SACCHSuperframeIdle: "SACCH superframe idle",
}

func (c FunctionalChannel) String() string { return FunctionalChannelName[c] }

// Traffic channel options: what the two halves of the frame carry.
const (
	OptionFACCH1Both   uint8 = 0
	OptionFACCH1First  uint8 = 1
	OptionFACCH1Second uint8 = 2
	OptionVoiceOnly    uint8 = 3
)

// LICH is the link information channel.
type LICH struct {
	Value      uint8
	RFChannel  RFChannel
	Functional FunctionalChannel
	Option     uint8
	Outbound   bool
	// ParityOK is false when the parity bit does not match.
	ParityOK bool
}

// DecodeLICH reads the seven information bits and the parity bit from the even
// positions of the descrambled LICH.
func DecodeLICH(bits bit.Bits) LICH {
	var v uint8
	for i := 0; i < 7; i++ {
		v = v<<1 | uint8(bits[i*2]&1)
	}
	l := LICH{
		Value:     v,
		RFChannel: RFChannel(v >> 5),
		Option:    v >> 1 & 0x03,
		Outbound:  v&1 == 1,
		ParityOK:  lichParity(v) == uint8(bits[14]&1),
	}
	fc := v >> 3 & 0x03
	switch l.RFChannel {
	case RCCH:
		switch {
		case l.Outbound:
			l.Functional = CAC
		case fc == 3:
			l.Functional = CACShort
		default:
			l.Functional = CACLong
		}
	default:
		l.Functional = [...]FunctionalChannel{SACCHNonSuperframe, UDCH, SACCHSuperframe, SACCHSuperframeIdle}[fc]
	}
	return l
}

// EncodeLICH returns the 16 LICH bits, before scrambling. Odd positions are set.
func EncodeLICH(v uint8) bit.Bits {
	o := make(bit.Bits, LICHBits)
	for i := 0; i < 7; i++ {
		o[i*2] = bit.Bit(v >> uint(6-i) & 1)
	}
	o[14] = bit.Bit(lichParity(v))
	for i := 1; i < LICHBits; i += 2 {
		o[i] = 1
	}
	return o
}

// Even parity of the RF and functional channel bits.
func lichParity(v uint8) uint8 {
	return (v>>6 ^ v>>5 ^ v>>4 ^ v>>3) & 1
}

// SACCH reports if the frame starts with a slow associated control channel.
func (l LICH) SACCH() bool {
	switch l.Functional {
	case SACCHNonSuperframe, SACCHSuperframe, SACCHSuperframeIdle:
		return l.RFChannel != RCCH
	}
	return false
}

// FACCH1First reports if the first half of the frame carries a FACCH1.
func (l LICH) FACCH1First() bool {
	return l.SACCH() && (l.Option == OptionFACCH1Both || l.Option == OptionFACCH1First)
}

// FACCH1Second reports if the second half of the frame carries a FACCH1.
func (l LICH) FACCH1Second() bool {
	return l.SACCH() && (l.Option == OptionFACCH1Both || l.Option == OptionFACCH1Second)
}

// Voice reports if the frame carries voice in at least one half.
func (l LICH) Voice() bool {
	return l.SACCH() && l.Option != OptionFACCH1Both && l.Functional != SACCHSuperframeIdle
}

func (l LICH) String() string {
	dir := "inbound"
	if l.Outbound {
		dir = "outbound"
	}
	return fmt.Sprintf("%s %s option %d %s", l.RFChannel, l.Functional, l.Option, dir)
}
