// Package dmr decodes Digital Mobile Radio (ETSI TS 102 361) bursts: control
// signalling blocks, link control, data headers and packet data.
package dmr

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.DMR

const (
	InfoPartBits    = 98
	InfoBits        = InfoPartBits * 2
	SlotPartBits    = 10
	SlotBits        = SlotPartBits * 2
	PayloadPartBits = InfoPartBits + SlotPartBits
	PayloadBits     = PayloadPartBits * 2
	SignalBits      = 48
	BurstBits       = PayloadBits + SignalBits
	BurstSize       = BurstBits / 8
	CACHBits        = 24
	EMBHalfBits     = 8
	EMBBits         = EMBHalfBits * 2
	FragmentBits    = SignalBits - EMBBits
)

// DataType is the burst content announced by the slot type.
type DataType uint8

// Data types, see 9.3.6 Data Type.
const (
	PIHeader DataType = iota
	VoiceLCHeader
	TerminatorWithLC
	CSBK
	MBCHeader
	MBCContinuation
	DataHeader
	Rate12Data
	Rate34Data
	Idle
	Rate1Data
)

var DataTypeName = map[DataType]string{
	PIHeader:         "PI header",
	VoiceLCHeader:    "voice LC header",
	TerminatorWithLC: "terminator with LC",
	CSBK:             "CSBK",
	MBCHeader:        "MBC header",
	MBCContinuation:  "MBC continuation",
	DataHeader:       "data header",
	Rate12Data:       "rate 1/2 data",
	Rate34Data:       "rate 3/4 data",
	Idle:             "idle",
	Rate1Data:        "rate 1 data",
}

func (t DataType) String() string {
	if s, ok := DataTypeName[t]; ok {
		return s
	}
	return fmt.Sprintf("reserved (%d)", uint8(t))
}

// Burst contains data from a single burst, see 4.2.2 Burst and frame structure.
type Burst struct {
	bits bit.Bits
}

// NewBurst wraps 264 burst bits.
func NewBurst(bits bit.Bits) (*Burst, error) {
	if len(bits) != BurstBits {
		return nil, fmt.Errorf("dmr: expected %d bits, got %d", BurstBits, len(bits))
	}
	return &Burst{bits: bits}, nil
}

// NewBurstFromBytes wraps a 33 byte burst as sent by repeaters on the network.
func NewBurstFromBytes(raw []byte) (*Burst, error) {
	if len(raw) != BurstSize {
		return nil, fmt.Errorf("dmr: expected %d bytes, got %d", BurstSize, len(raw))
	}
	return &Burst{bits: bit.NewBits(raw)}, nil
}

// Bits returns the raw burst.
func (b *Burst) Bits() bit.Bits { return b.bits }

// Info returns the 196 bits of info in the burst. The data is usually BPTC(196, 96)
// encoded.
func (b *Burst) Info() bit.Bits {
	var n = make(bit.Bits, InfoBits)
	copy(n[:InfoPartBits], b.bits[:InfoPartBits])
	copy(n[InfoPartBits:], b.bits[PayloadPartBits+SignalBits+SlotPartBits:])
	return n
}

// Signal returns the 48 bits of sync or embedded signalling in the middle of the burst.
func (b *Burst) Signal() bit.Bits {
	var s = make(bit.Bits, SignalBits)
	copy(s, b.bits[PayloadPartBits:PayloadPartBits+SignalBits])
	return s
}

// SlotType returns the 20 slot type bits on both sides of the sync.
func (b *Burst) SlotType() bit.Bits {
	var s = make(bit.Bits, SlotBits)
	copy(s[:SlotPartBits], b.bits[InfoPartBits:PayloadPartBits])
	copy(s[SlotPartBits:], b.bits[PayloadPartBits+SignalBits:PayloadPartBits+SignalBits+SlotPartBits])
	return s
}

// EMB returns the 16 embedded signalling bits around the LC fragment.
func (b *Burst) EMB() bit.Bits {
	var s = b.Signal()
	return append(s[:EMBHalfBits:EMBHalfBits], s[EMBHalfBits+FragmentBits:]...)
}

// Fragment returns the 32 bit embedded LC fragment of a voice burst.
func (b *Burst) Fragment() bit.Bits {
	return b.Signal()[EMBHalfBits : EMBHalfBits+FragmentBits]
}

// BuildBurst assembles a burst from info, slot type and signal bits.
func BuildBurst(info, slotType, signal bit.Bits) bit.Bits {
	var o = make(bit.Bits, 0, BurstBits)
	o = append(o, info[:InfoPartBits]...)
	o = append(o, slotType[:SlotPartBits]...)
	o = append(o, signal...)
	o = append(o, slotType[SlotPartBits:]...)
	return append(o, info[InfoPartBits:]...)
}
