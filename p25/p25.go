// Package p25 decodes APCO Project 25 phase 1 control channel traffic: the network
// identifier, trunking signalling blocks and packet data units.
package p25

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/fec"
)

// Protocol tag of this package.
const Protocol = lmr.P25

// Frame sync
const (
	SyncPattern         = 0x5575f5ff77ff
	SyncBits            = 48
	SyncTolerance       = 2
	SyncToleranceInCall = 4
)

// Frame layout, in data bits, after status symbols are removed.
const (
	NIDBits    = 64
	HeaderBits = SyncBits + NIDBits
	BlockBits  = 196

	// StatusInterval is the number of data bits between two status symbols.
	StatusInterval = 70

	MaxTSBKBlocks = 3
	MaxPDUBlocks  = 8
)

// Data Unit Identifier
type DUID uint8

const (
	HDU   DUID = 0x0 // header data unit
	TDU   DUID = 0x3 // terminator without link control
	LDU1  DUID = 0x5 // logical link data unit 1
	TSBK  DUID = 0x7 // trunking signalling block
	LDU2  DUID = 0xa // logical link data unit 2
	PDU   DUID = 0xc // packet data unit
	TDULC DUID = 0xf // terminator with link control
)

var DUIDName = map[DUID]string{
	HDU:   "HDU",
	TDU:   "TDU",
	LDU1:  "LDU1",
	TSBK:  "TSBK",
	LDU2:  "LDU2",
	PDU:   "PDU",
	TDULC: "TDULC",
}

func (d DUID) String() string {
	if s, ok := DUIDName[d]; ok {
		return s
	}
	return fmt.Sprintf("DUID(%#x)", uint8(d))
}

// Voice reports if the data unit belongs to a voice call.
func (d DUID) Voice() bool {
	return d == HDU || d == LDU1 || d == LDU2
}

// Terminator reports if the data unit ends a call.
func (d DUID) Terminator() bool {
	return d == TDU || d == TDULC
}

// RawLength returns the number of transmitted bits carrying n data bits, counting the
// status symbols inserted after every StatusInterval data bits.
func RawLength(n int) int {
	if n <= 0 {
		return 0
	}
	return n + 2*((n-1)/StatusInterval)
}

func isStatus(i int) bool {
	return i%(StatusInterval+2) >= StatusInterval
}

// Strip removes the status symbols from a raw frame.
func Strip(raw *bit.Buffer) *bit.Buffer {
	var o = make(bit.Bits, 0, raw.Size())
	for i := 0; i < raw.Size(); i++ {
		if !isStatus(i) {
			o = append(o, raw.Get(i))
		}
	}
	return bit.NewBufferFromBits(o)
}

// InsertStatus interleaves status symbols with the data bits, the inverse of Strip.
func InsertStatus(data bit.Bits, status bit.Dibit) bit.Bits {
	var o = make(bit.Bits, 0, RawLength(len(data)))
	for _, b := range data {
		if isStatus(len(o)) {
			o = append(o, bit.Bit(status>>1&1), bit.Bit(status&1))
		}
		o = append(o, b)
	}
	return o
}

// NID is the network identifier following the frame sync.
type NID struct {
	NAC     uint16
	DUID    DUID
	Outcome crc.Outcome
}

// DecodeNID decodes the NID of a frame with status symbols removed.
func DecodeNID(frame *bit.Buffer) NID {
	received := frame.LongRange(SyncBits, SyncBits+62)
	data, _, outcome := fec.BCH_63_16_Decode(received)
	return NID{
		NAC:     data >> 4,
		DUID:    DUID(data & 0xf),
		Outcome: outcome,
	}
}

// EncodeNID returns the 64 NID bits, including the trailing parity bit.
func EncodeNID(nac uint16, duid DUID) bit.Bits {
	cw := fec.BCH_63_16_Encode(nac<<4 | uint16(duid&0xf))
	o := bit.NewBitsFromUint(cw, 63)
	return append(o, bit.Bit(bit.NewBufferFromBits(o).Cardinality()&1))
}

func (n NID) String() string {
	return fmt.Sprintf("NAC %03X %s [%s]", n.NAC, n.DUID, n.Outcome)
}
