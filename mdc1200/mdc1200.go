// Package mdc1200 decodes Motorola MDC-1200 signalling packets: PTT ID, emergency,
// radio check, selective call and status messages.
package mdc1200

import (
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/crc16"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.MDC1200

const (
	Sync          uint64 = 0x07092a446f
	SyncBits             = 40
	SyncTolerance        = 2
	BlockBits            = 112
	DataBits             = BlockBits / 2
	FrameBits            = SyncBits + BlockBits
	DoubleBits           = SyncBits + 2*BlockBits
)

// Interleaver dimensions.
const (
	interleaveRows = 16
	interleaveCols = 7
)

// Parity taps of the convolutional code, counted back from the current data bit.
var taps = [...]int{0, 2, 5, 6}

// Octets of a data block.
const (
	octetOp = iota
	octetArg
	octetUnitHigh
	octetUnitLow
	octetCRCLow
	octetCRCHigh
	octetStatus
)

// Octet returns octet n of a data block. Octets are sent least significant bit first.
func Octet(buf *bit.Buffer, n int) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		if buf.Test(n*8 + i) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// Op returns the opcode of a data block.
func Op(buf *bit.Buffer) uint8 { return Octet(buf, octetOp) }

// Arg returns the argument of a data block.
func Arg(buf *bit.Buffer) uint8 { return Octet(buf, octetArg) }

// Unit returns the unit ID of a data block.
func Unit(buf *bit.Buffer) uint16 {
	return uint16(Octet(buf, octetUnitHigh))<<8 | uint16(Octet(buf, octetUnitLow))
}

// Double reports if the opcode is followed by a second block.
func Double(op uint8) bool {
	switch op {
	case OpSelectiveCall, 0x55, 0x60:
		return true
	}
	return false
}

func deinterleave(in bit.Bits) bit.Bits {
	o := make(bit.Bits, BlockBits)
	for i := 0; i < interleaveRows; i++ {
		for j := 0; j < interleaveCols; j++ {
			o[i*interleaveCols+j] = in[j*interleaveRows+i]
		}
	}
	return o
}

func interleave(in bit.Bits) bit.Bits {
	o := make(bit.Bits, BlockBits)
	for i := 0; i < interleaveRows; i++ {
		for j := 0; j < interleaveCols; j++ {
			o[j*interleaveRows+i] = in[i*interleaveCols+j]
		}
	}
	return o
}

func parity(data bit.Bits, k int) bit.Bit {
	var p bit.Bit
	for _, t := range taps {
		if k-t >= 0 {
			p ^= data[k-t]
		}
	}
	return p
}

// correct repairs isolated data bit errors: a data bit error fails every parity
// check its taps feed, a parity bit error only its own.
func correct(data, check bit.Bits) int {
	var n int
	for k := range data {
		var tested, failed int
		for _, t := range taps {
			if j := k + t; j < len(data) {
				tested++
				if parity(data, j) != check[j] {
					failed++
				}
			}
		}
		if failed >= 3 || (tested < len(taps) && tested > 1 && failed == tested) {
			data[k] ^= 1
			n++
		}
	}
	return n
}

// Checksum returns the CRC of the opcode, argument and unit ID octets of a data block.
func Checksum(buf *bit.Buffer) uint16 {
	return crc16.ChecksumMDC([]byte{
		Octet(buf, octetOp),
		Octet(buf, octetArg),
		Octet(buf, octetUnitHigh),
		Octet(buf, octetUnitLow),
	})
}

// StoredChecksum returns the CRC carried by a data block, low octet first.
func StoredChecksum(buf *bit.Buffer) uint16 {
	return uint16(Octet(buf, octetCRCHigh))<<8 | uint16(Octet(buf, octetCRCLow))
}

// DecodeBlock deinterleaves a 112 bit block and returns its 56 data bits with the
// outcome of the convolutional code and CRC attached. Repairs are only kept if the
// repaired block passes its CRC.
func DecodeBlock(bits bit.Bits) *bit.Buffer {
	var (
		coded = deinterleave(bits[:BlockBits])
		data  = make(bit.Bits, DataBits)
		check = make(bit.Bits, DataBits)
	)
	for k := range data {
		data[k], check[k] = coded[2*k]&1, coded[2*k+1]&1
	}

	fixed := make(bit.Bits, DataBits)
	copy(fixed, data)
	n := correct(fixed, check)
	if buf := bit.NewBufferFromBits(fixed); Checksum(buf) == StoredChecksum(buf) {
		buf.SetOutcome(crc.CorrectedBy(n))
		return buf
	}

	buf := bit.NewBufferFromBits(data)
	if Checksum(buf) == StoredChecksum(buf) {
		buf.SetOutcome(crc.OutcomePassed)
	} else {
		buf.SetOutcome(crc.OutcomeFailed)
	}
	return buf
}

// NewBlock returns the data bits for an opcode, argument and unit ID, CRC included.
func NewBlock(op, arg uint8, unit uint16) bit.Bits {
	buf := bit.NewBuffer(DataBits)
	appendOctets(buf, op, arg, uint8(unit>>8), uint8(unit))
	c := Checksum(buf)
	appendOctets(buf, uint8(c), uint8(c>>8))
	return buf.Bits()
}

func appendOctets(buf *bit.Buffer, octets ...uint8) {
	for _, v := range octets {
		for i := 0; i < 8; i++ {
			buf.Append(bit.Bit(v >> uint(i) & 1))
		}
	}
}

// EncodeBlock adds parity to 56 data bits and interleaves them.
func EncodeBlock(data bit.Bits) bit.Bits {
	coded := make(bit.Bits, BlockBits)
	for k := 0; k < DataBits; k++ {
		coded[2*k] = data[k]
		coded[2*k+1] = parity(data, k)
	}
	return interleave(coded)
}
