package p25

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/message"
	"github.com/pd0mz/go-lmr/trellis"
)

// TSBK layout: last block flag, protected flag, opcode, manufacturer, 64 argument bits
// and the CRC-CCITT over the first 80 bits.
const (
	TSBKBits     = 96
	TSBKDataBits = 80
)

var (
	tsbkLastBlock = 0
	tsbkProtected = 1
	tsbkOpcode    = bit.Indices(2, 7)
	tsbkVendor    = bit.Indices(8, 15)
)

// Vendor is the manufacturer identifier (MFID).
type Vendor uint8

const (
	Standard    Vendor = 0x00
	StandardAlt Vendor = 0x01
	Motorola    Vendor = 0x90
	Harris      Vendor = 0xa4
)

var VendorName = map[Vendor]string{
	Standard:    "standard",
	StandardAlt: "standard",
	Motorola:    "Motorola",
	Harris:      "Harris",
}

func (v Vendor) String() string {
	if s, ok := VendorName[v]; ok {
		return s
	}
	return fmt.Sprintf("MFID(%#02x)", uint8(v))
}

// Key combines vendor and opcode into the registry type code.
func Key(v Vendor, opcode uint8) uint16 {
	if v == StandardAlt {
		v = Standard
	}
	return uint16(v)<<8 | uint16(opcode&0x3f)
}

// DecodeTSBK trellis decodes a 196 bit block into the 96 bit TSBK and validates its
// CRC. A single bit CRC error is repaired; the outcome counts trellis corrections too.
func DecodeTSBK(block bit.Bits) *bit.Buffer {
	data, metric, err := trellis.Rate12.Decode(block)
	if err != nil {
		buf := bit.NewBuffer(TSBKBits)
		buf.SetOutcome(crc.OutcomeFailed)
		return buf
	}
	buf := bit.NewBufferFromBits(data)
	outcome := crc.CCITT.CorrectSingle(buf, 0, TSBKDataBits)
	if outcome.Valid() {
		outcome = crc.CorrectedBy(metric + outcome.Bits)
	}
	buf.SetOutcome(outcome)
	return buf
}

// EncodeTSBK computes the CRC over the first 80 bits of data and returns the trellis
// encoded block.
func EncodeTSBK(data bit.Bits) bit.Bits {
	buf := bit.NewBuffer(TSBKBits)
	buf.AppendBits(data[:TSBKDataBits])
	buf.Load(TSBKDataBits, 16, uint64(crc.CCITT.Compute(buf, 0, TSBKDataBits)))
	return trellis.Rate12.Encode(buf.Bits())
}

// TSBKKey returns the registry key of a decoded TSBK.
func TSBKKey(buf *bit.Buffer) uint16 {
	return Key(Vendor(buf.Int(tsbkVendor)), uint8(buf.Int(tsbkOpcode)))
}

// LastBlock reports if the TSBK has the last block flag set.
func LastBlock(buf *bit.Buffer) bool {
	return buf.Flag(tsbkLastBlock)
}

// Block carries the fields common to all trunking signalling blocks.
type Block struct {
	message.Header
	NAC       uint16
	Last      bool
	Protected bool
	Vendor    Vendor
	Opcode    uint8
}

func newBlock(h message.Header, ctx message.Context) Block {
	buf := h.Buffer()
	return Block{
		Header:    h,
		NAC:       uint16(ctx.AccessCode),
		Last:      buf.Flag(tsbkLastBlock),
		Protected: buf.Flag(tsbkProtected),
		Vendor:    Vendor(buf.Int(tsbkVendor)),
		Opcode:    uint8(buf.Int(tsbkOpcode)),
	}
}

func (b Block) String() string {
	return fmt.Sprintf("TSBK %s %s opcode %#02x", b.Vendor, b.Name(), b.Opcode)
}

// ServiceOptions of a call request or grant.
type ServiceOptions uint8

func (o ServiceOptions) Emergency() bool { return o&0x80 != 0 }
func (o ServiceOptions) Encrypted() bool { return o&0x40 != 0 }
func (o ServiceOptions) Duplex() bool    { return o&0x20 != 0 }
func (o ServiceOptions) Packet() bool    { return o&0x10 != 0 }
func (o ServiceOptions) Priority() uint8 { return uint8(o & 0x07) }

func (o ServiceOptions) String() string {
	var s string
	if o.Emergency() {
		s += "emergency "
	}
	if o.Encrypted() {
		s += "encrypted "
	}
	if o.Duplex() {
		s += "duplex "
	}
	if o.Packet() {
		s += "packet "
	}
	return fmt.Sprintf("%spriority %d", s, o.Priority())
}

var (
	tsbkRegistry  *message.Registry[uint16]
	ambtcRegistry *message.Registry[uint8]
	unitRegistry  *message.Registry[uint8]
)

func init() {
	b := message.NewBuilder[uint16](Protocol)
	registerStandard(b)
	registerMotorola(b)
	registerHarris(b)
	tsbkRegistry = b.Build()

	ambtcRegistry = message.NewRegistry(Protocol, ambtcEntries...)
	unitRegistry = message.NewRegistry(Protocol, dataUnitEntries...)
}

// TSBKRegistry returns the registry keyed by Key(vendor, opcode).
func TSBKRegistry() *message.Registry[uint16] { return tsbkRegistry }

// AMBTCRegistry returns the alternate multi block trunking control registry keyed by
// opcode.
func AMBTCRegistry() *message.Registry[uint8] { return ambtcRegistry }
