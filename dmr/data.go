package dmr

import (
	"fmt"
	"strings"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/bptc"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
	"github.com/pd0mz/go-lmr/trellis"
)

// UDTMask is the CRC-CCITT mask of the last UDT appended block.
const UDTMask uint16 = 0x3333

// CRC-9 masks of confirmed data blocks.
var blockCRCMask = map[DataType]uint16{
	Rate12Data: 0x0f0,
	Rate34Data: 0x1ff,
	Rate1Data:  0x10f,
}

// DataBlock is a single packet data block.
type DataBlock struct {
	Serial  uint8
	CRC     uint16
	Data    []byte
	Outcome crc.Outcome
}

func blockOctets(dt DataType) int {
	switch dt {
	case Rate12Data:
		return 12
	case Rate34Data:
		return 18
	case Rate1Data:
		return 24
	default:
		return 0
	}
}

// DataBlockLength returns the number of payload octets in a block.
func DataBlockLength(dt DataType, confirmed bool) int {
	n := blockOctets(dt)
	if confirmed && n > 0 {
		n -= 2
	}
	return n
}

func blockCRC(dt DataType, serial uint8, data []byte) uint16 {
	var c uint16
	for _, b := range data {
		crc.CRC9(&c, b, 8)
	}
	crc.CRC9(&c, serial, 7)
	crc.CRC9End(&c, 8)
	return (^c & 0x01ff) ^ blockCRCMask[dt]
}

// DecodeDataBlock decodes the 196 info bits of a rate 1/2, 3/4 or 1 data burst. For
// confirmed data the serial number and CRC-9 are checked.
func DecodeDataBlock(dt DataType, info bit.Bits, confirmed bool) DataBlock {
	var (
		raw bit.Bits
		o   crc.Outcome
	)
	switch dt {
	case Rate12Data:
		raw, o = bptc.Decode(info)
	case Rate34Data:
		data, metric, err := trellis.Rate34.Decode(info)
		if err != nil {
			return DataBlock{Outcome: crc.OutcomeFailed}
		}
		raw, o = data, crc.CorrectedBy(metric)
	case Rate1Data:
		if len(info) < InfoBits {
			return DataBlock{Outcome: crc.OutcomeFailed}
		}
		raw = append(append(bit.Bits(nil), info[:96]...), info[100:InfoBits]...)
	default:
		return DataBlock{Outcome: crc.OutcomeFailed}
	}

	var (
		octets = raw.Bytes()
		b      = DataBlock{Outcome: o}
	)
	if !confirmed {
		b.Data = octets
		return b
	}
	b.Serial = octets[0] >> 1
	b.CRC = uint16(octets[0]&0x01)<<8 | uint16(octets[1])
	b.Data = octets[2:]
	if blockCRC(dt, b.Serial, b.Data) != b.CRC {
		b.Outcome = crc.OutcomeFailed
	} else {
		b.Outcome = b.Outcome.Merge(crc.OutcomePassed)
	}
	return b
}

// EncodeDataBlock returns the 196 info bits for a block. Data must hold
// DataBlockLength octets.
func EncodeDataBlock(dt DataType, serial uint8, data []byte, confirmed bool) bit.Bits {
	var octets = make([]byte, 0, blockOctets(dt))
	if confirmed {
		serial &= 0x7f
		c := blockCRC(dt, serial, data)
		octets = append(octets, serial<<1|uint8(c>>8), uint8(c))
	}
	octets = append(octets, data...)
	bits := bit.NewBits(octets)
	switch dt {
	case Rate12Data:
		return bptc.Encode(bits)
	case Rate34Data:
		return trellis.Rate34.Encode(bits)
	case Rate1Data:
		info := make(bit.Bits, InfoBits)
		copy(info[:96], bits[:96])
		copy(info[100:], bits[96:])
		return info
	default:
		return nil
	}
}

// packetCRC is the CRC-32 over the packet data, octets taken in swapped pairs.
func packetCRC(data []byte) uint32 {
	var c uint32
	for i := 0; i+1 < len(data); i += 2 {
		crc.CRC32(&c, data[i+1])
		crc.CRC32(&c, data[i])
	}
	crc.CRC32End(&c)
	return c
}

// EncodePacket splits payload over data blocks, appending pad octets and the packet
// CRC-32. It returns the info bits of each block and the number of pad octets.
func EncodePacket(dt DataType, confirmed bool, payload []byte) ([]bit.Bits, int) {
	per := DataBlockLength(dt, confirmed)
	if per == 0 {
		return nil, 0
	}
	var (
		n    = (len(payload) + 4 + per - 1) / per
		data = make([]byte, n*per)
		pad  = len(data) - 4 - len(payload)
	)
	copy(data, payload)
	c := packetCRC(data[:len(data)-4])
	data[len(data)-4] = byte(c)
	data[len(data)-3] = byte(c >> 8)
	data[len(data)-2] = byte(c >> 16)
	data[len(data)-1] = byte(c >> 24)

	var blocks = make([]bit.Bits, n)
	for i := range blocks {
		blocks[i] = EncodeDataBlock(dt, uint8(i), data[i*per:(i+1)*per], confirmed)
	}
	return blocks, pad
}

// Packet collects the data blocks announced by a data header.
type Packet struct {
	header   message.Message
	info     *PacketHeader
	dataType DataType
	blocks   []DataBlock
}

// NewPacket starts assembly for a data header. It returns nil if the header is
// invalid or announces no blocks.
func NewPacket(header message.Message) *Packet {
	h, ok := header.(interface{ Packet() *PacketHeader })
	if !ok || !header.Valid() {
		return nil
	}
	info := h.Packet()
	if info.Blocks <= 0 {
		return nil
	}
	return &Packet{header: header, info: info}
}

// Header returns the data header that started the packet.
func (p *Packet) Header() *PacketHeader { return p.info }

// Add decodes the next data block. The assembled packet is returned once all
// announced blocks are in.
func (p *Packet) Add(dt DataType, info bit.Bits, ts time.Time) *PacketData {
	if len(p.blocks) == 0 {
		p.dataType = dt
	}
	p.blocks = append(p.blocks, DecodeDataBlock(dt, info, p.info.Confirmed))
	if len(p.blocks) < p.info.Blocks {
		return nil
	}
	return p.assemble(ts)
}

// Done reports if all announced blocks are collected.
func (p *Packet) Done() bool { return len(p.blocks) >= p.info.Blocks }

func (p *Packet) assemble(ts time.Time) *PacketData {
	var (
		data []byte
		o    = crc.OutcomeUnknown
	)
	for _, b := range p.blocks {
		data = append(data, b.Data...)
		o = o.Merge(b.Outcome)
	}

	var (
		payload []byte
		stored  uint32
	)
	switch {
	case p.info.Format == PacketFormatUDT && len(data) >= 2:
		n := len(data) - 2
		stored = uint32(data[n])<<8 | uint32(data[n+1])
		if uint32(crc.Masked16(data[:n], UDTMask)) != stored {
			o = crc.OutcomeFailed
		}
		payload = data[:n]
	case len(data) >= 4:
		n := len(data) - 4
		stored = uint32(data[n]) | uint32(data[n+1])<<8 | uint32(data[n+2])<<16 | uint32(data[n+3])<<24
		if packetCRC(data[:n]) != stored {
			o = crc.OutcomeFailed
		} else {
			o = o.Merge(crc.OutcomePassed)
		}
		payload = data[:n]
	default:
		o = crc.OutcomeFailed
	}
	if p.info.Pad > 0 && p.info.Pad <= len(payload) {
		payload = payload[:len(payload)-p.info.Pad]
	}

	buf := bit.NewBufferFromBytes(payload)
	buf.SetOutcome(o)
	m := &PacketData{
		Header:    message.NewHeader(Protocol, uint32(DataHeader)<<8|uint32(p.info.Format), "PACKET_DATA", buf, ts),
		Packet:    p.info,
		DataType:  p.dataType,
		Blocks:    len(p.blocks),
		Payload:   payload,
		PacketCRC: stored,
	}
	if o.Valid() {
		m.Text = p.text(payload)
	}
	return m
}

func (p *Packet) text(payload []byte) string {
	var format uint8
	switch h := p.header.(type) {
	case *ShortDataDefinedHeader:
		format = h.DDFormat
	case *UDTHeader:
		var ok bool
		if format, ok = udtFormatMap[h.UDTFormat]; !ok {
			return ""
		}
	default:
		return ""
	}
	s, err := DecodeText(format, payload)
	if err != nil {
		return ""
	}
	return s
}

// PacketData is an assembled data packet.
type PacketData struct {
	message.Header
	Packet    *PacketHeader
	DataType  DataType
	Blocks    int
	Payload   []byte
	PacketCRC uint32
	// Text is the payload in the defined format of short data and UDT packets.
	Text string
}

func (m *PacketData) Identifiers() []identifier.Identifier {
	ids := m.Packet.Identifiers()
	if m.Text != "" {
		ids = append(ids, identifier.NewText(Protocol, identifier.Message, identifier.Any, m.Text))
	}
	return ids
}

func (m *PacketData) String() string {
	var part = []string{
		describe(m.Packet.Slot, m.Packet.ColorCode, m),
		fmt.Sprintf("%d octets in %d %s blocks", len(m.Payload), m.Blocks, m.DataType),
	}
	if m.Text != "" {
		part = append(part, fmt.Sprintf("text %q", m.Text))
	}
	return strings.Join(part, ", ")
}
