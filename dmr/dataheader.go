package dmr

import (
	"fmt"
	"strings"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Data Header Packet Format
const (
	PacketFormatUDT              uint8 = 0x0
	PacketFormatResponse         uint8 = 0x1
	PacketFormatUnconfirmedData  uint8 = 0x2
	PacketFormatConfirmedData    uint8 = 0x3
	PacketFormatShortDataDefined uint8 = 0xd
	PacketFormatShortDataRaw     uint8 = 0xe
	PacketFormatProprietaryData  uint8 = 0xf
)

// Service Access Point
const (
	ServiceAccessPointUDT                    uint8 = 0x0
	ServiceAccessPointTCPIPHeaderCompression uint8 = 0x2
	ServiceAccessPointUDPIPHeaderCompression uint8 = 0x3
	ServiceAccessPointIPBasedPacketData      uint8 = 0x4
	ServiceAccessPointARP                    uint8 = 0x5
	ServiceAccessPointProprietaryData        uint8 = 0x9
	ServiceAccessPointShortData              uint8 = 0xa
)

var ServiceAccessPointName = map[uint8]string{
	ServiceAccessPointUDT:                    "UDT",
	ServiceAccessPointTCPIPHeaderCompression: "TCP/IP header compression",
	ServiceAccessPointUDPIPHeaderCompression: "UDP/IP header compression",
	ServiceAccessPointIPBasedPacketData:      "IP based packet data",
	ServiceAccessPointARP:                    "ARP",
	ServiceAccessPointProprietaryData:        "proprietary data",
	ServiceAccessPointShortData:              "short data",
}

// Response Data Header Response Type, encodes class and type
const (
	ResponseTypeACK              uint8 = 0x01 // Class 0b00, Type 0b001
	ResponseTypeIllegalFormat    uint8 = 0x08 // Class 0b01, Type 0b000
	ResponseTypePacketCRCFailed  uint8 = 0x09 // Class 0b01, Type 0b001
	ResponseTypeMemoryFull       uint8 = 0x0a // Class 0b01, Type 0b010
	ResponseTypeRecvFSVNOutOfSeq uint8 = 0x0b // Class 0b01, Type 0b011
	ResponseTypeUndeliverable    uint8 = 0x0c // Class 0b01, Type 0b100
	ResponseTypeRecvPktOutOfSeq  uint8 = 0x0d // Class 0b01, Type 0b101
	ResponseTypeDisallowed       uint8 = 0x0e // Class 0b01, Type 0b110
	ResponseTypeSelectiveACK     uint8 = 0x10 // Class 0b10, Type 0b000
)

var ResponseTypeName = map[uint8]string{
	ResponseTypeACK:              "ACK",
	ResponseTypeIllegalFormat:    "illegal format",
	ResponseTypePacketCRCFailed:  "packet CRC failed",
	ResponseTypeMemoryFull:       "memory full",
	ResponseTypeRecvFSVNOutOfSeq: "recv FSN out of sequence",
	ResponseTypeUndeliverable:    "undeliverable",
	ResponseTypeRecvPktOutOfSeq:  "recv PKT out of sequence",
	ResponseTypeDisallowed:       "disallowed",
	ResponseTypeSelectiveACK:     "selective ACK",
}

// http://www.etsi.org/images/files/DMRcodes/dmrs-mfid.xls
var ManufacturerName = map[uint8]string{
	0x04: "Flyde Micro Ltd.",
	0x05: "PROD-EL SPA",
	0x06: "Trident Datacom DBA Trident Micro Systems",
	0x07: "RADIODATA GmbH",
	0x08: "HYT science tech",
	0x09: "ASELSAN Elektronik Sanayi ve Ticaret A.S.",
	0x0a: "Kirisun Communications Co. Ltd",
	0x0b: "DMR Association Ltd.",
	0x10: "Motorola Ltd.",
	0x13: "EMC S.p.A. (Electronic Marketing Company)",
	0x1c: "EMC S.p.A. (Electronic Marketing Company)",
	0x20: "JVCKENWOOD Corporation",
	0x33: "Radio Activity Srl",
	0x3c: "Radio Activity Srl",
	0x58: "Tait Electronics Ltd",
	0x68: "HYT science tech",
	0x77: "Vertex Standard",
}

var (
	dhGroup             = 0
	dhResponseRequested = 1
	dhHeaderCompression = 2
	dhFormat            = bit.Indices(4, 7)
	dhServiceAccess     = bit.Indices(8, 11)
	dhTarget            = bit.Indices(16, 39)
	dhSource            = bit.Indices(40, 63)

	// Fields split over the first two octets.
	dhPadOctetsHigh     = 3
	dhPadOctetsLow      = bit.Indices(12, 15)
	dhAppendedBlocksHi  = bit.Indices(2, 3)
	dhAppendedBlocksLow = bit.Indices(12, 15)

	dhFullMessage    = 64
	dhBlocksToFollow = bit.Indices(65, 71)
)

var dataHeaderRegistry = message.NewRegistry(Protocol,
	message.Entry[uint8]{Code: PacketFormatUDT, Name: "UDT_HEADER", New: newUDTHeader},
	message.Entry[uint8]{Code: PacketFormatResponse, Name: "RESPONSE_HEADER", New: newResponseHeader},
	message.Entry[uint8]{Code: PacketFormatUnconfirmedData, Name: "UNCONFIRMED_DATA_HEADER", New: newUnconfirmedHeader},
	message.Entry[uint8]{Code: PacketFormatConfirmedData, Name: "CONFIRMED_DATA_HEADER", New: newConfirmedHeader},
	message.Entry[uint8]{Code: PacketFormatShortDataDefined, Name: "SHORT_DATA_DEFINED_HEADER", New: newShortDataDefinedHeader},
	message.Entry[uint8]{Code: PacketFormatShortDataRaw, Name: "SHORT_DATA_RAW_HEADER", New: newShortDataRawHeader},
	message.Entry[uint8]{Code: PacketFormatProprietaryData, Name: "PROPRIETARY_HEADER", New: newProprietaryHeader},
)

// DataHeaderRegistry returns the data header registry keyed by packet format.
func DataHeaderRegistry() *message.Registry[uint8] { return dataHeaderRegistry }

// DecodeDataHeader dispatches a decoded data header block on its packet format.
func DecodeDataHeader(buf *bit.Buffer, ctx message.Context) message.Message {
	return dataHeaderRegistry.Decode(uint8(buf.Int(dhFormat)), buf, ctx)
}

// PacketHeader carries the fields common to all data headers, and the framing of the
// data blocks that follow.
type PacketHeader struct {
	message.Header
	Slot               int
	ColorCode          uint8
	Format             uint8
	Group              bool
	ResponseRequested  bool
	HeaderCompression  bool
	ServiceAccessPoint uint8
	Target             uint32
	Source             uint32
	// Blocks is the number of data blocks that follow the header.
	Blocks    int
	Confirmed bool
	// Pad is the number of padding octets before the packet CRC.
	Pad int
}

// Packet returns the common header fields.
func (h *PacketHeader) Packet() *PacketHeader { return h }

func newPacketHeader(h message.Header, ctx message.Context) PacketHeader {
	buf := h.Buffer()
	return PacketHeader{
		Header:             h,
		Slot:               ctx.Slot,
		ColorCode:          uint8(ctx.AccessCode),
		Format:             uint8(buf.Int(dhFormat)),
		Group:              buf.Flag(dhGroup),
		ResponseRequested:  buf.Flag(dhResponseRequested),
		HeaderCompression:  buf.Flag(dhHeaderCompression),
		ServiceAccessPoint: uint8(buf.Int(dhServiceAccess)),
		Target:             buf.Int(dhTarget),
		Source:             buf.Int(dhSource),
	}
}

func padOctets(buf *bit.Buffer) int {
	var n = int(buf.Int(dhPadOctetsLow))
	if buf.Flag(dhPadOctetsHigh) {
		n |= 0x10
	}
	return n
}

func appendedBlocks(buf *bit.Buffer) int {
	return int(buf.Int(dhAppendedBlocksHi))<<4 | int(buf.Int(dhAppendedBlocksLow))
}

func (h *PacketHeader) Identifiers() []identifier.Identifier {
	var to = radio(identifier.To, h.Target)
	if h.Group {
		to = talkgroup(identifier.To, h.Target)
	}
	return []identifier.Identifier{to, radio(identifier.From, h.Source)}
}

func (h *PacketHeader) describe(m message.Message, extra string) string {
	var part = []string{describe(h.Slot, h.ColorCode, m)}
	if sap, ok := ServiceAccessPointName[h.ServiceAccessPoint]; ok {
		part = append(part, "sap "+sap)
	}
	if h.Blocks > 0 {
		part = append(part, fmt.Sprintf("%d blocks", h.Blocks))
	}
	if extra != "" {
		part = append(part, extra)
	}
	return strings.Join(part, ", ")
}

// UDT Format
const (
	UDTFormatBinary uint8 = iota
	UDTFormatMSAddress
	UDTFormat4BitBCD
	UDTFormatISO7BitChars
	UDTFormatISO8BitChars
	UDTFormatNMEALocation
	UDTFormatIPAddress
	UDTFormat16BitUnicodeChars
	UDTFormatCustomCodeD1
	UDTFormatCustomCodeD2
)

var UDTFormatName = map[uint8]string{
	UDTFormatBinary:            "binary",
	UDTFormatMSAddress:         "MS address",
	UDTFormat4BitBCD:           "4-bit BCD",
	UDTFormatISO7BitChars:      "ISO 7-bit characters",
	UDTFormatISO8BitChars:      "ISO 8-bit characters",
	UDTFormatNMEALocation:      "NMEA location",
	UDTFormatIPAddress:         "IP address",
	UDTFormat16BitUnicodeChars: "16-bit Unicode characters",
	UDTFormatCustomCodeD1:      "custom code D1",
	UDTFormatCustomCodeD2:      "custom code D2",
}

var (
	udtFormat         = bit.Indices(12, 15)
	udtPadNibble      = bit.Indices(64, 68)
	udtAppendedBlocks = bit.Indices(70, 71)
	udtSupplementary  = 72
	udtOpcode         = bit.Indices(74, 79)
)

// UDTHeader announces unified data transport blocks.
type UDTHeader struct {
	PacketHeader
	UDTFormat     uint8
	PadNibble     uint8
	Supplementary bool
	Opcode        uint8
}

func newUDTHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &UDTHeader{
		PacketHeader:  newPacketHeader(h, ctx),
		UDTFormat:     uint8(buf.Int(udtFormat)),
		PadNibble:     uint8(buf.Int(udtPadNibble)),
		Supplementary: buf.Flag(udtSupplementary),
		Opcode:        uint8(buf.Int(udtOpcode)),
	}
	m.Blocks = int(buf.Int(udtAppendedBlocks)) + 1
	m.Pad = int(m.PadNibble) / 2
	return m
}

func (m *UDTHeader) String() string {
	return m.describe(m, fmt.Sprintf("format %s, opcode %d", UDTFormatName[m.UDTFormat], m.Opcode))
}

var (
	responseClassType = bit.Indices(72, 76)
	responseStatus    = bit.Indices(77, 79)
)

// ResponseHeader acknowledges a confirmed data packet.
type ResponseHeader struct {
	PacketHeader
	ClassType uint8 // See ResponseTypeName
	Status    uint8
}

func newResponseHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &ResponseHeader{
		PacketHeader: newPacketHeader(h, ctx),
		ClassType:    uint8(buf.Int(responseClassType)),
		Status:       uint8(buf.Int(responseStatus)),
	}
	m.Blocks = int(buf.Int(dhBlocksToFollow))
	return m
}

func (m *ResponseHeader) String() string {
	name, ok := ResponseTypeName[m.ClassType]
	if !ok {
		name = fmt.Sprintf("%02b %03b", m.ClassType>>3, m.ClassType&0x07)
	}
	return m.describe(m, fmt.Sprintf("%s, status %d", name, m.Status))
}

var unconfirmedFragmentSequence = bit.Indices(76, 79)

// UnconfirmedHeader announces packet data sent without acknowledgement.
type UnconfirmedHeader struct {
	PacketHeader
	FullMessage            bool
	FragmentSequenceNumber uint8
}

func newUnconfirmedHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &UnconfirmedHeader{
		PacketHeader:           newPacketHeader(h, ctx),
		FullMessage:            buf.Flag(dhFullMessage),
		FragmentSequenceNumber: uint8(buf.Int(unconfirmedFragmentSequence)),
	}
	m.Blocks = int(buf.Int(dhBlocksToFollow))
	m.Pad = padOctets(buf)
	return m
}

func (m *UnconfirmedHeader) String() string {
	return m.describe(m, fmt.Sprintf("unconfirmed, pad %d, full %t, sequence %d", m.Pad, m.FullMessage, m.FragmentSequenceNumber))
}

var (
	confirmedResync           = 72
	confirmedSendSequence     = bit.Indices(73, 75)
	confirmedFragmentSequence = bit.Indices(76, 79)
)

// ConfirmedHeader announces packet data with per block CRC and acknowledgement.
type ConfirmedHeader struct {
	PacketHeader
	FullMessage            bool
	Resync                 bool
	SendSequenceNumber     uint8
	FragmentSequenceNumber uint8
}

func newConfirmedHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &ConfirmedHeader{
		PacketHeader:           newPacketHeader(h, ctx),
		FullMessage:            buf.Flag(dhFullMessage),
		Resync:                 buf.Flag(confirmedResync),
		SendSequenceNumber:     uint8(buf.Int(confirmedSendSequence)),
		FragmentSequenceNumber: uint8(buf.Int(confirmedFragmentSequence)),
	}
	m.Blocks = int(buf.Int(dhBlocksToFollow))
	m.Pad = padOctets(buf)
	m.Confirmed = true
	return m
}

func (m *ConfirmedHeader) String() string {
	return m.describe(m, fmt.Sprintf("confirmed, pad %d, full %t, send sequence %d, sequence %d",
		m.Pad, m.FullMessage, m.SendSequenceNumber, m.FragmentSequenceNumber))
}

// Short data header fields.
var (
	shortDDFormat    = bit.Indices(64, 69)
	shortSourcePort  = bit.Indices(64, 66)
	shortTargetPort  = bit.Indices(67, 69)
	shortResync      = 70
	shortFullMessage = 71
	shortBitPadding  = bit.Indices(72, 79)
)

// ShortDataDefinedHeader announces short data in a defined character format.
type ShortDataDefinedHeader struct {
	PacketHeader
	DDFormat    uint8
	Resync      bool
	FullMessage bool
	BitPadding  uint8
}

func newShortDataDefinedHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &ShortDataDefinedHeader{
		PacketHeader: newPacketHeader(h, ctx),
		DDFormat:     uint8(buf.Int(shortDDFormat)),
		Resync:       buf.Flag(shortResync),
		FullMessage:  buf.Flag(shortFullMessage),
		BitPadding:   uint8(buf.Int(shortBitPadding)),
	}
	m.Blocks = appendedBlocks(buf)
	m.Pad = int(m.BitPadding) / 8
	return m
}

func (m *ShortDataDefinedHeader) String() string {
	return m.describe(m, fmt.Sprintf("dd format %s, full %t, padding %d", DDFormatName[m.DDFormat], m.FullMessage, m.BitPadding))
}

// ShortDataRawHeader announces short data between two ports.
type ShortDataRawHeader struct {
	PacketHeader
	SourcePort  uint8
	TargetPort  uint8
	Resync      bool
	FullMessage bool
	BitPadding  uint8
}

func newShortDataRawHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &ShortDataRawHeader{
		PacketHeader: newPacketHeader(h, ctx),
		SourcePort:   uint8(buf.Int(shortSourcePort)),
		TargetPort:   uint8(buf.Int(shortTargetPort)),
		Resync:       buf.Flag(shortResync),
		FullMessage:  buf.Flag(shortFullMessage),
		BitPadding:   uint8(buf.Int(shortBitPadding)),
	}
	m.Blocks = appendedBlocks(buf)
	m.Pad = int(m.BitPadding) / 8
	return m
}

func (m *ShortDataRawHeader) String() string {
	return m.describe(m, fmt.Sprintf("port %d -> %d, full %t, padding %d", m.SourcePort, m.TargetPort, m.FullMessage, m.BitPadding))
}

var proprietaryManufacturer = bit.Indices(9, 15)

// ProprietaryHeader carries manufacturer specific data.
type ProprietaryHeader struct {
	PacketHeader
	ManufacturerID uint8
}

func newProprietaryHeader(h message.Header, ctx message.Context) message.Message {
	return &ProprietaryHeader{
		PacketHeader:   newPacketHeader(h, ctx),
		ManufacturerID: uint8(h.Buffer().Int(proprietaryManufacturer)),
	}
}

func (m *ProprietaryHeader) String() string {
	name, ok := ManufacturerName[m.ManufacturerID]
	if !ok {
		name = fmt.Sprintf("MFID %#02x", m.ManufacturerID)
	}
	return m.describe(m, "manufacturer "+name)
}
