package p25

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
	"github.com/pd0mz/go-lmr/trellis"
)

// Packet data unit formats
const (
	FormatResponse    uint8 = 0x03
	FormatUnconfirmed uint8 = 0x15
	FormatConfirmed   uint8 = 0x16
	FormatAMBTC       uint8 = 0x17
)

var FormatName = map[uint8]string{
	FormatResponse:    "response",
	FormatUnconfirmed: "unconfirmed",
	FormatConfirmed:   "confirmed",
	FormatAMBTC:       "AMBTC",
}

// The PDU header shares the TSBK block coding: 80 bits followed by CRC-CCITT.
var (
	pduConfirmed = 1
	pduOutbound  = 2
	pduFormat    = bit.Indices(3, 7)
	pduSAP       = bit.Indices(10, 15)
	pduVendor    = bit.Indices(16, 23)
	pduLLID      = bit.Indices(24, 47)
	pduBlocks    = bit.Indices(49, 55)
	pduPad       = bit.Indices(59, 63)
	pduOpcode    = bit.Indices(58, 63)
	pduLRA       = bit.Indices(64, 71)
	pduClass     = bit.Indices(72, 79)
)

const (
	// confirmedBlockHeader is the serial number and CRC-9 leading a confirmed block.
	confirmedBlockHeader = 16
	packetCRCBits        = 32
)

// PDUHeader returns the decoded header block of a packet data unit.
func PDUHeader(block bit.Bits) *bit.Buffer {
	return DecodeTSBK(block)
}

// BlocksToFollow returns the number of data blocks announced by the header, capped
// at MaxPDUBlocks.
func BlocksToFollow(header *bit.Buffer) int {
	n := int(header.Int(pduBlocks))
	if n > MaxPDUBlocks {
		return MaxPDUBlocks
	}
	return n
}

// dataBlockBits is the number of user bits per data block.
func dataBlockBits(confirmed bool) int {
	if confirmed {
		return trellis.Rate34.DataBits() - confirmedBlockHeader
	}
	return trellis.Rate12.DataBits()
}

func decodeDataBlock(block bit.Bits, confirmed bool) (bit.Bits, crc.Outcome) {
	var (
		code = trellis.Rate12
		skip int
	)
	if confirmed {
		code, skip = trellis.Rate34, confirmedBlockHeader
	}
	data, metric, err := code.Decode(block)
	if err != nil {
		return make(bit.Bits, dataBlockBits(confirmed)), crc.OutcomeFailed
	}
	return data[skip:], crc.CorrectedBy(metric)
}

// DecodeData concatenates the user bits of the data blocks and checks the packet
// CRC-32 carried in the last 32 bits. Missing blocks fail the outcome.
func DecodeData(blocks []bit.Bits, confirmed bool, want int) *bit.Buffer {
	var (
		buf     = bit.NewBuffer(want * dataBlockBits(confirmed))
		outcome = crc.OutcomeUnknown
	)
	for _, block := range blocks {
		data, o := decodeDataBlock(block, confirmed)
		buf.AppendBits(data)
		outcome = outcome.Merge(o)
	}
	switch {
	case len(blocks) < want || buf.Size() < packetCRCBits:
		outcome = crc.OutcomeFailed
	default:
		outcome = outcome.Merge(crc.Packet.Check(buf, 0, buf.Size()-packetCRCBits))
	}
	buf.SetOutcome(outcome)
	return buf
}

// EncodeData appends the packet CRC-32 to data, which must fill want blocks less the
// CRC, and returns the unconfirmed trellis blocks.
func EncodeData(data bit.Bits, want int) []bit.Bits {
	var (
		width = dataBlockBits(false)
		buf   = bit.NewBuffer(want * width)
	)
	buf.AppendBits(data)
	buf.Load(buf.Size()-packetCRCBits, packetCRCBits, uint64(crc.Packet.Compute(buf, 0, buf.Size()-packetCRCBits)))
	var blocks []bit.Bits
	for i := 0; i < want; i++ {
		blocks = append(blocks, trellis.Rate12.Encode(buf.Slice(i*width, (i+1)*width).Bits()))
	}
	return blocks
}

// Packet carries the header fields of a packet data unit.
type Packet struct {
	message.Header
	NAC       uint16
	Confirmed bool
	Outbound  bool
	Format    uint8
	SAP       uint8
	Vendor    Vendor
	LLID      uint32
	Blocks    int
}

func newPacket(h message.Header, ctx message.Context) Packet {
	buf := h.Buffer()
	return Packet{
		Header:    h,
		NAC:       uint16(ctx.AccessCode),
		Confirmed: buf.Flag(pduConfirmed),
		Outbound:  buf.Flag(pduOutbound),
		Format:    uint8(buf.Int(pduFormat)),
		SAP:       uint8(buf.Int(pduSAP)),
		Vendor:    Vendor(buf.Int(pduVendor)),
		LLID:      buf.Int(pduLLID),
		Blocks:    int(buf.Int(pduBlocks)),
	}
}

func describePacket(p Packet, m message.Message) string {
	return fmt.Sprintf("NAC %03X %s", p.NAC, message.Describe(m))
}

// PacketData is a packet data unit that is not trunking control.
type PacketData struct {
	Packet
	Pad  int
	Data *bit.Buffer
}

// NewPacketData returns the message for a non trunking PDU. The data may be nil when
// no blocks follow.
func NewPacketData(header, data *bit.Buffer, ctx message.Context) *PacketData {
	format := uint8(header.Int(pduFormat))
	name, ok := FormatName[format]
	if !ok {
		name = "data"
	}
	h := message.NewHeader(Protocol, uint32(format), "PDU "+name, header, ctx.Timestamp)
	return &PacketData{
		Packet: newPacket(h, ctx),
		Pad:    int(header.Int(pduPad)),
		Data:   data,
	}
}

func (m *PacketData) Identifiers() []identifier.Identifier {
	role := identifier.From
	if m.Outbound {
		role = identifier.To
	}
	return []identifier.Identifier{radio(role, m.LLID)}
}

// Payload returns the user octets without pad octets and packet CRC.
func (m *PacketData) Payload() []byte {
	if m.Data == nil {
		return nil
	}
	n := m.Data.Size()/8 - m.Pad - packetCRCBits/8
	if n <= 0 {
		return nil
	}
	return m.Data.Bytes()[:n]
}

func (m *PacketData) String() string {
	return fmt.Sprintf("%s SAP %#02x %d bytes", describePacket(m.Packet, m), m.SAP, len(m.Payload()))
}

var ambtcEntries = []message.Entry[uint8]{
	{Code: GroupVoiceChannelGrant, Name: "GRP_V_CH_GRANT", New: newAMBTCGroupVoiceGrant},
	{Code: UnitToUnitVoiceChannelGrant, Name: "UU_V_CH_GRANT", New: newAMBTCUnitToUnitVoiceGrant},
	{Code: RFSSStatusBroadcast, Name: "RFSS_STS_BCST", New: newAMBTCRFSSStatus},
	{Code: NetworkStatusBroadcast, Name: "NET_STS_BCST", New: newAMBTCNetworkStatus},
}

// continuation returns the data blocks if they hold at least n bits, or nil.
func continuation(ctx message.Context, n int) *bit.Buffer {
	if ctx.Continuation == nil || ctx.Continuation.Size() < n {
		return nil
	}
	return ctx.Continuation
}

var (
	ambtcGrantServiceOptions = bit.Indices(0, 7)
	ambtcGrantTransmit       = bit.Indices(16, 31)
	ambtcGrantReceive        = bit.Indices(32, 47)
	ambtcGrantGroup          = bit.Indices(48, 63)
)

// AMBTCGroupVoiceGrant assigns an explicit channel pair to a talkgroup call. The
// source is the header LLID.
type AMBTCGroupVoiceGrant struct {
	Packet
	Options  ServiceOptions
	Transmit identifier.Identifier
	Receive  identifier.Identifier
	Group    uint32
}

func newAMBTCGroupVoiceGrant(h message.Header, ctx message.Context) message.Message {
	data := continuation(ctx, 64)
	if data == nil {
		return nil
	}
	return &AMBTCGroupVoiceGrant{
		Packet:   newPacket(h, ctx),
		Options:  ServiceOptions(data.Int(ambtcGrantServiceOptions)),
		Transmit: channel(ctx, identifier.Any, data.Int(ambtcGrantTransmit)),
		Receive:  channel(ctx, identifier.Any, data.Int(ambtcGrantReceive)),
		Group:    data.Int(ambtcGrantGroup),
	}
}

func (m *AMBTCGroupVoiceGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Transmit, m.Receive, talkgroup(identifier.To, m.Group), radio(identifier.From, m.LLID)}
}

func (m *AMBTCGroupVoiceGrant) String() string { return describePacket(m.Packet, m) }

var (
	ambtcUUSourceWACN   = bit.Indices(0, 19)
	ambtcUUSourceSystem = bit.Indices(20, 31)
	ambtcUUSource       = bit.Indices(32, 55)
	ambtcUUTransmit     = bit.Indices(56, 71)
	ambtcUUReceive      = bit.Indices(72, 87)
)

// AMBTCUnitToUnitVoiceGrant assigns an explicit channel pair to a private call with
// a fully qualified source. The target is the header LLID.
type AMBTCUnitToUnitVoiceGrant struct {
	Packet
	SourceWACN   uint32
	SourceSystem uint16
	Source       uint32
	Transmit     identifier.Identifier
	Receive      identifier.Identifier
}

func newAMBTCUnitToUnitVoiceGrant(h message.Header, ctx message.Context) message.Message {
	data := continuation(ctx, 88)
	if data == nil {
		return nil
	}
	return &AMBTCUnitToUnitVoiceGrant{
		Packet:       newPacket(h, ctx),
		SourceWACN:   data.Int(ambtcUUSourceWACN),
		SourceSystem: uint16(data.Int(ambtcUUSourceSystem)),
		Source:       data.Int(ambtcUUSource),
		Transmit:     channel(ctx, identifier.Any, data.Int(ambtcUUTransmit)),
		Receive:      channel(ctx, identifier.Any, data.Int(ambtcUUReceive)),
	}
}

func (m *AMBTCUnitToUnitVoiceGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		m.Transmit,
		m.Receive,
		radio(identifier.To, m.LLID),
		radio(identifier.From, m.Source),
		identifier.New(Protocol, identifier.Network, identifier.From, uint64(m.SourceWACN)),
		identifier.New(Protocol, identifier.System, identifier.From, uint64(m.SourceSystem)),
	}
}

func (m *AMBTCUnitToUnitVoiceGrant) String() string { return describePacket(m.Packet, m) }

var (
	ambtcStatusSystem   = bit.Indices(4, 15)
	ambtcStatusRFSS     = bit.Indices(16, 23)
	ambtcStatusSite     = bit.Indices(24, 31)
	ambtcStatusTransmit = bit.Indices(32, 47)
	ambtcStatusReceive  = bit.Indices(48, 63)
)

// AMBTCRFSSStatus announces the current site with an explicit channel pair.
type AMBTCRFSSStatus struct {
	Packet
	LRA      uint8
	Class    uint8
	System   uint16
	RFSS     uint8
	Site     uint8
	Transmit identifier.Identifier
	Receive  identifier.Identifier
}

func newAMBTCRFSSStatus(h message.Header, ctx message.Context) message.Message {
	data := continuation(ctx, 64)
	if data == nil {
		return nil
	}
	buf := h.Buffer()
	return &AMBTCRFSSStatus{
		Packet:   newPacket(h, ctx),
		LRA:      uint8(buf.Int(pduLRA)),
		Class:    uint8(buf.Int(pduClass)),
		System:   uint16(data.Int(ambtcStatusSystem)),
		RFSS:     uint8(data.Int(ambtcStatusRFSS)),
		Site:     uint8(data.Int(ambtcStatusSite)),
		Transmit: channel(ctx, identifier.Any, data.Int(ambtcStatusTransmit)),
		Receive:  channel(ctx, identifier.Any, data.Int(ambtcStatusReceive)),
	}
}

func (m *AMBTCRFSSStatus) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		identifier.New(Protocol, identifier.RFSS, identifier.Any, uint64(m.RFSS)),
		identifier.New(Protocol, identifier.Site, identifier.Any, uint64(m.Site)),
		m.Transmit,
		m.Receive,
	}
}

func (m *AMBTCRFSSStatus) String() string { return describePacket(m.Packet, m) }

var (
	ambtcNetworkWACN     = bit.Indices(0, 19)
	ambtcNetworkSystem   = bit.Indices(20, 31)
	ambtcNetworkTransmit = bit.Indices(32, 47)
	ambtcNetworkReceive  = bit.Indices(48, 63)
)

// AMBTCNetworkStatus announces the network and system with an explicit channel pair.
type AMBTCNetworkStatus struct {
	Packet
	LRA      uint8
	Class    uint8
	WACN     uint32
	System   uint16
	Transmit identifier.Identifier
	Receive  identifier.Identifier
}

func newAMBTCNetworkStatus(h message.Header, ctx message.Context) message.Message {
	data := continuation(ctx, 64)
	if data == nil {
		return nil
	}
	buf := h.Buffer()
	return &AMBTCNetworkStatus{
		Packet:   newPacket(h, ctx),
		LRA:      uint8(buf.Int(pduLRA)),
		Class:    uint8(buf.Int(pduClass)),
		WACN:     data.Int(ambtcNetworkWACN),
		System:   uint16(data.Int(ambtcNetworkSystem)),
		Transmit: channel(ctx, identifier.Any, data.Int(ambtcNetworkTransmit)),
		Receive:  channel(ctx, identifier.Any, data.Int(ambtcNetworkReceive)),
	}
}

func (m *AMBTCNetworkStatus) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.Network, identifier.Any, uint64(m.WACN)),
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		m.Transmit,
		m.Receive,
	}
}

func (m *AMBTCNetworkStatus) String() string { return describePacket(m.Packet, m) }
