package dmr

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/bptc"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/dmr/lc/serviceoptions"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Control block layout: last block flag, protect flag, opcode, feature set, 64
// argument bits and the masked CRC-CCITT over the first 80 bits.
const (
	BlockBits     = 96
	BlockDataBits = 80
)

// CRC masks, see DMR AI. spec. page 143.
const (
	PIHeaderMask   uint16 = 0x6969
	CSBKMask       uint16 = 0xa5a5
	MBCHeaderMask  uint16 = 0xaaaa
	DataHeaderMask uint16 = 0xcccc
)

// Feature set IDs
const (
	StandardFID uint8 = 0x00
	MotorolaFID uint8 = 0x10
)

var (
	csbkLastBlock  = 0
	csbkProtect    = 1
	csbkOpcode     = bit.Indices(2, 7)
	csbkFeatureSet = bit.Indices(8, 15)
	csbkTarget     = bit.Indices(32, 55)
	csbkSource     = bit.Indices(56, 79)
)

// Control Block Opcode
const (
	UnitToUnitVoiceServiceRequest        uint8 = 0x04 // UU_V_Req
	UnitToUnitVoiceServiceAnswerResponse uint8 = 0x05 // UU_Ans_Rsp
	ChannelTiming                        uint8 = 0x07 // CT_CSBK
	Aloha                                uint8 = 0x19 // C_ALOHA
	Ahoy                                 uint8 = 0x1c // C_AHOY
	AckDownlink                          uint8 = 0x20 // C_ACKD
	AckUplink                            uint8 = 0x21 // C_ACKU
	ProxyAckDownlink                     uint8 = 0x22 // P_ACKD
	ProxyAckUplink                       uint8 = 0x23 // P_ACKU
	AckResponseDownlink                  uint8 = 0x24 // ACK_RSP_D
	AckResponseUplink                    uint8 = 0x25 // ACK_RSP_U
	NegativeAcknowledgeResponse          uint8 = 0x26 // NACK_Rsp
	Broadcast                            uint8 = 0x28 // C_BCAST
	PrivateVoiceGrant                    uint8 = 0x30 // PV_GRANT
	TalkgroupVoiceGrant                  uint8 = 0x31 // TV_GRANT
	BroadcastTalkgroupVoiceGrant         uint8 = 0x32 // BTV_GRANT
	PrivateDataGrant                     uint8 = 0x33 // PD_GRANT
	TalkgroupDataGrant                   uint8 = 0x34 // TD_GRANT
	OutboundActivation                   uint8 = 0x38 // BS_Dwn_Act
	Preamble                             uint8 = 0x3d // Pre_CSBK
	CapacityPlusSiteStatus               uint8 = 0x3e // Motorola Capacity Plus
)

// Key combines feature set and opcode into the registry type code.
func Key(fid, opcode uint8) uint16 {
	return uint16(fid)<<8 | uint16(opcode&0x3f)
}

// BlockKey returns the registry key of a decoded control block.
func BlockKey(buf *bit.Buffer) uint16 {
	return Key(uint8(buf.Int(csbkFeatureSet)), uint8(buf.Int(csbkOpcode)))
}

// LastBlock reports if a control block has the last block flag set.
func LastBlock(buf *bit.Buffer) bool {
	return buf.Flag(csbkLastBlock)
}

// checksum is the DMR CRC-CCITT: computed, inverted and masked per data type.
func checksum(mask uint16) crc.Poly {
	return crc.Poly{Width: 16, Poly: crc.CRC16Poly, XorOut: uint32(^mask)}
}

// DecodeBlock BPTC decodes 196 info bits and validates the masked CRC over the first
// 80 data bits, repairing a single bit error. The outcome counts BPTC corrections.
func DecodeBlock(info bit.Bits, mask uint16) *bit.Buffer {
	data, o := bptc.Decode(info)
	buf := bit.NewBufferFromBits(data)
	if !o.Valid() {
		buf.SetOutcome(crc.OutcomeFailed)
		return buf
	}
	buf.SetOutcome(o.Merge(checksum(mask).CorrectSingle(buf, 0, BlockDataBits)))
	return buf
}

// EncodeBlock computes the masked CRC over the first 80 bits of data and returns the
// BPTC encoded 196 info bits.
func EncodeBlock(data bit.Bits, mask uint16) bit.Bits {
	buf := bit.NewBuffer(BlockBits)
	buf.AppendBits(data[:BlockDataBits])
	buf.Load(BlockDataBits, 16, uint64(checksum(mask).Compute(buf, 0, BlockDataBits)))
	return bptc.Encode(buf.Bits())
}

var csbkRegistry = message.NewBuilder[uint16](Protocol).
	Add(Key(StandardFID, UnitToUnitVoiceServiceRequest), "UU_V_REQ", newVoiceServiceRequest).
	Add(Key(StandardFID, UnitToUnitVoiceServiceAnswerResponse), "UU_ANS_RSP", newVoiceServiceAnswer).
	Add(Key(StandardFID, ChannelTiming), "CT_CSBK", newChannelTiming).
	Add(Key(StandardFID, Aloha), "C_ALOHA", newAloha).
	Add(Key(StandardFID, Ahoy), "C_AHOY", newAhoy).
	Add(Key(StandardFID, AckDownlink), "C_ACKD", newAcknowledge).
	Add(Key(StandardFID, AckUplink), "C_ACKU", newAcknowledge).
	Add(Key(StandardFID, ProxyAckDownlink), "P_ACKD", newAcknowledge).
	Add(Key(StandardFID, ProxyAckUplink), "P_ACKU", newAcknowledge).
	Add(Key(StandardFID, AckResponseDownlink), "ACK_RSP_D", newAcknowledge).
	Add(Key(StandardFID, AckResponseUplink), "ACK_RSP_U", newAcknowledge).
	Add(Key(StandardFID, NegativeAcknowledgeResponse), "NACK_RSP", newNegativeAcknowledge).
	Add(Key(StandardFID, Broadcast), "C_BCAST", newBroadcast).
	Add(Key(StandardFID, PrivateVoiceGrant), "PV_GRANT", newGrant).
	Add(Key(StandardFID, TalkgroupVoiceGrant), "TV_GRANT", newGrant).
	Add(Key(StandardFID, BroadcastTalkgroupVoiceGrant), "BTV_GRANT", newGrant).
	Add(Key(StandardFID, PrivateDataGrant), "PD_GRANT", newGrant).
	Add(Key(StandardFID, TalkgroupDataGrant), "TD_GRANT", newGrant).
	Add(Key(StandardFID, OutboundActivation), "BS_DWN_ACT", newActivation).
	Add(Key(StandardFID, Preamble), "PRE_CSBK", newPreamble).
	Add(Key(MotorolaFID, CapacityPlusSiteStatus), "MOT_CAP_PLUS_SITE_STATUS", newCapacityPlusSiteStatus).
	Build()

// CSBKRegistry returns the control block registry keyed by Key(fid, opcode).
func CSBKRegistry() *message.Registry[uint16] { return csbkRegistry }

// DecodeCSBK dispatches a decoded control block. Blocks with the protect flag set are
// encrypted and returned as Unknown.
func DecodeCSBK(buf *bit.Buffer, ctx message.Context) message.Message {
	if buf.Flag(csbkProtect) {
		return message.NewUnknown(Protocol, uint32(BlockKey(buf)), buf, ctx.Timestamp)
	}
	return csbkRegistry.Decode(BlockKey(buf), buf, ctx)
}

// ControlBlock carries the fields common to all control signalling blocks.
type ControlBlock struct {
	message.Header
	Slot       int
	ColorCode  uint8
	Last       bool
	FeatureSet uint8
	Opcode     uint8
}

func newControlBlock(h message.Header, ctx message.Context) ControlBlock {
	buf := h.Buffer()
	return ControlBlock{
		Header:     h,
		Slot:       ctx.Slot,
		ColorCode:  uint8(ctx.AccessCode),
		Last:       buf.Flag(csbkLastBlock),
		FeatureSet: uint8(buf.Int(csbkFeatureSet)),
		Opcode:     uint8(buf.Int(csbkOpcode)),
	}
}

func describe(slot int, cc uint8, m message.Message) string {
	if slot > 0 {
		return fmt.Sprintf("TS%d CC%d %s", slot, cc, message.Describe(m))
	}
	return fmt.Sprintf("CC%d %s", cc, message.Describe(m))
}

func radio(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(Protocol, identifier.Radio, role, uint64(v))
}

func talkgroup(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(Protocol, identifier.Talkgroup, role, uint64(v))
}

// Addressed is a control block with a target and source address in its last six octets.
type Addressed struct {
	ControlBlock
	Target uint32
	Source uint32
}

func newAddressed(h message.Header, ctx message.Context) Addressed {
	buf := h.Buffer()
	return Addressed{
		ControlBlock: newControlBlock(h, ctx),
		Target:       buf.Int(csbkTarget),
		Source:       buf.Int(csbkSource),
	}
}

func (m *Addressed) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{radio(identifier.To, m.Target), radio(identifier.From, m.Source)}
}

// Activation wakes up a repeater, see 7.1.1.1.1 BS Outbound Activation.
type Activation struct {
	Addressed
}

func newActivation(h message.Header, ctx message.Context) message.Message {
	return &Activation{Addressed: newAddressed(h, ctx)}
}

func (m *Activation) String() string { return describe(m.Slot, m.ColorCode, m) }

var csbkServiceOptions = bit.Indices(16, 23)

// VoiceServiceRequest asks a radio to accept a unit to unit voice call.
type VoiceServiceRequest struct {
	Addressed
	ServiceOptions serviceoptions.ServiceOptions
}

func newVoiceServiceRequest(h message.Header, ctx message.Context) message.Message {
	return &VoiceServiceRequest{
		Addressed:      newAddressed(h, ctx),
		ServiceOptions: serviceoptions.Parse(uint8(h.Buffer().Int(csbkServiceOptions))),
	}
}

func (m *VoiceServiceRequest) String() string {
	return fmt.Sprintf("%s %s", describe(m.Slot, m.ColorCode, m), m.ServiceOptions)
}

var csbkAnswer = bit.Indices(24, 31)

// Answer Response
const (
	AnswerProceed uint8 = 0x20
	AnswerDeny    uint8 = 0x21
)

// VoiceServiceAnswer is the reply of a radio to a unit to unit voice service request.
type VoiceServiceAnswer struct {
	Addressed
	ServiceOptions serviceoptions.ServiceOptions
	Answer         uint8
}

func newVoiceServiceAnswer(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &VoiceServiceAnswer{
		Addressed:      newAddressed(h, ctx),
		ServiceOptions: serviceoptions.Parse(uint8(buf.Int(csbkServiceOptions))),
		Answer:         uint8(buf.Int(csbkAnswer)),
	}
}

func (m *VoiceServiceAnswer) String() string {
	var answer = fmt.Sprintf("answer %#02x", m.Answer)
	switch m.Answer {
	case AnswerProceed:
		answer = "proceed"
	case AnswerDeny:
		answer = "deny"
	}
	return fmt.Sprintf("%s %s", describe(m.Slot, m.ColorCode, m), answer)
}

var (
	timingSyncAge          = bit.Indices(16, 26)
	timingGeneration       = bit.Indices(27, 31)
	timingLeader           = bit.Indices(32, 51)
	timingNewLeader        = 52
	timingLeaderDynamic    = bit.Indices(53, 54)
	timingChannelTimingOp0 = 55
	timingSource           = bit.Indices(56, 75)
	timingSourceDynamic    = bit.Indices(77, 78)
	timingChannelTimingOp1 = 79
)

// ChannelTimingBlock synchronizes the slot timing of repeaters sharing a channel.
type ChannelTimingBlock struct {
	ControlBlock
	SyncAge         uint16
	Generation      uint8
	Leader          uint32
	NewLeader       bool
	LeaderDynamic   uint8
	Source          uint32
	SourceDynamic   uint8
	ChannelTimingOp uint8
}

func newChannelTiming(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	var op uint8
	if buf.Flag(timingChannelTimingOp0) {
		op |= 2
	}
	if buf.Flag(timingChannelTimingOp1) {
		op |= 1
	}
	return &ChannelTimingBlock{
		ControlBlock:    newControlBlock(h, ctx),
		SyncAge:         uint16(buf.Int(timingSyncAge)),
		Generation:      uint8(buf.Int(timingGeneration)),
		Leader:          buf.Int(timingLeader),
		NewLeader:       buf.Flag(timingNewLeader),
		LeaderDynamic:   uint8(buf.Int(timingLeaderDynamic)),
		Source:          buf.Int(timingSource),
		SourceDynamic:   uint8(buf.Int(timingSourceDynamic)),
		ChannelTimingOp: op,
	}
}

func (m *ChannelTimingBlock) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{radio(identifier.From, m.Source)}
}

func (m *ChannelTimingBlock) String() string {
	return fmt.Sprintf("%s leader %d generation %d sync age %d", describe(m.Slot, m.ColorCode, m),
		m.Leader, m.Generation, m.SyncAge)
}

var (
	alohaSiteTimingSync  = 18
	alohaVersion         = bit.Indices(19, 21)
	alohaOffset          = 22
	alohaActiveConnect   = 23
	alohaMask            = bit.Indices(24, 28)
	alohaServiceFunction = bit.Indices(29, 30)
	alohaNRandWait       = bit.Indices(31, 34)
	alohaRegistration    = 35
	alohaBackoff         = bit.Indices(36, 39)
	siteSystemCode       = bit.Indices(40, 55)
	alohaAddress         = bit.Indices(56, 79)
)

// AlohaBlock invites radios to access a trunked control channel.
type AlohaBlock struct {
	ControlBlock
	SiteTimingSync  bool
	Version         uint8
	Offset          bool
	ActiveConnect   bool
	Mask            uint8
	ServiceFunction uint8
	NRandWait       uint8
	Registration    bool
	Backoff         uint8
	SystemCode      uint16
	Address         uint32
}

func newAloha(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &AlohaBlock{
		ControlBlock:    newControlBlock(h, ctx),
		SiteTimingSync:  buf.Flag(alohaSiteTimingSync),
		Version:         uint8(buf.Int(alohaVersion)),
		Offset:          buf.Flag(alohaOffset),
		ActiveConnect:   buf.Flag(alohaActiveConnect),
		Mask:            uint8(buf.Int(alohaMask)),
		ServiceFunction: uint8(buf.Int(alohaServiceFunction)),
		NRandWait:       uint8(buf.Int(alohaNRandWait)),
		Registration:    buf.Flag(alohaRegistration),
		Backoff:         uint8(buf.Int(alohaBackoff)),
		SystemCode:      uint16(buf.Int(siteSystemCode)),
		Address:         buf.Int(alohaAddress),
	}
}

func (m *AlohaBlock) Identifiers() []identifier.Identifier {
	var ids = []identifier.Identifier{identifier.New(Protocol, identifier.System, identifier.Broadcast, uint64(m.SystemCode))}
	if m.Address != 0 {
		ids = append(ids, radio(identifier.To, m.Address))
	}
	return ids
}

func (m *AlohaBlock) String() string {
	return fmt.Sprintf("%s version %d registration %t backoff %d", describe(m.Slot, m.ColorCode, m),
		m.Version, m.Registration, m.Backoff)
}

var (
	ahoyServiceOptions = bit.Indices(16, 22)
	ahoyServiceKindFlg = 23
	ahoyAmbient        = 24
	ahoyGroup          = 25
	ahoyAppendedBlocks = bit.Indices(26, 27)
	ahoyServiceKind    = bit.Indices(28, 31)
)

// AhoyBlock polls a radio for a service.
type AhoyBlock struct {
	Addressed
	ServiceOptions  uint8
	ServiceKindFlag bool
	Ambient         bool
	Group           bool
	AppendedBlocks  uint8
	ServiceKind     uint8
}

func newAhoy(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &AhoyBlock{
		Addressed:       newAddressed(h, ctx),
		ServiceOptions:  uint8(buf.Int(ahoyServiceOptions)),
		ServiceKindFlag: buf.Flag(ahoyServiceKindFlg),
		Ambient:         buf.Flag(ahoyAmbient),
		Group:           buf.Flag(ahoyGroup),
		AppendedBlocks:  uint8(buf.Int(ahoyAppendedBlocks)),
		ServiceKind:     uint8(buf.Int(ahoyServiceKind)),
	}
}

func (m *AhoyBlock) Identifiers() []identifier.Identifier {
	var to = radio(identifier.To, m.Target)
	if m.Group {
		to = talkgroup(identifier.To, m.Target)
	}
	return []identifier.Identifier{to, radio(identifier.From, m.Source)}
}

func (m *AhoyBlock) String() string {
	return fmt.Sprintf("%s service kind %d", describe(m.Slot, m.ColorCode, m), m.ServiceKind)
}

var (
	ackResponseInfo = bit.Indices(16, 22)
	ackReason       = bit.Indices(23, 30)
)

// AcknowledgeBlock acknowledges a random access or service request.
type AcknowledgeBlock struct {
	Addressed
	ResponseInfo uint8
	Reason       uint8
}

func newAcknowledge(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &AcknowledgeBlock{
		Addressed:    newAddressed(h, ctx),
		ResponseInfo: uint8(buf.Int(ackResponseInfo)),
		Reason:       uint8(buf.Int(ackReason)),
	}
}

func (m *AcknowledgeBlock) String() string {
	return fmt.Sprintf("%s reason %#02x", describe(m.Slot, m.ColorCode, m), m.Reason)
}

var (
	nackAdditionalInfo = 16
	nackSourceType     = 17
	nackServiceType    = bit.Indices(18, 23)
	nackReason         = bit.Indices(24, 31)
)

// NegativeAcknowledgeBlock rejects a service request.
type NegativeAcknowledgeBlock struct {
	Addressed
	AdditionalInfo bool
	SourceType     bool
	ServiceType    uint8
	Reason         uint8
}

func newNegativeAcknowledge(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &NegativeAcknowledgeBlock{
		Addressed:      newAddressed(h, ctx),
		AdditionalInfo: buf.Flag(nackAdditionalInfo),
		SourceType:     buf.Flag(nackSourceType),
		ServiceType:    uint8(buf.Int(nackServiceType)),
		Reason:         uint8(buf.Int(nackReason)),
	}
}

func (m *NegativeAcknowledgeBlock) String() string {
	return fmt.Sprintf("%s service %#02x reason %#02x", describe(m.Slot, m.ColorCode, m), m.ServiceType, m.Reason)
}

// Broadcast announcement types
const (
	AnnounceWithdrawTSCC uint8 = iota
	CallTimerParameters
	VoteNow
	LocalTime
	MassRegistration
	ChannelFrequency
	AdjacentSite
	GeneralSiteParameters
)

var AnnouncementName = map[uint8]string{
	AnnounceWithdrawTSCC:  "Ann-WD_TSCC",
	CallTimerParameters:   "CallTimer_Parms",
	VoteNow:               "Vote_Now",
	LocalTime:             "Local_Time",
	MassRegistration:      "MassReg",
	ChannelFrequency:      "Chan_Freq",
	AdjacentSite:          "Adjacent_Site",
	GeneralSiteParameters: "Gen_Site_Params",
}

var (
	bcastAnnouncement = bit.Indices(16, 20)
	bcastParameters1  = bit.Indices(21, 34)
	bcastRegistration = 35
	bcastBackoff      = bit.Indices(36, 39)
	bcastParameters2  = bit.Indices(56, 79)
)

// BroadcastBlock announces site parameters on a trunked control channel.
type BroadcastBlock struct {
	ControlBlock
	Announcement uint8
	Parameters1  uint16
	Registration bool
	Backoff      uint8
	SystemCode   uint16
	Parameters2  uint32
	// Channel is the absolute channel carried by a multi block announcement, or nil.
	Channel *identifier.Identifier
}

func newBroadcast(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &BroadcastBlock{
		ControlBlock: newControlBlock(h, ctx),
		Announcement: uint8(buf.Int(bcastAnnouncement)),
		Parameters1:  uint16(buf.Int(bcastParameters1)),
		Registration: buf.Flag(bcastRegistration),
		Backoff:      uint8(buf.Int(bcastBackoff)),
		SystemCode:   uint16(buf.Int(siteSystemCode)),
		Parameters2:  buf.Int(bcastParameters2),
	}
	if ctx.Continuation != nil {
		if id, ok := absoluteChannel(ctx.Continuation, 0); ok {
			m.Channel = &id
		}
	}
	return m
}

func (m *BroadcastBlock) Identifiers() []identifier.Identifier {
	var ids = []identifier.Identifier{identifier.New(Protocol, identifier.System, identifier.Broadcast, uint64(m.SystemCode))}
	if m.Channel != nil {
		ids = append(ids, *m.Channel)
	}
	return ids
}

func (m *BroadcastBlock) String() string {
	name, ok := AnnouncementName[m.Announcement]
	if !ok {
		name = fmt.Sprintf("announcement %d", m.Announcement)
	}
	return fmt.Sprintf("%s %s", describe(m.Slot, m.ColorCode, m), name)
}

// Absolute channel parameters (CDEFTX) in a multi block continuation.
var (
	cdefChannel = bit.Indices(22, 33)
	cdefTxMHz   = bit.Indices(34, 43)
	cdefTxKHz   = bit.Indices(44, 56)
	cdefRxMHz   = bit.Indices(57, 66)
	cdefRxKHz   = bit.Indices(67, 79)
)

// absoluteChannel reads the channel frequencies from a continuation block. The kHz
// fields are in units of 125 Hz.
func absoluteChannel(buf *bit.Buffer, slot int) (identifier.Identifier, bool) {
	if buf.Size() < BlockDataBits || !buf.Outcome().Valid() {
		return identifier.Identifier{}, false
	}
	id := identifier.NewChannelNumber(Protocol, identifier.Any, uint16(buf.Int(cdefChannel)))
	id.Channel.Slot = slot
	id.Channel.Downlink = uint64(buf.Int(cdefTxMHz))*1000000 + uint64(buf.Int(cdefTxKHz))*125
	id.Channel.Uplink = uint64(buf.Int(cdefRxMHz))*1000000 + uint64(buf.Int(cdefRxKHz))*125
	id.Channel.Bandwidth = 12500
	return id, true
}

// EncodeAbsoluteChannel returns the 80 data bits of a continuation block carrying the
// frequencies of a channel.
func EncodeAbsoluteChannel(number uint16, downlink, uplink uint64) bit.Bits {
	buf := bit.NewBuffer(BlockDataBits)
	buf.Load(0, 1, 1)
	buf.Load(22, 12, uint64(number))
	buf.Load(34, 10, downlink/1000000)
	buf.Load(44, 13, downlink%1000000/125)
	buf.Load(57, 10, uplink/1000000)
	buf.Load(67, 13, uplink%1000000/125)
	return buf.Bits()
}

var (
	grantChannel   = bit.Indices(16, 27)
	grantSlot      = 28
	grantLateEntry = 29
	grantEmergency = 30
	grantOffset    = 31
)

// GrantAbsoluteChannel is the channel number announcing absolute frequencies in an
// appended block.
const GrantAbsoluteChannel = 0xfff

// Grant assigns a traffic channel and timeslot to a call.
type Grant struct {
	Addressed
	Channel   identifier.Identifier
	LateEntry bool
	Emergency bool
	Offset    bool
}

func newGrant(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &Grant{
		Addressed: newAddressed(h, ctx),
		LateEntry: buf.Flag(grantLateEntry),
		Emergency: buf.Flag(grantEmergency),
		Offset:    buf.Flag(grantOffset),
	}

	slot := 1
	if buf.Flag(grantSlot) {
		slot = 2
	}
	number := uint16(buf.Int(grantChannel))
	if id, ok := absoluteChannel(continuation(ctx), slot); ok && number == GrantAbsoluteChannel {
		m.Channel = id
	} else {
		m.Channel = identifier.NewChannelNumber(Protocol, identifier.Any, number)
		m.Channel.Channel.Slot = slot
	}
	return m
}

func continuation(ctx message.Context) *bit.Buffer {
	if ctx.Continuation == nil {
		return bit.NewBuffer(0)
	}
	return ctx.Continuation
}

// Group reports if the grant is for a talkgroup call.
func (m *Grant) Group() bool {
	switch m.Opcode {
	case TalkgroupVoiceGrant, BroadcastTalkgroupVoiceGrant, TalkgroupDataGrant:
		return true
	}
	return false
}

func (m *Grant) Identifiers() []identifier.Identifier {
	var to = radio(identifier.To, m.Target)
	if m.Group() {
		to = talkgroup(identifier.To, m.Target)
	}
	return []identifier.Identifier{m.Channel, to, radio(identifier.From, m.Source)}
}

func (m *Grant) String() string {
	s := describe(m.Slot, m.ColorCode, m)
	if m.Emergency {
		s += " emergency"
	}
	return s
}

var (
	preambleDataFollows = 16
	preambleGroup       = 17
	preambleBlocks      = bit.Indices(24, 31)
)

// PreambleBlock precedes data or signalling to wake up scanning radios.
type PreambleBlock struct {
	Addressed
	DataFollows bool
	Group       bool
	Blocks      uint8
}

func newPreamble(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &PreambleBlock{
		Addressed:   newAddressed(h, ctx),
		DataFollows: buf.Flag(preambleDataFollows),
		Group:       buf.Flag(preambleGroup),
		Blocks:      uint8(buf.Int(preambleBlocks)),
	}
}

func (m *PreambleBlock) Identifiers() []identifier.Identifier {
	var to = radio(identifier.To, m.Target)
	if m.Group {
		to = talkgroup(identifier.To, m.Target)
	}
	return []identifier.Identifier{to, radio(identifier.From, m.Source)}
}

func (m *PreambleBlock) String() string {
	var kind = "CSBK"
	if m.DataFollows {
		kind = "data"
	}
	return fmt.Sprintf("%s %s follows, %d blocks", describe(m.Slot, m.ColorCode, m), kind, m.Blocks)
}

var (
	capPlusRestChannel = bit.Indices(20, 23)
	capPlusChannelMask = bit.Indices(24, 31)
)

const (
	capPlusGroupOffset = 32
	capPlusMaxGroups   = 6
)

// CapacityPlusSiteStatusBlock lists the rest channel and the talkgroups active on the other
// channels of a Motorola Capacity Plus site.
type CapacityPlusSiteStatusBlock struct {
	ControlBlock
	RestChannel uint8
	// Groups maps logical channel numbers to the talkgroup active on them.
	Groups map[uint8]uint8
}

func newCapacityPlusSiteStatus(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &CapacityPlusSiteStatusBlock{
		ControlBlock: newControlBlock(h, ctx),
		RestChannel:  uint8(buf.Int(capPlusRestChannel)),
		Groups:       make(map[uint8]uint8),
	}
	var (
		mask = buf.Int(capPlusChannelMask)
		n    int
	)
	for i := 0; i < 8 && n < capPlusMaxGroups; i++ {
		if mask&(0x80>>uint(i)) == 0 {
			continue
		}
		offset := capPlusGroupOffset + n*8
		m.Groups[uint8(i+1)] = uint8(buf.Range(offset, offset+7))
		n++
	}
	return m
}

func (m *CapacityPlusSiteStatusBlock) Identifiers() []identifier.Identifier {
	var ids = []identifier.Identifier{identifier.NewChannelNumber(Protocol, identifier.Broadcast, uint16(m.RestChannel))}
	for i := uint8(1); i <= 8; i++ {
		if g, ok := m.Groups[i]; ok {
			ids = append(ids, identifier.NewChannelNumber(Protocol, identifier.Any, uint16(i)), talkgroup(identifier.To, uint32(g)))
		}
	}
	return ids
}

func (m *CapacityPlusSiteStatusBlock) String() string {
	return fmt.Sprintf("%s rest channel %d, %d active", describe(m.Slot, m.ColorCode, m), m.RestChannel, len(m.Groups))
}
