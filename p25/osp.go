package p25

import (
	"fmt"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Outbound signalling packet opcodes, standard vendor.
const (
	GroupVoiceChannelGrant                 uint8 = 0x00 // GRP_V_CH_GRANT
	GroupVoiceChannelGrantUpdate           uint8 = 0x02 // GRP_V_CH_GRANT_UPDT
	GroupVoiceChannelGrantUpdateExplicit   uint8 = 0x03 // GRP_V_CH_GRANT_UPDT_EXP
	UnitToUnitVoiceChannelGrant            uint8 = 0x04 // UU_V_CH_GRANT
	UnitToUnitAnswerRequest                uint8 = 0x05 // UU_ANS_REQ
	TelephoneInterconnectVoiceChannelGrant uint8 = 0x08 // TELE_INT_CH_GRANT
	SNDCPDataChannelGrant                  uint8 = 0x14 // SN-DATA_CHN_GNT
	SNDCPDataPageRequest                   uint8 = 0x15 // SN-DATA_PAGE_REQ
	StatusUpdate                           uint8 = 0x18 // STS_UPDT
	StatusQuery                            uint8 = 0x1a // STS_Q
	MessageUpdate                          uint8 = 0x1c // MSG_UPDT
	CallAlert                              uint8 = 0x1f // CALL_ALRT
	AcknowledgeResponse                    uint8 = 0x20 // ACK_RSP_FNE
	QueuedResponse                         uint8 = 0x21 // QUE_RSP
	ExtendedFunctionCommand                uint8 = 0x24 // EXT_FNCT_CMD
	DenyResponse                           uint8 = 0x27 // DENY_RSP
	GroupAffiliationResponse               uint8 = 0x28 // GRP_AFF_RSP
	GroupAffiliationQuery                  uint8 = 0x2a // GRP_AFF_Q
	LocationRegistrationResponse           uint8 = 0x2b // LOC_REG_RSP
	UnitRegistrationResponse               uint8 = 0x2c // U_REG_RSP
	UnitRegistrationCommand                uint8 = 0x2d // U_REG_CMD
	DeregistrationAcknowledge              uint8 = 0x2f // U_DE_REG_ACK
	IdentifierUpdateTDMA                   uint8 = 0x33 // IDEN_UP_TDMA
	IdentifierUpdateVUHF                   uint8 = 0x34 // IDEN_UP_VU
	TimeDateAnnouncement                   uint8 = 0x35 // TIME_DATE_ANN
	SecondaryControlChannel                uint8 = 0x39 // SCCB
	RFSSStatusBroadcast                    uint8 = 0x3a // RFSS_STS_BCST
	NetworkStatusBroadcast                 uint8 = 0x3b // NET_STS_BCST
	AdjacentStatusBroadcast                uint8 = 0x3c // ADJ_STS_BCST
	IdentifierUpdate                       uint8 = 0x3d // IDEN_UP
)

func registerStandard(b *message.Builder[uint16]) {
	b.Add(Key(Standard, GroupVoiceChannelGrant), "GRP_V_CH_GRANT", newGroupVoiceGrant).
		Add(Key(Standard, GroupVoiceChannelGrantUpdate), "GRP_V_CH_GRANT_UPDT", newGroupVoiceGrantUpdate).
		Add(Key(Standard, GroupVoiceChannelGrantUpdateExplicit), "GRP_V_CH_GRANT_UPDT_EXP", newGroupVoiceGrantUpdateExplicit).
		Add(Key(Standard, UnitToUnitVoiceChannelGrant), "UU_V_CH_GRANT", newUnitToUnitVoiceGrant).
		Add(Key(Standard, UnitToUnitAnswerRequest), "UU_ANS_REQ", newUnitToUnitAnswerRequest).
		Add(Key(Standard, TelephoneInterconnectVoiceChannelGrant), "TELE_INT_CH_GRANT", newTelephoneInterconnectGrant).
		Add(Key(Standard, SNDCPDataChannelGrant), "SN-DATA_CHN_GNT", newSNDCPDataChannelGrant).
		Add(Key(Standard, SNDCPDataPageRequest), "SN-DATA_PAGE_REQ", newSNDCPDataPageRequest).
		Add(Key(Standard, StatusUpdate), "STS_UPDT", newStatusUpdate).
		Add(Key(Standard, StatusQuery), "STS_Q", newUnitPair).
		Add(Key(Standard, MessageUpdate), "MSG_UPDT", newMessageUpdate).
		Add(Key(Standard, CallAlert), "CALL_ALRT", newUnitPair).
		Add(Key(Standard, AcknowledgeResponse), "ACK_RSP_FNE", newAcknowledgeResponse).
		Add(Key(Standard, QueuedResponse), "QUE_RSP", newResponse).
		Add(Key(Standard, ExtendedFunctionCommand), "EXT_FNCT_CMD", newExtendedFunctionCommand).
		Add(Key(Standard, DenyResponse), "DENY_RSP", newResponse).
		Add(Key(Standard, GroupAffiliationResponse), "GRP_AFF_RSP", newGroupAffiliationResponse).
		Add(Key(Standard, GroupAffiliationQuery), "GRP_AFF_Q", newUnitPair).
		Add(Key(Standard, LocationRegistrationResponse), "LOC_REG_RSP", newLocationRegistrationResponse).
		Add(Key(Standard, UnitRegistrationResponse), "U_REG_RSP", newUnitRegistrationResponse).
		Add(Key(Standard, UnitRegistrationCommand), "U_REG_CMD", newUnitPair).
		Add(Key(Standard, DeregistrationAcknowledge), "U_DE_REG_ACK", newDeregistrationAcknowledge).
		Add(Key(Standard, IdentifierUpdateTDMA), "IDEN_UP_TDMA", newIdentifierUpdateTDMA).
		Add(Key(Standard, IdentifierUpdateVUHF), "IDEN_UP_VU", newIdentifierUpdateVUHF).
		Add(Key(Standard, TimeDateAnnouncement), "TIME_DATE_ANN", newTimeDateAnnouncement).
		Add(Key(Standard, SecondaryControlChannel), "SCCB", newSecondaryControlChannel).
		Add(Key(Standard, RFSSStatusBroadcast), "RFSS_STS_BCST", newRFSSStatus).
		Add(Key(Standard, NetworkStatusBroadcast), "NET_STS_BCST", newNetworkStatus).
		Add(Key(Standard, AdjacentStatusBroadcast), "ADJ_STS_BCST", newAdjacentStatus).
		Add(Key(Standard, IdentifierUpdate), "IDEN_UP", newIdentifierUpdate)
}

// channel resolves a 16 bit channel field (4 bit band identifier, 12 bit number).
func channel(ctx message.Context, role identifier.Role, v uint32) identifier.Identifier {
	return identifier.NewChannel(Protocol, role, ctx.BandPlan, uint8(v>>12&0xf), uint16(v&0xfff))
}

func radio(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(Protocol, identifier.Radio, role, uint64(v))
}

func talkgroup(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(Protocol, identifier.Talkgroup, role, uint64(v))
}

func describe(b Block, m message.Message) string {
	return fmt.Sprintf("NAC %03X %s", b.NAC, message.Describe(m))
}

var (
	grantServiceOptions = bit.Indices(16, 23)
	grantChannel        = bit.Indices(24, 39)
	grantGroup          = bit.Indices(40, 55)
	grantSource         = bit.Indices(56, 79)
)

// GroupVoiceGrant assigns a traffic channel to a talkgroup call.
type GroupVoiceGrant struct {
	Block
	Options ServiceOptions
	Channel identifier.Identifier
	Group   uint32
	Source  uint32
}

func newGroupVoiceGrant(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GroupVoiceGrant{
		Block:   newBlock(h, ctx),
		Options: ServiceOptions(buf.Int(grantServiceOptions)),
		Channel: channel(ctx, identifier.Any, buf.Int(grantChannel)),
		Group:   buf.Int(grantGroup),
		Source:  buf.Int(grantSource),
	}
}

func (m *GroupVoiceGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Channel, talkgroup(identifier.To, m.Group), radio(identifier.From, m.Source)}
}

func (m *GroupVoiceGrant) String() string { return describe(m.Block, m) }

var (
	grantUpdateChannelA = bit.Indices(16, 31)
	grantUpdateGroupA   = bit.Indices(32, 47)
	grantUpdateChannelB = bit.Indices(48, 63)
	grantUpdateGroupB   = bit.Indices(64, 79)
)

// GroupVoiceGrantUpdate announces up to two ongoing talkgroup calls.
type GroupVoiceGrantUpdate struct {
	Block
	ChannelA identifier.Identifier
	GroupA   uint32
	ChannelB identifier.Identifier
	GroupB   uint32
}

func newGroupVoiceGrantUpdate(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GroupVoiceGrantUpdate{
		Block:    newBlock(h, ctx),
		ChannelA: channel(ctx, identifier.Any, buf.Int(grantUpdateChannelA)),
		GroupA:   buf.Int(grantUpdateGroupA),
		ChannelB: channel(ctx, identifier.Any, buf.Int(grantUpdateChannelB)),
		GroupB:   buf.Int(grantUpdateGroupB),
	}
}

func (m *GroupVoiceGrantUpdate) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{m.ChannelA, talkgroup(identifier.To, m.GroupA)}
	// The second pair repeats the first when only one call is active.
	if m.GroupB != m.GroupA || m.ChannelB.Value != m.ChannelA.Value {
		ids = append(ids, m.ChannelB, talkgroup(identifier.To, m.GroupB))
	}
	return ids
}

func (m *GroupVoiceGrantUpdate) String() string { return describe(m.Block, m) }

var (
	explicitServiceOptions = bit.Indices(16, 23)
	explicitTransmit       = bit.Indices(32, 47)
	explicitReceive        = bit.Indices(48, 63)
	explicitGroup          = bit.Indices(64, 79)
)

// GroupVoiceGrantUpdateExplicit announces a talkgroup call on an explicit transmit and
// receive channel pair.
type GroupVoiceGrantUpdateExplicit struct {
	Block
	Options  ServiceOptions
	Transmit identifier.Identifier
	Receive  identifier.Identifier
	Group    uint32
}

func newGroupVoiceGrantUpdateExplicit(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GroupVoiceGrantUpdateExplicit{
		Block:    newBlock(h, ctx),
		Options:  ServiceOptions(buf.Int(explicitServiceOptions)),
		Transmit: channel(ctx, identifier.Any, buf.Int(explicitTransmit)),
		Receive:  channel(ctx, identifier.Any, buf.Int(explicitReceive)),
		Group:    buf.Int(explicitGroup),
	}
}

func (m *GroupVoiceGrantUpdateExplicit) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Transmit, m.Receive, talkgroup(identifier.To, m.Group)}
}

func (m *GroupVoiceGrantUpdateExplicit) String() string { return describe(m.Block, m) }

var (
	uuGrantChannel = bit.Indices(16, 31)
	uuGrantTarget  = bit.Indices(32, 55)
	uuGrantSource  = bit.Indices(56, 79)
)

// UnitToUnitVoiceGrant assigns a traffic channel to a private call.
type UnitToUnitVoiceGrant struct {
	Block
	Channel identifier.Identifier
	Target  uint32
	Source  uint32
}

func newUnitToUnitVoiceGrant(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &UnitToUnitVoiceGrant{
		Block:   newBlock(h, ctx),
		Channel: channel(ctx, identifier.Any, buf.Int(uuGrantChannel)),
		Target:  buf.Int(uuGrantTarget),
		Source:  buf.Int(uuGrantSource),
	}
}

func (m *UnitToUnitVoiceGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Channel, radio(identifier.To, m.Target), radio(identifier.From, m.Source)}
}

func (m *UnitToUnitVoiceGrant) String() string { return describe(m.Block, m) }

var (
	pairTarget = bit.Indices(32, 55)
	pairSource = bit.Indices(56, 79)
)

// UnitPair is a message addressed from one radio to another without further
// arguments: status query, call alert, affiliation query and registration command.
type UnitPair struct {
	Block
	Target uint32
	Source uint32
}

func newUnitPair(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &UnitPair{
		Block:  newBlock(h, ctx),
		Target: buf.Int(pairTarget),
		Source: buf.Int(pairSource),
	}
}

func (m *UnitPair) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{radio(identifier.To, m.Target), radio(identifier.From, m.Source)}
}

func (m *UnitPair) String() string { return describe(m.Block, m) }

var answerServiceOptions = bit.Indices(16, 23)

// UnitToUnitAnswerRequestMessage asks the target to accept a private call.
type UnitToUnitAnswerRequestMessage struct {
	UnitPair
	Options ServiceOptions
}

func newUnitToUnitAnswerRequest(h message.Header, ctx message.Context) message.Message {
	return &UnitToUnitAnswerRequestMessage{
		UnitPair: *newUnitPair(h, ctx).(*UnitPair),
		Options:  ServiceOptions(h.Buffer().Int(answerServiceOptions)),
	}
}

func (m *UnitToUnitAnswerRequestMessage) String() string { return describe(m.Block, m) }

var (
	teleServiceOptions = bit.Indices(16, 23)
	teleChannel        = bit.Indices(24, 39)
	teleCallTimer      = bit.Indices(40, 55)
	teleTarget         = bit.Indices(56, 79)
)

// TelephoneInterconnectGrant assigns a traffic channel to a telephone call.
type TelephoneInterconnectGrant struct {
	Block
	Options   ServiceOptions
	Channel   identifier.Identifier
	CallTimer time.Duration
	Target    uint32
}

func newTelephoneInterconnectGrant(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &TelephoneInterconnectGrant{
		Block:     newBlock(h, ctx),
		Options:   ServiceOptions(buf.Int(teleServiceOptions)),
		Channel:   channel(ctx, identifier.Any, buf.Int(teleChannel)),
		CallTimer: time.Duration(buf.Int(teleCallTimer)) * 100 * time.Millisecond,
		Target:    buf.Int(teleTarget),
	}
}

func (m *TelephoneInterconnectGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Channel, radio(identifier.To, m.Target)}
}

func (m *TelephoneInterconnectGrant) String() string { return describe(m.Block, m) }

var (
	dataGrantServiceOptions = bit.Indices(16, 23)
	dataGrantTransmit       = bit.Indices(24, 39)
	dataGrantReceive        = bit.Indices(40, 55)
	dataGrantTarget         = bit.Indices(56, 79)
)

// SNDCPDataChannelGrantMessage assigns a packet data channel.
type SNDCPDataChannelGrantMessage struct {
	Block
	Options  ServiceOptions
	Transmit identifier.Identifier
	Receive  identifier.Identifier
	Target   uint32
}

func newSNDCPDataChannelGrant(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &SNDCPDataChannelGrantMessage{
		Block:    newBlock(h, ctx),
		Options:  ServiceOptions(buf.Int(dataGrantServiceOptions)),
		Transmit: channel(ctx, identifier.Any, buf.Int(dataGrantTransmit)),
		Receive:  channel(ctx, identifier.Any, buf.Int(dataGrantReceive)),
		Target:   buf.Int(dataGrantTarget),
	}
}

func (m *SNDCPDataChannelGrantMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{m.Transmit, m.Receive, radio(identifier.To, m.Target)}
}

func (m *SNDCPDataChannelGrantMessage) String() string { return describe(m.Block, m) }

var (
	dataPageServiceOptions = bit.Indices(16, 23)
	dataPageAccessControl  = bit.Indices(40, 55)
	dataPageTarget         = bit.Indices(56, 79)
)

// SNDCPDataPageRequestMessage pages a radio for packet data.
type SNDCPDataPageRequestMessage struct {
	Block
	Options       ServiceOptions
	AccessControl uint16
	Target        uint32
}

func newSNDCPDataPageRequest(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &SNDCPDataPageRequestMessage{
		Block:         newBlock(h, ctx),
		Options:       ServiceOptions(buf.Int(dataPageServiceOptions)),
		AccessControl: uint16(buf.Int(dataPageAccessControl)),
		Target:        buf.Int(dataPageTarget),
	}
}

func (m *SNDCPDataPageRequestMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{radio(identifier.To, m.Target)}
}

func (m *SNDCPDataPageRequestMessage) String() string { return describe(m.Block, m) }

var (
	statusUnit = bit.Indices(16, 23)
	statusUser = bit.Indices(24, 31)
)

// StatusUpdateMessage carries a unit and user status value.
type StatusUpdateMessage struct {
	UnitPair
	UnitStatus uint8
	UserStatus uint8
}

func newStatusUpdate(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &StatusUpdateMessage{
		UnitPair:   *newUnitPair(h, ctx).(*UnitPair),
		UnitStatus: uint8(buf.Int(statusUnit)),
		UserStatus: uint8(buf.Int(statusUser)),
	}
}

func (m *StatusUpdateMessage) Identifiers() []identifier.Identifier {
	return append(m.UnitPair.Identifiers(),
		identifier.New(Protocol, identifier.Status, identifier.Any, uint64(m.UnitStatus)<<8|uint64(m.UserStatus)))
}

func (m *StatusUpdateMessage) String() string { return describe(m.Block, m) }

var messageUpdateMessage = bit.Indices(16, 31)

// MessageUpdateMessage carries a short pre-defined message number.
type MessageUpdateMessage struct {
	UnitPair
	Message uint16
}

func newMessageUpdate(h message.Header, ctx message.Context) message.Message {
	return &MessageUpdateMessage{
		UnitPair: *newUnitPair(h, ctx).(*UnitPair),
		Message:  uint16(h.Buffer().Int(messageUpdateMessage)),
	}
}

func (m *MessageUpdateMessage) Identifiers() []identifier.Identifier {
	return append(m.UnitPair.Identifiers(),
		identifier.New(Protocol, identifier.Status, identifier.Any, uint64(m.Message)))
}

func (m *MessageUpdateMessage) String() string { return describe(m.Block, m) }

var (
	ackAdditionalValid = 16
	ackExtended        = 17
	ackServiceType     = bit.Indices(18, 23)
	ackSource          = bit.Indices(32, 55)
	ackWACN            = bit.Indices(24, 43)
	ackSystem          = bit.Indices(44, 55)
	ackTarget          = bit.Indices(56, 79)
)

// AcknowledgeResponseMessage acknowledges a service request on behalf of the target.
type AcknowledgeResponseMessage struct {
	Block
	ServiceType uint8
	Target      uint32
	// Source is only set when the additional information carries a unit address.
	Source uint32
	WACN   uint32
	System uint16
}

func newAcknowledgeResponse(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &AcknowledgeResponseMessage{
		Block:       newBlock(h, ctx),
		ServiceType: uint8(buf.Int(ackServiceType)),
		Target:      buf.Int(ackTarget),
	}
	switch {
	case buf.Flag(ackAdditionalValid) && buf.Flag(ackExtended):
		m.WACN = buf.Int(ackWACN)
		m.System = uint16(buf.Int(ackSystem))
	case buf.Flag(ackAdditionalValid):
		m.Source = buf.Int(ackSource)
	}
	return m
}

func (m *AcknowledgeResponseMessage) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{radio(identifier.To, m.Target)}
	if m.Source != 0 {
		ids = append(ids, radio(identifier.From, m.Source))
	}
	if m.WACN != 0 {
		ids = append(ids,
			identifier.New(Protocol, identifier.Network, identifier.Any, uint64(m.WACN)),
			identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)))
	}
	return ids
}

func (m *AcknowledgeResponseMessage) String() string { return describe(m.Block, m) }

var (
	responseAdditionalValid = 16
	responseServiceType     = bit.Indices(18, 23)
	responseReason          = bit.Indices(24, 31)
	responseAdditional      = bit.Indices(32, 55)
	responseTarget          = bit.Indices(56, 79)
)

// Response is a deny or queued response to a service request.
type Response struct {
	Block
	ServiceType uint8
	Reason      Reason
	// Additional is the source address or group of the request, if valid.
	Additional uint32
	Target     uint32
}

func newResponse(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &Response{
		Block:       newBlock(h, ctx),
		ServiceType: uint8(buf.Int(responseServiceType)),
		Reason:      Reason(buf.Int(responseReason)),
		Target:      buf.Int(responseTarget),
	}
	if buf.Flag(responseAdditionalValid) {
		m.Additional = buf.Int(responseAdditional)
	}
	return m
}

func (m *Response) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{radio(identifier.To, m.Target)}
	if m.Additional != 0 {
		ids = append(ids, radio(identifier.From, m.Additional))
	}
	return ids
}

func (m *Response) String() string {
	return fmt.Sprintf("%s service %#02x reason %#02x (%s)", describe(m.Block, m), m.ServiceType, uint8(m.Reason), m.Reason)
}

var (
	extendedFunction = bit.Indices(16, 31)
	extendedArgument = bit.Indices(32, 55)
	extendedTarget   = bit.Indices(56, 79)
)

// ExtendedFunctionCommandMessage carries radio check, inhibit and similar commands.
type ExtendedFunctionCommandMessage struct {
	Block
	Function uint16
	Argument uint32
	Target   uint32
}

func newExtendedFunctionCommand(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &ExtendedFunctionCommandMessage{
		Block:    newBlock(h, ctx),
		Function: uint16(buf.Int(extendedFunction)),
		Argument: buf.Int(extendedArgument),
		Target:   buf.Int(extendedTarget),
	}
}

func (m *ExtendedFunctionCommandMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{radio(identifier.To, m.Target), radio(identifier.From, m.Argument)}
}

func (m *ExtendedFunctionCommandMessage) String() string {
	return fmt.Sprintf("%s function %#04x", describe(m.Block, m), m.Function)
}

var (
	affiliationGlobal    = 16
	affiliationValue     = bit.Indices(22, 23)
	affiliationAnnounced = bit.Indices(24, 39)
	affiliationGroup     = bit.Indices(40, 55)
	affiliationTarget    = bit.Indices(56, 79)
)

// Affiliation and registration response values.
const (
	ResponseAccept uint8 = iota
	ResponseFail
	ResponseDeny
	ResponseRefused
)

var ResponseName = map[uint8]string{
	ResponseAccept:  "accept",
	ResponseFail:    "fail",
	ResponseDeny:    "deny",
	ResponseRefused: "refused",
}

// GroupAffiliationResponseMessage answers a talkgroup affiliation request.
type GroupAffiliationResponseMessage struct {
	Block
	Global    bool
	Response  uint8
	Announced uint32
	Group     uint32
	Target    uint32
}

func newGroupAffiliationResponse(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GroupAffiliationResponseMessage{
		Block:     newBlock(h, ctx),
		Global:    buf.Flag(affiliationGlobal),
		Response:  uint8(buf.Int(affiliationValue)),
		Announced: buf.Int(affiliationAnnounced),
		Group:     buf.Int(affiliationGroup),
		Target:    buf.Int(affiliationTarget),
	}
}

func (m *GroupAffiliationResponseMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{talkgroup(identifier.Any, m.Group), radio(identifier.To, m.Target)}
}

func (m *GroupAffiliationResponseMessage) String() string {
	return fmt.Sprintf("%s %s", describe(m.Block, m), ResponseName[m.Response])
}

var (
	locationResponse = bit.Indices(22, 23)
	locationGroup    = bit.Indices(24, 39)
	locationRFSS     = bit.Indices(40, 47)
	locationSite     = bit.Indices(48, 55)
	locationTarget   = bit.Indices(56, 79)
)

// LocationRegistrationResponseMessage answers a location registration.
type LocationRegistrationResponseMessage struct {
	Block
	Response uint8
	Group    uint32
	RFSS     uint8
	Site     uint8
	Target   uint32
}

func newLocationRegistrationResponse(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &LocationRegistrationResponseMessage{
		Block:    newBlock(h, ctx),
		Response: uint8(buf.Int(locationResponse)),
		Group:    buf.Int(locationGroup),
		RFSS:     uint8(buf.Int(locationRFSS)),
		Site:     uint8(buf.Int(locationSite)),
		Target:   buf.Int(locationTarget),
	}
}

func (m *LocationRegistrationResponseMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		talkgroup(identifier.Any, m.Group),
		identifier.New(Protocol, identifier.RFSS, identifier.Any, uint64(m.RFSS)),
		identifier.New(Protocol, identifier.Site, identifier.Any, uint64(m.Site)),
		radio(identifier.To, m.Target),
	}
}

func (m *LocationRegistrationResponseMessage) String() string {
	return fmt.Sprintf("%s %s", describe(m.Block, m), ResponseName[m.Response])
}

var (
	registrationResponse = bit.Indices(18, 19)
	registrationSystem   = bit.Indices(20, 31)
	registrationSourceID = bit.Indices(32, 55)
	registrationAddress  = bit.Indices(56, 79)
)

// UnitRegistrationResponseMessage answers a unit registration.
type UnitRegistrationResponseMessage struct {
	Block
	Response uint8
	System   uint16
	SourceID uint32
	Address  uint32
}

func newUnitRegistrationResponse(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &UnitRegistrationResponseMessage{
		Block:    newBlock(h, ctx),
		Response: uint8(buf.Int(registrationResponse)),
		System:   uint16(buf.Int(registrationSystem)),
		SourceID: buf.Int(registrationSourceID),
		Address:  buf.Int(registrationAddress),
	}
}

func (m *UnitRegistrationResponseMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		radio(identifier.To, m.SourceID),
		radio(identifier.Any, m.Address),
	}
}

func (m *UnitRegistrationResponseMessage) String() string {
	return fmt.Sprintf("%s %s", describe(m.Block, m), ResponseName[m.Response])
}

var (
	deregistrationWACN   = bit.Indices(24, 43)
	deregistrationSystem = bit.Indices(44, 55)
	deregistrationSource = bit.Indices(56, 79)
)

// DeregistrationAcknowledgeMessage confirms a radio left the system.
type DeregistrationAcknowledgeMessage struct {
	Block
	WACN   uint32
	System uint16
	Source uint32
}

func newDeregistrationAcknowledge(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &DeregistrationAcknowledgeMessage{
		Block:  newBlock(h, ctx),
		WACN:   buf.Int(deregistrationWACN),
		System: uint16(buf.Int(deregistrationSystem)),
		Source: buf.Int(deregistrationSource),
	}
}

func (m *DeregistrationAcknowledgeMessage) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.Network, identifier.Any, uint64(m.WACN)),
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		radio(identifier.To, m.Source),
	}
}

func (m *DeregistrationAcknowledgeMessage) String() string { return describe(m.Block, m) }

var (
	timeDateValid   = 16
	timeTimeValid   = 17
	timeOffsetValid = 18
	timeOffsetSign  = 19
	timeOffset      = bit.Indices(20, 30)
	timeMonth       = bit.Indices(32, 35)
	timeDay         = bit.Indices(36, 40)
	timeYear        = bit.Indices(41, 53)
	timeHours       = bit.Indices(56, 60)
	timeMinutes     = bit.Indices(61, 66)
	timeSeconds     = bit.Indices(67, 72)
)

// TimeDateAnnouncementMessage broadcasts the system time.
type TimeDateAnnouncementMessage struct {
	Block
	Time time.Time
	// Offset of local time to UTC, only valid if OffsetValid.
	Offset      time.Duration
	OffsetValid bool
}

func newTimeDateAnnouncement(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &TimeDateAnnouncementMessage{
		Block:       newBlock(h, ctx),
		OffsetValid: buf.Flag(timeOffsetValid),
	}
	year, month, day := 1, time.January, 1
	var hour, minute, seconds int
	if buf.Flag(timeDateValid) {
		year = int(buf.Int(timeYear))
		month = time.Month(buf.Int(timeMonth))
		day = int(buf.Int(timeDay))
	}
	if buf.Flag(timeTimeValid) {
		hour = int(buf.Int(timeHours))
		minute = int(buf.Int(timeMinutes))
		seconds = int(buf.Int(timeSeconds))
	}
	m.Time = time.Date(year, month, day, hour, minute, seconds, 0, time.UTC)
	if m.OffsetValid {
		// Offset is in units of 30 minutes.
		m.Offset = time.Duration(buf.Int(timeOffset)) * 30 * time.Minute
		if buf.Flag(timeOffsetSign) {
			m.Offset = -m.Offset
		}
	}
	return m
}

func (m *TimeDateAnnouncementMessage) Identifiers() []identifier.Identifier { return nil }

func (m *TimeDateAnnouncementMessage) String() string {
	return fmt.Sprintf("%s %s", describe(m.Block, m), m.Time.Format(time.RFC3339))
}

var (
	sccRFSS     = bit.Indices(16, 23)
	sccSite     = bit.Indices(24, 31)
	sccChannelA = bit.Indices(32, 47)
	sccClassA   = bit.Indices(48, 55)
	sccChannelB = bit.Indices(56, 71)
	sccClassB   = bit.Indices(72, 79)
)

// SecondaryControlChannelMessage announces up to two secondary control channels.
type SecondaryControlChannelMessage struct {
	Block
	RFSS     uint8
	Site     uint8
	ChannelA identifier.Identifier
	ClassA   uint8
	ChannelB identifier.Identifier
	ClassB   uint8
}

func newSecondaryControlChannel(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &SecondaryControlChannelMessage{
		Block:    newBlock(h, ctx),
		RFSS:     uint8(buf.Int(sccRFSS)),
		Site:     uint8(buf.Int(sccSite)),
		ChannelA: channel(ctx, identifier.Any, buf.Int(sccChannelA)),
		ClassA:   uint8(buf.Int(sccClassA)),
		ChannelB: channel(ctx, identifier.Any, buf.Int(sccChannelB)),
		ClassB:   uint8(buf.Int(sccClassB)),
	}
}

func (m *SecondaryControlChannelMessage) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{
		identifier.New(Protocol, identifier.RFSS, identifier.Any, uint64(m.RFSS)),
		identifier.New(Protocol, identifier.Site, identifier.Any, uint64(m.Site)),
		m.ChannelA,
	}
	if m.ChannelB.Value != m.ChannelA.Value {
		ids = append(ids, m.ChannelB)
	}
	return ids
}

func (m *SecondaryControlChannelMessage) String() string { return describe(m.Block, m) }

var (
	statusLRA     = bit.Indices(16, 23)
	statusSystem  = bit.Indices(28, 39)
	statusRFSS    = bit.Indices(40, 47)
	statusSite    = bit.Indices(48, 55)
	statusChannel = bit.Indices(56, 71)
	statusClass   = bit.Indices(72, 79)
)

// RFSSStatus announces the identity of the current site.
type RFSSStatus struct {
	Block
	LRA     uint8
	System  uint16
	RFSS    uint8
	Site    uint8
	Channel identifier.Identifier
	Class   uint8
}

func newRFSSStatus(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &RFSSStatus{
		Block:   newBlock(h, ctx),
		LRA:     uint8(buf.Int(statusLRA)),
		System:  uint16(buf.Int(statusSystem)),
		RFSS:    uint8(buf.Int(statusRFSS)),
		Site:    uint8(buf.Int(statusSite)),
		Channel: channel(ctx, identifier.Any, buf.Int(statusChannel)),
		Class:   uint8(buf.Int(statusClass)),
	}
}

func (m *RFSSStatus) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		identifier.New(Protocol, identifier.RFSS, identifier.Any, uint64(m.RFSS)),
		identifier.New(Protocol, identifier.Site, identifier.Any, uint64(m.Site)),
		m.Channel,
	}
}

func (m *RFSSStatus) String() string { return describe(m.Block, m) }

var adjacentFlags = bit.Indices(24, 27)

// AdjacentStatus announces a neighbouring site.
type AdjacentStatus struct {
	RFSSStatus
	Conventional bool
	Failure      bool
	InfoValid    bool
	Networked    bool
}

func newAdjacentStatus(h message.Header, ctx message.Context) message.Message {
	flags := h.Buffer().Int(adjacentFlags)
	return &AdjacentStatus{
		RFSSStatus:   *newRFSSStatus(h, ctx).(*RFSSStatus),
		Conventional: flags&0x8 != 0,
		Failure:      flags&0x4 != 0,
		InfoValid:    flags&0x2 != 0,
		Networked:    flags&0x1 != 0,
	}
}

func (m *AdjacentStatus) String() string { return describe(m.Block, m) }

var (
	networkLRA     = bit.Indices(16, 23)
	networkWACN    = bit.Indices(24, 43)
	networkSystem  = bit.Indices(44, 55)
	networkChannel = bit.Indices(56, 71)
	networkClass   = bit.Indices(72, 79)
)

// NetworkStatus announces the wide area communications network and system.
type NetworkStatus struct {
	Block
	LRA     uint8
	WACN    uint32
	System  uint16
	Channel identifier.Identifier
	Class   uint8
}

func newNetworkStatus(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &NetworkStatus{
		Block:   newBlock(h, ctx),
		LRA:     uint8(buf.Int(networkLRA)),
		WACN:    buf.Int(networkWACN),
		System:  uint16(buf.Int(networkSystem)),
		Channel: channel(ctx, identifier.Any, buf.Int(networkChannel)),
		Class:   uint8(buf.Int(networkClass)),
	}
}

func (m *NetworkStatus) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.Network, identifier.Any, uint64(m.WACN)),
		identifier.New(Protocol, identifier.System, identifier.Any, uint64(m.System)),
		m.Channel,
	}
}

func (m *NetworkStatus) String() string { return describe(m.Block, m) }
