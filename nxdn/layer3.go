package nxdn

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Layer3Bits is the size of the longest layer 3 message (outbound CAC). Shorter
// messages are zero padded to it.
const Layer3Bits = 144

// Message types.
const (
	VCALL         uint8 = 0x01
	VCALL_IV      uint8 = 0x03
	VCALL_ASSGN   uint8 = 0x04
	TX_REL        uint8 = 0x08
	DCALL_ASSGN   uint8 = 0x0e
	IDLE          uint8 = 0x10
	DISC          uint8 = 0x11
	SITE_INFO     uint8 = 0x18
	SRV_INFO      uint8 = 0x19
	CCH_INFO      uint8 = 0x1a
	ADJ_SITE_INFO uint8 = 0x1b
	REG           uint8 = 0x20
	REG_C         uint8 = 0x22
	GRP_REG       uint8 = 0x24
)

var messageType = bit.Indices(2, 7)

// Type returns the message type of a layer 3 message.
func Type(buf *bit.Buffer) uint8 { return uint8(buf.Int(messageType)) }

var registry = message.NewRegistry[uint8](Protocol,
	message.Entry[uint8]{Code: VCALL, Name: "VCALL", New: newVoiceCall},
	message.Entry[uint8]{Code: VCALL_IV, Name: "VCALL_IV", New: newInitializationVector},
	message.Entry[uint8]{Code: VCALL_ASSGN, Name: "VCALL_ASSGN", New: newAssignment},
	message.Entry[uint8]{Code: TX_REL, Name: "TX_REL", New: newCall},
	message.Entry[uint8]{Code: DCALL_ASSGN, Name: "DCALL_ASSGN", New: newAssignment},
	message.Entry[uint8]{Code: IDLE, Name: "IDLE", New: newIdle},
	message.Entry[uint8]{Code: DISC, Name: "DISC", New: newDisconnect},
	message.Entry[uint8]{Code: SITE_INFO, Name: "SITE_INFO", New: newSiteInformation},
	message.Entry[uint8]{Code: SRV_INFO, Name: "SRV_INFO", New: newServiceInformation},
	message.Entry[uint8]{Code: CCH_INFO, Name: "CCH_INFO", New: newControlChannelInformation},
	message.Entry[uint8]{Code: ADJ_SITE_INFO, Name: "ADJ_SITE_INFO", New: newAdjacentSites},
	message.Entry[uint8]{Code: REG, Name: "REG", New: newRegistration},
	message.Entry[uint8]{Code: REG_C, Name: "REG_C", New: newRegistrationClear},
	message.Entry[uint8]{Code: GRP_REG, Name: "GRP_REG", New: newGroupRegistration},
)

// Registry returns the layer 3 message registry keyed by message type.
func Registry() *message.Registry[uint8] { return registry }

// DecodeLayer3 pads buf to Layer3Bits and decodes it. The outcome of buf is kept.
func DecodeLayer3(buf *bit.Buffer, ctx message.Context) message.Message {
	if buf.Size() < Layer3Bits {
		padded := bit.NewBuffer(Layer3Bits)
		padded.AppendBits(buf.Bits())
		padded.SetOutcome(buf.Outcome())
		buf = padded
	}
	return registry.Decode(Type(buf), buf, ctx)
}

// LocationID identifies a site. The category selects the split between system and
// site code.
type LocationID struct {
	Category uint8
	System   uint32
	Site     uint32
}

// Location categories.
const (
	CategoryGlobal   uint8 = 0
	CategoryLocal    uint8 = 1
	CategoryRegional uint8 = 2
)

func newLocationID(buf *bit.Buffer, offset int) LocationID {
	l := LocationID{Category: uint8(buf.Range(offset, offset+1))}
	var systemBits int
	switch l.Category {
	case CategoryLocal:
		systemBits = 17
	case CategoryRegional:
		systemBits = 14
	default:
		systemBits = 10
	}
	l.System = buf.Range(offset+2, offset+1+systemBits)
	l.Site = buf.Range(offset+2+systemBits, offset+23)
	return l
}

func (l LocationID) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.System, identifier.Broadcast, uint64(l.System)),
		identifier.New(Protocol, identifier.Site, identifier.Broadcast, uint64(l.Site)),
	}
}

func (l LocationID) String() string {
	return fmt.Sprintf("system %d site %d", l.System, l.Site)
}

// Layer3 is the common part of all layer 3 messages.
type Layer3 struct {
	message.Header
	RAN uint8
}

func newLayer3(h message.Header, ctx message.Context) Layer3 {
	return Layer3{Header: h, RAN: uint8(ctx.AccessCode)}
}

func (m *Layer3) String() string { return fmt.Sprintf("%s RAN %d", m.Header.String(), m.RAN) }

// Call types.
const (
	CallBroadcast    uint8 = 0
	CallConference   uint8 = 1
	CallUnspecified  uint8 = 2
	CallIndividual   uint8 = 4
	CallInterconnect uint8 = 6
	CallSpeedDial    uint8 = 7
)

var CallTypeName = map[uint8]string{
	CallBroadcast:    "broadcast",
	CallConference:   "conference",
	CallUnspecified:  "unspecified",
	CallIndividual:   "individual",
	CallInterconnect: "interconnect",
	CallSpeedDial:    "speed dial",
}

var (
	ccEmergency   = 8
	ccVisitor     = 9
	ccPriority    = bit.Indices(10, 11)
	callType      = bit.Indices(16, 18)
	callOption    = bit.Indices(19, 23)
	callSource    = bit.Indices(24, 39)
	callTarget    = bit.Indices(40, 55)
	callCipher    = bit.Indices(56, 57)
	callKeyID     = bit.Indices(58, 63)
	disconnCause  = bit.Indices(56, 63)
	assignTimer   = bit.Indices(56, 61)
	assignChannel = bit.Indices(62, 71)
	ivValue       = bit.Indices(8, 71)
)

// Call is a message between a source unit and a unit or group.
type Call struct {
	Layer3
	Emergency bool
	Visitor   bool
	Priority  uint8
	CallType  uint8
	Option    uint8
	Source    uint16
	Target    uint16
}

func parseCall(h message.Header, ctx message.Context) Call {
	buf := h.Buffer()
	return Call{
		Layer3:    newLayer3(h, ctx),
		Emergency: buf.Flag(ccEmergency),
		Visitor:   buf.Flag(ccVisitor),
		Priority:  uint8(buf.Int(ccPriority)),
		CallType:  uint8(buf.Int(callType)),
		Option:    uint8(buf.Int(callOption)),
		Source:    uint16(buf.Int(callSource)),
		Target:    uint16(buf.Int(callTarget)),
	}
}

func newCall(h message.Header, ctx message.Context) message.Message {
	m := parseCall(h, ctx)
	return &m
}

// Group reports if the target is a talkgroup.
func (m *Call) Group() bool {
	return m.CallType == CallBroadcast || m.CallType == CallConference
}

func (m *Call) Identifiers() []identifier.Identifier {
	kind := identifier.Radio
	if m.Group() {
		kind = identifier.Talkgroup
	}
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.Radio, identifier.From, uint64(m.Source)),
		identifier.New(Protocol, kind, identifier.To, uint64(m.Target)),
	}
}

func (m *Call) String() string {
	s := fmt.Sprintf("%s %s from %d to %d", m.Layer3.String(), CallTypeName[m.CallType], m.Source, m.Target)
	if m.Emergency {
		s += " emergency"
	}
	return s
}

// VoiceCall (VCALL) is sent during a voice call.
type VoiceCall struct {
	Call
	Cipher uint8
	KeyID  uint8
}

func newVoiceCall(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &VoiceCall{
		Call:   parseCall(h, ctx),
		Cipher: uint8(buf.Int(callCipher)),
		KeyID:  uint8(buf.Int(callKeyID)),
	}
}

// Encrypted reports if the call is ciphered.
func (m *VoiceCall) Encrypted() bool { return m.Cipher != 0 }

// InitializationVector (VCALL_IV) carries the cipher initialization vector.
type InitializationVector struct {
	Layer3
	IV uint64
}

func newInitializationVector(h message.Header, ctx message.Context) message.Message {
	return &InitializationVector{Layer3: newLayer3(h, ctx), IV: h.Buffer().Long(ivValue)}
}

func (m *InitializationVector) String() string {
	return fmt.Sprintf("%s IV %016X", m.Layer3.String(), m.IV)
}

// Assignment (VCALL_ASSGN, DCALL_ASSGN) sends the parties of a call to a traffic
// channel.
type Assignment struct {
	Call
	Timer   uint8
	Channel uint16
}

func newAssignment(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &Assignment{
		Call:    parseCall(h, ctx),
		Timer:   uint8(buf.Int(assignTimer)),
		Channel: uint16(buf.Int(assignChannel)),
	}
}

func (m *Assignment) Identifiers() []identifier.Identifier {
	return append(m.Call.Identifiers(), identifier.NewChannelNumber(Protocol, identifier.Any, m.Channel))
}

func (m *Assignment) String() string {
	return fmt.Sprintf("%s channel %d", m.Call.String(), m.Channel)
}

// Disconnect (DISC) ends a call.
type Disconnect struct {
	Call
	Cause uint8
}

func newDisconnect(h message.Header, ctx message.Context) message.Message {
	return &Disconnect{Call: parseCall(h, ctx), Cause: uint8(h.Buffer().Int(disconnCause))}
}

func (m *Disconnect) String() string {
	return fmt.Sprintf("%s cause %#02x", m.Call.String(), m.Cause)
}

// Idle (IDLE) fills an otherwise empty control channel slot.
type Idle struct {
	Layer3
}

func newIdle(h message.Header, ctx message.Context) message.Message {
	return &Idle{Layer3: newLayer3(h, ctx)}
}

var (
	siteLocation     = 8
	siteService      = bit.Indices(48, 63)
	siteRestriction  = bit.Indices(64, 87)
	siteAccess       = bit.Indices(88, 111)
	siteVersion      = bit.Indices(112, 119)
	siteAdjacent     = bit.Indices(120, 123)
	siteControl1     = bit.Indices(124, 133)
	siteControl2     = bit.Indices(134, 143)
	srvService       = bit.Indices(32, 47)
	srvRestriction   = bit.Indices(48, 71)
	cchFlags         = bit.Indices(32, 37)
	cchControl1      = bit.Indices(38, 47)
	cchControl2      = bit.Indices(54, 63)
	registerOption   = bit.Indices(8, 15)
	registerLocation = 16
	registerUnit     = bit.Indices(40, 55)
	registerGroup    = bit.Indices(56, 71)
	registerCause    = bit.Indices(72, 79)
	clearUnit        = bit.Indices(16, 31)
	clearCause       = bit.Indices(32, 39)
	groupRegUnit     = bit.Indices(16, 31)
	groupRegGroup    = bit.Indices(32, 47)
	groupRegCause    = bit.Indices(48, 55)
)

// SiteInformation (SITE_INFO) describes the site and its control channels.
type SiteInformation struct {
	Layer3
	Location       LocationID
	Service        uint16
	Restriction    uint32
	Access         uint32
	Version        uint8
	AdjacentSites  uint8
	ControlChannel [2]uint16
}

func newSiteInformation(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &SiteInformation{
		Layer3:         newLayer3(h, ctx),
		Location:       newLocationID(buf, siteLocation),
		Service:        uint16(buf.Int(siteService)),
		Restriction:    buf.Int(siteRestriction),
		Access:         buf.Int(siteAccess),
		Version:        uint8(buf.Int(siteVersion)),
		AdjacentSites:  uint8(buf.Int(siteAdjacent)),
		ControlChannel: [2]uint16{uint16(buf.Int(siteControl1)), uint16(buf.Int(siteControl2))},
	}
}

func (m *SiteInformation) Identifiers() []identifier.Identifier {
	ids := m.Location.Identifiers()
	for _, ch := range m.ControlChannel {
		if ch != 0 {
			ids = append(ids, identifier.NewChannelNumber(Protocol, identifier.Broadcast, ch))
		}
	}
	return ids
}

func (m *SiteInformation) String() string {
	return fmt.Sprintf("%s %s control %d/%d", m.Layer3.String(), m.Location, m.ControlChannel[0], m.ControlChannel[1])
}

// ServiceInformation (SRV_INFO) lists the services of the site.
type ServiceInformation struct {
	Layer3
	Location    LocationID
	Service     uint16
	Restriction uint32
}

func newServiceInformation(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &ServiceInformation{
		Layer3:      newLayer3(h, ctx),
		Location:    newLocationID(buf, siteLocation),
		Service:     uint16(buf.Int(srvService)),
		Restriction: buf.Int(srvRestriction),
	}
}

func (m *ServiceInformation) Identifiers() []identifier.Identifier { return m.Location.Identifiers() }

func (m *ServiceInformation) String() string {
	return fmt.Sprintf("%s %s service %04X", m.Layer3.String(), m.Location, m.Service)
}

// ControlChannelInformation (CCH_INFO) announces the control channels.
type ControlChannelInformation struct {
	Layer3
	Location       LocationID
	Flags          uint8
	ControlChannel [2]uint16
}

func newControlChannelInformation(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &ControlChannelInformation{
		Layer3:         newLayer3(h, ctx),
		Location:       newLocationID(buf, siteLocation),
		Flags:          uint8(buf.Int(cchFlags)),
		ControlChannel: [2]uint16{uint16(buf.Int(cchControl1)), uint16(buf.Int(cchControl2))},
	}
}

func (m *ControlChannelInformation) Identifiers() []identifier.Identifier {
	ids := m.Location.Identifiers()
	for _, ch := range m.ControlChannel {
		if ch != 0 {
			ids = append(ids, identifier.NewChannelNumber(Protocol, identifier.Broadcast, ch))
		}
	}
	return ids
}

func (m *ControlChannelInformation) String() string { return message.Describe(m) }

// Neighbor is an adjacent site.
type Neighbor struct {
	ID       uint8
	Location LocationID
	Channel  uint16
}

// AdjacentSites (ADJ_SITE_INFO) lists up to three neighbor sites. A neighbor ID of
// zero ends the list.
type AdjacentSites struct {
	Layer3
	Neighbors []Neighbor
}

func newAdjacentSites(h message.Header, ctx message.Context) message.Message {
	var (
		buf = h.Buffer()
		m   = &AdjacentSites{Layer3: newLayer3(h, ctx)}
	)
	for offset := 8; offset+40 <= buf.Size(); offset += 40 {
		n := Neighbor{
			ID:       uint8(buf.Range(offset+26, offset+29)),
			Location: newLocationID(buf, offset),
			Channel:  uint16(buf.Range(offset+30, offset+39)),
		}
		if n.ID == 0 {
			break
		}
		m.Neighbors = append(m.Neighbors, n)
	}
	return m
}

func (m *AdjacentSites) Identifiers() []identifier.Identifier {
	var ids []identifier.Identifier
	for _, n := range m.Neighbors {
		ids = append(ids,
			identifier.New(Protocol, identifier.Site, identifier.Any, uint64(n.Location.Site)),
			identifier.NewChannelNumber(Protocol, identifier.Any, n.Channel))
	}
	return ids
}

func (m *AdjacentSites) String() string {
	s := m.Layer3.String()
	for _, n := range m.Neighbors {
		s += fmt.Sprintf(" [%d %s channel %d]", n.ID, n.Location, n.Channel)
	}
	return s
}

// Registration (REG) answers a unit registration.
type Registration struct {
	Layer3
	Option   uint8
	Location LocationID
	Unit     uint16
	Group    uint16
	Cause    uint8
}

func newRegistration(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &Registration{
		Layer3:   newLayer3(h, ctx),
		Option:   uint8(buf.Int(registerOption)),
		Location: newLocationID(buf, registerLocation),
		Unit:     uint16(buf.Int(registerUnit)),
		Group:    uint16(buf.Int(registerGroup)),
		Cause:    uint8(buf.Int(registerCause)),
	}
}

func (m *Registration) Identifiers() []identifier.Identifier {
	return append(m.Location.Identifiers(),
		identifier.New(Protocol, identifier.Radio, identifier.To, uint64(m.Unit)),
		identifier.New(Protocol, identifier.Talkgroup, identifier.Any, uint64(m.Group)))
}

func (m *Registration) String() string {
	return fmt.Sprintf("%s unit %d group %d cause %#02x", m.Layer3.String(), m.Unit, m.Group, m.Cause)
}

// RegistrationClear (REG_C) answers a deregistration.
type RegistrationClear struct {
	Layer3
	Option uint8
	Unit   uint16
	Cause  uint8
}

func newRegistrationClear(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &RegistrationClear{
		Layer3: newLayer3(h, ctx),
		Option: uint8(buf.Int(registerOption)),
		Unit:   uint16(buf.Int(clearUnit)),
		Cause:  uint8(buf.Int(clearCause)),
	}
}

func (m *RegistrationClear) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{identifier.New(Protocol, identifier.Radio, identifier.To, uint64(m.Unit))}
}

func (m *RegistrationClear) String() string { return message.Describe(m) }

// GroupRegistration (GRP_REG) answers a group affiliation.
type GroupRegistration struct {
	Layer3
	Option uint8
	Unit   uint16
	Group  uint16
	Cause  uint8
}

func newGroupRegistration(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GroupRegistration{
		Layer3: newLayer3(h, ctx),
		Option: uint8(buf.Int(registerOption)),
		Unit:   uint16(buf.Int(groupRegUnit)),
		Group:  uint16(buf.Int(groupRegGroup)),
		Cause:  uint8(buf.Int(groupRegCause)),
	}
}

func (m *GroupRegistration) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(Protocol, identifier.Radio, identifier.To, uint64(m.Unit)),
		identifier.New(Protocol, identifier.Talkgroup, identifier.Any, uint64(m.Group)),
	}
}

func (m *GroupRegistration) String() string {
	return fmt.Sprintf("%s unit %d group %d cause %#02x", m.Layer3.String(), m.Unit, m.Group, m.Cause)
}
