package mdc1200

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Opcodes.
const (
	OpEmergency     uint8 = 0x00
	OpPTTID         uint8 = 0x01
	OpRadioCheckAck uint8 = 0x03
	OpUninhibit     uint8 = 0x0b
	OpRemoteMonitor uint8 = 0x11
	OpEmergencyAck  uint8 = 0x20
	OpAcknowledge   uint8 = 0x23
	OpRadioInhibit  uint8 = 0x2b
	OpSelectiveCall uint8 = 0x35
	OpStatus        uint8 = 0x46
	OpMessage       uint8 = 0x47
	OpRadioCheck    uint8 = 0x63
)

// Arguments.
const (
	ArgPostID    uint8 = 0x00
	ArgPreID     uint8 = 0x80
	ArgCallAlert uint8 = 0x89
)

var registry = message.NewBuilder[uint8](Protocol).
	Add(OpEmergency, "EMERGENCY", newFromUnit).
	Add(OpPTTID, "PTT ID", newPTTID).
	Add(OpRadioCheckAck, "RADIO CHECK ACK", newFromUnit).
	Add(OpUninhibit, "UNINHIBIT", newToUnit).
	Add(OpRemoteMonitor, "REMOTE MONITOR", newToUnit).
	Add(OpEmergencyAck, "EMERGENCY ACK", newToUnit).
	Add(OpAcknowledge, "ACKNOWLEDGE", newFromUnit).
	Add(OpRadioInhibit, "RADIO INHIBIT", newToUnit).
	Add(OpSelectiveCall, "SELECTIVE CALL", newSelectiveCall).
	Add(OpStatus, "STATUS", newStatus).
	Add(OpMessage, "MESSAGE", newStatus).
	Add(OpRadioCheck, "RADIO CHECK", newToUnit).
	Build()

// Registry returns the message registry keyed by opcode.
func Registry() *message.Registry[uint8] { return registry }

// Packet is a single block MDC-1200 packet. Role tells if the unit ID is the sender
// or the addressed radio.
type Packet struct {
	message.Header
	Op   uint8
	Arg  uint8
	Unit uint16
	Role identifier.Role
}

func parsePacket(h message.Header, role identifier.Role) Packet {
	buf := h.Buffer()
	return Packet{
		Header: h,
		Op:     Op(buf),
		Arg:    Arg(buf),
		Unit:   Unit(buf),
		Role:   role,
	}
}

func newFromUnit(h message.Header, _ message.Context) message.Message {
	m := parsePacket(h, identifier.From)
	return &m
}

func newToUnit(h message.Header, _ message.Context) message.Message {
	m := parsePacket(h, identifier.To)
	return &m
}

func (m *Packet) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{identifier.New(Protocol, identifier.Radio, m.Role, uint64(m.Unit))}
}

func (m *Packet) String() string {
	return fmt.Sprintf("%s unit %04X arg %02X", m.Header.String(), m.Unit, m.Arg)
}

// PTTID identifies the transmitting unit at the start or end of a transmission.
type PTTID struct {
	Packet
}

func newPTTID(h message.Header, _ message.Context) message.Message {
	return &PTTID{Packet: parsePacket(h, identifier.From)}
}

// Pre reports if the ID was sent at the start of the transmission.
func (m *PTTID) Pre() bool { return m.Arg&ArgPreID != 0 }

func (m *PTTID) String() string {
	when := "post"
	if m.Pre() {
		when = "pre"
	}
	return fmt.Sprintf("%s %s unit %04X", m.Header.String(), when, m.Unit)
}

// Status carries a status or canned message number from a unit.
type Status struct {
	Packet
}

func newStatus(h message.Header, _ message.Context) message.Message {
	return &Status{Packet: parsePacket(h, identifier.From)}
}

func (m *Status) Identifiers() []identifier.Identifier {
	return append(m.Packet.Identifiers(), identifier.New(Protocol, identifier.Status, identifier.From, uint64(m.Arg)))
}

func (m *Status) String() string {
	return fmt.Sprintf("%s unit %04X status %d", m.Header.String(), m.Unit, m.Arg)
}

// SelectiveCall is a double packet. The first block addresses the called unit, the
// second carries the calling unit.
type SelectiveCall struct {
	Packet
	Extra [2]uint8
	From  uint16
	// Complete is false when the second block is missing.
	Complete bool
}

func newSelectiveCall(h message.Header, ctx message.Context) message.Message {
	m := &SelectiveCall{Packet: parsePacket(h, identifier.To)}
	if cont := ctx.Continuation; cont != nil && cont.Size() >= DataBits {
		m.Complete = true
		for i := range m.Extra {
			m.Extra[i] = Octet(cont, i)
		}
		m.From = Unit(cont)
	}
	return m
}

// CallAlert reports if the call is a page rather than a voice call request.
func (m *SelectiveCall) CallAlert() bool { return m.Arg == ArgCallAlert }

func (m *SelectiveCall) Identifiers() []identifier.Identifier {
	ids := m.Packet.Identifiers()
	if m.Complete {
		ids = append(ids, identifier.New(Protocol, identifier.Radio, identifier.From, uint64(m.From)))
	}
	return ids
}

func (m *SelectiveCall) String() string {
	kind := "call"
	if m.CallAlert() {
		kind = "call alert"
	}
	if !m.Complete {
		return fmt.Sprintf("%s %s to %04X", m.Header.String(), kind, m.Unit)
	}
	return fmt.Sprintf("%s %s from %04X to %04X", m.Header.String(), kind, m.From, m.Unit)
}

// decode builds the message for a data block and optional second block.
func decode(buf, cont *bit.Buffer, ctx message.Context) message.Message {
	ctx.Continuation = cont
	return registry.Decode(Op(buf), buf, ctx)
}
