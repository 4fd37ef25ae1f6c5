package lc

import (
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/dmr/lc/serviceoptions"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

var (
	userTarget = bit.Indices(24, 47)
	userSource = bit.Indices(48, 71)
)

// VoiceChannelUserPDU Conforms to ETSI TS 102-361-2 7.1.1.(1 and 2). It announces the
// talkgroup or unit addressed by the call and the transmitting unit.
type VoiceChannelUserPDU struct {
	LC
	ServiceOptions serviceoptions.ServiceOptions
	Group          bool
	Target         uint32
	Source         uint32
}

func newVoiceChannelUser(h message.Header, ctx message.Context) message.Message {
	var (
		buf = h.Buffer()
		l   = newLC(h, ctx)
	)
	return &VoiceChannelUserPDU{
		LC:             l,
		ServiceOptions: serviceoptions.Parse(l.ServiceByte),
		Group:          l.Opcode == GroupVoiceChannelUser,
		Target:         buf.Int(userTarget),
		Source:         buf.Int(userSource),
	}
}

func (m *VoiceChannelUserPDU) Identifiers() []identifier.Identifier {
	var to = radio(identifier.To, m.Target)
	if m.Group {
		to = talkgroup(identifier.To, m.Target)
	}
	return []identifier.Identifier{to, radio(identifier.From, m.Source)}
}

func (m *VoiceChannelUserPDU) String() string {
	return describe(m.LC, m) + " " + m.ServiceOptions.String()
}

// EncodeVoiceChannelUser returns the 72 link control bits of a voice channel user.
func EncodeVoiceChannelUser(group bool, options serviceoptions.ServiceOptions, target, source uint32) bit.Bits {
	buf := bit.NewBuffer(Bits)
	if !group {
		buf.Load(2, 6, uint64(UnitToUnitVoiceChannelUser))
	}
	buf.Load(16, 8, uint64(options.Byte()))
	buf.Load(24, 24, uint64(target))
	buf.Load(48, 24, uint64(source))
	return buf.Bits()
}
