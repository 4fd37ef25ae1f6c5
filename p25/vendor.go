package p25

import (
	"fmt"
	"strings"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Motorola opcodes
const (
	MotorolaPatchGroupAdd                 uint8 = 0x00
	MotorolaPatchGroupDelete              uint8 = 0x01
	MotorolaPatchGroupChannelGrant        uint8 = 0x02
	MotorolaPatchGroupChannelGrantUpdate  uint8 = 0x03
	MotorolaTrafficChannelID              uint8 = 0x05
	MotorolaDenyResponse                  uint8 = 0x07
	MotorolaSystemLoading                 uint8 = 0x09
	MotorolaBaseStationID                 uint8 = 0x0b
	MotorolaControlChannelPlannedShutdown uint8 = 0x0e
)

// Harris opcodes
const (
	HarrisTDMASyncBroadcast uint8 = 0x30
)

func registerMotorola(b *message.Builder[uint16]) {
	b.Add(Key(Motorola, MotorolaPatchGroupAdd), "MOT_PATCH_GRP_ADD", newPatchGroup).
		Add(Key(Motorola, MotorolaPatchGroupDelete), "MOT_PATCH_GRP_DEL", newPatchGroup).
		Add(Key(Motorola, MotorolaPatchGroupChannelGrant), "MOT_PATCH_GRP_CH_GRANT", newPatchGroupGrant).
		Add(Key(Motorola, MotorolaPatchGroupChannelGrantUpdate), "MOT_PATCH_GRP_CH_GRANT_UPDT", newPatchGroupGrantUpdate).
		Add(Key(Motorola, MotorolaTrafficChannelID), "MOT_TRAFFIC_CH_ID", newStationID).
		Add(Key(Motorola, MotorolaDenyResponse), "MOT_DENY_RSP", newResponse).
		Add(Key(Motorola, MotorolaSystemLoading), "MOT_SYS_LOADING", newSystemLoading).
		Add(Key(Motorola, MotorolaBaseStationID), "MOT_BSI", newStationID).
		Add(Key(Motorola, MotorolaControlChannelPlannedShutdown), "MOT_CCH_PLANNED_SHUTDOWN", newVendorBlock)
}

func registerHarris(b *message.Builder[uint16]) {
	b.Add(Key(Harris, HarrisTDMASyncBroadcast), "HARRIS_TDMA_SYNC_BCST", newVendorBlock)
}

var (
	patchSuperGroup = bit.Indices(16, 31)
	patchGroups     = [][]int{bit.Indices(32, 47), bit.Indices(48, 63), bit.Indices(64, 79)}
)

// PatchGroup adds or removes up to three talkgroups to a super group.
type PatchGroup struct {
	Block
	SuperGroup uint32
	Groups     []uint32
}

func newPatchGroup(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &PatchGroup{
		Block:      newBlock(h, ctx),
		SuperGroup: buf.Int(patchSuperGroup),
	}
	for _, field := range patchGroups {
		// Unused slots repeat the super group or are zero.
		if g := buf.Int(field); g != 0 && g != m.SuperGroup {
			m.Groups = append(m.Groups, g)
		}
	}
	return m
}

func (m *PatchGroup) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{identifier.New(Protocol, identifier.Patch, identifier.Any, uint64(m.SuperGroup))}
	for _, g := range m.Groups {
		ids = append(ids, talkgroup(identifier.Any, g))
	}
	return ids
}

func (m *PatchGroup) String() string { return describe(m.Block, m) }

// PatchGroupGrant assigns a traffic channel to a super group call.
type PatchGroupGrant struct {
	GroupVoiceGrant
}

func newPatchGroupGrant(h message.Header, ctx message.Context) message.Message {
	return &PatchGroupGrant{*newGroupVoiceGrant(h, ctx).(*GroupVoiceGrant)}
}

func (m *PatchGroupGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		m.Channel,
		identifier.New(Protocol, identifier.Patch, identifier.To, uint64(m.Group)),
		radio(identifier.From, m.Source),
	}
}

func (m *PatchGroupGrant) String() string { return describe(m.Block, m) }

// PatchGroupGrantUpdate announces ongoing super group calls.
type PatchGroupGrantUpdate struct {
	GroupVoiceGrantUpdate
}

func newPatchGroupGrantUpdate(h message.Header, ctx message.Context) message.Message {
	return &PatchGroupGrantUpdate{*newGroupVoiceGrantUpdate(h, ctx).(*GroupVoiceGrantUpdate)}
}

func (m *PatchGroupGrantUpdate) Identifiers() []identifier.Identifier {
	ids := m.GroupVoiceGrantUpdate.Identifiers()
	for i := range ids {
		if ids[i].Kind == identifier.Talkgroup {
			ids[i].Kind = identifier.Patch
		}
	}
	return ids
}

func (m *PatchGroupGrantUpdate) String() string { return describe(m.Block, m) }

var (
	stationCallsign = bit.Indices(16, 63)
	stationChannel  = bit.Indices(64, 79)
)

// StationID carries the station callsign as eight 6-bit characters and the channel.
type StationID struct {
	Block
	Callsign string
	Channel  identifier.Identifier
}

// callsignChar maps the 6-bit character set: space, A-Z, 0-9.
func callsignChar(v uint32) byte {
	switch {
	case v >= 1 && v <= 26:
		return byte('A' + v - 1)
	case v >= 27 && v <= 36:
		return byte('0' + v - 27)
	}
	return ' '
}

func newStationID(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	var s strings.Builder
	for i := 0; i < len(stationCallsign); i += 6 {
		s.WriteByte(callsignChar(buf.Int(stationCallsign[i : i+6])))
	}
	return &StationID{
		Block:    newBlock(h, ctx),
		Callsign: strings.TrimSpace(s.String()),
		Channel:  channel(ctx, identifier.Any, buf.Int(stationChannel)),
	}
}

func (m *StationID) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{identifier.NewText(Protocol, identifier.Alias, identifier.Any, m.Callsign), m.Channel}
}

func (m *StationID) String() string { return describe(m.Block, m) }

var systemLoading = bit.Indices(16, 23)

// SystemLoading reports the control channel load.
type SystemLoading struct {
	Block
	Loading uint8
}

func newSystemLoading(h message.Header, ctx message.Context) message.Message {
	return &SystemLoading{Block: newBlock(h, ctx), Loading: uint8(h.Buffer().Int(systemLoading))}
}

func (m *SystemLoading) Identifiers() []identifier.Identifier { return nil }

func (m *SystemLoading) String() string {
	return fmt.Sprintf("%s loading %d", describe(m.Block, m), m.Loading)
}

var vendorArguments = bit.Indices(16, 79)

// VendorBlock is a recognised vendor message without decoded arguments.
type VendorBlock struct {
	Block
	Arguments uint64
}

func newVendorBlock(h message.Header, ctx message.Context) message.Message {
	return &VendorBlock{Block: newBlock(h, ctx), Arguments: h.Buffer().Long(vendorArguments)}
}

func (m *VendorBlock) Identifiers() []identifier.Identifier { return nil }

func (m *VendorBlock) String() string {
	return fmt.Sprintf("%s arguments %016X", describe(m.Block, m), m.Arguments)
}
