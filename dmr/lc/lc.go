// Package lc decodes DMR full link control, as carried in voice LC headers,
// terminators and the embedded signalling of voice bursts.
package lc

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/fec"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

const (
	// Bits of link control without checksum.
	Bits = 72
	// FullBits of a BPTC decoded LC with its RS(12, 9) checksum.
	FullBits = 96
)

// Full Link Control Opcode
const (
	GroupVoiceChannelUser      uint8 = 0x00 // B000000
	UnitToUnitVoiceChannelUser uint8 = 0x03 // B000011
	TalkerAliasHeader          uint8 = 0x04 // B000100
	TalkerAliasBlk1            uint8 = 0x05 // B000101
	TalkerAliasBlk2            uint8 = 0x06 // B000110
	TalkerAliasBlk3            uint8 = 0x07 // B000111
	GpsInfo                    uint8 = 0x08 // B001000
)

// Feature set IDs
const (
	StandardFID uint8 = 0x00
	MotorolaFID uint8 = 0x10
)

// RS(12, 9) checksum masks, see DMR AI. spec. page 143.
const (
	VoiceLCHeaderMask uint32 = 0x969696
	TerminatorMask    uint32 = 0x999999
)

var (
	lcProtect        = 0
	lcOpcode         = bit.Indices(2, 7)
	lcFeatureSet     = bit.Indices(8, 15)
	lcServiceOptions = bit.Indices(16, 23)
)

// Key combines feature set and opcode into the registry type code.
func Key(fid, flco uint8) uint16 {
	return uint16(fid)<<8 | uint16(flco&0x3f)
}

var registry = message.NewRegistry(lmr.DMR,
	message.Entry[uint16]{Code: Key(StandardFID, GroupVoiceChannelUser), Name: "GRP_V_CH_USR", New: newVoiceChannelUser},
	message.Entry[uint16]{Code: Key(StandardFID, UnitToUnitVoiceChannelUser), Name: "UU_V_CH_USR", New: newVoiceChannelUser},
	message.Entry[uint16]{Code: Key(StandardFID, TalkerAliasHeader), Name: "TA_HDR", New: newTalkerAliasHeader},
	message.Entry[uint16]{Code: Key(StandardFID, TalkerAliasBlk1), Name: "TA_BLK1", New: newTalkerAliasBlock},
	message.Entry[uint16]{Code: Key(StandardFID, TalkerAliasBlk2), Name: "TA_BLK2", New: newTalkerAliasBlock},
	message.Entry[uint16]{Code: Key(StandardFID, TalkerAliasBlk3), Name: "TA_BLK3", New: newTalkerAliasBlock},
	message.Entry[uint16]{Code: Key(StandardFID, GpsInfo), Name: "GPS_INFO", New: newGpsInfo},
	message.Entry[uint16]{Code: Key(MotorolaFID, GroupVoiceChannelUser), Name: "MOT_GRP_V_CH_USR", New: newVoiceChannelUser},
	message.Entry[uint16]{Code: Key(MotorolaFID, UnitToUnitVoiceChannelUser), Name: "MOT_UU_V_CH_USR", New: newVoiceChannelUser},
)

// Registry returns the link control registry keyed by Key.
func Registry() *message.Registry[uint16] { return registry }

// Decode dispatches 72 link control bits. Link control with the protect flag set is
// encrypted and returned as Unknown.
func Decode(buf *bit.Buffer, ctx message.Context) message.Message {
	code := Key(uint8(buf.Int(lcFeatureSet)), uint8(buf.Int(lcOpcode)))
	if buf.Flag(lcProtect) {
		return message.NewUnknown(lmr.DMR, uint32(code), buf, ctx.Timestamp)
	}
	return registry.Decode(code, buf, ctx)
}

// DecodeFull removes the checksum mask, repairs the LC with RS(12, 9) and decodes it.
// The outcome of data, usually the BPTC outcome, is merged into the result.
func DecodeFull(data *bit.Buffer, mask uint32, ctx message.Context) message.Message {
	var b = data.Bytes()
	b[9] ^= uint8(mask >> 16)
	b[10] ^= uint8(mask >> 8)
	b[11] ^= uint8(mask)

	o := fec.RS_12_9_Decode(b)
	buf := bit.NewBufferFromBytes(b[:9])
	buf.SetOutcome(data.Outcome().Merge(o))
	return Decode(buf, ctx)
}

// EncodeFull appends the masked RS(12, 9) checksum to 72 link control bits.
func EncodeFull(lc bit.Bits, mask uint32) bit.Bits {
	var in = append(bit.Bits(nil), lc[:Bits]...)
	data := in.Bytes()
	sum := fec.RS_12_9_CalcChecksum(data)
	data = append(data,
		sum[0]^uint8(mask>>16),
		sum[1]^uint8(mask>>8),
		sum[2]^uint8(mask))
	return bit.NewBits(data)
}

// LC carries the fields common to all link control messages.
type LC struct {
	message.Header
	Slot        int
	ColorCode   uint8
	Opcode      uint8
	FeatureSet  uint8
	ServiceByte uint8
}

func newLC(h message.Header, ctx message.Context) LC {
	buf := h.Buffer()
	return LC{
		Header:      h,
		Slot:        ctx.Slot,
		ColorCode:   uint8(ctx.AccessCode),
		Opcode:      uint8(buf.Int(lcOpcode)),
		FeatureSet:  uint8(buf.Int(lcFeatureSet)),
		ServiceByte: uint8(buf.Int(lcServiceOptions)),
	}
}

func describe(l LC, m message.Message) string {
	if l.Slot > 0 {
		return fmt.Sprintf("TS%d %s", l.Slot, message.Describe(m))
	}
	return message.Describe(m)
}

func radio(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(lmr.DMR, identifier.Radio, role, uint64(v))
}

func talkgroup(role identifier.Role, v uint32) identifier.Identifier {
	return identifier.New(lmr.DMR, identifier.Talkgroup, role, uint64(v))
}
