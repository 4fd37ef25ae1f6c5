package p25

import (
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// PatternName is the framer pattern name of the P25 frame sync.
const PatternName = "p25"

// Decoder turns P25 frames into messages. It owns the band plan of its channel and
// tracks calls to select the sync tolerance. It is not safe for concurrent use.
type Decoder struct {
	plan   *identifier.BandPlan
	inCall bool
}

// NewDecoder returns a decoder updating plan, or a fresh plan if plan is nil.
func NewDecoder(plan *identifier.BandPlan) *Decoder {
	if plan == nil {
		plan = identifier.NewBandPlan()
	}
	return &Decoder{plan: plan}
}

// BandPlan returns the band plan learned from identifier updates.
func (d *Decoder) BandPlan() *identifier.BandPlan { return d.plan }

// InCall reports if the last frame belonged to a voice call.
func (d *Decoder) InCall() bool { return d.inCall }

// Tolerance returns the sync tolerance to use for the next frame.
func (d *Decoder) Tolerance() int {
	if d.inCall {
		return SyncToleranceInCall
	}
	return SyncTolerance
}

// Pattern returns the framer pattern. Frames start with the sync and NID and are
// extended by FrameLength once the DUID is known.
func (d *Decoder) Pattern() *framer.Pattern {
	return &framer.Pattern{
		Name:      PatternName,
		Protocol:  Protocol,
		Value:     SyncPattern,
		Width:     SyncBits,
		Tolerance: SyncTolerance,
		Length:    RawLength(HeaderBits),
		Extend:    FrameLength,
	}
}

// FrameLength returns the raw length of a frame given the bits received so far. TSBK
// frames stop after the last block flag or a block that fails its CRC, PDU frames
// carry the announced number of data blocks. Other data units end after the NID.
func FrameLength(raw *bit.Buffer) int {
	data := Strip(raw)
	nid := DecodeNID(data)
	if !nid.Outcome.Valid() {
		return raw.Size()
	}

	switch nid.DUID {
	case TSBK:
		for n := 1; n <= MaxTSBKBlocks; n++ {
			end := HeaderBits + n*BlockBits
			if data.Size() < end {
				return RawLength(end)
			}
			buf := DecodeTSBK(data.Slice(end-BlockBits, end).Bits())
			if LastBlock(buf) || !buf.Outcome().Valid() {
				return RawLength(end)
			}
		}
		return RawLength(HeaderBits + MaxTSBKBlocks*BlockBits)

	case PDU:
		end := HeaderBits + BlockBits
		if data.Size() < end {
			return RawLength(end)
		}
		header := PDUHeader(data.Slice(HeaderBits, end).Bits())
		if !header.Outcome().Valid() {
			return RawLength(end)
		}
		return RawLength(end + BlocksToFollow(header)*BlockBits)
	}

	return raw.Size()
}

// Decode returns the messages carried by a frame: one per TSBK, one per PDU, or a
// data unit message for voice and terminator frames. A frame with a failed NID
// yields a single invalid Unknown message.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	data := Strip(frame.Buffer)
	nid := DecodeNID(data)

	nidBuf := data.Slice(SyncBits, HeaderBits)
	nidBuf.SetOutcome(nid.Outcome)
	ctx := message.Context{
		BandPlan:   d.plan,
		AccessCode: uint32(nid.NAC),
		Timestamp:  time.Now(),
	}
	if !nid.Outcome.Valid() {
		return []message.Message{message.NewUnknown(Protocol, uint32(nid.DUID), nidBuf, ctx.Timestamp)}
	}

	d.inCall = nid.DUID.Voice()
	switch nid.DUID {
	case TSBK:
		return d.decodeTSBK(data, ctx)
	case PDU:
		return d.decodePDU(data, ctx)
	default:
		return []message.Message{unitRegistry.Decode(uint8(nid.DUID), nidBuf, ctx)}
	}
}

func (d *Decoder) decodeTSBK(data *bit.Buffer, ctx message.Context) []message.Message {
	var msgs []message.Message
	for n := 1; n <= MaxTSBKBlocks; n++ {
		end := HeaderBits + n*BlockBits
		if data.Size() < end {
			break
		}
		buf := DecodeTSBK(data.Slice(end-BlockBits, end).Bits())
		m := tsbkRegistry.Decode(TSBKKey(buf), buf, ctx)
		// Later blocks in the same frame may reference the band just announced.
		if u, ok := m.(BandUpdater); ok && m.Valid() {
			d.plan.Update(u.Band())
		}
		msgs = append(msgs, m)
		if LastBlock(buf) || !buf.Outcome().Valid() {
			break
		}
	}
	return msgs
}

func (d *Decoder) decodePDU(data *bit.Buffer, ctx message.Context) []message.Message {
	end := HeaderBits + BlockBits
	if data.Size() < end {
		return nil
	}
	header := PDUHeader(data.Slice(HeaderBits, end).Bits())

	var cont *bit.Buffer
	if want := BlocksToFollow(header); want > 0 && header.Outcome().Valid() {
		var blocks []bit.Bits
		for i := 0; i < want && data.Size() >= end+(i+1)*BlockBits; i++ {
			start := end + i*BlockBits
			blocks = append(blocks, data.Slice(start, start+BlockBits).Bits())
		}
		cont = DecodeData(blocks, header.Flag(pduConfirmed), want)
		header.SetOutcome(header.Outcome().Merge(cont.Outcome()))
		ctx.Continuation = cont
	}

	if uint8(header.Int(pduFormat)) == FormatAMBTC {
		return []message.Message{ambtcRegistry.Decode(uint8(header.Int(pduOpcode)), header, ctx)}
	}
	return []message.Message{NewPacketData(header, cont, ctx)}
}
