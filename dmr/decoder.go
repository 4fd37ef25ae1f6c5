package dmr

import (
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/bptc"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/dmr/lc"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

var log = logging.MustGetLogger("lmr/dmr")

const (
	// SlotPeriod is the distance in bits between the starts of two bursts in the
	// same timeslot.
	SlotPeriod = 2 * (CACHBits + BurstBits)
	// MaxLost is the number of unrecognised bursts after which a base station carrier
	// is no longer followed.
	MaxLost = 2
	// VoiceBursts in a superframe, A to F.
	VoiceBursts = 6
	// MaxMBCBlocks is the maximum number of continuation blocks after an MBC header.
	MaxMBCBlocks = 3
)

// PatternName returns the framer pattern name of a sync pattern.
func PatternName(p SyncPattern) string { return "dmr " + p.String() }

type slotState struct {
	embedded   *Embedded
	alias      lc.Alias
	call       Call
	colorCode  uint8
	inVoice    bool
	voiceFrame int
	superframe int

	packet *Packet

	mbc        *bit.Buffer
	mbcFirst   *bit.Buffer
	mbcOutcome crc.Outcome
	mbcBlocks  int
}

func (st *slotState) startCall(call Call) {
	if call.Source != st.call.Source || call.Target != st.call.Target {
		st.alias.Reset()
		st.superframe = 0
	}
	call.Encrypted = call.Encrypted || st.call.Encrypted
	st.call = call
}

func (st *slotState) endCall() {
	st.inVoice = false
	st.voiceFrame = 0
	st.superframe = 0
	st.call = Call{}
	st.embedded.Reset()
	st.alias.Reset()
}

// Decoder turns DMR frames into messages. It tracks voice calls, packet data and
// multi block control per timeslot. It is not safe for concurrent use.
type Decoder struct {
	// slots is indexed by timeslot, slot 0 collects bursts of unknown timeslot.
	slots [3]*slotState
	last  int
	lost  int
	next  int
}

func NewDecoder() *Decoder {
	d := &Decoder{}
	for i := range d.slots {
		d.slots[i] = &slotState{embedded: NewEmbedded()}
	}
	return d
}

func (d *Decoder) state(slot int) *slotState {
	if slot < 1 || slot > 2 {
		slot = 0
	}
	return d.slots[slot]
}

// InCall reports if a voice call is in progress on the timeslot.
func (d *Decoder) InCall(slot int) bool { return d.state(slot).inVoice }

// Call returns the call state of the timeslot.
func (d *Decoder) Call(slot int) Call { return d.state(slot).call }

// Patterns returns a framer pattern per sync word. Base station frames start with
// the CACH and are followed burst after burst while they are recognised. Mobile
// station voice is followed to the next burst of the same timeslot.
func (d *Decoder) Patterns() []*framer.Pattern {
	var patterns []*framer.Pattern
	for _, sp := range SyncPatterns {
		p := &framer.Pattern{
			Name:      PatternName(sp),
			Protocol:  Protocol,
			Value:     sp.Value(),
			Width:     SignalBits,
			Tolerance: SyncTolerance,
			Lead:      PayloadPartBits,
			Length:    BurstBits,
			Follow:    d.follow,
		}
		if sp.BaseStation() {
			p.Lead += CACHBits
			p.Length += CACHBits
		}
		patterns = append(patterns, p)
	}
	return patterns
}

func (d *Decoder) follow(frame *bit.Buffer, followed int) int {
	return d.next
}

func syncPattern(p *framer.Pattern) SyncPattern {
	if p != nil {
		for _, sp := range SyncPatterns {
			if sp.Value() == p.Value {
				return sp
			}
		}
	}
	return SyncPatternUnknown
}

// Decode returns the messages carried by a frame. The burst is the tail of the frame;
// frames of base station patterns carry the CACH before it.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	d.next = 0

	raw := frame.Buffer.Bits()
	if len(raw) < BurstBits {
		return nil
	}
	b, err := NewBurst(raw[len(raw)-BurstBits:])
	if err != nil {
		return nil
	}

	var (
		sp   = syncPattern(frame.Pattern)
		slot int
	)
	switch {
	case sp.BaseStation() && len(raw) >= CACHBits+BurstBits:
		tact := DecodeCACH(raw[len(raw)-BurstBits-CACHBits:])
		if tact.Outcome.Valid() {
			slot = tact.Slot
		} else if !frame.Synced() && d.last > 0 {
			slot = 3 - d.last
		}
	case sp.Slot() > 0:
		slot = sp.Slot()
	case !frame.Synced():
		slot = d.last
	}

	msgs, recognised := d.decodeBurst(slot, b, time.Now())
	d.last = slot

	if sp.BaseStation() {
		if recognised {
			d.lost = 0
		} else {
			d.lost++
		}
		if d.lost < MaxLost {
			d.next = CACHBits + BurstBits
		} else {
			log.Debugf("base station carrier lost after %d bursts", d.lost)
			d.lost = 0
		}
	} else if st := d.state(slot); st.inVoice && st.voiceFrame < VoiceBursts-1 {
		d.next = SlotPeriod
	}
	return msgs
}

// DecodeBurst decodes a single burst of a known timeslot, as received from a
// repeater network.
func (d *Decoder) DecodeBurst(slot int, b *Burst, ts time.Time) []message.Message {
	msgs, _ := d.decodeBurst(slot, b, ts)
	return msgs
}

func (d *Decoder) decodeBurst(slot int, b *Burst, ts time.Time) ([]message.Message, bool) {
	var (
		st    = d.state(slot)
		ctx   = message.Context{Slot: slot, Timestamp: ts}
		sp, _ = MatchSync(b.Signal())
	)
	switch {
	case sp.Voice():
		if !st.inVoice {
			log.Debugf("TS%d: voice call %d -> %d", slot, st.call.Source, st.call.Target)
		}
		st.inVoice = true
		st.voiceFrame = 0
		st.superframe++
		ctx.AccessCode = uint32(st.colorCode)
		buf := bit.NewBufferFromBits(b.Signal())
		buf.SetOutcome(crc.OutcomePassed)
		m := burstRegistry.Decode(VoiceSuperframe, buf, ctx)
		if v, ok := m.(*Voice); ok {
			v.Call = st.call
			v.Superframe = st.superframe
		}
		return []message.Message{m}, true

	case sp.Data():
		return d.decodeData(st, b, ctx), true

	case sp == SyncPatternMSSourcedRC:
		return nil, true

	case st.inVoice && st.voiceFrame < VoiceBursts-1:
		st.voiceFrame++
		return d.decodeEmbedded(st, b, ctx)
	}
	return nil, false
}

func (d *Decoder) decodeEmbedded(st *slotState, b *Burst, ctx message.Context) ([]message.Message, bool) {
	emb := DecodeEMB(b.EMB())
	if !emb.Outcome.Valid() {
		st.embedded.Reset()
		return nil, false
	}
	st.colorCode = emb.ColorCode
	ctx.AccessCode = uint32(emb.ColorCode)
	if emb.PI {
		st.call.Encrypted = true
	}

	buf, ok := st.embedded.Add(emb.LCSS, b.Fragment())
	if !ok {
		return nil, true
	}
	return d.track(st, lc.Decode(buf, ctx), ctx), true
}

// track updates the call of a timeslot from link control and returns the link
// control message, followed by a talker alias once it is complete.
func (d *Decoder) track(st *slotState, m message.Message, ctx message.Context) []message.Message {
	var msgs = []message.Message{m}
	if !m.Valid() {
		return msgs
	}
	if u, ok := m.(*lc.VoiceChannelUserPDU); ok {
		st.startCall(Call{
			Source:    u.Source,
			Target:    u.Target,
			Group:     u.Group,
			Encrypted: u.ServiceOptions.Privacy,
		})
	}
	if alias := st.alias.Add(m, st.call.Source, ctx); alias != nil {
		msgs = append(msgs, alias)
	}
	return msgs
}

func (d *Decoder) decodeData(st *slotState, b *Burst, ctx message.Context) []message.Message {
	stype := DecodeSlotType(b.SlotType())
	if !stype.Outcome.Valid() {
		buf := bit.NewBufferFromBits(b.SlotType())
		buf.SetOutcome(stype.Outcome)
		return []message.Message{message.NewUnknown(Protocol, uint32(stype.DataType), buf, ctx.Timestamp)}
	}
	st.colorCode = stype.ColorCode
	ctx.AccessCode = uint32(stype.ColorCode)

	info := b.Info()
	switch stype.DataType {
	case PIHeader:
		m := burstRegistry.Decode(uint8(PIHeader), DecodeBlock(info, PIHeaderMask), ctx)
		if m.Valid() {
			st.call.Encrypted = true
		}
		return []message.Message{m}

	case VoiceLCHeader, TerminatorWithLC:
		var (
			data, o = bptc.Decode(info)
			buf     = bit.NewBufferFromBits(data)
			mask    = lc.VoiceLCHeaderMask
		)
		buf.SetOutcome(o)
		if stype.DataType == TerminatorWithLC {
			mask = lc.TerminatorMask
		}
		msgs := d.track(st, lc.DecodeFull(buf, mask, ctx), ctx)
		if stype.DataType == TerminatorWithLC {
			log.Debugf("TS%d: end of call %d -> %d", ctx.Slot, st.call.Source, st.call.Target)
			st.endCall()
		} else {
			st.packet = nil
		}
		return msgs

	case CSBK:
		return []message.Message{DecodeCSBK(DecodeBlock(info, CSBKMask), ctx)}

	case MBCHeader:
		buf := DecodeBlock(info, MBCHeaderMask)
		if LastBlock(buf) || !buf.Outcome().Valid() {
			st.mbc = nil
			return []message.Message{DecodeCSBK(buf, ctx)}
		}
		st.mbc, st.mbcFirst, st.mbcOutcome, st.mbcBlocks = buf, nil, crc.OutcomeUnknown, 0
		return nil

	case MBCContinuation:
		if st.mbc == nil {
			return nil
		}
		data, o := bptc.Decode(info)
		cont := bit.NewBufferFromBits(data)
		cont.SetOutcome(o)
		if st.mbcFirst == nil {
			st.mbcFirst = cont
		}
		st.mbcOutcome = st.mbcOutcome.Merge(o)
		st.mbcBlocks++
		if !LastBlock(cont) && o.Valid() && st.mbcBlocks < MaxMBCBlocks {
			return nil
		}
		header := st.mbc
		header.SetOutcome(header.Outcome().Merge(st.mbcOutcome))
		ctx.Continuation = st.mbcFirst
		st.mbc, st.mbcFirst = nil, nil
		return []message.Message{DecodeCSBK(header, ctx)}

	case DataHeader:
		m := DecodeDataHeader(DecodeBlock(info, DataHeaderMask), ctx)
		st.packet = NewPacket(m)
		return []message.Message{m}

	case Rate12Data, Rate34Data, Rate1Data:
		if st.packet == nil {
			return nil
		}
		p := st.packet.Add(stype.DataType, info, ctx.Timestamp)
		if p == nil {
			return nil
		}
		st.packet = nil
		return []message.Message{p}

	case Idle:
		return nil

	default:
		buf := bit.NewBufferFromBits(info)
		buf.SetOutcome(stype.Outcome)
		return []message.Message{burstRegistry.Decode(uint8(stype.DataType), buf, ctx)}
	}
}
