package dmr

import (
	"testing"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/bptc"
	"github.com/pd0mz/go-lmr/dmr/lc"
	"github.com/pd0mz/go-lmr/dmr/lc/serviceoptions"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

// gap is the air time between two bursts of the same mobile station.
const gap = SlotPeriod - BurstBits

func testDecode(t *testing.T, d *Decoder, stream ...bit.Bits) []message.Message {
	t.Helper()
	var msgs []message.Message
	f, err := framer.New(func(frame framer.Frame) {
		msgs = append(msgs, d.Decode(frame)...)
	}, d.Patterns()...)
	if err != nil {
		t.Fatal(err)
	}
	f.PushBits(make(bit.Bits, 2*SlotPeriod))
	for _, bits := range stream {
		f.PushBits(bits)
	}
	f.PushBits(make(bit.Bits, 2*SlotPeriod))
	return msgs
}

func dataBurst(sp SyncPattern, cc uint8, dt DataType, info bit.Bits) bit.Bits {
	return BuildBurst(info, EncodeSlotType(cc, dt), sp.Bits())
}

func voiceBurst(signal bit.Bits) bit.Bits {
	return BuildBurst(make(bit.Bits, InfoBits), make(bit.Bits, SlotBits), signal)
}

func bsFrame(slot int, burst bit.Bits) bit.Bits {
	return append(EncodeCACH(true, slot, SingleFragment), burst...)
}

func TestDecoderPatterns(t *testing.T) {
	d := NewDecoder()
	patterns := d.Patterns()
	if len(patterns) != len(SyncPatterns) {
		t.Fatalf("expected %d patterns, got %d", len(SyncPatterns), len(patterns))
	}
	for i, p := range patterns {
		want := BurstBits
		if SyncPatterns[i].BaseStation() {
			want += CACHBits
		}
		if p.Length != want || p.Lead+p.Width+PayloadPartBits != p.Length {
			t.Errorf("%s: length %d lead %d", p.Name, p.Length, p.Lead)
		}
	}
}

func TestDecoderBaseStation(t *testing.T) {
	grant := EncodeBlock(testBlock(true, StandardFID, TalkgroupVoiceGrant,
		field{16, 12, 5}, field{32, 24, 91}, field{56, 24, 2042214}), CSBKMask)
	aloha := EncodeBlock(testBlock(true, StandardFID, Aloha, field{40, 16, 0x1234}), CSBKMask)
	idle := make(bit.Bits, InfoBits)

	d := NewDecoder()
	msgs := testDecode(t, d,
		bsFrame(1, dataBurst(SyncPatternBSSourcedData, 1, CSBK, grant)),
		bsFrame(2, dataBurst(SyncPatternBSSourcedData, 1, Idle, idle)),
		bsFrame(1, dataBurst(SyncPatternBSSourcedData, 1, CSBK, aloha)),
		// A burst without sync on the carrier is followed.
		bsFrame(2, voiceBurst(make(bit.Bits, SignalBits))),
		bsFrame(1, dataBurst(SyncPatternBSSourcedData, 1, CSBK, aloha)))
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	g, ok := msgs[0].(*Grant)
	if !ok {
		t.Fatalf("expected *Grant, got %T", msgs[0])
	}
	if !g.Valid() || g.Slot != 1 || g.ColorCode != 1 || g.Target != 91 {
		t.Fatalf("grant: %s", g)
	}
	for _, m := range msgs[1:] {
		if a, ok := m.(*AlohaBlock); !ok || a.Slot != 1 || !a.Valid() {
			t.Fatalf("expected valid *AlohaBlock on TS1, got %s", m)
		}
	}
}

func TestDecoderMultiBlock(t *testing.T) {
	header := EncodeBlock(testBlock(false, StandardFID, PrivateVoiceGrant,
		field{16, 12, GrantAbsoluteChannel}, field{28, 1, 1}, field{32, 24, 1001}, field{56, 24, 2002}), MBCHeaderMask)
	cont := bptc.Encode(append(EncodeAbsoluteChannel(42, 439562500, 430962500), make(bit.Bits, 16)...))

	d := NewDecoder()
	msgs := testDecode(t, d,
		bsFrame(2, dataBurst(SyncPatternBSSourcedData, 3, MBCHeader, header)),
		bsFrame(1, dataBurst(SyncPatternBSSourcedData, 3, Idle, make(bit.Bits, InfoBits))),
		bsFrame(2, dataBurst(SyncPatternBSSourcedData, 3, MBCContinuation, cont)))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	g, ok := msgs[0].(*Grant)
	if !ok {
		t.Fatalf("expected *Grant, got %T", msgs[0])
	}
	info := g.Channel.Channel
	if !g.Valid() || info.Number != 42 || info.Slot != 2 || info.Downlink != 439562500 {
		t.Fatalf("grant: %s %+v", g, info)
	}
}

func TestDecoderVoice(t *testing.T) {
	var (
		options = serviceoptions.ServiceOptions{Priority: serviceoptions.Priority1}
		user    = lc.EncodeVoiceChannelUser(true, options, 91, 2042214)
		header  = bptc.Encode(lc.EncodeFull(user, lc.VoiceLCHeaderMask))
		term    = bptc.Encode(lc.EncodeFull(user, lc.TerminatorMask))
		lcss    = []LCSS{FirstFragment, Continuation, Continuation, LastFragment}
		stream  []bit.Bits
	)
	stream = append(stream,
		dataBurst(SyncPatternMSSourcedData, 1, VoiceLCHeader, header), make(bit.Bits, gap),
		voiceBurst(SyncPatternMSSourcedVoice.Bits()))
	for i, fragment := range EncodeEmbedded(user) {
		stream = append(stream, make(bit.Bits, gap), voiceBurst(EmbeddedSignal(EncodeEMB(1, false, lcss[i]), fragment)))
	}
	stream = append(stream,
		make(bit.Bits, gap), voiceBurst(EmbeddedSignal(EncodeEMB(1, false, SingleFragment), make(bit.Bits, FragmentBits))),
		make(bit.Bits, gap), dataBurst(SyncPatternMSSourcedData, 1, TerminatorWithLC, term))

	d := NewDecoder()
	msgs := testDecode(t, d, stream...)
	if len(msgs) != 4 {
		for _, m := range msgs {
			t.Log(m)
		}
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}

	for _, i := range []int{0, 2, 3} {
		u, ok := msgs[i].(*lc.VoiceChannelUserPDU)
		if !ok {
			t.Fatalf("message %d: expected *lc.VoiceChannelUserPDU, got %T", i, msgs[i])
		}
		if !u.Valid() || !u.Group || u.Target != 91 || u.Source != 2042214 {
			t.Fatalf("message %d: %s", i, u)
		}
	}
	v, ok := msgs[1].(*Voice)
	if !ok {
		t.Fatalf("expected *Voice, got %T", msgs[1])
	}
	if v.Name() != "VOICE" || v.Superframe != 1 || v.Call.Source != 2042214 || !v.Call.Group {
		t.Fatalf("voice: %s", v)
	}
	if d.InCall(0) {
		t.Fatal("still in call after terminator")
	}
}

func TestDecoderPacket(t *testing.T) {
	payload, err := EncodeText(DDFormatUTF16BE, "CQCQCQ PD0MZ")
	if err != nil {
		t.Fatal(err)
	}
	blocks, pad := EncodePacket(Rate34Data, false, payload)

	h := bit.NewBuffer(BlockDataBits)
	h.Load(4, 4, uint64(PacketFormatShortDataDefined))
	h.Load(8, 4, uint64(ServiceAccessPointShortData))
	h.Load(12, 4, uint64(len(blocks)))
	h.Load(16, 24, 2042214)
	h.Load(40, 24, 2042215)
	h.Load(64, 6, uint64(DDFormatUTF16BE))
	h.Load(72, 8, uint64(pad*8))

	var stream = []bit.Bits{bsFrame(1, dataBurst(SyncPatternBSSourcedData, 1, DataHeader, EncodeBlock(h.Bits(), DataHeaderMask)))}
	for _, block := range blocks {
		stream = append(stream,
			bsFrame(2, dataBurst(SyncPatternBSSourcedData, 1, Idle, make(bit.Bits, InfoBits))),
			bsFrame(1, dataBurst(SyncPatternBSSourcedData, 1, Rate34Data, block)))
	}

	d := NewDecoder()
	msgs := testDecode(t, d, stream...)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if _, ok := msgs[0].(*ShortDataDefinedHeader); !ok {
		t.Fatalf("expected *ShortDataDefinedHeader, got %T", msgs[0])
	}
	p, ok := msgs[1].(*PacketData)
	if !ok {
		t.Fatalf("expected *PacketData, got %T", msgs[1])
	}
	if !p.Valid() || p.Text != "CQCQCQ PD0MZ" || p.Packet.Source != 2042215 || p.DataType != Rate34Data {
		t.Fatalf("packet: %s", p)
	}
}

func TestDecodeBurst(t *testing.T) {
	d := NewDecoder()
	b, err := NewBurst(dataBurst(SyncPatternBSSourcedData, 2, CSBK,
		EncodeBlock(testBlock(true, StandardFID, Preamble, field{16, 1, 1}, field{24, 8, 3}), CSBKMask)))
	if err != nil {
		t.Fatal(err)
	}
	msgs := d.DecodeBurst(2, b, time.Time{})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	p, ok := msgs[0].(*PreambleBlock)
	if !ok || !p.DataFollows || p.Blocks != 3 || p.Slot != 2 || p.ColorCode != 2 {
		t.Fatalf("preamble: %s", msgs[0])
	}

	// A burst without sync outside a call carries nothing.
	idle, _ := NewBurst(make(bit.Bits, BurstBits))
	if msgs := d.DecodeBurst(2, idle, time.Time{}); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}
}
