package dmr

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/dmr/lc"
	"github.com/pd0mz/go-lmr/dmr/lc/serviceoptions"
)

func TestMatchSync(t *testing.T) {
	for _, want := range SyncPatterns {
		signal := want.Bits()
		signal[3].Flip()
		signal[40].Flip()
		got, dist := MatchSync(signal)
		if got != want || dist != 2 {
			t.Errorf("%s: got %s at distance %d", want, got, dist)
		}
	}
	if got, _ := MatchSync(make(bit.Bits, SignalBits)); got != SyncPatternUnknown {
		t.Errorf("zero signal matched %s", got)
	}
}

func TestSlotType(t *testing.T) {
	bits := EncodeSlotType(7, DataHeader)
	bits[0].Flip()
	bits[11].Flip()
	s := DecodeSlotType(bits)
	if s.ColorCode != 7 || s.DataType != DataHeader {
		t.Fatalf("slot type: %s", s)
	}
	if s.Outcome != crc.CorrectedBy(2) {
		t.Fatalf("outcome: %s", s.Outcome)
	}
}

func TestCACH(t *testing.T) {
	for _, slot := range []int{1, 2} {
		cach := EncodeCACH(true, slot, FirstFragment)
		cach[4].Flip()
		tact := DecodeCACH(cach)
		if !tact.Outcome.Valid() || tact.Slot != slot || !tact.Busy || tact.LCSS != FirstFragment {
			t.Errorf("slot %d: %+v", slot, tact)
		}
	}
}

func TestBurstParts(t *testing.T) {
	var (
		info   = make(bit.Bits, InfoBits)
		stype  = EncodeSlotType(1, CSBK)
		signal = SyncPatternBSSourcedData.Bits()
	)
	for i := range info {
		info[i] = bit.Bit(i % 3 & 1)
	}
	b, err := NewBurst(BuildBurst(info, stype, signal))
	if err != nil {
		t.Fatal(err)
	}
	if !b.Info().Equal(info) || !b.SlotType().Equal(stype) || !b.Signal().Equal(signal) {
		t.Fatal("burst parts differ")
	}
	if _, err := NewBurst(info); err == nil {
		t.Fatal("expected error for short burst")
	}
	raw := b.Bits()
	if _, err := NewBurstFromBytes(raw.Bytes()); err != nil {
		t.Fatal(err)
	}
}

func TestEmbeddedLC(t *testing.T) {
	data := lc.EncodeVoiceChannelUser(true, serviceoptions.ServiceOptions{Priority: serviceoptions.Priority2}, 91, 2042214)
	fragments := EncodeEmbedded(data)
	if len(fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(fragments))
	}

	var (
		e    = NewEmbedded()
		lcss = []LCSS{FirstFragment, Continuation, Continuation, LastFragment}
		buf  *bit.Buffer
		done bool
	)
	// A continuation before the first fragment is ignored.
	if _, ok := e.Add(Continuation, fragments[1]); ok {
		t.Fatal("continuation without first fragment completed")
	}
	for i, fragment := range fragments {
		signal := EmbeddedSignal(EncodeEMB(3, false, lcss[i]), fragment)
		emb := DecodeEMB(append(append(bit.Bits(nil), signal[:EMBHalfBits]...), signal[EMBHalfBits+FragmentBits:]...))
		if emb.ColorCode != 3 || emb.LCSS != lcss[i] || !emb.Outcome.Valid() {
			t.Fatalf("fragment %d: emb %s", i, emb)
		}
		buf, done = e.Add(emb.LCSS, signal[EMBHalfBits:EMBHalfBits+FragmentBits])
	}
	if !done || !buf.Outcome().Valid() {
		t.Fatalf("embedded LC not complete: %t", done)
	}
	if !buf.Bits().Equal(data) {
		t.Fatalf("embedded LC:\ngot  %s\nwant %s", buf.Bits(), data)
	}
}
