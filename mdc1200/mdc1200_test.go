package mdc1200

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/crc16"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

func testFrame(blocks ...bit.Bits) bit.Bits {
	frame := bit.NewBitsFromUint(Sync, SyncBits)
	for _, block := range blocks {
		frame = append(frame, EncodeBlock(block)...)
	}
	return frame
}

func testDecode(t *testing.T, frames ...bit.Bits) []message.Message {
	t.Helper()
	var (
		d    = NewDecoder()
		msgs []message.Message
	)
	f, err := framer.New(func(frame framer.Frame) {
		msgs = append(msgs, d.Decode(frame)...)
	}, d.Pattern())
	if err != nil {
		t.Fatal(err)
	}
	for _, frame := range frames {
		f.PushBits(make(bit.Bits, 32))
		f.PushBits(frame)
	}
	f.PushBits(make(bit.Bits, 32))
	return msgs
}

func TestInterleave(t *testing.T) {
	in := make(bit.Bits, BlockBits)
	for i := range in {
		in[i] = bit.Bit(i%3&1)
	}
	if got := deinterleave(interleave(in)); got.String() != in.String() {
		t.Fatalf("got %s, want %s", got, in)
	}
	// The first transmitted bits are the first bit of every row.
	if got := interleave(in)[1]; got != in[interleaveCols] {
		t.Fatalf("interleave: got %d at 1, want %d", got, in[interleaveCols])
	}
}

func TestBlock(t *testing.T) {
	data := NewBlock(OpPTTID, ArgPreID, 0x1234)
	buf := bit.NewBufferFromBits(data)
	if Op(buf) != OpPTTID || Arg(buf) != ArgPreID || Unit(buf) != 0x1234 {
		t.Fatalf("fields: op %02X arg %02X unit %04X", Op(buf), Arg(buf), Unit(buf))
	}

	coded := EncodeBlock(data)
	if got := DecodeBlock(coded); !got.Outcome().Valid() || got.CorrectedBits() != 0 {
		t.Fatalf("clean block: %s", got.Outcome())
	}

	// Transmitted bit 66 is data bit 9.
	coded[66].Flip()
	got := DecodeBlock(coded)
	if !got.Outcome().Valid() || got.CorrectedBits() != 1 || Unit(got) != 0x1234 {
		t.Fatalf("corrected block: %s", got.Outcome())
	}

	// Transmitted bit 16 is a parity bit.
	coded = EncodeBlock(data)
	coded[16].Flip()
	if got := DecodeBlock(coded); !got.Outcome().Valid() || got.CorrectedBits() != 0 {
		t.Fatalf("parity error: %s", got.Outcome())
	}

	// A wrong CRC fails the block.
	data[40].Flip()
	if got := DecodeBlock(EncodeBlock(data)); got.Outcome().Valid() {
		t.Fatalf("bad CRC: %s", got.Outcome())
	}

	// Repairs of a block failing its CRC are discarded.
	coded = EncodeBlock(data)
	coded[66].Flip()
	got = DecodeBlock(coded)
	if got.Outcome() != crc.OutcomeFailed {
		t.Fatalf("bad CRC with bit error: %s", got.Outcome())
	}
	if got.Get(9) == data[9] {
		t.Fatal("failed block carries a repaired bit")
	}
}

func TestChecksum(t *testing.T) {
	buf := bit.NewBufferFromBits(NewBlock(OpPTTID, ArgPreID, 0x1234))
	want := crc16.ChecksumMDC([]byte{OpPTTID, ArgPreID, 0x12, 0x34})
	if got := StoredChecksum(buf); got != want || Checksum(buf) != want {
		t.Fatalf("got %#04x, want %#04x", got, want)
	}
}

func TestDecodePTTID(t *testing.T) {
	msgs := testDecode(t,
		testFrame(NewBlock(OpPTTID, ArgPreID, 0x1234)),
		testFrame(NewBlock(OpPTTID, ArgPostID, 0x1234)))
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for i, pre := range []bool{true, false} {
		m, ok := msgs[i].(*PTTID)
		if !ok {
			t.Fatalf("expected *PTTID, got %T", msgs[i])
		}
		if !m.Valid() || m.Pre() != pre || m.Unit != 0x1234 {
			t.Fatalf("message %d: %s", i, m)
		}
		if id, ok := identifier.Find(m.Identifiers(), identifier.Radio, identifier.From); !ok || id.Value != 0x1234 {
			t.Fatalf("identifiers: %v", m.Identifiers())
		}
	}
}

func TestDecodeSelectiveCall(t *testing.T) {
	msgs := testDecode(t, testFrame(
		NewBlock(OpSelectiveCall, ArgCallAlert, 0x2000),
		NewBlock(0x0a, 0x00, 0x1001)))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m, ok := msgs[0].(*SelectiveCall)
	if !ok {
		t.Fatalf("expected *SelectiveCall, got %T", msgs[0])
	}
	if !m.Valid() || !m.Complete || !m.CallAlert() || m.Unit != 0x2000 || m.From != 0x1001 || m.Extra[0] != 0x0a {
		t.Fatalf("selective call: %s", m)
	}
	ids := m.Identifiers()
	if id, ok := identifier.Find(ids, identifier.Radio, identifier.To); !ok || id.Value != 0x2000 {
		t.Fatalf("identifiers: %v", ids)
	}
	if id, ok := identifier.Find(ids, identifier.Radio, identifier.From); !ok || id.Value != 0x1001 {
		t.Fatalf("identifiers: %v", ids)
	}
}

func TestDecodeTruncatedDouble(t *testing.T) {
	frame := testFrame(NewBlock(OpSelectiveCall, 0x00, 0x2000))
	msgs := NewDecoder().Decode(framer.Frame{Buffer: bit.NewBufferFromBits(frame)})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if m := msgs[0].(*SelectiveCall); m.Valid() || m.Complete {
		t.Fatalf("truncated call: %s", m)
	}
}

func TestDecodeStatus(t *testing.T) {
	msgs := testDecode(t, testFrame(NewBlock(OpStatus, 5, 0x0042)))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if id, ok := identifier.Find(msgs[0].Identifiers(), identifier.Status, identifier.From); !ok || id.Value != 5 {
		t.Fatalf("identifiers: %v", msgs[0].Identifiers())
	}
}

func TestRegistry(t *testing.T) {
	for op := 0; op < 256; op++ {
		buf := bit.NewBufferFromBits(NewBlock(uint8(op), 0, 1))
		m := decode(buf, nil, message.Context{})
		if m == nil {
			t.Fatalf("%02X: nil message", op)
		}
		_, known := registry.Lookup(uint8(op))
		if _, unknown := m.(*message.Unknown); unknown == known {
			t.Errorf("%02X: got %T", op, m)
		}
	}
}
