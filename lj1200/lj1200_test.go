package lj1200

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

func testDecode(t *testing.T, payloads ...bit.Bits) []message.Message {
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
	for _, payload := range payloads {
		f.PushBits(make(bit.Bits, 32))
		f.PushBits(bit.NewBitsFromUint(Sync, SyncBits))
		f.PushBits(payload)
	}
	f.PushBits(make(bit.Bits, 32))
	return msgs
}

func TestDecode(t *testing.T) {
	msgs := testDecode(t,
		Encode(FunctionTransponder, 0x4a2f1, 0),
		Encode(FunctionSite, 0, 0x0123))
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	m, ok := msgs[0].(*Message)
	if !ok {
		t.Fatalf("expected *Message, got %T", msgs[0])
	}
	if !m.Valid() || m.Name() != "TRANSPONDER" || m.AddressHex() != "4A2F1" {
		t.Fatalf("transponder: %s", m)
	}
	if id, ok := identifier.Find(m.Identifiers(), identifier.Radio, identifier.Any); !ok || id.Text != "4A2F1" {
		t.Fatalf("identifiers: %v", m.Identifiers())
	}

	site := msgs[1].(*Message)
	if !site.Valid() || site.Tower != 0x0123 || site.Transponder() {
		t.Fatalf("site: %s", site)
	}
	if id, ok := identifier.Find(site.Identifiers(), identifier.Site, identifier.Broadcast); !ok || id.Value != 0x0123 {
		t.Fatalf("identifiers: %v", site.Identifiers())
	}
}

func TestDecodeCRCFailure(t *testing.T) {
	payload := Encode(FunctionReply, 0x12345, 0)
	payload[10].Flip()
	msgs := NewDecoder().Decode(framer.Frame{Buffer: bit.NewBufferFromBits(append(bit.NewBitsFromUint(Sync, SyncBits), payload...))})
	if len(msgs) != 1 || msgs[0].Valid() {
		t.Fatalf("expected one invalid message, got %v", msgs)
	}
}

func TestRegistry(t *testing.T) {
	for function := uint8(0); function < 16; function++ {
		m := registry.Decode(function, bit.NewBufferFromBits(Encode(function, 1, 1)), message.Context{})
		_, known := registry.Lookup(function)
		if _, unknown := m.(*message.Unknown); unknown == known {
			t.Errorf("%X: got %T", function, m)
		}
	}
}
