package message

import (
	"strings"
	"testing"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/identifier"
)

type testGrant struct {
	Header
	Talkgroup uint32
	Source    uint32
	Next      uint32
}

var (
	testGrantTalkgroup = bit.Indices(8, 23)
	testGrantSource    = bit.Indices(24, 47)
)

func newTestGrant(h Header, ctx Context) Message {
	m := &testGrant{
		Header:    h,
		Talkgroup: h.Buffer().Int(testGrantTalkgroup),
		Source:    h.Buffer().Int(testGrantSource),
	}
	if ctx.Continuation != nil {
		m.Next = ctx.Continuation.Range(0, 7)
	}
	return m
}

func (m *testGrant) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.New(m.Protocol(), identifier.Talkgroup, identifier.To, uint64(m.Talkgroup)),
		identifier.New(m.Protocol(), identifier.Radio, identifier.From, uint64(m.Source)),
	}
}

var testRegistry = NewRegistry(lmr.P25,
	Entry[uint8]{Code: 0x00, Name: "GRANT", New: newTestGrant},
	Entry[uint8]{Code: 0x3f, Name: "NIL", New: func(h Header, ctx Context) Message { return nil }},
)

func TestRegistryDecode(t *testing.T) {
	buf := bit.NewBufferFromBytes([]byte{0x00, 0x00, 0x64, 0x1f, 0x29, 0x66})
	buf.SetOutcome(crc.CorrectedBy(1))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	m := testRegistry.Decode(0x00, buf, Context{Continuation: bit.NewBufferFromBytes([]byte{0xab}), Timestamp: ts})
	g, ok := m.(*testGrant)
	if !ok {
		t.Fatalf("expected *testGrant, got %T", m)
	}
	if g.Talkgroup != 100 || g.Source != 0x1f2966 || g.Next != 0xab {
		t.Fatalf("fields: %+v", g)
	}
	if g.Name() != "GRANT" || g.TypeCode() != 0 || g.Protocol() != lmr.P25 {
		t.Fatalf("header: %s %d %s", g.Name(), g.TypeCode(), g.Protocol())
	}
	if !g.Valid() || g.CorrectedBits() != 1 || !g.Timestamp().Equal(ts) {
		t.Fatalf("valid %t corrected %d ts %s", g.Valid(), g.CorrectedBits(), g.Timestamp())
	}
	if s := Describe(g); s != "P25 GRANT talkgroup(to)=100 radio(from)=2042214 [corrected 1]" {
		t.Fatalf("describe: %q", s)
	}
}

func TestRegistryTotality(t *testing.T) {
	buf := bit.NewBuffer(48)
	buf.SetOutcome(crc.OutcomeFailed)
	for code := 0; code < 256; code++ {
		m := testRegistry.Decode(uint8(code), buf, Context{})
		if m == nil {
			t.Fatalf("code %#x: nil message", code)
		}
		if m.TypeCode() != uint32(code) {
			t.Fatalf("code %#x: type code %#x", code, m.TypeCode())
		}
		if m.Valid() {
			t.Fatalf("code %#x: failed buffer reported valid", code)
		}
		if code != 0 {
			if _, ok := m.(*Unknown); !ok {
				t.Fatalf("code %#x: expected Unknown, got %T", code, m)
			}
			if len(m.Identifiers()) != 0 {
				t.Fatalf("code %#x: unknown with identifiers", code)
			}
		}
	}
	if m := testRegistry.Decode(0x05, buf, Context{}); !strings.Contains(m.String(), "unknown type 0x5") {
		t.Fatalf("unknown string: %q", m.String())
	}
}

func TestRegistryCodes(t *testing.T) {
	codes := testRegistry.Codes()
	if len(codes) != 2 || codes[0] != 0x00 || codes[1] != 0x3f {
		t.Fatalf("codes: %v", codes)
	}
	if e, ok := testRegistry.Lookup(0x3f); !ok || e.Name != "NIL" {
		t.Fatalf("lookup: %+v %t", e, ok)
	}
}

func TestBuilderDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate code")
		}
	}()
	NewBuilder[uint16](lmr.DMR).
		Add(0x01, "A", newTestGrant).
		Add(0x01, "B", newTestGrant)
}
