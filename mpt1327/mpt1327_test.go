package mpt1327

import (
	"math/rand"
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc/mpt"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

type field struct {
	offset int
	width  int
	value  uint64
}

// testCodeword returns an encoded codeword. Address codewords have bit 0 set.
func testCodeword(address bool, fields ...field) bit.Bits {
	b := bit.NewBuffer(CodewordBits)
	if address {
		b.Load(cwAddress, 1, 1)
	}
	for _, f := range fields {
		b.Load(f.offset, f.width, f.value)
	}
	mpt.Encode(b, 0)
	return b.Bits()
}

func testAddress(prefix uint8, ident1, typ uint16, fields ...field) bit.Bits {
	return testCodeword(true, append([]field{{1, 7, uint64(prefix)}, {8, 13, uint64(ident1)}, {21, 9, uint64(typ)}}, fields...)...)
}

// testShortData spreads a payload over data codewords. The first codeword carries the
// format.
func testShortData(format uint8, payload bit.Bits) []bit.Bits {
	var cws []bit.Bits
	for i := 0; i == 0 || len(payload) > 0; i++ {
		b := bit.NewBuffer(CodewordBits)
		start := 2
		if i%2 == 0 {
			start = 6
		}
		if i == 0 {
			b.Load(sdmTransaction, 1, 1)
			b.Load(2, 3, uint64(format-FormatBinary))
		}
		for j := start; j < mpt.InfoBits && len(payload) > 0; j++ {
			b.Load(j, 1, uint64(payload[0]))
			payload = payload[1:]
		}
		mpt.Encode(b, 0)
		cws = append(cws, b.Bits())
	}
	return cws
}

func testContext(cws ...bit.Bits) message.Context {
	var bits bit.Bits
	for _, cw := range cws {
		bits = append(bits, cw...)
	}
	cont := bit.NewBufferFromBits(bits)
	cont.SetOutcome(CorrectCodewords(cont, len(cws)))
	return message.Context{Continuation: cont}
}

func testMessage(cw bit.Bits, ctx message.Context) message.Message {
	buf := bit.NewBufferFromBits(cw)
	buf.SetOutcome(mpt.Correct(buf, 0))
	return registry.Decode(Key(buf), buf, ctx)
}

func TestKey(t *testing.T) {
	var tests = []struct {
		cw   bit.Bits
		want uint16
	}{
		{testAddress(1, 100, 5), GTC},
		{testAddress(1, 100, 255), GTC},
		{testAddress(1, 100, BCAST), BCAST},
		{testAddress(1, 100, HEAD+7), HEAD + 7},
		{testCodeword(false, field{21, 9, uint64(ALH)}), DataCodewordKey},
	}
	for i, test := range tests {
		if got := Key(bit.NewBufferFromBits(test.cw)); got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

func TestCodewords(t *testing.T) {
	var tests = map[uint16]int{
		GTC:       1,
		ALH:       2,
		ALHS:      1,
		AHYQ:      2,
		ACKT:      4,
		ACK:       1,
		HEAD:      2,
		HEAD + 4:  3,
		HEAD + 11: 4,
		HEAD + 15: 5,
	}
	for key, want := range tests {
		if got := Codewords(key); got != want {
			t.Errorf("%d: got %d, want %d", key, got, want)
		}
		if Codewords(key) > MaxCodewords {
			t.Errorf("%d: more than %d codewords", key, MaxCodewords)
		}
	}
}

func TestIdentName(t *testing.T) {
	var tests = []struct {
		prefix uint8
		ident  uint16
		want   string
	}{
		{1, 100, "001-0100"},
		{127, MaxUserIdent, "127-8100"},
		{0, PSTNSI1 + 2, "PSTNSI3"},
		{0, ALLI, "ALLI"},
		{0, DummyIdent, "DUMMYI"},
		{0, 8150, "spare(8150)"},
	}
	for _, test := range tests {
		if got := IdentName(test.prefix, test.ident); got != test.want {
			t.Errorf("%d/%d: got %q, want %q", test.prefix, test.ident, got, test.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, code := range registry.Codes() {
		buf := bit.NewBuffer(CodewordBits)
		m := registry.Decode(code, buf, message.Context{})
		if _, ok := m.(*message.Unknown); ok {
			t.Errorf("%d: decoded as unknown", code)
		}
		if m.TypeCode() != uint32(code) || m.String() == "" {
			t.Errorf("%d: %s", code, m)
		}
	}
	if m := registry.Decode(300, bit.NewBuffer(CodewordBits), message.Context{}); m == nil {
		t.Fatal("nil message")
	} else if _, ok := m.(*message.Unknown); !ok {
		t.Fatalf("expected *message.Unknown, got %T", m)
	}
}

// TestRegistryAllTypes decodes every value of the type field, and data codewords,
// with random fields and zero to four appended codewords.
func TestRegistryAllTypes(t *testing.T) {
	var (
		r     = rand.New(rand.NewSource(1327))
		types = make([]int, 0, 513)
	)
	for typ := 0; typ < 512; typ++ {
		types = append(types, typ)
	}
	types = append(types, -1)

	for _, typ := range types {
		for n := 0; n <= 4; n++ {
			buf := bit.NewBuffer(CodewordBits)
			buf.Load(0, mpt.InfoBits, r.Uint64())
			if typ < 0 {
				buf.Load(cwAddress, 1, 0)
			} else {
				buf.Load(cwAddress, 1, 1)
				buf.Load(cwType[0], len(cwType), uint64(typ))
			}
			mpt.Encode(buf, 0)
			buf.SetOutcome(mpt.Correct(buf, 0))

			var ctx message.Context
			if n > 0 {
				cont := bit.NewBuffer(n * CodewordBits)
				for i := 0; i < n; i++ {
					cont.Load(i*CodewordBits, mpt.InfoBits, r.Uint64())
					mpt.Encode(cont, i*CodewordBits)
				}
				cont.SetOutcome(CorrectCodewords(cont, n))
				ctx.Continuation = cont
			}

			key := Key(buf)
			if typ < 0 && key != DataCodewordKey {
				t.Fatalf("data codeword: key %d", key)
			}
			m := registry.Decode(key, buf, ctx)
			if m == nil {
				t.Fatalf("type %d with %d codewords: nil message", typ, n)
			}
			if !m.Valid() || m.TypeCode() != uint32(key) || m.String() == "" {
				t.Errorf("type %d with %d codewords: %s", typ, n, m)
			}
			_ = m.Identifiers()
		}
	}
}

func TestGotoChannel(t *testing.T) {
	m := testMessage(testAddress(12, 1001, 0,
		field{gtcDivert, 1, 1}, field{23, 10, 421}, field{33, 13, 2002}), message.Context{})
	g, ok := m.(*GotoChannel)
	if !ok {
		t.Fatalf("expected *GotoChannel, got %T", m)
	}
	if !g.Valid() || g.Prefix != 12 || g.Ident1 != 1001 || g.Ident2 != 2002 || g.Channel != 421 || !g.Divert {
		t.Fatalf("gtc: %s", g)
	}
	ids := g.Identifiers()
	if id, ok := identifier.Find(ids, identifier.Radio, identifier.To); !ok || id.Text != "012-1001" {
		t.Fatalf("identifiers: %v", ids)
	}
	if _, ok := identifier.Find(ids, identifier.Channel, identifier.Any); !ok {
		t.Fatalf("identifiers: %v", ids)
	}
}

func TestAloha(t *testing.T) {
	m := testMessage(testAddress(0, ALLI, ALH, field{34, 3, 2}, field{39, 5, 7}, field{44, 4, 3}),
		testContext(testCodeword(false, field{1, 15, 0x1234})))
	a, ok := m.(*Aloha)
	if !ok {
		t.Fatalf("expected *Aloha, got %T", m)
	}
	if a.Wait != 2 || a.M != 7 || a.N != 3 || !a.HasSystem || a.System != 0x1234 {
		t.Fatalf("aloha: %s system %#x", a, a.System)
	}
	if id, ok := identifier.Find(a.Identifiers(), identifier.Talkgroup, identifier.To); !ok || id.Text != "ALL" {
		t.Fatalf("identifiers: %v", a.Identifiers())
	}

	// Without the appended codeword the system is not known.
	a = testMessage(testAddress(0, ALLI, ALH), message.Context{}).(*Aloha)
	if a.HasSystem {
		t.Fatal("system without appended codeword")
	}
}

func TestAcknowledgeInterPrefix(t *testing.T) {
	m := testMessage(testAddress(5, 300, ACKT, field{30, 13, uint64(IPFIXI)}),
		testContext(testCodeword(false, field{1, 15, 0x0abc}, field{28, 7, 9}, field{35, 13, 1234}),
			testCodeword(false), testCodeword(false)))
	a, ok := m.(*Acknowledge)
	if !ok {
		t.Fatalf("expected *Acknowledge, got %T", m)
	}
	if !a.HasSystem || a.System != 0x0abc || a.Prefix != 9 || a.Ident2 != 1234 {
		t.Fatalf("ack: %s", a)
	}
	if a.Name() != "ACKT" {
		t.Fatalf("name: %s", a.Name())
	}
}

func TestAhoy(t *testing.T) {
	q := testMessage(testAddress(1, 10, AHYQ, field{43, 5, 17}), message.Context{}).(*Ahoy)
	if q.Status != 17 {
		t.Fatalf("ahyq: %s", q)
	}
	if id, ok := identifier.Find(q.Identifiers(), identifier.Status, identifier.Any); !ok || id.Value != 17 {
		t.Fatalf("identifiers: %v", q.Identifiers())
	}
	c := testMessage(testAddress(1, 10, AHYC, field{43, 2, 3}, field{45, 3, 5}), message.Context{}).(*Ahoy)
	if c.Slots != 3 || c.Descriptor != 5 || c.Status != 0 {
		t.Fatalf("ahyc: %s", c)
	}
}

func TestBroadcast(t *testing.T) {
	m := testMessage(testCodeword(true,
		field{1, 5, uint64(AdjacentSite)}, field{6, 15, 0x2345}, field{21, 9, uint64(BCAST)},
		field{30, 10, 200}, field{40, 4, 6}), message.Context{})
	b, ok := m.(*Broadcast)
	if !ok {
		t.Fatalf("expected *Broadcast, got %T", m)
	}
	if b.System != 0x2345 || b.Channel != 200 || b.AdjacentSite != 6 {
		t.Fatalf("bcast: %s", b)
	}
	if _, ok := identifier.Find(b.Identifiers(), identifier.Site, identifier.Any); !ok {
		t.Fatalf("identifiers: %v", b.Identifiers())
	}

	m = testMessage(testCodeword(true,
		field{1, 5, uint64(CallMaintenanceParameters)}, field{21, 9, uint64(BCAST)},
		field{bcastPeriodic, 1, 1}, field{31, 5, 12}, field{bcastPresselOn, 1, 1}), message.Context{})
	b = m.(*Broadcast)
	if !b.Periodic || b.Interval != 12 || !b.PresselOn || b.Ident1Group || b.Channel != 0 {
		t.Fatalf("bcast: %s", b)
	}
}

func TestClear(t *testing.T) {
	m := testMessage(testCodeword(true, field{1, 10, 301}, field{11, 10, 17}, field{21, 9, uint64(CLEAR)}), message.Context{})
	c, ok := m.(*Clear)
	if !ok {
		t.Fatalf("expected *Clear, got %T", m)
	}
	if c.TrafficChannel != 301 || c.ControlChannel != 17 {
		t.Fatalf("clear: %s", c)
	}
}

func TestShortDataTelex(t *testing.T) {
	var payload = bit.Bits{0}
	for _, code := range []uint64{15, 3, telexFiguresShift, 15, telexLettersShift, 12, 25, 30} {
		payload = append(payload, bit.NewBitsFromUint(code, 5)...)
	}
	m := testMessage(testAddress(1, 10, HEAD, field{35, 13, 20}), testContext(testShortData(FormatTelex, payload)...))
	s, ok := m.(*ShortData)
	if !ok {
		t.Fatalf("expected *ShortData, got %T", m)
	}
	if s.Format != FormatTelex || s.Text != "PD0MZ" || s.Ident2 != 20 || s.Codewords() != 1 {
		t.Fatalf("sdm: %s", s)
	}
	if id, ok := identifier.Find(s.Identifiers(), identifier.Message, identifier.Any); !ok || id.Text != "PD0MZ" {
		t.Fatalf("identifiers: %v", s.Identifiers())
	}
}

func TestShortDataASCII(t *testing.T) {
	var payload = bit.Bits{0}
	for _, c := range "HELLO WORLD" {
		payload = append(payload, bit.NewBitsFromUint(uint64(c), 7)...)
	}
	cws := testShortData(FormatASCII, payload)
	if len(cws) != 2 {
		t.Fatalf("expected 2 data codewords, got %d", len(cws))
	}
	m := testMessage(testAddress(1, 10, HEAD+4), testContext(cws...))
	s := m.(*ShortData)
	if s.Text != "HELLO WORLD" || s.Codewords() != 2 {
		t.Fatalf("sdm: %s", s)
	}
}

func TestShortDataBinary(t *testing.T) {
	payload := bit.NewBitsFromUint(0xdeadbeef, 32)
	m := testMessage(testAddress(1, 10, HEAD), testContext(testShortData(FormatBinary, payload)...))
	s := m.(*ShortData)
	if s.Format != FormatBinary || s.Text != "" || s.Payload == nil || s.Payload.Range(0, 31) != 0xdeadbeef {
		t.Fatalf("sdm: %s", s)
	}
}
