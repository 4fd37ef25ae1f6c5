package nxdn

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/message"
)

type field struct {
	offset int
	width  int
	value  uint64
}

func testBits(size int, fields ...field) bit.Bits {
	b := bit.NewBuffer(size)
	for _, f := range fields {
		b.Load(f.offset, f.width, f.value)
	}
	return b.Bits()
}

func TestPN9(t *testing.T) {
	// The sequence starts with the seed, least significant bit first.
	want := bit.Bits{0, 0, 1, 0, 0, 1, 1, 1, 0}
	if got := pn9(9); got.String() != want.String() {
		t.Fatalf("PN9 starts with %s", got)
	}

	seq := pn9(1022)
	var ones int
	for i := 0; i < 511; i++ {
		if seq[i] != seq[i+511] {
			t.Fatalf("PN9 period is not 511 at %d", i)
		}
		ones += int(seq[i])
	}
	if ones != 256 {
		t.Fatalf("PN9 has %d ones per period, expected 256", ones)
	}
}

func TestScramble(t *testing.T) {
	payload := testBits(PayloadBits, field{0, 16, 0xbeef}, field{300, 32, 0xdeadbeef})
	want := payload.String()
	Scramble(payload)
	if payload.String() == want {
		t.Fatal("scrambling did not change the payload")
	}
	Scramble(payload)
	if payload.String() != want {
		t.Fatal("scrambling twice did not restore the payload")
	}
}

func TestLICH(t *testing.T) {
	for v := 0; v < 128; v++ {
		l := DecodeLICH(EncodeLICH(uint8(v)))
		if l.Value != uint8(v) || !l.ParityOK {
			t.Fatalf("%02X: got %+v", v, l)
		}
	}

	bits := EncodeLICH(0x33)
	l := DecodeLICH(bits)
	if l.RFChannel != RTCH || l.Functional != SACCHSuperframe || !l.Outbound {
		t.Fatalf("LICH 33: %s", l)
	}
	if !l.SACCH() || !l.FACCH1First() || l.FACCH1Second() || !l.Voice() {
		t.Fatalf("LICH 33 channels: %s", l)
	}

	if l := DecodeLICH(EncodeLICH(0x01)); l.RFChannel != RCCH || l.Functional != CAC || l.SACCH() {
		t.Fatalf("LICH 01: %s", l)
	}

	bits[14].Flip()
	if DecodeLICH(bits).ParityOK {
		t.Fatal("expected parity error")
	}
}

func TestCoding(t *testing.T) {
	for _, c := range []Coding{SACCH, FACCH1, CACOut} {
		data := make(bit.Bits, c.Data())
		for i := range data {
			if i%3 == 0 || i%7 == 0 {
				data[i] = 1
			}
		}

		coded := c.Encode(data)
		if len(coded) != c.Bits() {
			t.Fatalf("%s: encoded %d bits, expected %d", c.Name, len(coded), c.Bits())
		}

		buf := c.Decode(coded)
		if !buf.Outcome().Valid() || buf.CorrectedBits() != 0 {
			t.Fatalf("%s: clean decode %s", c.Name, buf.Outcome())
		}
		if got := buf.Slice(0, c.Data()).Bits(); got.String() != data.String() {
			t.Fatalf("%s: got %s, want %s", c.Name, got, data)
		}

		coded[3].Flip()
		coded[c.Bits()/2].Flip()
		buf = c.Decode(coded)
		if !buf.Outcome().Valid() || buf.CorrectedBits() != 2 {
			t.Fatalf("%s: corrected decode %s", c.Name, buf.Outcome())
		}
		if got := buf.Slice(0, c.Data()).Bits(); got.String() != data.String() {
			t.Fatalf("%s: got %s, want %s", c.Name, got, data)
		}
	}
}

func TestCodingCRCFailure(t *testing.T) {
	// All zero information fails the CRC because of its initial value.
	if buf := CACOut.Decode(make(bit.Bits, CACOut.Bits())); buf.Outcome().Valid() {
		t.Fatalf("expected failure, got %s", buf.Outcome())
	}
}

func TestRegistry(t *testing.T) {
	if registry.Len() != 14 {
		t.Fatalf("expected 14 message types, got %d", registry.Len())
	}
	for code := 0; code < 64; code++ {
		buf := bit.NewBufferFromBits(testBits(Layer3Bits, field{2, 6, uint64(code)}))
		m := DecodeLayer3(buf, message.Context{})
		if m == nil {
			t.Fatalf("%02X: nil message", code)
		}
		_, known := registry.Lookup(uint8(code))
		if _, unknown := m.(*message.Unknown); unknown == known {
			t.Errorf("%02X: got %T", code, m)
		}
	}
}

func TestLocationID(t *testing.T) {
	var tests = []struct {
		category uint8
		value    uint64
		system   uint32
		site     uint32
	}{
		{CategoryGlobal, 291<<12 | 42, 291, 42},
		{CategoryRegional, 9000<<8 | 200, 9000, 200},
		{CategoryLocal, 100000<<5 | 17, 100000, 17},
	}
	for _, test := range tests {
		buf := bit.NewBufferFromBits(testBits(Layer3Bits,
			field{8, 2, uint64(test.category)}, field{10, 22, test.value}))
		l := newLocationID(buf, 8)
		if l.Category != test.category || l.System != test.system || l.Site != test.site {
			t.Errorf("category %d: got %+v", test.category, l)
		}
	}
}

func TestAdjacentSites(t *testing.T) {
	buf := bit.NewBufferFromBits(testBits(Layer3Bits,
		field{2, 6, uint64(ADJ_SITE_INFO)},
		field{10, 10, 12}, field{20, 12, 1}, field{34, 4, 1}, field{38, 10, 100},
		field{50, 10, 12}, field{60, 12, 2}, field{74, 4, 2}, field{78, 10, 200}))
	m, ok := DecodeLayer3(buf, message.Context{}).(*AdjacentSites)
	if !ok {
		t.Fatal("expected *AdjacentSites")
	}
	if len(m.Neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %s", m)
	}
	if n := m.Neighbors[1]; n.ID != 2 || n.Location.System != 12 || n.Location.Site != 2 || n.Channel != 200 {
		t.Fatalf("neighbor 2: %+v", n)
	}
	if len(m.Identifiers()) != 4 {
		t.Fatalf("identifiers: %v", m.Identifiers())
	}
}
