package p25

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

type field struct {
	offset, width int
	value         uint64
}

// testTSBK returns the 96 data bits of a TSBK, CRC not yet computed.
func testTSBK(last bool, vendor Vendor, opcode uint8, fields ...field) bit.Bits {
	buf := bit.NewBuffer(TSBKBits)
	if last {
		buf.Load(tsbkLastBlock, 1, 1)
	}
	buf.Load(2, 6, uint64(opcode))
	buf.Load(8, 8, uint64(vendor))
	for _, f := range fields {
		buf.Load(f.offset, f.width, f.value)
	}
	return buf.Bits()
}

// testFrame returns the transmitted bits of a frame, status symbols included.
func testFrame(nac uint16, duid DUID, blocks ...bit.Bits) bit.Bits {
	data := bit.NewBitsFromUint(SyncPattern, SyncBits)
	data = append(data, EncodeNID(nac, duid)...)
	for _, b := range blocks {
		data = append(data, b...)
	}
	return InsertStatus(data, 2)
}

func TestRawLength(t *testing.T) {
	var tests = []struct {
		data, raw int
	}{
		{0, 0},
		{70, 70},
		{71, 73},
		{HeaderBits, 114},
		{HeaderBits + BlockBits, 316},
		{HeaderBits + 2*BlockBits, 518},
		{HeaderBits + 3*BlockBits, 718},
	}
	for _, test := range tests {
		if got := RawLength(test.data); got != test.raw {
			t.Errorf("RawLength(%d): got %d, want %d", test.data, got, test.raw)
		}
	}
}

func TestStripStatus(t *testing.T) {
	var data = make(bit.Bits, HeaderBits+BlockBits)
	for i := range data {
		data[i] = bit.Bit(i % 3 & 1)
	}
	raw := InsertStatus(data, 2)
	if len(raw) != RawLength(len(data)) {
		t.Fatalf("expected %d raw bits, got %d", RawLength(len(data)), len(raw))
	}
	for _, i := range []int{70, 142, 214, 286} {
		if raw[i] != 1 || raw[i+1] != 0 {
			t.Fatalf("status symbol at %d: got %d%d", i, raw[i], raw[i+1])
		}
	}
	if got := Strip(bit.NewBufferFromBits(raw)).Bits(); !got.Equal(data) {
		t.Fatalf("strip:\ngot  %s\nwant %s", got, data)
	}
}

func TestNID(t *testing.T) {
	var tests = []struct {
		nac   uint16
		duid  DUID
		flips []int
	}{
		{0x293, TSBK, nil},
		{0xfff, LDU1, []int{0}},
		{0x000, TDU, []int{1, 20, 40, 62}},
		{0xabc, PDU, []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}},
	}
	for _, test := range tests {
		data := bit.NewBitsFromUint(SyncPattern, SyncBits)
		data = append(data, EncodeNID(test.nac, test.duid)...)
		for _, i := range test.flips {
			data[SyncBits+i].Flip()
		}
		nid := DecodeNID(bit.NewBufferFromBits(data))
		if nid.NAC != test.nac || nid.DUID != test.duid {
			t.Errorf("got %s, want NAC %03X %s", nid, test.nac, test.duid)
		}
		if want := crc.CorrectedBy(len(test.flips)); nid.Outcome != want {
			t.Errorf("NAC %03X: got outcome %s, want %s", test.nac, nid.Outcome, want)
		}
	}
}

func TestNIDParity(t *testing.T) {
	for _, duid := range []DUID{HDU, TDU, LDU1, TSBK, LDU2, PDU, TDULC} {
		bits := EncodeNID(0x293, duid)
		if len(bits) != NIDBits {
			t.Fatalf("%s: expected %d bits, got %d", duid, NIDBits, len(bits))
		}
		if bit.NewBufferFromBits(bits).Cardinality()%2 != 0 {
			t.Errorf("%s: odd parity", duid)
		}
	}
}

func TestDUID(t *testing.T) {
	if !LDU1.Voice() || !HDU.Voice() || TSBK.Voice() {
		t.Error("voice")
	}
	if !TDU.Terminator() || !TDULC.Terminator() || LDU2.Terminator() {
		t.Error("terminator")
	}
	if s := DUID(0x1).String(); s != "DUID(0x1)" {
		t.Errorf("got %q", s)
	}
}

func TestReason(t *testing.T) {
	var tests = []struct {
		reason Reason
		class  ReasonClass
		text   string
	}{
		{0x00, ReasonReserved, "reserved"},
		{0x10, ReasonPublished, "requesting unit not valid"},
		{0x12, ReasonReserved, "reserved"},
		{0x2f, ReasonPublished, "target unit refused the call"},
		{0x5f, ReasonPublished, "call preempted"},
		{0x5e, ReasonReserved, "reserved"},
		{0x60, ReasonPublished, "site access denial"},
		{0x62, ReasonReservedSystem, "reserved (system)"},
		{0x77, ReasonPublished, "call options not supported"},
		{0xef, ReasonReservedSystem, "reserved (system)"},
		{0xf0, ReasonManufacturer, "manufacturer specific"},
		{0xff, ReasonManufacturer, "manufacturer specific"},
	}
	for _, test := range tests {
		if c := test.reason.Class(); c != test.class {
			t.Errorf("%#02x: got class %d, want %d", uint8(test.reason), c, test.class)
		}
		if s := test.reason.String(); s != test.text {
			t.Errorf("%#02x: got %q, want %q", uint8(test.reason), s, test.text)
		}
	}

	var published int
	for r := 0; r < 256; r++ {
		if Reason(r).Class() == ReasonPublished {
			published++
		}
	}
	if published != len(reasonName) {
		t.Fatalf("expected %d published reasons, got %d", len(reasonName), published)
	}
}
