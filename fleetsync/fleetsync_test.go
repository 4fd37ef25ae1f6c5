package fleetsync

import (
	"math"
	"testing"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/mpt"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

type field struct {
	offset int
	width  int
	value  uint64
}

// testBlocks encodes n blocks. Field offsets are relative to the start of block 1 and
// the active low flags default to inactive.
func testBlocks(n int, fields ...field) bit.Bits {
	b := bit.NewBuffer(n * BlockBits)
	for _, i := range []int{fsEmergency, fsLoneWorker, fsPaging, fsEOT} {
		b.Load(i, 1, 1)
	}
	for _, f := range fields {
		b.Load(f.offset, f.width, f.value)
	}
	for i := 0; i < n; i++ {
		mpt.Encode(b, i*BlockBits)
	}
	return b.Bits()
}

func testFrame(blocks bit.Bits) bit.Bits {
	return append(append(bit.Bits{1, 0, 1, 0, 1}, bit.NewBitsFromUint(Sync, SyncBits)...), blocks...)
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

func TestKey(t *testing.T) {
	var tests = []struct {
		fields []field
		want   uint8
	}{
		{nil, TypeUnknown},
		{[]field{{fsANI, 1, 1}}, TypeANI},
		{[]field{{fsStatusFlag, 1, 1}}, TypeStatus},
		{[]field{{fsStatusFlag, 1, 1}, {fsGPS, 1, 1}}, TypeGPS},
		{[]field{{fsGPS, 1, 1}}, TypeGPS},
		{[]field{{fsAcknowledge, 1, 1}, {fsANI, 1, 1}}, TypeAcknowledge},
		{[]field{{fsPaging, 1, 0}}, TypePaging},
		{[]field{{fsEmergency, 1, 0}}, TypeEmergency},
		{[]field{{fsEmergency, 1, 0}, {fsLoneWorker, 1, 0}}, TypeLoneWorkerEmergency},
	}
	for _, test := range tests {
		buf := bit.NewBufferFromBits(testBlocks(1, test.fields...))
		if got := Key(buf); got != test.want {
			t.Errorf("%v: got %s, want %s", test.fields, TypeName[got], TypeName[test.want])
		}
	}
}

func TestBlocks(t *testing.T) {
	var tests = []struct {
		fields []field
		want   int
	}{
		{nil, 1},
		{[]field{{fsFleetExt, 1, 1}}, 2},
		{[]field{{fsGPS, 1, 1}}, MaxBlocks},
		{[]field{{fsGPS, 1, 1}, {fsFleetExt, 1, 1}}, MaxBlocks},
	}
	for _, test := range tests {
		if got := Blocks(bit.NewBufferFromBits(testBlocks(1, test.fields...))); got != test.want {
			t.Errorf("%v: got %d, want %d", test.fields, got, test.want)
		}
	}
}

func TestDecodeANI(t *testing.T) {
	ani := testFrame(testBlocks(1, field{fsANI, 1, 1}, field{16, 8, 1}, field{24, 12, 1}, field{36, 12, 2}))
	// Corrected single bit error.
	ani[HeaderBits+20].Flip()

	msgs := testDecode(t, ani)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	c, ok := msgs[0].(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", msgs[0])
	}
	if !c.Valid() || c.CorrectedBits() != 1 || c.Name() != "ANI" || c.From() != "100-1000" {
		t.Fatalf("ani: %s", c)
	}
	if c.Emergency || c.Paging || c.EOT {
		t.Fatalf("active low flags: %+v", c)
	}
	ids := c.Identifiers()
	if id, ok := identifier.Find(ids, identifier.Radio, identifier.From); !ok || id.Text != "100-1000" {
		t.Fatalf("identifiers: %v", ids)
	}
	if _, ok := identifier.Find(ids, identifier.Radio, identifier.To); ok {
		t.Fatalf("ANI with called unit: %v", ids)
	}
}

func TestDecodeUncorrectable(t *testing.T) {
	ani := testFrame(testBlocks(1, field{fsANI, 1, 1}, field{16, 8, 1}, field{24, 12, 1}, field{36, 12, 2}))
	ani[HeaderBits+20].Flip()
	ani[HeaderBits+22].Flip()

	msgs := testDecode(t, ani)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	c, ok := msgs[0].(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", msgs[0])
	}
	if c.Valid() || c.Outcome() != crc.OutcomeFailed || c.Name() != "ANI" {
		t.Fatalf("ani: %s (%s)", c, c.Outcome())
	}
	if c.FleetFrom != 110 || c.IdentFrom != 1000 {
		t.Fatalf("fields: fleet %d ident %d", c.FleetFrom, c.IdentFrom)
	}
}

func TestDecodeStatusFleetExtension(t *testing.T) {
	msgs := testDecode(t, testFrame(testBlocks(2,
		field{fsStatusFlag, 1, 1}, field{fsFleetExt, 1, 1}, field{0, 1, 1}, field{2, 1, 1},
		field{16, 8, 10}, field{24, 12, 20}, field{36, 12, 30}, field{64, 8, 40})))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	c := msgs[0].(*Call)
	if !c.Valid() || c.TypeCode() != uint32(TypeStatus) {
		t.Fatalf("status: %s", c)
	}
	// Status bits 0-6 read 1111011 with the inactive flags.
	if c.Status != 0x7b+StatusOffset || c.FleetTo != 139 || c.To() != "139-1029" || c.From() != "109-1019" {
		t.Fatalf("status: %s", c)
	}
	if id, ok := identifier.Find(c.Identifiers(), identifier.Status, identifier.Any); !ok || id.Value != uint64(c.Status) {
		t.Fatalf("identifiers: %v", c.Identifiers())
	}
}

func TestDecodeGPS(t *testing.T) {
	msgs := testDecode(t, testFrame(testBlocks(MaxBlocks,
		field{fsGPS, 1, 1}, field{16, 8, 1}, field{24, 12, 1}, field{36, 12, 5},
		field{151, 5, 12}, field{156, 6, 34}, field{162, 6, 56},
		field{200, 16, 5222}, field{217, 14, 5000},
		field{264, 7, 14}, field{271, 4, 6}, field{275, 5, 14},
		field{280, 16, 453}, field{297, 7, 10},
		field{333, 12, 1234}, field{463, 8, 50}, field{471, 8, 128})))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	g, ok := msgs[0].(*GPSReport)
	if !ok {
		t.Fatalf("expected *GPSReport, got %T", msgs[0])
	}
	if !g.Valid() {
		t.Fatalf("gps: %s", g)
	}
	if math.Abs(g.Latitude-52.375) > 1e-9 {
		t.Errorf("latitude: got %f", g.Latitude)
	}
	if want := -(4 + 53.0/60 + 1280.0/600000); math.Abs(g.Longitude-want) > 1e-9 {
		t.Errorf("longitude: got %f, want %f", g.Longitude, want)
	}
	if g.Heading != 123.4 || g.Speed != 50.5 {
		t.Errorf("heading %f speed %f", g.Heading, g.Speed)
	}
	if want := time.Date(2014, time.June, 15, 12, 34, 56, 0, time.UTC); !g.Time.Equal(want) {
		t.Errorf("time: got %s, want %s", g.Time, want)
	}
	if _, ok := identifier.Find(g.Identifiers(), identifier.Location, identifier.From); !ok {
		t.Fatalf("identifiers: %v", g.Identifiers())
	}
}

func TestDecodeTruncatedGPS(t *testing.T) {
	// The frame ends after three blocks.
	frame := testFrame(testBlocks(MaxBlocks, field{fsGPS, 1, 1}))
	msgs := testDecode(t, frame[:HeaderBits+3*BlockBits])
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}

	d := NewDecoder()
	msgs = d.Decode(framer.Frame{Buffer: bit.NewBufferFromBits(frame[:HeaderBits+3*BlockBits])})
	if len(msgs) != 1 || msgs[0].Valid() {
		t.Fatalf("expected one invalid message, got %v", msgs)
	}
}

func TestRegistry(t *testing.T) {
	for code := range TypeName {
		m := registry.Decode(code, bit.NewBuffer(BlockBits), message.Context{})
		if m == nil {
			t.Fatalf("%s: nil message", TypeName[code])
		}
		if _, unknown := m.(*message.Unknown); unknown != (code == TypeUnknown) {
			t.Errorf("%s: got %T", TypeName[code], m)
		}
	}
}
