package dmr

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

func testDataHeader(format uint8, fields ...field) message.Message {
	buf := bit.NewBuffer(BlockDataBits)
	buf.Load(4, 4, uint64(format))
	buf.Load(16, 24, 91)
	buf.Load(40, 24, 2042214)
	for _, f := range fields {
		buf.Load(f.offset, f.width, f.value)
	}
	block := DecodeBlock(EncodeBlock(buf.Bits(), DataHeaderMask), DataHeaderMask)
	return DecodeDataHeader(block, message.Context{Slot: 2, AccessCode: 1})
}

func TestDataBlock(t *testing.T) {
	for _, dt := range []DataType{Rate12Data, Rate34Data, Rate1Data} {
		data := make([]byte, DataBlockLength(dt, true))
		for i := range data {
			data[i] = byte(i*7 + 1)
		}
		info := EncodeDataBlock(dt, 5, data, true)
		if len(info) != InfoBits {
			t.Fatalf("%s: expected %d bits, got %d", dt, InfoBits, len(info))
		}
		b := DecodeDataBlock(dt, info, true)
		if !b.Outcome.Valid() || b.Serial != 5 || !bytes.Equal(b.Data, data) {
			t.Fatalf("%s: block %+v", dt, b)
		}

		u := DecodeDataBlock(dt, EncodeDataBlock(dt, 0, make([]byte, DataBlockLength(dt, false)), false), false)
		if len(u.Data) != DataBlockLength(dt, false) {
			t.Fatalf("%s: unconfirmed block of %d octets", dt, len(u.Data))
		}
	}

	// Rate 1 data has no FEC, the CRC-9 catches the error.
	data := make([]byte, DataBlockLength(Rate1Data, true))
	info := EncodeDataBlock(Rate1Data, 1, data, true)
	info[30].Flip()
	if b := DecodeDataBlock(Rate1Data, info, true); b.Outcome.Valid() {
		t.Fatalf("outcome: %s", b.Outcome)
	}
}

func TestDataHeader(t *testing.T) {
	m := testDataHeader(PacketFormatConfirmedData,
		field{0, 1, 1}, field{3, 1, 1}, field{12, 4, 2}, field{65, 7, 3}, field{73, 3, 5}, field{76, 4, 9})
	h, ok := m.(*ConfirmedHeader)
	if !ok {
		t.Fatalf("expected *ConfirmedHeader, got %T", m)
	}
	if !h.Valid() || !h.Group || !h.Confirmed || h.Blocks != 3 || h.Pad != 0x12 {
		t.Fatalf("header: %+v", h.PacketHeader)
	}
	if h.SendSequenceNumber != 5 || h.FragmentSequenceNumber != 9 || h.Slot != 2 {
		t.Fatalf("header: %s", h)
	}
	if _, ok := identifier.Find(h.Identifiers(), identifier.Talkgroup, identifier.To); !ok {
		t.Fatal("talkgroup identifier missing")
	}

	m = testDataHeader(PacketFormatResponse, field{65, 7, 0}, field{72, 5, uint64(ResponseTypePacketCRCFailed)})
	r, ok := m.(*ResponseHeader)
	if !ok {
		t.Fatalf("expected *ResponseHeader, got %T", m)
	}
	if r.ClassType != ResponseTypePacketCRCFailed || r.Blocks != 0 {
		t.Fatalf("response: %s", r)
	}
	if NewPacket(r) != nil {
		t.Fatal("packet started without blocks")
	}

	m = testDataHeader(PacketFormatUDT, field{12, 4, uint64(UDTFormatISO7BitChars)}, field{70, 2, 1}, field{74, 6, 0x1f})
	u, ok := m.(*UDTHeader)
	if !ok {
		t.Fatalf("expected *UDTHeader, got %T", m)
	}
	if u.UDTFormat != UDTFormatISO7BitChars || u.Blocks != 2 || u.Opcode != 0x1f {
		t.Fatalf("udt: %s", u)
	}
}

func testPacket(t *testing.T, header message.Message, dt DataType, blocks []bit.Bits) *PacketData {
	t.Helper()
	p := NewPacket(header)
	if p == nil {
		t.Fatal("no packet for header")
	}
	for i, block := range blocks {
		m := p.Add(dt, block, time.Time{})
		if i < len(blocks)-1 {
			if m != nil {
				t.Fatalf("packet complete after %d of %d blocks", i+1, len(blocks))
			}
			continue
		}
		if m == nil || !p.Done() {
			t.Fatal("packet not complete")
		}
		return m
	}
	return nil
}

func TestPacketShortData(t *testing.T) {
	payload, err := EncodeText(DDFormat8BitISO8859_1, "CQCQCQ PD0MZ")
	if err != nil {
		t.Fatal(err)
	}
	blocks, pad := EncodePacket(Rate12Data, false, payload)
	if len(blocks) != 2 || pad != 8 {
		t.Fatalf("got %d blocks and %d pad octets", len(blocks), pad)
	}
	header := testDataHeader(PacketFormatShortDataDefined,
		field{12, 4, uint64(len(blocks))}, field{64, 6, uint64(DDFormat8BitISO8859_1)}, field{71, 1, 1}, field{72, 8, uint64(pad * 8)})

	m := testPacket(t, header, Rate12Data, blocks)
	if !m.Valid() {
		t.Fatalf("packet: %s", m)
	}
	if !bytes.Equal(m.Payload, payload) || m.Text != "CQCQCQ PD0MZ" {
		t.Fatalf("payload %q text %q", m.Payload, m.Text)
	}
	if id, ok := identifier.Find(m.Identifiers(), identifier.Message, identifier.Any); !ok || id.Text != m.Text {
		t.Fatalf("identifiers: %v", m.Identifiers())
	}
}

func TestPacketConfirmed(t *testing.T) {
	payload := []byte("confirmed rate 3/4 packet data payload")
	blocks, pad := EncodePacket(Rate34Data, true, payload)
	header := testDataHeader(PacketFormatConfirmedData,
		field{3, 1, uint64(pad >> 4)}, field{12, 4, uint64(pad & 0x0f)}, field{65, 7, uint64(len(blocks))})

	m := testPacket(t, header, Rate34Data, blocks)
	if !m.Valid() || !bytes.Equal(m.Payload, payload) || m.Text != "" {
		t.Fatalf("packet: %s", m)
	}

	// A block from another packet fails the packet CRC.
	other, _ := EncodePacket(Rate34Data, true, bytes.ToUpper(payload))
	blocks[1] = other[1]
	if m := testPacket(t, header, Rate34Data, blocks); m.Valid() {
		t.Fatalf("outcome: %s", m.Outcome())
	}
}

func TestText(t *testing.T) {
	var tests = []struct {
		format uint8
		text   string
	}{
		{DDFormatBCD, "12345"},
		{DDFormat7BitChar, "PD0MZ"},
		{DDFormat8BitISO8859_1, "José"},
		{DDFormat8BitISO8859_7, "Ελλάδα"},
		{DDFormatUTF8, "Zoë"},
		{DDFormatUTF16, "Zoë"},
		{DDFormatUTF16BE, "PD0MZ"},
		{DDFormatUTF16LE, "PD0MZ"},
		{DDFormatUTF32LE, "Zoë"},
	}
	for _, test := range tests {
		data, err := EncodeText(test.format, test.text)
		if err != nil {
			t.Fatalf("%s: %v", DDFormatName[test.format], err)
		}
		got, err := DecodeText(test.format, data)
		if err != nil {
			t.Fatalf("%s: %v", DDFormatName[test.format], err)
		}
		if got != test.text {
			t.Errorf("%s: got %q, want %q", DDFormatName[test.format], got, test.text)
		}
	}

	if _, err := DecodeText(DDFormatBinary, []byte{1}); !errors.Is(err, ErrNoText) {
		t.Fatalf("binary: %v", err)
	}
	if _, err := EncodeText(DDFormatBCD, "12a"); err == nil {
		t.Fatal("expected error for non digit")
	}
}
