package lc

import (
	"math"
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/dmr/lc/serviceoptions"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

func decode(data bit.Bits) message.Message {
	buf := bit.NewBufferFromBits(data)
	buf.SetOutcome(crc.OutcomePassed)
	return Decode(buf, message.Context{Slot: 2, AccessCode: 1})
}

func TestVoiceChannelUser(t *testing.T) {
	options := serviceoptions.ServiceOptions{Emergency: true, Priority: serviceoptions.Priority2}
	m := decode(EncodeVoiceChannelUser(true, options, 91, 2042214))
	u, ok := m.(*VoiceChannelUserPDU)
	if !ok {
		t.Fatalf("expected *VoiceChannelUserPDU, got %T", m)
	}
	if !u.Group || u.Target != 91 || u.Source != 2042214 || u.ServiceOptions != options {
		t.Fatalf("fields: %+v", u)
	}
	if u.Slot != 2 || u.ColorCode != 1 || u.Name() != "GRP_V_CH_USR" {
		t.Fatalf("context: %s", u)
	}
	if tg := identifier.Filter(u.Identifiers(), identifier.Talkgroup); len(tg) != 1 || tg[0].Value != 91 {
		t.Fatalf("talkgroup: %v", tg)
	}

	m = decode(EncodeVoiceChannelUser(false, serviceoptions.ServiceOptions{}, 2042215, 2042214))
	if u, ok := m.(*VoiceChannelUserPDU); !ok || u.Group || u.Name() != "UU_V_CH_USR" {
		t.Fatalf("unit to unit: %s", m)
	}
}

func TestProtected(t *testing.T) {
	data := EncodeVoiceChannelUser(true, serviceoptions.ServiceOptions{}, 91, 1)
	data[0] = 1
	if _, ok := decode(data).(*message.Unknown); !ok {
		t.Fatal("protected LC decoded")
	}
}

func TestRegistryTotality(t *testing.T) {
	buf := bit.NewBuffer(Bits)
	for fid := 0; fid < 256; fid++ {
		for flco := 0; flco < 64; flco++ {
			m := Registry().Decode(Key(uint8(fid), uint8(flco)), buf, message.Context{})
			if m == nil {
				t.Fatalf("fid %#02x flco %#02x: nil message", fid, flco)
			}
			_ = m.String()
		}
	}
}

func TestDecodeFull(t *testing.T) {
	data := EncodeVoiceChannelUser(true, serviceoptions.ServiceOptions{}, 91, 2042214)
	for _, test := range []struct {
		mask uint32
		flip int
		want crc.Outcome
	}{
		{VoiceLCHeaderMask, -1, crc.OutcomePassed},
		{TerminatorMask, -1, crc.OutcomePassed},
		{VoiceLCHeaderMask, 30, crc.CorrectedBy(1)},
		{TerminatorMask, 90, crc.CorrectedBy(1)},
	} {
		full := EncodeFull(data, test.mask)
		if len(full) != FullBits {
			t.Fatalf("expected %d bits, got %d", FullBits, len(full))
		}
		if test.flip >= 0 {
			full[test.flip].Flip()
		}
		buf := bit.NewBufferFromBits(full)
		buf.SetOutcome(crc.OutcomePassed)
		m := DecodeFull(buf, test.mask, message.Context{})
		if m.Outcome() != test.want {
			t.Fatalf("mask %#06x flip %d: got %s, want %s", test.mask, test.flip, m.Outcome(), test.want)
		}
		if u, ok := m.(*VoiceChannelUserPDU); !ok || u.Source != 2042214 {
			t.Fatalf("mask %#06x flip %d: %s", test.mask, test.flip, m)
		}
	}
}

func TestGpsInfo(t *testing.T) {
	m := decode(EncodeGpsInfo(ErrorLT20m, 52.0813, -4.3025))
	g, ok := m.(*GpsInfoPDU)
	if !ok {
		t.Fatalf("expected *GpsInfoPDU, got %T", m)
	}
	if g.PositionError != ErrorLT20m {
		t.Fatalf("error: got %d", g.PositionError)
	}
	if math.Abs(g.Latitude-52.0813) > 1e-4 || math.Abs(g.Longitude+4.3025) > 1e-4 {
		t.Fatalf("position: %f,%f", g.Latitude, g.Longitude)
	}
	if ids := identifier.Filter(g.Identifiers(), identifier.Location); len(ids) != 1 {
		t.Fatalf("identifiers: %v", g.Identifiers())
	}
}

func TestTalkerAlias(t *testing.T) {
	var tests = []struct {
		name   string
		format uint8
		text   []byte
		chars  int
		want   string
		parts  int
	}{
		{"7 bit", Format7Bit, []byte("PD0MZ"), 5, "PD0MZ", 1},
		{"7 bit long", Format7Bit, []byte("PD0MZ Maze 12"), 13, "PD0MZ Maze 12", 2},
		{"iso", FormatISO8Bit, []byte("Jos\xe9 Alvarez"), 12, "José Alvarez", 2},
		{"utf-8", FormatUTF8, []byte("Zoë"), 3, "Zoë", 1},
		{"utf-16", FormatUTF16BE, []byte{0x00, 0x50, 0x00, 0x44, 0x00, 0x30}, 3, "PD0", 1},
	}
	for _, test := range tests {
		parts := EncodeTalkerAlias(test.format, test.text, test.chars)
		if len(parts) != test.parts {
			t.Fatalf("%s: expected %d parts, got %d", test.name, test.parts, len(parts))
		}

		var (
			alias Alias
			got   *TalkerAlias
		)
		for i, part := range parts {
			got = alias.Add(decode(part), 2042214, message.Context{})
			if got != nil && i != len(parts)-1 {
				t.Fatalf("%s: complete after %d parts", test.name, i+1)
			}
		}
		if got == nil {
			t.Fatalf("%s: not complete", test.name)
		}
		if got.Text != test.want || got.Source != 2042214 {
			t.Fatalf("%s: got %q from %d", test.name, got.Text, got.Source)
		}
		if again := alias.Add(decode(parts[len(parts)-1]), 1, message.Context{}); again != nil {
			t.Fatalf("%s: alias returned twice", test.name)
		}
	}
}

func TestTalkerAliasBlocksFirst(t *testing.T) {
	parts := EncodeTalkerAlias(Format7Bit, []byte("PD0MZ Maze 12"), 13)
	var alias Alias
	if got := alias.Add(decode(parts[1]), 1, message.Context{}); got != nil {
		t.Fatal("complete without header")
	}
	got := alias.Add(decode(parts[0]), 1, message.Context{})
	if got == nil || got.Text != "PD0MZ Maze 12" {
		t.Fatalf("got %v", got)
	}
}
