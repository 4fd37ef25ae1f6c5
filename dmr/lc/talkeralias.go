package lc

import (
	"fmt"
	"unicode/utf8"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Data Format
// ref: ETSI TS 102 361-2 7.2.18
const (
	Format7Bit uint8 = iota
	FormatISO8Bit
	FormatUTF8
	FormatUTF16BE
)

// DataFormatName is a map of data format to string.
var DataFormatName = map[uint8]string{
	Format7Bit:    "7 bit",
	FormatISO8Bit: "ISO 8 bit",
	FormatUTF8:    "unicode utf-8",
	FormatUTF16BE: "unicode utf-16be",
}

var (
	aliasFormat = bit.Indices(16, 17)
	aliasLength = bit.Indices(18, 22)
)

// Alias data starts at bit 23 in the header, the first bit is only used by the
// 7 bit format. Blocks carry 7 octets each.
const (
	aliasHeaderData = 23
	aliasBlockData  = 16
)

// TalkerAliasHeaderPDU Conforms to ETSI TS 102 361-2 7.1.1.4
type TalkerAliasHeaderPDU struct {
	LC
	DataFormat uint8
	Length     uint8
	Data       bit.Bits
}

func newTalkerAliasHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &TalkerAliasHeaderPDU{
		LC:         newLC(h, ctx),
		DataFormat: uint8(buf.Int(aliasFormat)),
		Length:     uint8(buf.Int(aliasLength)),
		Data:       buf.Slice(aliasHeaderData, Bits).Bits(),
	}
}

func (m *TalkerAliasHeaderPDU) String() string {
	return fmt.Sprintf("%s format %s length %d", describe(m.LC, m), DataFormatName[m.DataFormat], m.Length)
}

// TalkerAliasBlockPDU Conforms to ETSI TS 102 361-2 7.1.1.5
type TalkerAliasBlockPDU struct {
	LC
	Block int
	Data  bit.Bits
}

func newTalkerAliasBlock(h message.Header, ctx message.Context) message.Message {
	l := newLC(h, ctx)
	return &TalkerAliasBlockPDU{
		LC:    l,
		Block: int(l.Opcode-TalkerAliasHeader) & 3,
		Data:  h.Buffer().Slice(aliasBlockData, Bits).Bits(),
	}
}

func (m *TalkerAliasBlockPDU) String() string {
	return fmt.Sprintf("%s block %d", describe(m.LC, m), m.Block)
}

// EncodeTalkerAlias returns the header and blocks carrying text. Formats other than
// 7 bit are sent as octets, UTF-16 text must be passed as its big endian octets.
func EncodeTalkerAlias(format uint8, text []byte, chars int) []bit.Bits {
	var data bit.Bits
	if format == Format7Bit {
		for _, c := range text {
			data = append(data, bit.NewBitsFromUint(uint64(c&0x7f), 7)...)
		}
	} else {
		data = append(bit.Bits{0}, bit.NewBits(text)...)
	}
	var o []bit.Bits
	for opcode := TalkerAliasHeader; opcode <= TalkerAliasBlk3 && len(data) > 0; opcode++ {
		buf := bit.NewBuffer(Bits)
		buf.Load(2, 6, uint64(opcode))
		offset := aliasBlockData
		if opcode == TalkerAliasHeader {
			buf.Load(16, 2, uint64(format))
			buf.Load(18, 5, uint64(chars))
			offset = aliasHeaderData
		}
		room := Bits - offset
		if room > len(data) {
			room = len(data)
		}
		for i, b := range data[:room] {
			if b == 1 {
				buf.Set(offset + i)
			}
		}
		data = data[room:]
		o = append(o, buf.Bits())
	}
	return o
}

// Alias reassembles the talker alias text of a call from its header and blocks.
type Alias struct {
	header *TalkerAliasHeaderPDU
	blocks [3]bit.Bits
	done   bool
}

// Reset drops the collected parts, for a new call.
func (a *Alias) Reset() {
	*a = Alias{}
}

// Add collects a valid talker alias PDU. It returns the alias message once the
// header and enough blocks for the announced length were received, once per alias.
func (a *Alias) Add(m message.Message, source uint32, ctx message.Context) *TalkerAlias {
	if !m.Valid() {
		return nil
	}
	switch m := m.(type) {
	case *TalkerAliasHeaderPDU:
		if a.header != nil && a.header.Length == m.Length && a.header.Data.Equal(m.Data) {
			// Repeated header of the alias already collected.
			return nil
		}
		a.header = m
		a.done = false
	case *TalkerAliasBlockPDU:
		if m.Block < 1 || m.Block > 3 {
			return nil
		}
		a.blocks[m.Block-1] = m.Data
	default:
		return nil
	}
	if a.header == nil || a.done {
		return nil
	}

	text, ok := a.text()
	if !ok {
		return nil
	}
	a.done = true
	return newTalkerAlias(text, source, a.header.LC, ctx)
}

func (a *Alias) text() (string, bool) {
	var (
		h    = a.header
		data = append(bit.Bits(nil), h.Data...)
		all  = true
	)
	if h.DataFormat != Format7Bit {
		data = data[1:]
	}
	for _, b := range a.blocks {
		if b == nil {
			all = false
			break
		}
		data = append(data, b...)
	}

	var (
		n    = int(h.Length)
		buf  = bit.NewBufferFromBits(data)
		need int
	)
	switch h.DataFormat {
	case Format7Bit:
		need = n * 7
	case FormatUTF16BE:
		need = n * 16
	default:
		need = n * 8
	}
	if len(data) < need && !all {
		return "", false
	}

	switch h.DataFormat {
	case Format7Bit:
		return buf.ISO7(0, min(n, len(data)/7)), true
	case FormatISO8Bit:
		return buf.ISO8(0, min(n, len(data)/8)), true
	case FormatUTF16BE:
		return buf.UTF16(0, min(n, len(data)/16)), true
	default:
		s := buf.UTF8(0, len(data)/8)
		for utf8.RuneCountInString(s) > n {
			_, size := utf8.DecodeLastRuneInString(s)
			s = s[:len(s)-size]
		}
		return s, true
	}
}

// TalkerAlias is the alias text reassembled from a talker alias header and its blocks.
type TalkerAlias struct {
	LC
	Source uint32
	Text   string
}

func newTalkerAlias(text string, source uint32, l LC, ctx message.Context) *TalkerAlias {
	buf := bit.NewBuffer(0)
	buf.SetOutcome(crc.OutcomePassed)
	l.Header = message.NewHeader(lmr.DMR, uint32(Key(StandardFID, TalkerAliasHeader)), "TALKER_ALIAS", buf, ctx.Timestamp)
	return &TalkerAlias{LC: l, Source: source, Text: text}
}

func (m *TalkerAlias) Identifiers() []identifier.Identifier {
	var ids = []identifier.Identifier{identifier.NewText(lmr.DMR, identifier.Alias, identifier.From, m.Text)}
	if m.Source != 0 {
		ids = append(ids, radio(identifier.From, m.Source))
	}
	return ids
}

func (m *TalkerAlias) String() string { return describe(m.LC, m) }
