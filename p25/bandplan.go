package p25

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// BandUpdater is implemented by messages that announce a band plan entry.
type BandUpdater interface {
	Band() identifier.Band
}

var (
	idenID       = bit.Indices(16, 19)
	idenSpacing  = bit.Indices(38, 47)
	idenBase     = bit.Indices(48, 79)
	idenBW       = bit.Indices(20, 28)
	idenSign     = 29
	idenOffset   = bit.Indices(30, 37)
	idenVUBW     = bit.Indices(20, 23)
	idenType     = bit.Indices(20, 23)
	idenSignVU   = 24
	idenOffsetVU = bit.Indices(25, 37)
)

// Channel types announced by IDEN_UP_TDMA: bandwidth and slots per carrier.
var channelTypes = map[uint8]struct {
	Bandwidth uint64
	Slots     int
}{
	0x0: {6250, 1},
	0x1: {12500, 1},
	0x2: {6250, 1},
	0x3: {12500, 2},
	0x4: {25000, 4},
	0x5: {12500, 3},
}

// IdentifierUpdateMessage announces a band plan entry.
type IdentifierUpdateMessage struct {
	Block
	band identifier.Band
}

func (m *IdentifierUpdateMessage) Band() identifier.Band { return m.band }

func (m *IdentifierUpdateMessage) Identifiers() []identifier.Identifier { return nil }

func (m *IdentifierUpdateMessage) String() string {
	return fmt.Sprintf("NAC %03X %s %s", m.NAC, m.Name(), m.band)
}

func baseFrequency(buf *bit.Buffer) uint64 { return uint64(buf.Int(idenBase)) * 5 }
func spacing(buf *bit.Buffer) uint64       { return uint64(buf.Int(idenSpacing)) * 125 }

// offset is the signed transmit offset. The sign bit set means positive.
func offset(positive bool, v int64) int64 {
	if positive {
		return v
	}
	return -v
}

func newIdentifierUpdate(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &IdentifierUpdateMessage{
		Block: newBlock(h, ctx),
		band: identifier.Band{
			ID:        uint8(buf.Int(idenID)),
			Base:      baseFrequency(buf),
			Spacing:   spacing(buf),
			Offset:    offset(buf.Flag(idenSign), int64(buf.Int(idenOffset))*250000),
			Bandwidth: uint64(buf.Int(idenBW)) * 125,
			Slots:     1,
		},
	}
}

func newIdentifierUpdateVUHF(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	var bandwidth uint64
	switch buf.Int(idenVUBW) {
	case 0x4:
		bandwidth = 6250
	case 0x5:
		bandwidth = 12500
	}
	return &IdentifierUpdateMessage{
		Block: newBlock(h, ctx),
		band: identifier.Band{
			ID:        uint8(buf.Int(idenID)),
			Base:      baseFrequency(buf),
			Spacing:   spacing(buf),
			Offset:    offset(buf.Flag(idenSignVU), int64(buf.Int(idenOffsetVU))*int64(spacing(buf))),
			Bandwidth: bandwidth,
			Slots:     1,
		},
	}
}

func newIdentifierUpdateTDMA(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	kind, ok := channelTypes[uint8(buf.Int(idenType))]
	if !ok {
		kind.Bandwidth, kind.Slots = 12500, 1
	}
	return &IdentifierUpdateMessage{
		Block: newBlock(h, ctx),
		band: identifier.Band{
			ID:        uint8(buf.Int(idenID)),
			Base:      baseFrequency(buf),
			Spacing:   spacing(buf),
			Offset:    offset(buf.Flag(idenSignVU), int64(buf.Int(idenOffsetVU))*int64(spacing(buf))),
			Bandwidth: kind.Bandwidth,
			Slots:     kind.Slots,
		},
	}
}
