// Package lj1200 decodes LJ-1200 stolen vehicle recovery transponder and tower
// messages.
package lj1200

import (
	"fmt"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.LJ1200

const (
	Sync          uint64 = 0x550f
	SyncBits             = 16
	SyncTolerance        = 1
	PayloadBits          = 64
	FrameBits            = SyncBits + PayloadBits
)

// PatternName is the framer pattern name of the LJ-1200 sync.
const PatternName = "lj1200"

// Payload fields.
var (
	ljFunction = bit.Indices(0, 3)
	ljAddress  = bit.Indices(4, 23)
	ljTower    = bit.Indices(24, 39)
	ljReserved = bit.Indices(40, 55)
)

const crcOffset = 56

// Function codes.
const (
	FunctionReply       uint8 = 0x1
	FunctionSpeedUp     uint8 = 0x2
	FunctionTransponder uint8 = 0x3
	FunctionSite        uint8 = 0x8
)

var registry = message.NewRegistry[uint8](Protocol,
	message.Entry[uint8]{Code: FunctionReply, Name: "REPLY", New: newMessage},
	message.Entry[uint8]{Code: FunctionSpeedUp, Name: "SPEED UP", New: newMessage},
	message.Entry[uint8]{Code: FunctionTransponder, Name: "TRANSPONDER", New: newMessage},
	message.Entry[uint8]{Code: FunctionSite, Name: "SITE", New: newMessage},
)

// Registry returns the message registry keyed by function code.
func Registry() *message.Registry[uint8] { return registry }

// Message is an LJ-1200 message. Transponder functions address a vehicle unit, the
// others are sent by a tower.
type Message struct {
	message.Header
	Function uint8
	Address  uint32
	Tower    uint16
	Reserved uint16
}

func newMessage(h message.Header, _ message.Context) message.Message {
	buf := h.Buffer()
	return &Message{
		Header:   h,
		Function: uint8(buf.Int(ljFunction)),
		Address:  buf.Int(ljAddress),
		Tower:    uint16(buf.Int(ljTower)),
		Reserved: uint16(buf.Int(ljReserved)),
	}
}

// AddressHex returns the address as the five hex digits printed on the unit.
func (m *Message) AddressHex() string { return fmt.Sprintf("%05X", m.Address) }

// Transponder reports if the message was sent by or to a vehicle unit.
func (m *Message) Transponder() bool {
	return m.Function == FunctionTransponder || m.Function == FunctionReply
}

func (m *Message) Identifiers() []identifier.Identifier {
	if m.Transponder() {
		return []identifier.Identifier{identifier.NewText(Protocol, identifier.Radio, identifier.Any, m.AddressHex())}
	}
	return []identifier.Identifier{identifier.New(Protocol, identifier.Site, identifier.Broadcast, uint64(m.Tower))}
}

func (m *Message) String() string {
	return fmt.Sprintf("%s address %s tower %04X", m.Header.String(), m.AddressHex(), m.Tower)
}

// Encode returns the payload for a message, CRC included.
func Encode(function uint8, address uint32, tower uint16) bit.Bits {
	buf := bit.NewBuffer(PayloadBits)
	buf.AppendUint(uint64(function), 4)
	buf.AppendUint(uint64(address), 20)
	buf.AppendUint(uint64(tower), 16)
	buf.AppendUint(0, 16)
	buf.AppendUint(uint64(crc.CRC8.Compute(buf, 0, crcOffset)), 8)
	return buf.Bits()
}

// Decoder turns LJ-1200 frames into messages.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Pattern() *framer.Pattern {
	return &framer.Pattern{
		Name:      PatternName,
		Protocol:  Protocol,
		Value:     Sync,
		Width:     SyncBits,
		Tolerance: SyncTolerance,
		Length:    FrameBits,
	}
}

func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	if frame.Buffer.Size() < FrameBits {
		return nil
	}
	buf := frame.Buffer.Slice(SyncBits, FrameBits)
	buf.SetOutcome(crc.CRC8.Check(buf, 0, crcOffset))
	return []message.Message{registry.Decode(uint8(buf.Int(ljFunction)), buf, message.Context{Timestamp: time.Now()})}
}
