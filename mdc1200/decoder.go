package mdc1200

import (
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

var log = logging.MustGetLogger("lmr/mdc1200")

// PatternName is the framer pattern name of the MDC-1200 sync.
const PatternName = "mdc1200"

// Decoder turns MDC-1200 frames into messages.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Pattern returns the framer pattern. Frames hold one block and are extended to two
// for double packet opcodes.
func (d *Decoder) Pattern() *framer.Pattern {
	return &framer.Pattern{
		Name:      PatternName,
		Protocol:  Protocol,
		Value:     Sync,
		Width:     SyncBits,
		Tolerance: SyncTolerance,
		Length:    FrameBits,
		Extend:    FrameLength,
	}
}

// FrameLength returns the frame length for the opcode of the first block.
func FrameLength(frame *bit.Buffer) int {
	if frame.Size() < FrameBits {
		return frame.Size()
	}
	buf := DecodeBlock(frame.Slice(SyncBits, FrameBits).Bits())
	if buf.Outcome().Valid() && Double(Op(buf)) {
		return DoubleBits
	}
	return frame.Size()
}

// Decode returns the packet carried by a frame. A double packet without a valid second
// block is delivered invalid.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	raw := frame.Buffer
	if raw.Size() < FrameBits {
		return nil
	}
	buf := DecodeBlock(raw.Slice(SyncBits, FrameBits).Bits())

	var cont *bit.Buffer
	if buf.Outcome().Valid() && Double(Op(buf)) {
		if raw.Size() < DoubleBits {
			log.Debugf("opcode %02X without second block", Op(buf))
			buf.SetOutcome(buf.Outcome().Merge(crc.OutcomeFailed))
		} else {
			cont = DecodeBlock(raw.Slice(FrameBits, DoubleBits).Bits())
			buf.SetOutcome(buf.Outcome().Merge(cont.Outcome()))
		}
	}
	return []message.Message{decode(buf, cont, message.Context{Timestamp: time.Now()})}
}
