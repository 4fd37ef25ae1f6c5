package fleetsync

import (
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/mpt"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

var log = logging.MustGetLogger("lmr/fleetsync")

// PatternName is the framer pattern name of the Fleetsync II sync.
const PatternName = "fleetsync"

// Decoder turns Fleetsync II frames into messages.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Pattern returns the framer pattern. Frames start with block 1 and are extended to
// the blocks its flags announce.
func (d *Decoder) Pattern() *framer.Pattern {
	return &framer.Pattern{
		Name:      PatternName,
		Protocol:  Protocol,
		Value:     Sync,
		Width:     SyncBits,
		Tolerance: SyncTolerance,
		Lead:      PreambleBits,
		Length:    HeaderBits + BlockBits,
		Extend:    FrameLength,
	}
}

// FrameLength returns the frame length announced by block 1. Frames with a damaged
// first block end after it.
func FrameLength(frame *bit.Buffer) int {
	if frame.Size() < HeaderBits+BlockBits {
		return frame.Size()
	}
	block := frame.Slice(HeaderBits, HeaderBits+BlockBits)
	if !mpt.Correct(block, 0).Valid() {
		return frame.Size()
	}
	return HeaderBits + Blocks(block)*BlockBits
}

// Decode returns the message carried by a frame. Blocks beyond the first are only
// checked when block 1 is valid.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	raw := frame.Buffer
	if raw.Size() < HeaderBits+BlockBits {
		return nil
	}
	var (
		n   = (raw.Size() - HeaderBits) / BlockBits
		buf = raw.Slice(HeaderBits, HeaderBits+n*BlockBits)
		ctx = message.Context{Timestamp: time.Now()}
	)

	// A damaged block 1 is still decoded, from the bits as received.
	o := mpt.Correct(buf, 0)
	if !o.Valid() {
		buf.SetOutcome(o)
		return []message.Message{registry.Decode(Key(buf), buf, ctx)}
	}
	if want := Blocks(buf); n < want {
		log.Debugf("%d of %d blocks received", n, want)
		o = o.Merge(crc.OutcomeFailed)
	} else {
		n = want
	}
	for i := 1; i < n; i++ {
		o = o.Merge(mpt.Correct(buf, i*BlockBits))
	}
	buf.SetOutcome(o)
	return []message.Message{registry.Decode(Key(buf), buf, ctx)}
}
