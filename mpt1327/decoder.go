package mpt1327

import (
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc/mpt"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/message"
)

var log = logging.MustGetLogger("lmr/mpt1327")

// Pattern names.
const (
	ControlPatternName = "mpt1327 control"
	TrafficPatternName = "mpt1327 traffic"
)

// Decoder turns MPT-1327 frames into messages and remembers the system identity code
// of the site. It is not safe for concurrent use.
type Decoder struct {
	system    uint16
	hasSystem bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// System returns the last system identity code seen on the channel.
func (d *Decoder) System() (uint16, bool) { return d.system, d.hasSystem }

// Patterns returns the control and traffic channel sync patterns. Frames start with
// the address codeword and are extended with the data codewords its type uses.
func (d *Decoder) Patterns() []*framer.Pattern {
	var patterns []*framer.Pattern
	for _, p := range []struct {
		name  string
		value uint64
	}{
		{ControlPatternName, ControlSync},
		{TrafficPatternName, TrafficSync},
	} {
		patterns = append(patterns, &framer.Pattern{
			Name:      p.name,
			Protocol:  Protocol,
			Value:     p.value,
			Width:     SyncBits,
			Tolerance: SyncTolerance,
			Lead:      PreambleBits,
			Length:    HeaderBits + CodewordBits,
			Extend:    FrameLength,
		})
	}
	return patterns
}

// FrameLength returns the frame length for the message type of the address codeword.
func FrameLength(frame *bit.Buffer) int {
	if frame.Size() < HeaderBits+CodewordBits {
		return frame.Size()
	}
	cw := frame.Slice(HeaderBits, HeaderBits+CodewordBits)
	if !mpt.Correct(cw, 0).Valid() {
		return frame.Size()
	}
	return HeaderBits + Codewords(Key(cw))*CodewordBits
}

// Decode returns the message carried by a frame. Data codewords used by the message
// type are passed to the constructor as continuation. A message whose address
// codeword fails its check is still decoded, but is not valid.
func (d *Decoder) Decode(frame framer.Frame) []message.Message {
	raw := frame.Buffer
	if raw.Size() < HeaderBits+CodewordBits {
		return nil
	}
	var (
		cw  = raw.Slice(HeaderBits, HeaderBits+CodewordBits)
		ctx = message.Context{Timestamp: time.Now()}
	)
	cw.SetOutcome(mpt.Correct(cw, 0))
	key := Key(cw)

	// Frames with a damaged address codeword end after it, so data codewords are only
	// attached to valid ones.
	if n := Codewords(key) - 1; n > 0 && cw.Outcome().Valid() {
		end := HeaderBits + (n+1)*CodewordBits
		if end > raw.Size() {
			log.Debugf("%d of %d data codewords received", (raw.Size()-HeaderBits)/CodewordBits-1, n)
			end = raw.Size() - (raw.Size()-HeaderBits)%CodewordBits
		}
		if end > HeaderBits+CodewordBits {
			cont := raw.Slice(HeaderBits+CodewordBits, end)
			cont.SetOutcome(CorrectCodewords(cont, n))
			cw.SetOutcome(cw.Outcome().Merge(cont.Outcome()))
			ctx.Continuation = cont
		}
	}

	m := registry.Decode(key, cw, ctx)
	switch v := m.(type) {
	case *Aloha:
		if v.Valid() && v.HasSystem {
			d.system, d.hasSystem = v.System, true
		}
	case *Broadcast:
		if v.Valid() {
			d.system, d.hasSystem = v.System, true
		}
	}
	return []message.Message{m}
}
