package dmr

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/quadres_16_7"
	"github.com/pd0mz/go-lmr/vbptc"
)

// LCSS is the link control start/stop of an embedded fragment.
type LCSS uint8

const (
	SingleFragment LCSS = iota
	FirstFragment
	LastFragment
	Continuation
)

var LCSSName = map[LCSS]string{
	SingleFragment: "single fragment",
	FirstFragment:  "first fragment",
	LastFragment:   "last fragment",
	Continuation:   "continuation",
}

func (l LCSS) String() string { return LCSSName[l&3] }

// EMB contains embedded signalling.
type EMB struct {
	ColorCode uint8
	PI        bool
	LCSS      LCSS
	Outcome   crc.Outcome
}

// DecodeEMB decodes the quadratic residue (16, 7) protected EMB.
func DecodeEMB(bits bit.Bits) EMB {
	var cw = append(bit.Bits(nil), bits[:EMBBits]...)
	v, o := quadres_16_7.Decode(cw)
	return EMB{
		ColorCode: v >> 3,
		PI:        v&0x04 != 0,
		LCSS:      LCSS(v & 0x03),
		Outcome:   o,
	}
}

// EncodeEMB returns the 16 EMB bits.
func EncodeEMB(colorCode uint8, pi bool, lcss LCSS) bit.Bits {
	var v = colorCode<<3 | uint8(lcss&3)
	if pi {
		v |= 0x04
	}
	return bit.NewBitsFromUint(uint64(quadres_16_7.Encode(v)), EMBBits)
}

// EmbeddedSignal returns the 48 signal bits of a voice burst: the EMB around an LC
// fragment.
func EmbeddedSignal(emb, fragment bit.Bits) bit.Bits {
	var s = make(bit.Bits, 0, SignalBits)
	s = append(s, emb[:EMBHalfBits]...)
	s = append(s, fragment[:FragmentBits]...)
	return append(s, emb[EMBHalfBits:EMBBits]...)
}

func (emb EMB) String() string {
	return fmt.Sprintf("color code %d, %s (%d)", emb.ColorCode, emb.LCSS, uint8(emb.LCSS))
}

// Embedded collects the link control fragments carried in voice bursts B to E.
type Embedded struct {
	matrix    *vbptc.VBPTC
	fragments int
}

func NewEmbedded() *Embedded {
	return &Embedded{matrix: vbptc.New(vbptc.EmbeddedRows)}
}

// Reset drops collected fragments.
func (e *Embedded) Reset() {
	e.matrix.Clear()
	e.fragments = 0
}

// Add collects a fragment. It returns the 72 link control bits, outcome attached,
// when the last fragment completes the matrix.
func (e *Embedded) Add(lcss LCSS, fragment bit.Bits) (*bit.Buffer, bool) {
	switch lcss {
	case FirstFragment:
		e.Reset()
	case Continuation, LastFragment:
		if e.fragments == 0 {
			return nil, false
		}
	default:
		return nil, false
	}

	if err := e.matrix.AddBurst(fragment[:FragmentBits]); err != nil {
		e.Reset()
		return nil, false
	}
	e.fragments++
	if lcss != LastFragment {
		return nil, false
	}

	defer e.Reset()
	if !e.matrix.Full() {
		return nil, false
	}
	o, err := e.matrix.CheckAndRepair()
	lc, sum := vbptc.EmbeddedLC(e.matrix.GetData())
	buf := bit.NewBufferFromBits(lc)
	if err != nil {
		buf.SetOutcome(crc.OutcomeFailed)
	} else {
		buf.SetOutcome(o.Merge(sum))
	}
	return buf, true
}

// EncodeEmbedded splits 72 link control bits into the four fragments of bursts B
// to E.
func EncodeEmbedded(lc bit.Bits) []bit.Bits {
	var (
		all = vbptc.EncodeEmbeddedLC(lc)
		o   = make([]bit.Bits, 4)
	)
	for i := range o {
		o[i] = all[i*FragmentBits : (i+1)*FragmentBits]
	}
	return o
}
