package nxdn

import (
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/fec"
)

const tailBits = 4

// puncture drops the listed positions of every period code bits.
type puncture struct {
	period int
	drop   []int
}

func (p puncture) dropped(i int) bool {
	for _, d := range p.drop {
		if i%p.period == d {
			return true
		}
	}
	return false
}

// Coding is the channel coding of a control channel: CRC, K=5 rate 1/2 convolutional
// code with four tail bits, puncturing and a rows by columns block interleaver.
type Coding struct {
	Name     string
	Info     int // information bits, CRC included
	CRC      crc.Poly
	rows     int
	cols     int
	puncture puncture
}

var (
	SACCH  = Coding{Name: "SACCH", Info: 32, CRC: crc.NXDN6, rows: 12, cols: 5, puncture: puncture{12, []int{5, 11}}}
	FACCH1 = Coding{Name: "FACCH1", Info: 92, CRC: crc.NXDN12, rows: 16, cols: 9, puncture: puncture{4, []int{3}}}
	CACOut = Coding{Name: "CAC", Info: 171, CRC: crc.NXDN16, rows: 12, cols: 25, puncture: puncture{14, []int{3, 11}}}
)

// Bits is the number of transmitted bits.
func (c Coding) Bits() int { return c.rows * c.cols }

// Data is the number of bits covered by the CRC.
func (c Coding) Data() int { return c.Info - int(c.CRC.Width) }

func (c Coding) interleave(in bit.Bits) bit.Bits {
	o := make(bit.Bits, len(in))
	for r := 0; r < c.rows; r++ {
		for k := 0; k < c.cols; k++ {
			o[k*c.rows+r] = in[r*c.cols+k]
		}
	}
	return o
}

func (c Coding) deinterleave(in bit.Bits) bit.Bits {
	o := make(bit.Bits, len(in))
	for r := 0; r < c.rows; r++ {
		for k := 0; k < c.cols; k++ {
			o[r*c.cols+k] = in[k*c.rows+r]
		}
	}
	return o
}

// Encode appends the CRC to data, then codes, punctures and interleaves it.
func (c Coding) Encode(data bit.Bits) bit.Bits {
	info := bit.NewBuffer(c.Info + tailBits)
	info.AppendBits(data[:c.Data()])
	info.AppendUint(uint64(c.CRC.Compute(info, 0, c.Data())), int(c.CRC.Width))

	var (
		coded = fec.NXDNConvolutional.Encode(info.Bits())
		kept  = make(bit.Bits, 0, c.Bits())
	)
	for i, b := range coded {
		if !c.puncture.dropped(i) {
			kept = append(kept, b)
		}
	}
	return c.interleave(kept)
}

// Decode reverses Encode. It returns the information bits with the CRC outcome
// attached; repaired code bits count as corrected.
func (c Coding) Decode(bits bit.Bits) *bit.Buffer {
	var (
		kept  = c.deinterleave(bits[:c.Bits()])
		coded = make([]uint8, 0, (c.Info+tailBits)*2)
	)
	for i := 0; len(coded) < cap(coded); i++ {
		if c.puncture.dropped(i) {
			coded = append(coded, fec.Erased)
			continue
		}
		coded = append(coded, uint8(kept[0]))
		kept = kept[1:]
	}
	data, metric := fec.NXDNConvolutional.Decode(coded)
	buf := bit.NewBufferFromBits(data[:c.Info])
	o := c.CRC.Check(buf, 0, c.Data())
	if o.Valid() {
		o = crc.CorrectedBy(metric)
	}
	buf.SetOutcome(o)
	return buf
}
