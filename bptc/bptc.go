// Package bptc implements the BPTC(196, 96) Block Product Turbo Code
package bptc

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/fec"
)

const (
	InfoBits = 196
	DataBits = 96
	rows     = 13
	cols     = 15
)

// Deinterleave raw bits
func Deinterleave(r bit.Bits) bit.Bits {
	var d = make(bit.Bits, InfoBits)
	for a := 0; a < InfoBits; a++ {
		d[a] = r[(a*181)%InfoBits]
	}
	return d
}

// Interleave is the inverse of Deinterleave.
func Interleave(d bit.Bits) bit.Bits {
	var r = make(bit.Bits, InfoBits)
	for a := 0; a < InfoBits; a++ {
		r[(a*181)%InfoBits] = d[a]
	}
	return r
}

// The matrix starts at bit 1, bit 0 is R(3) and is not used.
func index(row, col int) int {
	return row*cols + col + 1
}

// CheckAndRepair corrects the deinterleaved matrix in place. Columns are repaired
// with Hamming(13, 9, 3) and rows with Hamming(15, 11, 3), repeated until the matrix
// is stable.
func CheckAndRepair(bits bit.Bits) (crc.Outcome, error) {
	if len(bits) != InfoBits {
		return crc.OutcomeFailed, fmt.Errorf("bptc: expected %d input bits, got %d", InfoBits, len(bits))
	}

	var (
		row       = make(bit.Bits, cols)
		col       = make(bit.Bits, rows)
		corrected int
	)
	for pass := 0; pass < 5; pass++ {
		var fixed, failed int
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				col[r] = bits[index(r, c)]
			}
			switch o := fec.Hamming13_9_3.Correct(col); o.Status {
			case crc.Corrected:
				for r := 0; r < rows; r++ {
					bits[index(r, c)] = col[r]
				}
				fixed++
			case crc.Failed:
				failed++
			}
		}
		for r := 0; r < 9; r++ {
			copy(row, bits[index(r, 0):index(r, 0)+cols])
			switch o := fec.Hamming15_11_3.Correct(row); o.Status {
			case crc.Corrected:
				copy(bits[index(r, 0):], row)
				fixed++
			case crc.Failed:
				failed++
			}
		}
		corrected += fixed
		if fixed == 0 {
			if failed > 0 {
				return crc.OutcomeFailed, fmt.Errorf("bptc: %d rows/columns can't be repaired", failed)
			}
			return crc.CorrectedBy(corrected), nil
		}
	}
	return crc.OutcomeFailed, fmt.Errorf("bptc: matrix not stable after repair")
}

// Extract the 96 bits of data from the deinterleaved matrix.
func Extract(bits bit.Bits) bit.Bits {
	var out = make(bit.Bits, 0, DataBits)
	out = append(out, bits[index(0, 3):index(0, 11)]...)
	for r := 1; r < 9; r++ {
		out = append(out, bits[index(r, 0):index(r, 11)]...)
	}
	return out
}

// Decode deinterleaves, repairs and extracts the 96 data bits from 196 info bits.
// On failure the extracted bits are returned uncorrected.
func Decode(info bit.Bits) (bit.Bits, crc.Outcome) {
	var (
		d      = Deinterleave(info)
		orig   = append(bit.Bits(nil), d...)
		o, err = CheckAndRepair(d)
	)
	if err != nil {
		return Extract(orig), crc.OutcomeFailed
	}
	return Extract(d), o
}

// Encode builds the interleaved 196 info bits for 96 data bits.
func Encode(data bit.Bits) bit.Bits {
	var (
		d   = make(bit.Bits, InfoBits)
		pos int
	)
	for r := 0; r < 9; r++ {
		start := 0
		if r == 0 {
			start = 3
		}
		for c := start; c < 11; c++ {
			d[index(r, c)] = data[pos]
			pos++
		}
		copy(d[index(r, 0):], fec.Hamming15_11_3.Encode(d[index(r, 0):index(r, 11)]))
	}
	var col = make(bit.Bits, 9)
	for c := 0; c < cols; c++ {
		for r := 0; r < 9; r++ {
			col[r] = d[index(r, c)]
		}
		for r, p := range fec.Hamming13_9_3.Parity(col) {
			d[index(9+r, c)] = p
		}
	}
	return Interleave(d)
}
