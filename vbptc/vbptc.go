// Package vbptc implements the Variable length BPTC for embedded signalling
package vbptc

import (
	"errors"
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/fec"
)

const cols = 16

var ErrMatrixFull = errors.New("vbptc: no free space in matrix")

// VBPTC collects the column wise transmitted matrix from consecutive bursts. Every
// row but the last is a Hamming(16, 11, 4) codeword, the last row holds the column
// parity.
type VBPTC struct {
	matrix       bit.Bits
	row, col     int
	expectedRows int
}

func New(expectedRows int) *VBPTC {
	return &VBPTC{
		matrix:       make(bit.Bits, expectedRows*cols),
		expectedRows: expectedRows,
	}
}

func (v *VBPTC) freeSpace() int {
	var size = v.expectedRows * cols
	var used = v.expectedRows*v.col + v.row
	return size - used
}

// Full reports if the matrix received all its bits.
func (v *VBPTC) Full() bool {
	return v.freeSpace() == 0
}

// AddBurst adds the embedded signalling data to the matrix.
func (v *VBPTC) AddBurst(bits bit.Bits) error {
	var free = v.freeSpace()
	if free == 0 {
		return ErrMatrixFull
	}

	var adds = len(bits)
	if adds > free {
		adds = free
	}

	for i := 0; i < adds; i++ {
		v.matrix[v.col+v.row*cols] = bits[i]
		v.row++
		if v.row == v.expectedRows {
			v.col++
			v.row = 0
		}
	}

	return nil
}

// CheckAndRepair checks data for errors and tries to repair them
func (v *VBPTC) CheckAndRepair() (crc.Outcome, error) {
	if v.expectedRows < 2 {
		return crc.OutcomeFailed, fmt.Errorf("vbptc: no data")
	}

	var outcome = crc.OutcomePassed

	// -1 because the last row contains only single parity check bits
	for row := 0; row < v.expectedRows-1; row++ {
		o := fec.Hamming16_11_4.Correct(v.matrix[row*cols : (row+1)*cols])
		if o.Status == crc.Failed {
			return o, fmt.Errorf("vbptc: hamming(16,11) check error, can't repair row #%d", row)
		}
		outcome = outcome.Merge(o)
	}

	for col := 0; col < cols; col++ {
		var parity bit.Bit
		for row := 0; row < v.expectedRows-1; row++ {
			parity ^= v.matrix[row*cols+col]
		}
		if parity != v.matrix[(v.expectedRows-1)*cols+col] {
			return crc.OutcomeFailed, fmt.Errorf("vbptc: parity check error in column #%d", col)
		}
	}

	return outcome, nil
}

// Clear resets the variable BPTC matrix and cursor position
func (v *VBPTC) Clear() {
	v.row = 0
	v.col = 0
	v.matrix = make(bit.Bits, v.expectedRows*cols)
}

// GetData extracts data bits (discarding Hamming (16,11) and parity check bits) from the vbptc matrix.
func (v *VBPTC) GetData() bit.Bits {
	var bits = make(bit.Bits, 0, (v.expectedRows-1)*11)
	for row := 0; row < v.expectedRows-1; row++ {
		bits = append(bits, v.matrix[row*cols:row*cols+11]...)
	}
	return bits
}

// Encode builds the column wise transmit order for the data bits, 11 per row.
func Encode(data bit.Bits, expectedRows int) bit.Bits {
	var matrix = make(bit.Bits, expectedRows*cols)
	for row := 0; row < expectedRows-1; row++ {
		copy(matrix[row*cols:], fec.Hamming16_11_4.Encode(data[row*11:(row+1)*11]))
		for col := 0; col < cols; col++ {
			matrix[(expectedRows-1)*cols+col] ^= matrix[row*cols+col]
		}
	}
	var out = make(bit.Bits, 0, len(matrix))
	for col := 0; col < cols; col++ {
		for row := 0; row < expectedRows; row++ {
			out = append(out, matrix[row*cols+col])
		}
	}
	return out
}
