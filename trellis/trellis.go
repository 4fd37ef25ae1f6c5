// Package trellis implements the trellis coded modulation used by DMR rate 3/4 data
// and the P25 rate 1/2 and 3/4 blocks. A block is 196 bits, 98 dibits forming 49
// interleaved constellation points.
package trellis

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
)

const (
	InfoBits = 196
	points   = 49
)

var (
	// See DMR AI protocol spec. page 130.
	interleaveMatrix = []uint8{
		0, 1, 8, 9, 16, 17, 24, 25, 32, 33, 40, 41, 48, 49, 56, 57, 64, 65, 72, 73, 80, 81, 88, 89, 96, 97,
		2, 3, 10, 11, 18, 19, 26, 27, 34, 35, 42, 43, 50, 51, 58, 59, 66, 67, 74, 75, 82, 83, 90, 91,
		4, 5, 12, 13, 20, 21, 28, 29, 36, 37, 44, 45, 52, 53, 60, 61, 68, 69, 76, 77, 84, 85, 92, 93,
		6, 7, 14, 15, 22, 23, 30, 31, 38, 39, 46, 47, 54, 55, 62, 63, 70, 71, 78, 79, 86, 87, 94, 95,
	}

	// See DMR AI protocol spec. page 129.
	encoderStateTransition = []uint8{
		0, 8, 4, 12, 2, 10, 6, 14,
		4, 12, 2, 10, 6, 14, 0, 8,
		1, 9, 5, 13, 3, 11, 7, 15,
		5, 13, 3, 11, 7, 15, 1, 9,
		3, 11, 7, 15, 1, 9, 5, 13,
		7, 15, 1, 9, 5, 13, 3, 11,
		2, 10, 6, 14, 0, 8, 4, 12,
		6, 14, 0, 8, 4, 12, 2, 10,
	}

	// Constellation point to dibit pair, see DMR AI protocol spec. page 129.
	constellation = [16]uint8{
		0x2, 0xa, 0x7, 0xf, 0xe, 0x6, 0xb, 0x3,
		0xd, 0x5, 0x8, 0x0, 0x1, 0x9, 0x4, 0xc,
	}
)

// Code is a trellis code with one state per input symbol value: the state is the last
// input. Next maps state and input to the transmitted dibit pair.
type Code struct {
	Name      string
	InputBits int
	Next      [][]uint8
}

var (
	// Rate34 carries 144 bits (tribits) per block.
	Rate34 = &Code{Name: "3/4", InputBits: 3, Next: rate34()}
	// Rate12 carries 96 bits (dibits) per block.
	Rate12 = &Code{
		Name:      "1/2",
		InputBits: 2,
		Next: [][]uint8{
			{0x2, 0xc, 0x1, 0xf},
			{0xe, 0x0, 0xd, 0x3},
			{0x9, 0x7, 0xa, 0x4},
			{0x5, 0xb, 0x6, 0x8},
		},
	}
)

func rate34() [][]uint8 {
	var next = make([][]uint8, 8)
	for state := range next {
		next[state] = make([]uint8, 8)
		for input := range next[state] {
			next[state][input] = constellation[encoderStateTransition[state*8+input]]
		}
	}
	return next
}

// DataBits is the number of payload bits per block.
func (c *Code) DataBits() int {
	return (points - 1) * c.InputBits
}

// Deinterleave returns the 49 dibit pairs in encoder order.
func Deinterleave(bits bit.Bits) ([]uint8, error) {
	if len(bits) != InfoBits {
		return nil, fmt.Errorf("trellis: expected %d bits, got %d", InfoBits, len(bits))
	}
	var dibits = make([]uint8, 98)
	for i := 0; i < 98; i++ {
		dibits[interleaveMatrix[i]] = uint8(bits[i*2]<<1 | bits[i*2+1])
	}
	var pairs = make([]uint8, points)
	for i := range pairs {
		pairs[i] = dibits[i*2]<<2 | dibits[i*2+1]
	}
	return pairs, nil
}

// Interleave is the inverse of Deinterleave.
func Interleave(pairs []uint8) bit.Bits {
	var dibits = make([]uint8, 98)
	for i, p := range pairs {
		dibits[i*2] = p >> 2
		dibits[i*2+1] = p & 3
	}
	var bits = make(bit.Bits, InfoBits)
	for i := 0; i < 98; i++ {
		d := dibits[interleaveMatrix[i]]
		bits[i*2] = bit.Bit(d >> 1)
		bits[i*2+1] = bit.Bit(d & 1)
	}
	return bits
}

// Encode returns the 196 bit block for DataBits bits.
func (c *Code) Encode(data bit.Bits) bit.Bits {
	var (
		pairs = make([]uint8, points)
		state uint8
	)
	for i := 0; i < points; i++ {
		var input uint8
		if i < points-1 {
			input = uint8(data[i*c.InputBits : (i+1)*c.InputBits].Uint())
		}
		pairs[i] = c.Next[state][input]
		state = input
	}
	return Interleave(pairs)
}

// Decode runs a Viterbi decoder over the block and returns the data bits and the
// path metric, the number of bit errors between the received and re-encoded block.
func (c *Code) Decode(bits bit.Bits) (bit.Bits, int, error) {
	pairs, err := Deinterleave(bits)
	if err != nil {
		return nil, 0, err
	}

	var (
		states = len(c.Next)
		inf    = InfoBits + 1
		metric = make([]int, states)
		next   = make([]int, states)
		prev   = make([][]uint8, points)
	)
	for s := 1; s < states; s++ {
		metric[s] = inf
	}
	for t := 0; t < points; t++ {
		prev[t] = make([]uint8, states)
		for s := range next {
			next[s] = inf
		}
		for s := 0; s < states; s++ {
			if metric[s] >= inf {
				continue
			}
			for input := 0; input < states; input++ {
				m := metric[s] + hamming4(pairs[t], c.Next[s][input])
				if m < next[input] {
					next[input] = m
					prev[t][input] = uint8(s)
				}
			}
		}
		metric, next = next, metric
	}

	// The last point flushes the encoder with input zero.
	var (
		data  = make(bit.Bits, 0, c.DataBits())
		path  = make([]uint8, points)
		state = uint8(0)
	)
	for t := points - 1; t >= 0; t-- {
		path[t] = state
		state = prev[t][state]
	}
	for _, input := range path[:points-1] {
		data = append(data, bit.NewBitsFromUint(uint64(input), c.InputBits)...)
	}
	return data, metric[0], nil
}

func hamming4(a, b uint8) int {
	var n int
	for x := (a ^ b) & 0xf; x != 0; x &= x - 1 {
		n++
	}
	return n
}
