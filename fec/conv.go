package fec

import (
	"math/bits"

	"github.com/pd0mz/go-lmr/bit"
)

// Erased marks a punctured position in a depunctured code symbol stream.
const Erased = 2

// Convolutional is a rate 1/2 feed forward code with constraint length K. Generator
// bit K-1 taps the current input, bit 0 the oldest.
type Convolutional struct {
	K      uint
	G1, G2 uint32
}

// NXDN: G1(D) = 1+D^3+D^4, G2(D) = 1+D+D^2+D^4.
var NXDNConvolutional = Convolutional{K: 5, G1: 0x13, G2: 0x1d}

func (c Convolutional) output(reg uint32) (uint8, uint8) {
	return uint8(bits.OnesCount32(reg&c.G1) & 1), uint8(bits.OnesCount32(reg&c.G2) & 1)
}

// Encode returns two code bits per data bit. Callers append the K-1 tail bits.
func (c Convolutional) Encode(data bit.Bits) bit.Bits {
	var (
		o     = make(bit.Bits, 0, len(data)*2)
		state uint32
	)
	for _, b := range data {
		reg := uint32(b&1)<<(c.K-1) | state
		g1, g2 := c.output(reg)
		o = append(o, bit.Bit(g1), bit.Bit(g2))
		state = reg >> 1
	}
	return o
}

// Decode runs a hard decision Viterbi decoder over pairs of code bits (0, 1 or Erased)
// and returns the most likely data bits with the path metric, the number of code bits
// that disagree with the decoded path. The path is assumed to end in state zero.
func (c Convolutional) Decode(coded []uint8) (bit.Bits, int) {
	var (
		states = 1 << (c.K - 1)
		steps  = len(coded) / 2
		metric = make([]int, states)
		next   = make([]int, states)
		prev   = make([][]uint8, steps)
		inf    = len(coded) + 1
	)
	for s := 1; s < states; s++ {
		metric[s] = inf
	}

	for t := 0; t < steps; t++ {
		prev[t] = make([]uint8, states)
		for s := range next {
			next[s] = inf
		}
		for s := 0; s < states; s++ {
			if metric[s] >= inf {
				continue
			}
			for b := uint32(0); b < 2; b++ {
				reg := b<<(c.K-1) | uint32(s)
				g1, g2 := c.output(reg)
				m := metric[s] + cost(coded[2*t], g1) + cost(coded[2*t+1], g2)
				ns := int(reg >> 1)
				if m < next[ns] {
					next[ns] = m
					// The dropped oldest bit identifies the predecessor.
					prev[t][ns] = uint8(reg & 1)
				}
			}
		}
		metric, next = next, metric
	}

	var (
		data  = make(bit.Bits, steps)
		state = 0
	)
	for t := steps - 1; t >= 0; t-- {
		data[t] = bit.Bit(state >> (c.K - 2))
		state = (state<<1)&(states-1) | int(prev[t][state])
	}
	return data, metric[0]
}

func cost(received, expected uint8) int {
	if received == Erased || received == expected {
		return 0
	}
	return 1
}
