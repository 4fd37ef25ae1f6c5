package fec

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

// Hamming is a systematic single error correcting block code. The codeword is the
// K data bits followed by the N-K parity bits, MSB first.
type Hamming struct {
	N, K   int
	parity [][]int
	errors map[uint32]int
}

var (
	// See DMR AI spec. page 135.
	Hamming15_11_3 = NewHamming(15, 11,
		[]int{0, 1, 2, 3, 5, 7, 8},
		[]int{1, 2, 3, 4, 6, 8, 9},
		[]int{2, 3, 4, 5, 7, 9, 10},
		[]int{0, 1, 2, 4, 6, 7, 10},
	)
	Hamming13_9_3 = NewHamming(13, 9,
		[]int{0, 1, 3, 5, 6},
		[]int{0, 1, 2, 4, 6, 7},
		[]int{0, 1, 2, 3, 5, 7, 8},
		[]int{0, 2, 4, 5, 8},
	)
	// DMR CACH TACT: AT, TC, LCSS and three parity bits.
	Hamming7_4_3 = NewHamming(7, 4,
		[]int{0, 1, 2},
		[]int{1, 2, 3},
		[]int{0, 1, 3},
	)
	// See DMR AI spec. page 136.
	Hamming16_11_4 = NewHamming(16, 11,
		[]int{0, 1, 2, 3, 5, 7, 8},
		[]int{1, 2, 3, 4, 6, 8, 9},
		[]int{2, 3, 4, 5, 7, 9, 10},
		[]int{0, 1, 2, 4, 6, 7, 10},
		[]int{0, 2, 5, 6, 8, 9, 10},
	)
)

// NewHamming builds a code from its parity equations, one list of data bit indices
// per parity bit.
func NewHamming(n, k int, parity ...[]int) *Hamming {
	if n-k != len(parity) {
		panic(fmt.Sprintf("fec/hamming: %d parity equations for (%d, %d)", len(parity), n, k))
	}
	h := &Hamming{N: n, K: k, parity: parity, errors: make(map[uint32]int)}
	for i := 0; i < n; i++ {
		var cw = make(bit.Bits, n)
		cw[i] = 1
		h.errors[h.syndrome(cw)] = i
	}
	return h
}

// Parity computes the parity bits for the K data bits in data.
func (h *Hamming) Parity(data bit.Bits) bit.Bits {
	var p = make(bit.Bits, len(h.parity))
	for i, eq := range h.parity {
		for _, j := range eq {
			p[i] ^= data[j]
		}
	}
	return p
}

func (h *Hamming) syndrome(cw bit.Bits) uint32 {
	var (
		p = h.Parity(cw[:h.K])
		s uint32
	)
	for i := range p {
		s = s<<1 | uint32(p[i]^cw[h.K+i])
	}
	return s
}

// Encode returns the codeword for the K data bits.
func (h *Hamming) Encode(data bit.Bits) bit.Bits {
	var cw = make(bit.Bits, 0, h.N)
	cw = append(cw, data[:h.K]...)
	return append(cw, h.Parity(data)...)
}

// Check reports if the N bits in cw form a valid codeword.
func (h *Hamming) Check(cw bit.Bits) bool {
	return h.syndrome(cw) == 0
}

// Correct repairs a single bit error in place. Syndromes that do not point at a single
// position fail without touching the codeword.
func (h *Hamming) Correct(cw bit.Bits) crc.Outcome {
	s := h.syndrome(cw)
	if s == 0 {
		return crc.OutcomePassed
	}
	if i, ok := h.errors[s]; ok {
		cw[i].Flip()
		return crc.CorrectedBy(1)
	}
	return crc.OutcomeFailed
}
