package fec

import (
	"math/bits"
	"sync"

	"github.com/pd0mz/go-lmr/crc"
)

const (
	// BCH(63, 16, 23) generator, octal 6331 1413 6723 5453.
	BCH_63_16_Generator = 0xcd930bdd3b2b
	BCH_63_16_MaxErrors = 11
)

var (
	bch_63_16_once      sync.Once
	bch_63_16_codewords []uint64
)

// BCH_63_16_Encode returns the 63 bit codeword for 16 data bits: the data followed by
// 47 check bits.
func BCH_63_16_Encode(data uint16) uint64 {
	var r = uint64(data) << 47
	for i := 62; i >= 47; i-- {
		if r&(1<<uint(i)) != 0 {
			r ^= BCH_63_16_Generator << uint(i-47)
		}
	}
	return uint64(data)<<47 | r
}

func bch_63_16_table() {
	bch_63_16_codewords = make([]uint64, 1<<16)
	var rows [16]uint64
	for i := range rows {
		rows[i] = BCH_63_16_Encode(1 << uint(i))
	}
	for v := 1; v < len(bch_63_16_codewords); v++ {
		low := bits.TrailingZeros(uint(v))
		bch_63_16_codewords[v] = bch_63_16_codewords[v&(v-1)] ^ rows[low]
	}
}

// BCH_63_16_Decode returns the data of the codeword nearest to the 63 bits in
// received, correcting up to BCH_63_16_MaxErrors bits. The corrected codeword is
// returned along with the outcome.
func BCH_63_16_Decode(received uint64) (uint16, uint64, crc.Outcome) {
	received &= 1<<63 - 1
	data := uint16(received >> 47)
	if cw := BCH_63_16_Encode(data); cw == received {
		return data, cw, crc.OutcomePassed
	}

	bch_63_16_once.Do(bch_63_16_table)
	var (
		best     int
		distance = 64
	)
	for v, cw := range bch_63_16_codewords {
		if d := bits.OnesCount64(cw ^ received); d < distance {
			best, distance = v, d
		}
	}
	if distance > BCH_63_16_MaxErrors {
		return data, received, crc.OutcomeFailed
	}
	return uint16(best), bch_63_16_codewords[best], crc.CorrectedBy(distance)
}
