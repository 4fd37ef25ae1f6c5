// Package quadres_16_7 implements the quadratic residue (16, 7, 6) parity check.
package quadres_16_7

import (
	"math/bits"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

var codewords [128]uint16

type Codeword struct {
	Data   bit.Bits
	Parity bit.Bits
}

func NewCodeword(bits bit.Bits) *Codeword {
	if len(bits) < 16 {
		return nil
	}

	return &Codeword{
		Data:   bits[:7],
		Parity: bits[7:16],
	}
}

func ParityBits(bits bit.Bits) bit.Bits {
	parity := make(bit.Bits, 9)
	// Multiplying the generator matrix with the given data bits.
	// See DMR AI spec. page 134.
	parity[0] = bits[1] ^ bits[2] ^ bits[3] ^ bits[4]
	parity[1] = bits[2] ^ bits[3] ^ bits[4] ^ bits[5]
	parity[2] = bits[0] ^ bits[3] ^ bits[4] ^ bits[5] ^ bits[6]
	parity[3] = bits[2] ^ bits[3] ^ bits[5] ^ bits[6]
	parity[4] = bits[1] ^ bits[2] ^ bits[6]
	parity[5] = bits[0] ^ bits[1] ^ bits[4]
	parity[6] = bits[0] ^ bits[1] ^ bits[2] ^ bits[5]
	parity[7] = bits[0] ^ bits[1] ^ bits[2] ^ bits[3] ^ bits[6]
	parity[8] = bits[0] ^ bits[2] ^ bits[4] ^ bits[5] ^ bits[6]
	return parity
}

// Encode returns the 16 bit codeword for the 7 data bits in v.
func Encode(v uint8) uint16 {
	return codewords[v&0x7f]
}

// Check reports if the first 16 bits form a valid codeword.
func Check(bits bit.Bits) bool {
	codeword := NewCodeword(bits)
	if codeword == nil {
		return false
	}
	return codeword.Parity.Equal(ParityBits(codeword.Data))
}

// Decode returns the 7 data bits of the nearest codeword. With a minimum distance of
// 6, up to 2 bit errors are repaired; the bits are corrected in place.
func Decode(b bit.Bits) (uint8, crc.Outcome) {
	if len(b) < 16 {
		return 0, crc.OutcomeFailed
	}
	var (
		received = uint16(b[:16].Uint())
		best     = -1
		distance = 17
	)
	for v, cw := range codewords {
		if d := bits.OnesCount16(cw ^ received); d < distance {
			best, distance = v, d
		}
	}
	if distance > 2 {
		return uint8(received >> 9), crc.OutcomeFailed
	}
	if distance > 0 {
		copy(b, bit.NewBitsFromUint(uint64(codewords[best]), 16))
	}
	return uint8(best), crc.CorrectedBy(distance)
}

func init() {
	for i := 0; i < 128; i++ {
		data := bit.NewBitsFromUint(uint64(i), 7)
		codewords[i] = uint16(append(data, ParityBits(data)...).Uint())
	}
}
