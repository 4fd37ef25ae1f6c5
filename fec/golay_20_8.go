package fec

import (
	"fmt"
	"math/bits"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

var golay_20_8_codewords [256]uint32

func Golay_20_8_Parity(bits bit.Bits) bit.Bits {
	var p = make(bit.Bits, 12)
	p[0] = bits[1] ^ bits[4] ^ bits[5] ^ bits[6] ^ bits[7]
	p[1] = bits[1] ^ bits[2] ^ bits[4]
	p[2] = bits[0] ^ bits[2] ^ bits[3] ^ bits[5]
	p[3] = bits[0] ^ bits[1] ^ bits[3] ^ bits[4] ^ bits[6]
	p[4] = bits[0] ^ bits[1] ^ bits[2] ^ bits[4] ^ bits[5] ^ bits[7]
	p[5] = bits[0] ^ bits[2] ^ bits[3] ^ bits[4] ^ bits[7]
	p[6] = bits[3] ^ bits[6] ^ bits[7]
	p[7] = bits[0] ^ bits[1] ^ bits[5] ^ bits[6]
	p[8] = bits[0] ^ bits[1] ^ bits[2] ^ bits[6] ^ bits[7]
	p[9] = bits[2] ^ bits[3] ^ bits[4] ^ bits[5] ^ bits[6]
	p[10] = bits[0] ^ bits[3] ^ bits[4] ^ bits[5] ^ bits[6] ^ bits[7]
	p[11] = bits[1] ^ bits[2] ^ bits[3] ^ bits[5] ^ bits[7]
	return p
}

func Golay_20_8_Check(bits bit.Bits) error {
	if len(bits) != 20 {
		return fmt.Errorf("fec/golay_20_8: expected 20 bits, got %d", len(bits))
	}
	parity := Golay_20_8_Parity(bits[:8])
	for i := 0; i < 12; i++ {
		if parity[i] != bits[8+i] {
			return fmt.Errorf("fec/golay_20_8: parity error at bit %d: %s != %s", i, parity.String(), bits[8:].String())
		}
	}
	return nil
}

// Golay_20_8_Encode returns the 20 bit codeword for data.
func Golay_20_8_Encode(data uint8) uint32 {
	return golay_20_8_codewords[data]
}

// Golay_20_8_Decode corrects up to 3 bit errors in place by nearest codeword search
// and returns the 8 data bits.
func Golay_20_8_Decode(b bit.Bits) (uint8, crc.Outcome) {
	if len(b) < 20 {
		return 0, crc.OutcomeFailed
	}
	var (
		received = uint32(b[:20].Uint())
		best     int
		distance = 21
	)
	for v, cw := range golay_20_8_codewords {
		if d := bits.OnesCount32(cw ^ received); d < distance {
			best, distance = v, d
		}
	}
	if distance > 3 {
		return uint8(received >> 12), crc.OutcomeFailed
	}
	if distance > 0 {
		copy(b, bit.NewBitsFromUint(uint64(golay_20_8_codewords[best]), 20))
	}
	return uint8(best), crc.CorrectedBy(distance)
}

func init() {
	for i := 0; i < 256; i++ {
		data := bit.NewBitsFromUint(uint64(i), 8)
		golay_20_8_codewords[i] = uint32(append(data, Golay_20_8_Parity(data)...).Uint())
	}
}
