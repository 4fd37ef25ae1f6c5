package vbptc

import (
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

// EmbeddedRows is the matrix height of the embedded link control, carried in the
// 32 bit fragments of four voice bursts.
const EmbeddedRows = 8

// Positions of the 5 bit checksum in the 77 data bits, MSB first.
var checksumBits = []int{32, 43, 54, 65, 76}

func isChecksum(i int) bool {
	for _, c := range checksumBits {
		if c == i {
			return true
		}
	}
	return false
}

// Checksum5 is the embedded LC checksum: the sum of the nine LC bytes modulo 31.
func Checksum5(lc []byte) uint8 {
	var sum int
	for _, b := range lc {
		sum += int(b)
	}
	return uint8(sum % 31)
}

// EmbeddedLC splits 77 data bits into the 72 link control bits and verifies the
// checksum.
func EmbeddedLC(data bit.Bits) (bit.Bits, crc.Outcome) {
	var (
		lc  = make(bit.Bits, 0, 72)
		sum uint8
	)
	for i := 0; i < 77; i++ {
		if isChecksum(i) {
			sum = sum<<1 | uint8(data[i])
			continue
		}
		lc = append(lc, data[i])
	}
	if Checksum5(lc.Bytes()) != sum {
		return lc, crc.OutcomeFailed
	}
	return lc, crc.OutcomePassed
}

// EncodeEmbeddedLC returns the 128 bits of embedded signalling for 72 link control
// bits, in transmit order.
func EncodeEmbeddedLC(lc bit.Bits) bit.Bits {
	var (
		sum  = Checksum5(lc.Bytes())
		data = make(bit.Bits, 0, 77)
		next int
		k    int
	)
	for i := 0; i < 77; i++ {
		if isChecksum(i) {
			data = append(data, bit.Bit(sum>>uint(4-k))&1)
			k++
			continue
		}
		data = append(data, lc[next])
		next++
	}
	return Encode(data, EmbeddedRows)
}
