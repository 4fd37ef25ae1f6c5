// Package mpt implements the 64 bit codeword check shared by MPT-1327 and Fleetsync
// II: 48 information bits, a 15 bit cyclic check with its last bit inverted and an
// even parity bit over the whole codeword.
package mpt

import (
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

const (
	CodewordBits = 64
	InfoBits     = 48
	CheckBits    = 15
)

// G(x) = x^15+x^14+x^13+x^11+x^4+x^2+1
var Poly = crc.Poly{Width: CheckBits, Poly: 0x6815, XorOut: 0x0001}

// Checkword returns the 15 check bits for the information bits at start.
func Checkword(src crc.Source, start int) uint16 {
	return uint16(Poly.Compute(src, start, InfoBits))
}

func parity(src crc.Source, start int) bool {
	var odd bool
	for i := start; i < start+CodewordBits; i++ {
		if src.Test(i) {
			odd = !odd
		}
	}
	return odd
}

// Check validates the codeword at start without correcting it.
func Check(src crc.Source, start int) crc.Outcome {
	if Poly.Compute(src, start, InfoBits) != Poly.Stored(src, start+InfoBits) || parity(src, start) {
		return crc.OutcomeFailed
	}
	return crc.OutcomePassed
}

// Correct validates the codeword at start and repairs a single bit error in place.
func Correct(buf crc.Buffer, start int) crc.Outcome {
	var (
		syndrome = Poly.Compute(buf, start, InfoBits) ^ Poly.Stored(buf, start+InfoBits)
		odd      = parity(buf, start)
	)
	switch {
	case syndrome == 0 && !odd:
		return crc.OutcomePassed
	case syndrome == 0:
		// Only the parity bit is wrong.
		buf.Flip(start + CodewordBits - 1)
		return crc.CorrectedBy(1)
	case !odd:
		// Even number of errors.
		return crc.OutcomeFailed
	}
	for i := 0; i < InfoBits+CheckBits; i++ {
		if Poly.Syndrome(InfoBits, i) == syndrome {
			buf.Flip(start + i)
			return crc.CorrectedBy(1)
		}
	}
	return crc.OutcomeFailed
}

// Encode fills in the check and parity bits of the codeword at start.
func Encode(buf *bit.Buffer, start int) {
	buf.Load(start+InfoBits, CheckBits, uint64(Checkword(buf, start)))
	buf.Load(start+CodewordBits-1, 1, 0)
	if parity(buf, start) {
		buf.Flip(start + CodewordBits - 1)
	}
}
