package crc

const (
	// G(x) = x^9+x^6+x^4+x^3+1
	CRC9Poly = 0x59
	// G(x) = x^16+x^12+x^5+1
	CRC16Poly = 0x1021
	CRC32Poly = 0x04c11db7
)

// Source exposes single bits of a message, such as a *bit.Buffer.
type Source interface {
	Test(i int) bool
}

// Buffer is a Source that can be corrected in place.
type Buffer interface {
	Source
	Flip(i int)
}

// CRC9 shifts the upper bits of b into crc.
func CRC9(crc *uint16, b uint8, bits int) {
	var v uint8 = 0x80
	for i := 0; i < 8-bits; i++ {
		v >>= 1
	}
	for i := 0; i < 8; i++ {
		xor := (*crc)&0x0100 > 0
		(*crc) <<= 1
		// Limit the number of shift registers to 9.
		*crc &= 0x01ff
		if b&v > 0 {
			(*crc)++
		}
		if xor {
			(*crc) ^= CRC9Poly
		}
		v >>= 1
	}
}

func CRC9End(crc *uint16, bits int) {
	for i := 0; i < bits; i++ {
		xor := (*crc)&0x100 > 0
		(*crc) <<= 1
		// Limit the number of shift registers to 9.
		*crc &= 0x01ff
		if xor {
			(*crc) ^= CRC9Poly
		}
	}
}

func CRC16(crc *uint16, b byte) {
	var v uint8 = 0x80
	for i := 0; i < 8; i++ {
		xor := ((*crc) & 0x8000) > 0
		(*crc) <<= 1
		if b&v > 0 {
			(*crc)++
		}
		if xor {
			(*crc) ^= CRC16Poly
		}
		v >>= 1
	}
}

func CRC16End(crc *uint16) {
	for i := 0; i < 16; i++ {
		xor := ((*crc) & 0x8000) > 0
		(*crc) <<= 1
		if xor {
			(*crc) ^= CRC16Poly
		}
	}
}

func CRC32(crc *uint32, b byte) {
	var v uint8 = 0x80
	for i := 0; i < 8; i++ {
		xor := ((*crc) & 0x80000000) > 0
		(*crc) <<= 1
		if b&v > 0 {
			(*crc)++
		}
		if xor {
			(*crc) ^= CRC32Poly
		}
		v >>= 1
	}
}

func CRC32End(crc *uint32) {
	for i := 0; i < 32; i++ {
		xor := ((*crc) & 0x80000000) > 0
		(*crc) <<= 1
		if xor {
			(*crc) ^= CRC32Poly
		}
	}
}

// Masked16 is the DMR style CRC-CCITT over data: computed, inverted, then masked
// with the data type specific mask.
func Masked16(data []byte, mask uint16) uint16 {
	var crc uint16
	for _, b := range data {
		CRC16(&crc, b)
	}
	CRC16End(&crc)
	return ^crc ^ mask
}

// Poly is a non reflected CRC of up to 32 bits, computed bit by bit over a range
// of a Source.
type Poly struct {
	Width  uint
	Poly   uint32
	Init   uint32
	XorOut uint32
}

var (
	CCITT  = Poly{Width: 16, Poly: 0x1021, XorOut: 0xffff} // P25 TSBK and PDU header
	NXDN6  = Poly{Width: 6, Poly: 0x27, Init: 0x3f}        // x^6+x^5+x^2+x+1
	NXDN12 = Poly{Width: 12, Poly: 0x80f, Init: 0xfff}     // x^12+x^11+x^3+x^2+x+1
	NXDN16 = Poly{Width: 16, Poly: 0x1021, Init: 0xffff}   // x^16+x^12+x^5+1
	CRC8   = Poly{Width: 8, Poly: 0x07}                    // x^8+x^2+x+1

	// Packet is the P25 packet data CRC-32 over all data blocks.
	Packet = Poly{Width: 32, Poly: 0x04c11db7, XorOut: 0xffffffff}
)

func (p Poly) mask() uint32 {
	if p.Width >= 32 {
		return 0xffffffff
	}
	return 1<<p.Width - 1
}

// Compute returns the CRC of the n bits starting at start.
func (p Poly) Compute(src Source, start, n int) uint32 {
	var (
		top  = uint32(1) << (p.Width - 1)
		mask = p.mask()
		crc  = p.Init & mask
	)
	for i := start; i < start+n; i++ {
		feedback := (crc&top != 0) != src.Test(i)
		crc = (crc << 1) & mask
		if feedback {
			crc ^= p.Poly
		}
	}
	return (crc ^ p.XorOut) & mask
}

// ComputeBytes returns the CRC over whole bytes, MSB first.
func (p Poly) ComputeBytes(data []byte) uint32 {
	return p.Compute(byteSource(data), 0, len(data)*8)
}

// Stored reads the Width bit checksum transmitted at offset.
func (p Poly) Stored(src Source, offset int) uint32 {
	var v uint32
	for i := 0; i < int(p.Width); i++ {
		v <<= 1
		if src.Test(offset + i) {
			v |= 1
		}
	}
	return v
}

// Check validates the n bits at start against the checksum that immediately follows
// them. It never corrects.
func (p Poly) Check(src Source, start, n int) Outcome {
	if p.Compute(src, start, n) == p.Stored(src, start+n) {
		return OutcomePassed
	}
	return OutcomeFailed
}

// Syndrome is the checksum difference caused by a single bit error at position i
// of a codeword of n data bits followed by Width check bits.
func (p Poly) Syndrome(n, i int) uint32 {
	if i >= n {
		return 1 << uint(int(p.Width)-1-(i-n))
	}
	var (
		top  = uint32(1) << (p.Width - 1)
		mask = p.mask()
		r    = p.Poly
	)
	// x^Width mod G is Poly, every further data position multiplies by x.
	for k := i; k < n-1; k++ {
		feedback := r&top != 0
		r = (r << 1) & mask
		if feedback {
			r ^= p.Poly
		}
	}
	return r
}

// CorrectSingle validates like Check and repairs a single bit error anywhere in the
// codeword (data or check bits) by syndrome lookup.
func (p Poly) CorrectSingle(buf Buffer, start, n int) Outcome {
	syndrome := p.Compute(buf, start, n) ^ p.Stored(buf, start+n)
	if syndrome == 0 {
		return OutcomePassed
	}
	for i := 0; i < n+int(p.Width); i++ {
		if p.Syndrome(n, i) == syndrome {
			buf.Flip(start + i)
			return CorrectedBy(1)
		}
	}
	return OutcomeFailed
}

type byteSource []byte

func (b byteSource) Test(i int) bool {
	return b[i>>3]&(0x80>>uint(i&7)) != 0
}
