// Package bit holds the bit level primitives shared by all decoders: single bits,
// bit slices, dibit symbols and the range checked message Buffer.
package bit

type Bit byte

func (b *Bit) Flip() {
	(*b) ^= 0x01
}

type Bits []Bit

func toBits(b byte) Bits {
	var o = make(Bits, 8)
	for bit, mask := 0, byte(128); bit < 8; bit, mask = bit+1, mask>>1 {
		if b&mask != 0 {
			o[bit] = 1
		}
	}
	return o
}

// NewBits unpacks bytes MSB first.
func NewBits(bytes []byte) Bits {
	var l = len(bytes)
	var o = make(Bits, 0, l*8)
	for i := 0; i < l; i++ {
		o = append(o, toBits(bytes[i])...)
	}
	return o
}

// NewBitsFromUint returns the lower width bits of v, MSB first.
func NewBitsFromUint(v uint64, width int) Bits {
	var o = make(Bits, width)
	for i := 0; i < width; i++ {
		o[i] = Bit((v >> uint(width-1-i)) & 1)
	}
	return o
}

func (bits *Bits) Bytes() []byte {
	var l = len(*bits)
	var o = make([]byte, (l+7)/8)
	for i, b := range *bits {
		if b == 0x01 {
			o[i/8] |= (1 << byte(7-(i%8)))
		}
	}
	return o
}

// Uint packs the bits MSB first. Only the last 64 bits are retained.
func (bits Bits) Uint() uint64 {
	var v uint64
	for _, b := range bits {
		v = v<<1 | uint64(b&1)
	}
	return v
}

// Test reports if bit i is set.
func (bits Bits) Test(i int) bool {
	return bits[i] == 1
}

func (bits Bits) Equal(other Bits) bool {
	if len(bits) != len(other) {
		return false
	}
	for i, b := range bits {
		if b != other[i] {
			return false
		}
	}
	return true
}

// Distance is the Hamming distance between two equally sized bit slices.
func (bits Bits) Distance(other Bits) int {
	var n int
	for i, b := range bits {
		if b != other[i] {
			n++
		}
	}
	return n
}

func (bits Bits) String() string {
	var s = make([]byte, len(bits))
	for i, b := range bits {
		if b == 0x01 {
			s[i] = '1'
		} else {
			s[i] = '0'
		}
	}
	return string(s)
}
