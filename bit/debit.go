package bit

// Dibit is a 2-bit symbol as produced by a 4-level FSK demodulator.
type Dibit uint8

type Dibits []Dibit

func toDibits(b byte) Dibits {
	var o = make(Dibits, 4)
	for i, shift := 0, uint(6); i < 4; i, shift = i+1, shift-2 {
		o[i] = Dibit((b >> shift) & 3)
	}
	return o
}

// NewDibits unpacks bytes into symbols, most significant symbol first.
func NewDibits(bytes []byte) Dibits {
	var l = len(bytes)
	var o = make(Dibits, 0, l*4)
	for i := 0; i < l; i++ {
		o = append(o, toDibits(bytes[i])...)
	}
	return o
}

// Bits expands each symbol into its high and low bit.
func (d Dibits) Bits() Bits {
	var o = make(Bits, 0, len(d)*2)
	for _, s := range d {
		o = append(o, Bit((s>>1)&1), Bit(s&1))
	}
	return o
}

// DibitsFromBits pairs consecutive bits into symbols. A trailing odd bit is dropped.
func DibitsFromBits(bits Bits) Dibits {
	var o = make(Dibits, len(bits)/2)
	for i := range o {
		o[i] = Dibit(bits[i*2]<<1 | bits[i*2+1])
	}
	return o
}
