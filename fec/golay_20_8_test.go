package fec

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
)

func TestGolay_20_8(t *testing.T) {
	var tests = map[uint8]uint32{
		0x00: 0x00000,
		0x01: 0x018eb,
		0x5a: 0x5aa06,
	}
	for in, want := range tests {
		if got := Golay_20_8_Encode(in); got != want {
			t.Errorf("encode %#02x: got %#05x, want %#05x", in, got, want)
		}
	}

	for i := 0; i < 256; i++ {
		want := bit.NewBitsFromUint(uint64(Golay_20_8_Encode(uint8(i))), 20)
		if err := Golay_20_8_Check(want); err != nil {
			t.Fatalf("%#02x: %v", i, err)
		}
		for errs := 0; errs <= 4; errs++ {
			b := append(bit.Bits(nil), want...)
			for e := 0; e < errs; e++ {
				b[(i+e*7)%20].Flip()
			}
			v, o := Golay_20_8_Decode(b)
			if errs <= 3 {
				if v != uint8(i) || o != crc.CorrectedBy(errs) || !b.Equal(want) {
					t.Fatalf("%#02x with %d errors: got %#02x %v", i, errs, v, o)
				}
			} else if o != crc.OutcomeFailed {
				t.Fatalf("%#02x with %d errors: got %v", i, errs, o)
			}
		}
	}
}
