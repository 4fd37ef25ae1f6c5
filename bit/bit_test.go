package bit

import (
	"bytes"
	"testing"
)

func TestBit(t *testing.T) {
	var tests = []struct {
		Test []byte
		Want Bits
	}{
		{
			[]byte{0x2a},
			Bits{0, 0, 1, 0, 1, 0, 1, 0},
		},
		{
			[]byte{0xbe, 0xef},
			Bits{1, 0, 1, 1, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 1},
		},
	}

	for _, test := range tests {
		got := NewBits(test.Test)
		if len(got) != len(test.Want) {
			t.Fatalf("expected length %d, got %d [%s]", len(test.Want), len(got), got.String())
		}
		for i, b := range got {
			if b != test.Want[i] {
				t.Fatalf("bit %d is off: %v != %v", i, got, test.Want)
			}
		}

		rev := got.Bytes()
		if !bytes.Equal(rev, test.Test) {
			t.Fatalf("reverse bits to bytes failed, %v != %v", rev, test.Test)
		}
	}
}

func TestBitsUint(t *testing.T) {
	bits := NewBitsFromUint(0x2d, 7)
	if s := bits.String(); s != "0101101" {
		t.Fatalf("expected 0101101, got %s", s)
	}
	if v := bits.Uint(); v != 0x2d {
		t.Fatalf("expected %#x, got %#x", 0x2d, v)
	}
	if d := bits.Distance(NewBitsFromUint(0x2c, 7)); d != 1 {
		t.Fatalf("expected distance 1, got %d", d)
	}
}

func TestDibits(t *testing.T) {
	got := NewDibits([]byte{0x1b})
	want := Dibits{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dibit %d: %d != %d", i, got[i], want[i])
		}
	}
	bits := got.Bits()
	if s := bits.String(); s != "00011011" {
		t.Fatalf("expected 00011011, got %s", s)
	}
	back := DibitsFromBits(bits)
	for i := range want {
		if back[i] != want[i] {
			t.Fatalf("round trip dibit %d: %d != %d", i, back[i], want[i])
		}
	}
}
