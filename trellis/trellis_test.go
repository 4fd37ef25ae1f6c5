package trellis

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
)

func TestInterleave(t *testing.T) {
	var seen = make(map[uint8]bool)
	for _, i := range interleaveMatrix {
		seen[i] = true
	}
	if len(interleaveMatrix) != 98 || len(seen) != 98 {
		t.Fatalf("interleave matrix is not a permutation of 98 dibits")
	}

	var pairs = make([]uint8, points)
	for i := range pairs {
		pairs[i] = uint8(i*7) & 0xf
	}
	back, err := Deinterleave(Interleave(pairs))
	if err != nil {
		t.Fatal(err)
	}
	for i := range pairs {
		if back[i] != pairs[i] {
			t.Fatalf("pair %d: got %#x, want %#x", i, back[i], pairs[i])
		}
	}
}

func TestCode(t *testing.T) {
	var tests = []struct {
		Code   *Code
		Data   []byte
		Head   string
		Errors []int
	}{
		{Rate12, []byte{0x3a, 0x5c, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0xaa, 0x55},
			"00100111001000101110100110111100", []int{10, 150}},
		{Rate34, []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10, 0xa5, 0x5a},
			"00100101010101111010000111101100", []int{77}},
	}
	for _, test := range tests {
		data := bit.NewBits(test.Data)
		if len(data) != test.Code.DataBits() {
			t.Fatalf("%s: expected %d data bits, got %d", test.Code.Name, test.Code.DataBits(), len(data))
		}
		block := test.Code.Encode(data)
		if s := block[:32].String(); s != test.Head {
			t.Fatalf("%s: encoded head %s, want %s", test.Code.Name, s, test.Head)
		}

		got, metric, err := test.Code.Decode(block)
		if err != nil {
			t.Fatal(err)
		}
		if metric != 0 || !got.Equal(data) {
			t.Fatalf("%s clean: metric %d, data %s", test.Code.Name, metric, got.String())
		}

		for _, i := range test.Errors {
			block[i].Flip()
		}
		got, metric, err = test.Code.Decode(block)
		if err != nil {
			t.Fatal(err)
		}
		if metric != len(test.Errors) || !got.Equal(data) {
			t.Fatalf("%s with errors: metric %d, data %s", test.Code.Name, metric, got.String())
		}
	}

	if _, _, err := Rate12.Decode(make(bit.Bits, 100)); err == nil {
		t.Fatal("expected length error")
	}
}
