package fec

import (
	"testing"

	"github.com/pd0mz/go-lmr/bit"
)

func TestConvolutional(t *testing.T) {
	data := append(bit.NewBits([]byte{0xca, 0xfe, 0xba, 0xbe, 0x42}), 0, 0, 0, 0)
	coded := NXDNConvolutional.Encode(data)
	if len(coded) != len(data)*2 {
		t.Fatalf("expected %d code bits, got %d", len(data)*2, len(coded))
	}

	received := make([]uint8, len(coded))
	for i, b := range coded {
		received[i] = uint8(b)
	}
	received[3] ^= 1
	received[30] ^= 1
	received[61] ^= 1
	received[10] = Erased
	received[11] = Erased

	got, metric := NXDNConvolutional.Decode(received)
	if !got.Equal(data) {
		t.Fatalf("decode: got %s, want %s", got.String(), data.String())
	}
	if metric != 3 {
		t.Fatalf("metric: got %d, want 3", metric)
	}
}
