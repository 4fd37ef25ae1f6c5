package crc

import "testing"

type bits []bool

func (b bits) Test(i int) bool { return b[i] }
func (b bits) Flip(i int)      { b[i] = !b[i] }

func fromBytes(data []byte, extra int) bits {
	var o = make(bits, len(data)*8+extra)
	for i := range data {
		for j := 0; j < 8; j++ {
			o[i*8+j] = data[i]&(0x80>>uint(j)) != 0
		}
	}
	return o
}

func (b bits) store(offset int, width uint, v uint32) {
	for i := 0; i < int(width); i++ {
		b[offset+i] = v&(1<<(width-1-uint(i))) != 0
	}
}

func TestCRC9(t *testing.T) {
	tests := map[uint16][]byte{
		0x0000: []byte{},
		0x0100: []byte{0x00, 0x01},
		0x0179: []byte("hello world"),
	}

	for want, test := range tests {
		var crc uint16
		for _, b := range test {
			CRC9(&crc, b, 8)
		}
		CRC9End(&crc, 8)
		if crc != want {
			t.Fatalf("crc9 %v failed: %#04x != %#04x", test, crc, want)
		}
	}
}

func TestCRC16(t *testing.T) {
	tests := map[uint16][]byte{
		0x0000: []byte{},
		0x1021: []byte{0x00, 0x01},
		0x3be4: []byte("hello world"),
	}

	for want, test := range tests {
		var crc uint16
		for _, b := range test {
			CRC16(&crc, b)
		}
		CRC16End(&crc)
		if crc != want {
			t.Fatalf("crc16 %v failed: %#04x != %#04x", test, crc, want)
		}
	}
}

func TestCRC32(t *testing.T) {
	tests := map[uint32][]byte{
		0x00000000: []byte{},
		0x04c11db7: []byte{0x00, 0x01},
		0x737af2ae: []byte("hello world"),
	}

	for want, test := range tests {
		var crc uint32
		for _, b := range test {
			CRC32(&crc, b)
		}
		CRC32End(&crc)
		if crc != want {
			t.Fatalf("crc32 %v failed: %#08x != %#08x", test, crc, want)
		}
	}
}

func TestPoly(t *testing.T) {
	var check = []byte("123456789")
	tests := []struct {
		Name string
		Poly Poly
		Data []byte
		Want uint32
	}{
		{"xmodem", Poly{Width: 16, Poly: 0x1021}, []byte("hello world"), 0x3be4},
		{"ccitt", CCITT, check, 0xce3c},
		{"nxdn16", NXDN16, check, 0x29b1},
		{"nxdn12", NXDN12, check, 0x37c},
		{"nxdn6", NXDN6, check, 0x0d},
		{"crc8", CRC8, check, 0xf4},
		{"crc32", Poly{Width: 32, Poly: CRC32Poly}, []byte("hello world"), 0x737af2ae},
	}
	for _, test := range tests {
		if got := test.Poly.ComputeBytes(test.Data); got != test.Want {
			t.Errorf("%s: got %#x, want %#x", test.Name, got, test.Want)
		}
	}
}

func TestMasked16(t *testing.T) {
	data := []byte("hello worl")
	if got, want := Masked16(data, 0xa5a5), uint16(CCITT.ComputeBytes(data))^0xa5a5; got != want {
		t.Fatalf("masked: got %#04x, want %#04x", got, want)
	}
}

func TestPolyCorrectSingle(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab}
	n := len(data) * 8
	orig := fromBytes(data, 16)
	orig.store(n, 16, CCITT.Compute(orig, 0, n))

	if o := CCITT.CorrectSingle(orig, 0, n); o != OutcomePassed {
		t.Fatalf("clean codeword: got %v", o)
	}

	for i := 0; i < n+16; i++ {
		buf := append(bits(nil), orig...)
		buf.Flip(i)
		if o := CCITT.CorrectSingle(buf, 0, n); o != CorrectedBy(1) {
			t.Fatalf("flip %d: got %v", i, o)
		}
		for j := range buf {
			if buf[j] != orig[j] {
				t.Fatalf("flip %d: bit %d not restored", i, j)
			}
		}
	}

	// Two errors are detected but never miscorrected, CCITT has distance 4.
	buf := append(bits(nil), orig...)
	buf.Flip(3)
	buf.Flip(40)
	before := append(bits(nil), buf...)
	if o := CCITT.CorrectSingle(buf, 0, n); o != OutcomeFailed {
		t.Fatalf("double error: got %v", o)
	}
	for j := range buf {
		if buf[j] != before[j] {
			t.Fatalf("failed correction mutated bit %d", j)
		}
	}
}

func TestOutcomeMerge(t *testing.T) {
	tests := []struct {
		A, B, Want Outcome
	}{
		{OutcomePassed, OutcomePassed, OutcomePassed},
		{OutcomePassed, CorrectedBy(2), CorrectedBy(2)},
		{CorrectedBy(1), CorrectedBy(2), CorrectedBy(3)},
		{CorrectedBy(1), OutcomeFailed, OutcomeFailed},
		{OutcomeUnknown, OutcomePassed, OutcomePassed},
		{OutcomeUnknown, OutcomeUnknown, OutcomeUnknown},
	}
	for _, test := range tests {
		if got := test.A.Merge(test.B); got != test.Want {
			t.Errorf("%v merge %v: got %v, want %v", test.A, test.B, got, test.Want)
		}
	}
	if !CorrectedBy(1).Valid() || OutcomeFailed.Valid() || OutcomeUnknown.Valid() {
		t.Fatal("unexpected validity")
	}
	if s := CorrectedBy(3).String(); s != "corrected(3)" {
		t.Fatalf("string: got %q", s)
	}
}
