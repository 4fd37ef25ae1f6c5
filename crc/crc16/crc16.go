// Package crc16 implements table driven reflected CRC-16 checksums over octets, as
// used by MDC-1200 data blocks.
package crc16

// CCITT is the reflected form of x^16 + x^12 + x^5 + 1.
const CCITT = 0x8408

// Table holds the remainder of every octet for a reflected polynomial.
type Table [256]uint16

// CCITTTable is the table of CCITT.
var CCITTTable = MakeTable(CCITT)

// MakeTable returns the table of a reflected polynomial.
func MakeTable(poly uint16) *Table {
	t := new(Table)
	for i := range t {
		r := uint16(i)
		for j := 0; j < 8; j++ {
			if r&1 == 1 {
				r = r>>1 ^ poly
			} else {
				r >>= 1
			}
		}
		t[i] = r
	}
	return t
}

// Update adds p to a running remainder, starting from init.
func Update(init uint16, t *Table, p []byte) uint16 {
	r := init
	for _, v := range p {
		r = t[byte(r)^v] ^ r>>8
	}
	return r
}

// ChecksumX25 returns the HDLC frame check sequence of data: preset to all ones,
// result inverted.
func ChecksumX25(data []byte) uint16 {
	return ^Update(0xffff, CCITTTable, data)
}

// ChecksumMDC returns the MDC-1200 block checksum of data: preset to zero, result
// inverted.
func ChecksumMDC(data []byte) uint16 {
	return ^Update(0, CCITTTable, data)
}
