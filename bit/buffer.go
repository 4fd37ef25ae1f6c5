package bit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pd0mz/go-lmr/crc"
)

var (
	ErrBufferFull = errors.New("bit: buffer full")
	ErrOutOfRange = errors.New("bit: index out of range")
	ErrFieldWidth = errors.New("bit: field too wide")
)

// Buffer is a bit addressable message. It has a logical size, which may be smaller
// than the allocated capacity, and a write pointer used when appending. Index
// based accessors panic when the index is beyond the logical size; these are field
// table authoring errors, not stream errors.
type Buffer struct {
	bits    Bits
	size    int
	pointer int
	outcome crc.Outcome
}

// NewBuffer returns an empty Buffer of the given logical size.
func NewBuffer(size int) *Buffer {
	if size < 0 {
		panic(fmt.Errorf("%w: negative size %d", ErrOutOfRange, size))
	}
	return &Buffer{bits: make(Bits, size), size: size}
}

// NewBufferFromBits returns a full Buffer holding a copy of bits.
func NewBufferFromBits(bits Bits) *Buffer {
	b := &Buffer{bits: make(Bits, len(bits)), size: len(bits), pointer: len(bits)}
	for i, v := range bits {
		b.bits[i] = v & 1
	}
	return b
}

// NewBufferFromBytes returns a full Buffer with the bytes unpacked MSB first.
func NewBufferFromBytes(data []byte) *Buffer {
	bits := NewBits(data)
	return &Buffer{bits: bits, size: len(bits), pointer: len(bits)}
}

// NewBufferFromUint returns a full Buffer of width bits holding v, MSB first.
func NewBufferFromUint(v uint64, width int) *Buffer {
	if width > 64 {
		panic(fmt.Errorf("%w: %d bits into uint64", ErrFieldWidth, width))
	}
	return NewBufferFromBits(NewBitsFromUint(v, width))
}

// ParseBinaryString reads a string of '0' and '1' characters. Whitespace and
// underscores are ignored.
func ParseBinaryString(s string) (*Buffer, error) {
	var bits = make(Bits, 0, len(s))
	for i, c := range s {
		switch c {
		case '0':
			bits = append(bits, 0)
		case '1':
			bits = append(bits, 1)
		case ' ', '\t', '\n', '\r', '_':
		default:
			return nil, fmt.Errorf("bit: invalid character %q at offset %d", c, i)
		}
	}
	return NewBufferFromBits(bits), nil
}

// ParseHex reads hexadecimal digits, four bits per digit.
func ParseHex(s string) (*Buffer, error) {
	var bits = make(Bits, 0, len(s)*4)
	for i, c := range strings.TrimPrefix(strings.ToLower(s), "0x") {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = byte(c - '0')
		case c >= 'a' && c <= 'f':
			v = byte(c-'a') + 10
		case c == ' ':
			continue
		default:
			return nil, fmt.Errorf("bit: invalid hex digit %q at offset %d", c, i)
		}
		bits = append(bits, NewBitsFromUint(uint64(v), 4)...)
	}
	return NewBufferFromBits(bits), nil
}

func (b *Buffer) check(i int) {
	if i < 0 || i >= b.size {
		panic(fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, i, b.size))
	}
}

// Size is the logical size in bits.
func (b *Buffer) Size() int { return b.size }

// Pointer is the write position used by Append.
func (b *Buffer) Pointer() int { return b.pointer }

// Full reports if the write pointer reached the logical size.
func (b *Buffer) Full() bool { return b.pointer >= b.size }

// Grow extends the logical size to size bits. Shrinking is not supported.
func (b *Buffer) Grow(size int) {
	if size <= b.size {
		return
	}
	if size > len(b.bits) {
		bits := make(Bits, size)
		copy(bits, b.bits[:b.size])
		b.bits = bits
	}
	b.size = size
}

// Get returns bit i.
func (b *Buffer) Get(i int) Bit {
	b.check(i)
	return b.bits[i]
}

// Test reports if bit i is set.
func (b *Buffer) Test(i int) bool {
	b.check(i)
	return b.bits[i] == 1
}

func (b *Buffer) Set(i int) {
	b.check(i)
	b.bits[i] = 1
}

func (b *Buffer) Clear(i int) {
	b.check(i)
	b.bits[i] = 0
}

// SetValue sets or clears bit i.
func (b *Buffer) SetValue(i int, v bool) {
	b.check(i)
	if v {
		b.bits[i] = 1
	} else {
		b.bits[i] = 0
	}
}

// Flip toggles bit i.
func (b *Buffer) Flip(i int) {
	b.check(i)
	b.bits[i].Flip()
}

// Append writes one bit at the pointer and advances it.
func (b *Buffer) Append(v Bit) error {
	if b.pointer >= b.size {
		return ErrBufferFull
	}
	b.bits[b.pointer] = v & 1
	b.pointer++
	return nil
}

// AppendBits appends all bits or none.
func (b *Buffer) AppendBits(bits Bits) error {
	if b.pointer+len(bits) > b.size {
		return ErrBufferFull
	}
	for _, v := range bits {
		b.bits[b.pointer] = v & 1
		b.pointer++
	}
	return nil
}

// AppendUint appends the lower width bits of v, MSB first.
func (b *Buffer) AppendUint(v uint64, width int) error {
	return b.AppendBits(NewBitsFromUint(v, width))
}

// Int extracts up to 32 bits. The first index is the most significant bit.
func (b *Buffer) Int(indices []int) uint32 {
	if len(indices) > 32 {
		panic(fmt.Errorf("%w: %d indices into uint32", ErrFieldWidth, len(indices)))
	}
	return uint32(b.long(indices))
}

// Long extracts up to 64 bits. The first index is the most significant bit.
func (b *Buffer) Long(indices []int) uint64 {
	if len(indices) > 64 {
		panic(fmt.Errorf("%w: %d indices into uint64", ErrFieldWidth, len(indices)))
	}
	return b.long(indices)
}

func (b *Buffer) long(indices []int) uint64 {
	var v uint64
	for _, i := range indices {
		b.check(i)
		v = v<<1 | uint64(b.bits[i])
	}
	return v
}

// Flag reports if the single bit field at index i is set.
func (b *Buffer) Flag(i int) bool {
	return b.Test(i)
}

// Range extracts the inclusive range between start and end. The bit at start is the
// most significant bit, so start < end reads big endian and start > end reads little
// endian.
func (b *Buffer) Range(start, end int) uint32 {
	if span(start, end) > 32 {
		panic(fmt.Errorf("%w: %d bits into uint32", ErrFieldWidth, span(start, end)))
	}
	return uint32(b.rangeLong(start, end))
}

// LongRange is Range for fields up to 64 bits.
func (b *Buffer) LongRange(start, end int) uint64 {
	if span(start, end) > 64 {
		panic(fmt.Errorf("%w: %d bits into uint64", ErrFieldWidth, span(start, end)))
	}
	return b.rangeLong(start, end)
}

func (b *Buffer) rangeLong(start, end int) uint64 {
	b.check(start)
	b.check(end)
	var v uint64
	if start <= end {
		for i := start; i <= end; i++ {
			v = v<<1 | uint64(b.bits[i])
		}
	} else {
		for i := start; i >= end; i-- {
			v = v<<1 | uint64(b.bits[i])
		}
	}
	return v
}

func span(start, end int) int {
	if start > end {
		return start - end + 1
	}
	return end - start + 1
}

// Indices returns the index list walking from start to end, both inclusive.
func Indices(start, end int) []int {
	var o = make([]int, 0, span(start, end))
	if start <= end {
		for i := start; i <= end; i++ {
			o = append(o, i)
		}
	} else {
		for i := start; i >= end; i-- {
			o = append(o, i)
		}
	}
	return o
}

// Slice copies the half open range [start, end) into a new full Buffer.
func (b *Buffer) Slice(start, end int) *Buffer {
	if end < start {
		panic(fmt.Errorf("%w: slice [%d:%d]", ErrOutOfRange, start, end))
	}
	if start == end {
		return NewBuffer(0)
	}
	b.check(start)
	b.check(end - 1)
	return NewBufferFromBits(b.bits[start:end])
}

// Bits returns a copy of the logical bits.
func (b *Buffer) Bits() Bits {
	var o = make(Bits, b.size)
	copy(o, b.bits[:b.size])
	return o
}

// Copy returns a deep copy, including the attached outcome.
func (b *Buffer) Copy() *Buffer {
	o := NewBufferFromBits(b.bits[:b.size])
	o.pointer = b.pointer
	o.outcome = b.outcome
	return o
}

// Hex renders the field as uppercase hex, zero padded to digits.
func (b *Buffer) Hex(indices []int, digits int) string {
	return fmt.Sprintf("%0*X", digits, b.Long(indices))
}

// HexRange renders the inclusive range [start, end] as hex.
func (b *Buffer) HexRange(start, end, digits int) string {
	return fmt.Sprintf("%0*X", digits, b.LongRange(start, end))
}

// RotateLeft rotates the inclusive range [start, end] towards start by places.
// Bits outside the range are untouched.
func (b *Buffer) RotateLeft(places, start, end int) {
	b.check(start)
	b.check(end)
	n := end - start + 1
	if n <= 1 {
		return
	}
	places %= n
	if places < 0 {
		places += n
	}
	var tmp = make(Bits, n)
	for i := 0; i < n; i++ {
		tmp[i] = b.bits[start+(i+places)%n]
	}
	copy(b.bits[start:end+1], tmp)
}

// RotateRight rotates the inclusive range [start, end] towards end by places.
func (b *Buffer) RotateRight(places, start, end int) {
	n := end - start + 1
	if n <= 1 {
		b.check(start)
		b.check(end)
		return
	}
	b.RotateLeft(n-places%n, start, end)
}

// XOR combines the width bits starting at offset with value, MSB first.
func (b *Buffer) XOR(offset, width int, value uint64) {
	if width > 64 {
		panic(fmt.Errorf("%w: %d bits from uint64", ErrFieldWidth, width))
	}
	if width == 0 {
		return
	}
	b.check(offset)
	b.check(offset + width - 1)
	for i := 0; i < width; i++ {
		b.bits[offset+i] ^= Bit((value >> uint(width-1-i)) & 1)
	}
}

// XORBits combines mask into the buffer starting at offset.
func (b *Buffer) XORBits(offset int, mask Bits) {
	if len(mask) == 0 {
		return
	}
	b.check(offset)
	b.check(offset + len(mask) - 1)
	for i, v := range mask {
		b.bits[offset+i] ^= v & 1
	}
}

// XORBuffer combines other into the buffer, starting at bit 0. Other may be shorter.
func (b *Buffer) XORBuffer(other *Buffer) {
	b.XORBits(0, other.bits[:other.size])
}

// Load overwrites the width bits starting at offset with value, MSB first.
func (b *Buffer) Load(offset, width int, value uint64) {
	if width > 64 {
		panic(fmt.Errorf("%w: %d bits from uint64", ErrFieldWidth, width))
	}
	if width == 0 {
		return
	}
	b.check(offset)
	b.check(offset + width - 1)
	for i := 0; i < width; i++ {
		b.bits[offset+i] = Bit((value >> uint(width-1-i)) & 1)
	}
}

// Bytes packs the logical bits MSB first, zero padding the last byte.
func (b *Buffer) Bytes() []byte {
	bits := b.bits[:b.size]
	return bits.Bytes()
}

// Cardinality counts the set bits.
func (b *Buffer) Cardinality() int {
	var n int
	for _, v := range b.bits[:b.size] {
		n += int(v)
	}
	return n
}

// Outcome returns the attached CRC/FEC outcome.
func (b *Buffer) Outcome() crc.Outcome { return b.outcome }

// SetOutcome attaches a CRC/FEC outcome.
func (b *Buffer) SetOutcome(o crc.Outcome) { b.outcome = o }

// CorrectedBits is the number of bits repaired by the validator.
func (b *Buffer) CorrectedBits() int {
	if b.outcome.Status == crc.Corrected {
		return b.outcome.Bits
	}
	return 0
}

func (b *Buffer) String() string {
	bits := b.bits[:b.size]
	return bits.String()
}
