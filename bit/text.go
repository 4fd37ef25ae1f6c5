package bit

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// ISO7 decodes chars 7-bit characters starting at offset.
func (b *Buffer) ISO7(offset, chars int) string {
	var s = make([]byte, 0, chars)
	for i := 0; i < chars; i++ {
		s = append(s, byte(b.Range(offset+i*7, offset+i*7+6)))
	}
	return trimText(string(s))
}

// ISO8 decodes chars ISO-8859-1 characters starting at offset.
func (b *Buffer) ISO8(offset, chars int) string {
	return b.decode(charmap.ISO8859_1, offset, chars)
}

// UTF8 decodes chars bytes of UTF-8 starting at offset.
func (b *Buffer) UTF8(offset, chars int) string {
	return b.decode(unicode.UTF8, offset, chars)
}

// UTF16 decodes chars big endian UTF-16 code units starting at offset.
func (b *Buffer) UTF16(offset, chars int) string {
	return b.decode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), offset, chars*2)
}

// GB2312 decodes chars two byte GB2312 characters starting at offset.
func (b *Buffer) GB2312(offset, chars int) string {
	return b.decode(simplifiedchinese.GBK, offset, chars*2)
}

// BCD decodes digits 4-bit binary coded decimal digits starting at offset.
func (b *Buffer) BCD(offset, digits int) string {
	var s strings.Builder
	for i := 0; i < digits; i++ {
		v := b.Range(offset+i*4, offset+i*4+3)
		if v > 9 {
			break
		}
		s.WriteByte(byte('0' + v))
	}
	return s.String()
}

func (b *Buffer) decode(enc encoding.Encoding, offset, n int) string {
	var raw = make([]byte, n)
	for i := range raw {
		raw[i] = byte(b.Range(offset+i*8, offset+i*8+7))
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return trimText(string(raw))
	}
	return trimText(string(out))
}

func trimText(s string) string {
	return strings.TrimRight(s, "\x00 ")
}
