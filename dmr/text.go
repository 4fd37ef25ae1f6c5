package dmr

import (
	"errors"
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Defined data format of short data and UDT messages.
const (
	DDFormatBinary uint8 = iota
	DDFormatBCD
	DDFormat7BitChar
	DDFormat8BitISO8859_1
	DDFormat8BitISO8859_2
	DDFormat8BitISO8859_3
	DDFormat8BitISO8859_4
	DDFormat8BitISO8859_5
	DDFormat8BitISO8859_6
	DDFormat8BitISO8859_7
	DDFormat8BitISO8859_8
	DDFormat8BitISO8859_9
	DDFormat8BitISO8859_10
	DDFormat8BitISO8859_11
	DDFormat8BitISO8859_13
	DDFormat8BitISO8859_14
	DDFormat8BitISO8859_15
	DDFormat8BitISO8859_16
	DDFormatUTF8
	DDFormatUTF16
	DDFormatUTF16BE
	DDFormatUTF16LE
	DDFormatUTF32
	DDFormatUTF32BE
	DDFormatUTF32LE
)

var DDFormatName = map[uint8]string{
	DDFormatBinary:         "binary",
	DDFormatBCD:            "BCD",
	DDFormat7BitChar:       "7-bit characters",
	DDFormat8BitISO8859_1:  "8-bit ISO 8859-1",
	DDFormat8BitISO8859_2:  "8-bit ISO 8859-2",
	DDFormat8BitISO8859_3:  "8-bit ISO 8859-3",
	DDFormat8BitISO8859_4:  "8-bit ISO 8859-4",
	DDFormat8BitISO8859_5:  "8-bit ISO 8859-5",
	DDFormat8BitISO8859_6:  "8-bit ISO 8859-6",
	DDFormat8BitISO8859_7:  "8-bit ISO 8859-7",
	DDFormat8BitISO8859_8:  "8-bit ISO 8859-8",
	DDFormat8BitISO8859_9:  "8-bit ISO 8859-9",
	DDFormat8BitISO8859_10: "8-bit ISO 8859-10",
	DDFormat8BitISO8859_11: "8-bit ISO 8859-11",
	DDFormat8BitISO8859_13: "8-bit ISO 8859-13",
	DDFormat8BitISO8859_14: "8-bit ISO 8859-14",
	DDFormat8BitISO8859_15: "8-bit ISO 8859-15",
	DDFormat8BitISO8859_16: "8-bit ISO 8859-16",
	DDFormatUTF8:           "UTF-8",
	DDFormatUTF16:          "UTF-16",
	DDFormatUTF16BE:        "UTF-16 big endian",
	DDFormatUTF16LE:        "UTF-16 little endian",
	DDFormatUTF32:          "UTF-32",
	DDFormatUTF32BE:        "UTF-32 big endian",
	DDFormatUTF32LE:        "UTF-32 little endian",
}

// Byte oriented character sets. Binary, BCD and 7-bit are packed below the octet
// boundary and handled separately.
var encodingMap = map[uint8]encoding.Encoding{
	DDFormat8BitISO8859_1:  charmap.ISO8859_1,
	DDFormat8BitISO8859_2:  charmap.ISO8859_2,
	DDFormat8BitISO8859_3:  charmap.ISO8859_3,
	DDFormat8BitISO8859_4:  charmap.ISO8859_4,
	DDFormat8BitISO8859_5:  charmap.ISO8859_5,
	DDFormat8BitISO8859_6:  charmap.ISO8859_6,
	DDFormat8BitISO8859_7:  charmap.ISO8859_7,
	DDFormat8BitISO8859_8:  charmap.ISO8859_8,
	DDFormat8BitISO8859_9:  charmap.ISO8859_9,
	DDFormat8BitISO8859_10: charmap.ISO8859_10,
	DDFormat8BitISO8859_11: charmap.Windows874, // Thai, superset of ISO 8859-11
	DDFormat8BitISO8859_13: charmap.ISO8859_13,
	DDFormat8BitISO8859_14: charmap.ISO8859_14,
	DDFormat8BitISO8859_15: charmap.ISO8859_15,
	DDFormat8BitISO8859_16: charmap.ISO8859_16,
	DDFormatUTF8:           unicode.UTF8,
	DDFormatUTF16:          unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	DDFormatUTF16BE:        unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	DDFormatUTF16LE:        unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	DDFormatUTF32:          utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	DDFormatUTF32BE:        utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	DDFormatUTF32LE:        utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
}

// udtFormatMap maps the UDT formats carrying text onto their DD format.
var udtFormatMap = map[uint8]uint8{
	UDTFormat4BitBCD:           DDFormatBCD,
	UDTFormatISO7BitChars:      DDFormat7BitChar,
	UDTFormatISO8BitChars:      DDFormat8BitISO8859_1,
	UDTFormatNMEALocation:      DDFormat8BitISO8859_1,
	UDTFormat16BitUnicodeChars: DDFormatUTF16BE,
}

var ErrNoText = errors.New("dmr: format carries no text")

// DecodeText decodes data in the given DD format. Binary data has no text.
func DecodeText(format uint8, data []byte) (string, error) {
	switch format {
	case DDFormatBinary:
		return "", ErrNoText
	case DDFormatBCD:
		return bit.NewBufferFromBytes(data).BCD(0, len(data)*2), nil
	case DDFormat7BitChar:
		return bit.NewBufferFromBytes(data).ISO7(0, len(data)*8/7), nil
	}
	enc, ok := encodingMap[format]
	if !ok {
		return "", fmt.Errorf("dmr: unsupported DD format %d", format)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return trimText(string(out)), nil
}

// EncodeText encodes s in the given DD format.
func EncodeText(format uint8, s string) ([]byte, error) {
	switch format {
	case DDFormatBinary:
		return []byte(s), nil
	case DDFormatBCD:
		buf := bit.NewBuffer((len(s) + 1) / 2 * 8)
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return nil, fmt.Errorf("dmr: %q is not a BCD digit", s[i])
			}
			buf.Load(i*4, 4, uint64(s[i]-'0'))
		}
		if len(s)%2 == 1 {
			buf.Load(len(s)*4, 4, 0xf)
		}
		return buf.Bytes(), nil
	case DDFormat7BitChar:
		buf := bit.NewBuffer((len(s)*7 + 7) / 8 * 8)
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7f {
				return nil, fmt.Errorf("dmr: %q is not a 7-bit character", s[i])
			}
			buf.Load(i*7, 7, uint64(s[i]))
		}
		return buf.Bytes(), nil
	}
	enc, ok := encodingMap[format]
	if !ok {
		return nil, fmt.Errorf("dmr: unsupported DD format %d", format)
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

func trimText(s string) string {
	for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}
