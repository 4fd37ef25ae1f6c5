// Package mpt1327 decodes MPT-1327 control channel signalling: address codewords
// and their appended data codewords.
package mpt1327

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/crc/mpt"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.MPT1327

// Frame layout: preamble reversals, sync and up to five codewords.
const (
	PreambleBits  = 4
	SyncBits      = 16
	HeaderBits    = PreambleBits + SyncBits
	CodewordBits  = mpt.CodewordBits
	MaxCodewords  = 5
	MaxFrameBits  = HeaderBits + MaxCodewords*CodewordBits
	SyncTolerance = 1
)

// Sync words.
const (
	ControlSync uint64 = 0xc4d7 // CCSYNC
	TrafficSync uint64 = 0x3b28 // TCSYNC
)

// DataCodewordKey is the type code of a frame starting with a data codeword.
const DataCodewordKey uint16 = 0xffff

// Address codeword fields. Bit 0 flags an address codeword.
var (
	cwAddress = 0
	cwPrefix  = bit.Indices(1, 7)
	cwIdent1  = bit.Indices(8, 20)
	cwType    = bit.Indices(21, 29)
	cwIdent2  = bit.Indices(30, 42)
)

// Message types, see MPT-1327 section 5.5.
const (
	GTC   uint16 = 0
	ALH   uint16 = 256
	ALHS  uint16 = 257
	ALHD  uint16 = 258
	ALHE  uint16 = 259
	ALHR  uint16 = 260
	ALHX  uint16 = 261
	ALHF  uint16 = 262
	ACK   uint16 = 264
	ACKI  uint16 = 265
	ACKQ  uint16 = 266
	ACKX  uint16 = 267
	ACKV  uint16 = 268
	ACKE  uint16 = 269
	ACKT  uint16 = 270
	ACKB  uint16 = 271
	AHOY  uint16 = 272
	AHYX  uint16 = 274
	AHYP  uint16 = 277
	AHYQ  uint16 = 278
	AHYC  uint16 = 279
	MARK  uint16 = 280
	MAINT uint16 = 281
	CLEAR uint16 = 282
	MOVE  uint16 = 283
	BCAST uint16 = 284
	HEAD  uint16 = 304 // 304-319, bits 2-3 of the offset count the appended codewords minus one
)

// Key returns the registry type code of an address codeword. All goto channel
// messages share GTC.
func Key(buf *bit.Buffer) uint16 {
	if !buf.Flag(cwAddress) {
		return DataCodewordKey
	}
	t := uint16(buf.Int(cwType))
	if t < 256 {
		return GTC
	}
	return t
}

// Codewords returns the number of codewords, the address codeword included, used
// by a message type.
func Codewords(key uint16) int {
	switch {
	case key >= HEAD && key <= HEAD+15:
		return 2 + int(key-HEAD)/4
	case key == ALH, key == AHYQ:
		return 2
	case key == ACKT:
		return 4
	}
	return 1
}

// CorrectCodewords validates and repairs n codewords starting at bit 0 of buf and
// returns the merged outcome.
func CorrectCodewords(buf *bit.Buffer, n int) crc.Outcome {
	var o = crc.OutcomeUnknown
	for i := 0; i < n && (i+1)*CodewordBits <= buf.Size(); i++ {
		o = o.Merge(mpt.Correct(buf, i*CodewordBits))
	}
	return o
}

// Ident classes of the 13 bit ident space.
const (
	DummyIdent   uint16 = 0
	MaxUserIdent uint16 = 8100
	PSTNGI       uint16 = 8101
	PABXI        uint16 = 8102
	DNI          uint16 = 8103
	PSTNSI1      uint16 = 8121
	PSTNSI15     uint16 = 8135
	REGI         uint16 = 8185
	INCI         uint16 = 8186
	DIVERTI      uint16 = 8187
	SDMI         uint16 = 8188
	IPFIXI       uint16 = 8189
	TSCI         uint16 = 8190
	ALLI         uint16 = 8191
)

var identName = map[uint16]string{
	DummyIdent: "DUMMYI",
	PSTNGI:     "PSTNGI",
	PABXI:      "PABXI",
	DNI:        "DNI",
	REGI:       "REGI",
	INCI:       "INCI",
	DIVERTI:    "DIVERTI",
	SDMI:       "SDMI",
	IPFIXI:     "IPFIXI",
	TSCI:       "TSCI",
	ALLI:       "ALLI",
}

// User reports if the ident addresses a radio unit or group.
func User(ident uint16) bool {
	return ident > DummyIdent && ident <= MaxUserIdent
}

// IdentName returns the name of a gateway or special ident, or the formatted unit
// address for user idents.
func IdentName(prefix uint8, ident uint16) string {
	switch {
	case User(ident):
		return fmt.Sprintf("%03d-%04d", prefix, ident)
	case ident >= PSTNSI1 && ident <= PSTNSI15:
		return fmt.Sprintf("PSTNSI%d", ident-PSTNSI1+1)
	}
	if s, ok := identName[ident]; ok {
		return s
	}
	return fmt.Sprintf("spare(%d)", ident)
}
