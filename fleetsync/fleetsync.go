// Package fleetsync decodes Kenwood Fleetsync II data bursts: unit identification,
// status, emergency and paging calls and GPS position reports.
package fleetsync

import (
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc/mpt"
)

// Protocol of all messages produced by this package.
const Protocol = lmr.Fleetsync

const (
	PreambleBits  = 5
	SyncBits      = 16
	HeaderBits    = PreambleBits + SyncBits
	BlockBits     = mpt.CodewordBits
	MaxBlocks     = 8
	MaxFrameBits  = HeaderBits + MaxBlocks*BlockBits
	SyncTolerance = 1
)

// Sync word.
const Sync uint64 = 0x23eb

// Offsets added to the transmitted fleet, ident and status numbers.
const (
	FleetOffset  = 99
	IdentOffset  = 999
	StatusOffset = 9
)

// Block 1. The emergency, lone worker, paging and end of transmission flags are
// active low.
var (
	fsStatus      = bit.Indices(0, 6)
	fsEmergency   = 1
	fsLoneWorker  = 3
	fsPaging      = 5
	fsEOT         = 6
	fsManual      = 7
	fsANI         = 8
	fsStatusFlag  = 9
	fsAcknowledge = 10
	fsMessageType = bit.Indices(8, 12)
	fsGPS         = 14
	fsFleetExt    = 15
	fsFleetFrom   = bit.Indices(16, 23)
	fsIdentFrom   = bit.Indices(24, 35)
	fsIdentTo     = bit.Indices(36, 47)
)

// Block 2.
var fsFleetTo = bit.Indices(64, 71)

// Message types.
const (
	TypeUnknown uint8 = iota
	TypeANI
	TypeStatus
	TypeEmergency
	TypeLoneWorkerEmergency
	TypePaging
	TypeGPS
	TypeAcknowledge
)

var TypeName = map[uint8]string{
	TypeUnknown:             "UNKNOWN",
	TypeANI:                 "ANI",
	TypeStatus:              "STATUS",
	TypeEmergency:           "EMERGENCY",
	TypeLoneWorkerEmergency: "LONE WORKER EMERGENCY",
	TypePaging:              "PAGING",
	TypeGPS:                 "GPS",
	TypeAcknowledge:         "ACKNOWLEDGE",
}

// Key derives the message type from the flags of block 1.
func Key(buf *bit.Buffer) uint8 {
	switch {
	case buf.Flag(fsAcknowledge):
		return TypeAcknowledge
	case buf.Flag(fsStatusFlag) && buf.Flag(fsGPS):
		return TypeGPS
	case buf.Flag(fsStatusFlag):
		return TypeStatus
	case buf.Flag(fsANI):
		return TypeANI
	case buf.Flag(fsGPS):
		return TypeGPS
	case !buf.Flag(fsPaging):
		return TypePaging
	case !buf.Flag(fsEmergency) && !buf.Flag(fsLoneWorker):
		return TypeLoneWorkerEmergency
	case !buf.Flag(fsEmergency):
		return TypeEmergency
	}
	return TypeUnknown
}

// Blocks returns the number of blocks announced by the flags of block 1.
func Blocks(buf *bit.Buffer) int {
	switch {
	case buf.Flag(fsGPS):
		return MaxBlocks
	case buf.Flag(fsFleetExt):
		return 2
	}
	return 1
}
