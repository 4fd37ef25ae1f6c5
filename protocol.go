// Package lmr decodes land mobile radio trunking protocols from a demodulated bit
// stream. The subpackages hold the bit buffer, error detection and correction codes,
// the sync framer and one decoder package per protocol.
package lmr

import "strings"

// Protocol tags every frame, message and identifier produced by the decoders.
type Protocol uint8

// Supported protocols
const (
	Unknown Protocol = iota
	P25
	DMR
	MPT1327
	NXDN
	Fleetsync
	MDC1200
	LJ1200
)

var ProtocolName = map[Protocol]string{
	Unknown:   "unknown",
	P25:       "P25",
	DMR:       "DMR",
	MPT1327:   "MPT-1327",
	NXDN:      "NXDN",
	Fleetsync: "Fleetsync II",
	MDC1200:   "MDC-1200",
	LJ1200:    "LJ-1200",
}

var protocolKey = map[string]Protocol{
	"p25":        P25,
	"p25p1":      P25,
	"dmr":        DMR,
	"mpt1327":    MPT1327,
	"mpt-1327":   MPT1327,
	"nxdn":       NXDN,
	"fleetsync":  Fleetsync,
	"fleetsync2": Fleetsync,
	"mdc1200":    MDC1200,
	"mdc-1200":   MDC1200,
	"lj1200":     LJ1200,
	"lj-1200":    LJ1200,
}

var protocolKeyName = map[Protocol]string{
	P25:       "p25",
	DMR:       "dmr",
	MPT1327:   "mpt1327",
	NXDN:      "nxdn",
	Fleetsync: "fleetsync",
	MDC1200:   "mdc1200",
	LJ1200:    "lj1200",
}

// Key returns the configuration key of the protocol, also used in subjects, topics and
// metric labels.
func (p Protocol) Key() string {
	if s, ok := protocolKeyName[p]; ok {
		return s
	}
	return "unknown"
}

func (p Protocol) String() string {
	if s, ok := ProtocolName[p]; ok {
		return s
	}
	return ProtocolName[Unknown]
}

// ParseProtocol looks up a protocol by its configuration key, such as "p25" or "mdc1200".
func ParseProtocol(s string) (Protocol, bool) {
	p, ok := protocolKey[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Protocols returns all decodable protocols in a stable order.
func Protocols() []Protocol {
	return []Protocol{P25, DMR, MPT1327, NXDN, Fleetsync, MDC1200, LJ1200}
}
