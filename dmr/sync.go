package dmr

import (
	"math/bits"

	"github.com/pd0mz/go-lmr/bit"
)

// SyncTolerance is the maximum number of sync bit errors.
const SyncTolerance = 4

// SyncPattern identifies one of the 48 bit sync words, see Table 9.2: SYNC Patterns.
type SyncPattern uint8

const (
	SyncPatternUnknown SyncPattern = iota
	SyncPatternBSSourcedVoice
	SyncPatternBSSourcedData
	SyncPatternMSSourcedVoice
	SyncPatternMSSourcedData
	SyncPatternMSSourcedRC
	SyncPatternDirectVoiceTS1
	SyncPatternDirectDataTS1
	SyncPatternDirectVoiceTS2
	SyncPatternDirectDataTS2
)

var syncValue = map[SyncPattern]uint64{
	SyncPatternBSSourcedVoice: 0x755fd7df75f7,
	SyncPatternBSSourcedData:  0xdff57d75df5d,
	SyncPatternMSSourcedVoice: 0x7f7d5dd57dfd,
	SyncPatternMSSourcedData:  0xd5d7f77fd757,
	SyncPatternMSSourcedRC:    0x77d55f7dfd77,
	SyncPatternDirectVoiceTS1: 0x5d577f7757ff,
	SyncPatternDirectDataTS1:  0xf7fdd5ddfd55,
	SyncPatternDirectVoiceTS2: 0x7dffd5f55d5f,
	SyncPatternDirectDataTS2:  0xd7557f5ff7f5,
}

var SyncPatternName = map[SyncPattern]string{
	SyncPatternUnknown:        "unknown",
	SyncPatternBSSourcedVoice: "bs sourced voice",
	SyncPatternBSSourcedData:  "bs sourced data",
	SyncPatternMSSourcedVoice: "ms sourced voice",
	SyncPatternMSSourcedData:  "ms sourced data",
	SyncPatternMSSourcedRC:    "ms sourced rc",
	SyncPatternDirectVoiceTS1: "direct voice ts1",
	SyncPatternDirectDataTS1:  "direct data ts1",
	SyncPatternDirectVoiceTS2: "direct voice ts2",
	SyncPatternDirectDataTS2:  "direct data ts2",
}

// SyncPatterns lists the patterns in framer registration order.
var SyncPatterns = []SyncPattern{
	SyncPatternBSSourcedVoice,
	SyncPatternBSSourcedData,
	SyncPatternMSSourcedVoice,
	SyncPatternMSSourcedData,
	SyncPatternMSSourcedRC,
	SyncPatternDirectVoiceTS1,
	SyncPatternDirectDataTS1,
	SyncPatternDirectVoiceTS2,
	SyncPatternDirectDataTS2,
}

func (p SyncPattern) String() string { return SyncPatternName[p] }

// Value returns the 48 bit sync word.
func (p SyncPattern) Value() uint64 { return syncValue[p] }

// Bits returns the sync word as bits.
func (p SyncPattern) Bits() bit.Bits { return bit.NewBitsFromUint(syncValue[p], SignalBits) }

// Voice reports if the pattern starts a voice superframe.
func (p SyncPattern) Voice() bool {
	switch p {
	case SyncPatternBSSourcedVoice, SyncPatternMSSourcedVoice, SyncPatternDirectVoiceTS1, SyncPatternDirectVoiceTS2:
		return true
	}
	return false
}

// Data reports if the pattern precedes a burst with a slot type.
func (p SyncPattern) Data() bool {
	switch p {
	case SyncPatternBSSourcedData, SyncPatternMSSourcedData, SyncPatternDirectDataTS1, SyncPatternDirectDataTS2:
		return true
	}
	return false
}

// BaseStation reports if the pattern is sent on a continuous base station carrier,
// where a CACH precedes every burst.
func (p SyncPattern) BaseStation() bool {
	return p == SyncPatternBSSourcedVoice || p == SyncPatternBSSourcedData
}

// Slot returns the timeslot implied by a direct mode pattern, or 0.
func (p SyncPattern) Slot() int {
	switch p {
	case SyncPatternDirectVoiceTS1, SyncPatternDirectDataTS1:
		return 1
	case SyncPatternDirectVoiceTS2, SyncPatternDirectDataTS2:
		return 2
	}
	return 0
}

// MatchSync returns the sync pattern nearest to the 48 signal bits and its distance,
// or SyncPatternUnknown if none is within SyncTolerance.
func MatchSync(signal bit.Bits) (SyncPattern, int) {
	var (
		v    = signal[:SignalBits].Uint()
		best = SyncPatternUnknown
		dist = SyncTolerance + 1
	)
	for _, p := range SyncPatterns {
		if d := bits.OnesCount64(v ^ syncValue[p]); d < dist {
			best, dist = p, d
		}
	}
	if best == SyncPatternUnknown {
		return best, -1
	}
	return best, dist
}
